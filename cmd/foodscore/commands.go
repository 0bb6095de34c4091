package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"github.com/TVimala/Packaged-Food-Rating-App/internal/domain"
)

func barcodeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "barcode <code>",
		Short: "Score a product by barcode",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.runtime()
			if err != nil {
				return err
			}
			defer rt.Close()

			analysis, err := rt.Service.AnalyzeBarcode(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("scoring %s: %w", args[0], err)
			}
			return writeAnalysis(cmd.OutOrStdout(), analysis, opts.jsonOutput)
		},
	}
}

func searchCmd(opts *options) *cobra.Command {
	var (
		brand string
		limit int
	)

	cmd := &cobra.Command{
		Use:   "search <name>",
		Short: "Search products by name",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.runtime()
			if err != nil {
				return err
			}
			defer rt.Close()

			candidates, err := rt.Service.SearchProducts(cmd.Context(), strings.Join(args, " "), brand, limit)
			lowConfidence := errors.Is(err, domain.ErrLowConfidence)
			if err != nil && !lowConfidence {
				return err
			}
			if err := writeCandidates(cmd.OutOrStdout(), candidates, opts.jsonOutput); err != nil {
				return err
			}
			if lowConfidence && !opts.jsonOutput {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning: no candidate matched the query closely")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&brand, "brand", "", "brand to favor when ranking")
	cmd.Flags().IntVar(&limit, "limit", 5, "maximum number of candidates")
	return cmd
}

func textCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "text <file|->",
		Short: "Score the text of a nutrition label",
		Long:  `Reads nutrition label text (for example OCR output) from a file, or from stdin when the argument is "-".`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}

			rt, err := opts.runtime()
			if err != nil {
				return err
			}
			defer rt.Close()

			analysis, err := rt.Service.AnalyzeText(cmd.Context(), text)
			if err != nil && !errors.Is(err, domain.ErrNoNutritionData) {
				return err
			}
			if err := writeAnalysis(cmd.OutOrStdout(), analysis, opts.jsonOutput); err != nil {
				return err
			}
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning: no nutrient values found in the label text")
			}
			return nil
		},
	}
}

func ingredientsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "ingredients <text>",
		Short: "Normalize an ingredient list",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.runtime()
			if err != nil {
				return err
			}
			defer rt.Close()

			terms := rt.Service.NormalizeIngredients(strings.Join(args, " "))
			if opts.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), terms)
			}
			for _, term := range terms {
				fmt.Fprintln(cmd.OutOrStdout(), term)
			}
			return nil
		},
	}
}

func policyCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "policy",
		Short: "Print the active scoring policy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := opts.runtime()
			if err != nil {
				return err
			}
			defer rt.Close()

			if opts.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), map[string]any{
					"digest": rt.Policy.Digest(),
					"policy": rt.Policy,
				})
			}

			out, err := yaml.Marshal(rt.Policy)
			if err != nil {
				return fmt.Errorf("encoding policy: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "# digest: %s\n%s", rt.Policy.Digest(), out)
			return nil
		},
	}
}

// readInput reads the named file, or r when name is "-"
func readInput(r io.Reader, name string) (string, error) {
	var (
		data []byte
		err  error
	)
	if name == "-" {
		data, err = io.ReadAll(r)
	} else {
		data, err = os.ReadFile(name)
	}
	if err != nil {
		return "", fmt.Errorf("reading label text: %w", err)
	}
	return string(data), nil
}
