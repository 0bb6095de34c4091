package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/TVimala/Packaged-Food-Rating-App/config"
	"github.com/TVimala/Packaged-Food-Rating-App/internal/bootstrap"
	"github.com/TVimala/Packaged-Food-Rating-App/internal/logging"
)

// options holds the global flags
type options struct {
	jsonOutput   bool
	logLevel     string
	policyFile   string
	synonymsFile string
	cfg          *config.Config
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "foodscore",
		Short: "Health scores for packaged food",
		Long: `foodscore rates packaged food on a 0-100 scale from its nutrition facts.

Products are looked up on Open Food Facts by barcode or name, or scored
straight from the text of a nutrition label.`,
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if opts.policyFile != "" {
				cfg.Scoring.PolicyFile = opts.policyFile
			}
			if opts.synonymsFile != "" {
				cfg.Scoring.SynonymsFile = opts.synonymsFile
			}
			opts.cfg = cfg

			level := cfg.Logging.Level
			if opts.logLevel != "" {
				level = opts.logLevel
			}
			logging.Init(logging.ParseLevel(level), cfg.Logging.Format, os.Stderr)
			return nil
		},
	}

	cmd.PersistentFlags().BoolVar(&opts.jsonOutput, "json", false, "print results as JSON")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error; default from config)")
	cmd.PersistentFlags().StringVar(&opts.policyFile, "policy", "", "scoring policy YAML (default: built-in)")
	cmd.PersistentFlags().StringVar(&opts.synonymsFile, "synonyms", "", "ingredient synonym YAML (default: built-in)")

	cmd.AddCommand(barcodeCmd(opts))
	cmd.AddCommand(searchCmd(opts))
	cmd.AddCommand(textCmd(opts))
	cmd.AddCommand(ingredientsCmd(opts))
	cmd.AddCommand(policyCmd(opts))

	return cmd
}

// runtime builds the analysis service for a command
func (o *options) runtime() (*bootstrap.Runtime, error) {
	return bootstrap.New(o.cfg)
}
