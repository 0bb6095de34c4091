package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/TVimala/Packaged-Food-Rating-App/internal/domain"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeAnalysis(w io.Writer, a *domain.Analysis, asJSON bool) error {
	if asJSON {
		return writeJSON(w, a)
	}

	if a.Product != nil && a.Product.Name != "" {
		name := a.Product.Name
		if a.Product.Brands != "" {
			name += " (" + a.Product.Brands + ")"
		}
		fmt.Fprintln(w, name)
	}
	fmt.Fprintf(w, "Score: %d/100  Grade: %s  %s\n", a.Result.Score, a.Result.Grade, a.Result.Band)
	fmt.Fprintf(w, "Nutrients: %d of %d core values present\n", a.Completeness.Present, a.Completeness.Total)

	if len(a.Result.Drivers) > 0 {
		fmt.Fprintln(w, "Drivers:")
		for i, driver := range a.Result.Drivers {
			fmt.Fprintf(w, "  - %s [%s]\n", driver, a.Result.Evidence[i])
		}
	}
	if len(a.Ingredients) > 0 {
		fmt.Fprintf(w, "Ingredients: %s\n", strings.Join(a.Ingredients, ", "))
	}
	return nil
}

func writeCandidates(w io.Writer, candidates []domain.ProductCandidate, asJSON bool) error {
	if asJSON {
		if candidates == nil {
			candidates = []domain.ProductCandidate{}
		}
		return writeJSON(w, candidates)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "BARCODE\tNAME\tBRANDS\tCONFIDENCE")
	for _, c := range candidates {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.0f\n", c.Product.Barcode, c.Product.Name, c.Product.Brands, c.Confidence)
	}
	return tw.Flush()
}
