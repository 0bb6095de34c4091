package openfoodfacts

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/TVimala/Packaged-Food-Rating-App/internal/domain"
)

// productResponse is the envelope of /api/v0/product/{barcode}.json.
type productResponse struct {
	Code          string      `json:"code"`
	Status        int         `json:"status"`
	StatusVerbose string      `json:"status_verbose"`
	Product       *offProduct `json:"product"`
}

// searchResponse is the envelope of /cgi/search.pl?json=1.
type searchResponse struct {
	Count    int          `json:"count"`
	Page     int          `json:"page"`
	PageSize int          `json:"page_size"`
	Products []offProduct `json:"products"`
}

// offProduct is the subset of an Open Food Facts product the scorer reads.
type offProduct struct {
	Code            string         `json:"code"`
	ProductName     string         `json:"product_name"`
	ProductNameEn   string         `json:"product_name_en"`
	GenericName     string         `json:"generic_name"`
	Brands          string         `json:"brands"`
	ImageURL        string         `json:"image_url"`
	IngredientsText string         `json:"ingredients_text"`
	IngredientsEn   string         `json:"ingredients_text_en"`
	Nutriments      map[string]any `json:"nutriments"`
	NovaGroup       any            `json:"nova_group"`
}

// name returns the best available product name:
// product_name, then product_name_en, then generic_name.
func (p *offProduct) name() string {
	for _, candidate := range []string{p.ProductName, p.ProductNameEn, p.GenericName} {
		if s := strings.TrimSpace(candidate); s != "" {
			return s
		}
	}
	return ""
}

func (p *offProduct) ingredients() string {
	if p.IngredientsText != "" {
		return p.IngredientsText
	}
	return p.IngredientsEn
}

// mapProduct converts an Open Food Facts product into the domain product.
// Nutriments are passed through untouched; barcode falls back to the
// requested code when the product body omits it.
func mapProduct(p *offProduct, barcode string) *domain.Product {
	code := strings.TrimSpace(p.Code)
	if code == "" {
		code = barcode
	}
	nutriments := p.Nutriments
	if nutriments == nil {
		nutriments = map[string]any{}
	}
	return &domain.Product{
		Barcode:         code,
		Name:            p.name(),
		Brands:          strings.TrimSpace(p.Brands),
		ImageURL:        p.ImageURL,
		IngredientsText: p.ingredients(),
		Nutriments:      nutriments,
		NovaGroup:       novaGroup(p.NovaGroup),
	}
}

// novaGroup reads nova_group, which the API reports as a number or a
// string. Anything outside 1-4 is unknown (0).
func novaGroup(v any) int {
	var n int
	switch x := v.(type) {
	case float64:
		n = int(x)
	case json.Number:
		i, err := x.Int64()
		if err != nil {
			return 0
		}
		n = int(i)
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(x))
		if err != nil {
			return 0
		}
		n = i
	default:
		return 0
	}
	if n < 1 || n > 4 {
		return 0
	}
	return n
}
