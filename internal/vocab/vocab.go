// Package vocab holds the keyword tables driving attribute extraction and
// sale classification. The tables are plain data so new brands, units or
// sale vocabularies can be supplied from a yaml file without code changes.
package vocab

import (
	"fmt"
	"os"

	"github.com/milotrack/milo-price-tracker/internal/platform/models"
	"gopkg.in/yaml.v3"
)

// UnitRule maps a unit token found in a title to a canonical unit.
type UnitRule struct {
	Token     string  `yaml:"token"`
	Canonical string  `yaml:"canonical"`
	Factor    float64 `yaml:"factor"`
}

// FormRule maps a keyword to a container form.
type FormRule struct {
	Keyword string               `yaml:"keyword"`
	Form    models.ContainerForm `yaml:"form"`
}

// Vocabulary is the full keyword configuration.
type Vocabulary struct {
	Brands      []string   `yaml:"brands"`
	NoiseTokens []string   `yaml:"noise_tokens"`
	Units       []UnitRule `yaml:"units"`
	Forms       []FormRule `yaml:"forms"`
	Variants    []string   `yaml:"variants"`

	FlashKeywords        []string            `yaml:"flash_keywords"`
	PlatformSaleKeywords map[string][]string `yaml:"platform_sale_keywords"`

	PlatformPriority  []string `yaml:"platform_priority"`
	LowStockThreshold int      `yaml:"low_stock_threshold"`
	DiscountThreshold float64  `yaml:"discount_threshold"`
}

// Default returns the built-in vocabulary for the Milo grocery domain.
func Default() Vocabulary {
	return Vocabulary{
		Brands:      []string{"milo"},
		NoiseTokens: []string{"promo", "bundle", "exclusive", "new", "!"},
		Units: []UnitRule{
			{Token: "ml", Canonical: "ml", Factor: 1},
			{Token: "l", Canonical: "ml", Factor: 1000},
			{Token: "g", Canonical: "g", Factor: 1},
			{Token: "kg", Canonical: "g", Factor: 1000},
		},
		Forms: []FormRule{
			{Keyword: "uht", Form: models.FormCarton},
			{Keyword: "tetra", Form: models.FormCarton},
			{Keyword: "carton", Form: models.FormCarton},
			{Keyword: "packet", Form: models.FormCarton},
			{Keyword: "bottle", Form: models.FormBottle},
			{Keyword: "pet", Form: models.FormBottle},
			{Keyword: "pouch", Form: models.FormPouch},
			{Keyword: "refill", Form: models.FormPouch},
			{Keyword: "sachet", Form: models.FormPouch},
			{Keyword: "powder", Form: models.FormTin},
			{Keyword: "tin", Form: models.FormTin},
		},
		Variants: []string{"activ-go", "gao kosong", "gao", "kosong", "dinosaur", "3-in-1", "uht", "powder"},
		FlashKeywords: []string{
			"flash sale", "flash deal", "lightning deal", "lazflash",
		},
		PlatformSaleKeywords: map[string][]string{
			"shopee": {"9.9", "11.11", "shopee sale", "shopee live sale"},
			"lazada": {"9.9", "11.11", "lazada sale"},
		},
		PlatformPriority: []string{
			"fairprice", "shengsiong", "giant", "shopee", "lazada",
		},
		LowStockThreshold: 20,
		DiscountThreshold: 20,
	}
}

// Load reads a vocabulary from a yaml file. Fields absent from the file keep
// their defaults. An empty path returns the default vocabulary.
func Load(path string) (Vocabulary, error) {
	voc := Default()
	if path == "" {
		return voc, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return voc, fmt.Errorf("can't read vocabulary file: %w", err)
	}

	if err := yaml.Unmarshal(data, &voc); err != nil {
		return voc, fmt.Errorf("can't parse vocabulary file: %w", err)
	}

	return voc, nil
}
