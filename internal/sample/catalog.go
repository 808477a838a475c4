package sample

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Category is one product family with its price band.
type Category struct {
	Name     string   `yaml:"name"`
	Products []string `yaml:"products"`
	MinPrice float64  `yaml:"min_price"`
	MaxPrice float64  `yaml:"max_price"`
}

// CountryWeight is a country name with its sampling weight. Weights are
// relative; they do not need to sum to one.
type CountryWeight struct {
	Name   string  `yaml:"name"`
	Weight float64 `yaml:"weight"`
}

// Catalog drives the generator: which products exist, what they cost, and
// where orders ship.
type Catalog struct {
	Categories []Category      `yaml:"categories"`
	Countries  []CountryWeight `yaml:"countries"`
}

// DefaultCatalog returns the built-in online-retail catalog.
func DefaultCatalog() *Catalog {
	return &Catalog{
		Categories: []Category{
			{
				Name:     "Electronics",
				Products: []string{"Laptop", "Mouse", "Keyboard", "Monitor", "Headphones", "USB Cable", "Webcam"},
				MinPrice: 15, MaxPrice: 800,
			},
			{
				Name:     "Home & Garden",
				Products: []string{"Plant Pot", "Garden Tools", "Cushion", "Lamp", "Picture Frame", "Vase"},
				MinPrice: 5, MaxPrice: 150,
			},
			{
				Name:     "Clothing",
				Products: []string{"T-Shirt", "Jeans", "Dress", "Jacket", "Sneakers", "Hat", "Scarf"},
				MinPrice: 10, MaxPrice: 200,
			},
			{
				Name:     "Books",
				Products: []string{"Fiction Book", "Non-Fiction Book", "Magazine", "Comic Book", "Textbook"},
				MinPrice: 8, MaxPrice: 50,
			},
			{
				Name:     "Toys",
				Products: []string{"Board Game", "Puzzle", "Action Figure", "Doll", "Building Blocks"},
				MinPrice: 10, MaxPrice: 80,
			},
		},
		Countries: []CountryWeight{
			{Name: "United Kingdom", Weight: 0.70},
			{Name: "Germany", Weight: 0.08},
			{Name: "France", Weight: 0.07},
			{Name: "Spain", Weight: 0.05},
			{Name: "Netherlands", Weight: 0.04},
			{Name: "Belgium", Weight: 0.02},
			{Name: "Switzerland", Weight: 0.02},
			{Name: "USA", Weight: 0.01},
			{Name: "Australia", Weight: 0.01},
		},
	}
}

// LoadCatalog reads and validates a YAML catalog file.
func LoadCatalog(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var c Catalog
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}
	return &c, nil
}

func (c *Catalog) validate() error {
	if len(c.Categories) == 0 {
		return fmt.Errorf("no categories")
	}
	for _, cat := range c.Categories {
		if strings.TrimSpace(cat.Name) == "" {
			return fmt.Errorf("category with empty name")
		}
		if len(cat.Products) == 0 {
			return fmt.Errorf("category %q has no products", cat.Name)
		}
		if cat.MinPrice <= 0 || cat.MaxPrice < cat.MinPrice {
			return fmt.Errorf("category %q has price band %.2f..%.2f", cat.Name, cat.MinPrice, cat.MaxPrice)
		}
	}
	if len(c.Countries) == 0 {
		return fmt.Errorf("no countries")
	}
	total := 0.0
	for _, cw := range c.Countries {
		if cw.Weight < 0 {
			return fmt.Errorf("country %q has negative weight", cw.Name)
		}
		total += cw.Weight
	}
	if total <= 0 {
		return fmt.Errorf("country weights sum to zero")
	}
	return nil
}

// stockPrefix derives the stock code prefix from a category name, the first
// three letters uppercased.
func stockPrefix(name string) string {
	letters := make([]rune, 0, 3)
	for _, r := range name {
		if r == ' ' || r == '&' {
			continue
		}
		letters = append(letters, r)
		if len(letters) == 3 {
			break
		}
	}
	return strings.ToUpper(string(letters))
}
