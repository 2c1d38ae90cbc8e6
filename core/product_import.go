package core

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	maxImportSize  = 1 * 1024 * 1024
	maxImportItems = 500
)

type productImportDoc struct {
	Products []productImportItem `yaml:"products"`
}

type productImportItem struct {
	Name        string  `yaml:"name"`
	Description string  `yaml:"description"`
	Price       float64 `yaml:"price"`
	Category    string  `yaml:"category"`
	ImageURL    string  `yaml:"image_url"`
	Stock       int     `yaml:"stock"`
}

// ParseProductCatalog converts a YAML catalog document into create inputs.
// Expected layout:
//
//	products:
//	  - name: MacBook Pro 16"
//	    description: Powerful laptop
//	    price: 2499.99
//	    category: Electronics
//	    image_url: https://example.com/mbp.jpg
//	    stock: 10
//
// Every item is validated before anything is returned, so a bad entry rejects
// the whole document instead of importing half of it.
func ParseProductCatalog(data []byte) ([]ProductInput, error) {
	if len(data) == 0 {
		return nil, errors.New("empty catalog document")
	}
	if len(data) > maxImportSize {
		return nil, fmt.Errorf("catalog document exceeds %d bytes", maxImportSize)
	}

	var doc productImportDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid yaml: %w", err)
	}
	if len(doc.Products) == 0 {
		return nil, errors.New("catalog document has no products")
	}
	if len(doc.Products) > maxImportItems {
		return nil, fmt.Errorf("catalog document exceeds %d products", maxImportItems)
	}

	inputs := make([]ProductInput, 0, len(doc.Products))
	for i, item := range doc.Products {
		name := strings.TrimSpace(item.Name)
		category := strings.TrimSpace(item.Category)
		if name == "" {
			return nil, fmt.Errorf("product %d: name is required", i+1)
		}
		if category == "" {
			return nil, fmt.Errorf("product %d (%s): category is required", i+1, name)
		}
		if item.Price <= 0 {
			return nil, fmt.Errorf("product %d (%s): price must be greater than zero", i+1, name)
		}
		if item.Stock < 0 {
			return nil, fmt.Errorf("product %d (%s): stock must not be negative", i+1, name)
		}

		in := ProductInput{
			Name:     name,
			Price:    item.Price,
			Category: category,
			Stock:    item.Stock,
		}
		if d := strings.TrimSpace(item.Description); d != "" {
			in.Description = &d
		}
		if u := strings.TrimSpace(item.ImageURL); u != "" {
			in.ImageURL = &u
		}
		inputs = append(inputs, in)
	}
	return inputs, nil
}
