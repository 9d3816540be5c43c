package seed

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/service/catalog"
)

type catalogFile struct {
	Products []productEntry `yaml:"products"`
}

// price is read as text so amounts like 19.90 never pass through float64
type productEntry struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Price       string `yaml:"price"`
	Image       string `yaml:"image"`
	Stock       uint   `yaml:"stock"`
}

type Result struct {
	Created int
	Updated int
}

func Parse(r io.Reader) ([]models.Product, error) {
	var f catalogFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("seed: parse catalog: %w", err)
	}

	out := make([]models.Product, 0, len(f.Products))
	seen := make(map[string]bool, len(f.Products))
	for i, e := range f.Products {
		name := strings.TrimSpace(e.Name)
		if name == "" {
			return nil, fmt.Errorf("seed: product %d: name is required", i)
		}
		if seen[name] {
			return nil, fmt.Errorf("seed: product %q listed twice", name)
		}
		seen[name] = true

		price, err := catalog.PriceFromString(e.Price)
		if err != nil {
			return nil, fmt.Errorf("seed: product %q: %w", name, err)
		}
		out = append(out, models.Product{
			Name:        name,
			Description: e.Description,
			Price:       price,
			Image:       e.Image,
			Stock:       e.Stock,
		})
	}
	return out, nil
}

func LoadFile(path string) ([]models.Product, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("seed: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Apply upserts products by name, so running it again only refreshes the rows.
func Apply(ctx context.Context, r *repo.GormRepo, products []models.Product) (Result, error) {
	var res Result
	for i := range products {
		created, err := r.UpsertProductByName(ctx, &products[i])
		if err != nil {
			return res, fmt.Errorf("seed: upsert %q: %w", products[i].Name, err)
		}
		if created {
			res.Created++
		} else {
			res.Updated++
		}
	}
	logging.FromContext(ctx).Info("catalog_seeded", "created", res.Created, "updated", res.Updated)
	return res, nil
}
