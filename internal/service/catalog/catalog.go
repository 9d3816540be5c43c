package catalog

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/mykafka"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/service/search"
	"github.com/Skotchmaster/storefront/internal/util"
)

var (
	ErrNotFound   = errors.New("product not found")
	ErrValidation = errors.New("invalid product")
)

type Service struct {
	Repo   *repo.GormRepo
	Search *search.Service
	Events mykafka.Publisher
}

type Page struct {
	Data []models.Product `json:"data"`
	Meta util.Meta        `json:"meta"`
}

type ProductEvent struct {
	Type      string `json:"type"`
	ProductID uint   `json:"product_id"`
	Name      string `json:"name,omitempty"`
}

func (s *Service) List(ctx context.Context, page, size int) (*Page, error) {
	page, size = util.Normalize(page, size)
	offset, limit := util.Calculate(page, size)
	total, items, err := s.Repo.GetProducts(ctx, offset, limit)
	if err != nil {
		return nil, err
	}
	return &Page{Data: items, Meta: util.NewMeta(page, size, total)}, nil
}

func (s *Service) Get(ctx context.Context, id uint) (*models.Product, error) {
	p, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

// Search uses Elasticsearch when configured and SQL otherwise.
func (s *Service) Search(ctx context.Context, q string, page, size int) (*Page, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, fmt.Errorf("%w: empty query", ErrValidation)
	}
	page, size = util.Normalize(page, size)
	from, limit := util.Calculate(page, size)
	total, items, err := s.Search.Search(ctx, q, from, limit)
	if err != nil {
		return nil, err
	}
	return &Page{Data: items, Meta: util.NewMeta(page, size, total)}, nil
}

func validate(p *models.Product) error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if p.Price.IsNegative() {
		return fmt.Errorf("%w: price must not be negative", ErrValidation)
	}
	return nil
}

func (s *Service) Create(ctx context.Context, p *models.Product) (*models.Product, error) {
	p.Price = p.Price.Round(2)
	if err := validate(p); err != nil {
		return nil, err
	}
	created, err := s.Repo.CreateProduct(ctx, p)
	if err != nil {
		return nil, err
	}
	s.sync(ctx, created)
	s.publish(ctx, ProductEvent{Type: "product_created", ProductID: created.ID, Name: created.Name})
	return created, nil
}

func (s *Service) Patch(ctx context.Context, id uint, patch repo.ProductPatch) (*models.Product, error) {
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if patch.Price != nil {
		if patch.Price.IsNegative() {
			return nil, fmt.Errorf("%w: price must not be negative", ErrValidation)
		}
		rounded := patch.Price.Round(2)
		patch.Price = &rounded
	}
	p, err := s.Repo.PatchProduct(ctx, id, patch)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	s.sync(ctx, p)
	s.publish(ctx, ProductEvent{Type: "product_updated", ProductID: p.ID, Name: p.Name})
	return p, nil
}

func (s *Service) Delete(ctx context.Context, id uint) error {
	if err := s.Repo.DeleteProduct(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if s.Search != nil {
		if err := s.Search.DeleteProduct(ctx, id); err != nil {
			logging.FromContext(ctx).Warn("search_index_failed", "op", "delete", "product_id", id, "error", err)
		}
	}
	s.publish(ctx, ProductEvent{Type: "product_deleted", ProductID: id})
	return nil
}

// Reindex pushes every product into the search index. Used after seeding.
func (s *Service) Reindex(ctx context.Context) (int, error) {
	if s.Search == nil || !s.Search.Enabled() {
		return 0, nil
	}
	if err := s.Search.EnsureIndex(ctx); err != nil {
		return 0, err
	}
	n := 0
	for offset := 0; ; offset += util.MaxPageSize {
		_, items, err := s.Repo.GetProducts(ctx, offset, util.MaxPageSize)
		if err != nil {
			return n, err
		}
		for i := range items {
			if err := s.Search.IndexProduct(ctx, &items[i]); err != nil {
				return n, err
			}
			n++
		}
		if len(items) < util.MaxPageSize {
			return n, nil
		}
	}
}

// sync keeps the search index in line with the table. Failures only cost search freshness.
func (s *Service) sync(ctx context.Context, p *models.Product) {
	if s.Search == nil {
		return
	}
	if err := s.Search.IndexProduct(ctx, p); err != nil {
		logging.FromContext(ctx).Warn("search_index_failed", "op", "index", "product_id", p.ID, "error", err)
	}
}

func (s *Service) publish(ctx context.Context, ev ProductEvent) {
	mykafka.Publish(ctx, s.Events, logging.FromContext(ctx), mykafka.TopicProductEvents,
		strconv.FormatUint(uint64(ev.ProductID), 10), ev)
}

// PriceFromString parses a money amount, rejecting negatives.
func PriceFromString(v string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(v))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: price %q", ErrValidation, v)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: price must not be negative", ErrValidation)
	}
	return d.Round(2), nil
}
