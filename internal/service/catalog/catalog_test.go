package catalog

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/dbtest"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/mykafka"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/service/search"
)

func newService(t *testing.T) *Service {
	t.Helper()
	r := repo.New(dbtest.Open(t))
	return &Service{Repo: r, Search: &search.Service{Repo: r}, Events: mykafka.Discard{}}
}

func TestListAndGet(t *testing.T) {
	s := newService(t)
	ctx := context.Background()
	for _, name := range []string{"a", "b", "c"} {
		dbtest.CreateProduct(t, s.Repo.DB, name, "1.00")
	}

	page, err := s.List(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "c", page.Data[0].Name)
	assert.EqualValues(t, 3, page.Meta.Total)
	assert.Equal(t, 2, page.Meta.TotalPages)
	assert.True(t, page.Meta.HasPrev)
	assert.False(t, page.Meta.HasNext)

	p, err := s.Get(ctx, page.Data[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "c", p.Name)

	_, err = s.Get(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreatePatchDelete(t *testing.T) {
	s := newService(t)
	ctx := context.Background()

	_, err := s.Create(ctx, &models.Product{Name: " ", Price: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, ErrValidation)

	p, err := s.Create(ctx, &models.Product{Name: "Teapot", Price: decimal.RequireFromString("19.999"), Stock: 3})
	require.NoError(t, err)
	assert.NotZero(t, p.ID)
	assert.Equal(t, "20.00", p.Price.StringFixed(2))

	price := decimal.RequireFromString("15.50")
	name := "Iron teapot"
	p, err = s.Patch(ctx, p.ID, repo.ProductPatch{Name: &name, Price: &price})
	require.NoError(t, err)
	assert.Equal(t, "Iron teapot", p.Name)
	assert.Equal(t, "15.50", p.Price.StringFixed(2))
	assert.EqualValues(t, 3, p.Stock)

	negative := decimal.NewFromInt(-1)
	_, err = s.Patch(ctx, p.ID, repo.ProductPatch{Price: &negative})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = s.Patch(ctx, 999, repo.ProductPatch{Name: &name})
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Delete(ctx, p.ID))
	assert.ErrorIs(t, s.Delete(ctx, p.ID), ErrNotFound)
}

func TestSearch(t *testing.T) {
	s := newService(t)
	dbtest.CreateProduct(t, s.Repo.DB, "teapot", "25.00")
	dbtest.CreateProduct(t, s.Repo.DB, "mug", "9.00")

	page, err := s.Search(context.Background(), "TEA", 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "teapot", page.Data[0].Name)

	_, err = s.Search(context.Background(), "  ", 1, 10)
	assert.ErrorIs(t, err, ErrValidation)

	n, err := s.Reindex(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n, "nothing to index without elasticsearch")
}

func TestPriceFromString(t *testing.T) {
	t.Parallel()

	d, err := PriceFromString(" 12.345 ")
	require.NoError(t, err)
	assert.Equal(t, "12.35", d.StringFixed(2))

	_, err = PriceFromString("abc")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = PriceFromString("-1")
	assert.ErrorIs(t, err, ErrValidation)
}
