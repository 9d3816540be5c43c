package purchase

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/dbtest"
	"github.com/Skotchmaster/storefront/internal/metrics"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
)

type recorder struct {
	mu     sync.Mutex
	events []CompletedEvent
}

func (r *recorder) PublishEvent(_ context.Context, _, _ string, event any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event.(CompletedEvent))
	return nil
}

func (r *recorder) Close() error { return nil }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newService(t *testing.T) (*Service, *gorm.DB, *recorder) {
	t.Helper()
	db := dbtest.Open(t)
	rec := &recorder{}
	return &Service{Repo: repo.New(db), Events: rec, Metrics: metrics.New()}, db, rec
}

func balanceOf(t *testing.T, db *gorm.DB, id uint) string {
	t.Helper()
	var u models.User
	require.NoError(t, db.First(&u, id).Error)
	return u.Balance.StringFixed(2)
}

func ledgerSize(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.Purchase{}).Count(&n).Error)
	return n
}

func TestBuy_EmptyCartMutatesNothing(t *testing.T) {
	s, db, rec := newService(t)
	u := dbtest.CreateUser(t, db, "ana@example.com", "secret1", "100.00")

	_, err := s.Buy(context.Background(), u.ID, BuyInput{Items: []Item{}})
	assert.ErrorIs(t, err, ErrEmptyCart)
	_, err = s.Buy(context.Background(), u.ID, BuyInput{})
	assert.ErrorIs(t, err, ErrEmptyCart)

	assert.Equal(t, "100.00", balanceOf(t, db, u.ID))
	assert.Zero(t, ledgerSize(t, db))
	assert.Empty(t, rec.events)
}

func TestBuy_InsufficientBalance(t *testing.T) {
	s, db, _ := newService(t)
	u := dbtest.CreateUser(t, db, "ana@example.com", "secret1", "100.00")

	_, err := s.Buy(context.Background(), u.ID, BuyInput{Items: []Item{
		{Name: "Lamp", Price: dec("75.00"), Quantity: 2},
	}})
	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.Equal(t, "100.00", balanceOf(t, db, u.ID))
	assert.Zero(t, ledgerSize(t, db))
}

func TestBuy_DebitsAndWritesOneRowPerLine(t *testing.T) {
	s, db, rec := newService(t)
	u := dbtest.CreateUser(t, db, "ana@example.com", "secret1", "100.00")

	saved, err := s.Buy(context.Background(), u.ID, BuyInput{Items: []Item{
		{Name: "Mug", Price: dec("10.00"), Quantity: 3},
		{Name: "Pen", Price: dec("5.00"), Quantity: 2},
	}})
	require.NoError(t, err)
	require.Len(t, saved, 2)

	assert.Equal(t, "60.00", balanceOf(t, db, u.ID))

	rows, err := s.List(context.Background(), u.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	byName := map[string]models.Purchase{}
	for _, r := range rows {
		byName[r.ItemName] = r
	}
	assert.Equal(t, "10.00", byName["Mug"].Price.StringFixed(2))
	assert.Equal(t, 3, byName["Mug"].Quantity)
	assert.Equal(t, "5.00", byName["Pen"].Price.StringFixed(2))
	assert.Equal(t, 2, byName["Pen"].Quantity)

	for _, r := range rows {
		assert.Equal(t, DefaultStatus, r.Status)
		assert.Equal(t, PaymentBalance, r.PaymentMethod)
		assert.Equal(t, "ana@example.com", r.Email)
		assert.Equal(t, "Calle Mayor 1", r.Direction)
		assert.NotZero(t, r.ID)
		assert.False(t, r.CreatedAt.IsZero())
	}

	require.Len(t, rec.events, 1)
	assert.Equal(t, "purchase_completed", rec.events[0].Type)
	assert.Equal(t, "40.00", rec.events[0].Total.StringFixed(2))
	assert.Len(t, rec.events[0].PurchaseIDs, 2)
}

// dbtest pins sqlite to one connection, so the two checkouts run one after the other here.
// The statement shape that keeps truly parallel checkouts safe is covered by the sqlmock
// test in the repo package.
func TestBuy_ConcurrentPurchasesNeverOverdraw(t *testing.T) {
	s, db, _ := newService(t)
	u := dbtest.CreateUser(t, db, "ana@example.com", "secret1", "100.00")

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.Buy(context.Background(), u.ID, BuyInput{Items: []Item{
				{Name: "Chair", Price: dec("60.00"), Quantity: 1},
			}})
		}(i)
	}
	wg.Wait()

	ok, insufficient := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrInsufficientBalance):
			insufficient++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, insufficient)
	assert.Equal(t, "40.00", balanceOf(t, db, u.ID))
	assert.EqualValues(t, 1, ledgerSize(t, db))
}

func TestBuy_Validation(t *testing.T) {
	s, db, _ := newService(t)
	u := dbtest.CreateUser(t, db, "ana@example.com", "secret1", "100.00")
	missing := uint(999)

	tests := map[string]BuyInput{
		"no name":         {Items: []Item{{Name: " ", Price: dec("1"), Quantity: 1}}},
		"negative price":  {Items: []Item{{Name: "x", Price: dec("-1"), Quantity: 1}}},
		"zero quantity":   {Items: []Item{{Name: "x", Price: dec("1"), Quantity: 0}}},
		"bad method":      {Items: []Item{{Name: "x", Price: dec("1"), Quantity: 1}}, PaymentMethod: "cash"},
		"unknown product": {Items: []Item{{ProductID: &missing, Name: "x", Price: dec("1"), Quantity: 1}}},
		"sub-cent price":  {Items: []Item{{Name: "Bolt", Price: dec("0.004"), Quantity: 1000}}},
		"huge quantity":   {Items: []Item{{Name: "x", Price: dec("0"), Quantity: 3000000000}}},
		"huge price": {
			Items:         []Item{{Name: "Yacht", Price: dec("100000000000"), Quantity: 1}},
			PaymentMethod: PaymentCard,
		},
		"huge total": {
			Items:         []Item{{Name: "Gold", Price: dec("9999999999.99"), Quantity: 2}},
			PaymentMethod: PaymentCard,
		},
	}
	for name, in := range tests {
		_, err := s.Buy(context.Background(), u.ID, in)
		assert.ErrorIs(t, err, ErrValidation, name)
	}
	assert.Equal(t, "100.00", balanceOf(t, db, u.ID))
	assert.Zero(t, ledgerSize(t, db))
}

func TestBuy_DebitEqualsLedgerSum(t *testing.T) {
	s, db, _ := newService(t)
	u := dbtest.CreateUser(t, db, "ana@example.com", "secret1", "100.00")

	_, err := s.Buy(context.Background(), u.ID, BuyInput{Items: []Item{
		{Name: "Bolt", Price: dec("0.05"), Quantity: 333},
		{Name: "Nut", Price: dec("1.10"), Quantity: 7},
		{Name: "Washer", Price: dec("0.00"), Quantity: 4},
	}})
	require.NoError(t, err)

	var rows []models.Purchase
	require.NoError(t, db.Where("user_id = ?", u.ID).Find(&rows).Error)
	require.Len(t, rows, 3)
	sum := decimal.Zero
	for _, r := range rows {
		sum = sum.Add(r.Price.Mul(decimal.NewFromInt(int64(r.Quantity))))
	}

	var after models.User
	require.NoError(t, db.First(&after, u.ID).Error)
	debited := dec("100.00").Sub(after.Balance)
	assert.True(t, debited.Equal(sum), "debited %s, ledger %s", debited, sum)
	assert.Equal(t, "24.35", debited.StringFixed(2))
}

func TestBuy_ExternalPaymentDoesNotDebit(t *testing.T) {
	s, db, _ := newService(t)
	u := dbtest.CreateUser(t, db, "ana@example.com", "secret1", "5.00")

	saved, err := s.Buy(context.Background(), u.ID, BuyInput{
		Items:         []Item{{Name: "Desk", Price: dec("250.00"), Quantity: 1}},
		PaymentMethod: "Card",
		Status:        "paid",
	})
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, PaymentCard, saved[0].PaymentMethod)
	assert.Equal(t, "paid", saved[0].Status)
	assert.Equal(t, "5.00", balanceOf(t, db, u.ID))
}

func TestBuy_CatalogPriceWins(t *testing.T) {
	s, db, _ := newService(t)
	u := dbtest.CreateUser(t, db, "ana@example.com", "secret1", "100.00")
	p := dbtest.CreateProduct(t, db, "Kettle", "30.00")

	saved, err := s.Buy(context.Background(), u.ID, BuyInput{Items: []Item{
		{ProductID: &p.ID, Name: "Cheap kettle", Price: dec("1.00"), Quantity: 2},
	}})
	require.NoError(t, err)
	assert.Equal(t, "Kettle", saved[0].ItemName)
	assert.Equal(t, "30.00", saved[0].Price.StringFixed(2))
	assert.Equal(t, "40.00", balanceOf(t, db, u.ID))
}

func TestBuy_UnknownUser(t *testing.T) {
	s, _, _ := newService(t)

	_, err := s.Buy(context.Background(), 42, BuyInput{Items: []Item{{Name: "x", Price: dec("1"), Quantity: 1}}})
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestCountAndDashboard(t *testing.T) {
	s, db, _ := newService(t)
	ctx := context.Background()
	ana := dbtest.CreateUser(t, db, "ana@example.com", "secret1", "100.00")
	bob := dbtest.CreateUser(t, db, "bob@example.com", "secret1", "100.00")

	for _, u := range []*models.User{ana, ana, bob} {
		_, err := s.Buy(ctx, u.ID, BuyInput{Items: []Item{{Name: "Tea", Price: dec("2.50"), Quantity: 1}}})
		require.NoError(t, err)
	}

	global, err := s.Count(ctx, ana.ID, false)
	require.NoError(t, err)
	assert.EqualValues(t, 3, global)

	mine, err := s.Count(ctx, ana.ID, true)
	require.NoError(t, err)
	assert.EqualValues(t, 2, mine)

	d, err := s.Dashboard(ctx, ana.ID)
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", d.User.Email)
	assert.Equal(t, "95.00", d.Balance.StringFixed(2))
	assert.EqualValues(t, 2, d.PurchaseCount)
	assert.Len(t, d.Purchases, 2)

	shop, err := s.ListShop(ctx, ana.ID)
	require.NoError(t, err)
	assert.Len(t, shop, 2)

	_, err = s.Dashboard(ctx, 999)
	assert.ErrorIs(t, err, ErrUnauthorized)
}
