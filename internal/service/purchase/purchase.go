package purchase

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/metrics"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/mykafka"
	"github.com/Skotchmaster/storefront/internal/repo"
)

const (
	PaymentBalance  = "balance"
	PaymentCard     = "card"
	PaymentPaypal   = "paypal"
	PaymentTransfer = "transfer"

	DefaultStatus = "pending"

	// MaxQuantity keeps a line within the ledger's integer column.
	MaxQuantity = 10000
)

var (
	ErrEmptyCart           = errors.New("no items in the cart")
	ErrValidation          = errors.New("invalid purchase")
	ErrUnauthorized        = errors.New("user no longer exists")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrPersistence         = errors.New("could not save the purchase")
)

// payment methods and whether they draw on the stored balance
var paymentMethods = map[string]bool{
	PaymentBalance:  true,
	PaymentCard:     false,
	PaymentPaypal:   false,
	PaymentTransfer: false,
}

type Item struct {
	ProductID *uint
	Name      string
	Price     decimal.Decimal
	Quantity  int
}

type BuyInput struct {
	Items         []Item
	Status        string
	PaymentMethod string
}

type Service struct {
	Repo    *repo.GormRepo
	Events  mykafka.Publisher
	Metrics *metrics.Metrics
}

type CompletedEvent struct {
	Type          string          `json:"type"`
	UserID        uint            `json:"user_id"`
	PurchaseIDs   []uint          `json:"purchase_ids"`
	Total         decimal.Decimal `json:"total"`
	PaymentMethod string          `json:"payment_method"`
	At            time.Time       `json:"at"`
}

// Total is the sum of price times quantity.
func Total(items []Item) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total
}

// Buy records a checkout. Balance payments debit the user in the same transaction
// that writes the ledger rows; nothing is written when any step fails.
func (s *Service) Buy(ctx context.Context, userID uint, in BuyInput) ([]models.Purchase, error) {
	l := logging.FromContext(ctx).With("svc", "purchase_buy", "user_id", userID)

	if len(in.Items) == 0 {
		s.Metrics.Purchase("empty_cart", in.PaymentMethod, decimal.Zero)
		return nil, ErrEmptyCart
	}

	method := strings.ToLower(strings.TrimSpace(in.PaymentMethod))
	if method == "" {
		method = PaymentBalance
	}
	debit, ok := paymentMethods[method]
	if !ok {
		s.Metrics.Purchase("invalid", method, decimal.Zero)
		return nil, fmt.Errorf("%w: unsupported payment method %q", ErrValidation, in.PaymentMethod)
	}
	status := strings.TrimSpace(in.Status)
	if status == "" {
		status = DefaultStatus
	}

	items, err := s.resolveCatalog(ctx, in.Items)
	if err != nil {
		s.Metrics.Purchase("invalid", method, decimal.Zero)
		return nil, err
	}
	if err := validate(items); err != nil {
		s.Metrics.Purchase("invalid", method, decimal.Zero)
		return nil, err
	}

	// prices are exact cents at this point, so the debit equals the sum of the ledger rows
	total := Total(items)
	if total.GreaterThan(models.MaxAmount) {
		s.Metrics.Purchase("invalid", method, decimal.Zero)
		return nil, fmt.Errorf("%w: order total exceeds %s", ErrValidation, models.MaxAmount.StringFixed(2))
	}
	lines := make([]models.Purchase, 0, len(items))
	for _, it := range items {
		lines = append(lines, models.Purchase{
			ItemName:      it.Name,
			Price:         it.Price,
			Quantity:      it.Quantity,
			Status:        status,
			PaymentMethod: method,
		})
	}

	saved, err := s.Repo.Checkout(ctx, userID, total, debit, lines)
	if err != nil {
		switch {
		case errors.Is(err, repo.ErrInsufficientBalance):
			s.Metrics.Purchase("insufficient_balance", method, total)
			l.Warn("purchase_rejected", "status", 400, "reason", "insufficient_balance", "total", total.StringFixed(2))
			return nil, ErrInsufficientBalance
		case errors.Is(err, repo.ErrUserNotFound):
			s.Metrics.Purchase("unauthorized", method, total)
			l.Warn("purchase_rejected", "status", 401, "reason", "user_not_found")
			return nil, ErrUnauthorized
		default:
			s.Metrics.Purchase("error", method, total)
			l.Error("purchase_failed", "status", 500, "error", err)
			return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
		}
	}

	ids := make([]uint, 0, len(saved))
	for _, p := range saved {
		ids = append(ids, p.ID)
	}
	s.Metrics.Purchase("success", method, total)
	mykafka.Publish(ctx, s.Events, l, mykafka.TopicPurchaseEvents, strconv.FormatUint(uint64(userID), 10), CompletedEvent{
		Type:          "purchase_completed",
		UserID:        userID,
		PurchaseIDs:   ids,
		Total:         total,
		PaymentMethod: method,
		At:            time.Now().UTC(),
	})
	l.Info("purchase_saved", "lines", len(saved), "total", total.StringFixed(2), "payment_method", method)
	return saved, nil
}

// resolveCatalog replaces client supplied name and price with the catalog's for lines that name a product.
func (s *Service) resolveCatalog(ctx context.Context, items []Item) ([]Item, error) {
	var ids []uint
	for _, it := range items {
		if it.ProductID != nil {
			ids = append(ids, *it.ProductID)
		}
	}
	out := make([]Item, len(items))
	copy(out, items)
	if len(ids) == 0 {
		return out, nil
	}

	products, err := s.Repo.GetProductsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	for i, it := range out {
		if it.ProductID == nil {
			continue
		}
		p, ok := products[*it.ProductID]
		if !ok {
			return nil, fmt.Errorf("%w: unknown product %d", ErrValidation, *it.ProductID)
		}
		out[i].Name = p.Name
		out[i].Price = p.Price
	}
	return out, nil
}

func validate(items []Item) error {
	for i, it := range items {
		switch {
		case strings.TrimSpace(it.Name) == "":
			return fmt.Errorf("%w: item %d has no name", ErrValidation, i)
		case it.Price.IsNegative():
			return fmt.Errorf("%w: item %d has a negative price", ErrValidation, i)
		case !it.Price.Equal(it.Price.Round(2)):
			return fmt.Errorf("%w: item %d price has more than 2 decimal places", ErrValidation, i)
		case it.Price.GreaterThan(models.MaxAmount):
			return fmt.Errorf("%w: item %d price exceeds %s", ErrValidation, i, models.MaxAmount.StringFixed(2))
		case it.Quantity < 1:
			return fmt.Errorf("%w: item %d quantity must be at least 1", ErrValidation, i)
		case it.Quantity > MaxQuantity:
			return fmt.Errorf("%w: item %d quantity must be at most %d", ErrValidation, i, MaxQuantity)
		}
	}
	return nil
}

func (s *Service) List(ctx context.Context, userID uint) ([]models.Purchase, error) {
	return s.Repo.ListPurchases(ctx, userID)
}

func (s *Service) ListShop(ctx context.Context, userID uint) ([]models.ShopPurchase, error) {
	return s.Repo.ListShopPurchases(ctx, userID)
}

// Count counts ledger rows for every user, or only userID's when mine is set.
func (s *Service) Count(ctx context.Context, userID uint, mine bool) (int64, error) {
	if mine {
		return s.Repo.CountPurchases(ctx, &userID)
	}
	return s.Repo.CountPurchases(ctx, nil)
}

type Dashboard struct {
	User          *models.User      `json:"user"`
	Balance       decimal.Decimal   `json:"balance"`
	PurchaseCount int64             `json:"purchaseCount"`
	Purchases     []models.Purchase `json:"purchases"`
}

// Dashboard loads profile, balance and history concurrently.
func (s *Service) Dashboard(ctx context.Context, userID uint) (*Dashboard, error) {
	var d Dashboard
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		u, err := s.Repo.GetUserByID(gctx, userID)
		d.User = u
		return err
	})
	g.Go(func() error {
		b, err := s.Repo.GetBalance(gctx, userID)
		d.Balance = b
		return err
	})
	g.Go(func() error {
		p, err := s.Repo.ListPurchases(gctx, userID)
		d.Purchases = p
		return err
	})
	if err := g.Wait(); err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	d.PurchaseCount = int64(len(d.Purchases))
	return &d, nil
}
