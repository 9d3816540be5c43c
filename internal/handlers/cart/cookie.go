package cart

import (
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/models"
)

const (
	CookieName = "cart"
	MaxAge     = 7 * 24 * time.Hour
)

// Item is one cart line as the browser stores it.
type Item struct {
	ID       uint            `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
	Image    string          `json:"image"`
}

// Decode reads the URL-escaped JSON array kept in the cart cookie.
func Decode(value string) ([]Item, error) {
	if value == "" {
		return []Item{}, nil
	}
	raw, err := url.QueryUnescape(value)
	if err != nil {
		return nil, err
	}
	items := []Item{}
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, err
	}
	return items, nil
}

func Encode(items []Item) (string, error) {
	if items == nil {
		items = []Item{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "", err
	}
	return url.QueryEscape(string(b)), nil
}

// Read returns the request's cart. A corrupt cookie reads as an empty cart.
func Read(c echo.Context) []Item {
	ck, err := c.Cookie(CookieName)
	if err != nil {
		return []Item{}
	}
	items, err := Decode(ck.Value)
	if err != nil {
		logging.FromContext(c.Request().Context()).Warn("cart_cookie_invalid", "error", err)
		return []Item{}
	}
	return items
}

func Write(c echo.Context, items []Item, secure bool) error {
	v, err := Encode(items)
	if err != nil {
		return err
	}
	c.SetCookie(cookie(v, int(MaxAge.Seconds()), secure))
	return nil
}

func Clear(c echo.Context, secure bool) {
	c.SetCookie(cookie("", -1, secure))
}

// the UI reads the cart directly, so it is not HttpOnly
func cookie(value string, maxAge int, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		Secure:   secure,
		HttpOnly: false,
		SameSite: http.SameSiteLaxMode,
	}
}

// Add merges qty units of p into items using catalog name, price and image.
func Add(items []Item, p *models.Product, qty int) []Item {
	for i := range items {
		if items[i].ID == p.ID {
			items[i].Quantity += qty
			items[i].Name = p.Name
			items[i].Price = p.Price
			items[i].Image = p.Image
			return items
		}
	}
	return append(items, Item{ID: p.ID, Name: p.Name, Price: p.Price, Quantity: qty, Image: p.Image})
}

// RemoveOne drops a single unit and the line once it reaches zero.
func RemoveOne(items []Item, id uint) ([]Item, bool) {
	for i := range items {
		if items[i].ID != id {
			continue
		}
		if items[i].Quantity > 1 {
			items[i].Quantity--
			return items, true
		}
		return append(items[:i], items[i+1:]...), true
	}
	return items, false
}

func RemoveAll(items []Item, id uint) ([]Item, bool) {
	for i := range items {
		if items[i].ID == id {
			return append(items[:i], items[i+1:]...), true
		}
	}
	return items, false
}

func Total(items []Item) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total.Round(2)
}
