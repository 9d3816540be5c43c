package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MaxAmount is the largest value a numeric(12,2) money column holds.
var MaxAmount = decimal.RequireFromString("9999999999.99")

func init() {
	// money is rendered as JSON numbers, not strings
	decimal.MarshalJSONWithoutQuotes = true
}

type User struct {
	ID           uint            `gorm:"primaryKey;autoIncrement"                       json:"id"`
	Email        string          `gorm:"uniqueIndex;not null"                           json:"email"`
	PasswordHash string          `gorm:"column:password;not null"                       json:"-"`
	Name         string          `gorm:"not null;default:''"                            json:"name"`
	Lastname     string          `gorm:"not null;default:''"                            json:"lastname"`
	Phone        string          `gorm:"not null;default:''"                            json:"phone"`
	Postalcode   string          `gorm:"not null;default:''"                            json:"postalcode"`
	Direction    string          `gorm:"not null;default:''"                            json:"direction"`
	Balance      decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0;check:balance >= 0" json:"balance"`
	IsAdmin      bool            `gorm:"column:is_admin;not null;default:false"         json:"isAdmin"`
	CreatedAt    time.Time       `gorm:"autoCreateTime"                                 json:"created_at"`
}

// Session is one login of one device. The refresh token itself is never stored.
type Session struct {
	ID        uint      `gorm:"primaryKey"            json:"id"`
	JTI       string    `gorm:"uniqueIndex;not null"  json:"jti"`
	UserID    uint      `gorm:"index;not null"        json:"user_id"`
	TokenHash string    `gorm:"uniqueIndex;not null"  json:"-"`
	UserAgent string    `gorm:"not null;default:''"   json:"user_agent"`
	IP        string    `gorm:"not null;default:''"   json:"ip"`
	ExpiresAt time.Time `gorm:"index;not null"        json:"expires_at"`
	Revoked   bool      `gorm:"not null;default:false" json:"revoked"`
	CreatedAt time.Time `gorm:"autoCreateTime"        json:"created_at"`
}

type Purchase struct {
	ID            uint            `gorm:"primaryKey;autoIncrement"              json:"id"`
	UserID        uint            `gorm:"index;not null"                        json:"user_id"`
	ItemName      string          `gorm:"not null"                              json:"item_name"`
	Price         decimal.Decimal `gorm:"type:numeric(12,2);not null"           json:"price"`
	Quantity      int             `gorm:"not null;check:quantity > 0"           json:"quantity"`
	Status        string          `gorm:"not null;default:pending"              json:"status"`
	PaymentMethod string          `gorm:"not null"                              json:"payment_method"`
	Name          string          `gorm:"not null;default:''"                   json:"name"`
	Lastname      string          `gorm:"not null;default:''"                   json:"lastname"`
	Email         string          `gorm:"not null;default:''"                   json:"email"`
	Phone         string          `gorm:"not null;default:''"                   json:"phone"`
	Postalcode    string          `gorm:"not null;default:''"                   json:"postalcode"`
	Direction     string          `gorm:"not null;default:''"                   json:"direction"`
	CreatedAt     time.Time       `gorm:"autoCreateTime;index"                  json:"created_at"`
}

// ShopPurchase is the trimmed projection behind GET /api/purchases/shop.
type ShopPurchase struct {
	ID            uint            `json:"id"`
	ItemName      string          `json:"item_name"`
	Price         decimal.Decimal `json:"price"`
	Quantity      int             `json:"quantity"`
	Status        string          `json:"status"`
	PaymentMethod string          `json:"payment_method"`
	CreatedAt     time.Time       `json:"created_at"`
}

type Product struct {
	ID          uint            `gorm:"primaryKey;autoIncrement"    json:"id"`
	Name        string          `gorm:"not null;index"              json:"name"`
	Description string          `gorm:"not null;default:''"         json:"description"`
	Price       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	Image       string          `gorm:"not null;default:''"         json:"image"`
	Stock       uint            `gorm:"not null;default:0"          json:"stock"`
	CreatedAt   time.Time       `gorm:"autoCreateTime"              json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime"              json:"updated_at"`
}

func All() []any {
	return []any{&User{}, &Session{}, &Purchase{}, &Product{}}
}
