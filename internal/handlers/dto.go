package handlers

import "github.com/shopspring/decimal"

type registerRequest struct {
	Email      string `json:"email" validate:"required,email,max=254"`
	Password   string `json:"password" validate:"required,min=6,max=72"`
	Name       string `json:"name" validate:"max=100"`
	Lastname   string `json:"lastname" validate:"max=100"`
	Phone      string `json:"phone" validate:"max=32"`
	Postalcode string `json:"postalcode" validate:"max=16"`
	Direction  string `json:"direction" validate:"max=255"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// price bounds are enforced by the purchase service; validator cannot compare decimals
type purchaseItemRequest struct {
	ProductID *uint           `json:"product_id"`
	Name      string          `json:"name" validate:"max=200"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity" validate:"max=10000"`
}

// an empty item list reaches the purchase service so it gets its own message
type buyRequest struct {
	Items         []purchaseItemRequest `json:"items" validate:"dive"`
	Status        string                `json:"status" validate:"max=32"`
	PaymentMethod string                `json:"payment_method" validate:"max=32"`
}

type creditRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type productRequest struct {
	Name        string          `json:"name" validate:"required,max=200"`
	Description string          `json:"description" validate:"max=2000"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image" validate:"max=500"`
	Stock       uint            `json:"stock"`
}

type productPatchRequest struct {
	Name        *string          `json:"name" validate:"omitempty,min=1,max=200"`
	Description *string          `json:"description" validate:"omitempty,max=2000"`
	Price       *decimal.Decimal `json:"price"`
	Image       *string          `json:"image" validate:"omitempty,max=500"`
	Stock       *uint            `json:"stock"`
}

type userSummary struct {
	Name   string  `json:"name"`
	Email  string  `json:"email"`
	Avatar *string `json:"avatar"`
}
