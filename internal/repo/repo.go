package repo

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrUserAlreadyExist    = errors.New("user already exist")
	ErrUserNotFound        = errors.New("user not found")
	ErrSessionNotFound     = errors.New("session not found")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrBalanceLimit        = errors.New("balance limit exceeded")
)

type GormRepo struct {
	DB *gorm.DB
}

func New(db *gorm.DB) *GormRepo {
	return &GormRepo{DB: db}
}
