package repo

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
)

var shopColumns = []string{"id", "item_name", "price", "quantity", "status", "payment_method", "created_at"}

func (r *GormRepo) ListPurchases(ctx context.Context, userID uint) ([]models.Purchase, error) {
	out := []models.Purchase{}
	err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Find(&out).Error
	return out, err
}

func (r *GormRepo) ListShopPurchases(ctx context.Context, userID uint) ([]models.ShopPurchase, error) {
	out := []models.ShopPurchase{}
	err := r.DB.WithContext(ctx).
		Model(&models.Purchase{}).
		Select(shopColumns).
		Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Find(&out).Error
	return out, err
}

// CountPurchases counts ledger rows; a nil userID counts across all users.
func (r *GormRepo) CountPurchases(ctx context.Context, userID *uint) (int64, error) {
	var n int64
	q := r.DB.WithContext(ctx).Model(&models.Purchase{})
	if userID != nil {
		q = q.Where("user_id = ?", *userID)
	}
	err := q.Count(&n).Error
	return n, err
}

// Checkout debits total (when debit is set) and appends lines to the ledger as one unit.
// The balance check and the write are a single conditional UPDATE, so concurrent
// checkouts of the same user cannot both pass it.
func (r *GormRepo) Checkout(ctx context.Context, userID uint, total decimal.Decimal, debit bool, lines []models.Purchase) ([]models.Purchase, error) {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if debit {
			res := tx.Model(&models.User{}).
				Where("id = ? AND balance >= ?", userID, total).
				Update("balance", gorm.Expr("balance - ?", total))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				var n int64
				if err := tx.Model(&models.User{}).Where("id = ?", userID).Count(&n).Error; err != nil {
					return err
				}
				if n == 0 {
					return ErrUserNotFound
				}
				return ErrInsufficientBalance
			}
		}

		var user models.User
		if err := tx.Where("id = ?", userID).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		for i := range lines {
			lines[i].UserID = user.ID
			lines[i].Name = user.Name
			lines[i].Lastname = user.Lastname
			lines[i].Email = user.Email
			lines[i].Phone = user.Phone
			lines[i].Postalcode = user.Postalcode
			lines[i].Direction = user.Direction
		}
		return tx.Create(&lines).Error
	})
	if err != nil {
		return nil, err
	}
	return lines, nil
}
