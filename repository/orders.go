package repository

import (
	"context"

	"book-a-meal-api/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PlaceOrder takes the ordered units from the menu item and inserts the
// order in one transaction. ErrInsufficientQuantity is returned when the
// menu item does not have enough units left; nothing is written then.
func (s *Store) PlaceOrder(ctx context.Context, order *models.Order) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := takeUnits(tx, order.MenuItemID, order.Quantity); err != nil {
			return err
		}
		return translate(tx.Omit(clause.Associations).Create(order).Error)
	})
}

// ChangeOrder gives back the units held by the stored version of the order
// and takes the units of the new version before saving it.
func (s *Store) ChangeOrder(ctx context.Context, order *models.Order) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := lockOrder(tx, order.ID)
		if err != nil {
			return err
		}
		if err := returnUnits(tx, current.MenuItemID, current.Quantity); err != nil {
			return err
		}
		if err := takeUnits(tx, order.MenuItemID, order.Quantity); err != nil {
			return err
		}
		return update(tx, order)
	})
}

// CancelOrder deletes the order and gives its stored units back to the menu item
func (s *Store) CancelOrder(ctx context.Context, order *models.Order) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := lockOrder(tx, order.ID)
		if err != nil {
			return err
		}
		res := tx.Delete(&models.Order{}, current.ID)
		if res.Error != nil {
			return translate(res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return returnUnits(tx, current.MenuItemID, current.Quantity)
	})
}

// lockOrder reads the order row inside tx. On postgres the row stays locked
// until the transaction ends; sqlite already serializes writers.
func lockOrder(tx *gorm.DB, id uint) (*models.Order, error) {
	q := tx
	if tx.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var current models.Order
	if err := q.First(&current, id).Error; err != nil {
		return nil, translate(err)
	}
	return &current, nil
}

// takeUnits is a conditional decrement: the row only changes when enough
// units are left, so two concurrent orders cannot both take the last unit.
func takeUnits(tx *gorm.DB, menuItemID uint, n int) error {
	res := tx.Model(&models.MenuItem{}).
		Where("id = ? AND quantity >= ?", menuItemID, n).
		Update("quantity", gorm.Expr("quantity - ?", n))
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := tx.Model(&models.MenuItem{}).Where("id = ?", menuItemID).Count(&count).Error; err != nil {
			return translate(err)
		}
		if count == 0 {
			return ErrNotFound
		}
		return ErrInsufficientQuantity
	}
	return nil
}

func returnUnits(tx *gorm.DB, menuItemID uint, n int) error {
	return translate(tx.Model(&models.MenuItem{}).
		Where("id = ?", menuItemID).
		Update("quantity", gorm.Expr("quantity + ?", n)).Error)
}
