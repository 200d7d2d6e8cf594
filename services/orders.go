package services

import (
	"context"
	"errors"

	"book-a-meal-api/apperrors"
	"book-a-meal-api/models"
	"book-a-meal-api/policy"
	"book-a-meal-api/repository"
	"book-a-meal-api/validation"

	"gorm.io/gorm"
)

const (
	MsgNotEnoughUnits   = "Not enough portions left for this menu item"
	msgMenuItemVanished = "No menu item found for that menu_item_id"
)

var orderPreloads = []string{"MenuItem", "MenuItem.Meal", "MenuItem.Menu"}

type OrderService struct {
	store     *repository.Store
	validator *validation.Validator
}

// ownedBy narrows a collection to the caller's rows
func ownedBy(caller *models.User) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("user_id = ?", caller.ID)
	}
}

func (s *OrderService) List(ctx context.Context, caller *models.User) (Page[models.Order], error) {
	if err := preAuthorize(policy.Orders, policy.List, caller); err != nil {
		return Page[models.Order]{}, err
	}
	var scope func(*gorm.DB) *gorm.DB
	if policy.Scoped(policy.Orders, caller) {
		scope = ownedBy(caller)
	}
	orders, err := repository.List[models.Order](ctx, s.store, scope, orderPreloads...)
	if err != nil {
		return Page[models.Order]{}, lookupErr(err)
	}
	return newPage(orders), nil
}

func (s *OrderService) Get(ctx context.Context, caller *models.User, id uint) (*models.Order, error) {
	if err := preAuthorize(policy.Orders, policy.Get, caller); err != nil {
		return nil, err
	}
	order, err := load[models.Order](ctx, s.store, id, orderPreloads...)
	if err != nil {
		return nil, err
	}
	if err := postAuthorize(policy.Orders, policy.Get, caller, order.UserID); err != nil {
		return nil, err
	}
	return order, nil
}

// Create places an order for the caller. A caterer may name another user
// through user_id; for everyone else the field is ignored.
func (s *OrderService) Create(ctx context.Context, caller *models.User, fields validation.Fields) (*models.Order, error) {
	if err := preAuthorize(policy.Orders, policy.Create, caller); err != nil {
		return nil, err
	}
	if !caller.IsCaterer() {
		fields = validation.Merge(fields, validation.Fields{"user_id": nil})
	}
	in, err := s.validator.Order(ctx, fields)
	if err != nil {
		return nil, err
	}

	order := &models.Order{MenuItemID: in.MenuItemID, Quantity: in.Quantity, UserID: caller.ID}
	if in.UserID != 0 {
		order.UserID = in.UserID
	}
	if err := s.store.PlaceOrder(ctx, order); err != nil {
		return nil, orderErr(err)
	}
	return load[models.Order](ctx, s.store, order.ID, orderPreloads...)
}

func (s *OrderService) Update(ctx context.Context, caller *models.User, id uint, fields validation.Fields) (*models.Order, error) {
	if err := preAuthorize(policy.Orders, policy.Update, caller); err != nil {
		return nil, err
	}
	order, err := load[models.Order](ctx, s.store, id)
	if err != nil {
		return nil, err
	}
	if err := postAuthorize(policy.Orders, policy.Update, caller, order.UserID); err != nil {
		return nil, err
	}

	current := validation.Fields{
		"menu_item_id": order.MenuItemID,
		"quantity":     order.Quantity,
		"user_id":      order.UserID,
	}
	merged := validation.Merge(current, fields)
	if !caller.IsCaterer() {
		merged["user_id"] = order.UserID
	}
	in, err := s.validator.Order(ctx, merged)
	if err != nil {
		return nil, err
	}

	order.MenuItemID, order.Quantity = in.MenuItemID, in.Quantity
	if in.UserID != 0 {
		order.UserID = in.UserID
	}
	if err := s.store.ChangeOrder(ctx, order); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			if _, gone := load[models.Order](ctx, s.store, order.ID); gone != nil {
				return nil, gone
			}
		}
		return nil, orderErr(err)
	}
	return load[models.Order](ctx, s.store, order.ID, orderPreloads...)
}

// Delete cancels the order and gives its units back to the menu item
func (s *OrderService) Delete(ctx context.Context, caller *models.User, id uint) error {
	if err := preAuthorize(policy.Orders, policy.Delete, caller); err != nil {
		return err
	}
	order, err := load[models.Order](ctx, s.store, id)
	if err != nil {
		return err
	}
	if err := postAuthorize(policy.Orders, policy.Delete, caller, order.UserID); err != nil {
		return err
	}
	if err := s.store.CancelOrder(ctx, order); err != nil {
		return lookupErr(err)
	}
	return nil
}

func orderErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrInsufficientQuantity):
		return apperrors.Validation(MsgNotEnoughUnits)
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.Validation(msgMenuItemVanished)
	}
	return persistErr(err, "")
}
