// Package services runs the request pipeline for every resource:
// authorize, validate, persist, post-process. Guards and validation always
// complete before the first write.
package services

import (
	"context"
	"errors"

	"book-a-meal-api/apperrors"
	"book-a-meal-api/models"
	"book-a-meal-api/policy"
	"book-a-meal-api/repository"
	"book-a-meal-api/validation"
)

const msgNotFound = "Not found"

// Page is a collection response
type Page[T any] struct {
	NumResults int `json:"num_results"`
	Objects    []T `json:"objects"`
}

func newPage[T any](items []T) Page[T] {
	return Page[T]{NumResults: len(items), Objects: items}
}

// Services bundles one pipeline per resource
type Services struct {
	Meals         *MealService
	Menus         *MenuService
	MenuItems     *MenuItemService
	Orders        *OrderService
	Notifications *NotificationService
}

func New(store *repository.Store, validator *validation.Validator) *Services {
	return &Services{
		Meals:         &MealService{store: store, validator: validator},
		Menus:         &MenuService{store: store, validator: validator},
		MenuItems:     &MenuItemService{store: store, validator: validator},
		Orders:        &OrderService{store: store, validator: validator},
		Notifications: &NotificationService{store: store, validator: validator},
	}
}

// preAuthorize runs before any row is loaded. Role guards are decided here;
// ownership guards only require an authenticated caller until the row is known.
func preAuthorize(resource policy.Resource, op policy.Operation, caller *models.User) error {
	guard := policy.For(resource, op)
	if guard == policy.RequireOwner {
		return policy.RequireAuthenticated(caller)
	}
	return policy.Check(guard, caller, 0)
}

// postAuthorize runs once the row is loaded and applies ownership guards
func postAuthorize(resource policy.Resource, op policy.Operation, caller *models.User, ownerID uint) error {
	guard := policy.For(resource, op)
	if guard != policy.RequireOwner {
		return nil
	}
	return policy.Check(guard, caller, ownerID)
}

func load[T any](ctx context.Context, store *repository.Store, id uint, preloads ...string) (*T, error) {
	v, err := repository.Get[T](ctx, store, id, preloads...)
	if err != nil {
		return nil, lookupErr(err)
	}
	return v, nil
}

func lookupErr(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound(msgNotFound)
	}
	return apperrors.Internal(err)
}

// persistErr re-surfaces constraint violations that slipped past validation
// (for example two concurrent creates with the same unique name) as
// validation failures.
func persistErr(err error, duplicateMsg string) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NotFound(msgNotFound)
	case errors.Is(err, repository.ErrDuplicate):
		if duplicateMsg == "" {
			duplicateMsg = "This record already exists"
		}
		return apperrors.Validation(duplicateMsg)
	case errors.Is(err, repository.ErrForeignKey):
		return apperrors.Validation("A referenced record does not exist")
	}
	return apperrors.Internal(err)
}
