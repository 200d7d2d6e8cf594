package services

import (
	"context"

	"book-a-meal-api/models"
	"book-a-meal-api/policy"
	"book-a-meal-api/repository"
	"book-a-meal-api/validation"
)

const msgDuplicateMenuItem = "This menu item already exists"

var menuItemPreloads = []string{"Meal", "Menu"}

type MenuItemService struct {
	store     *repository.Store
	validator *validation.Validator
}

func (s *MenuItemService) List(ctx context.Context, caller *models.User) (Page[models.MenuItem], error) {
	if err := preAuthorize(policy.MenuItems, policy.List, caller); err != nil {
		return Page[models.MenuItem]{}, err
	}
	items, err := repository.List[models.MenuItem](ctx, s.store, nil, menuItemPreloads...)
	if err != nil {
		return Page[models.MenuItem]{}, lookupErr(err)
	}
	return newPage(items), nil
}

func (s *MenuItemService) Get(ctx context.Context, caller *models.User, id uint) (*models.MenuItem, error) {
	if err := preAuthorize(policy.MenuItems, policy.Get, caller); err != nil {
		return nil, err
	}
	return load[models.MenuItem](ctx, s.store, id, menuItemPreloads...)
}

func (s *MenuItemService) Create(ctx context.Context, caller *models.User, fields validation.Fields) (*models.MenuItem, error) {
	if err := preAuthorize(policy.MenuItems, policy.Create, caller); err != nil {
		return nil, err
	}
	in, err := s.validator.MenuItem(ctx, fields, 0)
	if err != nil {
		return nil, err
	}
	item := &models.MenuItem{MenuID: in.MenuID, MealID: in.MealID, Quantity: in.Quantity}
	if err := repository.Create(ctx, s.store, item); err != nil {
		return nil, persistErr(err, msgDuplicateMenuItem)
	}
	return load[models.MenuItem](ctx, s.store, item.ID, menuItemPreloads...)
}

func (s *MenuItemService) Update(ctx context.Context, caller *models.User, id uint, fields validation.Fields) (*models.MenuItem, error) {
	if err := preAuthorize(policy.MenuItems, policy.Update, caller); err != nil {
		return nil, err
	}
	item, err := load[models.MenuItem](ctx, s.store, id)
	if err != nil {
		return nil, err
	}
	current := validation.Fields{"menu_id": item.MenuID, "meal_id": item.MealID, "quantity": item.Quantity}
	in, err := s.validator.MenuItem(ctx, validation.Merge(current, fields), item.ID)
	if err != nil {
		return nil, err
	}

	item.MenuID, item.MealID, item.Quantity = in.MenuID, in.MealID, in.Quantity
	if err := repository.Update(ctx, s.store, item); err != nil {
		return nil, persistErr(err, msgDuplicateMenuItem)
	}
	return load[models.MenuItem](ctx, s.store, item.ID, menuItemPreloads...)
}

func (s *MenuItemService) Delete(ctx context.Context, caller *models.User, id uint) error {
	if err := preAuthorize(policy.MenuItems, policy.Delete, caller); err != nil {
		return err
	}
	if _, err := load[models.MenuItem](ctx, s.store, id); err != nil {
		return err
	}
	if err := repository.Delete[models.MenuItem](ctx, s.store, id); err != nil {
		return persistErr(err, "")
	}
	return nil
}
