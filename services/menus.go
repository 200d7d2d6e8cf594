package services

import (
	"context"
	"strings"

	"book-a-meal-api/apperrors"
	"book-a-meal-api/models"
	"book-a-meal-api/policy"
	"book-a-meal-api/repository"
	"book-a-meal-api/validation"
)

// AllDays disables the day filter when listing menus
const AllDays = "all"

type MenuService struct {
	store     *repository.Store
	validator *validation.Validator
}

// List returns the menus served on day. An empty day means today.
func (s *MenuService) List(ctx context.Context, caller *models.User, day string) (Page[models.Menu], error) {
	if err := preAuthorize(policy.Menus, policy.List, caller); err != nil {
		return Page[models.Menu]{}, err
	}

	var (
		menus []models.Menu
		err   error
	)
	switch day = strings.TrimSpace(day); day {
	case AllDays:
		menus, err = repository.List[models.Menu](ctx, s.store, nil)
	case "":
		menus, err = s.store.MenusOn(ctx, s.validator.Today())
	default:
		d, parseErr := models.ParseDate(day)
		if parseErr != nil {
			return Page[models.Menu]{}, apperrors.Validation("Day must be a date in YYYY-MM-DD format")
		}
		menus, err = s.store.MenusOn(ctx, d)
	}
	if err != nil {
		return Page[models.Menu]{}, lookupErr(err)
	}
	return newPage(menus), nil
}

func (s *MenuService) Get(ctx context.Context, caller *models.User, id uint) (*models.Menu, error) {
	if err := preAuthorize(policy.Menus, policy.Get, caller); err != nil {
		return nil, err
	}
	return load[models.Menu](ctx, s.store, id)
}

func (s *MenuService) Create(ctx context.Context, caller *models.User, fields validation.Fields) (*models.Menu, error) {
	if err := preAuthorize(policy.Menus, policy.Create, caller); err != nil {
		return nil, err
	}
	in, err := s.validator.Menu(ctx, fields)
	if err != nil {
		return nil, err
	}
	menu := &models.Menu{Category: in.Category, Day: in.Day}
	if err := repository.Create(ctx, s.store, menu); err != nil {
		return nil, persistErr(err, "This menu already exists")
	}
	return menu, nil
}

func (s *MenuService) Update(ctx context.Context, caller *models.User, id uint, fields validation.Fields) (*models.Menu, error) {
	if err := preAuthorize(policy.Menus, policy.Update, caller); err != nil {
		return nil, err
	}
	menu, err := load[models.Menu](ctx, s.store, id)
	if err != nil {
		return nil, err
	}
	current := validation.Fields{"category": int(menu.Category), "day": menu.Day}
	in, err := s.validator.Menu(ctx, validation.Merge(current, fields))
	if err != nil {
		return nil, err
	}

	menu.Category, menu.Day = in.Category, in.Day
	if err := repository.Update(ctx, s.store, menu); err != nil {
		return nil, persistErr(err, "This menu already exists")
	}
	return menu, nil
}

func (s *MenuService) Delete(ctx context.Context, caller *models.User, id uint) error {
	if err := preAuthorize(policy.Menus, policy.Delete, caller); err != nil {
		return err
	}
	if _, err := load[models.Menu](ctx, s.store, id); err != nil {
		return err
	}
	if err := repository.Delete[models.Menu](ctx, s.store, id); err != nil {
		return persistErr(err, "")
	}
	return nil
}
