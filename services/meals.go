package services

import (
	"context"

	"book-a-meal-api/models"
	"book-a-meal-api/policy"
	"book-a-meal-api/repository"
	"book-a-meal-api/validation"
)

const msgDuplicateMeal = "Meal name must be unique"

type MealService struct {
	store     *repository.Store
	validator *validation.Validator
}

func (s *MealService) List(ctx context.Context, caller *models.User) (Page[models.Meal], error) {
	if err := preAuthorize(policy.Meals, policy.List, caller); err != nil {
		return Page[models.Meal]{}, err
	}
	meals, err := repository.List[models.Meal](ctx, s.store, nil)
	if err != nil {
		return Page[models.Meal]{}, lookupErr(err)
	}
	return newPage(meals), nil
}

func (s *MealService) Get(ctx context.Context, caller *models.User, id uint) (*models.Meal, error) {
	if err := preAuthorize(policy.Meals, policy.Get, caller); err != nil {
		return nil, err
	}
	return load[models.Meal](ctx, s.store, id)
}

func (s *MealService) Create(ctx context.Context, caller *models.User, fields validation.Fields) (*models.Meal, error) {
	if err := preAuthorize(policy.Meals, policy.Create, caller); err != nil {
		return nil, err
	}
	in, err := s.validator.Meal(ctx, fields, 0)
	if err != nil {
		return nil, err
	}
	meal := &models.Meal{Name: in.Name, Cost: in.Cost, ImgPath: in.ImgPath}
	if err := repository.Create(ctx, s.store, meal); err != nil {
		return nil, persistErr(err, msgDuplicateMeal)
	}
	return meal, nil
}

func (s *MealService) Update(ctx context.Context, caller *models.User, id uint, fields validation.Fields) (*models.Meal, error) {
	if err := preAuthorize(policy.Meals, policy.Update, caller); err != nil {
		return nil, err
	}
	meal, err := load[models.Meal](ctx, s.store, id)
	if err != nil {
		return nil, err
	}
	current := validation.Fields{"name": meal.Name, "cost": meal.Cost, "img_path": meal.ImgPath}
	in, err := s.validator.Meal(ctx, validation.Merge(current, fields), meal.ID)
	if err != nil {
		return nil, err
	}

	meal.Name, meal.Cost, meal.ImgPath = in.Name, in.Cost, in.ImgPath
	if err := repository.Update(ctx, s.store, meal); err != nil {
		return nil, persistErr(err, msgDuplicateMeal)
	}
	return meal, nil
}

func (s *MealService) Delete(ctx context.Context, caller *models.User, id uint) error {
	if err := preAuthorize(policy.Meals, policy.Delete, caller); err != nil {
		return err
	}
	if _, err := load[models.Meal](ctx, s.store, id); err != nil {
		return err
	}
	if err := repository.Delete[models.Meal](ctx, s.store, id); err != nil {
		return persistErr(err, msgDuplicateMeal)
	}
	return nil
}
