package repository

import (
	"context"

	"book-a-meal-api/models"

	"gorm.io/gorm"
)

func (s *Store) MealExists(ctx context.Context, id uint) (bool, error) {
	return Exists[models.Meal](ctx, s, id)
}

func (s *Store) MenuExists(ctx context.Context, id uint) (bool, error) {
	return Exists[models.Menu](ctx, s, id)
}

// MealNameTaken reports whether another meal already uses name
func (s *Store) MealNameTaken(ctx context.Context, name string, excludeID uint) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Meal{}).
		Where("name = ? AND id <> ?", name, excludeID).
		Count(&count).Error
	return count > 0, translate(err)
}

// MenuItemPairTaken reports whether another menu item already places mealID on menuID
func (s *Store) MenuItemPairTaken(ctx context.Context, menuID, mealID, excludeID uint) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.MenuItem{}).
		Where("menu_id = ? AND meal_id = ? AND id <> ?", menuID, mealID, excludeID).
		Count(&count).Error
	return count > 0, translate(err)
}

// MenuItemWithMenu loads a menu item together with its parent menu
func (s *Store) MenuItemWithMenu(ctx context.Context, id uint) (*models.MenuItem, error) {
	return Get[models.MenuItem](ctx, s, id, "Menu")
}

// MenusOn lists the menus served on day
func (s *Store) MenusOn(ctx context.Context, day models.Date) ([]models.Menu, error) {
	return List[models.Menu](ctx, s, func(q *gorm.DB) *gorm.DB {
		return q.Where("day = ?", day)
	})
}
