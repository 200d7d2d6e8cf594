package services

import (
	"context"
	"testing"
	"time"

	"book-a-meal-api/apperrors"
	"book-a-meal-api/config"
	"book-a-meal-api/models"
	"book-a-meal-api/policy"
	"book-a-meal-api/repository"
	"book-a-meal-api/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var today = models.DateOf(time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC))

type fixture struct {
	svc     *Services
	store   *repository.Store
	caterer *models.User
	alice   *models.User
	bob     *models.User
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	db, err := config.OpenDB("file::memory:?_pragma=foreign_keys(1)")
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	store := repository.New(db)
	f := fixture{
		svc:   New(store, validation.New(store, func() models.Date { return today })),
		store: store,
	}
	f.caterer = f.user(t, "caterer@example.com", models.RoleCaterer)
	f.alice = f.user(t, "alice@example.com", models.RoleCustomer)
	f.bob = f.user(t, "bob@example.com", models.RoleCustomer)
	return f
}

func (f fixture) user(t *testing.T, email string, role models.UserRole) *models.User {
	t.Helper()
	u := &models.User{Username: "user", Email: email, PasswordHash: "x", Role: role}
	require.NoError(t, f.store.CreateUser(context.Background(), u))
	return u
}

// menuItem creates a meal on a menu served on day
func (f fixture) menuItem(t *testing.T, name string, day models.Date, quantity int) *models.MenuItem {
	t.Helper()
	ctx := context.Background()
	meal, err := f.svc.Meals.Create(ctx, f.caterer, validation.Fields{"name": name, "cost": 200.0})
	require.NoError(t, err)
	menu, err := f.svc.Menus.Create(ctx, f.caterer, validation.Fields{"category": 2.0, "day": day.String()})
	require.NoError(t, err)
	item, err := f.svc.MenuItems.Create(ctx, f.caterer, validation.Fields{
		"menu_id":  float64(menu.ID),
		"meal_id":  float64(meal.ID),
		"quantity": float64(quantity),
	})
	require.NoError(t, err)
	return item
}

func assertKind(t *testing.T, err error, kind apperrors.Kind, msg string) {
	t.Helper()
	require.Error(t, err)
	appErr := apperrors.From(err)
	assert.Equal(t, kind, appErr.Kind, "error: %v", err)
	if msg != "" {
		assert.Contains(t, appErr.Messages, msg)
	}
}

func TestMeals_Lifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	meal, err := f.svc.Meals.Create(ctx, f.caterer, validation.Fields{"name": "Ugali", "cost": 200.0})
	require.NoError(t, err)
	assert.Equal(t, "Ugali", meal.Name)
	assert.Equal(t, 200.0, meal.Cost)

	got, err := f.svc.Meals.Get(ctx, f.alice, meal.ID)
	require.NoError(t, err)
	assert.Equal(t, meal.ID, got.ID)

	updated, err := f.svc.Meals.Update(ctx, f.caterer, meal.ID, validation.Fields{"cost": "250"})
	require.NoError(t, err)
	assert.Equal(t, "Ugali", updated.Name, "omitted fields keep their value")
	assert.Equal(t, 250.0, updated.Cost)

	page, err := f.svc.Meals.List(ctx, f.alice)
	require.NoError(t, err)
	assert.Equal(t, 1, page.NumResults)

	require.NoError(t, f.svc.Meals.Delete(ctx, f.caterer, meal.ID))
	_, err = f.svc.Meals.Get(ctx, f.caterer, meal.ID)
	assertKind(t, err, apperrors.KindNotFound, "Not found")
}

func TestMeals_Guards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Meals.Create(ctx, f.alice, validation.Fields{"name": "Ugali", "cost": 200.0})
	assertKind(t, err, apperrors.KindAuthorization, policy.MsgNotCaterer)

	_, err = f.svc.Meals.List(ctx, nil)
	assertKind(t, err, apperrors.KindAuthentication, "")

	// role is checked before the lookup, so a customer cannot discover ids
	err = f.svc.Meals.Delete(ctx, f.alice, 999)
	assertKind(t, err, apperrors.KindAuthorization, policy.MsgNotCaterer)

	err = f.svc.Meals.Delete(ctx, f.caterer, 999)
	assertKind(t, err, apperrors.KindNotFound, "Not found")

	meals, err := f.svc.Meals.List(ctx, f.caterer)
	require.NoError(t, err)
	assert.Zero(t, meals.NumResults, "rejected requests write nothing")
}

func TestMeals_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Meals.Create(ctx, f.caterer, validation.Fields{})
	assertKind(t, err, apperrors.KindValidation, "Name is required")
	assert.Contains(t, apperrors.From(err).Messages, "Cost is required")

	_, err = f.svc.Meals.Create(ctx, f.caterer, validation.Fields{"name": "Ugali", "cost": 200.0})
	require.NoError(t, err)
	_, err = f.svc.Meals.Create(ctx, f.caterer, validation.Fields{"name": "Ugali", "cost": 100.0})
	assertKind(t, err, apperrors.KindValidation, "Meal name must be unique")

	pilau, err := f.svc.Meals.Create(ctx, f.caterer, validation.Fields{"name": "Pilau", "cost": 300.0})
	require.NoError(t, err)
	_, err = f.svc.Meals.Update(ctx, f.caterer, pilau.ID, validation.Fields{"name": "Ugali"})
	assertKind(t, err, apperrors.KindValidation, "Meal name must be unique")

	// renaming a meal to its own name is not a conflict
	_, err = f.svc.Meals.Update(ctx, f.caterer, pilau.ID, validation.Fields{"name": "Pilau"})
	require.NoError(t, err)
}

func TestMenus_ListByDay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Menus.Create(ctx, f.caterer, validation.Fields{"category": "BREAKFAST"})
	require.NoError(t, err)
	_, err = f.svc.Menus.Create(ctx, f.caterer, validation.Fields{"category": 3.0, "day": "2024-05-11"})
	require.NoError(t, err)

	page, err := f.svc.Menus.List(ctx, f.alice, "")
	require.NoError(t, err)
	require.Equal(t, 1, page.NumResults, "day defaults to today")
	assert.Equal(t, models.CategoryBreakfast, page.Objects[0].Category)

	page, err = f.svc.Menus.List(ctx, f.alice, "2024-05-11")
	require.NoError(t, err)
	require.Equal(t, 1, page.NumResults)
	assert.Equal(t, models.CategorySupper, page.Objects[0].Category)

	page, err = f.svc.Menus.List(ctx, f.alice, AllDays)
	require.NoError(t, err)
	assert.Equal(t, 2, page.NumResults)

	_, err = f.svc.Menus.List(ctx, f.alice, "tomorrow")
	assertKind(t, err, apperrors.KindValidation, "")

	_, err = f.svc.Menus.Create(ctx, f.caterer, validation.Fields{"category": 7.0})
	assertKind(t, err, apperrors.KindValidation, "Unknown meal type")
}

func TestMenuItems_EmbedsMealAndMenu(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := f.menuItem(t, "Ugali", today, 5)

	require.NotNil(t, item.Meal)
	require.NotNil(t, item.Menu)
	assert.Equal(t, "Ugali", item.Meal.Name)

	_, err := f.svc.MenuItems.Create(ctx, f.caterer, validation.Fields{
		"menu_id":  float64(item.MenuID),
		"meal_id":  float64(item.MealID),
		"quantity": 2.0,
	})
	assertKind(t, err, apperrors.KindValidation, "This menu item already exists")

	updated, err := f.svc.MenuItems.Update(ctx, f.caterer, item.ID, validation.Fields{"quantity": 9.0})
	require.NoError(t, err)
	assert.Equal(t, 9, updated.Quantity)
}

func TestOrders_PlaceAndInventory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := f.menuItem(t, "Ugali", today, 3)

	order, err := f.svc.Orders.Create(ctx, f.alice, validation.Fields{"menu_item_id": float64(item.ID), "quantity": 2.0})
	require.NoError(t, err)
	assert.Equal(t, f.alice.ID, order.UserID)
	require.NotNil(t, order.MenuItem)
	assert.Equal(t, 1, order.MenuItem.Quantity)

	_, err = f.svc.Orders.Create(ctx, f.bob, validation.Fields{"menu_item_id": float64(item.ID), "quantity": 2.0})
	assertKind(t, err, apperrors.KindValidation, MsgNotEnoughUnits)

	defaulted, err := f.svc.Orders.Create(ctx, f.bob, validation.Fields{"menu_item_id": float64(item.ID)})
	require.NoError(t, err)
	assert.Equal(t, 1, defaulted.Quantity, "quantity defaults to one")
}

func TestOrders_BoundToCaller(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := f.menuItem(t, "Ugali", today, 5)

	order, err := f.svc.Orders.Create(ctx, f.alice, validation.Fields{
		"menu_item_id": float64(item.ID),
		"user_id":      float64(f.bob.ID),
	})
	require.NoError(t, err)
	assert.Equal(t, f.alice.ID, order.UserID, "customers cannot order for someone else")

	onBehalf, err := f.svc.Orders.Create(ctx, f.caterer, validation.Fields{
		"menu_item_id": float64(item.ID),
		"user_id":      float64(f.bob.ID),
	})
	require.NoError(t, err)
	assert.Equal(t, f.bob.ID, onBehalf.UserID)
}

func TestOrders_ExpiredMenu(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	yesterday := models.DateOf(today.AddDate(0, 0, -1))
	item := f.menuItem(t, "Ugali", yesterday, 5)

	_, err := f.svc.Orders.Create(ctx, f.alice, validation.Fields{"menu_item_id": float64(item.ID)})
	assertKind(t, err, apperrors.KindValidation, "This menu is expired")

	stored, err := f.svc.MenuItems.Get(ctx, f.caterer, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, stored.Quantity)
}

func TestOrders_Ownership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := f.menuItem(t, "Ugali", today, 5)

	order, err := f.svc.Orders.Create(ctx, f.alice, validation.Fields{"menu_item_id": float64(item.ID)})
	require.NoError(t, err)

	_, err = f.svc.Orders.Get(ctx, f.bob, order.ID)
	assertKind(t, err, apperrors.KindAuthorization, policy.MsgUnauthorized)

	_, err = f.svc.Orders.Update(ctx, f.bob, order.ID, validation.Fields{"quantity": 2.0})
	assertKind(t, err, apperrors.KindAuthorization, policy.MsgUnauthorized)

	err = f.svc.Orders.Delete(ctx, f.bob, order.ID)
	assertKind(t, err, apperrors.KindAuthorization, policy.MsgUnauthorized)

	_, err = f.svc.Orders.Get(ctx, f.bob, 999)
	assertKind(t, err, apperrors.KindNotFound, "Not found")

	_, err = f.svc.Orders.Get(ctx, f.caterer, order.ID)
	require.NoError(t, err)

	aliceOrders, err := f.svc.Orders.List(ctx, f.alice)
	require.NoError(t, err)
	assert.Equal(t, 1, aliceOrders.NumResults)
	bobOrders, err := f.svc.Orders.List(ctx, f.bob)
	require.NoError(t, err)
	assert.Zero(t, bobOrders.NumResults)
}

func TestOrders_UpdateAndCancelMoveUnits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ugali := f.menuItem(t, "Ugali", today, 5)
	pilau := f.menuItem(t, "Pilau", today, 5)

	order, err := f.svc.Orders.Create(ctx, f.alice, validation.Fields{"menu_item_id": float64(ugali.ID), "quantity": 2.0})
	require.NoError(t, err)

	updated, err := f.svc.Orders.Update(ctx, f.alice, order.ID, validation.Fields{"menu_item_id": float64(pilau.ID), "quantity": 3.0})
	require.NoError(t, err)
	assert.Equal(t, pilau.ID, updated.MenuItemID)
	assert.Equal(t, 3, updated.Quantity)
	assert.Equal(t, f.alice.ID, updated.UserID)

	quantity := func(id uint) int {
		item, err := f.svc.MenuItems.Get(ctx, f.caterer, id)
		require.NoError(t, err)
		return item.Quantity
	}
	assert.Equal(t, 5, quantity(ugali.ID))
	assert.Equal(t, 2, quantity(pilau.ID))

	_, err = f.svc.Orders.Update(ctx, f.alice, order.ID, validation.Fields{"quantity": 10.0})
	assertKind(t, err, apperrors.KindValidation, MsgNotEnoughUnits)
	assert.Equal(t, 2, quantity(pilau.ID))

	require.NoError(t, f.svc.Orders.Delete(ctx, f.alice, order.ID))
	assert.Equal(t, 5, quantity(pilau.ID))
}

func TestNotifications_Scoped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Notifications.Create(ctx, f.alice, validation.Fields{"title": "Hi", "message": "x", "user_id": float64(f.bob.ID)})
	assertKind(t, err, apperrors.KindAuthorization, policy.MsgNotCaterer)

	n, err := f.svc.Notifications.Create(ctx, f.caterer, validation.Fields{
		"title":   "Order ready",
		"message": "Your Ugali is ready",
		"user_id": float64(f.alice.ID),
	})
	require.NoError(t, err)

	page, err := f.svc.Notifications.List(ctx, f.alice)
	require.NoError(t, err)
	assert.Equal(t, 1, page.NumResults)
	page, err = f.svc.Notifications.List(ctx, f.bob)
	require.NoError(t, err)
	assert.Zero(t, page.NumResults)

	_, err = f.svc.Notifications.Get(ctx, f.bob, n.ID)
	assertKind(t, err, apperrors.KindAuthorization, policy.MsgUnauthorized)

	_, err = f.svc.Notifications.Update(ctx, f.alice, n.ID, validation.Fields{"title": "Changed"})
	assertKind(t, err, apperrors.KindAuthorization, policy.MsgNotCaterer)

	require.NoError(t, f.svc.Notifications.Delete(ctx, f.alice, n.ID))
}
