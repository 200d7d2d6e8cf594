// Package validation checks proposed field sets before a write is accepted.
// Every rule collects all violations instead of stopping at the first one.
package validation

import (
	"context"
	"errors"
	"strings"

	"book-a-meal-api/apperrors"
	"book-a-meal-api/models"
	"book-a-meal-api/repository"

	"github.com/go-playground/validator/v10"
)

// Lookup is the read-only view of persisted state the rules consult
type Lookup interface {
	EmailTaken(ctx context.Context, email string) (bool, error)
	UserExists(ctx context.Context, id uint) (bool, error)
	MealExists(ctx context.Context, id uint) (bool, error)
	MenuExists(ctx context.Context, id uint) (bool, error)
	MealNameTaken(ctx context.Context, name string, excludeID uint) (bool, error)
	MenuItemPairTaken(ctx context.Context, menuID, mealID, excludeID uint) (bool, error)
	MenuItemWithMenu(ctx context.Context, id uint) (*models.MenuItem, error)
}

const (
	minUsernameLength = 3
	minPasswordLength = 6
)

var validate = validator.New()

type violations []string

func (v *violations) add(msg string) { *v = append(*v, msg) }

func (v violations) err() error {
	if len(v) == 0 {
		return nil
	}
	return apperrors.Validation(v...)
}

// Validator runs the per resource rules against a Lookup
type Validator struct {
	lookup Lookup
	today  func() models.Date
}

func New(lookup Lookup, today func() models.Date) *Validator {
	return &Validator{lookup: lookup, today: today}
}

// Today is the date the expired-menu rule compares against
func (v *Validator) Today() models.Date {
	return v.today()
}

type SignupInput struct {
	Username string
	Email    string
	Password string
}

// Signup validates a registration request
func (v *Validator) Signup(ctx context.Context, f Fields) (SignupInput, error) {
	var errs violations
	var in SignupInput

	username, _ := f.String("username")
	in.Username = strings.TrimSpace(username)
	switch {
	case !f.Has("username"):
		errs.add("Username is required")
	case len(in.Username) < minUsernameLength:
		errs.add("Username must have at least 3 characters. Leading and trailing spaces and tabs are ignored.")
	}

	email, _ := f.String("email")
	in.Email = strings.TrimSpace(email)
	emailValid := false
	switch {
	case !f.Has("email"):
		errs.add("Email is required")
	case validate.Var(in.Email, "required,email") != nil:
		errs.add("Please provide a valid email")
	default:
		emailValid = true
	}

	in.Password, _ = f.String("password")
	confirm, _ := f.String("confirm_password")
	errs = append(errs, passwordViolations(f.Has("password"), in.Password, f.Has("confirm_password"), confirm)...)

	if emailValid {
		taken, err := v.lookup.EmailTaken(ctx, in.Email)
		if err != nil {
			return in, apperrors.Internal(err)
		}
		if taken {
			errs.add("This email has already been used")
		}
	}
	return in, errs.err()
}

// Password validates a new password and its confirmation
func (v *Validator) Password(f Fields) (string, error) {
	password, _ := f.String("password")
	confirm, _ := f.String("confirm_password")
	errs := violations(passwordViolations(f.Has("password"), password, f.Has("confirm_password"), confirm))
	return password, errs.err()
}

func passwordViolations(hasPassword bool, password string, hasConfirm bool, confirm string) []string {
	var errs violations
	if !hasPassword {
		errs.add("Password is required")
	} else if len(strings.TrimSpace(password)) < minPasswordLength {
		errs.add("Password must have at least 6 characters. Leading and trailing spaces and tabs are ignored.")
	}
	if !hasConfirm {
		errs.add("Password confirmation is required")
	} else if hasPassword && strings.TrimSpace(password) != strings.TrimSpace(confirm) {
		errs.add("Confirmation password does not match")
	}
	return errs
}

// Profile validates a profile update. The password pair is optional.
func (v *Validator) Profile(f Fields) (username string, password string, err error) {
	var errs violations
	name, _ := f.String("username")
	username = strings.TrimSpace(name)
	if len(username) < minUsernameLength {
		errs.add("Username must have at least 3 characters. Leading and trailing spaces and tabs are ignored.")
	}
	if f.Has("password") || f.Has("confirm_password") {
		password, _ = f.String("password")
		confirm, _ := f.String("confirm_password")
		errs = append(errs, passwordViolations(f.Has("password"), password, f.Has("confirm_password"), confirm)...)
	}
	return username, password, errs.err()
}

type MealInput struct {
	Name    string
	Cost    float64
	ImgPath string
}

// Meal validates a meal field set. excludeID is the meal being updated, 0 on create.
func (v *Validator) Meal(ctx context.Context, f Fields, excludeID uint) (MealInput, error) {
	var errs violations
	var in MealInput

	name, isString := f.String("name")
	in.Name = strings.TrimSpace(name)
	nameValid := false
	switch {
	case !f.Has("name"):
		errs.add("Name is required")
	case !isString || in.Name == "":
		errs.add("Invalid meal name")
	default:
		nameValid = true
	}

	if !f.Has("cost") {
		errs.add("Cost is required")
	} else if cost, ok := f.Float("cost"); !ok {
		errs.add("Cost must be numeric")
	} else if cost < 0 {
		errs.add("Cost must not be negative")
	} else {
		in.Cost = cost
	}

	if f.Has("img_path") {
		img, ok := f.String("img_path")
		if !ok {
			errs.add("Image path must be a string")
		}
		in.ImgPath = img
	}

	if nameValid {
		taken, err := v.lookup.MealNameTaken(ctx, in.Name, excludeID)
		if err != nil {
			return in, apperrors.Internal(err)
		}
		if taken {
			errs.add("Meal name must be unique")
		}
	}
	return in, errs.err()
}

type MenuInput struct {
	Category models.MenuCategory
	Day      models.Date
}

// Menu validates a menu field set. A missing day defaults to today.
func (v *Validator) Menu(ctx context.Context, f Fields) (MenuInput, error) {
	var errs violations
	in := MenuInput{Day: v.today()}

	if !f.Has("category") {
		errs.add("Category is required")
	} else if c, ok := parseCategory(f); !ok {
		errs.add("Unknown meal type")
	} else {
		in.Category = c
	}

	if f.Has("day") {
		day, err := parseDay(f["day"])
		if err != nil {
			errs.add("Day must be a date in YYYY-MM-DD format")
		} else {
			in.Day = day
		}
	}
	return in, errs.err()
}

func parseCategory(f Fields) (models.MenuCategory, bool) {
	if s, ok := f.String("category"); ok {
		if c, ok := models.ParseMenuCategory(s); ok {
			return c, true
		}
	}
	n, ok := f.Int("category")
	if !ok || !models.MenuCategory(n).Valid() {
		return 0, false
	}
	return models.MenuCategory(n), true
}

func parseDay(v any) (models.Date, error) {
	switch d := v.(type) {
	case models.Date:
		return d, nil
	case string:
		return models.ParseDate(d)
	}
	return models.Date{}, errors.New("day is not a string")
}

type MenuItemInput struct {
	MenuID   uint
	MealID   uint
	Quantity int
}

// MenuItem validates a menu item field set. excludeID is the item being updated, 0 on create.
func (v *Validator) MenuItem(ctx context.Context, f Fields, excludeID uint) (MenuItemInput, error) {
	var errs violations
	var in MenuItemInput

	mealOK, err := v.reference(ctx, f, "meal_id", &in.MealID, v.lookup.MealExists,
		"Meal id is required", "No meal found for that meal_id", &errs)
	if err != nil {
		return in, err
	}
	menuOK, err := v.reference(ctx, f, "menu_id", &in.MenuID, v.lookup.MenuExists,
		"Menu id is required", "No menu found for that menu_id", &errs)
	if err != nil {
		return in, err
	}

	if !f.Has("quantity") {
		errs.add("Quantity is required")
	} else if n, ok := f.Int("quantity"); !ok || n <= 0 {
		errs.add("Quantity must be a positive integer")
	} else {
		in.Quantity = int(n)
	}

	if mealOK && menuOK {
		taken, err := v.lookup.MenuItemPairTaken(ctx, in.MenuID, in.MealID, excludeID)
		if err != nil {
			return in, apperrors.Internal(err)
		}
		if taken {
			errs.add("This menu item already exists")
		}
	}
	return in, errs.err()
}

type OrderInput struct {
	MenuItemID uint
	UserID     uint // 0 when the request did not name a user
	Quantity   int
}

// Order validates an order field set, including the expired-menu rule
func (v *Validator) Order(ctx context.Context, f Fields) (OrderInput, error) {
	var errs violations
	in := OrderInput{Quantity: 1}

	if !f.Has("menu_item_id") {
		errs.add("Menu item id is required")
	} else if id, ok := f.ID("menu_item_id"); !ok {
		errs.add("No menu item found for that menu_item_id")
	} else {
		item, err := v.lookup.MenuItemWithMenu(ctx, id)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			errs.add("No menu item found for that menu_item_id")
		case err != nil:
			return in, apperrors.Internal(err)
		case item.Menu == nil || item.Menu.Expired(v.today()):
			in.MenuItemID = id
			errs.add("This menu is expired")
		default:
			in.MenuItemID = id
		}
	}

	if f.Has("quantity") {
		if n, ok := f.Int("quantity"); !ok || n <= 0 {
			errs.add("Quantity must be a positive integer")
		} else {
			in.Quantity = int(n)
		}
	}

	if f.Has("user_id") {
		if _, err := v.reference(ctx, f, "user_id", &in.UserID, v.lookup.UserExists,
			"User id is required", "No user found for that user_id", &errs); err != nil {
			return in, err
		}
	}
	return in, errs.err()
}

type NotificationInput struct {
	Title   string
	Message string
	UserID  uint
}

func (v *Validator) Notification(ctx context.Context, f Fields) (NotificationInput, error) {
	var errs violations
	var in NotificationInput

	title, _ := f.String("title")
	in.Title = strings.TrimSpace(title)
	if in.Title == "" {
		errs.add("Title is required")
	}
	message, _ := f.String("message")
	in.Message = strings.TrimSpace(message)
	if in.Message == "" {
		errs.add("Message is required")
	}
	if _, err := v.reference(ctx, f, "user_id", &in.UserID, v.lookup.UserExists,
		"User id is required", "No user found for that user_id", &errs); err != nil {
		return in, err
	}
	return in, errs.err()
}

// reference checks that key names an existing row. It reports whether the
// reference is valid; the error is only set when the lookup itself failed.
func (v *Validator) reference(
	ctx context.Context,
	f Fields,
	key string,
	dst *uint,
	exists func(context.Context, uint) (bool, error),
	missingMsg, notFoundMsg string,
	errs *violations,
) (bool, error) {
	if !f.Has(key) {
		errs.add(missingMsg)
		return false, nil
	}
	id, ok := f.ID(key)
	if !ok {
		errs.add(notFoundMsg)
		return false, nil
	}
	found, err := exists(ctx, id)
	if err != nil {
		return false, apperrors.Internal(err)
	}
	if !found {
		errs.add(notFoundMsg)
		return false, nil
	}
	*dst = id
	return true, nil
}
