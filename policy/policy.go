// Package policy holds the per-resource authorization table and the guards
// that check a caller against it before and after a row is loaded.
package policy

import (
	"book-a-meal-api/apperrors"
	"book-a-meal-api/models"
)

// Guard is the precondition a caller must satisfy for an operation
type Guard string

const (
	Public         Guard = "public"
	RequireAuth    Guard = "authenticated"
	RequireCaterer Guard = "caterer"
	RequireOwner   Guard = "owner_or_caterer"
)

type Resource string

const (
	Meals         Resource = "meals"
	Menus         Resource = "menus"
	MenuItems     Resource = "menu_items"
	Orders        Resource = "orders"
	Notifications Resource = "notifications"
	Users         Resource = "users"
)

type Operation string

const (
	List   Operation = "list"
	Get    Operation = "get"
	Create Operation = "create"
	Update Operation = "update"
	Delete Operation = "delete"
)

const (
	MsgNotCaterer   = "Unauthorized access to non-caterer"
	MsgUnauthorized = "Unauthorized access"
	MsgNoCaller     = "Authentication required"
)

// Rule binds a guard to one operation on one resource
type Rule struct {
	Resource  Resource  `json:"resource"`
	Operation Operation `json:"operation"`
	Guard     Guard     `json:"guard"`
}

// rules is the authoritative authorization table. RequireOwner on List
// means the collection is scoped to the caller unless the caller is a caterer.
var rules = []Rule{
	{Meals, List, RequireAuth},
	{Meals, Get, RequireAuth},
	{Meals, Create, RequireCaterer},
	{Meals, Update, RequireCaterer},
	{Meals, Delete, RequireCaterer},

	{Menus, List, RequireAuth},
	{Menus, Get, RequireAuth},
	{Menus, Create, RequireCaterer},
	{Menus, Update, RequireCaterer},
	{Menus, Delete, RequireCaterer},

	{MenuItems, List, RequireAuth},
	{MenuItems, Get, RequireAuth},
	{MenuItems, Create, RequireCaterer},
	{MenuItems, Update, RequireCaterer},
	{MenuItems, Delete, RequireCaterer},

	{Orders, List, RequireOwner},
	{Orders, Get, RequireOwner},
	{Orders, Create, RequireAuth},
	{Orders, Update, RequireOwner},
	{Orders, Delete, RequireOwner},

	{Notifications, List, RequireOwner},
	{Notifications, Get, RequireOwner},
	{Notifications, Create, RequireCaterer},
	{Notifications, Update, RequireCaterer},
	{Notifications, Delete, RequireOwner},

	{Users, Get, RequireAuth},
	{Users, Update, RequireOwner},
}

type ruleKey struct {
	Resource  Resource
	Operation Operation
}

var ruleMap = func() map[ruleKey]Guard {
	m := make(map[ruleKey]Guard, len(rules))
	for _, r := range rules {
		m[ruleKey{r.Resource, r.Operation}] = r.Guard
	}
	return m
}()

// For returns the guard for an operation. Operations missing from the
// table fall back to RequireCaterer.
func For(resource Resource, op Operation) Guard {
	if g, ok := ruleMap[ruleKey{resource, op}]; ok {
		return g
	}
	return RequireCaterer
}

// Check evaluates a guard against the caller. ownerID is the user the
// loaded resource belongs to and is only consulted for RequireOwner.
func Check(guard Guard, caller *models.User, ownerID uint) error {
	switch guard {
	case Public:
		return nil
	case RequireAuth:
		return RequireAuthenticated(caller)
	case RequireCaterer:
		return RequireCatererRole(caller)
	case RequireOwner:
		return RequireOwnerOrCaterer(caller, ownerID)
	}
	return apperrors.Authorization(MsgUnauthorized)
}

func RequireAuthenticated(caller *models.User) error {
	if caller == nil || caller.ID == 0 {
		return apperrors.Authentication(MsgNoCaller)
	}
	return nil
}

func RequireCatererRole(caller *models.User) error {
	if err := RequireAuthenticated(caller); err != nil {
		return err
	}
	if !caller.IsCaterer() {
		return apperrors.Authorization(MsgNotCaterer)
	}
	return nil
}

func RequireOwnerOrCaterer(caller *models.User, ownerID uint) error {
	if err := RequireAuthenticated(caller); err != nil {
		return err
	}
	if caller.IsCaterer() || caller.ID == ownerID {
		return nil
	}
	return apperrors.Authorization(MsgUnauthorized)
}

// Scoped reports whether a collection must be filtered down to the caller's rows
func Scoped(resource Resource, caller *models.User) bool {
	return For(resource, List) == RequireOwner && !caller.IsCaterer()
}

// Table returns the full rule table for documentation
func Table() []Rule {
	return rules
}
