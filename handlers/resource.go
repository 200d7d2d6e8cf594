package handlers

import (
	"context"
	"net/http"

	"book-a-meal-api/middleware"
	"book-a-meal-api/models"
	"book-a-meal-api/services"
	"book-a-meal-api/validation"

	"github.com/gin-gonic/gin"
)

// itemOps is the single-row half of a resource pipeline
type itemOps[T any] interface {
	Get(ctx context.Context, caller *models.User, id uint) (*T, error)
	Create(ctx context.Context, caller *models.User, fields validation.Fields) (*T, error)
	Update(ctx context.Context, caller *models.User, id uint, fields validation.Fields) (*T, error)
	Delete(ctx context.Context, caller *models.User, id uint) error
}

// Resource exposes one resource pipeline over HTTP
type Resource[T any] struct {
	ops      itemOps[T]
	list     func(c *gin.Context) (services.Page[T], error)
	onCreate func(err error)
}

// List returns {num_results, objects}
func (r *Resource[T]) List(c *gin.Context) {
	page, err := r.list(c)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (r *Resource[T]) Get(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	v, err := r.ops.Get(c.Request.Context(), middleware.CurrentUser(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (r *Resource[T]) Create(c *gin.Context) {
	fields, ok := bindFields(c)
	if !ok {
		return
	}
	v, err := r.ops.Create(c.Request.Context(), middleware.CurrentUser(c), fields)
	if r.onCreate != nil {
		r.onCreate(err)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, v)
}

// Update serves both PUT and PATCH
func (r *Resource[T]) Update(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	fields, ok := bindFields(c)
	if !ok {
		return
	}
	v, err := r.ops.Update(c.Request.Context(), middleware.CurrentUser(c), id, fields)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (r *Resource[T]) Delete(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := r.ops.Delete(c.Request.Context(), middleware.CurrentUser(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": msgDeleted})
}
