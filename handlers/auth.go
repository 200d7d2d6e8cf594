package handlers

import (
	"errors"
	"net/http"

	"book-a-meal-api/apperrors"
	"book-a-meal-api/middleware"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type PasswordResetRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	User        any    `json:"user"`
}

// bindErr turns gin binding failures into the error envelope
func bindErr(err error, messages map[string]string) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperrors.Validation(msgMalformedJSON)
	}
	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if msg, ok := messages[fe.Field()+"."+fe.Tag()]; ok {
			out = append(out, msg)
			continue
		}
		out = append(out, fe.Field()+" is invalid")
	}
	return apperrors.Validation(out...)
}

var (
	loginMessages = map[string]string{
		"Email.required":    "Email is required",
		"Password.required": "Password is required",
	}
	resetMessages = map[string]string{
		"Email.required": "Email is required",
		"Email.email":    "Invalid email",
	}
)

// Signup registers a customer account
func (h *Handler) Signup(c *gin.Context) {
	fields, ok := bindFields(c)
	if !ok {
		return
	}
	user, err := h.auth.Register(c.Request.Context(), fields)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user.Public())
}

// Login exchanges credentials for an access token
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindErr(err, loginMessages))
		return
	}
	session, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, LoginResponse{
		AccessToken: session.AccessToken,
		User:        session.User.Public(),
	})
}

// Logout revokes the token the request was made with
func (h *Handler) Logout(c *gin.Context) {
	if err := h.auth.Logout(c.Request.Context(), middleware.CurrentClaims(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Successfully logged out."})
}

// CurrentUser returns the authenticated user
func (h *Handler) CurrentUser(c *gin.Context) {
	c.JSON(http.StatusOK, middleware.CurrentUser(c).Public())
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	fields, ok := bindFields(c)
	if !ok {
		return
	}
	user, err := h.auth.UpdateProfile(c.Request.Context(), middleware.CurrentUser(c), fields)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user.Public())
}

func (h *Handler) VerifyEmail(c *gin.Context) {
	if _, err := h.auth.VerifyEmail(c.Request.Context(), c.Param("token")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Email successfully verified"})
}

// RequestPasswordReset answers the same way whether or not the email is known
func (h *Handler) RequestPasswordReset(c *gin.Context) {
	var req PasswordResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindErr(err, resetMessages))
		return
	}
	if err := h.auth.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "If that email is registered, a reset link has been sent"})
}

func (h *Handler) ResetPassword(c *gin.Context) {
	fields, ok := bindFields(c)
	if !ok {
		return
	}
	if err := h.auth.ResetPassword(c.Request.Context(), c.Param("token"), fields); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password successfully reset"})
}
