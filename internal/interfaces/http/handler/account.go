package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	appaccount "github.com/shopcart/backend/internal/application/account"
	"github.com/shopcart/backend/internal/interfaces/http/dto"
	"github.com/shopcart/backend/internal/interfaces/http/middleware"
)

// CredentialService registers and authenticates users
type CredentialService interface {
	Register(ctx context.Context, input appaccount.RegisterInput) (*appaccount.AuthResult, error)
	Login(ctx context.Context, input appaccount.LoginInput) (*appaccount.AuthResult, error)
}

// AccountHandler handles signup and signin
type AccountHandler struct {
	BaseHandler
	credentials CredentialService
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(credentials CredentialService) *AccountHandler {
	return &AccountHandler{credentials: credentials}
}

// Signup godoc
// @Summary      Register a user
// @Tags         user
// @Accept       json
// @Produce      json
// @Param        request body dto.SignupRequest true "New account"
// @Success      200 {object} dto.AuthResponse
// @Failure      400 {object} dto.ErrorResponse
// @Failure      409 {object} dto.ErrorResponse
// @Router       /api/user/signup [post]
func (h *AccountHandler) Signup(c *gin.Context) {
	var req dto.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindError(c, err)
		return
	}

	result, err := h.credentials.Register(c.Request.Context(), appaccount.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Avatar:   req.Img,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.OK(c, dto.NewAuthResponse(result))
}

// Signin godoc
// @Summary      Sign in
// @Tags         user
// @Accept       json
// @Produce      json
// @Param        request body dto.SigninRequest true "Credentials"
// @Success      200 {object} dto.AuthResponse
// @Failure      400 {object} dto.ErrorResponse
// @Failure      404 {object} dto.ErrorResponse
// @Router       /api/user/signin [post]
func (h *AccountHandler) Signin(c *gin.Context) {
	var req dto.SigninRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindError(c, err)
		return
	}

	result, err := h.credentials.Login(c.Request.Context(), appaccount.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.OK(c, dto.NewAuthResponse(result))
}
