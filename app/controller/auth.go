package controller

import (
	"errors"
	"net/http"

	dto "github.com/vibast-solutions/ms-go-reports/app/dto/http"
	"github.com/vibast-solutions/ms-go-reports/app/service"

	"github.com/labstack/echo/v4"
)

const resetRequestMessage = "if the email exists, a reset link has been sent"

type AuthController struct {
	authService *service.AuthService
}

func NewAuthController(authService *service.AuthService) *AuthController {
	return &AuthController{authService: authService}
}

func (c *AuthController) Register(ctx echo.Context) error {
	var req dto.RegisterRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
	}
	if err := req.Validate(); err != nil {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	}

	result, err := c.authService.Register(ctx.Request().Context(), req.Email, req.Password, req.Name)
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			return ctx.JSON(http.StatusConflict, dto.ErrorResponse{Error: "email already registered"})
		}
		if errors.Is(err, service.ErrWeakPassword) {
			return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		}
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}

	return ctx.JSON(http.StatusCreated, dto.RegisterResponse{
		Status:  "success",
		Message: "user registered successfully",
		UserID:  result.User.ID,
		Email:   result.User.Email,
	})
}

func (c *AuthController) Login(ctx echo.Context) error {
	var req dto.LoginRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
	}
	if err := req.Validate(); err != nil {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	}

	pair, err := c.authService.Login(ctx.Request().Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			return ctx.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "invalid credentials"})
		}
		if errors.Is(err, service.ErrInactiveAccount) {
			return ctx.JSON(http.StatusForbidden, dto.ErrorResponse{Error: "account is inactive"})
		}
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}

	return ctx.JSON(http.StatusOK, dto.TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "bearer",
		ExpiresIn:    pair.ExpiresIn,
		UserID:       pair.UserID,
	})
}

func (c *AuthController) Refresh(ctx echo.Context) error {
	var req dto.RefreshTokenRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
	}
	if err := req.Validate(); err != nil {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	}

	pair, err := c.authService.Refresh(ctx.Request().Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, service.ErrInvalidToken) || errors.Is(err, service.ErrTokenExpired) || errors.Is(err, service.ErrTokenRevoked) {
			return ctx.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "invalid or expired refresh token"})
		}
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}

	return ctx.JSON(http.StatusOK, dto.TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "bearer",
		ExpiresIn:    pair.ExpiresIn,
		UserID:       pair.UserID,
	})
}

func (c *AuthController) Logout(ctx echo.Context) error {
	claims, ok := ctx.Get("claims").(*service.Claims)
	if !ok {
		return ctx.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "unauthorized"})
	}

	if err := c.authService.Logout(ctx.Request().Context(), claims); err != nil {
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}

	return ctx.JSON(http.StatusOK, dto.LogoutResponse{
		Status:  "success",
		Message: "logged out successfully",
	})
}

func (c *AuthController) Me(ctx echo.Context) error {
	claims, ok := ctx.Get("claims").(*service.Claims)
	if !ok {
		return ctx.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "unauthorized"})
	}

	user, err := c.authService.CurrentUser(ctx.Request().Context(), claims)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "user not found"})
		}
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}

	return ctx.JSON(http.StatusOK, dto.MeResponse{
		UserID:   user.ID,
		Email:    user.Email,
		Name:     user.Name,
		IsActive: user.IsActive,
	})
}

func (c *AuthController) UpdateProfile(ctx echo.Context) error {
	claims, ok := ctx.Get("claims").(*service.Claims)
	if !ok {
		return ctx.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "unauthorized"})
	}

	var req dto.UpdateProfileRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
	}
	if err := req.Validate(); err != nil {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	}

	user, err := c.authService.UpdateProfile(ctx.Request().Context(), claims, req.Name, req.Email)
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			return ctx.JSON(http.StatusConflict, dto.ErrorResponse{Error: "email already registered"})
		}
		if errors.Is(err, service.ErrUserNotFound) {
			return ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "user not found"})
		}
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}

	return ctx.JSON(http.StatusOK, dto.UpdateProfileResponse{
		Status:  "success",
		Message: "profile updated successfully",
		User: map[string]string{
			"user_id": user.ID,
			"email":   user.Email,
			"name":    user.Name,
		},
	})
}

// RequestPasswordReset answers identically whether or not the email exists.
// When the user exists the reset token is included directly in the response,
// which is a development shortcut only.
func (c *AuthController) RequestPasswordReset(ctx echo.Context) error {
	var req dto.PasswordResetRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
	}
	if err := req.Validate(); err != nil {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	}

	token, err := c.authService.RequestPasswordReset(ctx.Request().Context(), req.Email)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return ctx.JSON(http.StatusOK, dto.PasswordResetResponse{
				Status:  "success",
				Message: resetRequestMessage,
			})
		}
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}

	return ctx.JSON(http.StatusOK, dto.PasswordResetResponse{
		Status:     "success",
		Message:    resetRequestMessage,
		ResetToken: token,
	})
}

func (c *AuthController) ConfirmPasswordReset(ctx echo.Context) error {
	var req dto.PasswordResetConfirmRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
	}
	if err := req.Validate(); err != nil {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	}

	err := c.authService.ResetPassword(ctx.Request().Context(), req.Token, req.NewPassword)
	if err != nil {
		if errors.Is(err, service.ErrInvalidToken) || errors.Is(err, service.ErrTokenExpired) || errors.Is(err, service.ErrTokenRevoked) {
			return ctx.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "invalid or expired token"})
		}
		if errors.Is(err, service.ErrWeakPassword) {
			return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		}
		if errors.Is(err, service.ErrUserNotFound) {
			return ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "user not found"})
		}
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}

	return ctx.JSON(http.StatusOK, dto.PasswordResetConfirmResponse{
		Status:  "success",
		Message: "password changed successfully",
	})
}

// ValidateToken lets other services check an access token without sharing
// the signing secret.
func (c *AuthController) ValidateToken(ctx echo.Context) error {
	var req dto.ValidateTokenRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
	}
	if err := req.Validate(); err != nil {
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	}

	claims, err := c.authService.ValidateAccessToken(req.AccessToken)
	if err != nil {
		return ctx.JSON(http.StatusOK, dto.ValidateTokenResponse{Valid: false})
	}

	return ctx.JSON(http.StatusOK, dto.ValidateTokenResponse{
		Valid:  true,
		UserID: claims.Subject,
		Email:  claims.Email,
	})
}
