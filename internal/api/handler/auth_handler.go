package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/studyhub/materials-portal/internal/api/metrics"
	"github.com/studyhub/materials-portal/internal/core/domain"
	"github.com/studyhub/materials-portal/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type registerRequest struct {
	Name       string `json:"name"       validate:"required"`
	Email      string `json:"email"      validate:"required,email"`
	Password   string `json:"password"   validate:"required"`
	Department string `json:"department" validate:"required"`
	Role       string `json:"role"       validate:"required"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

type userSummary struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type registerResponse struct {
	Message string      `json:"message"`
	Token   string      `json:"token"`
	User    userSummary `json:"user"`
}

type loginResponse struct {
	Token string      `json:"token"`
	User  userSummary `json:"user"`
}

type verifyResponse struct {
	User *domain.Identity `json:"user"`
}

func summarize(u *domain.User) userSummary {
	return userSummary{Name: u.Name, Email: u.Email, Role: u.Role}
}

// Register creates a new user account and signs the caller in.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "User registration details"
// @Success      201   {object}  registerResponse
// @Failure      400   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		metrics.AuthAttemptsTotal.WithLabelValues("register", metrics.ResultRejected).Inc()
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		metrics.AuthAttemptsTotal.WithLabelValues("register", metrics.ResultRejected).Inc()
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	token, user, err := h.authService.Register(c.Request().Context(), ports.RegisterInput{
		Name:       req.Name,
		Email:      req.Email,
		Password:   req.Password,
		Department: req.Department,
		Role:       req.Role,
	})
	if err != nil {
		he := HTTPError(err)
		metrics.AuthAttemptsTotal.WithLabelValues("register", metrics.ResultOf(he.Code)).Inc()
		return he
	}

	metrics.AuthAttemptsTotal.WithLabelValues("register", metrics.ResultSuccess).Inc()
	return c.JSON(http.StatusCreated, registerResponse{
		Message: "User registered successfully",
		Token:   token,
		User:    summarize(user),
	})
}

// Login authenticates a user and returns a JWT token.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  loginResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /api/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		metrics.AuthAttemptsTotal.WithLabelValues("login", metrics.ResultRejected).Inc()
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		metrics.AuthAttemptsTotal.WithLabelValues("login", metrics.ResultRejected).Inc()
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	token, user, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		he := HTTPError(err)
		metrics.AuthAttemptsTotal.WithLabelValues("login", metrics.ResultOf(he.Code)).Inc()
		return he
	}

	metrics.AuthAttemptsTotal.WithLabelValues("login", metrics.ResultSuccess).Inc()
	return c.JSON(http.StatusOK, loginResponse{Token: token, User: summarize(user)})
}

// VerifyToken echoes the identity carried by a valid bearer token.
//
// @Summary      Verify token
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  verifyResponse
// @Failure      401  {object}  map[string]string
// @Router       /api/verify-token [get]
func (h *AuthHandler) VerifyToken(c echo.Context) error {
	identity, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, verifyResponse{User: identity})
}
