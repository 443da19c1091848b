package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/oceanauth/auth-api/internal/api/metrics"
	"github.com/oceanauth/auth-api/internal/core/domain"
	"github.com/oceanauth/auth-api/internal/core/ports"
)

// MailEnqueuer hands outbound messages to the delivery workers.
type MailEnqueuer interface {
	Enqueue(msg ports.MailMessage)
}

type AuthHandler struct {
	authService ports.AuthService
	mail        MailEnqueuer
	echoTokens  bool
}

// NewAuthHandler builds the auth endpoints. When echoTokens is true
// (non-production), raw verification tokens are included in responses so flows
// can be exercised without a mail inbox.
func NewAuthHandler(authService ports.AuthService, mail MailEnqueuer, echoTokens bool) *AuthHandler {
	return &AuthHandler{authService: authService, mail: mail, echoTokens: echoTokens}
}

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	FullName string `json:"full_name"`
}

type registerResponse struct {
	User              *domain.User `json:"user"`
	VerificationToken string       `json:"verification_token,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type googleLoginRequest struct {
	Token string `json:"token" validate:"required"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type verifyEmailRequest struct {
	Token string `json:"token" validate:"required"`
}

type resendVerificationRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type messageResponse struct {
	Message           string `json:"message"`
	VerificationToken string `json:"verification_token,omitempty"`
}

// Register creates a new account and issues its email-verification token.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Registration details"
// @Success      201   {object}  registerResponse
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Failure      429   {object}  map[string]string
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, token, err := h.authService.Register(c.Request().Context(), req.Email, req.Password, req.FullName)
	if err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			metrics.RegistrationsTotal.WithLabelValues("conflict").Inc()
		} else {
			metrics.RegistrationsTotal.WithLabelValues("error").Inc()
		}
		return err
	}
	metrics.RegistrationsTotal.WithLabelValues("created").Inc()

	h.mail.Enqueue(ports.MailMessage{
		To:      user.Email,
		Subject: "Verify your email",
		Body:    fmt.Sprintf("Use this token to verify your account: %s", token),
	})

	resp := registerResponse{User: user}
	if h.echoTokens {
		resp.VerificationToken = token
	}
	return c.JSON(http.StatusCreated, resp)
}

// Login authenticates by email and password and returns a bearer token.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  tokenResponse
// @Failure      401   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      429   {object}  map[string]string
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	token, _, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidCredentials):
			metrics.LoginsTotal.WithLabelValues("password", "unauthorized").Inc()
		case errors.Is(err, domain.ErrInactiveAccount):
			metrics.LoginsTotal.WithLabelValues("password", "inactive").Inc()
		default:
			metrics.LoginsTotal.WithLabelValues("password", "error").Inc()
		}
		return err
	}
	metrics.LoginsTotal.WithLabelValues("password", "success").Inc()

	return c.JSON(http.StatusOK, tokenResponse{AccessToken: token, TokenType: "bearer"})
}

// GoogleLogin exchanges a Google OAuth token for a local session.
//
// @Summary      Login with Google
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      googleLoginRequest  true  "Google OAuth token"
// @Success      200   {object}  tokenResponse
// @Failure      401   {object}  map[string]string
// @Failure      502   {object}  map[string]string
// @Router       /auth/google [post]
func (h *AuthHandler) GoogleLogin(c echo.Context) error {
	var req googleLoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	token, _, err := h.authService.GoogleLogin(c.Request().Context(), req.Token)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidProviderToken) {
			metrics.LoginsTotal.WithLabelValues("google", "unauthorized").Inc()
		} else {
			metrics.LoginsTotal.WithLabelValues("google", "error").Inc()
		}
		return err
	}
	metrics.LoginsTotal.WithLabelValues("google", "success").Inc()

	return c.JSON(http.StatusOK, tokenResponse{AccessToken: token, TokenType: "bearer"})
}

// Me returns the account of the authenticated caller.
//
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.User
// @Failure      401  {object}  map[string]string
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	bearer, _ := c.Get("bearer").(string)
	if bearer == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing authentication")
	}

	user, err := h.authService.CurrentUser(c.Request().Context(), bearer)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// VerifyEmail redeems a verification token and activates the account.
//
// @Summary      Verify email address
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      verifyEmailRequest  true  "Verification token"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  map[string]string
// @Router       /auth/verify-email [post]
func (h *AuthHandler) VerifyEmail(c echo.Context) error {
	var req verifyEmailRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if _, err := h.authService.VerifyEmail(c.Request().Context(), req.Token); err != nil {
		metrics.TokenRedemptionsTotal.WithLabelValues("verification", "invalid").Inc()
		return err
	}
	metrics.TokenRedemptionsTotal.WithLabelValues("verification", "success").Inc()

	return c.JSON(http.StatusOK, messageResponse{Message: "Email verified successfully"})
}

// ResendVerification issues a fresh verification token. The response is the
// same whether or not the email belongs to an account, so the endpoint cannot
// be used to enumerate users.
//
// @Summary      Resend verification email
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      resendVerificationRequest  true  "Account email"
// @Success      200   {object}  messageResponse
// @Router       /auth/resend-verification [post]
func (h *AuthHandler) ResendVerification(c echo.Context) error {
	var req resendVerificationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	token, sent, err := h.authService.ResendVerification(c.Request().Context(), req.Email)
	if err != nil {
		return err
	}
	if sent {
		h.mail.Enqueue(ports.MailMessage{
			To:      req.Email,
			Subject: "Verify your email",
			Body:    fmt.Sprintf("Use this token to verify your account: %s", token),
		})
	}

	resp := messageResponse{Message: "If this email exists and is not verified, a new verification link has been sent"}
	if h.echoTokens && sent {
		resp.VerificationToken = token
	}
	return c.JSON(http.StatusOK, resp)
}
