package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/oceanauth/auth-api/internal/api/metrics"
	"github.com/oceanauth/auth-api/internal/core/ports"
)

type PasswordHandler struct {
	authService ports.AuthService
	mail        MailEnqueuer
	echoTokens  bool
}

func NewPasswordHandler(authService ports.AuthService, mail MailEnqueuer, echoTokens bool) *PasswordHandler {
	return &PasswordHandler{authService: authService, mail: mail, echoTokens: echoTokens}
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type forgotPasswordResponse struct {
	Message    string `json:"message"`
	ResetToken string `json:"reset_token,omitempty"`
}

type resetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

// ForgotPassword records a password-reset request. The response is the same
// whether or not the email belongs to an account.
//
// @Summary      Request a password reset
// @Tags         passwords
// @Accept       json
// @Produce      json
// @Param        body  body      forgotPasswordRequest  true  "Account email"
// @Success      200   {object}  forgotPasswordResponse
// @Failure      429   {object}  map[string]string
// @Router       /passwords/forgot [post]
func (h *PasswordHandler) ForgotPassword(c echo.Context) error {
	var req forgotPasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	token, sent, err := h.authService.ForgotPassword(c.Request().Context(), req.Email)
	if err != nil {
		return err
	}
	if sent {
		h.mail.Enqueue(ports.MailMessage{
			To:      req.Email,
			Subject: "Reset your password",
			Body:    fmt.Sprintf("Use this token to reset your password: %s", token),
		})
	}

	resp := forgotPasswordResponse{Message: "If this email exists, a reset link has been sent"}
	if h.echoTokens && sent {
		resp.ResetToken = token
	}
	return c.JSON(http.StatusOK, resp)
}

// ResetPassword redeems a reset token and replaces the account password.
//
// @Summary      Reset password
// @Tags         passwords
// @Accept       json
// @Produce      json
// @Param        body  body      resetPasswordRequest  true  "Reset token and new password"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  map[string]string
// @Router       /passwords/reset [post]
func (h *PasswordHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.authService.ResetPassword(c.Request().Context(), req.Token, req.NewPassword); err != nil {
		metrics.TokenRedemptionsTotal.WithLabelValues("reset", "invalid").Inc()
		return err
	}
	metrics.TokenRedemptionsTotal.WithLabelValues("reset", "success").Inc()

	return c.JSON(http.StatusOK, messageResponse{Message: "Password successfully reset"})
}
