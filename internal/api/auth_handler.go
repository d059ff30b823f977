package api

import (
	"context"
	"errors"
	"net/http"

	"olimpiad/internal/dto/req"
	"olimpiad/internal/dto/resp"
	"olimpiad/internal/service"
	"olimpiad/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthProvider interface {
	Login(ctx context.Context, in req.LoginReq) (*resp.TokenResp, error)
	Refresh(ctx context.Context, refreshToken string) (*resp.TokenResp, error)
	Logout(ctx context.Context, userID string) error
}

type AuthHandler struct {
	svc AuthProvider
}

func NewAuthHandler(svc AuthProvider) *AuthHandler {
	return &AuthHandler{svc: svc}
}

func (h *AuthHandler) Login(c *gin.Context) {
	var body req.LoginReq
	if err := c.ShouldBindJSON(&body); err != nil {
		bindError(c, err)
		return
	}

	tokens, err := h.svc.Login(c.Request.Context(), body)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			abortDetail(c, http.StatusUnauthorized, "invalid username or password")
			return
		}
		logger.Error("login failed", zap.Error(err))
		abortDetail(c, http.StatusInternalServerError, "login failed")
		return
	}

	c.JSON(http.StatusOK, tokens)
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	var body req.RefreshReq
	if err := c.ShouldBindJSON(&body); err != nil {
		bindError(c, err)
		return
	}

	tokens, err := h.svc.Refresh(c.Request.Context(), body.RefreshToken)
	if err != nil {
		if errors.Is(err, service.ErrAuthUnavailable) {
			abortDetail(c, http.StatusServiceUnavailable, "session store unavailable")
			return
		}
		abortDetail(c, http.StatusUnauthorized, "invalid refresh token")
		return
	}

	c.JSON(http.StatusOK, tokens)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	op := service.GetOperatorInfo(c.Request.Context())
	if op == nil {
		abortDetail(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := h.svc.Logout(c.Request.Context(), op.UserID); err != nil {
		logger.Error("logout failed", zap.Error(err))
	}

	c.JSON(http.StatusOK, resp.MessageResponse{Message: "logged out"})
}

func (h *AuthHandler) GetProfile(c *gin.Context) {
	op := service.GetOperatorInfo(c.Request.Context())
	if op == nil {
		abortDetail(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	c.JSON(http.StatusOK, resp.UserInfo{
		ID:       op.UserID,
		Username: op.Name,
		Role:     op.Role,
	})
}
