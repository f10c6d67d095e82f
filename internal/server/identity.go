package server

import (
	"errors"
	"net/http"

	"github.com/MarcoPoloResearchLab/daypoll/backend/internal/auth"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const visitorIDContextKey = "daypoll_visitor_id"

// identifyVisitor resolves the optional visitor token. No token means an anonymous
// viewer; a token that fails validation is rejected.
func (h *httpHandler) identifyVisitor(c *gin.Context) {
	claims, err := h.tokens.ValidateRequest(c.Request)
	if errors.Is(err, auth.ErrMissingToken) {
		c.Next()
		return
	}
	if err != nil {
		if errors.Is(err, auth.ErrExpiredToken) {
			h.logger.Info("visitor token validation failed", zap.Error(err))
		} else {
			h.logger.Warn("visitor token validation failed", zap.Error(err))
		}
		respondFailure(c, http.StatusUnauthorized, "visitor token is invalid or expired", codeUnauthorized)
		return
	}

	if err := h.visitors.Touch(c.Request.Context(), claims.VisitorID); err != nil {
		h.logger.Debug("visitor touch skipped", zap.String("visitor_id", claims.VisitorID), zap.Error(err))
	}
	c.Set(visitorIDContextKey, claims.VisitorID)
	c.Next()
}

func visitorID(c *gin.Context) string {
	return c.GetString(visitorIDContextKey)
}
