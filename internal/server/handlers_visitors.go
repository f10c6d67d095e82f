package server

import (
	"errors"
	"net/http"

	"github.com/MarcoPoloResearchLab/daypoll/backend/internal/auth"
	"github.com/MarcoPoloResearchLab/daypoll/backend/internal/visitors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type visitorTokenPayload struct {
	VisitorID    string `json:"visitorId"`
	VisitorToken string `json:"visitorToken"`
	ExpiresIn    int64  `json:"expiresIn"`
}

func (h *httpHandler) handleIssueVisitor(c *gin.Context) {
	visitor, err := h.visitors.Register(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to register visitor", zap.Error(err))
		respondFailure(c, http.StatusInternalServerError, messageInternal, "visitor_register_failed")
		return
	}

	token, expiresIn, err := h.tokens.IssueVisitorToken(c.Request.Context(), visitor.VisitorID)
	if err != nil {
		h.logger.Error("failed to issue visitor token", zap.String("visitor_id", visitor.VisitorID), zap.Error(err))
		respondFailure(c, http.StatusInternalServerError, messageInternal, "token_issue_failed")
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.CookieName, token, int(expiresIn), "/", "", c.Request.TLS != nil, true)
	respondSuccess(c, http.StatusCreated, visitorTokenPayload{
		VisitorID:    visitor.VisitorID,
		VisitorToken: token,
		ExpiresIn:    expiresIn,
	}, "")
}

func (h *httpHandler) handleCurrentVisitor(c *gin.Context) {
	currentID := visitorID(c)
	if currentID == "" {
		respondFailure(c, http.StatusUnauthorized, "visitor token required", codeUnauthorized)
		return
	}
	visitor, err := h.visitors.Get(c.Request.Context(), currentID)
	if errors.Is(err, visitors.ErrVisitorNotFound) {
		respondFailure(c, http.StatusNotFound, "visitor not found", "visitor_not_found")
		return
	}
	if err != nil {
		h.logger.Error("failed to load visitor", zap.String("visitor_id", currentID), zap.Error(err))
		respondFailure(c, http.StatusInternalServerError, messageInternal, codeInternal)
		return
	}
	respondSuccess(c, http.StatusOK, visitor, "")
}
