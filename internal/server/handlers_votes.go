package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/MarcoPoloResearchLab/daypoll/backend/internal/metrics"
	"github.com/MarcoPoloResearchLab/daypoll/backend/internal/rooms"
	"github.com/gin-gonic/gin"
)

const maxTopDatesLimit = 60

var voteKinds = map[rooms.Outcome]string{
	rooms.OutcomeRegistered: metrics.VoteRegistered,
	rooms.OutcomeVoted:      metrics.VoteVoted,
}

type registerVotePayload struct {
	Nickname   string            `json:"nickname"`
	Selections map[string]string `json:"selections"`
}

type updateVotePayload struct {
	Selections map[string]string `json:"selections"`
}

func (h *httpHandler) handleGetVotes(c *gin.Context) {
	limit := 0
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > maxTopDatesLimit {
			respondInvalidRequest(c, "limit must be an integer between 1 and 60")
			return
		}
		limit = parsed
	}

	view, err := h.rooms.GetVotes(c.Request.Context(), c.Param("roomId"), visitorID(c), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, view, "")
}

func (h *httpHandler) handleRegisterVote(c *gin.Context) {
	var request registerVotePayload
	if err := c.ShouldBindJSON(&request); err != nil {
		respondInvalidRequest(c, "request body must be a JSON object")
		return
	}

	outcome, err := h.rooms.RegisterVote(c.Request.Context(), c.Param("roomId"), rooms.SubmitVoteRequest{
		Nickname:   request.Nickname,
		VisitorID:  visitorID(c),
		Selections: request.Selections,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	h.recordVote(voteKinds[outcome])
	respondSuccess(c, http.StatusCreated, nil, string(outcome))
}

func (h *httpHandler) handleUpdateVote(c *gin.Context) {
	var request updateVotePayload
	if err := c.ShouldBindJSON(&request); err != nil {
		respondInvalidRequest(c, "request body must be a JSON object")
		return
	}
	if request.Selections == nil {
		respondInvalidRequest(c, "selections are required")
		return
	}

	if err := h.rooms.UpdateVote(c.Request.Context(), c.Param("roomId"), visitorID(c), request.Selections); err != nil {
		respondError(c, err)
		return
	}
	h.recordVote(metrics.VoteUpdated)
	respondSuccess(c, http.StatusOK, nil, "updated")
}
