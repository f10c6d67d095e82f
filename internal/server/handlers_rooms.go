package server

import (
	"net/http"

	"github.com/MarcoPoloResearchLab/daypoll/backend/internal/rooms"
	"github.com/gin-gonic/gin"
)

type createRoomPayload struct {
	Title           string `json:"title"`
	HostNickname    string `json:"hostNickname"`
	StartDate       string `json:"startDate"`
	EndDate         string `json:"endDate"`
	MaxParticipants int    `json:"maxParticipants"`
	Deadline        string `json:"deadline"`
}

type editRoomPayload struct {
	Title           *string `json:"title"`
	StartDate       *string `json:"startDate"`
	EndDate         *string `json:"endDate"`
	MaxParticipants *int    `json:"maxParticipants"`
	Deadline        *string `json:"deadline"`
}

type confirmDatePayload struct {
	ConfirmedDate string `json:"confirmedDate"`
}

type roomStatusPayload struct {
	RoomID        string       `json:"roomId"`
	Status        rooms.Status `json:"status"`
	ConfirmedDate string       `json:"confirmedDate,omitempty"`
}

func (h *httpHandler) handleCreateRoom(c *gin.Context) {
	var request createRoomPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		respondInvalidRequest(c, "request body must be a JSON object")
		return
	}

	created, err := h.rooms.CreateRoom(c.Request.Context(), rooms.CreateRoomRequest{
		Title:           request.Title,
		HostNickname:    request.HostNickname,
		HostVisitorID:   visitorID(c),
		StartDate:       request.StartDate,
		EndDate:         request.EndDate,
		MaxParticipants: request.MaxParticipants,
		Deadline:        request.Deadline,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	if h.metrics != nil {
		h.metrics.RoomCreated()
	}
	respondSuccess(c, http.StatusCreated, created, "")
}

func (h *httpHandler) handleGetRoom(c *gin.Context) {
	snapshot, err := h.rooms.GetRoom(c.Request.Context(), c.Param("roomId"), visitorID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, snapshot, "")
}

func (h *httpHandler) handleEditRoom(c *gin.Context) {
	var request editRoomPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		respondInvalidRequest(c, "request body must be a JSON object")
		return
	}

	roomID := c.Param("roomId")
	err := h.rooms.EditRoom(c.Request.Context(), roomID, visitorID(c), rooms.EditRoomRequest{
		Title:           request.Title,
		StartDate:       request.StartDate,
		EndDate:         request.EndDate,
		MaxParticipants: request.MaxParticipants,
		Deadline:        request.Deadline,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	snapshot, err := h.rooms.GetRoom(c.Request.Context(), roomID, visitorID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, snapshot, "updated")
}

func (h *httpHandler) handleCloseVoting(c *gin.Context) {
	roomID := c.Param("roomId")
	if err := h.rooms.CloseVoting(c.Request.Context(), roomID, visitorID(c)); err != nil {
		respondError(c, err)
		return
	}
	h.recordTransition(rooms.StatusClosed)
	respondSuccess(c, http.StatusOK, roomStatusPayload{RoomID: roomID, Status: rooms.StatusClosed}, "closed")
}

func (h *httpHandler) handleConfirmDate(c *gin.Context) {
	var request confirmDatePayload
	if err := c.ShouldBindJSON(&request); err != nil {
		respondInvalidRequest(c, "request body must be a JSON object")
		return
	}

	roomID := c.Param("roomId")
	confirmed, err := h.rooms.ConfirmDate(c.Request.Context(), roomID, visitorID(c), request.ConfirmedDate)
	if err != nil {
		respondError(c, err)
		return
	}
	h.recordTransition(rooms.StatusConfirmed)
	respondSuccess(c, http.StatusOK, roomStatusPayload{
		RoomID:        roomID,
		Status:        rooms.StatusConfirmed,
		ConfirmedDate: confirmed.String(),
	}, "confirmed")
}

func (h *httpHandler) handleCalendar(c *gin.Context) {
	view, err := h.rooms.RenderCalendar(c.Request.Context(), c.Param("roomId"), visitorID(c), c.Query("month"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, view, "")
}

func (h *httpHandler) recordTransition(status rooms.Status) {
	if h.metrics != nil {
		h.metrics.RoomTransitioned(string(status))
	}
}

func (h *httpHandler) recordVote(kind string) {
	if h.metrics != nil {
		h.metrics.VoteSubmitted(kind)
	}
}
