package handlers

import (
	"net/http"
	"strconv"

	"github.com/Juramirezlop/asamblea-voting-app/internal/services"
	"github.com/Juramirezlop/asamblea-voting-app/internal/ws"

	"github.com/gin-gonic/gin"
)

// AdminHandler groups the escape hatches: operations reserved for
// operators correcting mistakes during a live assembly.
type AdminHandler struct {
	participantService *services.ParticipantService
	voteService        *services.VoteService
	hub                *ws.Hub
}

func NewAdminHandler(participantService *services.ParticipantService, voteService *services.VoteService, hub *ws.Hub) *AdminHandler {
	return &AdminHandler{
		participantService: participantService,
		voteService:        voteService,
		hub:                hub,
	}
}

type EditVoteRequest struct {
	QuestionID      uint     `json:"question_id" binding:"required" example:"1"`
	ParticipantCode string   `json:"participant_code" binding:"required" example:"A101"`
	Answers         []string `json:"answers" binding:"required" example:"No"`
}

// RemoveAttendance godoc
// @Summary      Remove a participant's attendance
// @Description  Clear presence, delete the participant's votes and reset their voting state
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        code path string true "Participant code"
// @Success      200 {object} MessageResponse
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /voting/admin/participants/{code} [delete]
func (h *AdminHandler) RemoveAttendance(c *gin.Context) {
	code := c.Param("code")

	participant, err := h.participantService.RemoveAttendance(code)
	if err != nil {
		respondError(c, err)
		return
	}

	h.hub.BroadcastAdmins(ws.Event{Type: "attendance_removed", Data: gin.H{"code": participant.Code}})
	h.hub.SendToVoter(code, ws.Event{Type: "attendance_removed", Data: gin.H{"code": participant.Code}})

	c.JSON(http.StatusOK, MessageResponse{Message: "attendance removed"})
}

// EditVote godoc
// @Summary      Edit a participant's vote
// @Description  Replace the recorded selections for one participant on one question
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body EditVoteRequest true "Corrected vote"
// @Success      200 {object} models.Vote
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /voting/admin/votes [put]
func (h *AdminHandler) EditVote(c *gin.Context) {
	var req EditVoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	vote, err := h.voteService.EditVote(req.QuestionID, req.ParticipantCode, req.Answers)
	if err != nil {
		respondError(c, err)
		return
	}

	h.hub.BroadcastAdmins(ws.Event{Type: "vote_edited", Data: gin.H{
		"question_id":      vote.QuestionID,
		"participant_code": vote.ParticipantCode,
		"answer":           vote.Answer,
	}})

	c.JSON(http.StatusOK, vote)
}

// ClearVote godoc
// @Summary      Clear a participant's vote
// @Description  Delete one participant's ballot on a question so they can vote again
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        question_id path int true "Question ID"
// @Param        code path string true "Participant code"
// @Success      200 {object} MessageResponse
// @Failure      404 {object} ErrorResponse
// @Router       /voting/admin/votes/{question_id}/{code} [delete]
func (h *AdminHandler) ClearVote(c *gin.Context) {
	questionID, err := strconv.ParseUint(c.Param("question_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid question id"})
		return
	}
	code := c.Param("code")

	if err := h.voteService.ClearVote(uint(questionID), code); err != nil {
		respondError(c, err)
		return
	}

	h.hub.BroadcastAdmins(ws.Event{Type: "vote_cleared", Data: gin.H{
		"question_id":      questionID,
		"participant_code": code,
	}})
	h.hub.SendToVoter(code, ws.Event{Type: "vote_cleared", Data: gin.H{
		"question_id": questionID,
	}})

	c.JSON(http.StatusOK, MessageResponse{Message: "vote cleared"})
}

// Reset godoc
// @Summary      Reset the assembly
// @Description  Delete all votes, questions, participants and settings
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} MessageResponse
// @Router       /voting/admin/reset [delete]
func (h *AdminHandler) Reset(c *gin.Context) {
	if err := h.participantService.Reset(); err != nil {
		respondError(c, err)
		return
	}

	event := ws.Event{Type: "data_reset", Data: gin.H{}}
	h.hub.BroadcastAdmins(event)
	h.hub.BroadcastVoters(event)

	c.JSON(http.StatusOK, MessageResponse{Message: "assembly data reset"})
}
