package handlers

import (
	"net/http"

	"github.com/Juramirezlop/asamblea-voting-app/internal/middleware"
	"github.com/Juramirezlop/asamblea-voting-app/internal/services"
	"github.com/Juramirezlop/asamblea-voting-app/internal/ws"

	"github.com/gin-gonic/gin"
)

type VoteHandler struct {
	voteService *services.VoteService
	hub         *ws.Hub
}

func NewVoteHandler(voteService *services.VoteService, hub *ws.Hub) *VoteHandler {
	return &VoteHandler{voteService: voteService, hub: hub}
}

type SubmitVoteRequest struct {
	QuestionID uint     `json:"question_id" binding:"required" example:"1"`
	Answers    []string `json:"answers" binding:"required" example:"Sí"`
}

// Submit godoc
// @Summary      Cast a vote
// @Description  Submit the authenticated voter's selections for a question; one ballot per question
// @Tags         votes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body SubmitVoteRequest true "Vote data"
// @Success      201 {object} models.Vote
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /voting/vote [post]
func (h *VoteHandler) Submit(c *gin.Context) {
	code := c.GetString(middleware.CtxCode)

	var req SubmitVoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	vote, err := h.voteService.Submit(code, req.QuestionID, req.Answers)
	if err != nil {
		respondError(c, err)
		return
	}

	// Live updates are best effort: the vote is committed whether or
	// not any notification gets through.
	h.hub.BroadcastAdmins(ws.Event{Type: "vote_received", Data: gin.H{
		"question_id":      vote.QuestionID,
		"participant_code": vote.ParticipantCode,
		"answer":           vote.Answer,
	}})
	h.hub.SendToVoter(code, ws.Event{Type: "vote_confirmed", Data: gin.H{
		"question_id": vote.QuestionID,
		"answer":      vote.Answer,
	}})

	c.JSON(http.StatusCreated, vote)
}

// MyVotes godoc
// @Summary      List own votes
// @Description  The authenticated voter's ballots across all questions
// @Tags         votes
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} models.Vote
// @Router       /voting/my-votes [get]
func (h *VoteHandler) MyVotes(c *gin.Context) {
	code := c.GetString(middleware.CtxCode)

	votes, err := h.voteService.MyVotes(code)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, votes)
}
