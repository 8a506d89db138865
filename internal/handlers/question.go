package handlers

import (
	"net/http"
	"strconv"

	"github.com/Juramirezlop/asamblea-voting-app/internal/services"
	"github.com/Juramirezlop/asamblea-voting-app/internal/ws"

	"github.com/gin-gonic/gin"
)

type QuestionHandler struct {
	questionService *services.QuestionService
	hub             *ws.Hub
}

func NewQuestionHandler(questionService *services.QuestionService, hub *ws.Hub) *QuestionHandler {
	return &QuestionHandler{questionService: questionService, hub: hub}
}

type ExtendTimeRequest struct {
	Minutes int `json:"minutes" binding:"required" example:"5"`
}

type ToggleResponse struct {
	ID     uint `json:"id" example:"1"`
	Closed bool `json:"closed" example:"true"`
}

func questionIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid question id"})
		return 0, false
	}
	return uint(id), true
}

// Create godoc
// @Summary      Create a question
// @Description  Create a yes/no or multi-option question, optionally timed; it opens immediately
// @Tags         questions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body services.QuestionInput true "Question data"
// @Success      201 {object} models.Question
// @Failure      400 {object} ErrorResponse
// @Router       /voting/questions [post]
func (h *QuestionHandler) Create(c *gin.Context) {
	var input services.QuestionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	question, err := h.questionService.Create(input)
	if err != nil {
		respondError(c, err)
		return
	}

	event := ws.Event{Type: "new_question", Data: question}
	h.hub.BroadcastAdmins(event)
	h.hub.BroadcastVoters(event)

	c.JSON(http.StatusCreated, question)
}

// ListActive godoc
// @Summary      List active questions
// @Description  Active questions with options, closed state and remaining time
// @Tags         questions
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} services.ActiveQuestion
// @Router       /voting/questions/active [get]
func (h *QuestionHandler) ListActive(c *gin.Context) {
	questions, err := h.questionService.ActiveQuestions()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, questions)
}

// Toggle godoc
// @Summary      Open or close a question
// @Description  Flip the question's closed flag
// @Tags         questions
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Question ID"
// @Success      200 {object} ToggleResponse
// @Failure      404 {object} ErrorResponse
// @Router       /voting/questions/{id}/toggle [put]
func (h *QuestionHandler) Toggle(c *gin.Context) {
	id, ok := questionIDParam(c)
	if !ok {
		return
	}

	closed, err := h.questionService.Toggle(id)
	if err != nil {
		respondError(c, err)
		return
	}

	event := ws.Event{Type: "question_toggled", Data: ToggleResponse{ID: id, Closed: closed}}
	h.hub.BroadcastAdmins(event)
	h.hub.BroadcastVoters(event)

	c.JSON(http.StatusOK, ToggleResponse{ID: id, Closed: closed})
}

// ExtendTime godoc
// @Summary      Extend a question's time limit
// @Description  Push the expiry back; an expired question is given a fresh window from now and reopened
// @Tags         questions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Question ID"
// @Param        request body ExtendTimeRequest true "Extension in minutes"
// @Success      200 {object} models.Question
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /voting/questions/{id}/extend-time [put]
func (h *QuestionHandler) ExtendTime(c *gin.Context) {
	id, ok := questionIDParam(c)
	if !ok {
		return
	}

	var req ExtendTimeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	question, err := h.questionService.ExtendTime(id, req.Minutes)
	if err != nil {
		respondError(c, err)
		return
	}

	event := ws.Event{Type: "time_extended", Data: question}
	h.hub.BroadcastAdmins(event)
	h.hub.BroadcastVoters(event)

	c.JSON(http.StatusOK, question)
}

// Delete godoc
// @Summary      Delete a question
// @Description  Remove the question together with its options and votes
// @Tags         questions
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Question ID"
// @Success      200 {object} MessageResponse
// @Failure      404 {object} ErrorResponse
// @Router       /voting/questions/{id} [delete]
func (h *QuestionHandler) Delete(c *gin.Context) {
	id, ok := questionIDParam(c)
	if !ok {
		return
	}

	if err := h.questionService.Delete(id); err != nil {
		respondError(c, err)
		return
	}

	event := ws.Event{Type: "question_deleted", Data: gin.H{"id": id}}
	h.hub.BroadcastAdmins(event)
	h.hub.BroadcastVoters(event)

	c.JSON(http.StatusOK, MessageResponse{Message: "question deleted"})
}
