package handlers

import (
	"net/http"
	"strconv"

	"github.com/Juramirezlop/asamblea-voting-app/internal/services"

	"github.com/gin-gonic/gin"
)

type ResultsHandler struct {
	tallyService *services.TallyService
}

func NewResultsHandler(tallyService *services.TallyService) *ResultsHandler {
	return &ResultsHandler{tallyService: tallyService}
}

// Results godoc
// @Summary      Question results
// @Description  Per-option voter counts and coefficient-weighted percentages
// @Tags         results
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Question ID"
// @Success      200 {object} services.QuestionResults
// @Failure      404 {object} ErrorResponse
// @Router       /voting/results/{id} [get]
func (h *ResultsHandler) Results(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid question id"})
		return
	}

	results, err := h.tallyService.Results(uint(id))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}

// Aforo godoc
// @Summary      Attendance and quorum snapshot
// @Description  Present counts, coefficient coverage and whether quorum is met
// @Tags         results
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} services.Aforo
// @Router       /voting/aforo [get]
func (h *ResultsHandler) Aforo(c *gin.Context) {
	aforo, err := h.tallyService.Aforo()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, aforo)
}
