package handlers

import (
	"net/http"

	"github.com/Juramirezlop/asamblea-voting-app/internal/models"
	"github.com/Juramirezlop/asamblea-voting-app/internal/services"
	"github.com/Juramirezlop/asamblea-voting-app/internal/ws"

	"github.com/gin-gonic/gin"
)

type ParticipantHandler struct {
	participantService *services.ParticipantService
	tallyService       *services.TallyService
	authService        *services.AuthService
	hub                *ws.Hub
}

func NewParticipantHandler(participantService *services.ParticipantService, tallyService *services.TallyService, authService *services.AuthService, hub *ws.Hub) *ParticipantHandler {
	return &ParticipantHandler{
		participantService: participantService,
		tallyService:       tallyService,
		authService:        authService,
		hub:                hub,
	}
}

type BulkImportRequest struct {
	Participants map[string]services.BulkEntry `json:"participants" binding:"required"`
}

type BulkImportResponse struct {
	Imported int `json:"imported" example:"120"`
}

type RegisterAttendanceRequest struct {
	Code    string `json:"code" binding:"required" example:"A101"`
	IsPower bool   `json:"is_power" example:"false"`
}

type RegisterAttendanceResponse struct {
	Token       string              `json:"token" example:"eyJhbGciOiJIUzI1NiIs..."`
	Participant *models.Participant `json:"participant"`
}

// List godoc
// @Summary      List the roster
// @Description  All registered participants with attendance and voting state
// @Tags         participants
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} models.Participant
// @Router       /participants [get]
func (h *ParticipantHandler) List(c *gin.Context) {
	participants, err := h.participantService.List()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, participants)
}

// BulkImport godoc
// @Summary      Bulk import the roster
// @Description  Upsert participants keyed by code; existing codes are overwritten
// @Tags         participants
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body BulkImportRequest true "Roster entries keyed by code"
// @Success      200 {object} BulkImportResponse
// @Failure      400 {object} ErrorResponse
// @Router       /participants/bulk [post]
func (h *ParticipantHandler) BulkImport(c *gin.Context) {
	var req BulkImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	imported, err := h.participantService.BulkImport(req.Participants)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, BulkImportResponse{Imported: imported})
}

// RegisterAttendance godoc
// @Summary      Register attendance
// @Description  Mark a participant present by code and issue their voter token; this is the voter's entry point
// @Tags         participants
// @Accept       json
// @Produce      json
// @Param        request body RegisterAttendanceRequest true "Attendance data"
// @Success      200 {object} RegisterAttendanceResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /voting/register-attendance [post]
func (h *ParticipantHandler) RegisterAttendance(c *gin.Context) {
	var req RegisterAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	participant, err := h.participantService.RegisterAttendance(req.Code, req.IsPower)
	if err != nil {
		respondError(c, err)
		return
	}

	token, err := h.authService.GenerateToken(participant.Code, models.RoleVoter)
	if err != nil {
		respondError(c, err)
		return
	}

	h.hub.BroadcastAdmins(ws.Event{Type: "attendance_registered", Data: participant})

	c.JSON(http.StatusOK, RegisterAttendanceResponse{Token: token, Participant: participant})
}

// AttendanceReport godoc
// @Summary      Attendance report
// @Description  Full assembly snapshot: aforo, roster and per-question results
// @Tags         participants
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} services.AttendanceReport
// @Router       /participants/attendance-report [get]
func (h *ParticipantHandler) AttendanceReport(c *gin.Context) {
	report, err := h.tallyService.AttendanceReport()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
