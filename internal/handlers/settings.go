package handlers

import (
	"net/http"
	"strings"

	"github.com/Juramirezlop/asamblea-voting-app/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SettingsHandler struct {
	db *gorm.DB
}

func NewSettingsHandler(db *gorm.DB) *SettingsHandler {
	return &SettingsHandler{db: db}
}

type SettingsResponse struct {
	AssemblyName string `json:"assembly_name" example:"Conjunto Torres del Parque"`
}

type UpdateSettingsRequest struct {
	AssemblyName string `json:"assembly_name" binding:"required" example:"Conjunto Torres del Parque"`
}

// GetSettings godoc
// @Summary      Get assembly settings
// @Description  The display name shown on voter and admin screens
// @Tags         settings
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} SettingsResponse
// @Router       /settings [get]
func (h *SettingsHandler) GetSettings(c *gin.Context) {
	var entry models.ConfigEntry
	if err := h.db.First(&entry, "key = ?", models.ConfigKeyAssemblyName).Error; err != nil {
		c.JSON(http.StatusOK, SettingsResponse{AssemblyName: ""})
		return
	}
	c.JSON(http.StatusOK, SettingsResponse{AssemblyName: entry.Value})
}

// UpdateSettings godoc
// @Summary      Update assembly settings
// @Description  Set the assembly display name
// @Tags         settings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body UpdateSettingsRequest true "Settings data"
// @Success      200 {object} SettingsResponse
// @Failure      400 {object} ErrorResponse
// @Router       /settings [put]
func (h *SettingsHandler) UpdateSettings(c *gin.Context) {
	var req UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	name := strings.TrimSpace(req.AssemblyName)
	entry := models.ConfigEntry{Key: models.ConfigKeyAssemblyName, Value: name}
	if err := h.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		UpdateAll: true,
	}).Create(&entry).Error; err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, SettingsResponse{AssemblyName: name})
}
