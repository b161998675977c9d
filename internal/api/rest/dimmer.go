package rest

import (
	"errors"
	"io"
	"net/http"

	"github.com/KevinKickass/OpenDimmer/internal/dimmer"
	"github.com/KevinKickass/OpenDimmer/internal/settings"
	"github.com/KevinKickass/OpenDimmer/internal/types"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type statusResponse struct {
	DeviceName string `json:"device_name"`
	dimmer.Snapshot
}

// GET /api/v1/dimmer/status
func (s *Server) getDimmerStatus(c *gin.Context) {
	c.JSON(http.StatusOK, statusResponse{
		DeviceName: s.lm.DeviceName(),
		Snapshot:   s.lm.Controller().Snapshot(),
	})
}

// POST /api/v1/dimmer/brightness
func (s *Server) setBrightness(c *gin.Context) {
	var req struct {
		Value *int `json:"value" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(types.CodeBadRequest, "Invalid request body", err.Error()))
		return
	}

	ctrl := s.lm.Controller()
	ctrl.SetCommandedBrightness(*req.Value)

	snap := ctrl.Snapshot()
	c.JSON(http.StatusAccepted, gin.H{
		"message":   "Brightness command accepted",
		"commanded": snap.Commanded,
		"applied":   snap.Configuration.Mode == settings.ModeManual,
	})
}

// GET /api/v1/dimmer/config
func (s *Server) getConfig(c *gin.Context) {
	c.JSON(http.StatusOK, s.lm.Controller().Configuration())
}

// PATCH /api/v1/dimmer/config
func (s *Server) patchConfig(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(types.CodeBadRequest, "Failed to read request body", err.Error()))
		return
	}

	update, err := s.validator.ParseUpdate(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(types.CodeBadRequest, "Invalid configuration update", err.Error()))
		return
	}

	cfg, err := s.lm.Controller().UpdateConfiguration(c.Request.Context(), update)
	if err != nil {
		if errors.Is(err, dimmer.ErrInvalidUpdate) {
			c.JSON(http.StatusBadRequest, types.NewErrorResponse(types.CodeBadRequest, "Invalid configuration update", err.Error()))
			return
		}
		s.logger.Error("Configuration update failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.CodeInternal, "Failed to persist configuration", err.Error()))
		return
	}

	c.JSON(http.StatusOK, cfg)
}

// PUT /api/v1/dimmer/sensor
// Drives the simulated sensor input on host builds.
func (s *Server) setSimulatedSensor(c *gin.Context) {
	var req struct {
		Active *bool `json:"active" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(types.CodeBadRequest, "Invalid request body", err.Error()))
		return
	}

	board := s.lm.Board()
	if board == nil || board.Sensor == nil {
		c.JSON(http.StatusConflict, types.NewErrorResponse(types.CodeConflict, "No simulated sensor on this board", nil))
		return
	}

	board.Sensor.Set(*req.Active)
	s.logger.Info("Simulated sensor set", zap.Bool("active", *req.Active))

	c.JSON(http.StatusOK, gin.H{"active": *req.Active})
}
