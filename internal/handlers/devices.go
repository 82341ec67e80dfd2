package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Vankh007/tv4u-sub002/internal/middleware"
	"github.com/Vankh007/tv4u-sub002/internal/models"
	"github.com/Vankh007/tv4u-sub002/internal/service"
)

type heartbeatRequest struct {
	DeviceID    string `json:"deviceId"`
	DeviceLabel string `json:"deviceLabel"`
	DeviceClass string `json:"deviceClass"`
	// Optional content reference: when the item being played carries a
	// rental device cap, it overrides the plan cap for this heartbeat.
	ContentID        string `json:"contentId"`
	ContentType      string `json:"contentType"`
	RentalMaxDevices int    `json:"rentalMaxDevices"`
}

type deviceSessionResponse struct {
	DeviceID     string    `json:"deviceId"`
	DeviceLabel  string    `json:"deviceLabel"`
	DeviceClass  string    `json:"deviceClass"`
	CreatedAt    time.Time `json:"createdAt"`
	LastActiveAt time.Time `json:"lastActiveAt"`
	Current      bool      `json:"current"`
}

type heartbeatResponse struct {
	Admitted       bool                    `json:"admitted"`
	Reason         string                  `json:"reason,omitempty"`
	DeviceID       string                  `json:"deviceId"`
	MaxDevices     int                     `json:"maxDevices"`
	ActiveSessions []deviceSessionResponse `json:"activeSessions"`
}

func (h HandlerSet) Heartbeat(c *gin.Context) {
	var req heartbeatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	deviceID := req.DeviceID
	if deviceID == "" {
		deviceID = middleware.DeviceID(c)
	}
	if deviceID == "" {
		// First contact from a client with no stored fingerprint: mint one
		// and hand it back for the client to persist.
		deviceID = uuid.NewString()
	}

	override := req.RentalMaxDevices
	if override == 0 && req.ContentID != "" && h.catalog != nil {
		policy, _, err := h.catalog.ContentAccess(c.Request.Context(), req.ContentID, req.ContentType)
		if err != nil {
			h.log.Warn().Err(err).Str("content_id", req.ContentID).Msg("catalog lookup failed, using plan device cap")
		} else if rent, ok := policy.(models.RentAccess); ok {
			override = rent.MaxDevices
		}
	}

	result, err := h.leases.Heartbeat(c.Request.Context(), service.HeartbeatInput{
		AccountID:          middleware.AccountID(c),
		DeviceID:           deviceID,
		DeviceLabel:        req.DeviceLabel,
		DeviceClass:        models.DeviceClass(req.DeviceClass),
		MaxDevicesOverride: override,
	})
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "store_unavailable"})
		return
	}

	resp := heartbeatResponse{
		Admitted:       result.Admitted,
		DeviceID:       deviceID,
		MaxDevices:     result.MaxDevices,
		ActiveSessions: sessionResponses(result.Active, deviceID),
	}
	if !result.Admitted {
		resp.Reason = string(models.ReasonDeviceLimitReached)
	}

	c.JSON(http.StatusOK, resp)
}

func (h HandlerSet) ListDevices(c *gin.Context) {
	sessions, err := h.leases.ListActiveSessions(c.Request.Context(), middleware.AccountID(c))
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "store_unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sessions": sessionResponses(sessions, middleware.DeviceID(c)),
	})
}

func (h HandlerSet) SignOutDevice(c *gin.Context) {
	deviceID := c.Param("deviceId")
	if deviceID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "deviceId required"})
		return
	}

	if err := h.leases.SignOutDevice(c.Request.Context(), middleware.AccountID(c), deviceID); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "store_unavailable"})
		return
	}

	c.Status(http.StatusNoContent)
}

type signOutOthersRequest struct {
	KeepDeviceID string `json:"keepDeviceId"`
}

func (h HandlerSet) SignOutOtherDevices(c *gin.Context) {
	var req signOutOthersRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	keep := req.KeepDeviceID
	if keep == "" {
		keep = middleware.DeviceID(c)
	}
	if keep == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "keepDeviceId required"})
		return
	}

	removed, err := h.leases.SignOutAllOtherDevices(c.Request.Context(), middleware.AccountID(c), keep)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "store_unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

func sessionResponses(sessions []models.DeviceSession, currentDeviceID string) []deviceSessionResponse {
	resp := make([]deviceSessionResponse, 0, len(sessions))
	for _, sess := range sessions {
		resp = append(resp, deviceSessionResponse{
			DeviceID:     sess.DeviceID,
			DeviceLabel:  sess.DeviceLabel,
			DeviceClass:  string(sess.DeviceClass),
			CreatedAt:    sess.CreatedAt,
			LastActiveAt: sess.LastActiveAt,
			Current:      sess.DeviceID == currentDeviceID,
		})
	}
	return resp
}
