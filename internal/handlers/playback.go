package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Vankh007/tv4u-sub002/internal/cache"
	"github.com/Vankh007/tv4u-sub002/internal/middleware"
	"github.com/Vankh007/tv4u-sub002/internal/models"
	"github.com/Vankh007/tv4u-sub002/internal/service"
)

type authorizeRequest struct {
	ContentID   string                   `json:"contentId" binding:"required"`
	ContentType string                   `json:"contentType" binding:"required"`
	Policy      *models.PolicyRecord     `json:"policy"`
	Source      *models.SourceDescriptor `json:"source"`
}

type capabilityResponse struct {
	Token     string                  `json:"token"`
	Source    models.SourceDescriptor `json:"source"`
	ExpiresAt time.Time               `json:"expiresAt"`
}

type decisionResponse struct {
	Granted    bool                `json:"granted"`
	Reason     string              `json:"reason,omitempty"`
	Capability *capabilityResponse `json:"capability,omitempty"`
}

// AuthorizePlayback decides grant/deny for one content item. The catalog
// normally supplies the access policy and source; trusted internal callers
// may inline both instead.
func (h HandlerSet) AuthorizePlayback(c *gin.Context) {
	var req authorizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var (
		policy models.AccessPolicy
		source models.SourceDescriptor
		err    error
	)

	switch {
	case req.Policy != nil:
		policy, err = req.Policy.Policy()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if req.Source != nil {
			source = *req.Source
		}
	case h.catalog != nil:
		policy, source, err = h.catalog.ContentAccess(c.Request.Context(), req.ContentID, req.ContentType)
		if err != nil {
			h.log.Error().Err(err).Str("content_id", req.ContentID).Msg("catalog lookup failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "catalog_unavailable"})
			return
		}
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "policy required"})
		return
	}

	decision, err := h.playback.Authorize(c.Request.Context(), service.PlaybackInput{
		AccountID:   middleware.AccountID(c),
		ContentID:   req.ContentID,
		ContentType: req.ContentType,
		Policy:      policy,
		Source:      source,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if decision.Reason == models.ReasonStoreUnavailable {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "store_unavailable"})
		return
	}

	resp := decisionResponse{
		Granted: decision.Granted,
		Reason:  string(decision.Reason),
	}
	if decision.Capability != nil {
		resp.Capability = &capabilityResponse{
			Token:     decision.Capability.Token,
			Source:    decision.Capability.Source,
			ExpiresAt: decision.Capability.ExpiresAt,
		}
	}

	c.JSON(http.StatusOK, resp)
}

// VerifyCapability resolves an issued playback token for the streaming
// edge. Expired or unknown tokens are indistinguishable: both 404.
func (h HandlerSet) VerifyCapability(c *gin.Context) {
	token := c.Param("token")

	grant, err := h.playback.Verify(c.Request.Context(), token)
	if err != nil {
		if errors.Is(err, cache.ErrGrantNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown_token"})
			return
		}
		h.log.Error().Err(err).Msg("grant lookup failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "store_unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"accountId":   grant.AccountID,
		"contentId":   grant.ContentID,
		"contentType": grant.ContentType,
		"source":      grant.Source,
		"expiresAt":   grant.ExpiresAt,
	})
}
