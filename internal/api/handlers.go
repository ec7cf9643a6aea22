// Package api exposes the linking engine over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jonesrussell/linkengine/internal/domain"
	"github.com/jonesrussell/linkengine/internal/engine"
	"github.com/jonesrussell/linkengine/internal/logger"
	"github.com/jonesrussell/linkengine/internal/verifier"
)

// Relinker rebuilds the link plan of one item.
type Relinker interface {
	OnContentChanged(ctx context.Context, itemID string) (*engine.Result, error)
}

// LinkStore serves stored links and accepts manually pinned ones.
type LinkStore interface {
	ListBySource(ctx context.Context, sourceID string) ([]domain.InternalLink, error)
	ListExternalBySource(ctx context.Context, sourceID string) ([]domain.ExternalLink, error)
	InsertInternal(ctx context.Context, link *domain.InternalLink) error
}

// DiscoveryCache invalidates cached discovery results.
type DiscoveryCache interface {
	Invalidate(ctx context.Context, theme, country string) error
}

// AuthorityReader serves committed authority scores.
type AuthorityReader interface {
	AuthorityOf(itemID string) float64
	InDegree(itemID string) int
}

// VerifyRunner runs one verification pass.
type VerifyRunner interface {
	Run(ctx context.Context) (*verifier.Summary, error)
}

// Handlers provides HTTP handlers for the API
type Handlers struct {
	relinker  Relinker
	links     LinkStore
	authority AuthorityReader
	verify    VerifyRunner
	discovery DiscoveryCache
	logger    logger.Logger
	version   string
}

// NewHandlers creates a new handlers instance
func NewHandlers(relinker Relinker, links LinkStore, authority AuthorityReader,
	verify VerifyRunner, discovery DiscoveryCache, log logger.Logger, version string) *Handlers {
	return &Handlers{
		relinker:  relinker,
		links:     links,
		authority: authority,
		verify:    verify,
		discovery: discovery,
		logger:    log,
		version:   version,
	}
}

// Relink handles POST /api/v1/items/:id/relink
func (h *Handlers) Relink(c *gin.Context) {
	itemID := c.Param("id")

	result, err := h.relinker.OnContentChanged(c.Request.Context(), itemID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "content item not found"})
			return
		}
		h.logger.Error("Relink failed",
			logger.Error(err),
			logger.String("item_id", itemID),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "relink failed"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetLinks handles GET /api/v1/items/:id/links
func (h *Handlers) GetLinks(c *gin.Context) {
	itemID := c.Param("id")

	internal, err := h.links.ListBySource(c.Request.Context(), itemID)
	if err != nil {
		h.logger.Error("Failed to list links",
			logger.Error(err),
			logger.String("item_id", itemID),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve links"})
		return
	}

	external, err := h.links.ListExternalBySource(c.Request.Context(), itemID)
	if err != nil {
		h.logger.Error("Failed to list external links",
			logger.Error(err),
			logger.String("item_id", itemID),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve links"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"item_id":        itemID,
		"internal_links": internal,
		"external_links": external,
	})
}

type pinLinkRequest struct {
	TargetID       string `json:"target_id"        binding:"required"`
	AnchorText     string `json:"anchor_text"      binding:"required"`
	AnchorCategory string `json:"anchor_category"  binding:"required"`
	ParagraphIndex int    `json:"paragraph_index"`
}

// PinLink handles POST /api/v1/items/:id/links. A pinned link enters the
// graph on the next relink of the source item.
func (h *Handlers) PinLink(c *gin.Context) {
	itemID := c.Param("id")

	var req pinLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	category := domain.AnchorCategory(req.AnchorCategory)
	if !category.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown anchor category"})
		return
	}

	link := &domain.InternalLink{
		ID:             uuid.New(),
		SourceID:       itemID,
		TargetID:       req.TargetID,
		AnchorText:     req.AnchorText,
		AnchorCategory: category,
		ParagraphIndex: req.ParagraphIndex,
		CreatedAt:      time.Now().UTC(),
	}
	if err := h.links.InsertInternal(c.Request.Context(), link); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			c.JSON(http.StatusConflict, gin.H{"error": "link already exists"})
			return
		}
		h.logger.Error("Failed to pin link",
			logger.Error(err),
			logger.String("item_id", itemID),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to pin link"})
		return
	}

	c.JSON(http.StatusCreated, link)
}

// InvalidateDiscovery handles DELETE /api/v1/discovery/cache
func (h *Handlers) InvalidateDiscovery(c *gin.Context) {
	theme := c.Query("theme")
	country := c.Query("country")
	if theme == "" || country == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "theme and country are required"})
		return
	}

	if err := h.discovery.Invalidate(c.Request.Context(), theme, country); err != nil {
		h.logger.Error("Failed to invalidate discovery cache",
			logger.Error(err),
			logger.String("theme", theme),
			logger.String("country", country),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to invalidate cache"})
		return
	}

	c.Status(http.StatusNoContent)
}

// GetAuthority handles GET /api/v1/items/:id/authority
func (h *Handlers) GetAuthority(c *gin.Context) {
	itemID := c.Param("id")

	c.JSON(http.StatusOK, gin.H{
		"item_id":        itemID,
		"score":          h.authority.AuthorityOf(itemID),
		"incoming_links": h.authority.InDegree(itemID),
	})
}

// Verify handles POST /api/v1/verify
func (h *Handlers) Verify(c *gin.Context) {
	summary, err := h.verify.Run(c.Request.Context())
	if err != nil {
		h.logger.Error("Verification run failed", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "verification failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"checked":       summary.Checked,
		"invalid":       summary.Invalid,
		"alerted_items": summary.Alerted,
	})
}

// Health handles GET /health
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "linkengine",
		"version": h.version,
	})
}
