package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/imgres/internal/config"
	"github.com/phambaophuc/imgres/internal/http/middleware"
	"github.com/phambaophuc/imgres/internal/models"
	"go.uber.org/zap"
)

const archiveFilename = "resized.zip"

type ResizePipeline interface {
	Process(ctx context.Context, req *models.ResizeRequest, account *models.CreditAccount) ([]byte, error)
}

type ResizeHandler struct {
	decoder  ImageDecoder
	pipeline ResizePipeline
	logger   *zap.Logger
	config   *config.Config
}

func NewResizeHandler(
	decoder ImageDecoder,
	pipeline ResizePipeline,
	logger *zap.Logger,
	config *config.Config,
) *ResizeHandler {
	return &ResizeHandler{
		decoder:  decoder,
		pipeline: pipeline,
		logger:   logger,
		config:   config,
	}
}

// ResizeFree serves local resampling only. Upscaler variants are refused
// before anything is staged.
func (h *ResizeHandler) ResizeFree(c *gin.Context) {
	req, err := h.parseResizeRequest(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	if err := req.Validate(); err != nil {
		h.respondError(c, err)
		return
	}

	if req.HasAI() {
		h.respondError(c, fmt.Errorf("%w: use_ai requires an authenticated request", models.ErrInvalidInput))
		return
	}

	h.process(c, req, nil)
}

// Resize serves authenticated requests. Upscaler variants are charged to
// the token subject.
func (h *ResizeHandler) Resize(c *gin.Context) {
	identity := c.GetString(middleware.UserIDKey)
	if identity == "" {
		c.String(http.StatusUnauthorized, "invalid token")
		return
	}

	req, err := h.parseResizeRequest(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	if err := req.Validate(); err != nil {
		h.respondError(c, err)
		return
	}

	h.process(c, req, &models.CreditAccount{Identity: identity})
}

func (h *ResizeHandler) process(c *gin.Context, req *models.ResizeRequest, account *models.CreditAccount) {
	// provider calls are not aborted when the client disconnects
	ctx := context.WithoutCancel(c.Request.Context())

	data, err := h.pipeline.Process(ctx, req, account)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", archiveFilename))
	c.Data(http.StatusOK, "application/octet-stream", data)
}

func (h *ResizeHandler) respondError(c *gin.Context, err error) {
	_ = c.Error(err)

	switch {
	case errors.Is(err, models.ErrInvalidInput), errors.Is(err, models.ErrUnsupportedFormat):
		c.String(http.StatusBadRequest, err.Error())
	case errors.Is(err, models.ErrPayloadTooLarge):
		c.String(http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, models.ErrInsufficientCredit):
		c.String(http.StatusUnavailableForLegalReasons, "insufficient credit")
	default:
		h.logger.Error("Resize request failed", zap.Error(err))
		c.String(http.StatusInternalServerError, "internal server error")
	}
}
