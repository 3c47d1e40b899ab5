// Package http exposes newsletter publishing and reading over HTTP.
package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "github.com/allisson/newsletter/internal/errors"
	"github.com/allisson/newsletter/internal/httputil"
	idempotencyDomain "github.com/allisson/newsletter/internal/idempotency/domain"
	"github.com/allisson/newsletter/internal/newsletter/http/dto"
	"github.com/allisson/newsletter/internal/newsletter/usecase"
	operatorHTTP "github.com/allisson/newsletter/internal/operator/http"
)

// IdempotencyKeyHeader carries the caller's idempotency key.
const IdempotencyKeyHeader = "Idempotency-Key"

// DeliveryCounter reports queued deliveries of an issue.
type DeliveryCounter interface {
	PendingCount(ctx context.Context, issueID uuid.UUID) (int64, error)
}

// IssueHandler handles the newsletter endpoints.
type IssueHandler struct {
	publishUseCase usecase.PublishUseCase
	deliveries     DeliveryCounter
	retryAfter     int
	logger         *slog.Logger
}

// NewIssueHandler creates an IssueHandler. retryAfterSeconds is advertised
// when a concurrent request still owns the idempotency key.
func NewIssueHandler(
	publishUseCase usecase.PublishUseCase,
	deliveries DeliveryCounter,
	retryAfterSeconds int,
	logger *slog.Logger,
) *IssueHandler {
	if retryAfterSeconds < 1 {
		retryAfterSeconds = 1
	}
	return &IssueHandler{
		publishUseCase: publishUseCase,
		deliveries:     deliveries,
		retryAfter:     retryAfterSeconds,
		logger:         logger,
	}
}

// PublishHandler publishes an issue.
// POST /v1/newsletters
// Replies with the response saved for the idempotency key, byte for byte.
func (h *IssueHandler) PublishHandler(c *gin.Context) {
	operator, ok := operatorHTTP.GetOperator(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	var req dto.PublishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	key := c.GetHeader(IdempotencyKeyHeader)
	if key == "" {
		key = req.IdempotencyKey
	} else if req.IdempotencyKey != "" && req.IdempotencyKey != key {
		httputil.HandleValidationErrorGin(
			c,
			fmt.Errorf("idempotency key in header and body do not match"),
			h.logger,
		)
		return
	}

	response, err := h.publishUseCase.Publish(c.Request.Context(), operator.ID, key, req.Content())
	if err != nil {
		if apperrors.Is(err, idempotencyDomain.ErrClaimInProgress) {
			c.Header("Retry-After", strconv.Itoa(h.retryAfter))
		}
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	writeSavedResponse(c, response)
}

// GetHandler returns one issue.
// GET /v1/newsletters/:id
func (h *IssueHandler) GetHandler(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	issue, err := h.publishUseCase.Get(c.Request.Context(), id)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}
	c.JSON(http.StatusOK, dto.MapIssueToResponse(issue))
}

// ListHandler returns issues newest first.
// GET /v1/newsletters?offset=0&limit=20
func (h *IssueHandler) ListHandler(c *gin.Context) {
	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	issues, err := h.publishUseCase.List(c.Request.Context(), offset, limit)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}
	c.JSON(http.StatusOK, dto.MapIssuesToListResponse(issues))
}

// DeliveriesHandler reports how many deliveries of an issue are still queued.
// GET /v1/newsletters/:id/deliveries
func (h *IssueHandler) DeliveriesHandler(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	if _, err := h.publishUseCase.Get(c.Request.Context(), id); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	pending, err := h.deliveries.PendingCount(c.Request.Context(), id)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}
	c.JSON(http.StatusOK, dto.MapDeliveryStatus(id, pending))
}

func (h *IssueHandler) parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleBadRequestGin(c, fmt.Errorf("invalid issue id: %w", err), h.logger)
		return uuid.Nil, false
	}
	return id, true
}

// writeSavedResponse replays a stored response with its own status, headers
// and body.
func writeSavedResponse(c *gin.Context, response *idempotencyDomain.SavedResponse) {
	header := c.Writer.Header()
	for _, pair := range response.Headers {
		header.Add(pair.Name, string(pair.Value))
	}
	c.Status(response.StatusCode)
	_, _ = c.Writer.Write(response.Body)
}
