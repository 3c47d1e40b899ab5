// Package http exposes idempotency key administration over HTTP.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/allisson/newsletter/internal/errors"
	"github.com/allisson/newsletter/internal/httputil"
	"github.com/allisson/newsletter/internal/idempotency/domain"
	"github.com/allisson/newsletter/internal/idempotency/http/dto"
	"github.com/allisson/newsletter/internal/idempotency/usecase"
	operatorHTTP "github.com/allisson/newsletter/internal/operator/http"
	customValidation "github.com/allisson/newsletter/internal/validation"
)

// KeyHandler lets an operator inspect and revoke its idempotency keys.
type KeyHandler struct {
	keyUseCase usecase.KeyUseCase
	logger     *slog.Logger
}

// NewKeyHandler creates a KeyHandler.
func NewKeyHandler(keyUseCase usecase.KeyUseCase, logger *slog.Logger) *KeyHandler {
	return &KeyHandler{keyUseCase: keyUseCase, logger: logger}
}

// ListHandler lists the operator's keys, newest first.
// GET /v1/idempotency-keys?offset=0&limit=20
func (h *KeyHandler) ListHandler(c *gin.Context) {
	operator, ok := operatorHTTP.GetOperator(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	records, err := h.keyUseCase.List(c.Request.Context(), operator.ID, offset, limit)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}
	c.JSON(http.StatusOK, dto.MapRecordsToListResponse(records))
}

// SetValidityHandler revokes or restores a key.
// PATCH /v1/idempotency-keys/:key
func (h *KeyHandler) SetValidityHandler(c *gin.Context) {
	operator, ok := operatorHTTP.GetOperator(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	key, err := domain.ParseKey(c.Param("key"))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	var req dto.SetValidityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	if err := h.keyUseCase.SetValidity(c.Request.Context(), operator.ID, key, *req.Valid); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}
	c.Status(http.StatusNoContent)
}
