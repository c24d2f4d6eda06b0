package rest

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/absarburney3/aws-healthcare-disaster-recovery/internal/domain/errors"
	"github.com/absarburney3/aws-healthcare-disaster-recovery/internal/service/pipeline"
)

// maxRequestBody caps the accepted payload size. API Gateway enforces
// a similar limit in front of the Lambda entry point.
const maxRequestBody = 1 << 20

// Processor runs one raw payload through the intake pipeline.
type Processor interface {
	Process(ctx context.Context, payload []byte) (*pipeline.Receipt, error)
}

// Handler serves the record intake endpoint.
type Handler struct {
	processor Processor
}

func NewHandler(processor Processor) *Handler {
	return &Handler{processor: processor}
}

// handleProcessRecord accepts a raw healthcare record payload and maps
// the pipeline outcome to the fixed response envelopes.
func (h *Handler) handleProcessRecord(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err != nil {
		// An unreadable or oversized body flows through the pipeline
		// as an empty payload so the failure path still emits its
		// metric and mints an error id.
		slog.WarnContext(r.Context(), "reading request body failed", "error", err)
		body = nil
	}

	receipt, err := h.processor.Process(r.Context(), body)
	if err != nil {
		h.writeProcessError(w, r, err)
		return
	}

	recordProcessingOutcome(outcomeProcessed)
	w.Header().Set(HeaderProcessingID, receipt.ProcessingID)
	writeJSON(w, r, http.StatusOK, NewSuccessResponse(receipt))
}

// writeProcessError translates pipeline errors into response bodies.
// Compliance rejections carry the issue list; everything else gets the
// opaque failure envelope.
func (h *Handler) writeProcessError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *errors.AppError
	if !stderrors.As(err, &appErr) {
		appErr = errors.NewInternalError("unexpected processing failure").WithCause(err)
	}

	if appErr.Type == errors.ErrorTypeCompliance {
		recordProcessingOutcome(outcomeRejected)
		writeJSON(w, r, appErr.StatusCode, NewRejectionResponse(appErr))
		return
	}

	recordProcessingOutcome(outcomeFailed)
	writeJSON(w, r, errors.GetStatusCode(appErr), NewFailureResponse(appErr))
}

// writeJSON writes a response body with the fixed content type.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.ErrorContext(r.Context(), "encoding response failed", "error", err)
	}
}
