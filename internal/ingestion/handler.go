package ingestion

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/aevon-lab/tally/internal/aggregation"
	v1 "github.com/aevon-lab/tally/internal/api/v1"
	httperr "github.com/aevon-lab/tally/internal/core/errors"
	"github.com/gin-gonic/gin"
)

const (
	msgReadBodyFailed = "Failed to read request body"
	msgInvalidJSON    = "Invalid JSON body"
	msgEmptyBatch     = "Event batch is empty"
	msgBatchTooLarge  = "Event batch exceeds maximum allowed size"
)

// ingestionError carries the structured HTTP error shape from a helper back to the orchestrator.
// Helpers return this instead of writing to gin.Context directly, keeping them decoupled from HTTP.
type ingestionError struct {
	statusCode int
	errorType  string
	message    string
	details    interface{}
}

func (e *ingestionError) Error() string {
	return e.message
}

// IngestResponse reports how many events of a request were handed to the engine.
type IngestResponse struct {
	Status   string         `json:"status"`
	Accepted int            `json:"accepted"`
	Dropped  int            `json:"dropped"`
	Errors   []DroppedEvent `json:"errors,omitempty"`
}

// DroppedEvent explains why one event of a batch was not routed.
type DroppedEvent struct {
	Index     int    `json:"index"`
	SourceID  string `json:"source_id,omitempty"`
	ErrorType string `json:"error_type"`
	Message   string `json:"message"`
}

// IngestHandler handles HTTP POST requests carrying one event object or an
// array of them. A single event that cannot be routed is rejected with an
// error body; in a batch such events are dropped and reported per index.
func (s *Service) IngestHandler(c *gin.Context) {
	events, batch, payloadSize, ierr := s.parseEvents(c)
	if ierr != nil {
		writeError(c, ierr)
		return
	}

	resp := IngestResponse{Status: "accepted"}
	for i, evt := range events {
		dropped := s.routeEvent(i, evt)
		if dropped == nil {
			resp.Accepted++
			continue
		}
		if !batch {
			writeError(c, singleEventError(dropped))
			return
		}
		resp.Dropped++
		resp.Errors = append(resp.Errors, *dropped)
	}

	slog.Debug("[Ingestion] Events received",
		"accepted", resp.Accepted,
		"dropped", resp.Dropped,
		"batch", batch,
		"payload_size", payloadSize)

	// Routing only enqueues; accumulation happens on the engine's queue.
	c.JSON(http.StatusAccepted, resp)
}

// parseEvents reads the raw request body and binds it into one or more events.
// Returns the events, whether the body was an array, and the raw payload size.
func (s *Service) parseEvents(c *gin.Context) ([]v1.Event, bool, int, *ingestionError) {
	// Enforce maximum body size to prevent OOM attacks
	maxBytes := int64(s.maxBodySizeBytes)
	limitedBody := io.LimitReader(c.Request.Body, maxBytes+1) // +1 to detect oversized requests

	bodyBytes, err := io.ReadAll(limitedBody)
	if err != nil {
		slog.Error("[Ingestion] Failed to read request body", "error", err)
		return nil, false, 0, &ingestionError{
			statusCode: http.StatusInternalServerError,
			errorType:  httperr.HttpInternalError,
			message:    msgReadBodyFailed,
		}
	}

	if int64(len(bodyBytes)) > maxBytes {
		slog.Warn("[Ingestion] Request body exceeds maximum size", "size", len(bodyBytes), "max", maxBytes)
		return nil, false, len(bodyBytes), &ingestionError{
			statusCode: http.StatusRequestEntityTooLarge,
			errorType:  httperr.HttpInvalidJsonError,
			message:    "Request body exceeds maximum allowed size",
			details: map[string]interface{}{
				"max_size_mb": maxBytes / (1024 * 1024),
			},
		}
	}

	trimmed := bytes.TrimSpace(bodyBytes)
	batch := len(trimmed) > 0 && trimmed[0] == '['

	var events []v1.Event
	if batch {
		err = json.Unmarshal(trimmed, &events)
	} else {
		var evt v1.Event
		err = json.Unmarshal(trimmed, &evt)
		events = []v1.Event{evt}
	}
	if err != nil {
		slog.Warn("[Ingestion] Invalid JSON body received", "error", err, "payload_size", len(bodyBytes))
		return nil, batch, len(bodyBytes), &ingestionError{
			statusCode: http.StatusBadRequest,
			errorType:  httperr.HttpInvalidJsonError,
			message:    msgInvalidJSON,
		}
	}

	switch {
	case len(events) == 0:
		return nil, batch, len(bodyBytes), &ingestionError{
			statusCode: http.StatusBadRequest,
			errorType:  httperr.HttpValidationError,
			message:    msgEmptyBatch,
		}
	case len(events) > s.maxBatchSize:
		return nil, batch, len(bodyBytes), &ingestionError{
			statusCode: http.StatusRequestEntityTooLarge,
			errorType:  httperr.HttpValidationError,
			message:    msgBatchTooLarge,
			details:    map[string]interface{}{"max_batch_size": s.maxBatchSize},
		}
	}
	return events, batch, len(bodyBytes), nil
}

// routeEvent validates one event and routes it. A nil result means accepted.
func (s *Service) routeEvent(index int, evt v1.Event) *DroppedEvent {
	if err := evt.Validate(); err != nil {
		slog.Warn("[Ingestion] Envelope validation failed", "index", index, "error", err)
		return &DroppedEvent{Index: index, ErrorType: httperr.HttpValidationError, Message: err.Error()}
	}

	err := s.router.RouteEvent(evt)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, aggregation.ErrUnknownSource):
		return &DroppedEvent{Index: index, SourceID: evt.SourceID, ErrorType: httperr.HttpUnknownSourceError, Message: err.Error()}
	case errors.Is(err, aggregation.ErrInvalidValue):
		return &DroppedEvent{Index: index, SourceID: evt.SourceID, ErrorType: httperr.HttpValidationError, Message: err.Error()}
	}
	slog.Error("[Ingestion] Failed to route event", "source_id", evt.SourceID, "error", err)
	return &DroppedEvent{Index: index, SourceID: evt.SourceID, ErrorType: httperr.HttpInternalError, Message: err.Error()}
}

func singleEventError(d *DroppedEvent) *ingestionError {
	status := http.StatusBadRequest
	switch d.ErrorType {
	case httperr.HttpUnknownSourceError:
		status = http.StatusNotFound
	case httperr.HttpInternalError:
		status = http.StatusInternalServerError
	}
	return &ingestionError{statusCode: status, errorType: d.ErrorType, message: d.Message}
}

// writeError serializes an ingestionError as the JSON HTTP response.
func writeError(c *gin.Context, err *ingestionError) {
	c.JSON(err.statusCode, httperr.ErrorResponse{
		ErrorType: err.errorType,
		Message:   err.message,
		Details:   err.details,
	})
}
