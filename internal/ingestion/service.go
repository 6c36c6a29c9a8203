package ingestion

import (
	v1 "github.com/aevon-lab/tally/internal/api/v1"
	"github.com/gin-gonic/gin"
)

// EventRouter hands an event to the accumulators of its source.
type EventRouter interface {
	RouteEvent(ev v1.Event) error
}

type Service struct {
	router           EventRouter
	maxBodySizeBytes int
	maxBatchSize     int
}

func NewService(router EventRouter, maxBodySizeMB, maxBatchSize int) *Service {
	if router == nil {
		panic("ingestion: router must not be nil")
	}
	if maxBodySizeMB <= 0 {
		maxBodySizeMB = 1 // default to 1MB
	}
	if maxBatchSize <= 0 {
		maxBatchSize = 1000
	}
	return &Service{
		router:           router,
		maxBodySizeBytes: maxBodySizeMB * 1024 * 1024,
		maxBatchSize:     maxBatchSize,
	}
}

// RegisterRoutes registers the ingestion service routes.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.POST("/v1/events", s.IngestHandler)
}
