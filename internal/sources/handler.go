package sources

import (
	"errors"
	"log/slog"
	"net/http"

	v1 "github.com/aevon-lab/tally/internal/api/v1"
	httperr "github.com/aevon-lab/tally/internal/core/errors"
	"github.com/aevon-lab/tally/internal/registry"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers all source and group routes on the given router.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.GET("/v1/sources", s.HandleList)
	r.GET("/v1/sources/:id", s.HandleGet)
	r.PUT("/v1/sources/:id", s.HandlePut)
	r.DELETE("/v1/sources/:id", s.HandleDelete)
	r.GET("/v1/sources/:id/states", s.HandleSourceStates)

	r.GET("/v1/groups", s.HandleGroups)
	r.GET("/v1/groups/:id/states", s.HandleGroupStates)
}

// HandleList handles GET /v1/sources
func (s *Service) HandleList(c *gin.Context) {
	c.JSON(http.StatusOK, s.List())
}

// HandleGet handles GET /v1/sources/:id
func (s *Service) HandleGet(c *gin.Context) {
	src, ok := s.registry.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, httperr.ErrorResponse{
			ErrorType: httperr.HttpNotFoundError,
			Message:   "Source not found",
			Details:   c.Param("id"),
		})
		return
	}
	c.JSON(http.StatusOK, src.Config())
}

// HandlePut handles PUT /v1/sources/:id
// The body is a source declaration; enabled=false removes the source.
func (s *Service) HandlePut(c *gin.Context) {
	var cfg v1.SourceConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidJsonError,
			Message:   "Invalid JSON body",
			Details:   err.Error(),
		})
		return
	}

	resp, err := s.Put(c.Param("id"), cfg)
	if err != nil {
		writeError(c, err)
		return
	}
	slog.Info("[Sources] Source changed", "source_id", c.Param("id"), "change", resp.Change)
	c.JSON(http.StatusOK, resp)
}

// HandleDelete handles DELETE /v1/sources/:id
func (s *Service) HandleDelete(c *gin.Context) {
	if _, err := s.registry.Remove(c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	slog.Info("[Sources] Source removed", "source_id", c.Param("id"))
	c.Status(http.StatusNoContent)
}

// HandleSourceStates handles GET /v1/sources/:id/states
// Query parameters: namespace (saved|live, default saved)
func (s *Service) HandleSourceStates(c *gin.Context) {
	resp, err := s.SourceStates(c.Request.Context(), c.Param("id"), c.Query("namespace"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// HandleGroups handles GET /v1/groups
func (s *Service) HandleGroups(c *gin.Context) {
	c.JSON(http.StatusOK, s.Groups())
}

// HandleGroupStates handles GET /v1/groups/:id/states
func (s *Service) HandleGroupStates(c *gin.Context) {
	resp, err := s.GroupStates(c.Request.Context(), c.Param("id"), c.Query("namespace"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// writeError maps service errors to HTTP status codes.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, registry.ErrNotFound), errors.Is(err, registry.ErrUnknownGroup):
		c.JSON(http.StatusNotFound, httperr.ErrorResponse{
			ErrorType: httperr.HttpNotFoundError,
			Message:   err.Error(),
		})
	case errors.Is(err, registry.ErrInvalidSource), errors.Is(err, ErrInvalidNamespace):
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpValidationError,
			Message:   err.Error(),
		})
	default:
		slog.Error("[Sources] Request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, httperr.ErrorResponse{
			ErrorType: httperr.HttpInternalError,
			Message:   "Failed to read states",
			Details:   err.Error(),
		})
	}
}
