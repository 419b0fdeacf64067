package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/convreg/convreg/internal/application/workers"
	"github.com/convreg/convreg/internal/domain"
	"github.com/convreg/convreg/internal/ports"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RegisterURLRequest represents a URL registration request.
type RegisterURLRequest struct {
	URL string `json:"url" binding:"required"`
}

// RegisterURLResponse represents a URL registration response.
type RegisterURLResponse struct {
	URL      string `json:"url"`
	Status   string `json:"status"`
	HandleID string `json:"handle_id,omitempty"`
}

// ConvertRequest represents a conversion request.
type ConvertRequest struct {
	URL    string `json:"url" binding:"required"`
	Target string `json:"target" binding:"required"`
	Async  bool   `json:"async"`
}

// ViewRequest represents a view request.
type ViewRequest struct {
	URL   string `json:"url" binding:"required"`
	Label string `json:"label" binding:"required"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail represents error details.
type ErrorDetail struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// handleHealth handles health check requests.
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"checks": gin.H{
			"registry": "ok",
		},
	})
}

// handleRegisterURL handles URL registration.
func (s *Server) handleRegisterURL(c *gin.Context) {
	var req RegisterURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.logger.Error("invalid request", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: ErrorDetail{
				Code:    "INVALID_REQUEST",
				Message: err.Error(),
			},
		})
		return
	}

	handle, err := s.registry.RegisterURL(c.Request.Context(), req.URL)
	if err != nil {
		s.logger.Error("failed to register URL", zap.String("url", req.URL), zap.Error(err))
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error: ErrorDetail{
				Code:    "REGISTRATION_FAILED",
				Message: err.Error(),
			},
		})
		return
	}

	// A nil handle reports the URL was already registered.
	if handle == nil {
		c.JSON(http.StatusOK, RegisterURLResponse{
			URL:    req.URL,
			Status: "already_registered",
		})
		return
	}

	s.handles.Store(handle.ID(), handle)

	c.JSON(http.StatusCreated, RegisterURLResponse{
		URL:      req.URL,
		Status:   "registered",
		HandleID: handle.ID(),
	})
}

// handleReleaseURL releases a registration handle.
func (s *Server) handleReleaseURL(c *gin.Context) {
	handleID := c.Param("handle_id")

	val, ok := s.handles.LoadAndDelete(handleID)
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error: ErrorDetail{
				Code:    "NOT_FOUND",
				Message: "Handle not found",
			},
		})
		return
	}

	val.(ports.Handle).Release()

	c.JSON(http.StatusOK, gin.H{
		"handle_id": handleID,
		"status":    "released",
	})
}

// handleHasConversions handles convertibility queries.
func (s *Server) handleHasConversions(c *gin.Context) {
	url := c.Query("url")
	if url == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: ErrorDetail{
				Code:    "INVALID_REQUEST",
				Message: "url query parameter is required",
			},
		})
		return
	}

	has, err := s.registry.HasConversions(c.Request.Context(), url)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: ErrorDetail{
				Code:    "QUERY_FAILED",
				Message: err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"url":             url,
		"has_conversions": has,
	})
}

// handlePossibleMimeTypes handles reachability queries.
func (s *Server) handlePossibleMimeTypes(c *gin.Context) {
	url := c.Query("url")
	if url == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: ErrorDetail{
				Code:    "INVALID_REQUEST",
				Message: "url query parameter is required",
			},
		})
		return
	}

	mimeTypes, err := s.registry.PossibleMimeTypesForURL(c.Request.Context(), url)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: ErrorDetail{
				Code:    "QUERY_FAILED",
				Message: err.Error(),
			},
		})
		return
	}
	if mimeTypes == nil {
		mimeTypes = []string{}
	}

	c.JSON(http.StatusOK, gin.H{
		"url":        url,
		"mime_types": mimeTypes,
	})
}

// handleViewers handles viewer enumeration queries.
func (s *Server) handleViewers(c *gin.Context) {
	url := c.Query("url")
	if url == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: ErrorDetail{
				Code:    "INVALID_REQUEST",
				Message: "url query parameter is required",
			},
		})
		return
	}

	viewers, err := s.registry.ViewersForURL(c.Request.Context(), url)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: ErrorDetail{
				Code:    "QUERY_FAILED",
				Message: err.Error(),
			},
		})
		return
	}
	if viewers == nil {
		viewers = []string{}
	}

	c.JSON(http.StatusOK, gin.H{
		"url":     url,
		"viewers": viewers,
	})
}

// handleConvert handles synchronous and asynchronous conversions.
func (s *Server) handleConvert(c *gin.Context) {
	var req ConvertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: ErrorDetail{
				Code:    "INVALID_REQUEST",
				Message: err.Error(),
			},
		})
		return
	}

	if req.Async {
		event := ports.Event{
			ID:        uuid.New().String(),
			Type:      ports.EventTypeConversionRequested,
			URL:       req.URL,
			MimeType:  req.Target,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"target": req.Target,
			},
		}

		if err := s.eventBus.Publish(c.Request.Context(), workers.RequestTopic, event); err != nil {
			s.logger.Error("failed to enqueue conversion", zap.Error(err))
			c.JSON(http.StatusInternalServerError, ErrorResponse{
				Error: ErrorDetail{
					Code:    "ENQUEUE_FAILED",
					Message: err.Error(),
				},
			})
			return
		}

		c.JSON(http.StatusAccepted, gin.H{
			"request_id": event.ID,
			"url":        req.URL,
			"target":     req.Target,
			"status":     "accepted",
		})
		return
	}

	dataset, err := s.registry.ConvertByURL(c.Request.Context(), req.URL, req.Target)
	if err != nil {
		var unreachable *domain.UnreachableTargetError
		if errors.As(err, &unreachable) {
			c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
				Error: ErrorDetail{
					Code:    "UNREACHABLE_TARGET",
					Message: err.Error(),
				},
			})
			return
		}

		s.logger.Error("conversion failed",
			zap.String("url", req.URL),
			zap.String("target", req.Target),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: ErrorDetail{
				Code:    "CONVERSION_FAILED",
				Message: err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"url":       dataset.URL(),
		"mime_type": dataset.MimeType(),
		"status":    "completed",
	})
}

// handleView handles viewer invocations.
func (s *Server) handleView(c *gin.Context) {
	var req ViewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: ErrorDetail{
				Code:    "INVALID_REQUEST",
				Message: err.Error(),
			},
		})
		return
	}

	if err := s.registry.ViewURL(c.Request.Context(), req.URL, req.Label); err != nil {
		var unreachable *domain.UnreachableTargetError
		if errors.As(err, &unreachable) {
			c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
				Error: ErrorDetail{
					Code:    "UNREACHABLE_TARGET",
					Message: err.Error(),
				},
			})
			return
		}

		s.logger.Error("view failed",
			zap.String("url", req.URL),
			zap.String("label", req.Label),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: ErrorDetail{
				Code:    "VIEW_FAILED",
				Message: err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"url":    req.URL,
		"label":  req.Label,
		"status": "completed",
	})
}
