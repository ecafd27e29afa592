package api

import (
	"net/http"

	"subsetlens/internal/errors"
	"subsetlens/ports"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleAggregate(c *gin.Context) {
	var req ports.AggregateRequest
	if !s.bind(c, &req) {
		return
	}
	resp, err := s.explorer.Aggregate(c.Request.Context(), req)
	s.respond(c, resp, err)
}

func (s *Server) handleRatings(c *gin.Context) {
	var req ports.RatingsRequest
	if !s.bind(c, &req) {
		return
	}
	resp, err := s.explorer.RateFeatures(c.Request.Context(), req)
	s.respond(c, resp, err)
}

func (s *Server) handleSuggestNext(c *gin.Context) {
	var req ports.SearchRequest
	if !s.bind(c, &req) {
		return
	}
	resp, err := s.explorer.SuggestNext(c.Request.Context(), req)
	s.respond(c, resp, err)
}

func (s *Server) handleCombinations(c *gin.Context) {
	var req ports.SearchRequest
	if !s.bind(c, &req) {
		return
	}
	resp, err := s.explorer.SuggestCombinations(c.Request.Context(), req)
	s.respond(c, resp, err)
}

func (s *Server) handleSubsets(c *gin.Context) {
	var req ports.SearchRequest
	if !s.bind(c, &req) {
		return
	}
	resp, err := s.explorer.FindSubsets(c.Request.Context(), req)
	s.respond(c, resp, err)
}

// handleMetrics lists the metrics for the loaded dataset. ?none=true makes
// "none" the default choice.
func (s *Server) handleMetrics(c *gin.Context) {
	req := ports.MetricsRequest{ChooseNone: c.Query("none") == "true"}
	resp, err := s.explorer.Metrics(c.Request.Context(), req)
	s.respond(c, resp, err)
}

func (s *Server) bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error(), "code": errors.CodeInvalidInput})
		return false
	}
	return true
}

func (s *Server) respond(c *gin.Context, resp any, err error) {
	if err != nil {
		code := errors.GetCode(err)
		status := statusFor(code)
		if status >= http.StatusInternalServerError {
			s.logger.Error("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		}
		c.JSON(status, gin.H{"error": err.Error(), "code": code})
		return
	}
	c.JSON(http.StatusOK, resp)
}

func statusFor(code string) int {
	switch code {
	case errors.CodeInvalidInput, errors.CodeValidationError:
		return http.StatusBadRequest
	case errors.CodeKindMismatch:
		return http.StatusUnprocessableEntity
	case errors.CodeNotFound:
		return http.StatusNotFound
	case errors.CodeCancelled:
		return http.StatusRequestTimeout
	}
	return http.StatusInternalServerError
}
