package api

import (
	"net/http"

	"subsetlens/app"
	"subsetlens/domain/core"
	"subsetlens/domain/dataset"
	"subsetlens/domain/feature"
	"subsetlens/internal/errors"
	"subsetlens/internal/scoring"
	"subsetlens/ports"

	"github.com/gin-gonic/gin"
)

// sessionState is the JSON view of a session
type sessionState struct {
	ID       core.SessionID   `json:"id"`
	Selected []string         `json:"selected"`
	Filters  []dataset.Filter `json:"filters"`
	Features feature.Set      `json:"features"`
}

type createSessionRequest struct {
	Dataset *dataset.Dataset `json:"dataset,omitempty"`
}

type selectionRequest struct {
	Selected []string `json:"selected"`
}

type filtersRequest struct {
	Filters []dataset.Filter `json:"filters"`
}

// binsRequest edits a quantitative feature. Action is one of "increase",
// "decrease", "split" (with SplitType) or "custom" (with Thresholds).
type binsRequest struct {
	Action     string            `json:"action"`
	SplitType  feature.SplitType `json:"splitType,omitempty"`
	Thresholds []float64         `json:"thresholds,omitempty"`
}

// sessionSearchRequest carries the scoring options of a session-scoped call
type sessionSearchRequest struct {
	Criterion     scoring.MetricKind `json:"criterion"`
	MinSubsetSize int                `json:"minSubsetSize,omitempty"`
	TopFeatures   int                `json:"topFeatures,omitempty"`
	Percent       float64            `json:"percent,omitempty"`
	MaxLevels     int                `json:"maxLevels,omitempty"`
}

// WithSessions adds the session routes. New sessions use ds unless the
// request carries its own dataset.
func (s *Server) WithSessions(sessions *app.SessionManager, ds *dataset.Dataset) *Server {
	s.sessions = sessions
	s.dataset = ds

	g := s.router.Group("/api/sessions")
	{
		g.POST("", s.handleCreateSession)
		g.GET("/:id", s.handleGetSession)
		g.DELETE("/:id", s.handleDeleteSession)
		g.PUT("/:id/selection", s.handleSetSelection)
		g.PUT("/:id/filters", s.handleSetFilters)
		g.POST("/:id/features/:name/bins", s.handleEditBins)
		g.POST("/:id/aggregate", s.handleSessionAggregate)
		g.POST("/:id/ratings", s.handleSessionRatings)
		g.POST("/:id/combinations", s.handleSessionCombinations)
		g.POST("/:id/subsets", s.handleSessionSubsets)
	}
	return s
}

func (s *Server) handleCreateSession(c *gin.Context) {
	var req createSessionRequest
	if c.Request.ContentLength > 0 && !s.bind(c, &req) {
		return
	}
	ds := req.Dataset
	if ds == nil {
		ds = s.dataset
	}
	if ds == nil {
		s.respond(c, nil, errors.InvalidInput("request has no dataset and none is loaded"))
		return
	}
	session, err := s.sessions.CreateSession(ds)
	if err != nil {
		s.respond(c, nil, err)
		return
	}
	s.logger.Info("created session %s", session.ID)
	c.JSON(http.StatusCreated, stateOf(session))
}

func (s *Server) handleGetSession(c *gin.Context) {
	session, ok := s.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, stateOf(session))
}

func (s *Server) handleDeleteSession(c *gin.Context) {
	if !s.sessions.DeleteSession(c.Param("id")) {
		s.respond(c, nil, errors.NotFound("session"))
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleSetSelection(c *gin.Context) {
	session, ok := s.session(c)
	if !ok {
		return
	}
	var req selectionRequest
	if !s.bind(c, &req) {
		return
	}
	s.respondState(c, session, session.SetSelected(req.Selected))
}

func (s *Server) handleSetFilters(c *gin.Context) {
	session, ok := s.session(c)
	if !ok {
		return
	}
	var req filtersRequest
	if !s.bind(c, &req) {
		return
	}
	s.respondState(c, session, session.SetFilters(req.Filters))
}

func (s *Server) handleEditBins(c *gin.Context) {
	session, ok := s.session(c)
	if !ok {
		return
	}
	var req binsRequest
	if !s.bind(c, &req) {
		return
	}

	name := c.Param("name")
	var valid bool
	var err error
	switch req.Action {
	case "increase":
		valid, err = session.IncreaseBins(name)
	case "decrease":
		valid, err = session.DecreaseBins(name)
	case "split":
		valid, err = session.SetSplitType(name, req.SplitType)
	case "custom":
		valid, err = session.SetCustomThresholds(name, req.Thresholds)
	default:
		err = errors.InvalidInput("unknown bins action " + req.Action)
	}
	if err != nil {
		s.respond(c, nil, err)
		return
	}
	f, err := session.Feature(name)
	if err != nil {
		s.respond(c, nil, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": valid, "feature": f})
}

func (s *Server) handleSessionAggregate(c *gin.Context) {
	session, ok := s.session(c)
	if !ok {
		return
	}
	resp, err := s.explorer.Aggregate(c.Request.Context(), ports.AggregateRequest{Selection: session.Selection()})
	s.respond(c, resp, err)
}

func (s *Server) handleSessionRatings(c *gin.Context) {
	session, req, ok := s.sessionSearch(c)
	if !ok {
		return
	}
	resp, err := s.explorer.RateFeatures(c.Request.Context(), ports.RatingsRequest{
		Selection:     session.Selection(),
		Criterion:     req.Criterion,
		MinSubsetSize: req.MinSubsetSize,
	})
	s.respond(c, resp, err)
}

func (s *Server) handleSessionCombinations(c *gin.Context) {
	session, req, ok := s.sessionSearch(c)
	if !ok {
		return
	}
	resp, err := s.explorer.SuggestCombinations(c.Request.Context(), searchRequest(session, req))
	s.respond(c, resp, err)
}

func (s *Server) handleSessionSubsets(c *gin.Context) {
	session, req, ok := s.sessionSearch(c)
	if !ok {
		return
	}
	resp, err := s.explorer.FindSubsets(c.Request.Context(), searchRequest(session, req))
	s.respond(c, resp, err)
}

func (s *Server) session(c *gin.Context) (*app.Session, bool) {
	session, err := s.sessions.GetSession(c.Param("id"))
	if err != nil {
		s.respond(c, nil, err)
		return nil, false
	}
	return session, true
}

func (s *Server) sessionSearch(c *gin.Context) (*app.Session, sessionSearchRequest, bool) {
	var req sessionSearchRequest
	session, ok := s.session(c)
	if !ok {
		return nil, req, false
	}
	if c.Request.ContentLength > 0 && !s.bind(c, &req) {
		return nil, req, false
	}
	return session, req, true
}

func (s *Server) respondState(c *gin.Context, session *app.Session, err error) {
	if err != nil {
		s.respond(c, nil, err)
		return
	}
	c.JSON(http.StatusOK, stateOf(session))
}

func searchRequest(session *app.Session, req sessionSearchRequest) ports.SearchRequest {
	return ports.SearchRequest{
		Selection:     session.Selection(),
		Criterion:     req.Criterion,
		MinSubsetSize: req.MinSubsetSize,
		TopFeatures:   req.TopFeatures,
		Percent:       req.Percent,
		MaxLevels:     req.MaxLevels,
	}
}

func stateOf(session *app.Session) sessionState {
	sel := session.Selection()
	filters := sel.Filters
	if filters == nil {
		filters = []dataset.Filter{}
	}
	return sessionState{
		ID:       session.ID,
		Selected: sel.Selected,
		Filters:  filters,
		Features: sel.Features,
	}
}
