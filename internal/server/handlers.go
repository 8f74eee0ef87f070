package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/regulatech/compliancegpt/internal/citation"
	"github.com/regulatech/compliancegpt/internal/ingest"
	"github.com/regulatech/compliancegpt/internal/retrieval"
	"github.com/regulatech/compliancegpt/internal/session"
)

// QueryEngine is the part of the citation layer the API depends on.
type QueryEngine interface {
	Query(ctx context.Context, question string, opts citation.QueryOptions) (*citation.CitedResponse, error)
	Compare(ctx context.Context, question string, regulations []string, topKPerRegulation int) (*citation.CitedResponse, error)
}

type queryRequest struct {
	Question   string `json:"question"`
	Regulation string `json:"regulation,omitempty"`
	SessionID  string `json:"session_id,omitempty"`
	TopK       int    `json:"top_k,omitempty"`
}

func (s *Server) handleQuery(c echo.Context) error {
	var req queryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.Question) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "question is required")
	}

	start := time.Now()
	resp, err := s.Engine.Query(c.Request().Context(), req.Question, citation.QueryOptions{
		RegulationFilter: req.Regulation,
		TopK:             req.TopK,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if s.Metrics != nil {
		outcome := "answered"
		if !resp.HasContext {
			outcome = "no_context"
		} else if resp.GenerationErr != "" {
			outcome = "generation_error"
		}
		s.Metrics.QueriesTotal.WithLabelValues(outcome).Inc()
		s.Metrics.RetrievalHits.Observe(float64(len(resp.Citations)))
		if provider, ok := resp.Metadata["provider"].(string); ok {
			s.Metrics.QueryDuration.WithLabelValues(provider).Observe(time.Since(start).Seconds())
			if resp.GenerationErr != "" {
				s.Metrics.GenerationErrors.WithLabelValues(provider).Inc()
			}
		}
	}

	if s.Sessions != nil && req.SessionID != "" {
		if _, err := s.Sessions.RecordQuery(c.Request().Context(), session.QueryRecord{
			SessionID:        req.SessionID,
			Question:         req.Question,
			Answer:           resp.Answer,
			RegulationFilter: req.Regulation,
			NumSources:       len(resp.Citations),
			HasContext:       resp.HasContext,
		}); err != nil {
			s.Logger.Printf("recording query history: %v", err)
		}
	}

	return c.JSON(http.StatusOK, resp)
}

type compareRequest struct {
	Question    string   `json:"question"`
	Regulations []string `json:"regulations"`
	TopK        int      `json:"top_k,omitempty"`
}

func (s *Server) handleCompare(c echo.Context) error {
	var req compareRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.Question) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "question is required")
	}
	if len(req.Regulations) < 2 {
		return echo.NewHTTPError(http.StatusBadRequest, "at least two regulations are required")
	}

	resp, err := s.Engine.Compare(c.Request().Context(), req.Question, req.Regulations, req.TopK)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, resp)
}

type searchRequest struct {
	Query      string `json:"query"`
	Regulation string `json:"regulation,omitempty"`
	TopK       int    `json:"top_k,omitempty"`
}

// handleSearch exposes raw retrieval without generation.
func (s *Server) handleSearch(c echo.Context) error {
	var req searchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.Query) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query is required")
	}
	if s.Store == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "search index not configured")
	}

	topK := req.TopK
	if s.Config != nil && topK <= 0 {
		topK = s.Config.Retrieval.TopK
	}
	retriever := retrieval.NewHybridRetriever(s.Store, nil, topK, 0, s.Logger)
	results, err := retriever.Search(c.Request().Context(), req.Query, retrieval.Options{
		TopK:             topK,
		RegulationFilter: req.Regulation,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"results": results, "count": len(results)})
}

type changesRequest struct {
	OldPath string `json:"old_path"`
	NewPath string `json:"new_path"`
}

func (s *Server) handleChanges(c echo.Context) error {
	var req changesRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.OldPath == "" || req.NewPath == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "old_path and new_path are required")
	}
	if s.Detector == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "change detection not configured")
	}

	report, err := s.Detector.CompareFiles(req.OldPath, req.NewPath)
	if err != nil {
		var dfe *ingest.DataFormatError
		if errors.As(err, &dfe) {
			return echo.NewHTTPError(http.StatusUnprocessableEntity, dfe.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, report)
}

func (s *Server) handleRegulations(c echo.Context) error {
	var regulations []string
	if s.Config != nil {
		regulations = s.Config.Regulations
	}
	out := map[string]interface{}{"regulations": regulations}
	if s.Store != nil {
		if count, err := s.Store.Count(); err == nil {
			out["indexed_chunks"] = count
		}
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) handleHealth(c echo.Context) error {
	health := map[string]interface{}{"status": "ok"}
	if s.Store != nil {
		if count, err := s.Store.Count(); err != nil {
			health["status"] = "degraded"
			health["index_error"] = err.Error()
		} else {
			health["indexed_chunks"] = count
		}
	}
	return c.JSON(http.StatusOK, health)
}

type createSessionRequest struct {
	Label string `json:"label"`
}

func (s *Server) handleCreateSession(c echo.Context) error {
	if s.Sessions == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "session store not configured")
	}
	var req createSessionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	sess, err := s.Sessions.CreateSession(c.Request().Context(), req.Label)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, sess)
}

func (s *Server) handleListSessions(c echo.Context) error {
	if s.Sessions == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "session store not configured")
	}
	sessions, err := s.Sessions.ListSessions(c.Request().Context(), 0)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"sessions": sessions})
}

func (s *Server) handleHistory(c echo.Context) error {
	if s.Sessions == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "session store not configured")
	}
	id := c.Param("id")
	if _, err := s.Sessions.GetSession(c.Request().Context(), id); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "session not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	history, err := s.Sessions.History(c.Request().Context(), id, 0)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"session_id": id, "history": history})
}
