package api

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/bankpulse/review-insights/internal/services"
	"github.com/bankpulse/review-insights/internal/store"
	"github.com/bankpulse/review-insights/internal/utils"
)

// Server exposes the insight service over HTTP.
type Server struct {
	logger  *slog.Logger
	service *services.InsightService
	router  *gin.Engine
}

// NewServer wires routes onto a gin engine. Release mode keeps gin's debug
// chatter out of the structured logs.
func NewServer(logger *slog.Logger, service *services.InsightService) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{logger: logger, service: service, router: router}

	router.GET("/healthz", s.health)
	v1 := router.Group("/api/v1")
	{
		v1.POST("/analyze", s.analyze)
		v1.GET("/reviews", s.reviews)
		v1.GET("/stats", s.stats)
	}
	return s
}

// Handler returns the http.Handler for serving.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// analyze handles POST /api/v1/analyze.
func (s *Server) analyze(c *gin.Context) {
	var dto analyzeRequestDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	result, err := s.service.Analyze(c.Request.Context(), toAnalyzeRequest(dto))
	if err != nil {
		if errors.Is(err, services.ErrNoReviews) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		s.logger.Error("analyze request failed",
			slog.String("op", string(utils.OpOf(err))), slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "analysis failed"})
		return
	}
	c.JSON(http.StatusOK, toAnalyzeResponseDTO(result))
}

// reviews handles GET /api/v1/reviews with optional bank, anomalous, limit
// and run_id query parameters.
func (s *Server) reviews(c *gin.Context) {
	filter := store.Filter{
		RunID:   c.Query("run_id"),
		GroupID: c.Query("bank"),
	}
	if v := c.Query("anomalous"); v == "true" || v == "1" {
		filter.AnomalousOnly = true
	}
	if v := c.Query("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		filter.Limit = limit
	}

	records, err := s.service.Reviews(c.Request.Context(), filter)
	if err != nil {
		s.logger.Error("list reviews failed",
			slog.String("op", string(utils.OpOf(err))), slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list reviews"})
		return
	}

	out := make([]reviewRecordDTO, 0, len(records))
	for _, rec := range records {
		out = append(out, toReviewRecordDTO(rec))
	}
	c.JSON(http.StatusOK, gin.H{"reviews": out, "count": len(out)})
}

// stats handles GET /api/v1/stats: the latest persisted run summary.
func (s *Server) stats(c *gin.Context) {
	summary, err := s.service.LatestRun(c.Request.Context())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no completed runs"})
			return
		}
		s.logger.Error("latest run lookup failed",
			slog.String("op", string(utils.OpOf(err))), slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load run summary"})
		return
	}
	c.JSON(http.StatusOK, toRunSummaryDTO(summary))
}

