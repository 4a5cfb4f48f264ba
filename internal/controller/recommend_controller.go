package controller

import (
	"net/http"

	"refactor-bot/internal/execution"
	"refactor-bot/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RecommendController handles move recommendation HTTP endpoints
type RecommendController struct {
	analyzer *service.Analyzer
	logger   *zap.Logger
}

// NewRecommendController creates a new recommendation controller
func NewRecommendController(analyzer *service.Analyzer, logger *zap.Logger) *RecommendController {
	return &RecommendController{
		analyzer: analyzer,
		logger:   logger,
	}
}

// RecommendMoves handles POST /api/v1/recommendMoves
func (rc *RecommendController) RecommendMoves(c *gin.Context) {
	var req service.MoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rc.logger.Info("Recommending moves",
		zap.String("repo", req.RepoName),
		zap.Bool("inline_graph", req.Graph != nil),
		zap.Strings("algorithms", req.Algorithms),
		zap.String("mode", req.Mode))

	report, err := rc.analyzer.RecommendMoves(c.Request.Context(), req)
	if err != nil {
		if execution.IsCanceled(err) {
			rc.logger.Info("Recommendation canceled", zap.String("repo", req.RepoName))
			c.JSON(http.StatusRequestTimeout, gin.H{"error": "analysis canceled"})
			return
		}
		rc.logger.Error("Recommendation failed",
			zap.String("repo", req.RepoName),
			zap.Error(err))
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, report)
}

// Algorithms handles GET /api/v1/algorithms
func (rc *RecommendController) Algorithms(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"algorithms": rc.analyzer.Algorithms(),
		"metrics":    rc.analyzer.Metrics(),
	})
}
