package controller

import (
	"errors"
	"net/http"

	"refactor-bot/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type RepoController struct {
	analyzer *service.Analyzer
	logger   *zap.Logger
}

func NewRepoController(analyzer *service.Analyzer, logger *zap.Logger) *RepoController {
	return &RepoController{
		analyzer: analyzer,
		logger:   logger,
	}
}

type ProcessRepoRequest struct {
	RepoName string `json:"repo_name" binding:"required"`
}

// ProcessRepo handles POST /api/v1/processRepo
func (rc *RepoController) ProcessRepo(c *gin.Context) {
	var request ProcessRepoRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		rc.logger.Error("Invalid request payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request payload",
			"details": err.Error(),
		})
		return
	}

	rc.logger.Info("Processing repository", zap.String("repo_name", request.RepoName))

	summary, err := rc.analyzer.ProcessRepository(c.Request.Context(), request.RepoName)
	if err != nil {
		rc.logger.Error("Failed to process repository",
			zap.String("repo_name", request.RepoName),
			zap.Error(err))
		c.JSON(statusFor(err), gin.H{
			"error":   "Failed to process repository",
			"details": err.Error(),
		})
		return
	}

	rc.logger.Info("Successfully processed repository",
		zap.String("repo_name", request.RepoName),
		zap.Int("classes", summary.Classes))
	c.JSON(http.StatusOK, summary)
}

// statusFor maps service errors to HTTP status codes
func statusFor(err error) int {
	if errors.Is(err, service.ErrInvalidRequest) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
