package mcp

import (
	"context"
	"strings"
	"testing"

	"refactor-bot/internal/algorithms"
	"refactor-bot/internal/config"
	"refactor-bot/internal/service"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newServer(t *testing.T) *RecommendServer {
	t.Helper()
	cfg := &config.Config{}
	cfg.ApplyDefaults()
	recommender, err := service.NewRecommendationService(cfg.Recommend, zap.NewNop())
	require.NoError(t, err)
	return NewRecommendServer(service.NewAnalyzer(nil, recommender, zap.NewNop()), cfg, zap.NewNop())
}

func TestHandleRecommendMoves_ReportsErrors(t *testing.T) {
	s := newServer(t)

	result, _, err := s.handleRecommendMoves(context.Background(), nil, RecommendMovesParams{RepoName: "missing"})
	require.NoError(t, err)
	assert.True(t, result.IsError)
	text := result.Content[0].(*mcp.TextContent).Text
	assert.Contains(t, text, "Failed to recommend moves")
}

func TestHandleListAlgorithms(t *testing.T) {
	s := newServer(t)

	result, _, err := s.handleListAlgorithms(context.Background(), nil, ListAlgorithmsParams{})
	require.NoError(t, err)
	text := result.Content[0].(*mcp.TextContent).Text
	assert.Equal(t, []string{"AKMeans", "ARI", "CCDA", "HAC"}, strings.Split(text, "\n"))
}

func TestFormatReport(t *testing.T) {
	failed := algorithms.NewAlgorithmResult("run", "HAC")
	failed.Error = "boom"
	failed.Err = assert.AnError
	ok := algorithms.NewAlgorithmResult("run", "ARI")
	ok.Refactorings = []algorithms.Refactoring{{Entity: "B.m()", Target: "A", Accuracy: 1}}

	text := formatReport(&service.Report{
		Repository:   "demo",
		Mode:         "combine",
		Classes:      2,
		Entities:     5,
		Results:      []*algorithms.AlgorithmResult{ok, failed},
		Refactorings: ok.Refactorings,
	})
	assert.Contains(t, text, "Repository demo: 2 classes, 5 entities, mode combine")
	assert.Contains(t, text, "- ARI: 1 proposals")
	assert.Contains(t, text, "- HAC failed: boom")
	assert.Contains(t, text, "Move B.m() to A (accuracy 1.000)")

	empty := formatReport(&service.Report{Repository: "demo", Mode: "intersect"})
	assert.Contains(t, empty, "No moves recommended.")
}
