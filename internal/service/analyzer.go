package service

import (
	"context"
	"fmt"

	"refactor-bot/internal/extract"
	"refactor-bot/internal/model/entity"

	"go.uber.org/zap"
)

// MoveRequest names the code to analyze, either a configured repository or
// an inline extraction result, plus the run options
type MoveRequest struct {
	RepoName string          `json:"repo_name,omitempty"`
	Graph    *extract.Result `json:"graph,omitempty"`
	Request
}

// Analyzer resolves the code named by a request and runs the recommendation on it
type Analyzer struct {
	repos       *RepoService
	recommender *RecommendationService
	logger      *zap.Logger
}

// NewAnalyzer creates an analyzer; repos may be nil when only inline graphs are served
func NewAnalyzer(repos *RepoService, recommender *RecommendationService, logger *zap.Logger) *Analyzer {
	return &Analyzer{repos: repos, recommender: recommender, logger: logger}
}

// Algorithms lists the algorithms a request may name
func (a *Analyzer) Algorithms() []string {
	return a.recommender.Algorithms()
}

// Metrics lists the metrics available to the metrics distance
func (a *Analyzer) Metrics() []MetricInfo {
	return a.recommender.Metrics()
}

func (a *Analyzer) graph(ctx context.Context, req MoveRequest) (*entity.Graph, string, error) {
	if req.Graph != nil {
		graph, err := req.Graph.Build(nil)
		if err != nil {
			return nil, "", fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		name := req.RepoName
		if name == "" {
			name = "inline"
		}
		return graph, name, nil
	}
	if req.RepoName == "" {
		return nil, "", fmt.Errorf("%w: repo_name or graph is required", ErrInvalidRequest)
	}
	if a.repos == nil {
		return nil, "", fmt.Errorf("%w: repository analysis is not configured", ErrInvalidRequest)
	}
	graph, err := a.repos.LoadGraph(ctx, req.RepoName)
	if err != nil {
		return nil, "", err
	}
	return graph, req.RepoName, nil
}

// RecommendMoves runs one recommendation for the request
func (a *Analyzer) RecommendMoves(ctx context.Context, req MoveRequest) (*Report, error) {
	graph, name, err := a.graph(ctx, req)
	if err != nil {
		return nil, err
	}
	return a.recommender.Recommend(ctx, name, graph, req.Request)
}

// ProcessRepository extracts and stores a configured repository
func (a *Analyzer) ProcessRepository(ctx context.Context, name string) (*RepositorySummary, error) {
	if a.repos == nil {
		return nil, fmt.Errorf("%w: repository analysis is not configured", ErrInvalidRequest)
	}
	return a.repos.ProcessRepository(ctx, name)
}
