package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"refactor-bot/internal/codegraph"
	"refactor-bot/internal/config"
	"refactor-bot/internal/extract"
	"refactor-bot/internal/extract/java"
	"refactor-bot/internal/model/entity"
	"refactor-bot/internal/util"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// RepositorySummary describes one processed repository
type RepositorySummary struct {
	Name       string `json:"name"`
	Commit     string `json:"commit,omitempty"`
	Classes    int    `json:"classes"`
	Methods    int    `json:"methods"`
	Fields     int    `json:"fields"`
	References int    `json:"references"`
	Stored     bool   `json:"stored"`
}

// RepoService extracts configured repositories and keeps their graphs,
// in the graph store when one is configured and in memory otherwise
type RepoService struct {
	config    *config.Config
	extractor *java.Extractor
	store     *codegraph.Store
	logger    *zap.Logger

	mu     sync.RWMutex
	cached map[string]*extract.Result
}

// NewRepoService creates the service; store may be nil
func NewRepoService(cfg *config.Config, extractor *java.Extractor, store *codegraph.Store, logger *zap.Logger) *RepoService {
	return &RepoService{
		config:    cfg,
		extractor: extractor,
		store:     store,
		logger:    logger,
		cached:    make(map[string]*extract.Result),
	}
}

func supportedLanguage(language string) bool {
	switch strings.ToLower(language) {
	case "", "java":
		return true
	}
	return false
}

// ProcessRepository extracts the named repository and stores its graph
func (rs *RepoService) ProcessRepository(ctx context.Context, name string) (*RepositorySummary, error) {
	repo, err := rs.config.GetRepository(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if !supportedLanguage(repo.Language) {
		return nil, fmt.Errorf("%w: unsupported repository language %q for %s", ErrInvalidRequest, repo.Language, repo.Name)
	}

	rs.logger.Info("Processing repository", zap.String("name", repo.Name), zap.String("path", repo.Path))

	result, err := rs.extractor.ExtractDir(ctx, repo.Path, repo.SkipPaths)
	if err != nil {
		return nil, fmt.Errorf("failed to extract repository %s: %w", repo.Name, err)
	}

	summary := &RepositorySummary{
		Name:       repo.Name,
		Classes:    len(result.Classes),
		Methods:    len(result.Methods),
		Fields:     len(result.Fields),
		References: len(result.References),
	}
	if info, err := util.GetGitInfo(repo.Path); err == nil && info.IsGitRepo {
		summary.Commit = info.HeadCommitSHA
	}

	if rs.store != nil {
		if err := rs.store.SaveRepository(ctx, repo.Name, result); err != nil {
			return nil, err
		}
		summary.Stored = true
	}

	rs.mu.Lock()
	rs.cached[repo.Name] = result
	rs.mu.Unlock()

	rs.logger.Info("Completed processing repository",
		zap.String("name", repo.Name),
		zap.String("commit", summary.Commit),
		zap.Int("classes", summary.Classes),
		zap.Int("methods", summary.Methods),
		zap.Int("fields", summary.Fields))
	return summary, nil
}

// ProcessAllRepositories processes every configured repository with a
// bounded number of workers. Failures are logged and skipped.
func (rs *RepoService) ProcessAllRepositories(ctx context.Context) ([]*RepositorySummary, error) {
	repos := rs.config.Source.Repositories
	rs.logger.Info("Starting to process all repositories", zap.Int("count", len(repos)))

	summaries := make([]*RepositorySummary, len(repos))
	g, gctx := errgroup.WithContext(ctx)
	limit := rs.config.App.NumFileThreads
	if limit <= 0 {
		limit = 1
	}
	g.SetLimit(limit)

	for i, repo := range repos {
		if !supportedLanguage(repo.Language) {
			rs.logger.Warn("Skipping unsupported repository language",
				zap.String("name", repo.Name),
				zap.String("language", repo.Language))
			continue
		}
		g.Go(func() error {
			summary, err := rs.ProcessRepository(gctx, repo.Name)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				rs.logger.Error("Failed to process repository", zap.String("name", repo.Name), zap.Error(err))
				return nil
			}
			summaries[i] = summary
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	processed := make([]*RepositorySummary, 0, len(summaries))
	for _, s := range summaries {
		if s != nil {
			processed = append(processed, s)
		}
	}
	rs.logger.Info("Completed processing all repositories", zap.Int("processed", len(processed)))
	return processed, nil
}

// LoadGraph returns the entity graph of a repository: from memory, then from
// the graph store, and finally by extracting it afresh
func (rs *RepoService) LoadGraph(ctx context.Context, name string) (*entity.Graph, error) {
	rs.mu.RLock()
	result, ok := rs.cached[name]
	rs.mu.RUnlock()
	if ok {
		return result.Build(nil)
	}

	if rs.store != nil {
		graph, err := rs.store.LoadGraph(ctx, name, nil)
		if err == nil {
			return graph, nil
		}
		rs.logger.Debug("Repository not in graph store", zap.String("name", name), zap.Error(err))
	}

	if _, err := rs.ProcessRepository(ctx, name); err != nil {
		return nil, err
	}
	rs.mu.RLock()
	result = rs.cached[name]
	rs.mu.RUnlock()
	return result.Build(nil)
}
