package codegraph

import (
	"context"
	"fmt"

	"refactor-bot/internal/config"

	"go.uber.org/zap"
)

// GraphDatabase is a Cypher speaking graph store
type GraphDatabase interface {
	VerifyConnectivity(ctx context.Context) error
	Close(ctx context.Context) error
	ExecuteRead(ctx context.Context, query string, params map[string]any) ([]map[string]any, error)
	ExecuteWrite(ctx context.Context, query string, params map[string]any) ([]map[string]any, error)
}

// NewGraphDatabase opens the backend selected in the configuration
func NewGraphDatabase(cfg *config.Config, logger *zap.Logger) (GraphDatabase, error) {
	var (
		db  GraphDatabase
		err error
	)
	switch cfg.App.GraphBackend {
	case config.GraphBackendNeo4j:
		db, err = NewNeo4jDatabase(cfg.Neo4j.URI, cfg.Neo4j.Username, cfg.Neo4j.Password, logger)
	case "", config.GraphBackendKuzu:
		path := cfg.Kuzu.Path
		if path == "" {
			path = ":memory:"
			logger.Info("No Kuzu database path configured, using in-memory database")
		}
		db, err = NewKuzuDatabase(path, logger)
	default:
		return nil, fmt.Errorf("unknown graph backend: %s", cfg.App.GraphBackend)
	}
	if err != nil {
		return nil, err
	}

	if err := db.VerifyConnectivity(context.Background()); err != nil {
		db.Close(context.Background())
		return nil, fmt.Errorf("failed to verify database connectivity: %w", err)
	}
	return db, nil
}

// single returns the only record of a result set
func single(records []map[string]any) (map[string]any, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("no records returned")
	}
	if len(records) > 1 {
		return nil, fmt.Errorf("expected single record, got %d", len(records))
	}
	return records[0], nil
}
