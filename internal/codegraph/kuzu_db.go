package codegraph

import (
	"context"
	"fmt"
	"sync"

	"github.com/kuzudb/go-kuzu"
	"go.uber.org/zap"
)

// kuzuSchema declares the entity node table and its relationship tables
var kuzuSchema = []string{
	`CREATE NODE TABLE IF NOT EXISTS CodeEntity (
		key STRING,
		repo STRING,
		identifier STRING,
		kind STRING,
		owner STRING,
		isStatic BOOLEAN,
		isAbstract BOOLEAN,
		isOverride BOOLEAN,
		isConstructor BOOLEAN,
		movable STRING,
		file STRING,
		fieldType STRING,
		PRIMARY KEY (key)
	)`,
	"CREATE REL TABLE IF NOT EXISTS INHERITS (FROM CodeEntity TO CodeEntity)",
	"CREATE REL TABLE IF NOT EXISTS OVERRIDES (FROM CodeEntity TO CodeEntity)",
	"CREATE REL TABLE IF NOT EXISTS USES (FROM CodeEntity TO CodeEntity, kind STRING)",
}

// KuzuDatabase implements GraphDatabase on an embedded Kuzu database.
// Queries share one connection and are serialized.
type KuzuDatabase struct {
	db     *kuzu.Database
	conn   *kuzu.Connection
	logger *zap.Logger
	mu     sync.Mutex
}

// NewKuzuDatabase opens the database at databasePath, or an in-memory one
// for ":memory:" and "", and creates the entity schema
func NewKuzuDatabase(databasePath string, logger *zap.Logger) (*KuzuDatabase, error) {
	var db *kuzu.Database
	var err error

	if databasePath == ":memory:" || databasePath == "" {
		db, err = kuzu.OpenInMemoryDatabase(kuzu.DefaultSystemConfig())
	} else {
		db, err = kuzu.OpenDatabase(databasePath, kuzu.DefaultSystemConfig())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create Kuzu database: %w", err)
	}

	conn, err := kuzu.OpenConnection(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create Kuzu connection: %w", err)
	}

	kdb := &KuzuDatabase{db: db, conn: conn, logger: logger}
	for _, statement := range kuzuSchema {
		if _, err := kdb.execute(context.Background(), statement, nil); err != nil {
			kdb.Close(context.Background())
			return nil, fmt.Errorf("failed to initialize Kuzu schema: %w", err)
		}
	}
	logger.Info("Opened Kuzu database", zap.String("path", databasePath))
	return kdb, nil
}

func (db *KuzuDatabase) VerifyConnectivity(ctx context.Context) error {
	if _, err := db.execute(ctx, "RETURN 1", nil); err != nil {
		return fmt.Errorf("failed to verify Kuzu connectivity: %w", err)
	}
	return nil
}

func (db *KuzuDatabase) Close(ctx context.Context) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.conn != nil {
		db.conn.Close()
		db.conn = nil
	}
	if db.db != nil {
		db.db.Close()
		db.db = nil
	}
	return nil
}

func (db *KuzuDatabase) ExecuteRead(ctx context.Context, query string, params map[string]any) ([]map[string]any, error) {
	return db.execute(ctx, query, params)
}

func (db *KuzuDatabase) ExecuteWrite(ctx context.Context, query string, params map[string]any) ([]map[string]any, error) {
	return db.execute(ctx, query, params)
}

// ExecuteReadSingle runs a read query that must return exactly one record
func (db *KuzuDatabase) ExecuteReadSingle(ctx context.Context, query string, params map[string]any) (map[string]any, error) {
	records, err := db.ExecuteRead(ctx, query, params)
	if err != nil {
		return nil, err
	}
	return single(records)
}

func (db *KuzuDatabase) execute(ctx context.Context, query string, params map[string]any) ([]map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	db.mu.Lock()
	defer db.mu.Unlock()
	if db.conn == nil {
		return nil, fmt.Errorf("kuzu database is closed")
	}

	result, err := db.run(query, params)
	if err != nil {
		db.logger.Error("Failed to execute Kuzu query",
			zap.String("query", query),
			zap.Int("params", len(params)),
			zap.Error(err))
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer result.Close()

	return collectRows(result)
}

// run executes query directly, or as a prepared statement when it has parameters
func (db *KuzuDatabase) run(query string, params map[string]any) (*kuzu.QueryResult, error) {
	if len(params) == 0 {
		return db.conn.Query(query)
	}

	statement, err := db.conn.Prepare(query)
	if err != nil {
		return nil, fmt.Errorf("prepare: %w", err)
	}
	defer statement.Close()
	return db.conn.Execute(statement, params)
}

// collectRows drains a result into column-name keyed records, flattening
// nodes into their property maps
func collectRows(result *kuzu.QueryResult) ([]map[string]any, error) {
	var records []map[string]any
	for result.HasNext() {
		tuple, err := result.Next()
		if err != nil {
			return nil, fmt.Errorf("failed to read result row: %w", err)
		}
		row, err := tuple.GetAsMap()
		if err != nil {
			return nil, fmt.Errorf("failed to convert result row: %w", err)
		}
		for key, value := range row {
			if node, ok := value.(kuzu.Node); ok {
				row[key] = node.Properties
			}
		}
		records = append(records, row)
	}
	return records, nil
}
