package codegraph

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"refactor-bot/internal/extract"
	"refactor-bot/internal/model/entity"

	"go.uber.org/zap"
)

const (
	kindClass  = "class"
	kindMethod = "method"
	kindField  = "field"
)

// Store persists extraction results per repository and reads them back
type Store struct {
	db     GraphDatabase
	logger *zap.Logger
}

func NewStore(db GraphDatabase, logger *zap.Logger) *Store {
	return &Store{db: db, logger: logger}
}

func (s *Store) Close(ctx context.Context) error {
	return s.db.Close(ctx)
}

func entityKey(repo, identifier string) string {
	return repo + "|" + identifier
}

func movableValue(m *bool) string {
	if m == nil {
		return ""
	}
	return strconv.FormatBool(*m)
}

func parseMovable(v any) *bool {
	s, _ := v.(string)
	b, err := strconv.ParseBool(s)
	if err != nil {
		return nil
	}
	return &b
}

// DeleteRepository removes every entity stored for repo
func (s *Store) DeleteRepository(ctx context.Context, repo string) error {
	_, err := s.db.ExecuteWrite(ctx,
		"MATCH (n:CodeEntity) WHERE n.repo = $repo DETACH DELETE n",
		map[string]any{"repo": repo})
	if err != nil {
		return fmt.Errorf("failed to delete repository %s: %w", repo, err)
	}
	return nil
}

// SaveRepository replaces the stored graph of repo with result
func (s *Store) SaveRepository(ctx context.Context, repo string, result *extract.Result) error {
	if err := s.DeleteRepository(ctx, repo); err != nil {
		return err
	}

	create := `CREATE (:CodeEntity {key: $key, repo: $repo, identifier: $identifier, kind: $kind, owner: $owner,
		isStatic: $isStatic, isAbstract: $isAbstract, isOverride: $isOverride, isConstructor: $isConstructor,
		movable: $movable, file: $file, fieldType: $fieldType})`

	node := func(identifier, kind, owner string) map[string]any {
		return map[string]any{
			"key":           entityKey(repo, identifier),
			"repo":          repo,
			"identifier":    identifier,
			"kind":          kind,
			"owner":         owner,
			"isStatic":      false,
			"isAbstract":    false,
			"isOverride":    false,
			"isConstructor": false,
			"movable":       "",
			"file":          "",
			"fieldType":     "",
		}
	}

	for _, c := range result.Classes {
		params := node(c.Name, kindClass, "")
		params["file"] = c.File
		if _, err := s.db.ExecuteWrite(ctx, create, params); err != nil {
			return fmt.Errorf("failed to save class %s: %w", c.Name, err)
		}
	}
	for _, m := range result.Methods {
		params := node(m.Identifier, kindMethod, m.Class)
		params["isStatic"] = m.Static
		params["isAbstract"] = m.Abstract
		params["isOverride"] = m.Override
		params["isConstructor"] = m.Constructor
		params["movable"] = movableValue(m.Movable)
		if _, err := s.db.ExecuteWrite(ctx, create, params); err != nil {
			return fmt.Errorf("failed to save method %s: %w", m.Identifier, err)
		}
	}
	for _, f := range result.Fields {
		params := node(f.Identifier, kindField, f.Class)
		params["isStatic"] = f.Static
		params["movable"] = movableValue(f.Movable)
		params["fieldType"] = f.Type
		if _, err := s.db.ExecuteWrite(ctx, create, params); err != nil {
			return fmt.Errorf("failed to save field %s: %w", f.Identifier, err)
		}
	}

	link := func(rel, from, to string, extra string, params map[string]any) error {
		query := fmt.Sprintf(`MATCH (a:CodeEntity), (b:CodeEntity) WHERE a.key = $from AND b.key = $to
			CREATE (a)-[:%s%s]->(b)`, rel, extra)
		if params == nil {
			params = map[string]any{}
		}
		params["from"] = entityKey(repo, from)
		params["to"] = entityKey(repo, to)
		if _, err := s.db.ExecuteWrite(ctx, query, params); err != nil {
			return fmt.Errorf("failed to save %s %s -> %s: %w", rel, from, to, err)
		}
		return nil
	}

	for _, c := range result.Classes {
		for _, super := range c.Supertypes {
			if err := link("INHERITS", c.Name, super, "", nil); err != nil {
				return err
			}
		}
	}
	for _, o := range result.Overrides {
		if err := link("OVERRIDES", o.Method, o.Ancestor, "", nil); err != nil {
			return err
		}
	}
	for _, r := range result.References {
		if err := link("USES", r.From, r.To, " {kind: $kind}", map[string]any{"kind": string(r.Kind)}); err != nil {
			return err
		}
	}

	s.logger.Info("Saved repository graph",
		zap.String("repo", repo),
		zap.Int("classes", len(result.Classes)),
		zap.Int("methods", len(result.Methods)),
		zap.Int("fields", len(result.Fields)),
		zap.Int("references", len(result.References)))
	return nil
}

// LoadResult reads back the declarations and references stored for repo.
// Links whose target was never stored are dropped on save.
func (s *Store) LoadResult(ctx context.Context, repo string) (*extract.Result, error) {
	records, err := s.db.ExecuteRead(ctx, `MATCH (n:CodeEntity) WHERE n.repo = $repo
		RETURN n.identifier AS identifier, n.kind AS kind, n.owner AS owner, n.isStatic AS isStatic,
			n.isAbstract AS isAbstract, n.isOverride AS isOverride, n.isConstructor AS isConstructor,
			n.movable AS movable, n.file AS file, n.fieldType AS fieldType`,
		map[string]any{"repo": repo})
	if err != nil {
		return nil, fmt.Errorf("failed to load entities of %s: %w", repo, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("repository %s has no stored graph", repo)
	}

	result := &extract.Result{}
	classes := make(map[string]int)
	for _, r := range records {
		identifier := asString(r["identifier"])
		switch asString(r["kind"]) {
		case kindClass:
			classes[identifier] = len(result.Classes)
			result.Classes = append(result.Classes, extract.Class{Name: identifier, File: asString(r["file"])})
		case kindMethod:
			result.Methods = append(result.Methods, extract.Method{
				Identifier:  identifier,
				Class:       asString(r["owner"]),
				Static:      asBool(r["isStatic"]),
				Abstract:    asBool(r["isAbstract"]),
				Override:    asBool(r["isOverride"]),
				Constructor: asBool(r["isConstructor"]),
				Movable:     parseMovable(r["movable"]),
			})
		case kindField:
			result.Fields = append(result.Fields, extract.Field{
				Identifier: identifier,
				Class:      asString(r["owner"]),
				Static:     asBool(r["isStatic"]),
				Type:       asString(r["fieldType"]),
				Movable:    parseMovable(r["movable"]),
			})
		}
	}

	links := func(rel, extra string) ([]map[string]any, error) {
		query := fmt.Sprintf(`MATCH (a:CodeEntity)-[r:%s]->(b:CodeEntity) WHERE a.repo = $repo
			RETURN a.identifier AS source, b.identifier AS target%s`, rel, extra)
		records, err := s.db.ExecuteRead(ctx, query, map[string]any{"repo": repo})
		if err != nil {
			return nil, fmt.Errorf("failed to load %s links of %s: %w", rel, repo, err)
		}
		return records, nil
	}

	inherits, err := links("INHERITS", "")
	if err != nil {
		return nil, err
	}
	for _, r := range inherits {
		if i, ok := classes[asString(r["source"])]; ok {
			result.Classes[i].Supertypes = append(result.Classes[i].Supertypes, asString(r["target"]))
		}
	}
	for i := range result.Classes {
		sort.Strings(result.Classes[i].Supertypes)
	}

	overrides, err := links("OVERRIDES", "")
	if err != nil {
		return nil, err
	}
	for _, r := range overrides {
		result.Overrides = append(result.Overrides, extract.Override{
			Method:   asString(r["source"]),
			Ancestor: asString(r["target"]),
		})
	}

	uses, err := links("USES", ", r.kind AS kind")
	if err != nil {
		return nil, err
	}
	for _, r := range uses {
		result.References = append(result.References, extract.Reference{
			From: asString(r["source"]),
			To:   asString(r["target"]),
			Kind: extract.ReferenceKind(asString(r["kind"])),
		})
	}

	result.Sort()
	return result, nil
}

// LoadGraph builds the entity graph of a stored repository
func (s *Store) LoadGraph(ctx context.Context, repo string, weight entity.WeightFunc) (*entity.Graph, error) {
	result, err := s.LoadResult(ctx, repo)
	if err != nil {
		return nil, err
	}
	return result.Build(weight)
}

// Repositories lists the repositories that have a stored graph
func (s *Store) Repositories(ctx context.Context) ([]string, error) {
	records, err := s.db.ExecuteRead(ctx,
		"MATCH (n:CodeEntity) RETURN DISTINCT n.repo AS repo", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list repositories: %w", err)
	}
	repos := make([]string, 0, len(records))
	for _, r := range records {
		repos = append(repos, asString(r["repo"]))
	}
	sort.Strings(repos)
	return repos, nil
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asBool(v any) bool {
	b, _ := v.(bool)
	return b
}
