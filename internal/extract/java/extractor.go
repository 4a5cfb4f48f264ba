// Package java extracts classes, methods, fields and their references from
// Java sources with tree-sitter. Names are resolved syntactically: receivers
// are typed from parameters, locals and fields, and calls are matched by
// name and argument count.
package java

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"refactor-bot/internal/extract"
	"refactor-bot/internal/util"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	java "github.com/tree-sitter/tree-sitter-java/bindings/go"
	"go.uber.org/zap"
)

// Extractor parses Java files into an extract.Result
type Extractor struct {
	parser   *tree_sitter.Parser
	language *tree_sitter.Language
	logger   *zap.Logger
	mu       sync.Mutex // tree-sitter parsers are not thread-safe
}

// NewExtractor creates a new Java extractor
func NewExtractor(logger *zap.Logger) (*Extractor, error) {
	parser := tree_sitter.NewParser()
	language := tree_sitter.NewLanguage(java.Language())

	if err := parser.SetLanguage(language); err != nil {
		return nil, fmt.Errorf("failed to set Java language: %w", err)
	}

	return &Extractor{
		parser:   parser,
		language: language,
		logger:   logger,
	}, nil
}

// Close releases the parser
func (e *Extractor) Close() {
	e.parser.Close()
}

// ExtractDir extracts every .java file under root, skipping paths that
// contain one of skip
func (e *Extractor) ExtractDir(ctx context.Context, root string, skip []string) (*extract.Result, error) {
	sources := make(map[string][]byte)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel := util.ToRelativePath(root, path)
		for _, s := range skip {
			if s != "" && strings.Contains(rel, s) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
		}
		if d.IsDir() || !strings.HasSuffix(path, ".java") {
			return nil
		}
		src, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		sources[rel] = src
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("Extracting Java sources", zap.String("root", root), zap.Int("files", len(sources)))
	return e.ExtractSources(ctx, sources)
}

// ExtractSources extracts a set of files that resolve against each other
func (e *Extractor) ExtractSources(ctx context.Context, sources map[string][]byte) (*extract.Result, error) {
	paths := make([]string, 0, len(sources))
	for p := range sources {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	u := newUniverse()
	var trees []*tree_sitter.Tree
	defer func() {
		for _, t := range trees {
			t.Close()
		}
	}()

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		src := sources[path]
		tree := e.parse(src)
		if tree == nil {
			e.logger.Warn("Failed to parse Java file", zap.String("path", path))
			continue
		}
		trees = append(trees, tree)
		u.declareFile(path, src, tree.RootNode())
	}

	u.resolveOverrides()
	for _, c := range u.classes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, m := range c.methods {
			u.collectReferences(m)
		}
	}

	result := u.result()
	e.logger.Debug("Java extraction finished",
		zap.Int("classes", len(result.Classes)),
		zap.Int("methods", len(result.Methods)),
		zap.Int("fields", len(result.Fields)),
		zap.Int("references", len(result.References)))
	return result, nil
}

func (e *Extractor) parse(src []byte) *tree_sitter.Tree {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.parser.Parse(src, nil)
}
