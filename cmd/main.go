package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"refactor-bot/internal/codegraph"
	"refactor-bot/internal/config"
	"refactor-bot/internal/controller"
	"refactor-bot/internal/extract/java"
	"refactor-bot/internal/handler"
	"refactor-bot/internal/service"
	"refactor-bot/internal/util"
	"refactor-bot/pkg/mcp"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	var sourceConfigPath = flag.String("source", "source.yaml", "Path to source configuration file")
	var appConfigPath = flag.String("app", "app.yaml", "Path to app configuration file")
	var workDir = flag.String("workdir", "", "Working directory to store files")
	var analyze = flag.String("analyze", "", "Analyze the named repository once, print the report as JSON and exit")
	var algorithmNames = flag.String("algorithms", "", "Comma separated algorithms for -analyze (default: configured set)")
	var mode = flag.String("mode", "", "Combination mode for -analyze: combine or intersect")
	var minAccuracy = flag.Float64("min-accuracy", -1, "Minimum accuracy for -analyze (default: configured value)")
	flag.Parse()

	cfgZap := zap.NewProductionConfig()
	cfgZap.Level.SetLevel(zapcore.DebugLevel)
	cfgZap.OutputPaths = []string{"stdout", "all.log"}
	if *analyze != "" {
		// stdout carries the report
		cfgZap.OutputPaths = []string{"stderr", "all.log"}
	}
	logger, err := cfgZap.Build()
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}

	defer logger.Sync()

	cfg, err := config.LoadConfig(*appConfigPath, *sourceConfigPath)
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	if *workDir != "" {
		cfg.App.WorkDir = *workDir
	}

	logger.Info("Configuration loaded successfully", zap.Any("config", cfg))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	extractor, err := java.NewExtractor(logger)
	if err != nil {
		logger.Fatal("Failed to initialize Java extractor", zap.Error(err))
	}
	defer extractor.Close()

	store := CodeGraphEntry(cfg, logger)
	if store != nil {
		defer store.Close(context.Background())
	}

	repoService := service.NewRepoService(cfg, extractor, store, logger)
	recommender, err := service.NewRecommendationService(cfg.Recommend, logger)
	if err != nil {
		logger.Fatal("Failed to initialize recommendation service", zap.Error(err))
	}
	analyzer := service.NewAnalyzer(repoService, recommender, logger)

	if *analyze != "" {
		request := service.MoveRequest{RepoName: *analyze, Request: service.Request{Mode: *mode}}
		if *algorithmNames != "" {
			request.Algorithms = strings.Split(*algorithmNames, ",")
		}
		if *minAccuracy >= 0 {
			request.MinAccuracy = util.Ptr(*minAccuracy)
		}
		if err := Analyze(ctx, analyzer, request); err != nil {
			logger.Fatal("Analysis failed", zap.String("repo", *analyze), zap.Error(err))
		}
		return
	}

	if store != nil {
		go func() {
			logger.Info("Starting repository processing thread")
			if _, err := repoService.ProcessAllRepositories(ctx); err != nil {
				logger.Error("Repository processing failed", zap.Error(err))
			}
			logger.Info("Repository processing thread completed")
		}()
	}

	repoController := controller.NewRepoController(analyzer, logger)
	recommendController := controller.NewRecommendController(analyzer, logger)
	mcpServer := mcp.NewRecommendServer(analyzer, cfg, logger)

	router := handler.SetupRouter(repoController, recommendController, mcpServer, logger)

	server := &http.Server{Addr: fmt.Sprintf(":%d", cfg.App.Port), Handler: router}
	go func() {
		<-ctx.Done()
		server.Shutdown(context.Background())
	}()

	logger.Info("Starting server", zap.Int("port", cfg.App.Port))
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("Failed to start server", zap.Error(err))
	}
}

// CodeGraphEntry opens the graph store when it is enabled in the configuration
func CodeGraphEntry(cfg *config.Config, logger *zap.Logger) *codegraph.Store {
	if !cfg.App.CodeGraph {
		logger.Info("CodeGraph is disabled in the configuration")
		return nil
	}

	db, err := codegraph.NewGraphDatabase(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize CodeGraph", zap.Error(err))
	}
	logger.Info("CodeGraph initialized", zap.String("backend", cfg.App.GraphBackend))
	return codegraph.NewStore(db, logger)
}

// Analyze runs one recommendation and writes the report to stdout
func Analyze(ctx context.Context, analyzer *service.Analyzer, request service.MoveRequest) error {
	report, err := analyzer.RecommendMoves(ctx, request)
	if err != nil {
		return err
	}
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}
