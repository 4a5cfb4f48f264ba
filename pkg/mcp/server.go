package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"refactor-bot/internal/config"
	"refactor-bot/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

type RecommendServer struct {
	server   *mcp.Server
	analyzer *service.Analyzer
	config   *config.Config
	logger   *zap.Logger
	handler  *mcp.StreamableHTTPHandler
}

type RecommendMovesParams struct {
	RepoName    string   `json:"repo_name" jsonschema:"the name of the configured repository to analyze"`
	Algorithms  []string `json:"algorithms,omitempty" jsonschema:"algorithms to run, all when empty"`
	Mode        string   `json:"mode,omitempty" jsonschema:"combine (default) or intersect"`
	MinAccuracy *float64 `json:"min_accuracy,omitempty" jsonschema:"drop proposals below this accuracy, 0 keeps everything"`
	TopN        int      `json:"top_n,omitempty" jsonschema:"keep only the N most accurate proposals"`
}

type ListAlgorithmsParams struct{}

func NewRecommendServer(analyzer *service.Analyzer, cfg *config.Config, logger *zap.Logger) *RecommendServer {
	server := &RecommendServer{
		analyzer: analyzer,
		config:   cfg,
		logger:   logger,
	}

	mcpServer := mcp.NewServer(&mcp.Implementation{
		Name:    "RefactorBot",
		Version: "1.0.0",
	}, nil)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "recommendMoves",
		Description: "Recommend move-method and move-field refactorings for a repository. Returns each entity to move, its target class and the accuracy of the proposal",
	}, server.handleRecommendMoves)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "listAlgorithms",
		Description: "List the recommendation algorithms that recommendMoves can run",
	}, server.handleListAlgorithms)

	server.handler = mcp.NewStreamableHTTPHandler(func(req *http.Request) *mcp.Server {
		return mcpServer
	}, nil)

	server.server = mcpServer
	return server
}

func textResult(text string, isError bool) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: isError,
	}
}

func (s *RecommendServer) handleRecommendMoves(ctx context.Context, req *mcp.CallToolRequest, args RecommendMovesParams) (*mcp.CallToolResult, any, error) {
	s.logger.Info("Handling recommendMoves request",
		zap.String("repo_name", args.RepoName),
		zap.Strings("algorithms", args.Algorithms))

	report, err := s.analyzer.RecommendMoves(ctx, service.MoveRequest{
		RepoName: args.RepoName,
		Request: service.Request{
			Algorithms:  args.Algorithms,
			Mode:        args.Mode,
			MinAccuracy: args.MinAccuracy,
			TopN:        args.TopN,
		},
	})
	if err != nil {
		s.logger.Error("Failed to recommend moves", zap.String("repo_name", args.RepoName), zap.Error(err))
		return textResult(fmt.Sprintf("Failed to recommend moves: %v", err), true), nil, nil
	}

	return textResult(formatReport(report), false), nil, nil
}

func (s *RecommendServer) handleListAlgorithms(ctx context.Context, req *mcp.CallToolRequest, args ListAlgorithmsParams) (*mcp.CallToolResult, any, error) {
	return textResult(strings.Join(s.analyzer.Algorithms(), "\n"), false), nil, nil
}

// formatReport renders a report as a short summary followed by the JSON proposals
func formatReport(report *service.Report) string {
	var result strings.Builder
	fmt.Fprintf(&result, "Repository %s: %d classes, %d entities, mode %s\n",
		report.Repository, report.Classes, report.Entities, report.Mode)
	for _, r := range report.Results {
		if r.Failed() {
			fmt.Fprintf(&result, "- %s failed: %s\n", r.AlgorithmName, r.Error)
			continue
		}
		fmt.Fprintf(&result, "- %s: %d proposals\n", r.AlgorithmName, len(r.Refactorings))
	}
	if len(report.Refactorings) == 0 {
		result.WriteString("No moves recommended.\n")
		return result.String()
	}

	for _, r := range report.Refactorings {
		fmt.Fprintf(&result, "Move %s to %s (accuracy %.3f)\n", r.Entity, r.Target, r.Accuracy)
	}
	if data, err := json.Marshal(report.Refactorings); err == nil {
		result.WriteString(string(data))
	}
	return result.String()
}

// SetupHTTPRoutes mounts the MCP handler under /mcp and, when an MCP port is
// configured, serves it on its own listener as well
func (s *RecommendServer) SetupHTTPRoutes(router *gin.Engine) {
	router.Any("/mcp", gin.WrapH(s.handler))

	if s.config == nil || s.config.Mcp.Port == 0 {
		return
	}
	go func() {
		address := s.config.Mcp.GetAddress()
		s.logger.Info("MCP Server going to listen", zap.String("address", address))
		if err := http.ListenAndServe(address, s.handler); err != nil {
			s.logger.Error("MCP Server failed", zap.Error(err))
		}
	}()
}
