package service

import (
	"context"
	"errors"
	"testing"

	"refactor-bot/internal/extract"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func scenarioResult() *extract.Result {
	return &extract.Result{
		Classes: []extract.Class{{Name: "ClassA"}, {Name: "ClassB"}},
		Methods: []extract.Method{
			{Identifier: "ClassA.mA1()", Class: "ClassA"},
			{Identifier: "ClassB.methodB1()", Class: "ClassB"},
		},
		Fields: []extract.Field{
			{Identifier: "ClassA.a1", Class: "ClassA"},
			{Identifier: "ClassA.a2", Class: "ClassA"},
		},
		References: []extract.Reference{
			{From: "ClassA.mA1()", To: "ClassA.a1"},
			{From: "ClassA.mA1()", To: "ClassA.a2"},
			{From: "ClassB.methodB1()", To: "ClassA.a1"},
			{From: "ClassB.methodB1()", To: "ClassA.a2"},
			{From: "ClassB.methodB1()", To: "ClassA.mA1()"},
		},
	}
}

func TestAnalyzer_InlineGraph(t *testing.T) {
	a := NewAnalyzer(nil, newService(t, nil), zap.NewNop())

	report, err := a.RecommendMoves(context.Background(), MoveRequest{
		Graph:   scenarioResult(),
		Request: Request{Algorithms: []string{"ARI", "CCDA"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "inline", report.Repository)
	require.Len(t, report.Refactorings, 1)
	assert.Equal(t, "ClassB.methodB1()", report.Refactorings[0].Entity)
	assert.Equal(t, "ClassA", report.Refactorings[0].Target)
}

func TestAnalyzer_InvalidRequests(t *testing.T) {
	a := NewAnalyzer(nil, newService(t, nil), zap.NewNop())

	_, err := a.RecommendMoves(context.Background(), MoveRequest{})
	assert.True(t, errors.Is(err, ErrInvalidRequest))

	_, err = a.RecommendMoves(context.Background(), MoveRequest{RepoName: "bank"})
	assert.True(t, errors.Is(err, ErrInvalidRequest))

	broken := &extract.Result{Methods: []extract.Method{{Identifier: "X.m()", Class: "X"}}}
	_, err = a.RecommendMoves(context.Background(), MoveRequest{Graph: broken})
	assert.True(t, errors.Is(err, ErrInvalidRequest))

	_, err = a.RecommendMoves(context.Background(), MoveRequest{Graph: scenarioResult(), Request: Request{Mode: "average"}})
	assert.True(t, errors.Is(err, ErrInvalidRequest))

	_, err = a.RecommendMoves(context.Background(), MoveRequest{Graph: scenarioResult(), Request: Request{Algorithms: []string{"Nope"}}})
	assert.True(t, errors.Is(err, ErrInvalidRequest))
}

func TestAnalyzer_Repository(t *testing.T) {
	a := NewAnalyzer(newRepoService(t, true), newService(t, nil), zap.NewNop())

	summary, err := a.ProcessRepository(context.Background(), "bank")
	require.NoError(t, err)
	assert.True(t, summary.Stored)

	report, err := a.RecommendMoves(context.Background(), MoveRequest{RepoName: "bank"})
	require.NoError(t, err)
	assert.Equal(t, "bank", report.Repository)
	assert.Equal(t, 2, report.Classes)
	assert.Len(t, report.Results, 4)
}
