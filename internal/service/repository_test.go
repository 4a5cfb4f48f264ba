package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"refactor-bot/internal/codegraph"
	"refactor-bot/internal/config"
	"refactor-bot/internal/extract/java"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const accountSource = `package bank;

public class Account {
    private int balance;
    private Ledger ledger;

    public int balance() {
        return balance;
    }

    public void deposit(int amount) {
        balance = balance + amount;
        ledger.record(amount);
    }
}
`

const ledgerSource = `package bank;

public class Ledger {
    private int total;
    private int entries;

    public void record(int amount) {
        total = total + amount;
        entries = entries + 1;
    }

    public int audit(Account account) {
        return account.balance() + total;
    }
}
`

func writeRepo(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	dir := filepath.Join(root, "bank")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Account.java"), []byte(accountSource), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Ledger.java"), []byte(ledgerSource), 0o644))
	return root
}

func newRepoService(t *testing.T, withStore bool) *RepoService {
	t.Helper()
	cfg := &config.Config{}
	cfg.Source.Repositories = []config.Repository{
		{Name: "bank", Path: writeRepo(t), Language: "java"},
		{Name: "scripts", Path: t.TempDir(), Language: "python"},
	}
	cfg.ApplyDefaults()

	extractor, err := java.NewExtractor(zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(extractor.Close)

	var store *codegraph.Store
	if withStore {
		db, err := codegraph.NewKuzuDatabase(":memory:", zap.NewNop())
		require.NoError(t, err)
		store = codegraph.NewStore(db, zap.NewNop())
		t.Cleanup(func() { store.Close(context.Background()) })
	}
	return NewRepoService(cfg, extractor, store, zap.NewNop())
}

func TestRepoService_ProcessRepository(t *testing.T) {
	rs := newRepoService(t, true)

	summary, err := rs.ProcessRepository(context.Background(), "bank")
	require.NoError(t, err)
	assert.Equal(t, "bank", summary.Name)
	assert.Equal(t, 2, summary.Classes)
	assert.Equal(t, 4, summary.Fields)
	assert.Equal(t, 4, summary.Methods)
	assert.True(t, summary.Stored)

	_, err = rs.ProcessRepository(context.Background(), "scripts")
	assert.True(t, errors.Is(err, ErrInvalidRequest))
	_, err = rs.ProcessRepository(context.Background(), "missing")
	assert.True(t, errors.Is(err, ErrInvalidRequest))
}

func TestRepoService_ProcessAllRepositories(t *testing.T) {
	rs := newRepoService(t, false)

	summaries, err := rs.ProcessAllRepositories(context.Background())
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, "bank", summaries[0].Name)
	assert.False(t, summaries[0].Stored)
}

func TestRepoService_LoadGraphExtractsOnDemand(t *testing.T) {
	rs := newRepoService(t, true)

	graph, err := rs.LoadGraph(context.Background(), "bank")
	require.NoError(t, err)
	assert.Len(t, graph.Classes(), 2)

	audit, ok := graph.Lookup("bank.Ledger.audit(Account)")
	require.True(t, ok)
	balance, ok := graph.Lookup("bank.Account.balance()")
	require.True(t, ok)
	assert.Contains(t, graph.References(audit.ID), balance.ID)
}
