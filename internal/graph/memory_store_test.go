package graph

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rachitv/framl/backend/internal/domain"
)

func seedUsers(t *testing.T, store *MemoryStore, ids ...string) {
	t.Helper()
	for _, id := range ids {
		require.NoError(t, store.UpsertUser(context.Background(), domain.User{ID: id, Name: "user " + id}))
	}
}

func TestMergeEdgesIsIdempotent(t *testing.T) {
	store := NewMemoryStore()
	seedUsers(t, store, "U-1", "U-2")

	edge := domain.Edge{Type: domain.EdgeSharedEmail, From: "U-1", To: "U-2"}
	require.NoError(t, store.MergeEdges(context.Background(), []domain.Edge{edge}))
	require.NoError(t, store.MergeEdges(context.Background(), []domain.Edge{edge}))

	assert.Len(t, store.Edges(), 1)
}

func TestMergeEdgesSentIdentityIncludesTxID(t *testing.T) {
	store := NewMemoryStore()
	seedUsers(t, store, "U-1", "U-2")

	edges := []domain.Edge{
		{Type: domain.EdgeSent, From: "U-1", To: "U-2", TxID: "TX-1"},
		{Type: domain.EdgeSent, From: "U-1", To: "U-2", TxID: "TX-2"},
		{Type: domain.EdgeSent, From: "U-1", To: "U-2", TxID: "TX-1"},
	}
	require.NoError(t, store.MergeEdges(context.Background(), edges))

	assert.Len(t, store.Edges(), 2)
}

func TestMergeEdgesRejectsSelfEdge(t *testing.T) {
	store := NewMemoryStore()

	err := store.MergeEdges(context.Background(), []domain.Edge{
		{Type: domain.EdgeSharedEmail, From: "U-1", To: "U-1"},
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestMergeEdgesRejectsUnknownType(t *testing.T) {
	store := NewMemoryStore()

	err := store.MergeEdges(context.Background(), []domain.Edge{
		{Type: "KNOWS", From: "U-1", To: "U-2"},
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestNeighborsFiltersByTypeAndDirection(t *testing.T) {
	store := NewMemoryStore()
	seedUsers(t, store, "U-1", "U-2", "U-3")

	require.NoError(t, store.MergeEdges(context.Background(), []domain.Edge{
		{Type: domain.EdgeSharedEmail, From: "U-1", To: "U-2"},
		{Type: domain.EdgeSharedPhone, From: "U-1", To: "U-3"},
		{Type: domain.EdgeSharedEmail, From: "U-3", To: "U-1"},
	}))

	out, err := store.Neighbors(context.Background(), "U-1", DirectionOut, []domain.EdgeType{domain.EdgeSharedEmail})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "U-2", out[0].NodeID())
	assert.Equal(t, domain.EdgeSharedEmail, out[0].EdgeType)

	in, err := store.Neighbors(context.Background(), "U-1", DirectionIn, []domain.EdgeType{domain.EdgeSharedEmail})
	require.NoError(t, err)
	require.Len(t, in, 1)
	assert.Equal(t, "U-3", in[0].NodeID())
}

func TestNeighborsSkipsDanglingEndpoints(t *testing.T) {
	store := NewMemoryStore()
	seedUsers(t, store, "U-1")

	require.NoError(t, store.MergeEdges(context.Background(), []domain.Edge{
		{Type: domain.EdgeSharedEmail, From: "U-1", To: "U-ghost"},
	}))

	out, err := store.Neighbors(context.Background(), "U-1", DirectionOut, []domain.EdgeType{domain.EdgeSharedEmail})
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestShortestPathBFS(t *testing.T) {
	store := NewMemoryStore()
	seedUsers(t, store, "U-1", "U-2", "U-3", "U-4")

	// U-1 -- U-2 -- U-3, plus a longer detour U-1 -- U-4 -- U-3.
	require.NoError(t, store.MergeEdges(context.Background(), []domain.Edge{
		{Type: domain.EdgeSharedEmail, From: "U-1", To: "U-2"},
		{Type: domain.EdgeSharedPhone, From: "U-2", To: "U-3"},
		{Type: domain.EdgeSharedEmail, From: "U-1", To: "U-4"},
		{Type: domain.EdgeSharedEmail, From: "U-4", To: "U-3"},
	}))

	path, err := store.ShortestPath(context.Background(), "U-1", "U-3")
	require.NoError(t, err)
	assert.Equal(t, 2, path.Hops)
	assert.Len(t, path.NodeIDs, 3)
	assert.Equal(t, "U-1", path.NodeIDs[0])
	assert.Equal(t, "U-3", path.NodeIDs[2])
}

func TestShortestPathTraversesEdgesBackwards(t *testing.T) {
	store := NewMemoryStore()
	seedUsers(t, store, "U-1", "U-2")

	require.NoError(t, store.MergeEdges(context.Background(), []domain.Edge{
		{Type: domain.EdgeSharedEmail, From: "U-2", To: "U-1"},
	}))

	path, err := store.ShortestPath(context.Background(), "U-1", "U-2")
	require.NoError(t, err)
	assert.Equal(t, 1, path.Hops)
}

func TestShortestPathNoPath(t *testing.T) {
	store := NewMemoryStore()
	seedUsers(t, store, "U-1", "U-2")

	_, err := store.ShortestPath(context.Background(), "U-1", "U-2")
	assert.ErrorIs(t, err, domain.ErrNoPath)

	_, err = store.ShortestPath(context.Background(), "U-1", "U-missing")
	assert.ErrorIs(t, err, domain.ErrNoPath)
}

func TestListUsersSearchAndPaging(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.UpsertUsers(context.Background(), []domain.User{
		{ID: "U-1", Name: "Priya Sharma", Email: "priya@example.com"},
		{ID: "U-2", Name: "Rohan Verma", Email: "rohan@example.com"},
		{ID: "U-3", Name: "Priyanka Das", Email: "pd@example.com"},
	}))

	users, total, err := store.ListUsers(context.Background(), ListUsersOptions{Search: "priya"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, users, 2)
	assert.Equal(t, "U-1", users[0].ID)
	assert.Equal(t, "U-3", users[1].ID)

	users, total, err = store.ListUsers(context.Background(), ListUsersOptions{Limit: 2, Skip: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, users, 1)
	assert.Equal(t, "U-3", users[0].ID)
}

func TestListTransactionsFiltersAndSort(t *testing.T) {
	store := NewMemoryStore()
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.UpsertTransactions(context.Background(), []domain.Transaction{
		{ID: "TX-1", SenderID: "U-1", ReceiverID: "U-2", Amount: 100, Status: domain.StatusClear, Timestamp: base},
		{ID: "TX-2", SenderID: "U-2", ReceiverID: "U-3", Amount: 5000, Status: domain.StatusFlagged, Timestamp: base.Add(time.Hour)},
		{ID: "TX-3", SenderID: "U-1", ReceiverID: "U-3", Amount: 900, Status: domain.StatusFlagged, Timestamp: base.Add(2 * time.Hour)},
	}))

	min := 500.0
	txs, total, err := store.ListTransactions(context.Background(), ListTransactionsOptions{
		Status:    domain.StatusFlagged,
		MinAmount: &min,
		SortField: TxSortAmount,
		Ascending: true,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, txs, 2)
	assert.Equal(t, "TX-3", txs[0].ID)
	assert.Equal(t, "TX-2", txs[1].ID)

	// Default sort is timestamp descending.
	txs, _, err = store.ListTransactions(context.Background(), ListTransactionsOptions{})
	require.NoError(t, err)
	require.Len(t, txs, 3)
	assert.Equal(t, "TX-3", txs[0].ID)
}

func TestStatsCountsByStatus(t *testing.T) {
	store := NewMemoryStore()
	seedUsers(t, store, "U-1", "U-2")
	require.NoError(t, store.UpsertTransactions(context.Background(), []domain.Transaction{
		{ID: "TX-1", Status: domain.StatusClear},
		{ID: "TX-2", Status: domain.StatusFlagged},
		{ID: "TX-3", Status: domain.StatusFlagged},
		{ID: "TX-4", Status: domain.StatusReview},
	}))

	stats, err := store.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.Stats{Users: 2, Transactions: 4, Flagged: 2, Review: 1, Clear: 1}, stats)
}

func TestExportOrdering(t *testing.T) {
	store := NewMemoryStore()
	seedUsers(t, store, "U-2", "U-1")
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.UpsertTransactions(context.Background(), []domain.Transaction{
		{ID: "TX-1", Timestamp: base},
		{ID: "TX-2", Timestamp: base.Add(time.Hour)},
	}))

	users, err := store.ExportUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "U-1", users[0].ID)

	txs, err := store.ExportTransactions(context.Background())
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, "TX-2", txs[0].ID)
}

func TestGetUserNotFound(t *testing.T) {
	store := NewMemoryStore()

	_, err := store.GetUser(context.Background(), "U-missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = store.GetTransaction(context.Background(), "TX-missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
