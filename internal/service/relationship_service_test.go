package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rachitv/framl/backend/internal/domain"
	"github.com/rachitv/framl/backend/internal/graph"
)

func newTestService() (*RelationshipService, *graph.MemoryStore) {
	store := graph.NewMemoryStore()
	return New(store, nil), store
}

func testUser(id, email string) domain.User {
	return domain.User{ID: id, Name: "user " + id, Email: email}
}

func testTransaction(id, sender, receiver string) domain.Transaction {
	return domain.Transaction{
		ID:         id,
		SenderID:   sender,
		ReceiverID: receiver,
		Amount:     1000,
		Timestamp:  time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func edgesOfType(store *graph.MemoryStore, t domain.EdgeType) []domain.Edge {
	var out []domain.Edge
	for _, e := range store.Edges() {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func TestIngestUserDerivesSharedEmailEdge(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	require.NoError(t, svc.IngestUser(ctx, testUser("U-1", "a@example.com")))
	require.NoError(t, svc.IngestUser(ctx, testUser("U-2", "a@example.com")))

	edges := edgesOfType(store, domain.EdgeSharedEmail)
	require.Len(t, edges, 1)
	assert.Equal(t, "U-1", edges[0].From)
	assert.Equal(t, "U-2", edges[0].To)
}

func TestIngestUserEdgeDirectionIsCanonical(t *testing.T) {
	ctx := context.Background()

	svcA, storeA := newTestService()
	require.NoError(t, svcA.IngestUser(ctx, testUser("U-1", "a@example.com")))
	require.NoError(t, svcA.IngestUser(ctx, testUser("U-2", "a@example.com")))

	svcB, storeB := newTestService()
	require.NoError(t, svcB.IngestUser(ctx, testUser("U-2", "a@example.com")))
	require.NoError(t, svcB.IngestUser(ctx, testUser("U-1", "a@example.com")))

	assert.Equal(t, storeA.Edges(), storeB.Edges())
}

func TestIngestUserIsIdempotent(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	u := testUser("U-1", "a@example.com")
	require.NoError(t, svc.IngestUser(ctx, u))
	require.NoError(t, svc.IngestUser(ctx, testUser("U-2", "a@example.com")))
	before := store.Edges()

	require.NoError(t, svc.IngestUser(ctx, u))
	assert.Equal(t, before, store.Edges())
}

func TestIngestUserNeverLinksToItself(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	require.NoError(t, svc.IngestUser(ctx, testUser("U-1", "a@example.com")))
	require.NoError(t, svc.IngestUser(ctx, testUser("U-1", "a@example.com")))

	assert.Empty(t, store.Edges())
}

func TestIngestUserCliqueCompleteness(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	require.NoError(t, svc.IngestUser(ctx, testUser("U-C", "a@example.com")))
	require.NoError(t, svc.IngestUser(ctx, testUser("U-A", "a@example.com")))
	require.NoError(t, svc.IngestUser(ctx, testUser("U-B", "a@example.com")))

	edges := edgesOfType(store, domain.EdgeSharedEmail)
	assert.ElementsMatch(t, []domain.Edge{
		{Type: domain.EdgeSharedEmail, From: "U-A", To: "U-B"},
		{Type: domain.EdgeSharedEmail, From: "U-A", To: "U-C"},
		{Type: domain.EdgeSharedEmail, From: "U-B", To: "U-C"},
	}, edges)
}

func TestIngestUserAttributeChangePrunesIndexNotEdges(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	require.NoError(t, svc.IngestUser(ctx, testUser("U-1", "a@example.com")))
	require.NoError(t, svc.IngestUser(ctx, testUser("U-2", "a@example.com")))

	// U-1 moves to a new email. U-3 arriving on the old value must link to
	// U-2 only; the historical U-1/U-2 edge stays.
	require.NoError(t, svc.IngestUser(ctx, testUser("U-1", "b@example.com")))
	require.NoError(t, svc.IngestUser(ctx, testUser("U-3", "a@example.com")))

	edges := edgesOfType(store, domain.EdgeSharedEmail)
	assert.ElementsMatch(t, []domain.Edge{
		{Type: domain.EdgeSharedEmail, From: "U-1", To: "U-2"},
		{Type: domain.EdgeSharedEmail, From: "U-2", To: "U-3"},
	}, edges)
}

func TestIngestUserNormalizesBeforeMatching(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	require.NoError(t, svc.IngestUser(ctx, testUser("U-1", "Fraud@Example.COM ")))
	require.NoError(t, svc.IngestUser(ctx, testUser("U-2", "fraud@example.com")))

	assert.Len(t, edgesOfType(store, domain.EdgeSharedEmail), 1)
}

func TestIngestUserValidation(t *testing.T) {
	svc, _ := newTestService()

	err := svc.IngestUser(context.Background(), domain.User{Name: "no id"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestIngestTransactionParticipationEdges(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	require.NoError(t, svc.IngestUser(ctx, testUser("U-1", "a@example.com")))
	require.NoError(t, svc.IngestUser(ctx, testUser("U-2", "b@example.com")))
	require.NoError(t, svc.IngestTransaction(ctx, testTransaction("TX-1", "U-1", "U-2")))

	assert.Equal(t, []domain.Edge{
		{Type: domain.EdgeInitiated, From: "U-1", To: "TX-1"},
	}, edgesOfType(store, domain.EdgeInitiated))
	assert.Equal(t, []domain.Edge{
		{Type: domain.EdgeReceived, From: "U-2", To: "TX-1"},
	}, edgesOfType(store, domain.EdgeReceived))
	assert.Equal(t, []domain.Edge{
		{Type: domain.EdgeSent, From: "U-1", To: "U-2", TxID: "TX-1"},
	}, edgesOfType(store, domain.EdgeSent))
}

func TestIngestTransactionSelfTransferSkipsSent(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	require.NoError(t, svc.IngestUser(ctx, testUser("U-1", "a@example.com")))
	require.NoError(t, svc.IngestTransaction(ctx, testTransaction("TX-1", "U-1", "U-1")))

	assert.Empty(t, edgesOfType(store, domain.EdgeSent))
	assert.Len(t, edgesOfType(store, domain.EdgeInitiated), 1)
	assert.Len(t, edgesOfType(store, domain.EdgeReceived), 1)
}

func TestIngestTransactionSentPerTransaction(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	require.NoError(t, svc.IngestTransaction(ctx, testTransaction("TX-1", "U-1", "U-2")))
	require.NoError(t, svc.IngestTransaction(ctx, testTransaction("TX-2", "U-1", "U-2")))

	assert.Len(t, edgesOfType(store, domain.EdgeSent), 2)
}

func TestIngestTransactionFingerprintFanIn(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	tx1 := testTransaction("TX-1", "U-1", "U-2")
	tx1.IPAddress = "10.0.0.1"
	tx2 := testTransaction("TX-2", "U-2", "U-3")
	tx2.IPAddress = "10.0.0.1"
	tx3 := testTransaction("TX-3", "U-3", "U-1")
	tx3.IPAddress = "10.0.0.1"

	require.NoError(t, svc.IngestTransaction(ctx, tx1))
	require.NoError(t, svc.IngestTransaction(ctx, tx2))
	require.NoError(t, svc.IngestTransaction(ctx, tx3))

	assert.ElementsMatch(t, []domain.Edge{
		{Type: domain.EdgeSameIP, From: "TX-1", To: "TX-2"},
		{Type: domain.EdgeSameIP, From: "TX-1", To: "TX-3"},
		{Type: domain.EdgeSameIP, From: "TX-2", To: "TX-3"},
	}, edgesOfType(store, domain.EdgeSameIP))
}

func TestIngestTransactionValidation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	cases := map[string]domain.Transaction{
		"missing id":        {SenderID: "U-1", ReceiverID: "U-2", Timestamp: time.Now()},
		"missing sender":    {ID: "TX-1", ReceiverID: "U-2", Timestamp: time.Now()},
		"negative amount":   testTransactionWith(func(tx *domain.Transaction) { tx.Amount = -1 }),
		"risk out of range": testTransactionWith(func(tx *domain.Transaction) { tx.RiskScore = 1.5 }),
		"zero timestamp":    testTransactionWith(func(tx *domain.Transaction) { tx.Timestamp = time.Time{} }),
		"unknown status":    testTransactionWith(func(tx *domain.Transaction) { tx.Status = "pending" }),
	}
	for name, tx := range cases {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, svc.IngestTransaction(ctx, tx), domain.ErrValidation)
		})
	}
}

func testTransactionWith(mutate func(*domain.Transaction)) domain.Transaction {
	tx := testTransaction("TX-1", "U-1", "U-2")
	mutate(&tx)
	return tx
}

func TestIngestTransactionDefaults(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	tx := testTransaction("TX-1", "U-1", "U-2")
	tx.Currency = ""
	tx.Status = ""
	require.NoError(t, svc.IngestTransaction(ctx, tx))

	stored, err := store.GetTransaction(ctx, "TX-1")
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultCurrency, stored.Currency)
	assert.Equal(t, domain.StatusClear, stored.Status)
}

func TestShortestPathThroughTransaction(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	require.NoError(t, svc.IngestUser(ctx, testUser("U-A", "a@example.com")))
	require.NoError(t, svc.IngestUser(ctx, testUser("U-B", "b@example.com")))
	require.NoError(t, svc.IngestTransaction(ctx, testTransaction("TX-1", "U-A", "U-B")))

	path, err := svc.ShortestPath(ctx, "U-A", "U-B")
	require.NoError(t, err)
	// The SENT edge links the users directly, one hop.
	assert.Equal(t, 1, path.Hops)
	assert.Equal(t, []string{"U-A", "U-B"}, path.NodeIDs)
}

func TestShortestPathMultiHop(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	require.NoError(t, svc.IngestUser(ctx, testUser("U-A", "shared@example.com")))
	require.NoError(t, svc.IngestUser(ctx, testUser("U-B", "shared@example.com")))
	cUser := testUser("U-C", "c@example.com")
	cUser.Phone = "+91-99999-88888"
	bUpdate := testUser("U-B", "shared@example.com")
	bUpdate.Phone = "+91-99999-88888"
	require.NoError(t, svc.IngestUser(ctx, bUpdate))
	require.NoError(t, svc.IngestUser(ctx, cUser))

	path, err := svc.ShortestPath(ctx, "U-A", "U-C")
	require.NoError(t, err)
	assert.Equal(t, 2, path.Hops)
	assert.Equal(t, []string{"U-A", "U-B", "U-C"}, path.NodeIDs)
}

func TestShortestPathSameUser(t *testing.T) {
	svc, _ := newTestService()

	path, err := svc.ShortestPath(context.Background(), "U-1", "U-1")
	require.NoError(t, err)
	assert.Equal(t, 0, path.Hops)
	assert.Equal(t, []string{"U-1"}, path.NodeIDs)
}

func TestShortestPathDisconnected(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	require.NoError(t, svc.IngestUser(ctx, testUser("U-1", "a@example.com")))
	require.NoError(t, svc.IngestUser(ctx, testUser("U-2", "b@example.com")))

	_, err := svc.ShortestPath(ctx, "U-1", "U-2")
	assert.ErrorIs(t, err, domain.ErrNoPath)
}

func TestShortestPathValidation(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.ShortestPath(context.Background(), "", "U-2")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestUserConnectionsBuckets(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	require.NoError(t, svc.IngestUser(ctx, testUser("U-1", "shared@example.com")))
	require.NoError(t, svc.IngestUser(ctx, testUser("U-2", "shared@example.com")))
	require.NoError(t, svc.IngestTransaction(ctx, testTransaction("TX-1", "U-1", "U-2")))
	require.NoError(t, svc.IngestTransaction(ctx, testTransaction("TX-2", "U-2", "U-1")))

	conns, err := svc.UserConnections(ctx, "U-1")
	require.NoError(t, err)

	require.Len(t, conns.SharedEmail, 1)
	assert.Equal(t, "U-2", conns.SharedEmail[0].ID)

	// U-2 appears in sent_to once despite edges in both directions.
	require.Len(t, conns.SentTo, 1)
	assert.Equal(t, "U-2", conns.SentTo[0].ID)

	require.Len(t, conns.Transactions, 2)
	ids := []string{conns.Transactions[0].ID, conns.Transactions[1].ID}
	assert.ElementsMatch(t, []string{"TX-1", "TX-2"}, ids)

	assert.Empty(t, conns.SharedPhone)
	assert.NotNil(t, conns.SharedPhone)
}

func TestUserConnectionsUnknownUser(t *testing.T) {
	svc, _ := newTestService()

	conns, err := svc.UserConnections(context.Background(), "U-missing")
	require.NoError(t, err)
	assert.Empty(t, conns.SentTo)
	assert.Empty(t, conns.Transactions)
}

func TestTransactionConnections(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	require.NoError(t, svc.IngestUser(ctx, testUser("U-1", "a@example.com")))
	require.NoError(t, svc.IngestUser(ctx, testUser("U-2", "b@example.com")))

	tx1 := testTransaction("TX-1", "U-1", "U-2")
	tx1.DeviceID = "dev-1"
	tx2 := testTransaction("TX-2", "U-2", "U-1")
	tx2.DeviceID = "dev-1"
	require.NoError(t, svc.IngestTransaction(ctx, tx1))
	require.NoError(t, svc.IngestTransaction(ctx, tx2))

	conns, err := svc.TransactionConnections(ctx, "TX-1")
	require.NoError(t, err)

	require.Len(t, conns.Users, 2)
	roles := map[string]domain.EdgeType{}
	for _, lu := range conns.Users {
		roles[lu.User.ID] = lu.LinkType
	}
	assert.Equal(t, domain.EdgeInitiated, roles["U-1"])
	assert.Equal(t, domain.EdgeReceived, roles["U-2"])

	require.Len(t, conns.LinkedTransactions, 1)
	assert.Equal(t, "TX-2", conns.LinkedTransactions[0].Transaction.ID)
	assert.Equal(t, domain.EdgeSameDevice, conns.LinkedTransactions[0].LinkType)
}

func TestHydrateIndexRestoresDerivation(t *testing.T) {
	store := graph.NewMemoryStore()
	ctx := context.Background()

	first := New(store, nil)
	require.NoError(t, first.IngestUser(ctx, testUser("U-1", "a@example.com")))

	// Second service simulates a process restart against the same store.
	second := New(store, nil)
	require.NoError(t, second.HydrateIndex(ctx))
	require.NoError(t, second.IngestUser(ctx, testUser("U-2", "a@example.com")))

	assert.Len(t, edgesOfType(store, domain.EdgeSharedEmail), 1)
}

func TestBulkLoadMatchesIncrementalEdgeSet(t *testing.T) {
	ctx := context.Background()

	users := []domain.User{
		testUser("U-1", "a@example.com"),
		testUser("U-2", "a@example.com"),
		testUser("U-3", "b@example.com"),
	}
	users[2].Phone = "+91-11111-22222"
	users[0].Phone = "+91-11111-22222"

	txs := []domain.Transaction{
		testTransaction("TX-1", "U-1", "U-2"),
		testTransaction("TX-2", "U-2", "U-3"),
		testTransaction("TX-3", "U-3", "U-3"),
	}
	txs[0].IPAddress = "10.0.0.1"
	txs[1].IPAddress = "10.0.0.1"
	txs[2].DeviceID = "dev-1"

	incStore := graph.NewMemoryStore()
	inc := New(incStore, nil)
	for _, u := range users {
		require.NoError(t, inc.IngestUser(ctx, u))
	}
	for _, tx := range txs {
		require.NoError(t, inc.IngestTransaction(ctx, tx))
	}

	bulkStore := graph.NewMemoryStore()
	bulk := New(bulkStore, nil)
	require.NoError(t, bulk.BulkLoad(ctx, users, txs))

	assert.Equal(t, incStore.Edges(), bulkStore.Edges())
}

func TestBulkLoadValidatesBeforeWriting(t *testing.T) {
	store := graph.NewMemoryStore()
	svc := New(store, nil)

	users := []domain.User{testUser("U-1", "a@example.com"), {Name: "no id"}}
	err := svc.BulkLoad(context.Background(), users, nil)
	assert.ErrorIs(t, err, domain.ErrValidation)

	stored, _, listErr := store.ListUsers(context.Background(), graph.ListUsersOptions{})
	require.NoError(t, listErr)
	assert.Empty(t, stored)
}

func TestConcurrentIngestDerivesAllPairs(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("U-%02d", i)
			assert.NoError(t, svc.IngestUser(ctx, testUser(id, "shared@example.com")))
		}(i)
	}
	wg.Wait()

	assert.Len(t, edgesOfType(store, domain.EdgeSharedEmail), n*(n-1)/2)
}

func TestListTransactionsSortFieldAllowList(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.UpsertTransactions(ctx, []domain.Transaction{
		{ID: "TX-1", Timestamp: base},
		{ID: "TX-2", Timestamp: base.Add(time.Hour)},
	}))

	// Unknown sort fields fall back to timestamp ordering, they are never
	// forwarded to the store verbatim.
	txs, _, err := svc.ListTransactions(ctx, graph.ListTransactionsOptions{SortField: "amount; DROP"})
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, "TX-2", txs[0].ID)
}
