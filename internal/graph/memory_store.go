package graph

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rachitv/framl/backend/internal/domain"
)

// MemoryStore is a complete in-process implementation of the Store contract:
// typed nodes, edges merged by identity, neighbor scans, and an undirected
// breadth-first shortest path. It backs the unit tests and serves as a
// zero-setup store when no graph database is configured.
type MemoryStore struct {
	mu           sync.RWMutex
	users        map[string]domain.User
	transactions map[string]domain.Transaction
	edges        map[edgeKey]struct{}
	out          map[string][]edgeKey
	in           map[string][]edgeKey
}

// edgeKey is the identity of an edge. Two merges with equal keys collapse
// into one edge.
type edgeKey struct {
	Type domain.EdgeType
	From string
	To   string
	TxID string
}

// NewMemoryStore returns an empty in-memory graph.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:        make(map[string]domain.User),
		transactions: make(map[string]domain.Transaction),
		edges:        make(map[edgeKey]struct{}),
		out:          make(map[string][]edgeKey),
		in:           make(map[string][]edgeKey),
	}
}

func (m *MemoryStore) UpsertUser(_ context.Context, user domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = user
	return nil
}

func (m *MemoryStore) UpsertUsers(_ context.Context, users []domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range users {
		m.users[u.ID] = u
	}
	return nil
}

func (m *MemoryStore) UpsertTransaction(_ context.Context, tx domain.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transactions[tx.ID] = tx
	return nil
}

func (m *MemoryStore) UpsertTransactions(_ context.Context, txs []domain.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, tx := range txs {
		m.transactions[tx.ID] = tx
	}
	return nil
}

func (m *MemoryStore) MergeEdges(_ context.Context, edges []domain.Edge) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range edges {
		if !domain.KnownEdgeType(e.Type) {
			return fmt.Errorf("%w: unknown edge type %q", domain.ErrValidation, e.Type)
		}
		if e.From == e.To {
			return fmt.Errorf("%w: self edge on %q", domain.ErrValidation, e.From)
		}
		key := edgeKey{Type: e.Type, From: e.From, To: e.To, TxID: e.TxID}
		if _, exists := m.edges[key]; exists {
			continue
		}
		m.edges[key] = struct{}{}
		m.out[e.From] = append(m.out[e.From], key)
		m.in[e.To] = append(m.in[e.To], key)
	}
	return nil
}

func (m *MemoryStore) GetUser(_ context.Context, id string) (domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return domain.User{}, fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
	}
	return u, nil
}

func (m *MemoryStore) GetTransaction(_ context.Context, id string) (domain.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	tx, ok := m.transactions[id]
	if !ok {
		return domain.Transaction{}, fmt.Errorf("transaction %s: %w", id, domain.ErrNotFound)
	}
	return tx, nil
}

func (m *MemoryStore) ListUsers(_ context.Context, opts ListUsersOptions) ([]domain.User, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	search := strings.ToLower(strings.TrimSpace(opts.Search))
	var matched []domain.User
	for _, u := range m.users {
		if search != "" && !userMatches(u, search) {
			continue
		}
		matched = append(matched, u)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	total := int64(len(matched))
	limit, skip := normalizePage(opts.Limit, opts.Skip)
	return page(matched, limit, skip), total, nil
}

func (m *MemoryStore) ListTransactions(_ context.Context, opts ListTransactionsOptions) ([]domain.Transaction, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	search := strings.ToLower(strings.TrimSpace(opts.Search))
	var matched []domain.Transaction
	for _, tx := range m.transactions {
		if search != "" && !txMatches(tx, search) {
			continue
		}
		if opts.Status != "" && tx.Status != opts.Status {
			continue
		}
		if opts.MinAmount != nil && tx.Amount < *opts.MinAmount {
			continue
		}
		if opts.MaxAmount != nil && tx.Amount > *opts.MaxAmount {
			continue
		}
		matched = append(matched, tx)
	}
	sortTransactions(matched, opts.SortField, opts.Ascending)

	total := int64(len(matched))
	limit, skip := normalizePage(opts.Limit, opts.Skip)
	return page(matched, limit, skip), total, nil
}

func (m *MemoryStore) Neighbors(_ context.Context, id string, dir Direction, types []domain.EdgeType) ([]Neighbor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	wanted := make(map[domain.EdgeType]struct{}, len(types))
	for _, t := range types {
		wanted[t] = struct{}{}
	}

	keys := m.out[id]
	if dir == DirectionIn {
		keys = m.in[id]
	}

	var neighbors []Neighbor
	for _, key := range keys {
		if _, ok := wanted[key.Type]; !ok {
			continue
		}
		farID := key.To
		if dir == DirectionIn {
			farID = key.From
		}
		n := Neighbor{EdgeType: key.Type, Direction: dir}
		if u, ok := m.users[farID]; ok {
			user := u
			n.User = &user
		} else if tx, ok := m.transactions[farID]; ok {
			transaction := tx
			n.Transaction = &transaction
		} else {
			// Dangling endpoint: the edge exists but the node was never
			// ingested. Skipped, matching MATCH semantics in the Cypher store.
			continue
		}
		neighbors = append(neighbors, n)
	}
	return neighbors, nil
}

// ShortestPath runs an unweighted breadth-first search treating every edge as
// bidirectional, over users and transactions alike.
func (m *MemoryStore) ShortestPath(_ context.Context, sourceID, targetID string) (domain.Path, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	notFound := fmt.Errorf("%s -> %s: %w", sourceID, targetID, domain.ErrNoPath)
	if _, ok := m.users[sourceID]; !ok {
		return domain.Path{}, notFound
	}
	if _, ok := m.users[targetID]; !ok {
		return domain.Path{}, notFound
	}

	parent := map[string]string{sourceID: sourceID}
	queue := []string{sourceID}
	found := false
	for len(queue) > 0 && !found {
		current := queue[0]
		queue = queue[1:]
		for _, next := range m.adjacent(current) {
			if _, seen := parent[next]; seen {
				continue
			}
			parent[next] = current
			if next == targetID {
				found = true
				break
			}
			queue = append(queue, next)
		}
	}
	if !found {
		return domain.Path{}, notFound
	}

	var reversed []string
	for node := targetID; ; node = parent[node] {
		reversed = append(reversed, node)
		if node == sourceID {
			break
		}
	}
	nodeIDs := make([]string, 0, len(reversed))
	for i := len(reversed) - 1; i >= 0; i-- {
		nodeIDs = append(nodeIDs, reversed[i])
	}

	return domain.Path{
		SourceUserID: sourceID,
		TargetUserID: targetID,
		NodeIDs:      nodeIDs,
		Hops:         len(nodeIDs) - 1,
	}, nil
}

func (m *MemoryStore) adjacent(id string) []string {
	var ids []string
	for _, key := range m.out[id] {
		ids = append(ids, key.To)
	}
	for _, key := range m.in[id] {
		ids = append(ids, key.From)
	}
	return ids
}

func (m *MemoryStore) Stats(_ context.Context) (domain.Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := domain.Stats{
		Users:        int64(len(m.users)),
		Transactions: int64(len(m.transactions)),
	}
	for _, tx := range m.transactions {
		switch tx.Status {
		case domain.StatusFlagged:
			stats.Flagged++
		case domain.StatusReview:
			stats.Review++
		case domain.StatusClear:
			stats.Clear++
		}
	}
	return stats, nil
}

func (m *MemoryStore) ExportUsers(_ context.Context) ([]domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	users := make([]domain.User, 0, len(m.users))
	for _, u := range m.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (m *MemoryStore) ExportTransactions(_ context.Context) ([]domain.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	txs := make([]domain.Transaction, 0, len(m.transactions))
	for _, tx := range m.transactions {
		txs = append(txs, tx)
	}
	sort.Slice(txs, func(i, j int) bool { return txs[i].Timestamp.After(txs[j].Timestamp) })
	return txs, nil
}

func (m *MemoryStore) EnsureIndexes(context.Context) error { return nil }

func (m *MemoryStore) VerifyConnectivity(context.Context) error { return nil }

func (m *MemoryStore) Close(context.Context) error { return nil }

// Edges returns a snapshot of every edge in the graph, used by tests to
// compare derivation strategies.
func (m *MemoryStore) Edges() []domain.Edge {
	m.mu.RLock()
	defer m.mu.RUnlock()

	edges := make([]domain.Edge, 0, len(m.edges))
	for key := range m.edges {
		edges = append(edges, domain.Edge{Type: key.Type, From: key.From, To: key.To, TxID: key.TxID})
	}
	sort.Slice(edges, func(i, j int) bool {
		a, b := edges[i], edges[j]
		if a.Type != b.Type {
			return a.Type < b.Type
		}
		if a.From != b.From {
			return a.From < b.From
		}
		if a.To != b.To {
			return a.To < b.To
		}
		return a.TxID < b.TxID
	})
	return edges
}

func userMatches(u domain.User, search string) bool {
	return strings.Contains(strings.ToLower(u.ID), search) ||
		strings.Contains(strings.ToLower(u.Name), search) ||
		strings.Contains(strings.ToLower(u.Email), search) ||
		strings.Contains(strings.ToLower(u.Phone), search)
}

func txMatches(tx domain.Transaction, search string) bool {
	return strings.Contains(strings.ToLower(tx.ID), search) ||
		strings.Contains(strings.ToLower(tx.SenderID), search) ||
		strings.Contains(strings.ToLower(tx.ReceiverID), search)
}

func sortTransactions(txs []domain.Transaction, field TxSortField, ascending bool) {
	less := func(a, b domain.Transaction) bool {
		switch field {
		case TxSortAmount:
			return a.Amount < b.Amount
		case TxSortRiskScore:
			return a.RiskScore < b.RiskScore
		case TxSortStatus:
			return a.Status < b.Status
		case TxSortID:
			return a.ID < b.ID
		default:
			return a.Timestamp.Before(b.Timestamp)
		}
	}
	sort.Slice(txs, func(i, j int) bool {
		if ascending {
			return less(txs[i], txs[j])
		}
		return less(txs[j], txs[i])
	})
}

func page[T any](items []T, limit, skip int) []T {
	if skip >= len(items) {
		return nil
	}
	items = items[skip:]
	if len(items) > limit {
		items = items[:limit]
	}
	return items
}
