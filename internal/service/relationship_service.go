package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rachitv/framl/backend/internal/domain"
	"github.com/rachitv/framl/backend/internal/graph"
	"github.com/rachitv/framl/backend/internal/index"
)

// RelationshipService is the relationship-derivation and graph-query engine.
// It owns no storage: the graph store and the attribute index are injected at
// construction, and their lifecycles belong to the caller.
type RelationshipService struct {
	store graph.Store
	idx   *index.AttributeIndex
}

// New constructs a RelationshipService. A nil index gets a fresh empty one.
func New(store graph.Store, idx *index.AttributeIndex) *RelationshipService {
	if idx == nil {
		idx = index.New()
	}
	return &RelationshipService{store: store, idx: idx}
}

// userAttributeBindings pairs each linkable user attribute with its index kind
// and the edge type derived from sharing it.
var userAttributeBindings = []struct {
	kind  index.Kind
	edge  domain.EdgeType
	value func(domain.User) string
}{
	{index.KindEmail, domain.EdgeSharedEmail, func(u domain.User) string { return u.Email }},
	{index.KindPhone, domain.EdgeSharedPhone, func(u domain.User) string { return u.Phone }},
	{index.KindAddress, domain.EdgeSharedAddress, func(u domain.User) string { return u.Address }},
	{index.KindPayment, domain.EdgeSharedPayment, func(u domain.User) string { return u.PaymentMethod }},
}

var txAttributeBindings = []struct {
	kind  index.Kind
	edge  domain.EdgeType
	value func(domain.Transaction) string
}{
	{index.KindIP, domain.EdgeSameIP, func(t domain.Transaction) string { return t.IPAddress }},
	{index.KindDevice, domain.EdgeSameDevice, func(t domain.Transaction) string { return t.DeviceID }},
}

// IngestUser upserts the user node and derives shared-attribute edges against
// every current holder of each attribute value. Re-ingesting the same user is
// a no-op on the edge set.
func (s *RelationshipService) IngestUser(ctx context.Context, user domain.User) error {
	user, err := normalizeUser(user)
	if err != nil {
		return err
	}
	if err := s.store.UpsertUser(ctx, user); err != nil {
		return fmt.Errorf("upsert user %s: %w", user.ID, err)
	}

	var edges []domain.Edge
	for _, binding := range userAttributeBindings {
		for _, peer := range s.idx.Add(binding.kind, binding.value(user), user.ID) {
			edges = append(edges, domain.CanonicalEdge(binding.edge, user.ID, peer))
		}
	}
	if len(edges) == 0 {
		return nil
	}
	if err := s.store.MergeEdges(ctx, edges); err != nil {
		return fmt.Errorf("derive links for user %s: %w", user.ID, err)
	}
	return nil
}

// IngestTransaction upserts the transaction node, links the participants
// (INITIATED, RECEIVED, SENT) and derives SAME_IP/SAME_DEVICE edges against
// transactions sharing the fingerprint. Sender and receiver are not required
// to exist as user nodes; the store decides what a dangling reference means.
func (s *RelationshipService) IngestTransaction(ctx context.Context, tx domain.Transaction) error {
	tx, err := normalizeTransaction(tx)
	if err != nil {
		return err
	}
	if err := s.store.UpsertTransaction(ctx, tx); err != nil {
		return fmt.Errorf("upsert transaction %s: %w", tx.ID, err)
	}

	edges := participationEdges(tx)
	for _, binding := range txAttributeBindings {
		for _, peer := range s.idx.Add(binding.kind, binding.value(tx), tx.ID) {
			edges = append(edges, domain.CanonicalEdge(binding.edge, tx.ID, peer))
		}
	}
	if err := s.store.MergeEdges(ctx, edges); err != nil {
		return fmt.Errorf("derive links for transaction %s: %w", tx.ID, err)
	}
	return nil
}

func participationEdges(tx domain.Transaction) []domain.Edge {
	edges := []domain.Edge{
		{Type: domain.EdgeInitiated, From: tx.SenderID, To: tx.ID},
		{Type: domain.EdgeReceived, From: tx.ReceiverID, To: tx.ID},
	}
	if tx.SenderID != tx.ReceiverID {
		edges = append(edges, domain.Edge{
			Type: domain.EdgeSent,
			From: tx.SenderID,
			To:   tx.ReceiverID,
			TxID: tx.ID,
		})
	}
	return edges
}

// ShortestPath finds the shortest connection chain between two users,
// traversing every edge type in either direction. Returns domain.ErrNoPath
// when none exists.
func (s *RelationshipService) ShortestPath(ctx context.Context, sourceID, targetID string) (domain.Path, error) {
	sourceID = strings.TrimSpace(sourceID)
	targetID = strings.TrimSpace(targetID)
	if sourceID == "" || targetID == "" {
		return domain.Path{}, fmt.Errorf("%w: source and target user ids are required", domain.ErrValidation)
	}
	if sourceID == targetID {
		return domain.Path{
			SourceUserID: sourceID,
			TargetUserID: targetID,
			NodeIDs:      []string{sourceID},
			Hops:         0,
		}, nil
	}
	return s.store.ShortestPath(ctx, sourceID, targetID)
}

// HydrateIndex rebuilds the attribute index from the store. Called at startup
// so incremental ingestion links against entities persisted by earlier runs.
func (s *RelationshipService) HydrateIndex(ctx context.Context) error {
	users, err := s.store.ExportUsers(ctx)
	if err != nil {
		return fmt.Errorf("hydrate index: %w", err)
	}
	txs, err := s.store.ExportTransactions(ctx)
	if err != nil {
		return fmt.Errorf("hydrate index: %w", err)
	}

	s.idx.Reset()
	for _, u := range users {
		for _, binding := range userAttributeBindings {
			s.idx.Add(binding.kind, binding.value(u), u.ID)
		}
	}
	for _, tx := range txs {
		for _, binding := range txAttributeBindings {
			s.idx.Add(binding.kind, binding.value(tx), tx.ID)
		}
	}
	return nil
}

// ListUsers returns users matching the provided filters.
func (s *RelationshipService) ListUsers(ctx context.Context, opts graph.ListUsersOptions) ([]domain.User, int64, error) {
	return s.store.ListUsers(ctx, opts)
}

// ListTransactions returns transactions matching the provided filters. The
// sort field is checked against the allow-list before it reaches the store.
func (s *RelationshipService) ListTransactions(ctx context.Context, opts graph.ListTransactionsOptions) ([]domain.Transaction, int64, error) {
	if opts.SortField != "" && !graph.ValidTxSortField(opts.SortField) {
		opts.SortField = graph.TxSortTimestamp
	}
	return s.store.ListTransactions(ctx, opts)
}

// Stats returns the dashboard totals.
func (s *RelationshipService) Stats(ctx context.Context) (domain.Stats, error) {
	return s.store.Stats(ctx)
}

// ExportUsers returns all users ordered by identifier.
func (s *RelationshipService) ExportUsers(ctx context.Context) ([]domain.User, error) {
	return s.store.ExportUsers(ctx)
}

// ExportTransactions returns all transactions, newest first.
func (s *RelationshipService) ExportTransactions(ctx context.Context) ([]domain.Transaction, error) {
	return s.store.ExportTransactions(ctx)
}
