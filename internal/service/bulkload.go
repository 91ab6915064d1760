package service

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/rachitv/framl/backend/internal/domain"
	"github.com/rachitv/framl/backend/internal/index"
)

const (
	userBatchSize = 500
	txBatchSize   = 1000
	edgeBatchSize = 1000

	// edgeWriters bounds the concurrent MergeEdges batches during bulk load.
	edgeWriters = 4
)

// BulkLoad constructs the full relationship graph from a dataset snapshot.
// Instead of per-record index lookups it groups entities by attribute value
// and emits each group's complete pairwise clique, which yields the same edge
// set as running IngestUser/IngestTransaction over every record in any order.
// It assumes no concurrent incremental ingestion against the same dataset.
func (s *RelationshipService) BulkLoad(ctx context.Context, users []domain.User, txs []domain.Transaction) error {
	normalizedUsers := make([]domain.User, len(users))
	for i, u := range users {
		normalized, err := normalizeUser(u)
		if err != nil {
			return fmt.Errorf("user %d: %w", i, err)
		}
		normalizedUsers[i] = normalized
	}
	normalizedTxs := make([]domain.Transaction, len(txs))
	for i, tx := range txs {
		normalized, err := normalizeTransaction(tx)
		if err != nil {
			return fmt.Errorf("transaction %d: %w", i, err)
		}
		normalizedTxs[i] = normalized
	}

	for _, batch := range batches(normalizedUsers, userBatchSize) {
		if err := s.store.UpsertUsers(ctx, batch); err != nil {
			return fmt.Errorf("bulk upsert users: %w", err)
		}
	}
	for _, batch := range batches(normalizedTxs, txBatchSize) {
		if err := s.store.UpsertTransactions(ctx, batch); err != nil {
			return fmt.Errorf("bulk upsert transactions: %w", err)
		}
	}

	s.idx.Reset()
	for _, u := range normalizedUsers {
		for _, binding := range userAttributeBindings {
			s.idx.Add(binding.kind, binding.value(u), u.ID)
		}
	}
	for _, tx := range normalizedTxs {
		for _, binding := range txAttributeBindings {
			s.idx.Add(binding.kind, binding.value(tx), tx.ID)
		}
	}

	var edges []domain.Edge
	for _, binding := range userAttributeBindings {
		edges = append(edges, cliqueEdges(s.idx, binding.kind, binding.edge)...)
	}
	for _, binding := range txAttributeBindings {
		edges = append(edges, cliqueEdges(s.idx, binding.kind, binding.edge)...)
	}
	for _, tx := range normalizedTxs {
		edges = append(edges, participationEdges(tx)...)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(edgeWriters)
	for _, batch := range batches(edges, edgeBatchSize) {
		batch := batch
		g.Go(func() error {
			return s.store.MergeEdges(gctx, batch)
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("bulk merge edges: %w", err)
	}
	return nil
}

// cliqueEdges emits one edge per unordered pair in every bucket of the given
// kind. Bucket members come back sorted, so taking i<j pairs is exactly the
// canonical-direction rule.
func cliqueEdges(idx *index.AttributeIndex, kind index.Kind, edgeType domain.EdgeType) []domain.Edge {
	var edges []domain.Edge
	for _, ids := range idx.Buckets(kind) {
		for i := 0; i < len(ids); i++ {
			for j := i + 1; j < len(ids); j++ {
				edges = append(edges, domain.Edge{Type: edgeType, From: ids[i], To: ids[j]})
			}
		}
	}
	return edges
}

func batches[T any](items []T, size int) [][]T {
	if len(items) == 0 {
		return nil
	}
	var out [][]T
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		out = append(out, items[start:end])
	}
	return out
}
