package service

import (
	"context"
	"fmt"

	"github.com/rachitv/framl/backend/internal/domain"
	"github.com/rachitv/framl/backend/internal/graph"
)

// connKey dedups connection results: within a query, an entity appears at
// most once per relationship kind.
type connKey struct {
	kind domain.EdgeType
	id   string
}

// UserConnections returns everything directly connected to a user, grouped by
// relationship kind. Inbound shared-attribute and SENT edges are scanned too,
// to recover pairs where this user sits on the non-canonical side. An unknown
// identifier yields empty groups, not an error.
func (s *RelationshipService) UserConnections(ctx context.Context, userID string) (domain.UserConnections, error) {
	conns := domain.UserConnections{
		SentTo:        []domain.User{},
		SharedEmail:   []domain.User{},
		SharedPhone:   []domain.User{},
		SharedAddress: []domain.User{},
		SharedPayment: []domain.User{},
		Transactions:  []domain.Transaction{},
	}

	outTypes := append([]domain.EdgeType{}, domain.SharedUserEdgeTypes...)
	outTypes = append(outTypes, domain.EdgeSent, domain.EdgeInitiated, domain.EdgeReceived)
	inTypes := append([]domain.EdgeType{}, domain.SharedUserEdgeTypes...)
	inTypes = append(inTypes, domain.EdgeSent)

	out, err := s.store.Neighbors(ctx, userID, graph.DirectionOut, outTypes)
	if err != nil {
		return domain.UserConnections{}, fmt.Errorf("scan user %s connections: %w", userID, err)
	}
	in, err := s.store.Neighbors(ctx, userID, graph.DirectionIn, inTypes)
	if err != nil {
		return domain.UserConnections{}, fmt.Errorf("scan user %s connections: %w", userID, err)
	}

	seen := make(map[connKey]struct{})
	for _, n := range append(out, in...) {
		key := connKey{kind: n.EdgeType, id: n.NodeID()}
		if _, dup := seen[key]; dup || key.id == userID {
			continue
		}
		seen[key] = struct{}{}

		switch n.EdgeType {
		case domain.EdgeSent:
			if n.User != nil {
				conns.SentTo = append(conns.SentTo, *n.User)
			}
		case domain.EdgeSharedEmail:
			if n.User != nil {
				conns.SharedEmail = append(conns.SharedEmail, *n.User)
			}
		case domain.EdgeSharedPhone:
			if n.User != nil {
				conns.SharedPhone = append(conns.SharedPhone, *n.User)
			}
		case domain.EdgeSharedAddress:
			if n.User != nil {
				conns.SharedAddress = append(conns.SharedAddress, *n.User)
			}
		case domain.EdgeSharedPayment:
			if n.User != nil {
				conns.SharedPayment = append(conns.SharedPayment, *n.User)
			}
		case domain.EdgeInitiated, domain.EdgeReceived:
			if n.Transaction != nil && n.Direction == graph.DirectionOut {
				conns.Transactions = append(conns.Transactions, *n.Transaction)
			}
		}
	}
	return conns, nil
}

// TransactionConnections returns the users participating in a transaction and
// the transactions linked to it through shared device or IP fingerprints,
// scanning both edge directions. Node labels discriminate the buckets: a
// transaction never lands among the users.
func (s *RelationshipService) TransactionConnections(ctx context.Context, txID string) (domain.TransactionConnections, error) {
	conns := domain.TransactionConnections{
		Users:              []domain.LinkedUser{},
		LinkedTransactions: []domain.LinkedTransaction{},
	}

	inTypes := []domain.EdgeType{domain.EdgeInitiated, domain.EdgeReceived}
	inTypes = append(inTypes, domain.SameTransactionEdgeTypes...)

	in, err := s.store.Neighbors(ctx, txID, graph.DirectionIn, inTypes)
	if err != nil {
		return domain.TransactionConnections{}, fmt.Errorf("scan transaction %s connections: %w", txID, err)
	}
	out, err := s.store.Neighbors(ctx, txID, graph.DirectionOut, domain.SameTransactionEdgeTypes)
	if err != nil {
		return domain.TransactionConnections{}, fmt.Errorf("scan transaction %s connections: %w", txID, err)
	}

	seen := make(map[connKey]struct{})
	for _, n := range append(in, out...) {
		key := connKey{kind: n.EdgeType, id: n.NodeID()}
		if _, dup := seen[key]; dup || key.id == txID {
			continue
		}
		seen[key] = struct{}{}

		switch {
		case n.User != nil:
			conns.Users = append(conns.Users, domain.LinkedUser{
				User:     *n.User,
				LinkType: n.EdgeType,
			})
		case n.Transaction != nil:
			conns.LinkedTransactions = append(conns.LinkedTransactions, domain.LinkedTransaction{
				Transaction: *n.Transaction,
				LinkType:    n.EdgeType,
			})
		}
	}
	return conns, nil
}
