package graph

import (
	"context"
	"errors"

	"github.com/rachitv/framl/backend/internal/domain"
)

// Direction selects which side of an edge a neighbor scan follows.
type Direction int

const (
	DirectionOut Direction = iota
	DirectionIn
)

// Neighbor is one row of a neighbor scan: the relationship type plus the node
// on the far side. Exactly one of User and Transaction is set, discriminated
// by the node's label in the store.
type Neighbor struct {
	EdgeType    domain.EdgeType
	Direction   Direction
	User        *domain.User
	Transaction *domain.Transaction
}

// NodeID returns the identifier of the far-side node.
func (n Neighbor) NodeID() string {
	if n.User != nil {
		return n.User.ID
	}
	if n.Transaction != nil {
		return n.Transaction.ID
	}
	return ""
}

// ListUsersOptions filters a user listing.
type ListUsersOptions struct {
	Search string
	Limit  int
	Skip   int
}

// TxSortField enumerates the transaction fields a listing may be ordered by.
// The listing queries are parameterized only from this set; a field outside it
// falls back to TxSortTimestamp.
type TxSortField string

const (
	TxSortTimestamp TxSortField = "timestamp"
	TxSortAmount    TxSortField = "amount"
	TxSortRiskScore TxSortField = "risk_score"
	TxSortStatus    TxSortField = "status"
	TxSortID        TxSortField = "id"
)

// ValidTxSortField reports whether f is an allowed sort field.
func ValidTxSortField(f TxSortField) bool {
	switch f {
	case TxSortTimestamp, TxSortAmount, TxSortRiskScore, TxSortStatus, TxSortID:
		return true
	}
	return false
}

// ListTransactionsOptions filters a transaction listing.
type ListTransactionsOptions struct {
	Search    string
	Status    string
	MinAmount *float64
	MaxAmount *float64
	SortField TxSortField
	Ascending bool
	Limit     int
	Skip      int
}

// Store is the property-graph capability the relationship engine is built on:
// typed nodes upserted by identifier, typed edges merged by identity, neighbor
// scans filtered by edge type, and an undirected shortest-path traversal.
// Implementations own persistence concerns (indexing, batching, transactions);
// the engine owns derivation and result shaping.
type Store interface {
	UpsertUser(ctx context.Context, user domain.User) error
	UpsertUsers(ctx context.Context, users []domain.User) error
	UpsertTransaction(ctx context.Context, tx domain.Transaction) error
	UpsertTransactions(ctx context.Context, txs []domain.Transaction) error

	// MergeEdges idempotently creates the given edges. Edges whose endpoints
	// do not exist are skipped or dangled according to the store's own
	// semantics; referential integrity is not enforced here.
	MergeEdges(ctx context.Context, edges []domain.Edge) error

	GetUser(ctx context.Context, id string) (domain.User, error)
	GetTransaction(ctx context.Context, id string) (domain.Transaction, error)
	ListUsers(ctx context.Context, opts ListUsersOptions) ([]domain.User, int64, error)
	ListTransactions(ctx context.Context, opts ListTransactionsOptions) ([]domain.Transaction, int64, error)

	// Neighbors returns the nodes adjacent to id along edges of the given
	// types in the given direction. An unknown id yields an empty result.
	Neighbors(ctx context.Context, id string, dir Direction, types []domain.EdgeType) ([]Neighbor, error)

	// ShortestPath finds an unweighted shortest chain between two user nodes,
	// traversing every edge type in either direction. Returns
	// domain.ErrNoPath when the users are not connected.
	ShortestPath(ctx context.Context, sourceID, targetID string) (domain.Path, error)

	Stats(ctx context.Context) (domain.Stats, error)
	ExportUsers(ctx context.Context) ([]domain.User, error)
	ExportTransactions(ctx context.Context) ([]domain.Transaction, error)

	// EnsureIndexes creates the equality indexes link derivation and lookups
	// depend on. Must be called before bulk loading.
	EnsureIndexes(ctx context.Context) error

	VerifyConnectivity(ctx context.Context) error
	Close(ctx context.Context) error
}

// Options configures a store implementation.
type Options struct {
	URI            string
	Database       string
	Username       string
	Password       string
	MaxConnections int
}

// ErrMissingURI indicates the graph URI is not provided.
var ErrMissingURI = errors.New("graph URI is required")
