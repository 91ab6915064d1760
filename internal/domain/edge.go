package domain

// EdgeType identifies a relationship kind in the graph. The set is closed:
// stores refuse to merge edges outside it, and query scans skip anything
// unrecognized instead of failing.
type EdgeType string

const (
	EdgeSharedEmail   EdgeType = "SHARED_EMAIL"
	EdgeSharedPhone   EdgeType = "SHARED_PHONE"
	EdgeSharedAddress EdgeType = "SHARED_ADDRESS"
	EdgeSharedPayment EdgeType = "SHARED_PAYMENT"
	EdgeInitiated     EdgeType = "INITIATED"
	EdgeReceived      EdgeType = "RECEIVED"
	EdgeSent          EdgeType = "SENT"
	EdgeSameIP        EdgeType = "SAME_IP"
	EdgeSameDevice    EdgeType = "SAME_DEVICE"
)

// SharedUserEdgeTypes are the user-to-user shared-attribute relationship kinds.
var SharedUserEdgeTypes = []EdgeType{
	EdgeSharedEmail,
	EdgeSharedPhone,
	EdgeSharedAddress,
	EdgeSharedPayment,
}

// SameTransactionEdgeTypes are the transaction-to-transaction fingerprint kinds.
var SameTransactionEdgeTypes = []EdgeType{
	EdgeSameIP,
	EdgeSameDevice,
}

// KnownEdgeType reports whether t belongs to the closed edge-type set.
func KnownEdgeType(t EdgeType) bool {
	switch t {
	case EdgeSharedEmail, EdgeSharedPhone, EdgeSharedAddress, EdgeSharedPayment,
		EdgeInitiated, EdgeReceived, EdgeSent, EdgeSameIP, EdgeSameDevice:
		return true
	}
	return false
}

// Edge is a directed, typed relationship between two node identifiers.
// Identity is (Type, From, To, TxID); merging an identical edge twice is a
// no-op. TxID is set only on SENT edges, where it carries the originating
// transaction identifier.
type Edge struct {
	Type EdgeType `json:"type"`
	From string   `json:"from"`
	To   string   `json:"to"`
	TxID string   `json:"tx_id,omitempty"`
}

// CanonicalEdge builds an undirected pairwise relationship as exactly one
// directed edge, ordering the endpoints lexicographically so both ingestion
// orders produce the same edge.
func CanonicalEdge(t EdgeType, a, b string) Edge {
	if b < a {
		a, b = b, a
	}
	return Edge{Type: t, From: a, To: b}
}
