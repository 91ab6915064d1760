package domain

// UserConnections groups everything directly connected to a user, one bucket
// per relationship kind. Each connected entity appears at most once per
// bucket, even when both directions of the same logical edge surface it.
type UserConnections struct {
	SentTo        []User        `json:"sent_to"`
	SharedEmail   []User        `json:"shared_email"`
	SharedPhone   []User        `json:"shared_phone"`
	SharedAddress []User        `json:"shared_address"`
	SharedPayment []User        `json:"shared_payment"`
	Transactions  []Transaction `json:"transactions"`
}

// LinkedUser tags a connected user with the participation edge kind
// (INITIATED or RECEIVED).
type LinkedUser struct {
	User     User     `json:"data"`
	LinkType EdgeType `json:"link_type"`
}

// LinkedTransaction tags a connected transaction with the fingerprint edge
// kind (SAME_IP or SAME_DEVICE).
type LinkedTransaction struct {
	Transaction Transaction `json:"data"`
	LinkType    EdgeType    `json:"link_type"`
}

// TransactionConnections groups the participants and fingerprint-linked
// transactions of a transaction.
type TransactionConnections struct {
	Users              []LinkedUser        `json:"users"`
	LinkedTransactions []LinkedTransaction `json:"linked_transactions"`
}
