package domain

// Path is the shortest connection chain between two users. NodeIDs holds the
// ordered node identifiers from source to target inclusive; Hops is the edge
// count, so len(NodeIDs) == Hops+1.
type Path struct {
	SourceUserID string   `json:"source_user_id"`
	TargetUserID string   `json:"target_user_id"`
	NodeIDs      []string `json:"path"`
	Hops         int      `json:"hops"`
}
