package domain

// Stats carries the dashboard totals.
type Stats struct {
	Users        int64 `json:"users"`
	Transactions int64 `json:"transactions"`
	Flagged      int64 `json:"flagged"`
	Review       int64 `json:"review"`
	Clear        int64 `json:"clear"`
}
