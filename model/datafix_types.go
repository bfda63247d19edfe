package model

// DataFix is the audit row written whenever a fix command is applied.
// Params is the JSON-encoded argument set, kept so an applied fix can be
// reconstructed later.
type DataFix struct {
	ID           int    `db:"id" json:"id"`
	FixName      string `db:"fix_name" json:"fixName"`
	Params       string `db:"params" json:"params"`
	RowsAffected int    `db:"rows_affected" json:"rowsAffected"`
	AppliedAt    string `db:"applied_at" json:"appliedAt"`
}
