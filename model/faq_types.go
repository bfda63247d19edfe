package model

// FAQEntry is one seeded question/answer pair for the LINE auto-responder.
// (Language, Question) identifies an entry across seed runs; Keywords is a
// comma-joined list used for search ranking.
type FAQEntry struct {
	ID        int    `db:"id" json:"id"`
	Category  string `db:"category" json:"category"`
	Language  string `db:"language" json:"language"`
	Question  string `db:"question" json:"question"`
	Answer    string `db:"answer" json:"answer"`
	Keywords  string `db:"keywords" json:"keywords"`
	SortOrder int    `db:"sort_order" json:"sortOrder"`
	IsActive  bool   `db:"is_active" json:"isActive"`
	UpdatedAt string `db:"updated_at" json:"updatedAt"`
}
