package database

import (
	"database/sql"
	"fmt"
	"lengolf/model"

	"github.com/jmoiron/sqlx"
)

const faqColumns = `id, category, language, question, answer, keywords, sort_order, is_active, updated_at`

// GetFAQByKey looks an entry up by its seed identity (language, question),
// active or not.
func GetFAQByKey(db DBTX, language, question string) (model.FAQEntry, error) {
	var e model.FAQEntry
	err := db.Get(&e, `
		SELECT `+faqColumns+`
		FROM faq_entries
		WHERE language = ? AND question = ?`, language, question)
	if err != nil {
		if err == sql.ErrNoRows {
			return model.FAQEntry{}, err
		}
		return model.FAQEntry{}, fmt.Errorf("failed to get faq entry (%s, %q): %w", language, question, err)
	}
	return e, nil
}

func InsertFAQInTx(tx *sqlx.Tx, e model.FAQEntry) (int, error) {
	if e.UpdatedAt == "" {
		e.UpdatedAt = UTCNow()
	}
	const q = `
		INSERT INTO faq_entries
			(category, language, question, answer, keywords, sort_order, is_active, updated_at)
		VALUES
			(:category, :language, :question, :answer, :keywords, :sort_order, :is_active, :updated_at)`
	res, err := tx.NamedExec(q, e)
	if err != nil {
		return 0, fmt.Errorf("failed to insert faq entry %q: %w", e.Question, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get new faq entry id: %w", err)
	}
	return int(id), nil
}

func UpdateFAQInTx(tx *sqlx.Tx, e model.FAQEntry) error {
	if e.UpdatedAt == "" {
		e.UpdatedAt = UTCNow()
	}
	const q = `
		UPDATE faq_entries SET
			category = :category,
			answer = :answer,
			keywords = :keywords,
			sort_order = :sort_order,
			is_active = :is_active,
			updated_at = :updated_at
		WHERE id = :id`
	if _, err := tx.NamedExec(q, e); err != nil {
		return fmt.Errorf("failed to update faq entry %d: %w", e.ID, err)
	}
	return nil
}

// DeactivateFAQsNotInTx flips is_active off for every active entry whose id
// is not in keepIDs. Used by seeding with --prune.
func DeactivateFAQsNotInTx(tx *sqlx.Tx, keepIDs []int) (int, error) {
	if len(keepIDs) == 0 {
		res, err := tx.Exec(`UPDATE faq_entries SET is_active = 0, updated_at = ? WHERE is_active = 1`, UTCNow())
		if err != nil {
			return 0, fmt.Errorf("failed to deactivate faq entries: %w", err)
		}
		n, _ := res.RowsAffected()
		return int(n), nil
	}

	query, args, err := sqlx.In(
		`UPDATE faq_entries SET is_active = 0, updated_at = ? WHERE is_active = 1 AND id NOT IN (?)`,
		UTCNow(), keepIDs)
	if err != nil {
		return 0, fmt.Errorf("failed to build faq prune query: %w", err)
	}
	res, err := tx.Exec(tx.Rebind(query), args...)
	if err != nil {
		return 0, fmt.Errorf("failed to deactivate pruned faq entries: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// GetActiveFAQs returns active entries, optionally for one language, ordered
// for display.
func GetActiveFAQs(db DBTX, language string) ([]model.FAQEntry, error) {
	q := `SELECT ` + faqColumns + ` FROM faq_entries WHERE is_active = 1`
	args := []interface{}{}
	if language != "" {
		q += ` AND language = ?`
		args = append(args, language)
	}
	q += ` ORDER BY category, sort_order, id`

	var entries []model.FAQEntry
	if err := db.Select(&entries, q, args...); err != nil {
		return nil, fmt.Errorf("failed to get active faq entries: %w", err)
	}
	return entries, nil
}
