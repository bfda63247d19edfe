package database

import (
	"fmt"
	"lengolf/model"
)

// InsertDataFix writes the audit row recorded whenever a fix is applied.
func InsertDataFix(db DBTX, fix model.DataFix) error {
	if fix.AppliedAt == "" {
		fix.AppliedAt = UTCNow()
	}
	const q = `
		INSERT INTO data_fixes (fix_name, params, rows_affected, applied_at)
		VALUES (:fix_name, :params, :rows_affected, :applied_at)`
	if _, err := db.NamedExec(q, fix); err != nil {
		return fmt.Errorf("failed to record data fix %s: %w", fix.FixName, err)
	}
	return nil
}

func ListDataFixes(db DBTX, limit int) ([]model.DataFix, error) {
	if limit <= 0 {
		limit = 50
	}
	var fixes []model.DataFix
	err := db.Select(&fixes, `
		SELECT id, fix_name, params, rows_affected, applied_at
		FROM data_fixes
		ORDER BY applied_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list data fixes: %w", err)
	}
	return fixes, nil
}
