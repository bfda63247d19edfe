package database

import (
	"database/sql"
	"fmt"
	"lengolf/model"
)

const supplierColumns = `id, name, address_line1, address_line2, tax_id,
	default_description, default_unit_price`

func GetAllSuppliers(db DBTX) ([]model.Supplier, error) {
	var suppliers []model.Supplier
	err := db.Select(&suppliers, `SELECT `+supplierColumns+` FROM suppliers ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to get suppliers: %w", err)
	}
	return suppliers, nil
}

func GetSupplierByID(db DBTX, id int) (model.Supplier, error) {
	var s model.Supplier
	err := db.Get(&s, `SELECT `+supplierColumns+` FROM suppliers WHERE id = ?`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return model.Supplier{}, err
		}
		return model.Supplier{}, fmt.Errorf("failed to get supplier %d: %w", id, err)
	}
	return s, nil
}

func GetSupplierByName(db DBTX, name string) (model.Supplier, error) {
	var s model.Supplier
	err := db.Get(&s, `SELECT `+supplierColumns+` FROM suppliers WHERE name = ? ORDER BY id LIMIT 1`, name)
	if err != nil {
		if err == sql.ErrNoRows {
			return model.Supplier{}, err
		}
		return model.Supplier{}, fmt.Errorf("failed to get supplier %q: %w", name, err)
	}
	return s, nil
}

// CheckSupplierTaxIDExists reports whether another supplier already carries
// this tax id. Empty tax ids are never duplicates.
func CheckSupplierTaxIDExists(db DBTX, taxID string, excludeID int) (bool, error) {
	if taxID == "" {
		return false, nil
	}
	var count int
	err := db.Get(&count, `SELECT COUNT(*) FROM suppliers WHERE tax_id = ? AND id != ?`, taxID, excludeID)
	if err != nil {
		return false, fmt.Errorf("failed to check supplier tax id %s: %w", taxID, err)
	}
	return count > 0, nil
}

func CreateSupplier(db DBTX, s model.Supplier) (int, error) {
	const q = `
		INSERT INTO suppliers
			(name, address_line1, address_line2, tax_id, default_description, default_unit_price)
		VALUES
			(:name, :address_line1, :address_line2, :tax_id, :default_description, :default_unit_price)`
	res, err := db.NamedExec(q, s)
	if err != nil {
		return 0, fmt.Errorf("failed to create supplier %s: %w", s.Name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get new supplier id: %w", err)
	}
	return int(id), nil
}

func UpdateSupplier(db DBTX, s model.Supplier) error {
	const q = `
		UPDATE suppliers SET
			name = :name,
			address_line1 = :address_line1,
			address_line2 = :address_line2,
			tax_id = :tax_id,
			default_description = :default_description,
			default_unit_price = :default_unit_price
		WHERE id = :id`
	res, err := db.NamedExec(q, s)
	if err != nil {
		return fmt.Errorf("failed to update supplier %d: %w", s.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
