package database

import (
	"database/sql"
	"fmt"
	"lengolf/model"

	"github.com/jmoiron/sqlx"
)

const productColumns = `id, product_name, category, unit, reorder_threshold, supplier_id, is_active`

func CreateProduct(db DBTX, p model.Product) (int, error) {
	const q = `
		INSERT INTO products (product_name, category, unit, reorder_threshold, supplier_id, is_active)
		VALUES (:product_name, :category, :unit, :reorder_threshold, :supplier_id, :is_active)`
	res, err := db.NamedExec(q, p)
	if err != nil {
		return 0, fmt.Errorf("failed to create product %s: %w", p.ProductName, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get new product id: %w", err)
	}
	return int(id), nil
}

func UpdateProduct(db DBTX, p model.Product) error {
	const q = `
		UPDATE products SET
			product_name = :product_name,
			category = :category,
			unit = :unit,
			reorder_threshold = :reorder_threshold,
			supplier_id = :supplier_id,
			is_active = :is_active
		WHERE id = :id`
	res, err := db.NamedExec(q, p)
	if err != nil {
		return fmt.Errorf("failed to update product %d: %w", p.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// GetAllProducts lists products, optionally filtered by category.
func GetAllProducts(db DBTX, category string, activeOnly bool) ([]model.Product, error) {
	q := `SELECT ` + productColumns + ` FROM products`
	conditions := []string{}
	args := []interface{}{}
	if category != "" {
		conditions = append(conditions, `category = ?`)
		args = append(args, category)
	}
	if activeOnly {
		conditions = append(conditions, `is_active = 1`)
	}
	for i, cond := range conditions {
		if i == 0 {
			q += ` WHERE ` + cond
		} else {
			q += ` AND ` + cond
		}
	}
	q += ` ORDER BY category, product_name, id`

	var products []model.Product
	if err := db.Select(&products, q, args...); err != nil {
		return nil, fmt.Errorf("failed to get products: %w", err)
	}
	return products, nil
}

func GetProductByID(db DBTX, id int) (model.Product, error) {
	var p model.Product
	err := db.Get(&p, `SELECT `+productColumns+` FROM products WHERE id = ?`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return model.Product{}, err
		}
		return model.Product{}, fmt.Errorf("failed to get product %d: %w", id, err)
	}
	return p, nil
}

// InsertStockCountsInTx records a batch of counts keyed in together.
func InsertStockCountsInTx(tx *sqlx.Tx, counts []model.StockCount) error {
	const q = `
		INSERT INTO stock_counts (product_id, staff_id, count_date, quantity, note, created_at)
		VALUES (:product_id, :staff_id, :count_date, :quantity, :note, :created_at)`
	stmt, err := tx.PrepareNamed(q)
	if err != nil {
		return fmt.Errorf("failed to prepare stock count insert: %w", err)
	}
	defer stmt.Close()

	now := UTCNow()
	for _, c := range counts {
		if c.CreatedAt == "" {
			c.CreatedAt = now
		}
		if _, err := stmt.Exec(c); err != nil {
			return fmt.Errorf("failed to insert stock count for product %d: %w", c.ProductID, err)
		}
	}
	return nil
}

// GetAllStockCounts returns every count ordered newest first per product,
// which is the shape the usage-rate report wants.
func GetAllStockCounts(db DBTX) ([]model.StockCount, error) {
	var counts []model.StockCount
	err := db.Select(&counts, `
		SELECT id, product_id, staff_id, count_date, quantity, note, created_at
		FROM stock_counts
		ORDER BY product_id, count_date DESC, created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to get stock counts: %w", err)
	}
	return counts, nil
}

func GetStockCountsForProduct(db DBTX, productID int) ([]model.StockCount, error) {
	var counts []model.StockCount
	err := db.Select(&counts, `
		SELECT id, product_id, staff_id, count_date, quantity, note, created_at
		FROM stock_counts
		WHERE product_id = ?
		ORDER BY count_date DESC, created_at DESC, id DESC`, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to get stock counts for product %d: %w", productID, err)
	}
	return counts, nil
}
