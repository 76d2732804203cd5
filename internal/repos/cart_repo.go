package repos

import (
	"database/sql"

	"github.com/jmoiron/sqlx"

	"screenfix/internal/domain"
)

type CartRepo struct{ db *sqlx.DB }

func NewCartRepo(db *sqlx.DB) *CartRepo { return &CartRepo{db: db} }

// Add inserts a new cart line. Duplicate (customer, product, operation) pairs
// are allowed; callers that want accumulation pre-check and increment instead.
func (r *CartRepo) Add(item domain.CartItem) (int64, error) {
	if item.PhotosJSON == "" {
		item.PhotosJSON = "[]"
	}
	res, err := r.db.Exec(`
	  INSERT INTO cart_items(customer_id,product_id,product_name,task_ref,operation,quantity,price,
	    assembly_required,assembly_price,touch_or_backlight,photos_json)
	  VALUES(?,?,?,?,?,?,?,?,?,?,?)
	`, item.CustomerID, item.ProductID, item.ProductName, item.TaskRef, item.Operation, item.Quantity,
		item.Price, item.AssemblyRequired, item.AssemblyPrice, item.TouchOrBacklight, item.PhotosJSON)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *CartRepo) FindAll(customerID int64) ([]domain.CartItem, error) {
	items := []domain.CartItem{}
	err := r.db.Select(&items, `
	  SELECT id, customer_id, product_id, product_name, task_ref, operation, quantity, price,
	         assembly_required, assembly_price, touch_or_backlight, photos_json
	  FROM cart_items WHERE customer_id = ? ORDER BY id
	`, customerID)
	return items, err
}

func (r *CartRepo) Get(id, customerID int64) (domain.CartItem, error) {
	var item domain.CartItem
	err := r.db.Get(&item, `
	  SELECT id, customer_id, product_id, product_name, task_ref, operation, quantity, price,
	         assembly_required, assembly_price, touch_or_backlight, photos_json
	  FROM cart_items WHERE id = ? AND customer_id = ?
	`, id, customerID)
	return item, err
}

// IncrementQuantity adds one to the line addressed by (customer, product,
// operation) and reports whether a line was touched.
func (r *CartRepo) IncrementQuantity(customerID, productID int64, operation int) (bool, error) {
	res, err := r.db.Exec(`
	  UPDATE cart_items SET quantity = quantity + 1
	  WHERE customer_id = ? AND product_id = ? AND operation = ?
	`, customerID, productID, operation)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// DecrementQuantity subtracts one; a line at quantity 1 is removed instead,
// so quantity never falls below 1.
func (r *CartRepo) DecrementQuantity(customerID, productID int64, operation int) (bool, error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	var qty int
	err = tx.Get(&qty, `
	  SELECT quantity FROM cart_items
	  WHERE customer_id = ? AND product_id = ? AND operation = ?
	`, customerID, productID, operation)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if qty <= 1 {
		_, err = tx.Exec(`DELETE FROM cart_items WHERE customer_id = ? AND product_id = ? AND operation = ?`,
			customerID, productID, operation)
	} else {
		_, err = tx.Exec(`
		  UPDATE cart_items SET quantity = quantity - 1
		  WHERE customer_id = ? AND product_id = ? AND operation = ?
		`, customerID, productID, operation)
	}
	if err != nil {
		return false, err
	}
	return true, tx.Commit()
}

func (r *CartRepo) Remove(id, customerID int64) error {
	_, err := r.db.Exec(`DELETE FROM cart_items WHERE id = ? AND customer_id = ?`, id, customerID)
	return err
}

// SetAssembly records the outcome of the add-on confirmation on a line.
func (r *CartRepo) SetAssembly(id, customerID int64, required bool, price int64) error {
	_, err := r.db.Exec(`
	  UPDATE cart_items SET assembly_required = ?, assembly_price = ?
	  WHERE id = ? AND customer_id = ?
	`, required, price, id, customerID)
	return err
}

// Clear deletes all of a customer's lines. Called only after the order and
// its items are durably created.
func (r *CartRepo) Clear(customerID int64) error {
	_, err := r.db.Exec(`DELETE FROM cart_items WHERE customer_id = ?`, customerID)
	return err
}
