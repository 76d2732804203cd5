package repos

import (
	"github.com/jmoiron/sqlx"

	"screenfix/internal/domain"
)

type OrderRepo struct{ db *sqlx.DB }

func NewOrderRepo(db *sqlx.DB) *OrderRepo { return &OrderRepo{db: db} }

// Create inserts a new pending order header and returns its id. The total is
// written later, exactly once, via UpdateTotal.
func (r *OrderRepo) Create(customerID int64) (int64, error) {
	res, err := r.db.Exec(`
	  INSERT INTO orders(customer_id, status, total_amount) VALUES(?, ?, 0)
	`, customerID, string(domain.StatusPending))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *OrderRepo) InsertItem(item domain.OrderItem) (int64, error) {
	if item.PhotosJSON == "" {
		item.PhotosJSON = "[]"
	}
	if item.SyncStatus == "" {
		item.SyncStatus = string(domain.SyncPending)
	}
	res, err := r.db.Exec(`
	  INSERT INTO order_items(order_id,product_id,product_name,task_ref,operation,quantity,price,
	    assembly_required,assembly_price,touch_or_backlight,photos_json,remote_ref,sync_status)
	  VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?)
	`, item.OrderID, item.ProductID, item.ProductName, item.TaskRef, item.Operation, item.Quantity,
		item.Price, item.AssemblyRequired, item.AssemblyPrice, item.TouchOrBacklight, item.PhotosJSON,
		item.RemoteRef, item.SyncStatus)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *OrderRepo) UpdateTotal(orderID, total int64) error {
	_, err := r.db.Exec(`UPDATE orders SET total_amount = ? WHERE id = ?`, total, orderID)
	return err
}

func (r *OrderRepo) SetRemoteRef(orderID, remoteRef int64) error {
	_, err := r.db.Exec(`UPDATE orders SET remote_ref = ? WHERE id = ?`, remoteRef, orderID)
	return err
}

// SetItemSync persists the outcome of one remote line creation attempt.
func (r *OrderRepo) SetItemSync(itemID, remoteRef int64, status domain.SyncStatus) error {
	_, err := r.db.Exec(`UPDATE order_items SET remote_ref = ?, sync_status = ? WHERE id = ?`,
		remoteRef, string(status), itemID)
	return err
}

func (r *OrderRepo) Get(orderID int64) (domain.Order, error) {
	var o domain.Order
	err := r.db.Get(&o, `
	  SELECT id, customer_id, status, total_amount, remote_ref, created_at
	  FROM orders WHERE id = ?
	`, orderID)
	return o, err
}

func (r *OrderRepo) Items(orderID int64) ([]domain.OrderItem, error) {
	items := []domain.OrderItem{}
	err := r.db.Select(&items, `
	  SELECT id, order_id, product_id, product_name, task_ref, operation, quantity, price,
	         assembly_required, assembly_price, touch_or_backlight, photos_json, remote_ref, sync_status
	  FROM order_items WHERE order_id = ? ORDER BY id
	`, orderID)
	return items, err
}

func (r *OrderRepo) ListByCustomer(customerID int64) ([]domain.Order, error) {
	orders := []domain.Order{}
	err := r.db.Select(&orders, `
	  SELECT id, customer_id, status, total_amount, remote_ref, created_at
	  FROM orders WHERE customer_id = ? ORDER BY datetime(created_at) DESC, id DESC
	`, customerID)
	return orders, err
}

// AppendStatus adds a history entry; the orders.status column is kept in step
// for cheap listing but history remains the source of truth.
func (r *OrderRepo) AppendStatus(orderID int64, status domain.OrderStatus, comment string) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`
	  INSERT INTO order_status_history(order_id, status, comment) VALUES(?, ?, ?)
	`, orderID, string(status), comment); err != nil {
		return err
	}
	if _, err := tx.Exec(`UPDATE orders SET status = ? WHERE id = ?`, string(status), orderID); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *OrderRepo) History(orderID int64) ([]domain.StatusEntry, error) {
	entries := []domain.StatusEntry{}
	err := r.db.Select(&entries, `
	  SELECT id, order_id, status, timestamp, comment
	  FROM order_status_history WHERE order_id = ? ORDER BY datetime(timestamp), id
	`, orderID)
	return entries, err
}

// CurrentStatus returns the history entry with the maximum timestamp.
func (r *OrderRepo) CurrentStatus(orderID int64) (string, error) {
	var status string
	err := r.db.Get(&status, `
	  SELECT status FROM order_status_history
	  WHERE order_id = ? ORDER BY datetime(timestamp) DESC, id DESC LIMIT 1
	`, orderID)
	return status, err
}

// UnsyncedItems is the reconciliation work queue: items still missing a
// remote line reference.
func (r *OrderRepo) UnsyncedItems(limit int) ([]domain.OrderItem, error) {
	if limit <= 0 {
		limit = 100
	}
	items := []domain.OrderItem{}
	err := r.db.Select(&items, `
	  SELECT id, order_id, product_id, product_name, task_ref, operation, quantity, price,
	         assembly_required, assembly_price, touch_or_backlight, photos_json, remote_ref, sync_status
	  FROM order_items WHERE sync_status != ? ORDER BY id LIMIT ?
	`, string(domain.SyncDone), limit)
	return items, err
}

// CustomerChatByRemoteRef resolves the chat id owning a remote order or line
// reference. Used to route inbound CRM comments back to the customer.
func (r *OrderRepo) CustomerChatByRemoteRef(remoteRef int64) (int64, error) {
	var chatID int64
	err := r.db.Get(&chatID, `
	  SELECT c.chat_id FROM orders o JOIN customers c ON c.id = o.customer_id
	  WHERE o.remote_ref = ?
	  UNION
	  SELECT c.chat_id FROM order_items oi
	    JOIN orders o ON o.id = oi.order_id
	    JOIN customers c ON c.id = o.customer_id
	  WHERE oi.remote_ref = ?
	  LIMIT 1
	`, remoteRef, remoteRef)
	return chatID, err
}
