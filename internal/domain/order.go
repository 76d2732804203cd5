package domain

type OrderStatus string

const (
	StatusPending         OrderStatus = "pending"
	StatusConfirmed       OrderStatus = "confirmed"
	StatusAwaitingPayment OrderStatus = "awaiting_payment"
	StatusCompleted       OrderStatus = "completed"
	StatusCancelled       OrderStatus = "cancelled"
	StatusRefunded        OrderStatus = "refunded"
)

// SyncStatus tracks whether an order item has its remote line reference. A
// failed or pending item is the work queue for reconciliation; it is never
// treated as corruption.
type SyncStatus string

const (
	SyncPending SyncStatus = "pending"
	SyncDone    SyncStatus = "synced"
	SyncFailed  SyncStatus = "failed"
)

type Order struct {
	ID          int64  `db:"id"`
	CustomerID  int64  `db:"customer_id"`
	Status      string `db:"status"`
	TotalAmount int64  `db:"total_amount"`
	RemoteRef   int64  `db:"remote_ref"` // CRM order task id, 0 until synchronized
	CreatedAt   string `db:"created_at"`
}

type OrderItem struct {
	ID               int64  `db:"id"`
	OrderID          int64  `db:"order_id"`
	ProductID        int64  `db:"product_id"`
	ProductName      string `db:"product_name"`
	TaskRef          int64  `db:"task_ref"`
	Operation        int    `db:"operation"`
	Quantity         int    `db:"quantity"`
	Price            int64  `db:"price"`
	AssemblyRequired bool   `db:"assembly_required"`
	AssemblyPrice    int64  `db:"assembly_price"`
	TouchOrBacklight bool   `db:"touch_or_backlight"`
	PhotosJSON       string `db:"photos_json"`
	RemoteRef        int64  `db:"remote_ref"` // CRM line id, 0 until synchronized
	SyncStatus       string `db:"sync_status"`
}

func (oi OrderItem) Subtotal() int64 {
	total := oi.Price * int64(oi.Quantity)
	if oi.AssemblyRequired {
		total += oi.AssemblyPrice
	}
	return total
}

// StatusEntry is one append-only status history row. The order's current
// status is the entry with the maximum timestamp.
type StatusEntry struct {
	ID        int64  `db:"id"`
	OrderID   int64  `db:"order_id"`
	Status    string `db:"status"`
	Timestamp string `db:"timestamp"`
	Comment   string `db:"comment"`
}
