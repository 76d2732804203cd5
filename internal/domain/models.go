package domain

// CartItem is a staged line owned by one customer. A line is addressed by
// (customer, product, operation) for quantity changes; duplicates are allowed
// on insert.
type CartItem struct {
	ID               int64  `db:"id"`
	CustomerID       int64  `db:"customer_id"`
	ProductID        int64  `db:"product_id"`
	ProductName      string `db:"product_name"`
	TaskRef          int64  `db:"task_ref"` // remote task/card behind the line, 0 when unresolved
	Operation        int    `db:"operation"`
	Quantity         int    `db:"quantity"`
	Price            int64  `db:"price"` // minor currency units
	AssemblyRequired bool   `db:"assembly_required"`
	AssemblyPrice    int64  `db:"assembly_price"`
	TouchOrBacklight bool   `db:"touch_or_backlight"`
	PhotosJSON       string `db:"photos_json"`
}

// Subtotal is the line contribution to an order total: price by quantity plus
// the confirmed add-on, added once per line.
func (ci CartItem) Subtotal() int64 {
	total := ci.Price * int64(ci.Quantity)
	if ci.AssemblyRequired {
		total += ci.AssemblyPrice
	}
	return total
}

type Customer struct {
	ID         int64  `db:"id"`
	ChatID     int64  `db:"chat_id"`
	Username   string `db:"username"`
	FirstName  string `db:"first_name"`
	LastName   string `db:"last_name"`
	Phone      string `db:"phone"`
	ChatCRMRef int64  `db:"chat_crm_ref"` // CRM chat behind this customer, 0 when absent
}
