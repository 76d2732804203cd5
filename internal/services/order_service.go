package services

import (
	"database/sql"

	"screenfix/internal/domain"
	"screenfix/internal/repos"
)

type OrderService struct {
	Orders *repos.OrderRepo
}

func NewOrderService(orders *repos.OrderRepo) *OrderService { return &OrderService{Orders: orders} }

// OrderView is one order with its current status (max-timestamp history
// entry) and composition grouped by operation kind.
type OrderView struct {
	Order       domain.Order       `json:"order"`
	Status      string             `json:"status"`
	Items       []domain.OrderItem `json:"items"`
	Composition string             `json:"composition"`
}

func (s *OrderService) History(customerID int64) ([]OrderView, error) {
	orders, err := s.Orders.ListByCustomer(customerID)
	if err != nil {
		return nil, err
	}
	views := make([]OrderView, 0, len(orders))
	for _, o := range orders {
		status, err := s.Orders.CurrentStatus(o.ID)
		if err == sql.ErrNoRows {
			status = "unknown"
		} else if err != nil {
			return nil, err
		}
		items, err := s.Orders.Items(o.ID)
		if err != nil {
			return nil, err
		}
		views = append(views, OrderView{
			Order:       o,
			Status:      status,
			Items:       items,
			Composition: composeByOperation(items),
		})
	}
	return views, nil
}

// UnsyncedItems exposes the reconciliation work queue: order items still
// missing their remote line reference. Nothing retries them automatically.
func (s *OrderService) UnsyncedItems(limit int) ([]domain.OrderItem, error) {
	return s.Orders.UnsyncedItems(limit)
}
