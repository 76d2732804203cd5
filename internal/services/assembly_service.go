package services

import (
	"errors"

	"screenfix/internal/dialog"
	"screenfix/internal/domain"
	"screenfix/internal/repos"
)

// ErrNoOpenDialog means no confirmation is currently awaiting this customer;
// stale button presses land here.
var ErrNoOpenDialog = errors.New("no open confirmation dialog")

// AssemblyService drives the short add-on sub-dialog: Offered (state stored
// by CartService.Add) -> Confirmed/Declined -> state cleared.
type AssemblyService struct {
	Carts   *repos.CartRepo
	Dialogs *dialog.Store
}

func NewAssemblyService(carts *repos.CartRepo, dialogs *dialog.Store) *AssemblyService {
	return &AssemblyService{Carts: carts, Dialogs: dialogs}
}

type AssemblyAnswer struct {
	CartItemID int64 `json:"cart_item_id"`
	Confirmed  bool  `json:"confirmed"`
	Price      int64 `json:"price"`
}

// Answer records the customer's Yes/No. Confirm flags the line and persists
// the offered price so the total can be computed locally; Decline leaves the
// line untouched. Either way the transient dialog state is cleared.
func (s *AssemblyService) Answer(customerID int64, confirm bool) (AssemblyAnswer, error) {
	state := s.Dialogs.Get(customerID)
	if state.Step != domain.StepConfirmAssembly {
		return AssemblyAnswer{}, ErrNoOpenDialog
	}
	defer s.Dialogs.Clear(customerID)

	ans := AssemblyAnswer{CartItemID: state.CartItemID, Confirmed: confirm}
	if !confirm {
		return ans, nil
	}
	if err := s.Carts.SetAssembly(state.CartItemID, customerID, true, state.AssemblyPrice); err != nil {
		return AssemblyAnswer{}, err
	}
	ans.Price = state.AssemblyPrice
	return ans, nil
}
