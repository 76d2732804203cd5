package dialog_test

import (
	"testing"
	"time"

	"screenfix/internal/dialog"
	"screenfix/internal/domain"
)

func TestStore_PutGetClear(t *testing.T) {
	s := dialog.NewStore(0)

	s.Put(1, domain.DialogState{Step: domain.StepConfirmAssembly, CartItemID: 42, AssemblyPrice: 300})
	state := s.Get(1)
	if state.Step != domain.StepConfirmAssembly || state.CartItemID != 42 {
		t.Fatalf("bad state: %+v", state)
	}

	// other customers are isolated
	if other := s.Get(2); other.Step != domain.StepNone {
		t.Fatalf("state leaked across customers: %+v", other)
	}

	s.Clear(1)
	if state := s.Get(1); state.Step != domain.StepNone {
		t.Fatalf("clear failed: %+v", state)
	}
}

func TestStore_PutZeroStateDeletes(t *testing.T) {
	s := dialog.NewStore(0)
	s.Put(1, domain.DialogState{Step: domain.StepAwaitPhone})
	s.Put(1, domain.DialogState{})
	if state := s.Get(1); state.Step != domain.StepNone {
		t.Fatalf("zero-state put must delete: %+v", state)
	}
}

func TestStore_Expiry(t *testing.T) {
	s := dialog.NewStore(20 * time.Millisecond)
	s.Put(1, domain.DialogState{Step: domain.StepConfirmPhone, Phone: "+79161234567"})

	if state := s.Get(1); state.Step != domain.StepConfirmPhone {
		t.Fatalf("state should still be live: %+v", state)
	}
	time.Sleep(40 * time.Millisecond)
	if state := s.Get(1); state.Step != domain.StepNone {
		t.Fatalf("state should have expired: %+v", state)
	}
}
