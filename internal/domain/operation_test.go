package domain

import "testing"

func TestOperationValid(t *testing.T) {
	for op := OpReGluing; op <= OpBuyback; op++ {
		if !op.Valid() {
			t.Errorf("%s should be valid", op)
		}
	}
	for _, op := range []Operation{0, 8, -1} {
		if op.Valid() {
			t.Errorf("operation %d should be invalid", int(op))
		}
	}
}

func TestOperationSupportsAssembly(t *testing.T) {
	want := map[Operation]bool{
		OpReGluing:          true,
		OpReGluingBacklight: true,
		OpBackCover:         true,
		OpAssembly:          false,
		OpRefurbished:       false,
		OpSparePart:         false,
		OpBuyback:           false,
	}
	for op, w := range want {
		if op.SupportsAssembly() != w {
			t.Errorf("%s: SupportsAssembly = %v, want %v", op, op.SupportsAssembly(), w)
		}
	}
}

func TestUnknownOperationStrings(t *testing.T) {
	if Operation(42).String() != "unknown operation 42" {
		t.Fatalf("got %q", Operation(42).String())
	}
	if Operation(42).Describe() != "No description" {
		t.Fatalf("got %q", Operation(42).Describe())
	}
}

func TestCartItemSubtotal(t *testing.T) {
	plain := CartItem{Price: 500, Quantity: 2}
	if plain.Subtotal() != 1000 {
		t.Fatalf("want 1000, got %d", plain.Subtotal())
	}

	// the add-on is added once per line, not per unit
	withAddon := CartItem{Price: 1200, Quantity: 1, AssemblyRequired: true, AssemblyPrice: 300}
	if withAddon.Subtotal() != 1500 {
		t.Fatalf("want 1500, got %d", withAddon.Subtotal())
	}
	withAddon.Quantity = 2
	if withAddon.Subtotal() != 2700 {
		t.Fatalf("want 2700 (2x1200 + 300 once), got %d", withAddon.Subtotal())
	}

	declined := CartItem{Price: 1200, Quantity: 1, AssemblyPrice: 300}
	if declined.Subtotal() != 1200 {
		t.Fatalf("declined add-on must not count, got %d", declined.Subtotal())
	}
}
