package repos_test

import (
	"testing"

	"screenfix/internal/domain"
)

func TestCustomerRepo_UpsertRefreshesProfile(t *testing.T) {
	_, _, customers := memdb(t)

	id1, err := customers.Upsert(domain.Customer{ChatID: 700, Username: "old", FirstName: "A"})
	if err != nil {
		t.Fatal(err)
	}
	id2, err := customers.Upsert(domain.Customer{ChatID: 700, Username: "new", FirstName: "B"})
	if err != nil {
		t.Fatal(err)
	}
	if id1 != id2 {
		t.Fatalf("same chat must map to one row: %d vs %d", id1, id2)
	}

	c, err := customers.FindByChatID(700)
	if err != nil {
		t.Fatal(err)
	}
	if c == nil || c.Username != "new" || c.FirstName != "B" {
		t.Fatalf("profile not refreshed: %+v", c)
	}
}

func TestCustomerRepo_PhoneAndChatRefSurviveUpsert(t *testing.T) {
	_, _, customers := memdb(t)

	id, err := customers.Upsert(domain.Customer{ChatID: 701})
	if err != nil {
		t.Fatal(err)
	}
	if err := customers.SetPhone(id, "+79161234567"); err != nil {
		t.Fatal(err)
	}
	if err := customers.SetChatCRMRef(id, 8800); err != nil {
		t.Fatal(err)
	}

	// a later contact refreshes the profile but keeps phone and chat ref
	if _, err := customers.Upsert(domain.Customer{ChatID: 701, Username: "back"}); err != nil {
		t.Fatal(err)
	}
	c, err := customers.FindByID(id)
	if err != nil {
		t.Fatal(err)
	}
	if c.Phone != "+79161234567" || c.ChatCRMRef != 8800 {
		t.Fatalf("upsert must not wipe phone or chat ref: %+v", c)
	}
}

func TestCustomerRepo_MissingIsNilNotError(t *testing.T) {
	_, _, customers := memdb(t)

	c, err := customers.FindByChatID(999999)
	if err != nil {
		t.Fatal(err)
	}
	if c != nil {
		t.Fatalf("want nil for unknown chat, got %+v", c)
	}
}
