package repos

import (
	"database/sql"

	"github.com/jmoiron/sqlx"

	"screenfix/internal/domain"
)

type CustomerRepo struct{ db *sqlx.DB }

func NewCustomerRepo(db *sqlx.DB) *CustomerRepo { return &CustomerRepo{db: db} }

// Upsert creates the customer row for a chat identity on first contact and
// refreshes the profile fields afterwards.
func (r *CustomerRepo) Upsert(c domain.Customer) (int64, error) {
	_, err := r.db.Exec(`
	  INSERT INTO customers(chat_id, username, first_name, last_name)
	  VALUES(?,?,?,?)
	  ON CONFLICT(chat_id) DO UPDATE SET
	    username = excluded.username,
	    first_name = excluded.first_name,
	    last_name = excluded.last_name
	`, c.ChatID, c.Username, c.FirstName, c.LastName)
	if err != nil {
		return 0, err
	}
	var id int64
	err = r.db.Get(&id, `SELECT id FROM customers WHERE chat_id = ?`, c.ChatID)
	return id, err
}

func (r *CustomerRepo) FindByID(id int64) (*domain.Customer, error) {
	var c domain.Customer
	err := r.db.Get(&c, `
	  SELECT id, chat_id, username, first_name, last_name, phone, chat_crm_ref
	  FROM customers WHERE id = ?
	`, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CustomerRepo) FindByChatID(chatID int64) (*domain.Customer, error) {
	var c domain.Customer
	err := r.db.Get(&c, `
	  SELECT id, chat_id, username, first_name, last_name, phone, chat_crm_ref
	  FROM customers WHERE chat_id = ?
	`, chatID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CustomerRepo) SetPhone(id int64, phone string) error {
	_, err := r.db.Exec(`UPDATE customers SET phone = ? WHERE id = ?`, phone, id)
	return err
}

func (r *CustomerRepo) SetChatCRMRef(id, ref int64) error {
	_, err := r.db.Exec(`UPDATE customers SET chat_crm_ref = ? WHERE id = ?`, ref, id)
	return err
}
