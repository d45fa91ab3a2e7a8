package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/saikuru0/oshatori/domain"
)

// AccountRecord is a stored account: a unique name, the protocol it logs
// into and the saved auth fields.
type AccountRecord struct {
	ID          string
	Name        string
	Protocol    string
	Auth        []domain.AuthField
	AutoConnect bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// AccountStore persists accounts across runs.
type AccountStore interface {
	Save(rec AccountRecord) (AccountRecord, error)
	Get(name string) (AccountRecord, error)
	List() ([]AccountRecord, error)
	Delete(name string) error
}

// ErrAccountNotFound is returned when no account matches the given name.
type ErrAccountNotFound struct {
	Name string
}

func (e *ErrAccountNotFound) Error() string {
	return fmt.Sprintf("account not found: %s", e.Name)
}

// SQLiteAccountStore implements AccountStore backed by SQLite. Auth fields
// are stored as a JSON document, so grouped fields survive round trips.
type SQLiteAccountStore struct {
	db *DB
}

// NewSQLiteAccountStore creates an account store using the given database.
func NewSQLiteAccountStore(db *DB) *SQLiteAccountStore {
	return &SQLiteAccountStore{db: db}
}

// Save inserts a new account or replaces the stored fields of an existing
// one, keyed by name.
func (s *SQLiteAccountStore) Save(rec AccountRecord) (AccountRecord, error) {
	authJSON, err := json.Marshal(rec.Auth)
	if err != nil {
		return rec, fmt.Errorf("encoding auth fields: %w", err)
	}

	now := time.Now().UTC()

	existing, err := s.Get(rec.Name)
	if err == nil {
		rec.ID = existing.ID
		rec.CreatedAt = existing.CreatedAt
		rec.UpdatedAt = now
		_, err = s.db.sql.Exec(
			`UPDATE accounts SET protocol = ?, auth = ?, auto_connect = ?, updated_at = ? WHERE id = ?`,
			rec.Protocol, string(authJSON), boolToInt(rec.AutoConnect), now.Format(time.DateTime), rec.ID,
		)
		return rec, err
	}

	rec.ID = uuid.New().String()
	rec.CreatedAt = now
	rec.UpdatedAt = now
	_, err = s.db.sql.Exec(
		`INSERT INTO accounts (id, name, protocol, auth, auto_connect, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Name, rec.Protocol, string(authJSON), boolToInt(rec.AutoConnect),
		now.Format(time.DateTime), now.Format(time.DateTime),
	)
	return rec, err
}

// Get returns the account with the given name.
func (s *SQLiteAccountStore) Get(name string) (AccountRecord, error) {
	row := s.db.sql.QueryRow(
		`SELECT id, name, protocol, auth, auto_connect, created_at, updated_at
		 FROM accounts WHERE name = ?`, name,
	)
	return scanAccount(row, name)
}

// List returns all stored accounts ordered by name.
func (s *SQLiteAccountStore) List() ([]AccountRecord, error) {
	rows, err := s.db.sql.Query(
		`SELECT id, name, protocol, auth, auto_connect, created_at, updated_at
		 FROM accounts ORDER BY name`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AccountRecord
	for rows.Next() {
		rec, err := scanAccount(rows, "")
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Delete removes an account by name. Deleting a missing account is an error
// so callers can report typos.
func (s *SQLiteAccountStore) Delete(name string) error {
	res, err := s.db.sql.Exec(`DELETE FROM accounts WHERE name = ?`, name)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return &ErrAccountNotFound{Name: name}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner, name string) (AccountRecord, error) {
	var rec AccountRecord
	var authJSON string
	var autoConnect int
	var createdAt, updatedAt string

	err := row.Scan(&rec.ID, &rec.Name, &rec.Protocol, &authJSON, &autoConnect, &createdAt, &updatedAt)
	if err != nil {
		return rec, &ErrAccountNotFound{Name: name}
	}

	if err := json.Unmarshal([]byte(authJSON), &rec.Auth); err != nil {
		return rec, fmt.Errorf("decoding auth fields for %s: %w", rec.Name, err)
	}
	rec.AutoConnect = autoConnect != 0
	rec.CreatedAt, _ = time.Parse(time.DateTime, createdAt)
	rec.UpdatedAt, _ = time.Parse(time.DateTime, updatedAt)
	return rec, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// MemoryAccountStore is a map-backed AccountStore for tests and ephemeral
// runs.
type MemoryAccountStore struct {
	accounts map[string]AccountRecord
}

// NewMemoryAccountStore creates an empty in-memory account store.
func NewMemoryAccountStore() *MemoryAccountStore {
	return &MemoryAccountStore{accounts: make(map[string]AccountRecord)}
}

func (m *MemoryAccountStore) Save(rec AccountRecord) (AccountRecord, error) {
	now := time.Now().UTC()
	if existing, ok := m.accounts[rec.Name]; ok {
		rec.ID = existing.ID
		rec.CreatedAt = existing.CreatedAt
	} else {
		rec.ID = uuid.New().String()
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now
	m.accounts[rec.Name] = rec
	return rec, nil
}

func (m *MemoryAccountStore) Get(name string) (AccountRecord, error) {
	rec, ok := m.accounts[name]
	if !ok {
		return AccountRecord{}, &ErrAccountNotFound{Name: name}
	}
	return rec, nil
}

func (m *MemoryAccountStore) List() ([]AccountRecord, error) {
	out := make([]AccountRecord, 0, len(m.accounts))
	for _, rec := range m.accounts {
		out = append(out, rec)
	}
	return out, nil
}

func (m *MemoryAccountStore) Delete(name string) error {
	if _, ok := m.accounts[name]; !ok {
		return &ErrAccountNotFound{Name: name}
	}
	delete(m.accounts, name)
	return nil
}
