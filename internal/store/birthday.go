package store

import (
	"database/sql"
	"fmt"
	"regexp"

	"github.com/dcerezal/homeplan/internal/model"
)

// BirthdayStore persists the birthday registry in SQLite.
type BirthdayStore struct {
	db *sql.DB
}

func NewBirthdayStore(db *sql.DB) *BirthdayStore {
	return &BirthdayStore{db: db}
}

var birthdayDatePattern = regexp.MustCompile(`^\d{2}/\d{2}$`)

const birthdayCols = `id, name, date, description, created_at`

func scanBirthday(scanner interface{ Scan(...any) error }) (*model.Birthday, error) {
	var b model.Birthday
	err := scanner.Scan(&b.ID, &b.Name, &b.Date, &b.Description, &b.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// List returns every birthday, ordered by month then day.
func (s *BirthdayStore) List() ([]model.Birthday, error) {
	rows, err := s.db.Query(`SELECT ` + birthdayCols + ` FROM birthdays ORDER BY substr(date, 4, 2), substr(date, 1, 2)`)
	if err != nil {
		return nil, fmt.Errorf("list birthdays: %w", err)
	}
	defer rows.Close()

	var birthdays []model.Birthday
	for rows.Next() {
		b, err := scanBirthday(rows)
		if err != nil {
			return nil, fmt.Errorf("scan birthday: %w", err)
		}
		birthdays = append(birthdays, *b)
	}
	return birthdays, rows.Err()
}

// GetByID returns one birthday, or nil if it does not exist.
func (s *BirthdayStore) GetByID(id int64) (*model.Birthday, error) {
	row := s.db.QueryRow(`SELECT `+birthdayCols+` FROM birthdays WHERE id = ?`, id)
	b, err := scanBirthday(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get birthday: %w", err)
	}
	return b, nil
}

// Create adds a birthday. Date must be DD/MM.
func (s *BirthdayStore) Create(name, date, description string) (*model.Birthday, error) {
	if !birthdayDatePattern.MatchString(date) {
		return nil, fmt.Errorf("invalid birthday date %q: want DD/MM", date)
	}
	result, err := s.db.Exec(
		`INSERT INTO birthdays (name, date, description) VALUES (?, ?, ?)`,
		name, date, description,
	)
	if err != nil {
		return nil, fmt.Errorf("insert birthday: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

// Delete removes a birthday.
func (s *BirthdayStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM birthdays WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete birthday: %w", err)
	}
	return nil
}

// ListOnDate returns birthdays matching a DD/MM date.
func (s *BirthdayStore) ListOnDate(ddmm string) ([]model.Birthday, error) {
	rows, err := s.db.Query(`SELECT `+birthdayCols+` FROM birthdays WHERE date = ?`, ddmm)
	if err != nil {
		return nil, fmt.Errorf("list birthdays on date: %w", err)
	}
	defer rows.Close()

	var birthdays []model.Birthday
	for rows.Next() {
		b, err := scanBirthday(rows)
		if err != nil {
			return nil, fmt.Errorf("scan birthday: %w", err)
		}
		birthdays = append(birthdays, *b)
	}
	return birthdays, rows.Err()
}
