package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dcerezal/homeplan/internal/model"
)

// CheckinStore persists the daily habit check-in log in SQLite.
type CheckinStore struct {
	db *sql.DB
}

func NewCheckinStore(db *sql.DB) *CheckinStore {
	return &CheckinStore{db: db}
}

const checkinCols = `date, eaten_well, did_sport, studied, slept_early, saved_at`

func scanCheckin(scanner interface{ Scan(...any) error }) (*model.CheckinLog, error) {
	var l model.CheckinLog
	err := scanner.Scan(&l.Date, &l.EatenWell, &l.DidSport, &l.Studied, &l.SleptEarly, &l.SavedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// Get returns the log for a date (YYYY-MM-DD), or nil if none was saved.
func (s *CheckinStore) Get(date string) (*model.CheckinLog, error) {
	row := s.db.QueryRow(`SELECT `+checkinCols+` FROM checkin_logs WHERE date = ?`, date)
	l, err := scanCheckin(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get checkin: %w", err)
	}
	return l, nil
}

// Save upserts the log for its date and stamps SavedAt.
func (s *CheckinStore) Save(log model.CheckinLog) (*model.CheckinLog, error) {
	log.SavedAt = time.Now().UTC()
	_, err := s.db.Exec(`
		INSERT INTO checkin_logs (date, eaten_well, did_sport, studied, slept_early, saved_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET
			eaten_well = excluded.eaten_well,
			did_sport = excluded.did_sport,
			studied = excluded.studied,
			slept_early = excluded.slept_early,
			saved_at = excluded.saved_at`,
		log.Date, log.EatenWell, log.DidSport, log.Studied, log.SleptEarly, log.SavedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("save checkin: %w", err)
	}
	return s.Get(log.Date)
}

// ListMonth returns all logs whose date starts with the YYYY-MM prefix,
// ascending by date.
func (s *CheckinStore) ListMonth(yearMonth string) ([]model.CheckinLog, error) {
	rows, err := s.db.Query(
		`SELECT `+checkinCols+` FROM checkin_logs WHERE date LIKE ? ORDER BY date ASC`,
		yearMonth+"-%",
	)
	if err != nil {
		return nil, fmt.Errorf("list month checkins: %w", err)
	}
	defer rows.Close()

	var logs []model.CheckinLog
	for rows.Next() {
		l, err := scanCheckin(rows)
		if err != nil {
			return nil, fmt.Errorf("scan checkin: %w", err)
		}
		logs = append(logs, *l)
	}
	return logs, rows.Err()
}

// Delete removes the log for a date. Returns false if nothing was stored.
func (s *CheckinStore) Delete(date string) (bool, error) {
	result, err := s.db.Exec(`DELETE FROM checkin_logs WHERE date = ?`, date)
	if err != nil {
		return false, fmt.Errorf("delete checkin: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}
