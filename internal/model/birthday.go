package model

import "time"

// Birthday is a yearly reminder entry. Date is day/month only ("DD/MM").
type Birthday struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Date        string    `json:"date"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
