package models

import "time"

// PayoutUser is a registered payout recipient.
type PayoutUser struct {
	ID         string    `json:"id"`
	FirstName  string    `json:"first_name"`
	MiddleName string    `json:"middle_name"`
	LastName   string    `json:"last_name"`
	Email      string    `json:"email"`
	Birthdate  time.Time `json:"birthdate"`
	Mobile     string    `json:"mobile"`
	Address1   string    `json:"address1"`
	Address2   string    `json:"address2"`
	City       string    `json:"city"`
	State      string    `json:"state"`
	Country    string    `json:"country"`
	Zip        string    `json:"zip"`
}
