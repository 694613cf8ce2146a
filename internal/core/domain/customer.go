package domain

import (
	"strings"
	"time"
)

type Customer struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type CustomerProfile struct {
	CustomerID     string
	DisplayName    string
	Email          string
	MarketingOptIn bool
	Preferences    map[string]string
	CreatedAt      time.Time
}

// CustomerStats is the per-customer order analytics document.
type CustomerStats struct {
	CustomerID  string
	OrderCount  int
	TotalSpent  float64
	LastOrderAt time.Time
}

// DefaultDisplayName falls back to the local part of the email address.
func DefaultDisplayName(c Customer) string {
	if name := strings.TrimSpace(c.Name); name != "" {
		return name
	}
	local, _, _ := strings.Cut(c.Email, "@")
	return local
}
