package budget

import (
	"errors"
	"strings"
	"time"
)

// Account is one ledger of the book: a checking account, a credit card, a
// wallet...
type Account struct {
	ID          int64
	Name        string
	Type        string // checking, savings, credit_card, cash, ...
	Institution string
	CreatedAt   time.Time
}

// Validate checks the account fields.
func (a Account) Validate() (Account, error) {
	a.Name = strings.TrimSpace(a.Name)
	if a.Name == "" {
		return a, errors.New("account name is missing")
	}
	if a.Type == "" {
		a.Type = "checking"
	}
	return a, nil
}
