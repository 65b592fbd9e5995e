package budget

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// MatchType is the way a Pattern is compared to a raw payee.
type MatchType string

// Supported match types.
const (
	MatchStartsWith MatchType = "starts_with"
	MatchContains   MatchType = "contains"
	MatchExact      MatchType = "exact"
	MatchRegex      MatchType = "regex"
)

// Pattern is one payee matching rule.
type Pattern struct {
	Type    MatchType `json:"type"`
	Pattern string    `json:"pattern"`
}

// ParsePattern parses "type:pattern" (e.g. "starts_with:PWP*INSTITUTE"). A
// pattern without a known type prefix is a "contains" pattern.
func ParsePattern(s string) Pattern {
	if typ, pattern, ok := strings.Cut(s, ":"); ok {
		switch t := MatchType(typ); t {
		case MatchStartsWith, MatchContains, MatchExact, MatchRegex:
			return Pattern{Type: t, Pattern: pattern}
		}
	}
	return Pattern{Type: MatchContains, Pattern: s}
}

func (p Pattern) String() string { return string(p.Type) + ":" + p.Pattern }

// Match reports whether raw matches the pattern, ignoring case. Empty patterns
// and invalid regular expressions never match.
func (p Pattern) Match(raw string) bool {
	if p.Pattern == "" || raw == "" {
		return false
	}
	rawLower, pattern := strings.ToLower(raw), strings.ToLower(p.Pattern)
	switch p.Type {
	case MatchStartsWith:
		return strings.HasPrefix(rawLower, pattern)
	case MatchExact:
		return rawLower == pattern
	case MatchRegex:
		re, err := regexp.Compile("(?i)" + p.Pattern)
		if err != nil {
			return false
		}
		return re.MatchString(raw)
	default:
		return strings.Contains(rawLower, pattern)
	}
}

// Payee is a named counterparty with the rules recognising it in raw bank
// text. Its name is the payee identity shared by transactions and recurring
// templates.
type Payee struct {
	ID                int64
	Name              string
	Patterns          []Pattern
	DefaultCategoryID *int64
}

// Matches reports whether any of the payee patterns matches raw.
func (p Payee) Matches(raw string) bool {
	for _, pattern := range p.Patterns {
		if pattern.Match(raw) {
			return true
		}
	}
	return false
}

// Validate checks the payee definition.
func (p Payee) Validate() (Payee, error) {
	var errs error
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		errs = errors.Join(errs, errors.New("payee name is missing"))
	}
	for _, pattern := range p.Patterns {
		if pattern.Type != MatchRegex {
			continue
		}
		if _, err := regexp.Compile(pattern.Pattern); err != nil {
			errs = errors.Join(errs, fmt.Errorf("invalid regex pattern %q: %w", pattern.Pattern, err))
		}
	}
	return p, errs
}

// MatchPayee returns the first payee with a pattern matching raw.
func MatchPayee(payees []Payee, raw string) (Payee, bool) {
	for _, p := range payees {
		if p.Matches(raw) {
			return p, true
		}
	}
	return Payee{}, false
}

// ApplyPayee sets the display payee of tx from the first matching payee, and
// its default category when tx has none. Transfers are left untouched.
func ApplyPayee(payees []Payee, tx Transaction) Transaction {
	if tx.Kind == KindTransfer {
		return tx
	}
	p, ok := MatchPayee(payees, tx.PayeeRaw)
	if !ok {
		return tx
	}
	tx.Payee = p.Name
	if tx.CategoryID == nil && p.DefaultCategoryID != nil {
		tx.CategoryID = Int64(*p.DefaultCategoryID)
	}
	return tx
}
