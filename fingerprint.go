package budget

import (
	"crypto/md5"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/etnz/budget/date"
)

// NormalizePayee returns the canonical form of a payee text used for
// comparisons: lower case, trimmed, inner blanks collapsed.
func NormalizePayee(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// ContentKey is the duplicate key of a row without an external id. The memo
// is deliberately not part of it.
func ContentKey(posted date.Date, amount Cents, payee string) string {
	parts := []string{posted.String(), strconv.FormatInt(int64(amount), 10), NormalizePayee(payee)}
	sum := md5.Sum([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}

// Fingerprint returns the duplicate detection key of a row: its external id
// when the bank provided one, its content key otherwise.
func Fingerprint(t Transaction) string {
	if t.ExternalID != "" {
		return "ext:" + t.ExternalID
	}
	return ContentKey(t.Posted, t.Amount, fingerprintPayee(t))
}

// fingerprintPayee is the payee text a bank would send again on re-import.
func fingerprintPayee(t Transaction) string {
	if t.PayeeRaw != "" {
		return t.PayeeRaw
	}
	return t.Payee
}
