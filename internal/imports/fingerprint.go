package imports

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
)

// Fingerprint identifies a submission by its budget and ordered row content.
// Amounts are compared at cent precision so "10.5" and "10.50" match.
func Fingerprint(budgetID uint, rows []Row) string {
	h := sha256.New()
	h.Write([]byte("budget:" + strconv.FormatUint(uint64(budgetID), 10) + "\n"))
	for _, r := range rows {
		category := ""
		if r.CategoryID != nil {
			category = strconv.FormatInt(*r.CategoryID, 10)
		}
		line := strings.Join([]string{
			r.Type,
			r.Amount.StringFixed(2),
			strings.TrimSpace(r.Description),
			r.Date,
			category,
		}, "\x1f")
		h.Write([]byte(line + "\n"))
	}
	return hex.EncodeToString(h.Sum(nil))
}
