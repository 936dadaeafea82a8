package id

import (
	"crypto/rand"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

const datePrefix = "20060102"

// interestMarker separates the date prefix from the ULID in interest ids.
const interestMarker = "-I"

// FormatTransactionID returns a transaction ID like "20250101-01".
func FormatTransactionID(date time.Time, seq int) string {
	return fmt.Sprintf("%s-%02d", date.Format(datePrefix), seq)
}

// ParseTransactionID parses "20250101-01" into its date and sequence.
func ParseTransactionID(id string) (date time.Time, seq int, err error) {
	parts := strings.SplitN(id, "-", 2)
	if len(parts) != 2 {
		return time.Time{}, 0, fmt.Errorf("invalid transaction ID format: %q", id)
	}

	date, err = time.Parse(datePrefix, parts[0])
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("invalid date in transaction ID %q: %w", id, err)
	}

	seq, err = strconv.Atoi(parts[1])
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("invalid sequence in transaction ID %q: %w", id, err)
	}

	return date, seq, nil
}

// NewInterestID returns an ID for a statement interest entry, like
// "20250131-I01JH4T6Y6Z1J9Q4B5R1M8W2C3D". Interest ids never parse as
// day-sequence ids, so the two naming spaces cannot collide.
func NewInterestID(date time.Time) string {
	return date.Format(datePrefix) + interestMarker + ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
}

// IsInterestID reports whether id was produced by NewInterestID.
func IsInterestID(id string) bool {
	return len(id) > len(datePrefix) && strings.HasPrefix(id[len(datePrefix):], interestMarker)
}
