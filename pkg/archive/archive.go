package archive

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidIdentifier is returned by Parse when the input does not name a
// real calendar hour in the canonical "YYYY-MM-DD-HH" form.
var ErrInvalidIdentifier = errors.New("archive: invalid identifier")

// Identifier names one hourly archive. The zero value is not a valid
// identifier; use Parse.
type Identifier struct {
	year  int
	month int
	day   int
	hour  int
}

// Parse parses an identifier in the canonical "YYYY-MM-DD-HH" form.
// Field widths are strict (no missing leading zeros) and the value must be
// a real calendar hour: "2024-02-30-00" and "2024-01-01-24" both fail.
func Parse(raw string) (Identifier, error) {
	parts := strings.Split(raw, "-")
	if len(parts) != 4 || len(parts[0]) != 4 || len(parts[1]) != 2 || len(parts[2]) != 2 || len(parts[3]) != 2 {
		return Identifier{}, fmt.Errorf("%w: %q (want YYYY-MM-DD-HH)", ErrInvalidIdentifier, raw)
	}

	fields := make([]int, 4)
	for i, p := range parts {
		if !allDigits(p) {
			return Identifier{}, fmt.Errorf("%w: %q (non-numeric field %q)", ErrInvalidIdentifier, raw, p)
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return Identifier{}, fmt.Errorf("%w: %q (non-numeric field %q)", ErrInvalidIdentifier, raw, p)
		}
		fields[i] = n
	}

	id := Identifier{year: fields[0], month: fields[1], day: fields[2], hour: fields[3]}

	// time.Date normalizes out-of-range components (month 13 becomes
	// January of the next year), so an identifier is valid only if the
	// round trip through it leaves every component unchanged.
	t := time.Date(id.year, time.Month(id.month), id.day, id.hour, 0, 0, 0, time.UTC)
	if t.Year() != id.year || int(t.Month()) != id.month || t.Day() != id.day || t.Hour() != id.hour {
		return Identifier{}, fmt.Errorf("%w: %q (impossible calendar value)", ErrInvalidIdentifier, raw)
	}

	return id, nil
}

// allDigits reports whether s consists solely of ASCII digits. Atoi alone
// is too lenient here: it accepts a leading sign, which would let inputs
// like "+024" through and break the canonical round trip.
func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return len(s) > 0
}

// String returns the canonical "YYYY-MM-DD-HH" form.
func (id Identifier) String() string {
	return fmt.Sprintf("%04d-%02d-%02d-%02d", id.year, id.month, id.day, id.hour)
}

// Time returns the start of the hour bucket in UTC.
func (id Identifier) Time() time.Time {
	return time.Date(id.year, time.Month(id.month), id.day, id.hour, 0, 0, 0, time.UTC)
}

// RemotePath returns the API path of the archive, relative to the
// Papertrail API root.
func (id Identifier) RemotePath() string {
	return fmt.Sprintf("archives/%s/download", id)
}

// FileName returns the local filename for the archive. Archives are served
// gzip-compressed TSV; decoded selects the extension for streams that are
// decompressed before writing.
func (id Identifier) FileName(decoded bool) string {
	if decoded {
		return id.String() + ".tsv"
	}
	return id.String() + ".tsv.gz"
}

// Before reports whether id names an earlier hour than other. Used only
// for display ordering; duplicate identifiers are legal and distinct
// download attempts.
func (id Identifier) Before(other Identifier) bool {
	return id.Time().Before(other.Time())
}
