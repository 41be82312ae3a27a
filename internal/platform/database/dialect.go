package database

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type Dialect int

const (
	Postgres Dialect = iota
	SQLite
)

func (d Dialect) String() string {
	if d == SQLite {
		return "sqlite"
	}
	return "postgres"
}

// Rebind converts ? placeholders into $1..$n for Postgres. Question marks
// inside single-quoted literals are left alone.
func (d Dialect) Rebind(query string) string {
	if d != Postgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	inQuote := false
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'':
			inQuote = !inQuote
			b.WriteByte(c)
		case c == '?' && !inQuote:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// CaseInsensitiveLike is the operator for case-insensitive pattern matching.
// SQLite's LIKE already folds ASCII case.
func (d Dialect) CaseInsensitiveLike() string {
	if d == Postgres {
		return "ILIKE"
	}
	return "LIKE"
}

// LikePattern escapes LIKE wildcards in term and wraps it for substring search.
// Use with ESCAPE '\'.
func LikePattern(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(term) + "%"
}

// Timestamp scans DATETIME/TIMESTAMPTZ columns from either driver.
type Timestamp struct {
	Time *time.Time
}

var timestampLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

func (ts Timestamp) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*ts.Time = time.Time{}
		return nil
	case time.Time:
		*ts.Time = v.UTC()
		return nil
	case int64:
		*ts.Time = time.UnixMilli(v).UTC()
		return nil
	case []byte:
		return ts.parse(string(v))
	case string:
		return ts.parse(v)
	}
	return fmt.Errorf("database: cannot scan %T into timestamp", src)
}

func (ts Timestamp) parse(s string) error {
	if i := strings.Index(s, " m="); i >= 0 {
		s = s[:i]
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			*ts.Time = t.UTC()
			return nil
		}
	}
	return fmt.Errorf("database: cannot parse timestamp %q", s)
}
