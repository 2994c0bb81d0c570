package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"sort"
)

// TokenSet is a set of opaque notification trigger identifiers. It is stored
// as a sorted JSON array.
type TokenSet []string

// Normalize returns a sorted copy without duplicates or empty entries.
func (t TokenSet) Normalize() TokenSet {
	seen := make(map[string]bool, len(t))
	out := make(TokenSet, 0, len(t))
	for _, tok := range t {
		if tok == "" || seen[tok] {
			continue
		}
		seen[tok] = true
		out = append(out, tok)
	}
	sort.Strings(out)
	return out
}

// Equal compares two sets irrespective of order.
func (t TokenSet) Equal(o TokenSet) bool {
	a, b := t.Normalize(), o.Normalize()
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Value implements driver.Valuer.
func (t TokenSet) Value() (driver.Value, error) {
	b, err := json.Marshal(t.Normalize())
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (t *TokenSet) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*t = TokenSet{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("scanning token set: unsupported type %T", src)
	}
	if len(raw) == 0 {
		*t = TokenSet{}
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("unmarshaling token set: %w", err)
	}
	*t = TokenSet(out)
	return nil
}
