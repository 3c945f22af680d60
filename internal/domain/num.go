package domain

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Num is a nullable float shaped like sql.NullFloat64. Anything that is not
// a finite number (null, empty string, text that does not parse) decodes to
// an invalid Num instead of failing, so callers treat it as undefined.
type Num struct {
	Float64 float64
	Valid   bool
}

func Some(v float64) Num {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Num{}
	}
	return Num{Float64: v, Valid: true}
}

func None() Num {
	return Num{}
}

func (n Num) Get() (float64, bool) {
	return n.Float64, n.Valid
}

// Ptr returns nil for an invalid Num.
func (n Num) Ptr() *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}

func (n Num) MarshalJSON() ([]byte, error) {
	if !n.Valid || math.IsNaN(n.Float64) || math.IsInf(n.Float64, 0) {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(n.Float64, 'f', -1, 64)), nil
}

func (n *Num) UnmarshalJSON(b []byte) error {
	*n = Num{}
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err == nil {
			*n = ParseNum(s)
		}
		return nil
	}
	if v, err := strconv.ParseFloat(string(b), 64); err == nil {
		*n = Some(v)
	}
	return nil
}

// ParseNum parses user input such as a form field value.
func ParseNum(s string) Num {
	s = strings.TrimSpace(s)
	if s == "" {
		return Num{}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Num{}
	}
	return Some(v)
}

func (n *Num) Scan(src any) error {
	*n = Num{}
	switch v := src.(type) {
	case nil:
	case float64:
		*n = Some(v)
	case int64:
		*n = Some(float64(v))
	case []byte:
		*n = ParseNum(string(v))
	case string:
		*n = ParseNum(v)
	default:
		return fmt.Errorf("cannot scan %T into Num", src)
	}
	return nil
}

func (n Num) Value() (driver.Value, error) {
	if !n.Valid {
		return nil, nil
	}
	return n.Float64, nil
}

// Observed maps factor names to the values measured for one month.
type Observed map[string]Num
