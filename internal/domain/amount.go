package domain

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Amount is an optional numeric value. The zero value is absent, which is
// distinct from a present zero: an unknown sodium content is not "0 mg".
type Amount struct {
	value   float64
	present bool
}

// Some returns a present Amount holding v.
func Some(v float64) Amount {
	return Amount{value: v, present: true}
}

// AmountFromPtr converts a nullable float into an Amount.
func AmountFromPtr(v *float64) Amount {
	if v == nil {
		return Amount{}
	}
	return Some(*v)
}

// Get returns the value and whether it is present.
func (a Amount) Get() (float64, bool) {
	return a.value, a.present
}

// Present reports whether the value is known.
func (a Amount) Present() bool {
	return a.present
}

// IsZero reports whether the Amount is absent. It lets `omitzero` drop absent
// fields while keeping present zeros.
func (a Amount) IsZero() bool {
	return !a.present
}

// Or returns the value, or def when absent.
func (a Amount) Or(def float64) float64 {
	if !a.present {
		return def
	}
	return a.value
}

// Ptr returns a pointer to a copy of the value, or nil when absent.
func (a Amount) Ptr() *float64 {
	if !a.present {
		return nil
	}
	v := a.value
	return &v
}

// Map applies fn to a present value; absent stays absent.
func (a Amount) Map(fn func(float64) float64) Amount {
	if !a.present {
		return a
	}
	return Some(fn(a.value))
}

func (a Amount) String() string {
	if !a.present {
		return "<absent>"
	}
	return strconv.FormatFloat(a.value, 'f', -1, 64)
}

// MarshalJSON encodes an absent value as null.
func (a Amount) MarshalJSON() ([]byte, error) {
	if !a.present {
		return []byte("null"), nil
	}
	if math.IsNaN(a.value) || math.IsInf(a.value, 0) {
		return nil, fmt.Errorf("amount %v is not representable in JSON", a.value)
	}
	return json.Marshal(a.value)
}

// UnmarshalJSON decodes null as absent.
func (a *Amount) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*a = Amount{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*a = Some(v)
	return nil
}

// Scan implements sql.Scanner; SQL NULL becomes absent.
func (a *Amount) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*a = Amount{}
	case float64:
		*a = Some(v)
	case float32:
		*a = Some(float64(v))
	case int64:
		*a = Some(float64(v))
	case []byte:
		f, err := strconv.ParseFloat(string(v), 64)
		if err != nil {
			return fmt.Errorf("scan amount: %w", err)
		}
		*a = Some(f)
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("scan amount: %w", err)
		}
		*a = Some(f)
	default:
		return fmt.Errorf("scan amount: unsupported type %T", src)
	}
	return nil
}

// Value implements driver.Valuer; absent is stored as NULL.
func (a Amount) Value() (driver.Value, error) {
	if !a.present {
		return nil, nil
	}
	return a.value, nil
}

// GormDataType declares the column type used by migrations.
func (Amount) GormDataType() string {
	return "real"
}
