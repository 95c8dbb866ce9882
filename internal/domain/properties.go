package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Properties holds ad hoc extension fields attached with AddProperty.  It
// is stored as a JSON object in the `extra` column.
type Properties map[string]string

// Value implements driver.Valuer.  A nil map is stored as "{}".
func (p Properties) Value() (driver.Value, error) {
	if len(p) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(map[string]string(p))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (p *Properties) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*p = nil
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("properties: unsupported scan type %T", src)
	}
	if len(raw) == 0 {
		*p = nil
		return nil
	}
	m := map[string]string{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return fmt.Errorf("properties: %w", err)
	}
	if len(m) == 0 {
		m = nil
	}
	*p = m
	return nil
}

func (p Properties) clone() Properties {
	if p == nil {
		return nil
	}
	c := make(Properties, len(p))
	for k, v := range p {
		c[k] = v
	}
	return c
}
