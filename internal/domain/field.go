// internal/domain/field.go
//
// Named property access for Record.
//
// Operators address record fields by their column names ("hostname",
// "weight", "redirect", …) from the admin API and the CLI.  This file maps
// those names onto typed fields, parses string input, and answers the
// "is this field set" question that SetProperty and AddProperty rely on.
//
// Notes
// -----
//   - A field is unset when it is nil (redirect) or, for extension fields,
//     absent from Extra.  Every column-backed string is always set.
//   - id, domain_id, and uuid are read-only after creation.
package domain

import (
	"errors"
	"strconv"
)

var (
	errReadOnly     = errors.New("read-only field")
	errInvalidValue = errors.New("invalid value")
)

// Field names accepted by SetProperty.
const (
	FieldID        = "id"
	FieldDomainID  = "domain_id"
	FieldUUID      = "uuid"
	FieldName      = "name"
	FieldHostname  = "hostname"
	FieldScheme    = "scheme"
	FieldStatus    = "status"
	FieldWeight    = "weight"
	FieldIsDefault = "is_default"
	FieldRedirect  = "redirect"
)

var readOnlyFields = map[string]struct{}{
	FieldID:       {},
	FieldDomainID: {},
	FieldUUID:     {},
}

// isColumn reports whether name is a persisted column of Record.
func isColumn(name string) bool {
	switch name {
	case FieldID, FieldDomainID, FieldUUID, FieldName, FieldHostname,
		FieldScheme, FieldStatus, FieldWeight, FieldIsDefault, FieldRedirect:
		return true
	}
	return false
}

// IsSet reports whether the named field currently holds a value.
func (r *Record) IsSet(name string) bool {
	switch {
	case name == FieldRedirect:
		return r.Redirect != nil
	case isColumn(name):
		return true
	default:
		_, ok := r.Extra[name]
		return ok
	}
}

// AddProperty assigns value only when the named field is unset.  The first
// write wins and nothing is persisted.  It reports whether the value was
// stored.
func (r *Record) AddProperty(name, value string) bool {
	if name == "" || r.IsSet(name) {
		return false
	}
	if err := r.assign(name, value); err != nil {
		return false
	}
	return true
}

// assign parses value into the named field.
func (r *Record) assign(name, value string) error {
	if _, ro := readOnlyFields[name]; ro {
		return errReadOnly
	}

	switch name {
	case FieldName:
		r.Name = value
	case FieldHostname:
		r.SetHostname(value)
	case FieldScheme:
		r.SetScheme(value)
	case FieldStatus:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return errInvalidValue
		}
		r.Status = b
	case FieldIsDefault:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return errInvalidValue
		}
		r.IsDefault = b
	case FieldWeight:
		n, err := strconv.Atoi(value)
		if err != nil {
			return errInvalidValue
		}
		r.Weight = n
	case FieldRedirect:
		n, err := strconv.Atoi(value)
		if err != nil {
			return errInvalidValue
		}
		r.SetRedirect(n)
	default:
		if r.Extra == nil {
			r.Extra = Properties{}
		}
		r.Extra[name] = value
	}
	return nil
}
