// internal/domain/lifecycle.go
//
// Create and save pipeline steps.
//
// Context
// -------
// Both steps are pure.  Service calls them inside a Store transaction and
// persists whatever they return, so the default-record invariant holds
// without any hook dispatch:
//
//  1. BeforeCreate turns a Draft into a Record, filling defaults from the
//     existing collection and the ambient TLS flag.
//  2. BeforeSave reconciles the default flag against the current default
//     and hands back the record that must be demoted, if any.
package domain

import "github.com/google/uuid"

// Draft carries caller-supplied values for a new record.  Nil pointers and
// empty strings are filled in by BeforeCreate.
type Draft struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Hostname  string `json:"hostname"`
	Scheme    string `json:"scheme"`
	Status    *bool  `json:"status"`
	Weight    *int   `json:"weight"`
	IsDefault *bool  `json:"is_default"`
	Redirect  *int   `json:"redirect"`
}

// newUUID is swapped in tests.
var newUUID = func() string { return uuid.NewString() }

// BeforeCreate builds a record from d.  Defaults:
//
//	scheme     "https" when secure, else "http"
//	status     enabled
//	weight     len(existing) + 1
//	is_default true only when no existing record is the default
//	domain_id  numericID
func BeforeCreate(d Draft, existing []*Record, secure bool, numericID int64) *Record {
	rec := &Record{
		ID:       d.ID,
		DomainID: numericID,
		UUID:     newUUID(),
		Name:     d.Name,
		Hostname: NormalizeHostname(d.Hostname),
		Scheme:   d.Scheme,
		Status:   true,
		Weight:   len(existing) + 1,
	}
	if rec.ID == "" {
		rec.ID = MachineName(rec.Hostname)
	}
	if rec.Scheme == "" {
		rec.Scheme = SchemeHTTP
		if secure {
			rec.Scheme = SchemeHTTPS
		}
	}
	if d.Status != nil {
		rec.Status = *d.Status
	}
	if d.Weight != nil {
		rec.Weight = *d.Weight
	}
	if d.IsDefault != nil {
		rec.IsDefault = *d.IsDefault
	} else {
		rec.IsDefault = findDefault(existing) == nil
	}
	if d.Redirect != nil {
		rec.SetRedirect(*d.Redirect)
	}
	return rec
}

// BeforeSave reconciles rec.IsDefault with current, the stored default (nil
// when none).  It returns the record to demote, or nil.
//
//   - No default anywhere: rec becomes the default.
//   - rec claims the flag from another record: that record is returned with
//     IsDefault cleared.
//   - rec is the stored default but tries to drop the flag: the flag is
//     restored.  The default moves only by promoting another record.
func BeforeSave(rec, current *Record) (demote *Record) {
	switch {
	case current == nil:
		rec.IsDefault = true
	case current.ID == rec.ID:
		rec.IsDefault = true
	case rec.IsDefault:
		current.IsDefault = false
		return current
	}
	return nil
}

// findDefault returns the first record flagged as default.
func findDefault(all []*Record) *Record {
	for _, r := range all {
		if r.IsDefault {
			return r
		}
	}
	return nil
}

// countDefaults returns how many records carry the default flag.
func countDefaults(all []*Record) int {
	n := 0
	for _, r := range all {
		if r.IsDefault {
			n++
		}
	}
	return n
}
