package domain

// Outcome classifies the result of a Service operation.  Refusals are
// advisory: the operation completed without a write and the caller decides
// how to present it (see internal/message).
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeCreated
	OutcomeSaved
	OutcomeDeleted
	OutcomePromoted
	OutcomeEnabled
	OutcomeDisabled
	OutcomePropertySet
	OutcomeRepaired
	OutcomeConsistent

	// Advisory refusals.  No state changed.
	OutcomeAlreadyDefault
	OutcomeCannotDisableDefault
	OutcomeCannotUnsetDefault
	OutcomePropertyMissing
	OutcomeReadOnly
	OutcomeInvalidValue
)

var outcomeNames = [...]string{
	OutcomeNone:                 "none",
	OutcomeCreated:              "created",
	OutcomeSaved:                "saved",
	OutcomeDeleted:              "deleted",
	OutcomePromoted:             "promoted",
	OutcomeEnabled:              "enabled",
	OutcomeDisabled:             "disabled",
	OutcomePropertySet:          "property_set",
	OutcomeRepaired:             "repaired",
	OutcomeConsistent:           "consistent",
	OutcomeAlreadyDefault:       "already_default",
	OutcomeCannotDisableDefault: "cannot_disable_default",
	OutcomeCannotUnsetDefault:   "cannot_unset_default",
	OutcomePropertyMissing:      "property_missing",
	OutcomeReadOnly:             "read_only",
	OutcomeInvalidValue:         "invalid_value",
}

func (o Outcome) String() string {
	if int(o) < len(outcomeNames) {
		return outcomeNames[o]
	}
	return "unknown"
}

// Advisory reports whether o is a refusal that left state unchanged.
func (o Outcome) Advisory() bool { return o >= OutcomeAlreadyDefault }

// Result is returned by every mutating Service call.
type Result struct {
	Outcome Outcome
	Record  *Record // affected record, nil when none

	// Key and Value describe a property update.
	Key   string
	Value string

	// Demoted is the previous default when a write moved the flag.
	Demoted *Record
}

// Hostname returns the affected record's hostname, or "".
func (r Result) Hostname() string {
	if r.Record == nil {
		return ""
	}
	return r.Record.Hostname
}

// RepairReport describes what Repair changed.
type RepairReport struct {
	Defaults int      // defaults found before repair
	Promoted string   // ID promoted, "" when none
	Demoted  []string // IDs demoted
}

// Changed reports whether Repair wrote anything.
func (rr RepairReport) Changed() bool { return rr.Promoted != "" || len(rr.Demoted) > 0 }
