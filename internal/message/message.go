// internal/message/message.go
//
// Adept – operator notices for domain record operations.
//
// Context
//   domain.Service reports refusals ("already the default", "cannot
//   disable the default") as Outcome values, never as errors.  This
//   package turns a domain.Result into the short notice shown to the
//   operator by the admin API and by domainctl.
//
//   A Messenger collects several notices during one request, e.g. when an
//   edit form sets more than one property.
//
// Style
//   Two-space sentence spacing, Oxford comma, concise inline notes.
//
//------------------------------------------------------------------------------

package message

import (
	"fmt"
	"strings"
	"sync"

	"github.com/yanizio/adept-domain/internal/domain"
)

// Level is the severity shown next to a notice.
type Level string

const (
	LevelStatus  Level = "status"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notice is one operator-facing message.
type Notice struct {
	Level Level  `json:"level"`
	Text  string `json:"text"`
}

// String renders "level: text" for terminals.
func (n Notice) String() string { return string(n.Level) + ": " + n.Text }

// For builds the notice for a Service result.
func For(res domain.Result) Notice {
	host := res.Hostname()

	switch res.Outcome {
	case domain.OutcomeCreated:
		if res.Record != nil && res.Record.IsDefault {
			return status("Created domain record %s as the default domain.", host)
		}
		return status("Created domain record %s.", host)
	case domain.OutcomeSaved:
		return status("Saved domain record %s.", host)
	case domain.OutcomeDeleted:
		return status("Deleted domain record %s.", host)
	case domain.OutcomePromoted:
		return status("%s has been set as the default domain.", host)
	case domain.OutcomeEnabled:
		return status("%s has been enabled.", host)
	case domain.OutcomeDisabled:
		return status("%s has been disabled.", host)
	case domain.OutcomePropertySet:
		return status("The %s attribute was set to %s for domain %s.", res.Key, res.Value, host)
	case domain.OutcomeRepaired:
		return status("The default domain was repaired.")
	case domain.OutcomeConsistent:
		return status("Exactly one default domain is set.  Nothing to repair.")

	case domain.OutcomeAlreadyDefault:
		return warning("The selected domain is already the default.")
	case domain.OutcomeCannotDisableDefault:
		return warning("The default domain cannot be disabled.")
	case domain.OutcomeCannotUnsetDefault:
		return warning("The default domain cannot be unset.  Set another domain as the default instead.")
	case domain.OutcomePropertyMissing:
		return warning("The %s attribute does not exist.", res.Key)
	case domain.OutcomeReadOnly:
		return warning("The %s attribute cannot be changed.", res.Key)
	case domain.OutcomeInvalidValue:
		return warning("%q is not a valid value for the %s attribute.", res.Value, res.Key)
	}
	return Notice{Level: LevelStatus}
}

// ForRepair summarises a RepairReport.
func ForRepair(rep domain.RepairReport) Notice {
	if !rep.Changed() {
		return For(domain.Result{Outcome: domain.OutcomeConsistent})
	}
	var parts []string
	if rep.Promoted != "" {
		parts = append(parts, fmt.Sprintf("promoted %s", rep.Promoted))
	}
	if len(rep.Demoted) > 0 {
		parts = append(parts, fmt.Sprintf("demoted %s", strings.Join(rep.Demoted, ", ")))
	}
	return warning("Found %d default domains; %s.", rep.Defaults, strings.Join(parts, " and "))
}

// Error wraps a hard failure for display.
func Error(err error) Notice { return Notice{Level: LevelError, Text: err.Error()} }

func status(format string, args ...any) Notice {
	return Notice{Level: LevelStatus, Text: fmt.Sprintf(format, args...)}
}

func warning(format string, args ...any) Notice {
	return Notice{Level: LevelWarning, Text: fmt.Sprintf(format, args...)}
}

//
// Messenger
//

// Messenger collects notices.  The zero value is ready to use.
type Messenger struct {
	mu      sync.Mutex
	notices []Notice
}

// Add appends n.  Empty notices are dropped.
func (m *Messenger) Add(n Notice) {
	if n.Text == "" {
		return
	}
	m.mu.Lock()
	m.notices = append(m.notices, n)
	m.mu.Unlock()
}

// All returns a copy of the collected notices.
func (m *Messenger) All() []Notice {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Notice(nil), m.notices...)
}

// Level returns the most severe level collected, or LevelStatus.
func (m *Messenger) Level() Level {
	m.mu.Lock()
	defer m.mu.Unlock()
	lvl := LevelStatus
	for _, n := range m.notices {
		switch n.Level {
		case LevelError:
			return LevelError
		case LevelWarning:
			lvl = LevelWarning
		}
	}
	return lvl
}
