package message

import (
	"errors"
	"testing"

	"github.com/yanizio/adept-domain/internal/domain"
)

func TestFor(t *testing.T) {
	rec := &domain.Record{ID: "ex", Hostname: "example.com"}

	cases := []struct {
		name  string
		res   domain.Result
		level Level
		text  string
	}{
		{"promoted", domain.Result{Outcome: domain.OutcomePromoted, Record: rec},
			LevelStatus, "example.com has been set as the default domain."},
		{"already default", domain.Result{Outcome: domain.OutcomeAlreadyDefault, Record: rec},
			LevelWarning, "The selected domain is already the default."},
		{"cannot disable", domain.Result{Outcome: domain.OutcomeCannotDisableDefault, Record: rec},
			LevelWarning, "The default domain cannot be disabled."},
		{"property set", domain.Result{Outcome: domain.OutcomePropertySet, Record: rec, Key: "weight", Value: "4"},
			LevelStatus, "The weight attribute was set to 4 for domain example.com."},
		{"property missing", domain.Result{Outcome: domain.OutcomePropertyMissing, Record: rec, Key: "color"},
			LevelWarning, "The color attribute does not exist."},
		{"invalid value", domain.Result{Outcome: domain.OutcomeInvalidValue, Record: rec, Key: "weight", Value: "x"},
			LevelWarning, `"x" is not a valid value for the weight attribute.`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			n := For(tc.res)
			if n.Level != tc.level || n.Text != tc.text {
				t.Fatalf("got %s", n)
			}
		})
	}
}

func TestForEveryOutcomeHasText(t *testing.T) {
	for o := domain.OutcomeCreated; o <= domain.OutcomeInvalidValue; o++ {
		if For(domain.Result{Outcome: o}).Text == "" {
			t.Errorf("%s has no notice text", o)
		}
	}
}

func TestForRepair(t *testing.T) {
	if n := ForRepair(domain.RepairReport{Defaults: 1}); n.Level != LevelStatus {
		t.Fatalf("consistent = %s", n)
	}
	n := ForRepair(domain.RepairReport{Defaults: 3, Demoted: []string{"b", "c"}})
	if n.Level != LevelWarning || n.Text != "Found 3 default domains; demoted b, c." {
		t.Fatalf("got %s", n)
	}
}

func TestMessenger(t *testing.T) {
	var m Messenger
	m.Add(Notice{})
	m.Add(For(domain.Result{Outcome: domain.OutcomeEnabled, Record: &domain.Record{Hostname: "a.test"}}))
	if m.Level() != LevelStatus || len(m.All()) != 1 {
		t.Fatalf("notices = %v", m.All())
	}
	m.Add(For(domain.Result{Outcome: domain.OutcomeAlreadyDefault}))
	if m.Level() != LevelWarning {
		t.Fatalf("level = %s", m.Level())
	}
	m.Add(Error(errors.New("boom")))
	if m.Level() != LevelError {
		t.Fatalf("level = %s", m.Level())
	}
}
