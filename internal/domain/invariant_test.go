package domain_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"pgregory.net/rapid"

	"github.com/yanizio/adept-domain/internal/domain"
	"github.com/yanizio/adept-domain/internal/domain/domaintest"
)

// TestProperty_ExactlyOneDefault drives random create, promote, enable,
// disable, set, and delete sequences and checks that a non-empty collection
// always has exactly one default and an empty one has none.
func TestProperty_ExactlyOneDefault(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		store := &domaintest.Store{}
		svc := domain.NewService(domain.Deps{Store: store, IDs: &domaintest.Sequence{}})
		ctx := context.Background()

		pickID := func(label string) string {
			n := rapid.IntRange(0, 7).Draw(t, label)
			return fmt.Sprintf("h%d_test", n)
		}

		steps := rapid.IntRange(1, 40).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			op := rapid.SampledFrom([]string{
				"create", "create_default", "promote", "enable", "disable", "set_default", "delete",
			}).Draw(t, "op")

			var err error
			switch op {
			case "create", "create_default":
				n := rapid.IntRange(0, 7).Draw(t, "host")
				host := fmt.Sprintf("h%d.test", n)
				d := domain.Draft{Name: host, Hostname: host}
				if op == "create_default" {
					yes := true
					d.IsDefault = &yes
				}
				_, err = svc.Create(ctx, d, rapid.Bool().Draw(t, "secure"))
			case "promote":
				_, err = svc.Promote(ctx, pickID("id"))
			case "enable":
				_, err = svc.Enable(ctx, pickID("id"))
			case "disable":
				_, err = svc.Disable(ctx, pickID("id"))
			case "set_default":
				v := rapid.SampledFrom([]string{"true", "false"}).Draw(t, "value")
				_, err = svc.SetProperty(ctx, pickID("id"), domain.FieldIsDefault, v)
			case "delete":
				_, err = svc.Delete(ctx, pickID("id"))
			}

			switch {
			case err == nil,
				errors.Is(err, domain.ErrNotFound),
				errors.Is(err, domain.ErrHostnameTaken),
				errors.Is(err, domain.ErrExists):
			default:
				t.Fatalf("step %d (%s): unexpected error: %v", i, op, err)
			}

			defaults := len(store.Defaults())
			if store.Len() == 0 && defaults != 0 {
				t.Fatalf("step %d (%s): empty set has %d defaults", i, op, defaults)
			}
			if store.Len() > 0 && defaults != 1 {
				t.Fatalf("step %d (%s): %d records, %d defaults", i, op, store.Len(), defaults)
			}
		}
	})
}
