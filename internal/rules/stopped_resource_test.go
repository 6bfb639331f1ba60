package rules

import (
	"context"
	"testing"

	"github.com/costwise/costwise/internal/models"
	"github.com/costwise/costwise/internal/policy"
)

func TestStoppedResourceRule_FlagsHaltedStates(t *testing.T) {
	for _, status := range []models.ResourceStatus{
		models.StatusStopped, models.StatusDeallocated, models.StatusTerminated,
	} {
		status := status
		t.Run(string(status), func(t *testing.T) {
			res := serverResource(4, 16, 500)
			res.Status = status
			res.Spec.StorageGB = 100

			got, err := StoppedResourceRule{}.Evaluate(context.Background(), testRuleContext(nil, nil), &res)
			if err != nil {
				t.Fatalf("Evaluate: %v", err)
			}
			if len(got) != 1 {
				t.Fatalf("want 1 recommendation, got %d", len(got))
			}
			// 100 GB at the default 0.08/GB storage price.
			if got[0].EstimatedMonthlySavings != 8 {
				t.Errorf("savings = %v; want 8", got[0].EstimatedMonthlySavings)
			}
			if got[0].Type != models.TypeCleanupStopped {
				t.Errorf("Type = %q; want %q", got[0].Type, models.TypeCleanupStopped)
			}
		})
	}
}

func TestStoppedResourceRule_Skips(t *testing.T) {
	t.Run("running server", func(t *testing.T) {
		res := serverResource(4, 16, 500)
		res.Spec.StorageGB = 100

		got, err := StoppedResourceRule{}.Evaluate(context.Background(), testRuleContext(nil, nil), &res)
		if err != nil || len(got) != 0 {
			t.Fatalf("want nothing for a running server, got %v (%v)", got, err)
		}
	})

	t.Run("no billed storage", func(t *testing.T) {
		res := serverResource(4, 16, 500)
		res.Status = models.StatusStopped

		got, err := StoppedResourceRule{}.Evaluate(context.Background(), testRuleContext(nil, nil), &res)
		if err != nil || len(got) != 0 {
			t.Fatalf("want nothing without storage, got %v (%v)", got, err)
		}
	})
}

func TestStoppedResourceRule_UsesConfiguredStoragePrice(t *testing.T) {
	res := serverResource(4, 16, 500)
	res.Status = models.StatusStopped
	res.Spec.StorageGB = 50

	rctx := testRuleContext(nil, nil)
	rctx.Thresholds = &policy.Thresholds{StoragePricePerGBMonth: 0.20}
	got, err := StoppedResourceRule{}.Evaluate(context.Background(), rctx, &res)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(got) != 1 || got[0].EstimatedMonthlySavings != 10 {
		t.Fatalf("want savings 50*0.20=10, got %+v", got)
	}
}
