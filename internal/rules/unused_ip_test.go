package rules

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/costwise/costwise/internal/models"
)

func reservedIP(status models.ResourceStatus, ageDays int, monthlyCost float64) models.Resource {
	res := models.Resource{
		ID:          uuid.New(),
		ProviderID:  uuid.New(),
		Vendor:      "alpha",
		ExternalID:  "ip-1",
		Name:        "203.0.113.10",
		Kind:        models.KindReservedIP,
		Region:      "ru-1",
		Status:      status,
		MonthlyCost: monthlyCost,
		Currency:    "USD",
	}
	if ageDays >= 0 {
		res.CreatedAt = time.Now().UTC().AddDate(0, 0, -ageDays)
	}
	return res
}

func TestUnusedIPRule_FlagsLongUnattachedIP(t *testing.T) {
	res := reservedIP(models.StatusUnattached, 45, 3)

	got, err := UnusedIPRule{}.Evaluate(context.Background(), testRuleContext(nil, nil), &res)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("want 1 recommendation, got %d", len(got))
	}
	if got[0].Type != models.TypeCleanupUnusedIP {
		t.Errorf("Type = %q; want %q", got[0].Type, models.TypeCleanupUnusedIP)
	}
	if got[0].EstimatedMonthlySavings != 3 {
		t.Errorf("savings = %v; want 3", got[0].EstimatedMonthlySavings)
	}
}

func TestUnusedIPRule_Skips(t *testing.T) {
	tests := []struct {
		name string
		res  models.Resource
	}{
		{"attached IP", reservedIP(models.StatusActive, 45, 3)},
		{"younger than threshold", reservedIP(models.StatusUnattached, 10, 3)},
		{"unknown creation time", reservedIP(models.StatusUnattached, -1, 3)},
		{"zero cost", reservedIP(models.StatusUnattached, 45, 0)},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got, err := UnusedIPRule{}.Evaluate(context.Background(), testRuleContext(nil, nil), &tc.res)
			if err != nil {
				t.Fatalf("Evaluate: %v", err)
			}
			if len(got) != 0 {
				t.Errorf("want no recommendations, got %d", len(got))
			}
		})
	}
}
