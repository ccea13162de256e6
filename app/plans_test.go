package app

import (
	"testing"

	"github.com/dexten32/accuscanner/app/models"
)

func TestLimitsForKnownPlans(t *testing.T) {
	if l := LimitsFor(models.PlanFree); l.RateLimit != 60 || l.DateRangeDays != 7 {
		t.Fatalf("FREE limits = %+v", l)
	}
	if l := LimitsFor(models.PlanTrial); l.RateLimit != 20 || l.DateRangeDays != 30 {
		t.Fatalf("TRIAL limits = %+v", l)
	}
	if l := LimitsFor(models.PlanPro); l.RateLimit != 100 || l.DateRangeDays != 0 {
		t.Fatalf("PRO limits = %+v", l)
	}
}

func TestLimitsForUnknownPlanFallsBackToFree(t *testing.T) {
	got := LimitsFor(models.Plan("ENTERPRISE"))
	if got != LimitsFor(models.PlanFree) {
		t.Fatalf("unknown plan limits = %+v, want FREE limits", got)
	}
	if got := LimitsFor(models.Plan("")); got != LimitsFor(models.PlanFree) {
		t.Fatalf("empty plan limits = %+v, want FREE limits", got)
	}
}
