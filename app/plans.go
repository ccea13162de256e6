// Package app enforces plan-based rate limits and history windows.
package app

import "github.com/dexten32/accuscanner/app/models"

// PlanLimit describes what a subscription tier is allowed to do.
// DateRangeDays == 0 means the plan sees the full date history.
type PlanLimit struct {
	RateLimit     int // requests per minute
	DateRangeDays int // most-recent distinct dates visible
}

var planLimits = map[models.Plan]PlanLimit{
	models.PlanFree:  {RateLimit: 60, DateRangeDays: 7},
	models.PlanTrial: {RateLimit: 20, DateRangeDays: 30},
	models.PlanPro:   {RateLimit: 100, DateRangeDays: 0},
}

// LimitsFor is total over all plan strings: unknown tags get the FREE limits
// rather than failing open to unlimited.
func LimitsFor(plan models.Plan) PlanLimit {
	if l, ok := planLimits[plan]; ok {
		return l
	}
	return planLimits[models.PlanFree]
}
