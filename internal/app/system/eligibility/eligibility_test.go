package eligibility

import (
	"testing"
	"time"

	"github.com/dalemusser/bloodhub/internal/app/system/dates"
	"github.com/dalemusser/bloodhub/internal/domain/models"
)

var now = time.Date(2024, time.June, 10, 15, 30, 0, 0, time.UTC)

func donor(banned, approved bool, daysAgo int) *models.User {
	u := &models.User{IsBanned: banned, IsApproved: approved}
	if daysAgo >= 0 {
		d := dates.AddDays(now, -daysAgo)
		u.LastDonationAt = &d
	}
	return u
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name     string
		donor    *models.User
		eligible bool
		reason   string
	}{
		{"missing donor", nil, false, ReasonNotFound},
		{"never donated", donor(false, true, -1), true, ""},
		{"banned wins over everything", donor(true, false, 10), false, ReasonBanned},
		{"not approved wins over cooldown", donor(false, false, 10), false, ReasonNotApproved},
		{"119 days ago", donor(false, true, 119), false, "donor can donate again on 11/06/2024"},
		{"exactly 120 days ago", donor(false, true, 120), true, ""},
		{"200 days ago", donor(false, true, 200), true, ""},
		{"donated today", donor(false, true, 0), false, "donor can donate again on 08/10/2024"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(tt.donor, now)
			if got.Eligible != tt.eligible {
				t.Errorf("Eligible = %v, want %v", got.Eligible, tt.eligible)
			}
			if got.Reason != tt.reason {
				t.Errorf("Reason = %q, want %q", got.Reason, tt.reason)
			}
		})
	}
}

func TestEvaluate_SubDayTimesIgnored(t *testing.T) {
	// Last donation late in the evening, check early in the morning 120 days later.
	last := time.Date(2024, time.February, 11, 23, 59, 0, 0, time.UTC)
	u := &models.User{IsApproved: true, LastDonationAt: &last}
	check := time.Date(2024, time.June, 10, 0, 1, 0, 0, time.UTC)
	if res := Evaluate(u, check); !res.Eligible {
		t.Errorf("expected eligible at day boundary, got reason %q", res.Reason)
	}
}

func TestEvaluate_NextEligibleOn(t *testing.T) {
	res := Evaluate(donor(false, true, 30), now)
	if res.NextEligibleOn == nil {
		t.Fatal("expected NextEligibleOn to be set")
	}
	if dates.DaysBetween(now, *res.NextEligibleOn) != 90 {
		t.Errorf("NextEligibleOn = %s", dates.Format(*res.NextEligibleOn))
	}
}

func TestCutoff(t *testing.T) {
	if got := dates.Format(Cutoff(now)); got != "11/02/2024" {
		t.Errorf("Cutoff() = %s, want 11/02/2024", got)
	}
}
