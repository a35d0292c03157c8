// internal/app/policy/teampolicy/teampolicy.go
package teampolicy

import (
	"github.com/dalemusser/bloodhub/internal/domain/levels"
	"github.com/dalemusser/bloodhub/internal/domain/models"
)

// CanManageLevel reports whether the actor may create or delete teams at level:
// - Admins always can
// - Coordinators and co-coordinators of the parent level can for its child level
// Root levels (monitor, divisional) are admin-only.
func CanManageLevel(a models.Actor, level string) bool {
	if a.IsAdmin() {
		return true
	}
	parent, ok := levels.Parent(level)
	if !ok {
		return false
	}
	return parent.HoldsSlotRole(a.Role)
}

// CanEditTeam reports whether the actor may change team's slots and members.
// In addition to CanManageLevel, the team's own coordinator may edit it.
func CanEditTeam(a models.Actor, team models.Team) bool {
	if CanManageLevel(a, team.Level) {
		return true
	}
	if a.ID.IsZero() {
		return false
	}
	return team.Slots[levels.SlotCoordinator] == a.ID
}

// CanAttachChild reports whether the actor may link child under parent.
func CanAttachChild(a models.Actor, parent models.Team) bool {
	if a.IsAdmin() {
		return true
	}
	l, ok := levels.Lookup(parent.Level)
	if !ok || l.Child == "" {
		return false
	}
	return l.HoldsSlotRole(a.Role)
}
