// Package levels is the registry of hierarchy team levels: which slots a
// team of each level has, the role label each slot requires, and which level
// its child teams belong to.
package levels

import "sort"

// Level names.
const (
	Monitor    = "monitor"
	Moderator  = "moderator"
	Divisional = "divisional"
	District   = "district"
	Upazila    = "upazila"
)

// Slot names shared by every level.
const (
	SlotCoordinator   = "coordinator"
	SlotCoCoordinator = "co_coordinator"
)

// Level describes one tier of the hierarchy.
type Level struct {
	Name  string
	Title string
	// Slots maps slot name to the role label its occupant must hold.
	Slots map[string]string
	// Child is the level of teams that may be attached below; "" for leaves.
	Child string
	// PromoteMembers, when set, upgrades plain users added as members to the
	// Member role.
	PromoteMembers bool
}

var registry = map[string]Level{
	Monitor: {
		Name:  Monitor,
		Title: "Monitor Team",
		Slots: map[string]string{
			SlotCoordinator:   "Monitor Coordinator",
			SlotCoCoordinator: "Monitor Co-Coordinator",
		},
		Child: Moderator,
	},
	Moderator: {
		Name:  Moderator,
		Title: "Moderator Team",
		Slots: map[string]string{
			SlotCoordinator:   "Moderator Coordinator",
			SlotCoCoordinator: "Moderator Co-Coordinator",
		},
		PromoteMembers: true,
	},
	Divisional: {
		Name:  Divisional,
		Title: "Divisional Team",
		Slots: map[string]string{
			SlotCoordinator:   "Divisional Coordinator",
			SlotCoCoordinator: "Divisional Co-Coordinator",
		},
		Child: District,
	},
	District: {
		Name:  District,
		Title: "District Team",
		Slots: map[string]string{
			SlotCoordinator:   "District Coordinator",
			SlotCoCoordinator: "District Co-Coordinator",
		},
		Child: Upazila,
	},
	Upazila: {
		Name:  Upazila,
		Title: "Upazila Team",
		Slots: map[string]string{
			SlotCoordinator:   "Upazila Coordinator",
			SlotCoCoordinator: "Upazila Co-Coordinator",
		},
	},
}

// Lookup returns the level named name.
func Lookup(name string) (Level, bool) {
	l, ok := registry[name]
	return l, ok
}

// Names returns all level names, sorted.
func Names() []string {
	out := make([]string, 0, len(registry))
	for n := range registry {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Parent returns the level whose teams may own teams of level name.
func Parent(name string) (Level, bool) {
	for _, l := range registry {
		if l.Child == name {
			return l, true
		}
	}
	return Level{}, false
}

// RequiredRole returns the role label slot requires, and false for an
// unknown slot.
func (l Level) RequiredRole(slot string) (string, bool) {
	r, ok := l.Slots[slot]
	return r, ok
}

// HoldsSlotRole reports whether role is one of the level's slot roles.
func (l Level) HoldsSlotRole(role string) bool {
	for _, r := range l.Slots {
		if r == role {
			return true
		}
	}
	return false
}
