package selector

// Group classifications consumed by the visualization layer.
const (
	GroupSentinel            = "sentinel_ip"
	GroupMaintenance         = "maintenance"
	GroupSentinelMaintenance = "sentinel_maintenance"
)

// RoleSet records which nodes ended up in which selection. Roles are
// write-once: they are assigned exactly once, after both selectors
// have finished.
type RoleSet struct {
	assigned    bool
	sentinel    map[string]struct{}
	maintenance map[string]struct{}
}

// NewRoleSet creates an empty, unassigned role set.
func NewRoleSet() *RoleSet {
	return &RoleSet{
		sentinel:    make(map[string]struct{}),
		maintenance: make(map[string]struct{}),
	}
}

// Assign records the production selections. A second call fails.
func (r *RoleSet) Assign(sentinels, maintenance []string) error {
	if r.assigned {
		return ErrRolesAssigned
	}
	for _, id := range sentinels {
		r.sentinel[id] = struct{}{}
	}
	for _, id := range maintenance {
		r.maintenance[id] = struct{}{}
	}
	r.assigned = true
	return nil
}

// Group returns the export classification for id, empty when the node
// is in neither selection.
func (r *RoleSet) Group(id string) string {
	_, s := r.sentinel[id]
	_, m := r.maintenance[id]
	switch {
	case s && m:
		return GroupSentinelMaintenance
	case s:
		return GroupSentinel
	case m:
		return GroupMaintenance
	default:
		return ""
	}
}
