package rank

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrEmptyTable    = errors.New("empty_tier_table")
	ErrNotDescending = errors.New("tier_thresholds_not_descending")
	ErrNoFloor       = errors.New("tier_table_missing_zero_floor")
	ErrDuplicateTier = errors.New("duplicate_tier")
	ErrBadTierSpec   = errors.New("invalid_tier_spec")
)

// Tier is one rank in the ladder. Key is the stable internal identity;
// Role is the externally visible role name the chat platform uses.
type Tier struct {
	Key       string `json:"key"`
	Threshold int64  `json:"threshold"`
	Role      string `json:"role"`
}

// Table is the rank ladder, ordered by descending threshold and
// terminated by a single zero-threshold floor tier. Validate before use;
// Resolve assumes a valid table.
type Table []Tier

// Default mirrors the community's ladder. Overridable via RANK_TIERS.
func Default() Table {
	return Table{
		{Key: "peak_master", Threshold: 10000, Role: "Peak Master"},
		{Key: "elder", Threshold: 4000, Role: "Elder"},
		{Key: "elite_disciple", Threshold: 1500, Role: "Elite Disciple"},
		{Key: "core_disciple", Threshold: 500, Role: "Core Disciple"},
		{Key: "inner_disciple", Threshold: 150, Role: "Inner Disciple"},
		{Key: "outer_disciple", Threshold: 0, Role: "Outer Disciple"},
	}
}

// Parse reads a table from a "key:threshold:Role Name" comma list,
// e.g. "elder:4000:Elder,outer:0:Outer Disciple".
func Parse(spec string) (Table, error) {
	var t Table
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		fields := strings.SplitN(part, ":", 3)
		if len(fields) != 3 {
			return nil, fmt.Errorf("%w: %q", ErrBadTierSpec, part)
		}
		threshold, err := strconv.ParseInt(strings.TrimSpace(fields[1]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrBadTierSpec, part, err)
		}
		t = append(t, Tier{
			Key:       strings.TrimSpace(fields[0]),
			Threshold: threshold,
			Role:      strings.TrimSpace(fields[2]),
		})
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Validate enforces the configuration-integrity invariants: strictly
// descending non-negative thresholds, exactly one zero floor, unique
// keys and role names. A valid table resolves every total.
func (t Table) Validate() error {
	if len(t) == 0 {
		return ErrEmptyTable
	}
	keys := make(map[string]bool, len(t))
	roles := make(map[string]bool, len(t))
	for i, tier := range t {
		if tier.Key == "" || tier.Role == "" {
			return fmt.Errorf("%w: tier %d has empty key or role", ErrBadTierSpec, i)
		}
		if tier.Threshold < 0 {
			return fmt.Errorf("%w: tier %q has negative threshold", ErrBadTierSpec, tier.Key)
		}
		if keys[tier.Key] || roles[tier.Role] {
			return fmt.Errorf("%w: %q", ErrDuplicateTier, tier.Key)
		}
		keys[tier.Key] = true
		roles[tier.Role] = true
		if i > 0 && tier.Threshold >= t[i-1].Threshold {
			return ErrNotDescending
		}
	}
	if t[len(t)-1].Threshold != 0 {
		return ErrNoFloor
	}
	return nil
}

// Resolve returns the tier a total belongs to: the first tier whose
// threshold is <= total. A total equal to a threshold belongs to that
// tier. The zero floor guarantees a match; totals below zero (possible
// with negative corrections) fall to the floor tier.
func (t Table) Resolve(total int64) Tier {
	for _, tier := range t {
		if total >= tier.Threshold {
			return tier
		}
	}
	return t[len(t)-1]
}

// RoleNames returns the set of role names that identify ranks; the
// synchronizer intersects a member's held roles with this set.
func (t Table) RoleNames() map[string]bool {
	set := make(map[string]bool, len(t))
	for _, tier := range t {
		set[tier.Role] = true
	}
	return set
}

// ByRole resolves a role name back to its tier.
func (t Table) ByRole(role string) (Tier, bool) {
	for _, tier := range t {
		if tier.Role == role {
			return tier, true
		}
	}
	return Tier{}, false
}

// ByKey resolves a stable key to its tier.
func (t Table) ByKey(key string) (Tier, bool) {
	for _, tier := range t {
		if tier.Key == key {
			return tier, true
		}
	}
	return Tier{}, false
}

// BestOf returns the highest tier among the given role names, ignoring
// names that are not rank roles. Used to tell promotions from
// demotions when a member holds stale rank roles.
func (t Table) BestOf(roleNames []string) (Tier, bool) {
	for _, tier := range t {
		for _, name := range roleNames {
			if name == tier.Role {
				return tier, true
			}
		}
	}
	return Tier{}, false
}

// RolesForKeys maps stable tier keys to their role names, skipping
// unknown keys. Used to translate configured tier keys (e.g. eligible
// protégé targets) into the platform's role names.
func (t Table) RolesForKeys(keys []string) []string {
	var roles []string
	for _, key := range keys {
		if tier, ok := t.ByKey(key); ok {
			roles = append(roles, tier.Role)
		}
	}
	return roles
}
