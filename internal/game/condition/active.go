package condition

import (
	"fmt"
	"sort"
)

// ActiveCondition tracks one applied condition on a unit.
type ActiveCondition struct {
	Def       *ConditionDef
	Stacks    int
	Remaining int // ticks left; -1 = permanent
}

// ActiveSet tracks all conditions currently applied to one unit.
// It is not safe for concurrent use; the caller must serialise access.
type ActiveSet struct {
	conditions map[string]*ActiveCondition
}

// NewActiveSet creates an empty ActiveSet.
func NewActiveSet() *ActiveSet {
	return &ActiveSet{conditions: make(map[string]*ActiveCondition)}
}

// Apply adds or refreshes a condition.
// Re-applying increments stacks (capped at MaxStacks; unstackable stays at 1) and
// extends the duration to max(existing, duration).
//
// Precondition: def must not be nil; duration > 0 or duration == -1.
// Postcondition: Has(def.ID) is true.
func (s *ActiveSet) Apply(def *ConditionDef, stacks, duration int) error {
	if def == nil {
		return fmt.Errorf("Apply: def must not be nil")
	}
	if duration == 0 || duration < -1 {
		return fmt.Errorf("Apply: duration for %q must be > 0 or -1, got %d", def.ID, duration)
	}
	if stacks < 1 {
		stacks = 1
	}
	if existing, ok := s.conditions[def.ID]; ok {
		if def.MaxStacks > 0 {
			existing.Stacks = min(existing.Stacks+stacks, def.MaxStacks)
		}
		if existing.Remaining != -1 && (duration == -1 || duration > existing.Remaining) {
			existing.Remaining = duration
		}
		return nil
	}
	n := 1
	if def.MaxStacks > 0 {
		n = min(stacks, def.MaxStacks)
	}
	s.conditions[def.ID] = &ActiveCondition{Def: def, Stacks: n, Remaining: duration}
	return nil
}

// Remove deletes the condition with the given ID. Absent ids are a no-op.
func (s *ActiveSet) Remove(id string) {
	delete(s.conditions, id)
}

// Tick decrements every timed condition by one tick and removes those that
// reach zero. Expired ids are returned sorted.
//
// Postcondition: for every id in the result, Has(id) is false.
func (s *ActiveSet) Tick() []string {
	var expired []string
	for id, ac := range s.conditions {
		if ac.Remaining < 0 {
			continue
		}
		ac.Remaining--
		if ac.Remaining <= 0 {
			expired = append(expired, id)
			delete(s.conditions, id)
		}
	}
	sort.Strings(expired)
	return expired
}

// Has reports whether the condition with id is currently active.
func (s *ActiveSet) Has(id string) bool {
	_, ok := s.conditions[id]
	return ok
}

// Stacks returns the current stack count for condition id, or 0 if not present.
func (s *ActiveSet) Stacks(id string) int {
	if ac, ok := s.conditions[id]; ok {
		return ac.Stacks
	}
	return 0
}

// Len returns the number of active conditions.
func (s *ActiveSet) Len() int { return len(s.conditions) }

// All returns the active conditions sorted by ID. The pointed-to values are
// shared; callers must not modify them.
func (s *ActiveSet) All() []*ActiveCondition {
	out := make([]*ActiveCondition, 0, len(s.conditions))
	for _, ac := range s.conditions {
		out = append(out, ac)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Def.ID < out[j].Def.ID })
	return out
}

// Clone returns an independent copy. Definitions are shared.
func (s *ActiveSet) Clone() *ActiveSet {
	out := NewActiveSet()
	for id, ac := range s.conditions {
		cp := *ac
		out.conditions[id] = &cp
	}
	return out
}
