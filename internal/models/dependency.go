package models

import "time"

// DefaultMaxDependencyHops caps the parent walk. A hit means corrupted
// data, not a legitimately long chain.
const DefaultMaxDependencyHops = 256

// ParentResolver looks up the parent task id of the given task, nil when
// the task has no dependency.
type ParentResolver func(id uint) (*uint, error)

// ScopeResolver looks up the owning control id of the given task.
type ScopeResolver func(id uint) (uint, error)

// SetDependency points the task at a new parent after full validation:
// self-dependencies, cross-control chains (when enforced) and cycles are
// rejected, and the walk is capped at maxHops. A nil parent clears the
// dependency and is always legal. Nothing is committed on failure.
func (t *ToDo) SetDependency(newParentID *uint, parents ParentResolver, scopes ScopeResolver, enforceSameScope bool, maxHops int) error {
	if newParentID == nil {
		t.DependsOnID = nil
		t.UpdatedAt = time.Now()
		return nil
	}
	if *newParentID == t.ID {
		return invariantf("todo %d cannot depend on itself", t.ID)
	}
	if enforceSameScope && scopes != nil {
		parentControl, err := scopes(*newParentID)
		if err != nil {
			return err
		}
		if parentControl != t.ControlID {
			return invariantf("todo %d belongs to control %d, dependency target %d belongs to control %d",
				t.ID, t.ControlID, *newParentID, parentControl)
		}
	}
	if maxHops <= 0 {
		maxHops = DefaultMaxDependencyHops
	}

	seen := map[uint]struct{}{}
	current := *newParentID
	for hops := 0; ; hops++ {
		if current == t.ID {
			return invariantf("dependency on todo %d would close a cycle back to todo %d", *newParentID, t.ID)
		}
		if _, dup := seen[current]; dup {
			return invariantf("dependency chain of todo %d already contains a cycle at todo %d", *newParentID, current)
		}
		if hops >= maxHops {
			return invariantf("dependency chain of todo %d exceeds %d hops", *newParentID, maxHops)
		}
		seen[current] = struct{}{}

		next, err := parents(current)
		if err != nil {
			return err
		}
		if next == nil {
			break // chain terminates, edge is safe
		}
		current = *next
	}

	t.DependsOnID = newParentID
	t.UpdatedAt = time.Now()
	return nil
}

// SetDependencyUnchecked commits the parent reference with only the
// self-dependency check. Used by bulk seeding where the chain is safe by
// construction; interactive edits go through SetDependency.
func (t *ToDo) SetDependencyUnchecked(newParentID *uint) error {
	if newParentID != nil && *newParentID == t.ID {
		return invariantf("todo %d cannot depend on itself", t.ID)
	}
	t.DependsOnID = newParentID
	t.UpdatedAt = time.Now()
	return nil
}
