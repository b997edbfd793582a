// SPDX-License-Identifier: AGPL-3.0-or-later

package replication

import "github.com/overgrid/relay/world"

// Snapshot records the last value of each (entity, attribute) pair sent to
// any client. It is global, not per client, keeping memory O(entities x
// attributes); per-client divergence is handled by full sync on view-enter,
// not by per-client history here.
type Snapshot struct {
	values map[world.NetworkID]map[string]FieldSet
}

func NewSnapshot() *Snapshot {
	return &Snapshot{values: make(map[world.NetworkID]map[string]FieldSet, 64)}
}

func (s *Snapshot) get(id world.NetworkID, attr string) (FieldSet, bool) {
	byAttr, ok := s.values[id]
	if !ok {
		return nil, false
	}
	fields, ok := byAttr[attr]
	return fields, ok
}

func (s *Snapshot) set(id world.NetworkID, attr string, fields FieldSet) {
	byAttr, ok := s.values[id]
	if !ok {
		byAttr = make(map[string]FieldSet, len(Registry))
		s.values[id] = byAttr
	}
	byAttr[attr] = fields
}

// Forget drops all snapshot state for id, called on despawn so a later
// network_id reuse doesn't inherit a stale baseline.
func (s *Snapshot) Forget(id world.NetworkID) {
	delete(s.values, id)
}

// DirtySet names, per entity and attribute, which individual fields changed
// beyond their attribute's threshold this tick.
type DirtySet map[world.NetworkID]map[string]map[string]bool

func (d DirtySet) markFields(id world.NetworkID, attr string, fields map[string]bool) {
	attrs, ok := d[id]
	if !ok {
		attrs = make(map[string]map[string]bool, len(Registry))
		d[id] = attrs
	}
	attrs[attr] = fields
}

// Has reports whether entity id has any dirty attribute this tick.
func (d DirtySet) Has(id world.NetworkID) bool {
	attrs, ok := d[id]
	return ok && len(attrs) > 0
}

// DetectChanges is the Change Detector (C4): for every live entity and
// every registered attribute it carries, compare against the global
// snapshot using the attribute's threshold, record which fields changed,
// and, for each attribute with a changed field, advance its snapshot to the
// tick's values. Unchanged attributes keep their old baseline.
func DetectChanges(w *world.World, snapshot *Snapshot) DirtySet {
	dirty := make(DirtySet)

	w.ForEach(func(e *world.Entity) {
		for _, attr := range Registry {
			fields, ok := attr.Extract(e)
			if !ok {
				continue
			}

			prev, hadPrev := snapshot.get(e.NetworkID, attr.Name)
			var changed map[string]bool
			if !hadPrev {
				changed = make(map[string]bool, len(fields))
				for key := range fields {
					changed[key] = true
				}
			} else {
				changed = changedFields(prev, fields, attr.Threshold)
			}

			if len(changed) > 0 {
				dirty.markFields(e.NetworkID, attr.Name, changed)
				snapshot.set(e.NetworkID, attr.Name, fields)
			}
		}
	})

	return dirty
}
