// SPDX-License-Identifier: AGPL-3.0-or-later

// Package replication implements change detection, interest management,
// and outbound message building for replicated entity state. The attribute
// registry below is a small runtime table — attribute name -> {threshold,
// extractor, encoder} — built once at init and walked once per entity per
// tick, so adding a new replicated attribute never touches the detection or
// dispatch code.
package replication

import "github.com/overgrid/relay/world"

// FieldSet holds one replicated attribute's scalar fields, keyed by field
// name, in a representation uniform enough to diff regardless of the
// attribute's native Go type.
type FieldSet map[string]float64

// Attribute describes one replicated component: how to read its current
// value off an entity, the per-field threshold beyond which a change counts
// as dirty, and how to render it for the wire.
type Attribute struct {
	Name      string
	Threshold float64
	// Atomic attributes (Position, Velocity) are wire-encoded as a fixed
	// [x,y] array and so always send every field together once any of them
	// is dirty. Non-atomic attributes (Health) are wire-encoded as a named
	// object and send only the individual fields that crossed Threshold.
	Atomic bool
	// Extract reports the entity's current field values for this attribute,
	// and whether the entity carries it at all.
	Extract func(e *world.Entity) (FieldSet, bool)
	// Encode renders fields as the wire.Update.C value for this attribute.
	// It must render exactly the keys present in fields, nothing more.
	Encode func(fields FieldSet) interface{}
}

// Registry lists every replicated attribute, walked in order so encoded
// messages have a stable attribute order.
var Registry = []Attribute{positionAttribute, velocityAttribute, healthAttribute}

var positionAttribute = Attribute{
	Name:      "position",
	Threshold: 0.01,
	Atomic:    true,
	Extract: func(e *world.Entity) (FieldSet, bool) {
		return FieldSet{"x": float64(e.Position.X), "y": float64(e.Position.Y)}, true
	},
	Encode: func(fields FieldSet) interface{} {
		return world.Vec2f{X: float32(fields["x"]), Y: float32(fields["y"])}
	},
}

var velocityAttribute = Attribute{
	Name:      "velocity",
	Threshold: 0.01,
	Atomic:    true,
	Extract: func(e *world.Entity) (FieldSet, bool) {
		if !e.HasProfile {
			return nil, false
		}
		return FieldSet{"x": float64(e.Velocity.X), "y": float64(e.Velocity.Y)}, true
	},
	Encode: func(fields FieldSet) interface{} {
		return world.Vec2f{X: float32(fields["x"]), Y: float32(fields["y"])}
	},
}

var healthAttribute = Attribute{
	Name:      "health",
	Threshold: 0.1,
	Extract: func(e *world.Entity) (FieldSet, bool) {
		if !e.HasHealth {
			return nil, false
		}
		return FieldSet{"current": e.Health.Current, "max": e.Health.Max}, true
	},
	// Renders exactly the fields it is given, so a partial FieldSet (only
	// the fields that individually crossed Threshold) produces a partial
	// object instead of silently zeroing the fields left out.
	Encode: func(fields FieldSet) interface{} {
		out := make(map[string]float64, len(fields))
		for k, v := range fields {
			out[k] = v
		}
		return out
	},
}

// changedFields reports which keys in next differ from prev by more than
// threshold. A field present in next but absent from prev (first
// observation) counts as changed.
func changedFields(prev, next FieldSet, threshold float64) map[string]bool {
	changed := make(map[string]bool, len(next))
	for key, v := range next {
		old, ok := prev[key]
		if !ok {
			changed[key] = true
			continue
		}
		delta := v - old
		if delta < 0 {
			delta = -delta
		}
		if delta > threshold {
			changed[key] = true
		}
	}
	return changed
}
