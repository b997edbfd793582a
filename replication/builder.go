// SPDX-License-Identifier: AGPL-3.0-or-later

package replication

import (
	"time"

	"github.com/overgrid/relay/wire"
	"github.com/overgrid/relay/world"
)

// WelcomeMessage builds the one-time Welcome frame emitted immediately
// after a session's entity has spawned.
func WelcomeMessage(player *world.Entity) *wire.Message {
	return &wire.Message{
		T: "w",
		P: uint32(player.NetworkID),
		U: []wire.Update{{
			I: uint32(player.NetworkID),
			C: map[string]interface{}{
				"player_id":  uint32(player.NetworkID),
				"network_id": uint32(player.NetworkID),
			},
		}},
	}
}

// BuildMessage recomputes visibility, decides full sync vs delta, and
// returns nil when neither condition holds (a steady session with nothing
// new to report emits nothing).
func BuildMessage(player *world.Entity, w *world.World, v *View, dirty DirtySet, now time.Time, reconnectThreshold time.Duration) *wire.Message {
	visibleNow := ComputeVisible(player, w)
	newlyVisible, _ := UpdateView(v, visibleNow)

	// An entity entering view re-anchors the client with a full sync, the
	// same as session activation or a reconnect gap.
	fullSync := v.NeedsFullSync || len(newlyVisible) > 0 || now.Sub(v.LastSyncAt) > reconnectThreshold

	if fullSync {
		updates := make([]wire.Update, 0, len(visibleNow))
		for id := range visibleNow {
			if e, ok := w.ByNetworkID(id); ok {
				updates = append(updates, encodeEntity(e, nil))
			}
		}
		v.NeedsFullSync = false
		v.LastSyncAt = now
		return &wire.Message{T: "f", P: uint32(player.NetworkID), U: updates}
	}

	anyDirtyInView := false
	for id := range v.EntitiesInView {
		if dirty.Has(id) {
			anyDirtyInView = true
			break
		}
	}
	if len(newlyVisible) == 0 && !anyDirtyInView {
		return nil
	}

	updates := make([]wire.Update, 0, len(newlyVisible)+len(dirty))
	for id := range newlyVisible {
		if e, ok := w.ByNetworkID(id); ok {
			updates = append(updates, encodeEntity(e, nil))
		}
	}
	for id := range v.EntitiesInView {
		if newlyVisible[id] {
			continue
		}
		attrs, ok := dirty[id]
		if !ok {
			continue
		}
		if e, ok2 := w.ByNetworkID(id); ok2 {
			updates = append(updates, encodeEntity(e, attrs))
		}
	}

	v.LastSyncAt = now
	return &wire.Message{T: "d", P: uint32(player.NetworkID), U: updates}
}

// encodeEntity renders e's attributes as a wire.Update. dirty, if non-nil,
// restricts the payload to dirty attributes (the delta case), and for
// non-atomic attributes to only the individual fields that were marked
// dirty; a nil dirty encodes every attribute in full (full sync and
// newly-visible entities).
func encodeEntity(e *world.Entity, dirty map[string]map[string]bool) wire.Update {
	fields := make(map[string]interface{}, len(Registry))
	for _, attr := range Registry {
		var dirtyFields map[string]bool
		if dirty != nil {
			df, ok := dirty[attr.Name]
			if !ok {
				continue
			}
			dirtyFields = df
		}

		values, ok := attr.Extract(e)
		if !ok {
			continue
		}
		if dirty != nil && !attr.Atomic {
			values = filterFields(values, dirtyFields)
		}
		fields[attr.Name] = attr.Encode(values)
	}
	return wire.Update{I: uint32(e.NetworkID), C: fields}
}

// filterFields restricts fields to the keys present (and true) in keep.
func filterFields(fields FieldSet, keep map[string]bool) FieldSet {
	out := make(FieldSet, len(keep))
	for k := range keep {
		if v, ok := fields[k]; ok {
			out[k] = v
		}
	}
	return out
}
