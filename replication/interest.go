// SPDX-License-Identifier: AGPL-3.0-or-later

package replication

import (
	"time"

	"github.com/overgrid/relay/world"
)

// visibilityFactor scales the Manhattan distance bound so it is a cheap
// upper bound on Euclidean distance within an entity's view radius.
const visibilityFactor = 1.4

// View is the per-session replication state: which entities are currently
// in view, whether a full sync is owed, and when the last sync happened.
// One View exists per session with an owning, observing entity.
type View struct {
	EntitiesInView map[world.NetworkID]bool
	NeedsFullSync  bool
	LastSyncAt     time.Time
}

func NewView() *View {
	return &View{
		EntitiesInView: make(map[world.NetworkID]bool, 32),
		NeedsFullSync:  true,
	}
}

// ComputeVisible returns every live entity within observer.ViewRadius*1.4
// Manhattan distance of observer.
func ComputeVisible(observer *world.Entity, w *world.World) map[world.NetworkID]bool {
	visible := make(map[world.NetworkID]bool, 32)
	bound := observer.ViewRadius * visibilityFactor

	w.ForEach(func(e *world.Entity) {
		if observer.Position.ManhattanDistance(e.Position) <= bound {
			visible[e.NetworkID] = true
		}
	})

	return visible
}

// UpdateView replaces v.EntitiesInView with visibleNow and returns the
// newly-visible and no-longer-visible sets computed against the prior
// value.
func UpdateView(v *View, visibleNow map[world.NetworkID]bool) (newlyVisible, noLongerVisible map[world.NetworkID]bool) {
	newlyVisible = make(map[world.NetworkID]bool)
	noLongerVisible = make(map[world.NetworkID]bool)

	for id := range visibleNow {
		if !v.EntitiesInView[id] {
			newlyVisible[id] = true
		}
	}
	for id := range v.EntitiesInView {
		if !visibleNow[id] {
			noLongerVisible[id] = true
		}
	}

	v.EntitiesInView = visibleNow
	return newlyVisible, noLongerVisible
}
