// SPDX-License-Identifier: AGPL-3.0-or-later

package replication

import (
	"math/rand"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/overgrid/relay/world"
)

func TestInterestEnterTriggersFullSync(t *testing.T) {
	Convey("Given two observing players far enough apart to be mutually invisible", t, func() {
		w := world.New(world.Bounds{X: 2000, Y: 2000}, rand.New(rand.NewSource(1)))

		a := &world.Entity{Kind: world.KindPlayer, Position: world.Vec2f{X: 0, Y: 0}, ViewRadius: 300, HasViewRadius: true, HasProfile: true}
		b := &world.Entity{Kind: world.KindPlayer, Position: world.Vec2f{X: 1000, Y: 0}, ViewRadius: 300, HasViewRadius: true, HasProfile: true}
		_ = w.Spawn(a, true)
		_ = w.Spawn(b, true)

		viewA := NewView()
		viewA.NeedsFullSync = false
		viewA.LastSyncAt = time.Now()
		viewA.EntitiesInView[a.NetworkID] = true // A's own entity already synced from a prior tick
		dirty := DirtySet{}
		reconnect := 3 * time.Second

		Convey("When neither is within Manhattan*1.4 of the other", func() {
			msg := BuildMessage(a, w, viewA, dirty, time.Now(), reconnect)

			Convey("No message is sent, since B is still outside the view and nothing is dirty", func() {
				So(msg, ShouldBeNil)
			})
		})

		Convey("When A moves within the visibility bound of B", func() {
			a.Position.X = 600 // |600-1000| = 400 <= 300*1.4 = 420
			now := time.Now()
			msg := BuildMessage(a, w, viewA, dirty, now, reconnect)

			Convey("A full sync is emitted containing B, not a delta", func() {
				So(msg, ShouldNotBeNil)
				So(msg.T, ShouldEqual, "f")

				var sawB bool
				for _, u := range msg.U {
					if u.I == uint32(b.NetworkID) {
						sawB = true
					}
				}
				So(sawB, ShouldBeTrue)
			})
		})
	})
}

func TestReconnectThresholdForcesFullSync(t *testing.T) {
	Convey("Given a session silent past the reconnect threshold", t, func() {
		w := world.New(world.Bounds{X: 1000, Y: 1000}, rand.New(rand.NewSource(1)))
		player := &world.Entity{Kind: world.KindPlayer, ViewRadius: 300, HasViewRadius: true, HasProfile: true}
		_ = w.Spawn(player, true)

		view := NewView()
		view.NeedsFullSync = false
		view.LastSyncAt = time.Now().Add(-4 * time.Second)

		Convey("When the next tick runs with a 3s reconnect threshold", func() {
			msg := BuildMessage(player, w, view, DirtySet{}, time.Now(), 3*time.Second)

			Convey("The server sends a full sync, not a delta", func() {
				So(msg, ShouldNotBeNil)
				So(msg.T, ShouldEqual, "f")
			})
		})
	})
}

func TestSteadySessionWithNoChangesEmitsNothing(t *testing.T) {
	Convey("Given an already-synced session with nothing dirty and nothing newly visible", t, func() {
		w := world.New(world.Bounds{X: 1000, Y: 1000}, rand.New(rand.NewSource(1)))
		player := &world.Entity{Kind: world.KindPlayer, ViewRadius: 300, HasViewRadius: true, HasProfile: true}
		_ = w.Spawn(player, true)

		view := NewView()
		view.NeedsFullSync = false
		view.LastSyncAt = time.Now()
		view.EntitiesInView[player.NetworkID] = true

		Convey("When a tick runs with an empty dirty set", func() {
			msg := BuildMessage(player, w, view, DirtySet{}, time.Now(), 3*time.Second)

			Convey("No outbound message is produced", func() {
				So(msg, ShouldBeNil)
			})
		})
	})
}
