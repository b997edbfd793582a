// SPDX-License-Identifier: AGPL-3.0-or-later

package simulation

import (
	"math/rand"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/overgrid/relay/world"
)

const testTickHz = 20.0
const testDt = 1.0 / testTickHz

func newTestWorld() *world.World {
	return world.New(world.Bounds{X: 1000, Y: 1000}, rand.New(rand.NewSource(1)))
}

func TestSteadyMoveReachesExpectedPositionAfterOneSecond(t *testing.T) {
	w := newTestWorld()
	e := &world.Entity{
		Kind:          world.KindPlayer,
		Position:      world.Vec2f{X: 100, Y: 100},
		Profile:       world.MovementProfile{MaxSpeed: 100, Acceleration: 200, Deceleration: 200},
		HasProfile:    true,
		FrictionCoeff: 0.85,
	}
	_ = w.Spawn(e, true)

	mailbox := NewMailbox()
	log := logrus.New()

	mailbox.Set(e.NetworkID, Command{Kind: CommandMove, Direction: world.Vec2f{X: 1, Y: 0}})
	for i := 0; i < 20; i++ {
		Step(w, mailbox, testDt, log)
	}

	if e.Position.X < 194.5 || e.Position.X > 195.5 {
		t.Errorf("position.x = %v, want ~195.0", e.Position.X)
	}
	if e.Position.Y != 100 {
		t.Errorf("position.y = %v, want 100", e.Position.Y)
	}
}

func TestStopAndCoastDecaysVelocityToZero(t *testing.T) {
	w := newTestWorld()
	e := &world.Entity{
		Kind:          world.KindPlayer,
		Position:      world.Vec2f{X: 100, Y: 100},
		Velocity:      world.Vec2f{X: 100, Y: 0},
		Profile:       world.MovementProfile{MaxSpeed: 100, Acceleration: 200, Deceleration: 200},
		HasProfile:    true,
		FrictionCoeff: 0.85,
	}
	_ = w.Spawn(e, true)

	mailbox := NewMailbox()
	log := logrus.New()

	mailbox.Set(e.NetworkID, Command{Kind: CommandStop})
	for i := 0; i < int(3*testTickHz); i++ {
		Step(w, mailbox, testDt, log)
	}

	if e.Velocity.X >= 0.01 {
		t.Errorf("velocity.x = %v, want < 0.01 after coasting to a stop", e.Velocity.X)
	}
}

func TestBoundaryReflectClampsPositionAndNegatesVelocity(t *testing.T) {
	w := newTestWorld()
	e := &world.Entity{
		Kind:          world.KindPlayer,
		Position:      world.Vec2f{X: 999.5, Y: 500},
		Velocity:      world.Vec2f{X: 100, Y: 0},
		Profile:       world.MovementProfile{MaxSpeed: 100, Acceleration: 200, Deceleration: 200},
		HasProfile:    true,
	}
	_ = w.Spawn(e, true)

	mailbox := NewMailbox()
	log := logrus.New()

	Step(w, mailbox, testDt, log)

	if e.Position.X != 1000 {
		t.Errorf("position.x = %v, want 1000", e.Position.X)
	}
	if e.Velocity.X != -100 {
		t.Errorf("velocity.x = %v, want -100", e.Velocity.X)
	}
}

func TestNPCBoundaryCollisionDocksDoubleVelocityLossFromHealth(t *testing.T) {
	w := newTestWorld()
	e := &world.Entity{
		Kind:          world.KindNPC,
		Position:      world.Vec2f{X: 999.5, Y: 500},
		Velocity:      world.Vec2f{X: 100, Y: 0},
		Profile:       world.MovementProfile{MaxSpeed: 100, Acceleration: 200, Deceleration: 200},
		HasProfile:    true,
		Health:        world.Health{Current: 100, Max: 100},
		HasHealth:     true,
	}
	_ = w.Spawn(e, false)

	mailbox := NewMailbox()
	log := logrus.New()

	Step(w, mailbox, testDt, log)

	if e.Velocity.X != -100 {
		t.Errorf("velocity.x = %v, want -100", e.Velocity.X)
	}
	if e.Health.Current != 0 {
		t.Errorf("health.current = %v, want 0 (100 - 2*100, clamped)", e.Health.Current)
	}
}

func TestPlayerBoundaryCollisionDoesNotAffectHealth(t *testing.T) {
	w := newTestWorld()
	e := &world.Entity{
		Kind:          world.KindPlayer,
		Position:      world.Vec2f{X: 999.5, Y: 500},
		Velocity:      world.Vec2f{X: 100, Y: 0},
		Profile:       world.MovementProfile{MaxSpeed: 100, Acceleration: 200, Deceleration: 200},
		HasProfile:    true,
		Health:        world.Health{Current: 100, Max: 100},
		HasHealth:     true,
	}
	_ = w.Spawn(e, true)

	mailbox := NewMailbox()
	log := logrus.New()

	Step(w, mailbox, testDt, log)

	if e.Health.Current != 100 {
		t.Errorf("health.current = %v, want 100 (boundary damage only applies to npcs)", e.Health.Current)
	}
}

func TestDamageCommandDocksHealth(t *testing.T) {
	w := newTestWorld()
	e := &world.Entity{
		Kind:       world.KindPlayer,
		Profile:    world.MovementProfile{MaxSpeed: 100, Acceleration: 200, Deceleration: 200},
		HasProfile: true,
		Health:     world.Health{Current: 100, Max: 100},
		HasHealth:  true,
	}
	_ = w.Spawn(e, true)

	mailbox := NewMailbox()
	log := logrus.New()

	mailbox.Set(e.NetworkID, Command{Kind: CommandDamage, Amount: 30})
	Step(w, mailbox, testDt, log)

	if e.Health.Current != 70 {
		t.Errorf("health.current = %v, want 70", e.Health.Current)
	}
}

func TestOverMagnitudeDirectionClampsToMaxSpeed(t *testing.T) {
	w := newTestWorld()
	e := &world.Entity{
		Kind:       world.KindPlayer,
		Profile:    world.MovementProfile{MaxSpeed: 100, Acceleration: 1e6, Deceleration: 1e6},
		HasProfile: true,
	}
	_ = w.Spawn(e, true)

	mailbox := NewMailbox()
	log := logrus.New()

	// magnitude sqrt(2) * 1.5 ~= 2.12, well past the 1.1 threshold
	mailbox.Set(e.NetworkID, Command{Kind: CommandMove, Direction: world.Vec2f{X: 1.5, Y: 1.5}})
	Step(w, mailbox, testDt, log)

	got := e.Velocity.Length()
	if got < 99.9 || got > 100.1 {
		t.Errorf("velocity magnitude = %v, want ~100 (clamped to max_speed)", got)
	}
}
