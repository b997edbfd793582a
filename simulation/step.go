// SPDX-License-Identifier: AGPL-3.0-or-later

// Package simulation implements the fixed-step simulation tick: input
// application, acceleration/friction, integration, and boundary reflection.
// Friction only runs when desired_velocity is (near) zero; it is never
// stacked on top of the acceleration interpolation on the same tick.
package simulation

import (
	"github.com/chewxy/math32"
	"github.com/sirupsen/logrus"

	"github.com/overgrid/relay/world"
)

// DirectionClampThreshold is the anti-cheat magnitude above which a Move
// command's direction vector is logged and clamped.
const DirectionClampThreshold = 1.1

// Step advances the world by one fixed tick of duration dt seconds. It is
// deterministic given identical mailbox contents and dt.
func Step(w *world.World, mailbox *Mailbox, dt float32, log logrus.FieldLogger) {
	applyInput(w, mailbox, log)

	w.ForEach(func(e *world.Entity) {
		if !e.HasProfile {
			return
		}
		applyAccelerationAndFriction(e, dt)
		integrate(e, dt)
		reflectAtBoundaries(e, w.Bounds)
	})
}

func applyInput(w *world.World, mailbox *Mailbox, log logrus.FieldLogger) {
	for playerID, cmd := range mailbox.Drain() {
		e, ok := w.ByNetworkID(playerID)
		if !ok {
			continue
		}

		if cmd.Kind == CommandDamage {
			applyDamageCommand(e, cmd.Amount)
			continue
		}
		if !e.HasProfile {
			continue
		}

		switch cmd.Kind {
		case CommandStop:
			e.DesiredVelocity = world.Vec2f{}
		case CommandMove:
			dir := cmd.Direction
			magnitude := dir.Length()

			if magnitude > DirectionClampThreshold {
				log.WithFields(logrus.Fields{
					"player_id": playerID,
					"magnitude": magnitude,
				}).Warn("move direction exceeds anti-cheat threshold, clamping")
			}

			var n world.Vec2f
			if magnitude > world.Epsilon {
				n = dir.Mul(1.0 / math32.Max(magnitude, world.Epsilon))
			}
			n = n.ClampedToMagnitude(1)
			e.DesiredVelocity = n.Mul(e.Profile.MaxSpeed)
		}
	}
}

// applyDamageCommand docks amount from an entity's Health, the one
// non-geometric mutation an admin/debug client can trigger directly. A
// no-op on an entity with no Health attribute.
func applyDamageCommand(e *world.Entity, amount float64) {
	if !e.HasHealth {
		return
	}
	e.Health.Current -= amount
	if e.Health.Current < 0 {
		e.Health.Current = 0
	}
}

func applyAccelerationAndFriction(e *world.Entity, dt float32) {
	diff := e.DesiredVelocity.Sub(e.Velocity)
	tryingToMove := math32.Abs(e.DesiredVelocity.X) > world.Epsilon || math32.Abs(e.DesiredVelocity.Y) > world.Epsilon

	rate := e.Profile.Deceleration
	if tryingToMove {
		rate = e.Profile.Acceleration
	}
	maxChange := rate * dt

	if diffLen := diff.Length(); diffLen > world.Epsilon {
		e.Velocity = e.Velocity.AddScaled(diff, math32.Min(1, maxChange/diffLen))
	} else {
		e.Velocity = e.DesiredVelocity
	}

	if !tryingToMove {
		coeff := e.FrictionCoeff
		if coeff <= 0 {
			coeff = 1
		}
		decay := math32.Pow(coeff, dt)
		e.Velocity = e.Velocity.Mul(decay)
		if math32.Abs(e.Velocity.X) < world.Epsilon {
			e.Velocity.X = 0
		}
		if math32.Abs(e.Velocity.Y) < world.Epsilon {
			e.Velocity.Y = 0
		}
	}

	e.Velocity = e.Velocity.ClampedToMagnitude(e.Profile.MaxSpeed)
}

func integrate(e *world.Entity, dt float32) {
	e.Position = e.Position.AddScaled(e.Velocity, dt)
}

func reflectAtBoundaries(e *world.Entity, bounds world.Bounds) {
	var impactSpeed float32

	if e.Position.X < 0 {
		e.Position.X = 0
		impactSpeed += math32.Abs(e.Velocity.X)
		e.Velocity.X = -e.Velocity.X
	} else if e.Position.X > bounds.X {
		e.Position.X = bounds.X
		impactSpeed += math32.Abs(e.Velocity.X)
		e.Velocity.X = -e.Velocity.X
	}

	if e.Position.Y < 0 {
		e.Position.Y = 0
		impactSpeed += math32.Abs(e.Velocity.Y)
		e.Velocity.Y = -e.Velocity.Y
	} else if e.Position.Y > bounds.Y {
		e.Position.Y = bounds.Y
		impactSpeed += math32.Abs(e.Velocity.Y)
		e.Velocity.Y = -e.Velocity.Y
	}

	if impactSpeed > world.Epsilon && e.Kind == world.KindNPC && e.HasHealth {
		applyBoundaryDamage(e, impactSpeed)
	}
}

// applyBoundaryDamage docks Health by double the reflected component's
// speed: reflection reverses that velocity component rather than merely
// zeroing it, so the lost speed counts twice.
func applyBoundaryDamage(e *world.Entity, impactSpeed float32) {
	e.Health.Current -= 2 * float64(impactSpeed)
	if e.Health.Current < 0 {
		e.Health.Current = 0
	}
}
