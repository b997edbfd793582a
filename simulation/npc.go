// SPDX-License-Identifier: AGPL-3.0-or-later

package simulation

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/aquilax/go-perlin"

	"github.com/overgrid/relay/world"
)

// spawnNoiseFrequency controls how tightly NPC spawn points cluster; lower
// is patchier.
const spawnNoiseFrequency = 0.004

// WanderController drives a wandering non-player population, reusing the
// Move command path the input mailbox already provides for players rather
// than a separate AI-to-velocity channel, since an NPC choosing a new
// heading is exactly the Command a player sends.
type WanderController struct {
	rng          *rand.Rand
	nextChangeAt map[world.NetworkID]time.Time
}

func NewWanderController(rng *rand.Rand) *WanderController {
	return &WanderController{rng: rng, nextChangeAt: make(map[world.NetworkID]time.Time, 16)}
}

// SpawnPopulation adds count wandering NPCs within the world's bounds, each
// carrying the given movement profile and a full Health pool. Spawn points
// are drawn from a perlin noise field rather than uniformly, so NPCs
// cluster into a few patches instead of spreading evenly across the map.
func (w *WanderController) SpawnPopulation(wd *world.World, count int, profile world.MovementProfile) error {
	noise := perlin.NewPerlin(2, 2, 3, w.rng.Int63())

	for i := 0; i < count; i++ {
		e := &world.Entity{
			Kind:          world.KindNPC,
			CustomName:    fmt.Sprintf("wanderer-%d", i),
			Position:      w.clusteredSpawnPoint(wd.Bounds, noise),
			Profile:       profile,
			HasProfile:    true,
			FrictionCoeff: 0.9,
			Health:        world.Health{Current: 100, Max: 100},
			HasHealth:     true,
		}
		if err := wd.Spawn(e, false); err != nil {
			return err
		}
	}
	return nil
}

// clusteredSpawnPoint rejection-samples a position weighted by noise value,
// falling back to the last candidate after a bounded number of tries so a
// thin noise field can never spin forever.
func (w *WanderController) clusteredSpawnPoint(bounds world.Bounds, noise *perlin.Perlin) world.Vec2f {
	var candidate world.Vec2f
	for attempt := 0; attempt < 8; attempt++ {
		candidate = world.Vec2f{X: w.rng.Float32() * bounds.X, Y: w.rng.Float32() * bounds.Y}
		weight := (noise.Noise2D(float64(candidate.X)*spawnNoiseFrequency, float64(candidate.Y)*spawnNoiseFrequency) + 1) / 2
		if w.rng.Float64() < weight {
			break
		}
	}
	return candidate
}

// Update picks a new random heading for any NPC whose wander timer has
// elapsed, by inserting a Move command into the mailbox exactly as a
// player's client would.
func (w *WanderController) Update(wd *world.World, mailbox *Mailbox, now time.Time) {
	wd.ForEach(func(e *world.Entity) {
		if e.Kind != world.KindNPC {
			return
		}
		if changeAt, ok := w.nextChangeAt[e.NetworkID]; ok && now.Before(changeAt) {
			return
		}

		angle := w.rng.Float64() * 2 * math.Pi
		dir := world.Vec2f{X: float32(math.Cos(angle)), Y: float32(math.Sin(angle))}
		mailbox.Set(e.NetworkID, Command{Kind: CommandMove, Direction: dir})

		w.nextChangeAt[e.NetworkID] = now.Add(time.Duration(2+w.rng.Intn(4)) * time.Second)
	})
}
