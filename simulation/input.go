// SPDX-License-Identifier: AGPL-3.0-or-later

package simulation

import "github.com/overgrid/relay/world"

// CommandKind distinguishes the inbound command shapes: Move{direction},
// Stop, and the admin-only Damage{amount}.
type CommandKind int

const (
	CommandMove CommandKind = iota
	CommandStop
	CommandDamage
)

// Command is a parsed inbound player command, the payload of the single
// element stored in a player's Mailbox slot.
type Command struct {
	Kind      CommandKind
	Direction world.Vec2f // only meaningful when Kind == CommandMove
	Amount    float64     // only meaningful when Kind == CommandDamage
}

// Mailbox holds one pending command per NetworkID, single-slot: setting
// overwrites whatever was pending. It is only ever touched by the single
// simulation-owning goroutine (the hub writes each inbound command here as
// it arrives between ticks, then the simulation step drains it at the head
// of the next tick), so no locking is required.
type Mailbox struct {
	pending map[world.NetworkID]Command
}

func NewMailbox() *Mailbox {
	return &Mailbox{pending: make(map[world.NetworkID]Command, 32)}
}

// Set stores cmd as the latest command for playerID, replacing any
// previous pending command ("latest command wins").
func (m *Mailbox) Set(playerID world.NetworkID, cmd Command) {
	m.pending[playerID] = cmd
}

// Take removes and returns the pending command for playerID, if any.
func (m *Mailbox) Take(playerID world.NetworkID) (Command, bool) {
	cmd, ok := m.pending[playerID]
	if ok {
		delete(m.pending, playerID)
	}
	return cmd, ok
}

// Drain removes and returns every pending command, for the Simulation Step
// to consume at the head of a tick.
func (m *Mailbox) Drain() map[world.NetworkID]Command {
	if len(m.pending) == 0 {
		return nil
	}
	drained := m.pending
	m.pending = make(map[world.NetworkID]Command, len(drained))
	return drained
}

// Forget discards any pending command for playerID, e.g. on despawn.
func (m *Mailbox) Forget(playerID world.NetworkID) {
	delete(m.pending, playerID)
}
