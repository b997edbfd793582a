// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"time"

	"github.com/overgrid/relay/replication"
	"github.com/overgrid/relay/world"
)

// State is a Session's lifecycle state.
type State int

const (
	StateConnecting State = iota
	StateActive
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateActive:
		return "active"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Session is one client's connection state: its transport identity, the
// entity it owns, and the replication View the message builder maintains
// for it. Only the simulation thread mutates a Session after it is
// registered with the Manager.
type Session struct {
	Key    world.ClientKey
	State  State
	Player world.NetworkID
	Handle world.EntityHandle

	LastHeartbeatAt time.Time
	View            *replication.View

	// Send is the outbound queue. The core writes built payloads here; it
	// never blocks, and a failed/full send closes this session only.
	Send chan []byte
}

// New constructs a Connecting session. The caller spawns the owned entity
// and transitions to Active once that completes.
func New(key world.ClientKey, send chan []byte) *Session {
	return &Session{
		Key:   key,
		State: StateConnecting,
		Send:  send,
		View:  replication.NewView(),
	}
}

// Activate transitions Connecting -> Active and records the spawned
// player's identity.
func (s *Session) Activate(player world.NetworkID, handle world.EntityHandle, now time.Time) {
	s.Player = player
	s.Handle = handle
	s.State = StateActive
	s.LastHeartbeatAt = now
	s.View.NeedsFullSync = true
}

// Touch records a heartbeat (or any other liveness signal) at now.
func (s *Session) Touch(now time.Time) {
	s.LastHeartbeatAt = now
}

// TimedOut reports whether now has exceeded the heartbeat timeout since the
// last recorded heartbeat.
func (s *Session) TimedOut(now time.Time, timeout time.Duration) bool {
	return now.Sub(s.LastHeartbeatAt) > timeout
}

// TryEnqueue pushes data onto the outbound queue without blocking. A full
// queue reports failure so the caller can close the session; the queue
// itself performs no drop-oldest relief.
func (s *Session) TryEnqueue(data []byte) bool {
	select {
	case s.Send <- data:
		return true
	default:
		return false
	}
}
