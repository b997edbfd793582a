// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"time"

	"github.com/overgrid/relay/world"
)

// Manager owns the live Session table, indexed both by client_key (for
// transport-side lookups) and by player_id (for the tick loop's per-player
// work). Only the simulation thread touches it.
type Manager struct {
	byKey    map[world.ClientKey]*Session
	byPlayer map[world.NetworkID]*Session
}

func NewManager() *Manager {
	return &Manager{
		byKey:    make(map[world.ClientKey]*Session, 64),
		byPlayer: make(map[world.NetworkID]*Session, 64),
	}
}

func (m *Manager) Add(s *Session) {
	m.byKey[s.Key] = s
}

// IndexByPlayer records s under its player_id once it has one (called from
// Activate's caller, after the owning entity is spawned).
func (m *Manager) IndexByPlayer(s *Session) {
	m.byPlayer[s.Player] = s
}

func (m *Manager) Remove(s *Session) {
	delete(m.byKey, s.Key)
	delete(m.byPlayer, s.Player)
}

func (m *Manager) ByKey(key world.ClientKey) (*Session, bool) {
	s, ok := m.byKey[key]
	return s, ok
}

func (m *Manager) ByPlayer(id world.NetworkID) (*Session, bool) {
	s, ok := m.byPlayer[id]
	return s, ok
}

func (m *Manager) Count() int {
	return len(m.byKey)
}

// TimedOut returns every Active session whose heartbeat has lapsed, for the
// reaper ticker to close.
func (m *Manager) TimedOut(now time.Time, timeout time.Duration) []*Session {
	var stale []*Session
	for _, s := range m.byKey {
		if s.State == StateActive && s.TimedOut(now, timeout) {
			stale = append(stale, s)
		}
	}
	return stale
}
