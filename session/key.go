// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session implements the Session Manager: per-connection state
// machine, heartbeat bookkeeping, and outbound dispatch queues.
package session

import (
	"github.com/gofrs/uuid"

	"github.com/overgrid/relay/world"
)

// NewClientKey mints a fresh client_key at transport accept, typed as a v4
// UUID so every session has a collision-resistant, loggable identity
// distinct from its small, range-limited player_id.
func NewClientKey() (world.ClientKey, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return "", err
	}
	return world.ClientKey(id.String()), nil
}
