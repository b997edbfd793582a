// SPDX-License-Identifier: AGPL-3.0-or-later

package wire

import (
	"bytes"
	"errors"

	"github.com/overgrid/relay/simulation"
	"github.com/overgrid/relay/world"
)

// ErrHeartbeat is returned by ParseInbound when frame is the literal
// heartbeat text, which carries no command.
var ErrHeartbeat = errors.New("wire: heartbeat frame")

var heartbeatFrame = []byte("heartbeat")

type inboundEnvelope struct {
	Move *struct {
		Direction [2]float32 `json:"direction"`
	} `json:"Move,omitempty"`
	Damage *struct {
		Amount float64 `json:"amount"`
	} `json:"Damage,omitempty"`
}

// ParseInbound decodes one inbound text frame: either the literal
// "heartbeat", a quoted "Stop", {"Move":{"direction":[x,y]}}, or the
// admin/debug {"Damage":{"amount":n}}. Unrecognized frames return an error
// for the caller to log and discard; this function never panics on
// malformed input.
func ParseInbound(frame []byte) (simulation.Command, error) {
	trimmed := bytes.TrimSpace(frame)

	if bytes.Equal(trimmed, heartbeatFrame) {
		return simulation.Command{}, ErrHeartbeat
	}

	if bytes.Equal(trimmed, []byte(`"Stop"`)) {
		return simulation.Command{Kind: simulation.CommandStop}, nil
	}

	var env inboundEnvelope
	if err := API.Unmarshal(trimmed, &env); err != nil {
		return simulation.Command{}, err
	}

	switch {
	case env.Move != nil:
		return simulation.Command{
			Kind:      simulation.CommandMove,
			Direction: world.Vec2f{X: env.Move.Direction[0], Y: env.Move.Direction[1]},
		}, nil
	case env.Damage != nil:
		return simulation.Command{Kind: simulation.CommandDamage, Amount: env.Damage.Amount}, nil
	default:
		return simulation.Command{}, errors.New("wire: unrecognized inbound frame")
	}
}
