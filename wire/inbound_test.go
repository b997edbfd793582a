// SPDX-License-Identifier: AGPL-3.0-or-later

package wire

import (
	"testing"

	"github.com/overgrid/relay/simulation"
)

func TestParseInboundMove(t *testing.T) {
	cmd, err := ParseInbound([]byte(`{"Move":{"direction":[1,0]}}`))
	if err != nil {
		t.Fatalf("ParseInbound: %v", err)
	}
	if cmd.Kind != simulation.CommandMove {
		t.Errorf("Kind = %v, want CommandMove", cmd.Kind)
	}
	if cmd.Direction.X != 1 || cmd.Direction.Y != 0 {
		t.Errorf("Direction = %v, want (1,0)", cmd.Direction)
	}
}

func TestParseInboundStop(t *testing.T) {
	cmd, err := ParseInbound([]byte(`"Stop"`))
	if err != nil {
		t.Fatalf("ParseInbound: %v", err)
	}
	if cmd.Kind != simulation.CommandStop {
		t.Errorf("Kind = %v, want CommandStop", cmd.Kind)
	}
}

func TestParseInboundDamage(t *testing.T) {
	cmd, err := ParseInbound([]byte(`{"Damage":{"amount":12.5}}`))
	if err != nil {
		t.Fatalf("ParseInbound: %v", err)
	}
	if cmd.Kind != simulation.CommandDamage {
		t.Errorf("Kind = %v, want CommandDamage", cmd.Kind)
	}
	if cmd.Amount != 12.5 {
		t.Errorf("Amount = %v, want 12.5", cmd.Amount)
	}
}

func TestParseInboundHeartbeat(t *testing.T) {
	_, err := ParseInbound([]byte("heartbeat"))
	if err != ErrHeartbeat {
		t.Errorf("err = %v, want ErrHeartbeat", err)
	}
}

func TestParseInboundUnrecognizedIsAnError(t *testing.T) {
	_, err := ParseInbound([]byte(`{"Bogus":true}`))
	if err == nil {
		t.Fatal("expected an error for an unrecognized frame")
	}
}
