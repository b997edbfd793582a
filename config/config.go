// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config loads server configuration from environment variables with
// spf13/viper, layered under a flag-based bootstrap so a flag still wins
// over an environment variable when both are given.
package config

import (
	"flag"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config is the fully-resolved server configuration, assembled from flags,
// environment variables, and the defaults below, in that order of
// precedence.
type Config struct {
	Host string
	Port int

	TickHz float64

	WorldBoundsX float32
	WorldBoundsY float32

	ReconnectThreshold time.Duration
	HeartbeatTimeout   time.Duration

	NPCCount int
}

// Load resolves Config from os.Args and the process environment. args
// should be flag.CommandLine-style arguments, excluding argv[0].
func Load(args []string) (Config, error) {
	vp := viper.New()
	vp.SetEnvPrefix("")
	vp.AutomaticEnv()

	vp.SetDefault("HOST", "0.0.0.0")
	vp.SetDefault("PORT", 5000)
	vp.SetDefault("TICK_HZ", 20.0)
	vp.SetDefault("WORLD_BOUNDS_X", float32(1000))
	vp.SetDefault("WORLD_BOUNDS_Y", float32(1000))
	vp.SetDefault("RECONNECT_THRESHOLD_MS", 3000)
	vp.SetDefault("HEARTBEAT_TIMEOUT_MS", 30000)
	vp.SetDefault("NPC_COUNT", 8)

	fs := flag.NewFlagSet("relay", flag.ContinueOnError)
	host := fs.String("host", vp.GetString("HOST"), "listen host")
	port := fs.Int("port", vp.GetInt("PORT"), "listen port")
	tickHz := fs.Float64("tick-hz", vp.GetFloat64("TICK_HZ"), "simulation tick rate in Hz")
	boundsX := fs.Float64("world-bounds-x", vp.GetFloat64("WORLD_BOUNDS_X"), "world width")
	boundsY := fs.Float64("world-bounds-y", vp.GetFloat64("WORLD_BOUNDS_Y"), "world height")
	reconnectMs := fs.Int("reconnect-threshold-ms", vp.GetInt("RECONNECT_THRESHOLD_MS"), "full-sync-on-reconnect threshold")
	heartbeatMs := fs.Int("heartbeat-timeout-ms", vp.GetInt("HEARTBEAT_TIMEOUT_MS"), "session heartbeat timeout")
	npcCount := fs.Int("npc-count", vp.GetInt("NPC_COUNT"), "number of wandering NPCs to maintain")

	if err := fs.Parse(args); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}

	if *tickHz <= 0 {
		return Config{}, fmt.Errorf("config: tick-hz must be positive, got %f", *tickHz)
	}

	return Config{
		Host:               *host,
		Port:               *port,
		TickHz:             *tickHz,
		WorldBoundsX:       float32(*boundsX),
		WorldBoundsY:       float32(*boundsY),
		ReconnectThreshold: time.Duration(*reconnectMs) * time.Millisecond,
		HeartbeatTimeout:   time.Duration(*heartbeatMs) * time.Millisecond,
		NPCCount:           *npcCount,
	}, nil
}

// TickInterval is the tick driver's ticker period, 1/tick_hz.
func (c Config) TickInterval() time.Duration {
	return time.Duration(float64(time.Second) / c.TickHz)
}

func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
