// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/overgrid/relay/cloud"
	"github.com/overgrid/relay/config"
	"github.com/overgrid/relay/replication"
	"github.com/overgrid/relay/session"
	"github.com/overgrid/relay/simulation"
	"github.com/overgrid/relay/telemetry"
	"github.com/overgrid/relay/transport"
	"github.com/overgrid/relay/wire"
	"github.com/overgrid/relay/world"
)

const (
	reaperInterval = time.Second
	cloudInterval  = 30 * time.Second
)

var npcProfile = world.MovementProfile{MaxSpeed: 40, Acceleration: 60, Deceleration: 80}

// Hub owns the World, the replication Snapshot, and all Session state, and
// is the sole goroutine that mutates any of them. Its run loop is a single
// select over registration, unregistration, inbound frames, and the tick
// clock.
type Hub struct {
	cfg config.Config
	log *logrus.Logger

	world    *world.World
	snapshot *replication.Snapshot
	mailbox  *simulation.Mailbox
	sessions *session.Manager
	npcs     *simulation.WanderController

	conns map[world.ClientKey]*transport.Conn

	register   chan *transport.Conn
	unregister chan *transport.Conn
	inbound    chan transport.InboundFrame

	reporter cloud.Reporter
	ticks    *telemetry.TickRecorder

	tick uint64
}

func NewHub(cfg config.Config, log *logrus.Logger, reporter cloud.Reporter, ticks *telemetry.TickRecorder) *Hub {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	return &Hub{
		cfg:        cfg,
		log:        log,
		world:      world.New(world.Bounds{X: cfg.WorldBoundsX, Y: cfg.WorldBoundsY}, rng),
		snapshot:   replication.NewSnapshot(),
		mailbox:    simulation.NewMailbox(),
		sessions:   session.NewManager(),
		npcs:       simulation.NewWanderController(rng),
		conns:      make(map[world.ClientKey]*transport.Conn, 64),
		register:   make(chan *transport.Conn, 16),
		unregister: make(chan *transport.Conn, 16),
		inbound:    make(chan transport.InboundFrame, 256),
		reporter:   reporter,
		ticks:      ticks,
	}
}

// Run blocks forever, driving the tick loop and servicing the transport
// channels. Called from main on its own goroutine.
func (h *Hub) Run() {
	if h.cfg.NPCCount > 0 {
		if err := h.npcs.SpawnPopulation(h.world, h.cfg.NPCCount, npcProfile); err != nil {
			h.log.WithError(err).Error("failed to spawn npc population")
		}
	}

	ticker := time.NewTicker(h.cfg.TickInterval())
	defer ticker.Stop()
	reaper := time.NewTicker(reaperInterval)
	defer reaper.Stop()
	cloudTicker := time.NewTicker(cloudInterval)
	defer cloudTicker.Stop()

	for {
		select {
		case conn := <-h.register:
			h.handleRegister(conn)
		case conn := <-h.unregister:
			h.handleUnregister(conn)
		case frame := <-h.inbound:
			h.handleInbound(frame)
		case now := <-ticker.C:
			h.tickOnce(now)
		case now := <-reaper.C:
			h.reapTimedOut(now)
		case <-cloudTicker.C:
			h.reportCloud()
		}
	}
}

func (h *Hub) handleRegister(conn *transport.Conn) {
	now := time.Now()

	e := &world.Entity{
		Kind:          world.KindPlayer,
		Position:      h.world.RandomPosition(),
		Profile:       world.MovementProfile{MaxSpeed: 100, Acceleration: 200, Deceleration: 200},
		HasProfile:    true,
		FrictionCoeff: 0.85,
		Health:        world.Health{Current: 100, Max: 100},
		HasHealth:     true,
		ViewRadius:    300,
		HasViewRadius: true,
		OwnerSession:  conn.Key,
	}
	if err := h.world.Spawn(e, true); err != nil {
		h.log.WithError(err).Error("failed to spawn player entity")
		conn.Close()
		return
	}

	s := session.New(conn.Key, conn.Send)
	s.Activate(e.NetworkID, e.Handle, now)
	h.sessions.Add(s)
	h.sessions.IndexByPlayer(s)
	h.conns[conn.Key] = conn

	welcome := replication.WelcomeMessage(e)
	if data, err := wire.Marshal(welcome); err == nil {
		conn.TryEnqueue(data)
	} else {
		h.log.WithError(err).Error("failed to encode welcome message")
	}

	h.log.WithFields(logrus.Fields{"player_id": e.NetworkID, "client_key": conn.Key}).Info("session active")
}

func (h *Hub) handleUnregister(conn *transport.Conn) {
	s, ok := h.sessions.ByKey(conn.Key)
	if !ok {
		return
	}
	h.despawnSession(s)
}

func (h *Hub) despawnSession(s *session.Session) {
	h.world.Despawn(s.Handle)
	h.mailbox.Forget(s.Player)
	h.snapshot.Forget(s.Player)
	delete(h.conns, s.Key)
	h.sessions.Remove(s)
	s.State = session.StateClosed
}

func (h *Hub) handleInbound(frame transport.InboundFrame) {
	s, ok := h.sessions.ByKey(frame.Conn.Key)
	if !ok {
		return
	}

	cmd, err := wire.ParseInbound(frame.Data)
	if err == wire.ErrHeartbeat {
		s.Touch(time.Now())
		return
	}
	if err != nil {
		h.log.WithError(err).WithField("client_key", s.Key).Debug("discarding unrecognized inbound frame")
		return
	}

	h.mailbox.Set(s.Player, cmd)
}

func (h *Hub) tickOnce(now time.Time) {
	start := time.Now()

	h.npcs.Update(h.world, h.mailbox, now)
	simulation.Step(h.world, h.mailbox, float32(1.0/h.cfg.TickHz), h.log)
	dirty := replication.DetectChanges(h.world, h.snapshot)
	h.dispatch(dirty, now)

	h.tick++
	if h.ticks != nil {
		if err := h.ticks.Record(h.tick, time.Since(start), h.world.Count(), h.sessions.Count()); err != nil {
			h.log.WithError(err).Warn("failed to record tick telemetry")
		}
	}
}

// dispatch builds and sends the per-session outbound payloads. It walks
// observing entities (players; NPCs carry no view radius and never reach
// here) rather than sessions, since the message a client receives is a
// function of what its own entity can see. Building each observer's message
// is an embarrassingly parallel, read-only-of-World pass, fanned out with
// errgroup instead of a hand-rolled worker pool.
func (h *Hub) dispatch(dirty replication.DirtySet, now time.Time) {
	type pair struct {
		session *session.Session
		player  *world.Entity
	}
	var active []pair
	h.world.ForEachObserver(func(e *world.Entity) {
		s, ok := h.sessions.ByPlayer(e.NetworkID)
		if ok && s.State == session.StateActive {
			active = append(active, pair{session: s, player: e})
		}
	})

	messages := make([]*wire.Message, len(active))

	var eg errgroup.Group
	for i, p := range active {
		i, p := i, p
		eg.Go(func() error {
			messages[i] = replication.BuildMessage(p.player, h.world, p.session.View, dirty, now, h.cfg.ReconnectThreshold)
			return nil
		})
	}
	_ = eg.Wait() // BuildMessage never errors; nil entries just mean "nothing to send"

	for i, p := range active {
		msg := messages[i]
		if msg == nil {
			continue
		}
		data, err := wire.Marshal(msg)
		if err != nil {
			h.log.WithError(err).WithField("player_id", p.session.Player).Error("failed to encode outbound message")
			continue
		}
		if conn, ok := h.conns[p.session.Key]; ok {
			conn.TryEnqueue(data)
		}
	}
}

func (h *Hub) reapTimedOut(now time.Time) {
	for _, s := range h.sessions.TimedOut(now, h.cfg.HeartbeatTimeout) {
		h.log.WithField("player_id", s.Player).Info("reaping session on heartbeat timeout")
		if conn, ok := h.conns[s.Key]; ok {
			conn.Close()
		}
		h.despawnSession(s)
	}
}

// reportCloud hands the stat off to its own goroutine: ReportServerStat can
// block on network I/O (DynamoDB retries under cenkalti/backoff run up to
// its default 15 minute MaxElapsedTime), and the tick-driving goroutine
// must never block on network I/O.
func (h *Hub) reportCloud() {
	stat := cloud.ServerStat{Players: h.sessions.Count(), TTL: cloud.TTLAfter(5 * time.Minute)}
	reporter := h.reporter
	log := h.log
	go func() {
		if err := reporter.ReportServerStat(stat); err != nil {
			log.WithError(err).Warn("cloud stat report failed")
		}
	}()
}
