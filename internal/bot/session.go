package bot

import (
	"context"
	"errors"
	"fmt"

	"github.com/keshon/hark/internal/gateway"
	"github.com/keshon/hark/internal/world"
	"github.com/keshon/hark/pkg/retrylimit"

	"github.com/rs/zerolog/log"
)

// State is the lifecycle position of a Session.
type State int

const (
	StateDisconnected State = iota
	StateConnected
	StateReconnecting
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	case StateClosed:
		return "closed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// generation binds a connection to the world built from its snapshot.
// Neither outlives the other.
type generation struct {
	id    int
	conn  gateway.Conn
	world *world.State
}

// Session owns the gateway connection and the single loop that processes
// its events one at a time.
type Session struct {
	client    gateway.Client
	router    *CommandRouter
	reactions *ReactionTrigger
	occupancy *OccupancyMonitor

	retry   retrylimit.RetryConfig
	limiter *retrylimit.AdaptiveLimiter

	state State
	gen   *generation
	seq   int
}

// NewSession wires the event handlers to client. lim paces reconnect
// attempts and may be nil.
func NewSession(client gateway.Client, router *CommandRouter, reactions *ReactionTrigger, occupancy *OccupancyMonitor, retry retrylimit.RetryConfig, lim *retrylimit.AdaptiveLimiter) *Session {
	return &Session{
		client:    client,
		router:    router,
		reactions: reactions,
		occupancy: occupancy,
		retry:     retry,
		limiter:   lim,
		state:     StateDisconnected,
	}
}

// State reports where the session is in its lifecycle.
func (s *Session) State() State {
	return s.state
}

// World returns the world of the live generation, or nil.
func (s *Session) World() *world.State {
	if s.gen == nil {
		return nil
	}
	return s.gen.world
}

// Generation returns the sequence number of the live connection.
func (s *Session) Generation() int {
	if s.gen == nil {
		return 0
	}
	return s.gen.id
}

// Run connects and processes events until the gateway reports a terminal
// closure (nil error) or the connection cannot be brought back. The first
// connect is not retried.
func (s *Session) Run(ctx context.Context) error {
	gen, err := s.connect(ctx)
	if err != nil {
		s.state = StateClosed
		return fmt.Errorf("connect failed: %w", err)
	}
	s.install(gen)

	defer func() {
		s.discard()
		s.state = StateClosed
	}()

	for {
		ev, err := s.gen.conn.Recv(ctx)
		if err == nil {
			s.dispatch(ctx, s.gen, ev)
			continue
		}

		switch {
		case errors.Is(err, gateway.ErrClosed):
			log.Info().Str("module", "session").Msg("gateway closed, stopping")
			return nil

		case errors.Is(err, gateway.ErrTransportDropped):
			log.Warn().Str("module", "session").Err(err).Int("generation", s.gen.id).Msg("connection dropped, reconnecting")
			if err := s.reconnect(ctx); err != nil {
				if ctx.Err() != nil {
					log.Info().Str("module", "session").Msg("shutdown during reconnect")
					return nil
				}
				return err
			}

		default:
			log.Warn().Str("module", "session").Err(err).Msg("received error")
		}
	}
}

// dispatch applies ev to the world first, then hands it to the component
// that reacts to its kind.
func (s *Session) dispatch(ctx context.Context, gen *generation, ev gateway.Event) {
	gen.world.Update(ev)
	act := gen.conn.Voice()

	switch e := ev.(type) {
	case gateway.MessageCreate:
		s.router.Handle(ctx, gen.world, act, e)
	case gateway.ReactionAdd:
		s.reactions.Handle(ctx, gen.world, act, e)
	case gateway.VoiceStateUpdate:
		s.occupancy.Handle(gen.world, act, e)
	default:
	}
}

// connect opens a connection and builds its world. Nothing is installed.
func (s *Session) connect(ctx context.Context) (*generation, error) {
	conn, snap, err := s.client.Connect(ctx)
	if err != nil {
		return nil, err
	}
	s.seq++
	gen := &generation{id: s.seq, conn: conn, world: world.New(snap)}

	user := gen.world.User()
	log.Info().
		Str("module", "session").
		Str("user", user.Username).
		Int("servers", len(gen.world.Servers())).
		Int("generation", gen.id).
		Msg("ready")
	return gen, nil
}

func (s *Session) install(gen *generation) {
	s.gen = gen
	s.state = StateConnected
}

// discard closes the live connection and forgets its world.
func (s *Session) discard() {
	if s.gen == nil {
		return
	}
	if err := s.gen.conn.Close(); err != nil {
		log.Warn().Str("module", "session").Err(err).Int("generation", s.gen.id).Msg("failed to close connection")
	}
	s.gen = nil
}

// reconnect replaces the dropped generation with a new one. Attempts back
// off exponentially and stop after the configured cap.
func (s *Session) reconnect(ctx context.Context) error {
	s.state = StateReconnecting
	s.discard()

	var next *generation
	err := retrylimit.WithRetryConfig(ctx, func() error {
		gen, err := s.connect(ctx)
		if err != nil {
			return err
		}
		next = gen
		return nil
	}, s.limiter, s.retry)
	if err != nil {
		s.state = StateDisconnected
		return fmt.Errorf("reconnect failed: %w", err)
	}

	s.install(next)
	log.Info().Str("module", "session").Int("generation", next.id).Msg("reconnected successfully")
	return nil
}
