// Package discord connects the bot core to Discord through discordgo.
package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/keshon/hark/internal/gateway"
	"github.com/keshon/hark/internal/voice"
	"github.com/keshon/hark/pkg/retrylimit"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
)

const (
	intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildVoiceStates |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMessageReactions |
		discordgo.IntentsDirectMessages |
		discordgo.IntentsDirectMessageReactions |
		discordgo.IntentsMessageContent

	// eventBuffer absorbs events delivered while the loop is busy with a
	// slow call such as a voice join.
	eventBuffer = 1024
)

// Client opens gateway connections with a bot token.
type Client struct {
	token        string
	readyTimeout time.Duration
}

func NewClient(token string, readyTimeout time.Duration) *Client {
	return &Client{token: token, readyTimeout: readyTimeout}
}

// Connect logs in, opens the websocket and waits for READY. A rejected
// token is returned as a fatal error.
func (c *Client) Connect(ctx context.Context) (gateway.Conn, *gateway.Snapshot, error) {
	dg, err := discordgo.New("Bot " + c.token)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create session: %w", err)
	}
	dg.Identify.Intents = intents
	// Reconnects are driven by the caller with a fresh session.
	dg.ShouldReconnectOnError = false
	dg.SyncEvents = true

	if _, err := dg.User("@me", discordgo.WithContext(ctx)); err != nil {
		return nil, nil, loginError(err)
	}

	conn := newConn(dg)
	ready := make(chan *discordgo.Ready, 1)
	dg.AddHandlerOnce(func(_ *discordgo.Session, r *discordgo.Ready) {
		ready <- r
	})
	dg.AddHandler(func(_ *discordgo.Session, e any) {
		conn.forward(e)
	})

	if err := dg.Open(); err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("failed to open gateway: %w", err)
	}

	timer := time.NewTimer(c.readyTimeout)
	defer timer.Stop()

	select {
	case r := <-ready:
		log.Debug().Str("module", "discord").Str("session", r.SessionID).Int("guilds", len(r.Guilds)).Msg("ready received")
		return conn, snapshotFromReady(r), nil
	case <-timer.C:
		conn.Close()
		return nil, nil, fmt.Errorf("no READY within %s", c.readyTimeout)
	case <-ctx.Done():
		conn.Close()
		return nil, nil, ctx.Err()
	}
}

func loginError(err error) error {
	if errors.Is(err, discordgo.ErrUnauthorized) {
		return retrylimit.Fatal(fmt.Errorf("login rejected: %w", err))
	}
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Response != nil {
		switch restErr.Response.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return retrylimit.Fatal(fmt.Errorf("login rejected: %w", err))
		}
	}
	return fmt.Errorf("login failed: %w", err)
}

type item struct {
	ev  gateway.Event
	err error
}

// Conn is one discordgo websocket session and the voice connections made
// through it.
type Conn struct {
	dg     *discordgo.Session
	voice  *Voice
	events chan item

	closed    chan struct{}
	closeOnce sync.Once
}

func newConn(dg *discordgo.Session) *Conn {
	return &Conn{
		dg:     dg,
		voice:  NewVoice(dg),
		events: make(chan item, eventBuffer),
		closed: make(chan struct{}),
	}
}

// forward runs on the discordgo reader. Events keep their arrival order.
func (c *Conn) forward(e any) {
	ev, err := translate(e)
	select {
	case c.events <- item{ev: ev, err: err}:
	case <-c.closed:
	}
}

func (c *Conn) Recv(ctx context.Context) (gateway.Event, error) {
	select {
	case it := <-c.events:
		return it.ev, it.err
	case <-c.closed:
		return nil, gateway.ErrClosed
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", gateway.ErrClosed, ctx.Err())
	}
}

func (c *Conn) Voice() voice.Actuator {
	return c.voice
}

// Close leaves every voice channel and closes the websocket. Safe to call
// more than once.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closed)
		c.voice.Close()
		err = c.dg.Close()
	})
	return err
}
