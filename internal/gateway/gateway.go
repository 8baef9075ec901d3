// Package gateway describes the real-time event stream the bot consumes:
// the connection contract, the snapshot handed over on connect and the
// events that follow it.
package gateway

import (
	"context"
	"errors"

	"github.com/keshon/hark/internal/voice"
)

var (
	// ErrTransportDropped reports a lost connection. The caller is expected
	// to discard the connection and everything derived from it, then
	// connect again.
	ErrTransportDropped = errors.New("gateway: transport dropped")

	// ErrClosed reports that the stream is finished for good.
	ErrClosed = errors.New("gateway: closed")
)

// Client opens gateway connections.
type Client interface {
	// Connect opens a new connection and returns it together with the
	// state snapshot delivered at connection time.
	Connect(ctx context.Context) (Conn, *Snapshot, error)
}

// Conn is one live connection generation.
type Conn interface {
	// Recv blocks until the next event or failure.
	// Failures wrap ErrTransportDropped, ErrClosed, or anything else.
	Recv(ctx context.Context) (Event, error)
	// Voice returns the voice actuator bound to this connection.
	Voice() voice.Actuator
	// Close tears the connection down, voice included.
	Close() error
}

// User is the identity the bot is logged in as.
type User struct {
	ID       string
	Username string
}

// VoiceState places a user in a voice channel. An empty ChannelID means
// the user is not in any channel.
type VoiceState struct {
	UserID    string
	ChannelID string
}

// Server is a guild and the voice states inside it.
type Server struct {
	ID          string
	Name        string
	VoiceStates []VoiceState
}

// DirectCall is an ad-hoc call outside of any server.
type DirectCall struct {
	ChannelID   string
	VoiceStates []VoiceState
}

// Snapshot is the point-in-time state delivered when a connection is
// established.
type Snapshot struct {
	User    User
	Servers []Server
	Calls   []DirectCall
}
