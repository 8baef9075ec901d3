// Package voice defines how the bot addresses and drives a voice destination.
//
// A destination is either a channel inside a server (guild) or an ad-hoc
// direct call. Both are addressed with a Key, so code that joins, plays or
// leaves never has to care which of the two it is talking to.
package voice

import (
	"errors"
	"io"
)

// DirectScope is the scope name used for the direct call slot.
const DirectScope = "direct"

var (
	ErrNotConnected = errors.New("not connected to a voice channel")
	ErrNotPlaying   = errors.New("nothing is playing")
)

// Key identifies one addressable voice destination.
// The zero ServerID marks a direct call.
type Key struct {
	ServerID  string
	ChannelID string
}

// ServerChannel addresses a voice channel inside a server.
func ServerChannel(serverID, channelID string) Key {
	return Key{ServerID: serverID, ChannelID: channelID}
}

// DirectChannel addresses a direct call.
func DirectChannel(channelID string) Key {
	return Key{ChannelID: channelID}
}

// IsDirect reports whether k addresses a direct call.
func (k Key) IsDirect() bool {
	return k.ServerID == ""
}

// Scope names the voice slot of k: the server id, or DirectScope.
// A bot holds at most one voice connection per scope.
func (k Key) Scope() string {
	if k.IsDirect() {
		return DirectScope
	}
	return k.ServerID
}

func (k Key) String() string {
	if k.IsDirect() {
		return "direct:" + k.ChannelID
	}
	return k.ServerID + ":" + k.ChannelID
}

// Actuator joins, plays, stops and leaves voice destinations.
//
// Playback started by Play runs in the background and is only ever
// controlled again through Stop or Disconnect.
type Actuator interface {
	// Connect joins the channel addressed by key, moving the slot's
	// existing connection if it sits in another channel.
	Connect(key Key) error
	// SetDeaf toggles self-deafen for the slot of key.
	SetDeaf(key Key, deaf bool) error
	// Play replaces whatever the slot of key is playing with stream.
	// The actuator owns stream from here on and closes it.
	Play(key Key, stream io.ReadCloser) error
	// Stop ends playback but stays in the channel.
	Stop(key Key) error
	// Disconnect ends playback and leaves the channel.
	Disconnect(key Key) error
	// CurrentChannel reports the channel the bot occupies in the slot of
	// serverID. An empty serverID selects the direct call slot.
	CurrentChannel(serverID string) (Key, bool)
}
