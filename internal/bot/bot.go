// Package bot routes gateway events to voice actions and owns the
// connection lifecycle that feeds them.
package bot

import (
	"context"
	"fmt"

	"github.com/keshon/hark/internal/config"
	"github.com/keshon/hark/internal/media"
	"github.com/keshon/hark/internal/storage"
	"github.com/keshon/hark/internal/voice"

	"github.com/rs/zerolog/log"
)

const (
	guidanceText     = "You must be in a voice channel to use that command 😉"
	fetchFailedText  = "Error acquiring message data"
	noVoiceErrorText = "[Error] connecting to voice channel"
)

// Message is a chat message fetched through the messaging API.
type Message struct {
	ID        string
	ChannelID string
	ServerID  string
	AuthorID  string
	Content   string
}

// Messenger performs outbound chat requests.
type Messenger interface {
	SendMessage(ctx context.Context, channelID, text string) error
	AddReaction(ctx context.Context, channelID, messageID, emoji string) error
	GetMessage(ctx context.Context, channelID, messageID string) (*Message, error)
}

// Resolver opens a play argument as audio. Its error text is shown to the
// user as is.
type Resolver interface {
	Open(ctx context.Context, argument string) (*media.Stream, error)
}

// History records what was asked and played. Optional.
type History interface {
	AddCommand(scope string, rec storage.CommandRecord) error
	AddTrack(scope string, rec storage.TrackRecord) error
}

// Options are the user-facing knobs of command and reaction handling.
type Options struct {
	Trigger string
	Markers config.Markers
}

// bestEffort is the sink for outbound calls whose failure must never stop
// or alter event processing. The error is logged and then dropped.
func bestEffort(err error, action string) {
	if err != nil {
		log.Warn().Str("module", "bot").Str("action", action).Err(err).Msg("request failed")
	}
}

// startPlayback joins key, deafens and plays stream. The actuator owns
// stream once Play is reached; on earlier failures it is closed here.
func startPlayback(act voice.Actuator, key voice.Key, stream *media.Stream) error {
	if err := act.Connect(key); err != nil {
		stream.Close()
		return fmt.Errorf("failed to join %s: %w", key, err)
	}
	if err := act.SetDeaf(key, true); err != nil {
		log.Warn().Str("module", "bot").Str("channel", key.String()).Err(err).Msg("failed to deafen")
	}
	if err := act.Play(key, stream); err != nil {
		return fmt.Errorf("failed to play in %s: %w", key, err)
	}
	return nil
}

func recordCommand(h History, key voice.Key, rec storage.CommandRecord) {
	if h == nil {
		return
	}
	bestEffort(h.AddCommand(key.Scope(), rec), "record command")
}

func recordTrack(h History, key voice.Key, stream *media.Stream, requester string) {
	if h == nil {
		return
	}
	bestEffort(h.AddTrack(key.Scope(), storage.TrackRecord{
		Input:       stream.Input,
		Title:       stream.Title,
		Parser:      stream.Parser,
		RequestedBy: requester,
	}), "record track")
}
