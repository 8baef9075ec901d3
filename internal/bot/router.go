package bot

import (
	"context"
	"errors"
	"strings"

	"github.com/keshon/hark/internal/gateway"
	"github.com/keshon/hark/internal/storage"
	"github.com/keshon/hark/internal/voice"
	"github.com/keshon/hark/internal/world"

	"github.com/rs/zerolog/log"
)

// CommandRouter turns "<trigger> <argument>" messages into voice actions.
//
//	!h stop            stop playback, stay in the channel
//	!h quit | fuckoff  leave the channel
//	!h <anything else> play it in the requester's channel
type CommandRouter struct {
	msg      Messenger
	resolver Resolver
	history  History
	opts     Options
}

func NewCommandRouter(msg Messenger, resolver Resolver, history History, opts Options) *CommandRouter {
	return &CommandRouter{msg: msg, resolver: resolver, history: history, opts: opts}
}

// Handle processes one message against the world of the current
// connection.
func (r *CommandRouter) Handle(ctx context.Context, w *world.State, act voice.Actuator, m gateway.MessageCreate) {
	if m.AuthorID == w.Identity() {
		return
	}

	fields := strings.Fields(m.Content)
	if len(fields) == 0 || !strings.EqualFold(fields[0], r.opts.Trigger) {
		return
	}
	var argument string
	if len(fields) > 1 {
		argument = fields[1]
	}

	logger := log.With().Str("module", "router").Str("user", m.AuthorID).Str("argument", argument).Logger()
	logger.Info().Msg("command received")

	key, ok := w.FindVoiceChannelOf(m.AuthorID)
	if !ok {
		logger.Debug().Msg("requester is not in voice")
		bestEffort(r.msg.SendMessage(ctx, m.ChannelID, guidanceText), "send guidance")
		return
	}

	command := strings.ToLower(argument)
	switch command {
	case "stop":
		bestEffort(r.msg.AddReaction(ctx, m.ChannelID, m.MessageID, r.opts.Markers.Stop), "add stop reaction")
		if err := act.Stop(key); err != nil && !errors.Is(err, voice.ErrNotPlaying) && !errors.Is(err, voice.ErrNotConnected) {
			logger.Warn().Err(err).Str("channel", key.String()).Msg("stop failed")
		}

	case "quit", "fuckoff":
		bestEffort(r.msg.AddReaction(ctx, m.ChannelID, m.MessageID, r.opts.Markers.Quit), "add quit reaction")
		if err := act.Disconnect(key); err != nil && !errors.Is(err, voice.ErrNotConnected) {
			logger.Warn().Err(err).Str("channel", key.String()).Msg("disconnect failed")
		}

	default:
		command = "play"
		stream, err := r.resolver.Open(ctx, argument)
		if err != nil {
			logger.Debug().Err(err).Msg("source could not be opened")
			bestEffort(r.msg.SendMessage(ctx, m.ChannelID, "[Error]: "+err.Error()), "send resolver error")
			return
		}
		bestEffort(r.msg.AddReaction(ctx, m.ChannelID, m.MessageID, r.opts.Markers.Play), "add play reaction")
		if err := startPlayback(act, key, stream); err != nil {
			logger.Warn().Err(err).Msg("playback failed to start")
		} else {
			recordTrack(r.history, key, stream, m.AuthorID)
		}
	}

	recordCommand(r.history, key, storage.CommandRecord{
		ChannelID: m.ChannelID,
		UserID:    m.AuthorID,
		Command:   command,
		Param:     argument,
	})
}
