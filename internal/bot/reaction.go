package bot

import (
	"context"
	"strings"

	"github.com/keshon/hark/internal/gateway"
	"github.com/keshon/hark/internal/media"
	"github.com/keshon/hark/internal/storage"
	"github.com/keshon/hark/internal/voice"
	"github.com/keshon/hark/internal/world"

	"github.com/rs/zerolog/log"
)

// ReactionTrigger plays the content of a message someone reacted to with
// the marker emoji, in the voice channel of the message's author.
type ReactionTrigger struct {
	msg      Messenger
	resolver Resolver
	history  History
	opts     Options
}

func NewReactionTrigger(msg Messenger, resolver Resolver, history History, opts Options) *ReactionTrigger {
	return &ReactionTrigger{msg: msg, resolver: resolver, history: history, opts: opts}
}

// Handle processes one reaction against the world of the current
// connection.
func (t *ReactionTrigger) Handle(ctx context.Context, w *world.State, act voice.Actuator, r gateway.ReactionAdd) {
	if r.UserID == w.Identity() || r.Emoji != t.opts.Markers.Reaction {
		return
	}

	logger := log.With().Str("module", "reaction").Str("user", r.UserID).Str("message", r.MessageID).Logger()
	logger.Info().Msg("marker reaction received")

	m, err := t.msg.GetMessage(ctx, r.ChannelID, r.MessageID)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to fetch reacted message")
		bestEffort(t.msg.SendMessage(ctx, r.ChannelID, fetchFailedText), "send fetch error")
		return
	}

	argument := PlayArgument(m.Content)

	key, ok := w.FindVoiceChannelOf(m.AuthorID)
	if !ok {
		logger.Debug().Str("author", m.AuthorID).Msg("message author is not in voice")
		bestEffort(t.msg.SendMessage(ctx, r.ChannelID, noVoiceErrorText), "send voice error")
		return
	}

	stream, err := t.resolver.Open(ctx, argument)
	if err != nil {
		logger.Debug().Err(err).Str("argument", argument).Msg("source could not be opened")
		bestEffort(t.msg.SendMessage(ctx, r.ChannelID, "[Error]: "+err.Error()), "send resolver error")
		return
	}

	bestEffort(t.msg.AddReaction(ctx, m.ChannelID, m.ID, t.opts.Markers.Play), "add play reaction")
	if err := startPlayback(act, key, stream); err != nil {
		logger.Warn().Err(err).Msg("playback failed to start")
	} else {
		recordTrack(t.history, key, stream, r.UserID)
	}

	recordCommand(t.history, key, storage.CommandRecord{
		ChannelID: r.ChannelID,
		UserID:    r.UserID,
		Command:   "reaction",
		Param:     argument,
	})
}

// PlayArgument picks what to play from a message. With several words the
// first one holding a link wins; otherwise the whole message is used.
func PlayArgument(content string) string {
	fields := strings.Fields(content)
	if len(fields) > 1 {
		for _, f := range fields {
			if media.ContainsURL(f) {
				return f
			}
		}
	}
	return strings.TrimSpace(content)
}
