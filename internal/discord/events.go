package discord

import (
	"fmt"
	"strings"

	"github.com/keshon/hark/internal/gateway"

	"github.com/bwmarrin/discordgo"
)

// translate maps a discordgo event onto the gateway stream. A non-nil error
// is a stream failure rather than an event.
func translate(e any) (gateway.Event, error) {
	switch v := e.(type) {
	case *discordgo.MessageCreate:
		if v.Message == nil || v.Author == nil {
			return gateway.Unknown{Type: "MessageCreate"}, nil
		}
		return gateway.MessageCreate{
			ServerID:  v.GuildID,
			ChannelID: v.ChannelID,
			MessageID: v.ID,
			AuthorID:  v.Author.ID,
			Content:   v.Content,
		}, nil

	case *discordgo.MessageReactionAdd:
		if v.MessageReaction == nil {
			return gateway.Unknown{Type: "MessageReactionAdd"}, nil
		}
		return gateway.ReactionAdd{
			ServerID:  v.GuildID,
			ChannelID: v.ChannelID,
			MessageID: v.MessageID,
			UserID:    v.UserID,
			Emoji:     v.Emoji.Name,
		}, nil

	case *discordgo.VoiceStateUpdate:
		if v.VoiceState == nil {
			return gateway.Unknown{Type: "VoiceStateUpdate"}, nil
		}
		return gateway.VoiceStateUpdate{
			ServerID: v.GuildID,
			State:    gateway.VoiceState{UserID: v.UserID, ChannelID: v.ChannelID},
		}, nil

	case *discordgo.GuildCreate:
		if v.Guild == nil {
			return gateway.Unknown{Type: "GuildCreate"}, nil
		}
		return gateway.ServerCreate{Server: serverFromGuild(v.Guild)}, nil

	case *discordgo.GuildDelete:
		if v.Guild == nil {
			return gateway.Unknown{Type: "GuildDelete"}, nil
		}
		return gateway.ServerDelete{ServerID: v.ID}, nil

	case *discordgo.Disconnect:
		return nil, gateway.ErrTransportDropped

	case *discordgo.RateLimit:
		if v.TooManyRequests == nil {
			return nil, fmt.Errorf("rate limited on %s", v.URL)
		}
		return nil, fmt.Errorf("rate limited on %s, retry after %s", v.URL, v.RetryAfter)
	}

	return gateway.Unknown{Type: strings.TrimPrefix(fmt.Sprintf("%T", e), "*discordgo.")}, nil
}

func serverFromGuild(g *discordgo.Guild) gateway.Server {
	srv := gateway.Server{ID: g.ID, Name: g.Name}
	for _, vs := range g.VoiceStates {
		if vs == nil {
			continue
		}
		srv.VoiceStates = append(srv.VoiceStates, gateway.VoiceState{UserID: vs.UserID, ChannelID: vs.ChannelID})
	}
	return srv
}

// snapshotFromReady builds the connect-time snapshot. Guilds in READY are
// usually unavailable stubs; their voice states follow in GuildCreate.
func snapshotFromReady(r *discordgo.Ready) *gateway.Snapshot {
	snap := &gateway.Snapshot{}
	if r.User != nil {
		snap.User = gateway.User{ID: r.User.ID, Username: r.User.Username}
	}
	for _, g := range r.Guilds {
		if g == nil {
			continue
		}
		snap.Servers = append(snap.Servers, serverFromGuild(g))
	}
	return snap
}
