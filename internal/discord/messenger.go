package discord

import (
	"context"
	"fmt"

	"github.com/keshon/hark/internal/bot"

	"github.com/bwmarrin/discordgo"
)

// Messenger sends chat requests over REST. It keeps no websocket and so
// survives gateway reconnects untouched.
type Messenger struct {
	dg *discordgo.Session
}

var _ bot.Messenger = (*Messenger)(nil)

func NewMessenger(token string) (*Messenger, error) {
	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return &Messenger{dg: dg}, nil
}

func (m *Messenger) SendMessage(ctx context.Context, channelID, text string) error {
	if _, err := m.dg.ChannelMessageSend(channelID, text, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

func (m *Messenger) AddReaction(ctx context.Context, channelID, messageID, emoji string) error {
	if err := m.dg.MessageReactionAdd(channelID, messageID, emoji, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to add reaction: %w", err)
	}
	return nil
}

func (m *Messenger) GetMessage(ctx context.Context, channelID, messageID string) (*bot.Message, error) {
	msg, err := m.dg.ChannelMessage(channelID, messageID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch message: %w", err)
	}
	return messageFrom(msg), nil
}

func messageFrom(msg *discordgo.Message) *bot.Message {
	out := &bot.Message{
		ID:        msg.ID,
		ChannelID: msg.ChannelID,
		ServerID:  msg.GuildID,
		Content:   msg.Content,
	}
	if msg.Author != nil {
		out.AuthorID = msg.Author.ID
	}
	return out
}
