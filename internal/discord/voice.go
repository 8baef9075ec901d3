package discord

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/keshon/hark/internal/voice"
	"github.com/keshon/hark/pkg/jobmgr"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
)

// slot is the voice connection held for one scope.
type slot struct {
	vc   *discordgo.VoiceConnection
	deaf bool
}

// channelID reads the live channel; members can drag the bot elsewhere.
func (s *slot) channelID() string {
	s.vc.RLock()
	defer s.vc.RUnlock()
	return s.vc.ChannelID
}

// Voice drives discordgo voice connections, one per server plus one for
// direct calls. It belongs to a single gateway session.
type Voice struct {
	dg       *discordgo.Session
	mu       sync.Mutex
	slots    map[string]*slot
	playback *jobmgr.Manager
}

var _ voice.Actuator = (*Voice)(nil)

func NewVoice(dg *discordgo.Session) *Voice {
	return &Voice{
		dg:    dg,
		slots: make(map[string]*slot),
		playback: jobmgr.NewManager(func(msg string) {
			log.Debug().Str("module", "voice").Str("job", msg).Msg("playback status")
		}),
	}
}

func (v *Voice) Connect(key voice.Key) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	var deaf bool
	if s, ok := v.slots[key.ServerID]; ok {
		if s.channelID() == key.ChannelID {
			return nil
		}
		deaf = s.deaf
	}

	// An existing connection in the scope is moved rather than redialed.
	vc, err := v.dg.ChannelVoiceJoin(key.ServerID, key.ChannelID, false, deaf)
	if err != nil {
		return fmt.Errorf("failed to join voice channel: %w", err)
	}

	s, ok := v.slots[key.ServerID]
	if !ok {
		s = &slot{}
		v.slots[key.ServerID] = s
	}
	s.vc = vc
	log.Info().Str("module", "voice").Str("channel", key.String()).Msg("joined voice channel")
	return nil
}

func (v *Voice) SetDeaf(key voice.Key, deaf bool) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	s, ok := v.slots[key.ServerID]
	if !ok {
		return voice.ErrNotConnected
	}
	if err := s.vc.ChangeChannel(s.channelID(), false, deaf); err != nil {
		return fmt.Errorf("failed to update voice state: %w", err)
	}
	s.deaf = deaf
	return nil
}

// Play replaces the slot's playback with stream and returns at once.
func (v *Voice) Play(key voice.Key, stream io.ReadCloser) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	s, ok := v.slots[key.ServerID]
	if !ok {
		stream.Close()
		return voice.ErrNotConnected
	}

	vc := s.vc
	v.playback.Replace(key.Scope(), func(ctx context.Context) error {
		if err := vc.Speaking(true); err != nil {
			log.Warn().Str("module", "voice").Str("channel", key.String()).Err(err).Msg("failed to set speaking")
		}
		defer func() {
			if err := vc.Speaking(false); err != nil {
				log.Debug().Str("module", "voice").Str("channel", key.String()).Err(err).Msg("failed to clear speaking")
			}
		}()
		return sendOpus(stream, ctx.Done(), vc)
	})
	return nil
}

func (v *Voice) Stop(key voice.Key) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if _, ok := v.slots[key.ServerID]; !ok {
		return voice.ErrNotConnected
	}
	if err := v.playback.Stop(key.Scope()); err != nil {
		if errors.Is(err, jobmgr.ErrNotRunning) {
			return voice.ErrNotPlaying
		}
		return err
	}
	return nil
}

func (v *Voice) Disconnect(key voice.Key) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	s, ok := v.slots[key.ServerID]
	if !ok {
		return voice.ErrNotConnected
	}
	delete(v.slots, key.ServerID)
	return v.leave(key.Scope(), s)
}

func (v *Voice) CurrentChannel(serverID string) (voice.Key, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	s, ok := v.slots[serverID]
	if !ok {
		return voice.Key{}, false
	}
	return voice.Key{ServerID: serverID, ChannelID: s.channelID()}, true
}

// Close leaves every channel.
func (v *Voice) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()

	for id, s := range v.slots {
		scope := voice.Key{ServerID: id}.Scope()
		if err := v.leave(scope, s); err != nil {
			log.Warn().Str("module", "voice").Str("scope", scope).Err(err).Msg("failed to leave voice channel")
		}
		delete(v.slots, id)
	}
}

func (v *Voice) leave(scope string, s *slot) error {
	if err := v.playback.Stop(scope); err != nil && !errors.Is(err, jobmgr.ErrNotRunning) {
		log.Warn().Str("module", "voice").Str("scope", scope).Err(err).Msg("failed to stop playback")
	}
	if err := s.vc.Disconnect(); err != nil {
		return fmt.Errorf("failed to leave voice channel: %w", err)
	}
	log.Info().Str("module", "voice").Str("scope", scope).Msg("left voice channel")
	return nil
}
