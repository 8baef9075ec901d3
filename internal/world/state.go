// Package world mirrors the server, channel and call state seen on the
// gateway stream for a single connection generation.
//
// A State is built from the snapshot of one connection and then mutated
// only by that connection's events. It is not safe for concurrent use; the
// session loop is its only owner.
package world

import (
	"slices"

	"github.com/keshon/hark/internal/gateway"
	"github.com/keshon/hark/internal/voice"
)

type server struct {
	id     string
	name   string
	states []gateway.VoiceState
}

type call struct {
	channelID string
	states    []gateway.VoiceState
}

// State is the world as seen by one connection generation.
type State struct {
	user    gateway.User
	servers []*server
	calls   []*call
}

// New builds a State from a connection snapshot. Nothing is shared with
// snap; later changes to either side do not leak into the other.
func New(snap *gateway.Snapshot) *State {
	s := &State{}
	if snap == nil {
		return s
	}
	s.user = snap.User
	for _, srv := range snap.Servers {
		s.servers = append(s.servers, &server{
			id:     srv.ID,
			name:   srv.Name,
			states: present(srv.VoiceStates),
		})
	}
	for _, c := range snap.Calls {
		s.calls = append(s.calls, &call{
			channelID: c.ChannelID,
			states:    present(c.VoiceStates),
		})
	}
	return s
}

// Update applies ev. Event kinds that carry no tracked state are ignored.
func (s *State) Update(ev gateway.Event) {
	switch e := ev.(type) {
	case gateway.VoiceStateUpdate:
		if e.ServerID == "" {
			s.updateCall(e.State)
			return
		}
		if srv := s.server(e.ServerID); srv != nil {
			srv.states = place(srv.states, e.State)
		}
	case gateway.ServerCreate:
		fresh := &server{
			id:     e.Server.ID,
			name:   e.Server.Name,
			states: present(e.Server.VoiceStates),
		}
		if i := s.serverIndex(e.Server.ID); i >= 0 {
			s.servers[i] = fresh
			return
		}
		s.servers = append(s.servers, fresh)
	case gateway.ServerDelete:
		if i := s.serverIndex(e.ServerID); i >= 0 {
			s.servers = slices.Delete(s.servers, i, i+1)
		}
	default:
	}
}

// updateCall moves a user between direct calls. Calls left empty are
// forgotten.
func (s *State) updateCall(vs gateway.VoiceState) {
	for _, c := range s.calls {
		c.states = withoutUser(c.states, vs.UserID)
	}
	if vs.ChannelID != "" {
		c := s.call(vs.ChannelID)
		if c == nil {
			c = &call{channelID: vs.ChannelID}
			s.calls = append(s.calls, c)
		}
		c.states = append(c.states, vs)
	}
	s.calls = slices.DeleteFunc(s.calls, func(c *call) bool { return len(c.states) == 0 })
}

// Identity returns the id of the user the bot is logged in as.
func (s *State) Identity() string {
	return s.user.ID
}

// User returns the full identity of the bot.
func (s *State) User() gateway.User {
	return s.user
}

// Servers returns a copy of the tracked servers in snapshot order.
func (s *State) Servers() []gateway.Server {
	out := make([]gateway.Server, 0, len(s.servers))
	for _, srv := range s.servers {
		out = append(out, gateway.Server{
			ID:          srv.id,
			Name:        srv.name,
			VoiceStates: slices.Clone(srv.states),
		})
	}
	return out
}

// Calls returns a copy of the tracked direct calls.
func (s *State) Calls() []gateway.DirectCall {
	out := make([]gateway.DirectCall, 0, len(s.calls))
	for _, c := range s.calls {
		out = append(out, gateway.DirectCall{
			ChannelID:   c.channelID,
			VoiceStates: slices.Clone(c.states),
		})
	}
	return out
}

// FindVoiceChannelOf returns the voice destination userID is in. Servers
// are scanned in snapshot order, then direct calls; the first match wins.
func (s *State) FindVoiceChannelOf(userID string) (voice.Key, bool) {
	for _, srv := range s.servers {
		for _, vs := range srv.states {
			if vs.UserID == userID && vs.ChannelID != "" {
				return voice.ServerChannel(srv.id, vs.ChannelID), true
			}
		}
	}
	for _, c := range s.calls {
		for _, vs := range c.states {
			if vs.UserID == userID {
				return voice.DirectChannel(c.channelID), true
			}
		}
	}
	return voice.Key{}, false
}

// Occupants counts the users currently in the destination of key. The
// second result is false when the owning server or call is not tracked.
func (s *State) Occupants(key voice.Key) (int, bool) {
	return s.count(key, "")
}

// Company is Occupants without the bot itself.
func (s *State) Company(key voice.Key) (int, bool) {
	return s.count(key, s.user.ID)
}

func (s *State) count(key voice.Key, skip string) (int, bool) {
	// Every state of a call is in its channel.
	var states []gateway.VoiceState
	channelID := key.ChannelID
	if key.IsDirect() {
		c := s.call(key.ChannelID)
		if c == nil {
			return 0, false
		}
		states, channelID = c.states, ""
	} else {
		srv := s.server(key.ServerID)
		if srv == nil {
			return 0, false
		}
		states = srv.states
	}

	n := 0
	for _, vs := range states {
		if channelID != "" && vs.ChannelID != channelID {
			continue
		}
		if skip != "" && vs.UserID == skip {
			continue
		}
		n++
	}
	return n, true
}

func (s *State) server(id string) *server {
	if i := s.serverIndex(id); i >= 0 {
		return s.servers[i]
	}
	return nil
}

func (s *State) serverIndex(id string) int {
	return slices.IndexFunc(s.servers, func(srv *server) bool { return srv.id == id })
}

func (s *State) call(channelID string) *call {
	for _, c := range s.calls {
		if c.channelID == channelID {
			return c
		}
	}
	return nil
}

// place replaces the user's voice state, dropping it when the user left.
func place(states []gateway.VoiceState, vs gateway.VoiceState) []gateway.VoiceState {
	states = withoutUser(states, vs.UserID)
	if vs.ChannelID != "" {
		states = append(states, vs)
	}
	return states
}

func withoutUser(states []gateway.VoiceState, userID string) []gateway.VoiceState {
	return slices.DeleteFunc(states, func(vs gateway.VoiceState) bool { return vs.UserID == userID })
}

// present copies the states that sit in a channel.
func present(states []gateway.VoiceState) []gateway.VoiceState {
	out := make([]gateway.VoiceState, 0, len(states))
	for _, vs := range states {
		if vs.ChannelID != "" {
			out = append(out, vs)
		}
	}
	return out
}
