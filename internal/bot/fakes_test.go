package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/keshon/hark/internal/config"
	"github.com/keshon/hark/internal/gateway"
	"github.com/keshon/hark/internal/media"
	"github.com/keshon/hark/internal/storage"
	"github.com/keshon/hark/internal/voice"
)

var testOptions = Options{
	Trigger: "!h",
	Markers: config.Markers{Reaction: "👆", Play: "▶️", Stop: "🛑", Quit: "🏃"},
}

type sent struct {
	ChannelID string
	Text      string
}

type reaction struct {
	ChannelID string
	MessageID string
	Emoji     string
}

type fakeMessenger struct {
	mu        sync.Mutex
	sent      []sent
	reactions []reaction
	messages  map[string]*Message
	getErr    error
}

func (f *fakeMessenger) SendMessage(_ context.Context, channelID, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sent{channelID, text})
	return nil
}

func (f *fakeMessenger) AddReaction(_ context.Context, channelID, messageID, emoji string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reactions = append(f.reactions, reaction{channelID, messageID, emoji})
	return nil
}

func (f *fakeMessenger) GetMessage(_ context.Context, _, messageID string) (*Message, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	m, ok := f.messages[messageID]
	if !ok {
		return nil, fmt.Errorf("unknown message %s", messageID)
	}
	return m, nil
}

type fakeResolver struct {
	opened []string
	err    error
}

func (f *fakeResolver) Open(_ context.Context, argument string) (*media.Stream, error) {
	f.opened = append(f.opened, argument)
	if f.err != nil {
		return nil, f.err
	}
	return &media.Stream{
		ReadCloser: io.NopCloser(strings.NewReader("")),
		Input:      argument,
		Parser:     "fake",
	}, nil
}

type fakeHistory struct {
	commands []storage.CommandRecord
	tracks   []storage.TrackRecord
}

func (f *fakeHistory) AddCommand(_ string, rec storage.CommandRecord) error {
	f.commands = append(f.commands, rec)
	return nil
}

func (f *fakeHistory) AddTrack(_ string, rec storage.TrackRecord) error {
	f.tracks = append(f.tracks, rec)
	return nil
}

// fakeActuator records every call as "Op(key)" and tracks one channel per
// scope the way a real actuator does.
type fakeActuator struct {
	mu       sync.Mutex
	calls    []string
	channels map[string]voice.Key

	// connectErr fails every Connect when set.
	connectErr error
}

func newFakeActuator() *fakeActuator {
	return &fakeActuator{channels: make(map[string]voice.Key)}
}

func (f *fakeActuator) record(op string, key voice.Key) {
	f.calls = append(f.calls, op+"("+key.String()+")")
}

func (f *fakeActuator) Connect(key voice.Key) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("Connect", key)
	if f.connectErr != nil {
		return f.connectErr
	}
	f.channels[key.ServerID] = key
	return nil
}

func (f *fakeActuator) SetDeaf(key voice.Key, deaf bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(fmt.Sprintf("SetDeaf[%t]", deaf), key)
	return nil
}

func (f *fakeActuator) Play(key voice.Key, stream io.ReadCloser) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("Play", key)
	return stream.Close()
}

func (f *fakeActuator) Stop(key voice.Key) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("Stop", key)
	return nil
}

func (f *fakeActuator) Disconnect(key voice.Key) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("Disconnect", key)
	delete(f.channels, key.ServerID)
	return nil
}

func (f *fakeActuator) CurrentChannel(serverID string) (voice.Key, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key, ok := f.channels[serverID]
	return key, ok
}

func (f *fakeActuator) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// item is one scripted Recv result.
type item struct {
	ev  gateway.Event
	err error
}

type fakeConn struct {
	items  []item
	act    *fakeActuator
	closed bool
	onRecv func()
}

func (c *fakeConn) Recv(context.Context) (gateway.Event, error) {
	if c.onRecv != nil {
		c.onRecv()
	}
	if len(c.items) == 0 {
		return nil, gateway.ErrClosed
	}
	it := c.items[0]
	c.items = c.items[1:]
	return it.ev, it.err
}

func (c *fakeConn) Voice() voice.Actuator { return c.act }

func (c *fakeConn) Close() error {
	c.closed = true
	return nil
}

// attempt is one scripted Connect result.
type attempt struct {
	conn *fakeConn
	snap *gateway.Snapshot
	err  error
}

type fakeClient struct {
	attempts []attempt
	connects int
	// onConnect runs before each attempt is handed out.
	onConnect func(n int)
}

var errNoMoreAttempts = errors.New("no more scripted connects")

func (c *fakeClient) Connect(context.Context) (gateway.Conn, *gateway.Snapshot, error) {
	c.connects++
	if c.onConnect != nil {
		c.onConnect(c.connects)
	}
	if len(c.attempts) == 0 {
		return nil, nil, errNoMoreAttempts
	}
	a := c.attempts[0]
	c.attempts = c.attempts[1:]
	if a.err != nil {
		return nil, nil, a.err
	}
	return a.conn, a.snap, nil
}
