package bot

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/keshon/hark/internal/gateway"
	"github.com/keshon/hark/internal/world"
)

func routerWorld() *world.State {
	return world.New(&gateway.Snapshot{
		User: gateway.User{ID: "bot", Username: "hark"},
		Servers: []gateway.Server{
			{ID: "g1", VoiceStates: []gateway.VoiceState{
				{UserID: "alice", ChannelID: "v1"},
			}},
		},
		Calls: []gateway.DirectCall{
			{ChannelID: "dm1", VoiceStates: []gateway.VoiceState{
				{UserID: "dave", ChannelID: "dm1"},
			}},
		},
	})
}

func message(author, content string) gateway.MessageCreate {
	return gateway.MessageCreate{ServerID: "g1", ChannelID: "t1", MessageID: "m1", AuthorID: author, Content: content}
}

func TestRouterStop(t *testing.T) {
	t.Parallel()

	msg := &fakeMessenger{}
	res := &fakeResolver{}
	act := newFakeActuator()
	r := NewCommandRouter(msg, res, nil, testOptions)

	r.Handle(context.Background(), routerWorld(), act, message("alice", "!h stop"))

	if got, want := act.Calls(), []string{"Stop(g1:v1)"}; !slices.Equal(got, want) {
		t.Fatalf("actuator calls = %v, want %v", got, want)
	}
	if len(res.opened) != 0 {
		t.Fatalf("resolver used for stop: %v", res.opened)
	}
	if len(msg.reactions) != 1 || msg.reactions[0].Emoji != "🛑" {
		t.Fatalf("reactions = %v, want one stop marker", msg.reactions)
	}
}

func TestRouterQuit(t *testing.T) {
	t.Parallel()

	for _, word := range []string{"quit", "fuckoff", "QUIT"} {
		act := newFakeActuator()
		msg := &fakeMessenger{}
		r := NewCommandRouter(msg, &fakeResolver{}, nil, testOptions)

		r.Handle(context.Background(), routerWorld(), act, message("alice", "!h "+word))

		if got, want := act.Calls(), []string{"Disconnect(g1:v1)"}; !slices.Equal(got, want) {
			t.Fatalf("%s: actuator calls = %v, want %v", word, got, want)
		}
		if len(msg.reactions) != 1 || msg.reactions[0].Emoji != "🏃" {
			t.Fatalf("%s: reactions = %v, want one quit marker", word, msg.reactions)
		}
	}
}

func TestRouterPlay(t *testing.T) {
	t.Parallel()

	msg := &fakeMessenger{}
	res := &fakeResolver{}
	hist := &fakeHistory{}
	act := newFakeActuator()
	r := NewCommandRouter(msg, res, hist, testOptions)

	r.Handle(context.Background(), routerWorld(), act, message("alice", "!h https://example.com/a.mp3"))

	if got, want := res.opened, []string{"https://example.com/a.mp3"}; !slices.Equal(got, want) {
		t.Fatalf("resolver opened %v, want %v", got, want)
	}
	want := []string{"Connect(g1:v1)", "SetDeaf[true](g1:v1)", "Play(g1:v1)"}
	if got := act.Calls(); !slices.Equal(got, want) {
		t.Fatalf("actuator calls = %v, want %v", got, want)
	}
	if len(msg.reactions) != 1 || msg.reactions[0].Emoji != "▶️" || msg.reactions[0].MessageID != "m1" {
		t.Fatalf("reactions = %v, want play marker on m1", msg.reactions)
	}
	if len(hist.tracks) != 1 || hist.tracks[0].RequestedBy != "alice" {
		t.Fatalf("tracks = %+v", hist.tracks)
	}
	if len(hist.commands) != 1 || hist.commands[0].Command != "play" {
		t.Fatalf("commands = %+v", hist.commands)
	}
}

func TestRouterPlayInDirectCall(t *testing.T) {
	t.Parallel()

	act := newFakeActuator()
	r := NewCommandRouter(&fakeMessenger{}, &fakeResolver{}, nil, testOptions)

	r.Handle(context.Background(), routerWorld(), act, gateway.MessageCreate{
		ChannelID: "dm1", MessageID: "m2", AuthorID: "dave", Content: "!h song",
	})

	want := []string{"Connect(direct:dm1)", "SetDeaf[true](direct:dm1)", "Play(direct:dm1)"}
	if got := act.Calls(); !slices.Equal(got, want) {
		t.Fatalf("actuator calls = %v, want %v", got, want)
	}
}

func TestRouterResolveErrorIsReported(t *testing.T) {
	t.Parallel()

	msg := &fakeMessenger{}
	act := newFakeActuator()
	r := NewCommandRouter(msg, &fakeResolver{err: errors.New("no parser could open it")}, nil, testOptions)

	r.Handle(context.Background(), routerWorld(), act, message("alice", "!h nothing"))

	if len(act.Calls()) != 0 {
		t.Fatalf("actuator calls = %v, want none", act.Calls())
	}
	if len(msg.sent) != 1 || msg.sent[0].Text != "[Error]: no parser could open it" {
		t.Fatalf("sent = %v", msg.sent)
	}
	if len(msg.reactions) != 0 {
		t.Fatalf("reactions = %v, want none", msg.reactions)
	}
}

func TestRouterRequesterNotInVoice(t *testing.T) {
	t.Parallel()

	for _, content := range []string{"!h stop", "!h quit", "!h something"} {
		msg := &fakeMessenger{}
		res := &fakeResolver{}
		act := newFakeActuator()
		r := NewCommandRouter(msg, res, nil, testOptions)

		r.Handle(context.Background(), routerWorld(), act, message("erin", content))

		if len(act.Calls()) != 0 {
			t.Fatalf("%q: actuator calls = %v, want none", content, act.Calls())
		}
		if len(res.opened) != 0 {
			t.Fatalf("%q: resolver used: %v", content, res.opened)
		}
		if len(msg.sent) != 1 || msg.sent[0].Text != guidanceText || msg.sent[0].ChannelID != "t1" {
			t.Fatalf("%q: sent = %v, want guidance in t1", content, msg.sent)
		}
	}
}

func TestRouterIgnores(t *testing.T) {
	t.Parallel()

	cases := []gateway.MessageCreate{
		message("bot", "!h stop"),
		message("alice", "hello there"),
		message("alice", "!hx stop"),
		message("alice", ""),
	}
	for _, m := range cases {
		msg := &fakeMessenger{}
		act := newFakeActuator()
		r := NewCommandRouter(msg, &fakeResolver{}, nil, testOptions)

		r.Handle(context.Background(), routerWorld(), act, m)

		if len(act.Calls()) != 0 || len(msg.sent) != 0 || len(msg.reactions) != 0 {
			t.Fatalf("%+v: got calls=%v sent=%v reactions=%v, want nothing", m, act.Calls(), msg.sent, msg.reactions)
		}
	}
}

func TestRouterTriggerIsCaseInsensitive(t *testing.T) {
	t.Parallel()

	act := newFakeActuator()
	r := NewCommandRouter(&fakeMessenger{}, &fakeResolver{}, nil, testOptions)

	r.Handle(context.Background(), routerWorld(), act, message("alice", "!H Stop"))

	if got, want := act.Calls(), []string{"Stop(g1:v1)"}; !slices.Equal(got, want) {
		t.Fatalf("actuator calls = %v, want %v", got, want)
	}
}

func TestRouterFailedJoinIsNotRecordedAsPlayed(t *testing.T) {
	t.Parallel()

	hist := &fakeHistory{}
	act := newFakeActuator()
	act.connectErr = errors.New("voice handshake timed out")
	r := NewCommandRouter(&fakeMessenger{}, &fakeResolver{}, hist, testOptions)

	r.Handle(context.Background(), routerWorld(), act, message("alice", "!h https://example.com/a.mp3"))

	if got, want := act.Calls(), []string{"Connect(g1:v1)"}; !slices.Equal(got, want) {
		t.Fatalf("actuator calls = %v, want %v", got, want)
	}
	if len(hist.tracks) != 0 {
		t.Fatalf("tracks = %+v, want none", hist.tracks)
	}
	if len(hist.commands) != 1 || hist.commands[0].Command != "play" {
		t.Fatalf("commands = %+v", hist.commands)
	}
}
