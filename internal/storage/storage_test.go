package storage

import (
	"fmt"
	"path/filepath"
	"testing"
)

func newStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "datastore.json"))
	if err != nil {
		t.Fatalf("open storage: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCommandHistoryIsCappedPerScope(t *testing.T) {
	s := newStorage(t)

	for i := 0; i < commandHistoryLimit+5; i++ {
		if err := s.AddCommand("g1", CommandRecord{UserID: "alice", Command: "play", Param: fmt.Sprint(i)}); err != nil {
			t.Fatalf("add command: %v", err)
		}
	}
	if err := s.AddCommand("direct", CommandRecord{UserID: "bob", Command: "stop"}); err != nil {
		t.Fatalf("add command: %v", err)
	}

	got, err := s.CommandsHistory("g1")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != commandHistoryLimit {
		t.Fatalf("expected %d records, got %d", commandHistoryLimit, len(got))
	}
	if got[0].Param != "5" || got[len(got)-1].Param != fmt.Sprint(commandHistoryLimit+4) {
		t.Fatalf("expected the most recent records, got first=%q last=%q", got[0].Param, got[len(got)-1].Param)
	}
	if got[0].Datetime.IsZero() {
		t.Fatalf("records must be timestamped")
	}

	direct, err := s.CommandsHistory("direct")
	if err != nil {
		t.Fatal(err)
	}
	if len(direct) != 1 || direct[0].Command != "stop" {
		t.Fatalf("scopes must not mix: %+v", direct)
	}
}

func TestTrackHistory(t *testing.T) {
	s := newStorage(t)

	for i := 0; i < tracksHistoryLimit+1; i++ {
		if err := s.AddTrack("g1", TrackRecord{Input: fmt.Sprintf("https://x/%d", i), Parser: "ytdlp-pipe"}); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.TracksHistory("g1")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != tracksHistoryLimit || got[0].Input != "https://x/1" {
		t.Fatalf("unexpected history: %d entries, first %q", len(got), got[0].Input)
	}

	empty, err := s.TracksHistory("g2")
	if err != nil || len(empty) != 0 {
		t.Fatalf("unknown scope must be empty, got %v %v", empty, err)
	}
}
