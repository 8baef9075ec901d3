// /internal/storage/storage.go
package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/keshon/datastore"
)

const (
	commandHistoryLimit int = 20
	tracksHistoryLimit  int = 12
)

// Storage persists per-scope command and playback history.
// A scope is a server id, or "direct" for direct calls.
type Storage struct {
	ds *datastore.DataStore
}

type CommandRecord struct {
	ChannelID string    `json:"channel_id"`
	UserID    string    `json:"user_id"`
	Command   string    `json:"command"`
	Param     string    `json:"param"`
	Datetime  time.Time `json:"datetime"`
}

type TrackRecord struct {
	Input       string    `json:"input"`
	Title       string    `json:"title"`
	Parser      string    `json:"parser"`
	RequestedBy string    `json:"requested_by"`
	Datetime    time.Time `json:"datetime"`
}

type Record struct {
	CommandsHistory []CommandRecord `json:"cmd_history"`
	TracksHistory   []TrackRecord   `json:"tracks_history"`
}

func New(filePath string) (*Storage, error) {
	ds, err := datastore.New(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open datastore: %w", err)
	}
	return &Storage{ds: ds}, nil
}

func (s *Storage) Close() error {
	return s.ds.Close()
}

// getOrCreateRecord loads the record of scope. Values read back from disk
// are generic maps, so they go through a JSON round trip.
func (s *Storage) getOrCreateRecord(scope string) (*Record, error) {
	data, exists := s.ds.Get(scope)
	if !exists {
		return &Record{}, nil
	}

	if rec, ok := data.(*Record); ok {
		return rec, nil
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("error marshalling data: %w", err)
	}
	var record Record
	if err := json.Unmarshal(jsonData, &record); err != nil {
		return nil, fmt.Errorf("error unmarshalling to *Record: %w", err)
	}
	return &record, nil
}

// AddCommand appends a command to the history of scope, keeping the most
// recent ones.
func (s *Storage) AddCommand(scope string, rec CommandRecord) error {
	record, err := s.getOrCreateRecord(scope)
	if err != nil {
		return err
	}
	if rec.Datetime.IsZero() {
		rec.Datetime = time.Now()
	}
	record.CommandsHistory = keepLast(append(record.CommandsHistory, rec), commandHistoryLimit)
	s.ds.Add(scope, record)
	return nil
}

// AddTrack appends a played source to the history of scope.
func (s *Storage) AddTrack(scope string, rec TrackRecord) error {
	record, err := s.getOrCreateRecord(scope)
	if err != nil {
		return err
	}
	if rec.Datetime.IsZero() {
		rec.Datetime = time.Now()
	}
	record.TracksHistory = keepLast(append(record.TracksHistory, rec), tracksHistoryLimit)
	s.ds.Add(scope, record)
	return nil
}

func (s *Storage) CommandsHistory(scope string) ([]CommandRecord, error) {
	record, err := s.getOrCreateRecord(scope)
	if err != nil {
		return nil, err
	}
	return record.CommandsHistory, nil
}

func (s *Storage) TracksHistory(scope string) ([]TrackRecord, error) {
	record, err := s.getOrCreateRecord(scope)
	if err != nil {
		return nil, err
	}
	return record.TracksHistory, nil
}

func keepLast[T any](list []T, limit int) []T {
	if len(list) > limit {
		return list[len(list)-limit:]
	}
	return list
}
