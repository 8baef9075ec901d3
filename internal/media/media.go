// Package media turns a play argument (a link or a search phrase) into raw
// PCM audio ready to be encoded for voice.
package media

import (
	"errors"
	"io"
	"sync"
)

// PCM format produced by every parser.
const (
	Channels   = 2
	SampleRate = 48000
	FrameSize  = 960 // 20ms at 48kHz
)

// ErrNothingToPlay is returned for an empty play argument.
var ErrNothingToPlay = errors.New("nothing to play")

// Stream is s16le PCM at SampleRate with Channels channels.
// Closing it also stops the processes feeding it.
type Stream struct {
	io.ReadCloser
	Input  string
	Title  string
	Parser string

	cleanup func()
	once    sync.Once
}

func newStream(r io.ReadCloser, cleanup func(), input, title, parser string) *Stream {
	return &Stream{
		ReadCloser: r,
		Input:      input,
		Title:      title,
		Parser:     parser,
		cleanup:    cleanup,
	}
}

// Close closes the reader and releases the producers.
func (s *Stream) Close() error {
	err := s.ReadCloser.Close()
	s.once.Do(func() {
		if s.cleanup != nil {
			s.cleanup()
		}
	})
	return err
}

// Name returns the best human label for the stream.
func (s *Stream) Name() string {
	if s.Title != "" {
		return s.Title
	}
	return s.Input
}
