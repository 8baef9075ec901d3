package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	youtube "github.com/kkdai/youtube/v2"
	"github.com/rs/zerolog/log"
)

// Parser names accepted in Options.Parsers.
const (
	ParserKkdaiPipe  = "kkdai-pipe"
	ParserKkdaiLink  = "kkdai-link"
	ParserYtdlpPipe  = "ytdlp-pipe"
	ParserYtdlpLink  = "ytdlp-link"
	ParserFFmpegLink = "ffmpeg-link"
)

// opener starts a PCM producer for input and reports the title, if known.
type opener func(ctx context.Context, input string) (io.ReadCloser, func(), string, error)

// Options configures a Resolver.
type Options struct {
	Parsers      []string
	YtdlpPath    string
	FFmpegPath   string
	YouTubeProxy string
}

// Resolver opens play arguments as PCM streams, trying each configured
// parser that can handle the argument until one succeeds.
type Resolver struct {
	parsers    []string
	openers    map[string]opener
	ytdlpPath  string
	ffmpegPath string
	yt         *youtube.Client
}

// New creates a Resolver.
func New(opts Options) (*Resolver, error) {
	yt, err := newYouTubeClient(opts.YouTubeProxy)
	if err != nil {
		return nil, err
	}

	r := &Resolver{
		ytdlpPath:  opts.YtdlpPath,
		ffmpegPath: opts.FFmpegPath,
		yt:         yt,
	}
	if r.ytdlpPath == "" {
		r.ytdlpPath = "yt-dlp"
	}
	if r.ffmpegPath == "" {
		r.ffmpegPath = "ffmpeg"
	}
	r.openers = map[string]opener{
		ParserKkdaiPipe:  r.kkdaiPipe,
		ParserKkdaiLink:  r.kkdaiLink,
		ParserYtdlpPipe:  r.ytdlpPipe,
		ParserYtdlpLink:  r.ytdlpLink,
		ParserFFmpegLink: r.ffmpegLink,
	}

	for _, p := range opts.Parsers {
		if _, ok := r.openers[p]; !ok {
			return nil, fmt.Errorf("unknown parser %q", p)
		}
		r.parsers = append(r.parsers, p)
	}
	if len(r.parsers) == 0 {
		r.parsers = []string{ParserYtdlpPipe, ParserFFmpegLink}
	}
	return r, nil
}

// Open resolves argument to a playable stream. Errors are phrased for the
// user who asked to play it.
func (r *Resolver) Open(ctx context.Context, argument string) (*Stream, error) {
	input := strings.TrimSpace(argument)
	if input == "" {
		return nil, ErrNothingToPlay
	}

	candidates := Candidates(r.parsers, input)
	if len(candidates) == 0 {
		return nil, fmt.Errorf("no configured parser can play %q", input)
	}

	var failures []string
	for _, parser := range candidates {
		reader, cleanup, title, err := r.openers[parser](ctx, input)
		if err != nil {
			log.Debug().Str("module", "media").Str("parser", parser).Str("input", input).Err(err).Msg("parser failed, trying next")
			failures = append(failures, parser+": "+err.Error())
			if ctx.Err() != nil {
				break
			}
			continue
		}
		log.Info().Str("module", "media").Str("parser", parser).Str("input", input).Str("title", title).Msg("stream opened")
		return newStream(reader, cleanup, input, title, parser), nil
	}

	if len(failures) == 1 {
		return nil, errors.New(failures[0])
	}
	return nil, fmt.Errorf("all parsers failed (%s)", strings.Join(failures, "; "))
}

// Candidates filters parsers, keeping their order, down to the ones able
// to handle input: the YouTube client only takes YouTube links, ffmpeg only
// takes direct non-YouTube links, yt-dlp takes anything.
func Candidates(parsers []string, input string) []string {
	link := IsURL(input)
	yt := isYouTubeURL(input)

	var out []string
	for _, p := range parsers {
		switch p {
		case ParserKkdaiPipe, ParserKkdaiLink:
			if yt {
				out = append(out, p)
			}
		case ParserFFmpegLink:
			if link && !yt {
				out = append(out, p)
			}
		case ParserYtdlpPipe, ParserYtdlpLink:
			out = append(out, p)
		}
	}
	return out
}
