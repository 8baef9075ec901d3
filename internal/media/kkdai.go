package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	youtube "github.com/kkdai/youtube/v2"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/proxy"
)

// newYouTubeClient builds a client that optionally dials through an
// http(s) or socks5 proxy.
func newYouTubeClient(proxyStr string) (*youtube.Client, error) {
	// no client timeout: piped downloads stream for as long as the track lasts
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		ResponseHeaderTimeout: 15 * time.Second,
	}
	if proxyStr == "" {
		return &youtube.Client{HTTPClient: &http.Client{Transport: transport}}, nil
	}

	proxyURL, err := url.Parse(proxyStr)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy %q: %w", proxyStr, err)
	}

	switch proxyURL.Scheme {
	case "http", "https":
		transport.Proxy = http.ProxyURL(proxyURL)
	case "socks5", "socks5h":
		dialer, err := proxy.FromURL(proxyURL, &net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 10 * time.Second,
		})
		if err != nil {
			return nil, fmt.Errorf("proxy dialer error: %w", err)
		}
		transport.Proxy = nil
		transport.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
			if cd, ok := dialer.(proxy.ContextDialer); ok {
				return cd.DialContext(ctx, network, addr)
			}
			return dialer.Dial(network, addr)
		}
	default:
		return nil, fmt.Errorf("unsupported proxy scheme %q", proxyURL.Scheme)
	}

	log.Info().Str("module", "media").Str("scheme", proxyURL.Scheme).Msg("youtube client uses proxy")
	return &youtube.Client{HTTPClient: &http.Client{Transport: transport}}, nil
}

// video looks up a YouTube link and its best audio-bearing format.
func (r *Resolver) video(ctx context.Context, input string) (*youtube.Video, *youtube.Format, error) {
	id, err := extractYouTubeID(input)
	if err != nil {
		return nil, nil, err
	}

	video, err := r.yt.GetVideoContext(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("youtube: %w", err)
	}

	formats := video.Formats.WithAudioChannels()
	if len(formats) == 0 {
		return nil, nil, errors.New("youtube: no audio formats found for video")
	}
	return video, &formats[0], nil
}

// kkdaiLink resolves the stream URL and lets ffmpeg fetch it.
func (r *Resolver) kkdaiLink(ctx context.Context, input string) (io.ReadCloser, func(), string, error) {
	video, format, err := r.video(ctx, input)
	if err != nil {
		return nil, nil, "", err
	}

	link, err := r.yt.GetStreamURLContext(ctx, video, format)
	if err != nil {
		return nil, nil, "", fmt.Errorf("youtube: stream URL error: %w", err)
	}

	reader, cleanup, err := r.decodeLink(ctx, link)
	if err != nil {
		return nil, nil, "", err
	}
	return reader, cleanup, video.Title, nil
}

// kkdaiPipe downloads the audio with the YouTube client and pipes it
// through ffmpeg.
func (r *Resolver) kkdaiPipe(ctx context.Context, input string) (io.ReadCloser, func(), string, error) {
	video, format, err := r.video(ctx, input)
	if err != nil {
		return nil, nil, "", err
	}

	// the body outlives this call, so it is not bound to ctx
	body, _, err := r.yt.GetStream(video, format)
	if err != nil {
		return nil, nil, "", fmt.Errorf("youtube: get stream error: %w", err)
	}

	ffmpeg := pcmCommand(r.ffmpegPath, "pipe:0")
	ffmpeg.Stdin = body

	reader, stopFFmpeg, err := startPCM(ffmpeg)
	if err != nil {
		body.Close()
		return nil, nil, "", err
	}

	cleanup := func() {
		body.Close()
		stopFFmpeg()
	}
	return reader, cleanup, video.Title, nil
}
