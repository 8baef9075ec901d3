package media

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

type ytdlpInfo struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Formats []struct {
		URL string `json:"url"`
	} `json:"formats"`
}

// ytdlpTarget maps a play argument to something yt-dlp understands.
// Plain text becomes a first-hit search.
func ytdlpTarget(input string) string {
	if IsURL(input) {
		return input
	}
	return "ytsearch1:" + input
}

// probe asks yt-dlp for the metadata of target. It fails fast on
// unsupported or unavailable links, which is what the user gets to read.
func (r *Resolver) probe(ctx context.Context, target string) (*ytdlpInfo, error) {
	cmd := exec.CommandContext(ctx, r.ytdlpPath, "-j", "--no-playlist", "-f", "bestaudio", target)
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("yt-dlp: %s", exitReason(err))
	}

	// search results print one JSON document per line
	line, _, _ := bytes.Cut(bytes.TrimSpace(output), []byte("\n"))
	var info ytdlpInfo
	if err := json.Unmarshal(line, &info); err != nil {
		return nil, fmt.Errorf("yt-dlp: unreadable metadata: %w", err)
	}
	return &info, nil
}

// ytdlpLink resolves the direct media link and lets ffmpeg fetch it.
func (r *Resolver) ytdlpLink(ctx context.Context, input string) (io.ReadCloser, func(), string, error) {
	info, err := r.probe(ctx, ytdlpTarget(input))
	if err != nil {
		return nil, nil, "", err
	}

	link := strings.TrimSpace(info.URL)
	if link == "" && len(info.Formats) > 0 {
		link = strings.TrimSpace(info.Formats[0].URL)
	}
	if link == "" {
		return nil, nil, "", errors.New("yt-dlp: empty URL returned")
	}

	reader, cleanup, err := r.decodeLink(ctx, link)
	if err != nil {
		return nil, nil, "", err
	}
	return reader, cleanup, info.Title, nil
}

// ytdlpPipe downloads with yt-dlp and pipes the bytes through ffmpeg.
func (r *Resolver) ytdlpPipe(ctx context.Context, input string) (io.ReadCloser, func(), string, error) {
	target := ytdlpTarget(input)
	info, err := r.probe(ctx, target)
	if err != nil {
		return nil, nil, "", err
	}

	ytdlp := exec.Command(r.ytdlpPath, "-o", "-", "--no-playlist", "-f", "bestaudio", "--quiet", target)
	ffmpeg := pcmCommand(r.ffmpegPath, "pipe:0")

	ffmpegIn, err := ytdlp.StdoutPipe()
	if err != nil {
		return nil, nil, "", fmt.Errorf("yt-dlp stdout pipe error: %w", err)
	}
	ffmpeg.Stdin = ffmpegIn

	if err := ytdlp.Start(); err != nil {
		return nil, nil, "", fmt.Errorf("yt-dlp start error: %w", err)
	}
	reader, stopFFmpeg, err := startPCM(ffmpeg)
	if err != nil {
		_ = ytdlp.Process.Kill()
		_ = ytdlp.Wait()
		return nil, nil, "", err
	}

	cleanup := func() {
		stopFFmpeg()
		_ = ytdlp.Process.Kill()
		_ = ytdlp.Wait()
	}
	return reader, cleanup, info.Title, nil
}

// exitReason extracts the last stderr line of a failed command.
func exitReason(err error) string {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		lines := strings.Split(strings.TrimSpace(string(exitErr.Stderr)), "\n")
		if last := strings.TrimSpace(lines[len(lines)-1]); last != "" {
			return last
		}
	}
	return err.Error()
}
