package media

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// firstFrame is the amount of decoded audio a link must yield before it
// counts as playable.
const firstFrame = FrameSize * Channels * 2

// pcmCommand builds an ffmpeg process decoding input to s16le PCM on stdout.
// Use "pipe:0" as input to decode from stdin.
func pcmCommand(ffmpegPath, input string) *exec.Cmd {
	args := []string{}
	if input != "pipe:0" {
		args = append(args,
			"-reconnect", "1",
			"-reconnect_streamed", "1",
			"-reconnect_delay_max", "5",
			"-rw_timeout", "15000000",
		)
	}
	args = append(args,
		"-i", input,
		"-f", "s16le",
		"-ar", fmt.Sprintf("%d", SampleRate),
		"-ac", fmt.Sprintf("%d", Channels),
		"-loglevel", "warning",
		"pipe:1",
	)
	return exec.Command(ffmpegPath, args...)
}

// startPCM starts cmd and returns its stdout together with a cleanup that
// kills it.
func startPCM(cmd *exec.Cmd) (io.ReadCloser, func(), error) {
	reader, err := cmd.StdoutPipe()
	if err != nil {
		return nil, nil, fmt.Errorf("ffmpeg stdout pipe error: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, nil, fmt.Errorf("ffmpeg start error: %w", err)
	}
	cleanup := func() {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
	}
	return reader, cleanup, nil
}

// primed serves the frame read while probing, then the rest of the pipe.
type primed struct {
	*bufio.Reader
	io.Closer
}

// decodeLink starts ffmpeg on link and waits for its first frame, so dead
// or non-media links fail here with ffmpeg's own complaint.
func (r *Resolver) decodeLink(ctx context.Context, link string) (io.ReadCloser, func(), error) {
	var stderr bytes.Buffer
	cmd := pcmCommand(r.ffmpegPath, link)
	cmd.Stderr = &stderr

	reader, cleanup, err := startPCM(cmd)
	if err != nil {
		return nil, nil, err
	}

	buffered := bufio.NewReaderSize(reader, firstFrame)
	peeked := make(chan error, 1)
	go func() {
		_, err := buffered.Peek(firstFrame)
		peeked <- err
	}()

	select {
	case err = <-peeked:
	case <-ctx.Done():
		cleanup()
		<-peeked
		return nil, nil, ctx.Err()
	}
	if err != nil {
		cleanup()
		if msg := lastLine(stderr.String()); msg != "" {
			return nil, nil, fmt.Errorf("ffmpeg: %s", msg)
		}
		if errors.Is(err, io.EOF) {
			return nil, nil, errors.New("ffmpeg: no audio in source")
		}
		return nil, nil, fmt.Errorf("ffmpeg: %w", err)
	}
	return primed{Reader: buffered, Closer: reader}, cleanup, nil
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}

// ffmpegLink decodes a direct media link.
func (r *Resolver) ffmpegLink(ctx context.Context, input string) (io.ReadCloser, func(), string, error) {
	reader, cleanup, err := r.decodeLink(ctx, input)
	if err != nil {
		return nil, nil, "", err
	}
	return reader, cleanup, "", nil
}
