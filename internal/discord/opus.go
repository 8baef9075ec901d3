package discord

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/keshon/hark/internal/media"

	"github.com/bwmarrin/discordgo"
	"layeh.com/gopus"
)

const maxOpusFrame = 4000

// sendOpus encodes s16le PCM from stream and feeds it to vc until the
// stream ends or stop closes. stream is always closed, and closing stop
// closes it at once so a stalled producer cannot hold the sender.
func sendOpus(stream io.ReadCloser, stop <-chan struct{}, vc *discordgo.VoiceConnection) error {
	defer stream.Close()

	finished := make(chan struct{})
	defer close(finished)
	go func() {
		select {
		case <-stop:
			stream.Close()
		case <-finished:
		}
	}()

	encoder, err := gopus.NewEncoder(media.SampleRate, media.Channels, gopus.Audio)
	if err != nil {
		return fmt.Errorf("encoder error: %w", err)
	}

	pcmBuf := make([]byte, media.FrameSize*media.Channels*2)
	intBuf := make([]int16, media.FrameSize*media.Channels)

	for {
		select {
		case <-stop:
			return nil
		default:
		}

		if _, err := io.ReadFull(stream, pcmBuf); err != nil {
			select {
			case <-stop:
				return nil
			default:
			}
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil
			}
			return fmt.Errorf("read error: %w", err)
		}
		decodePCM(pcmBuf, intBuf)

		frame, err := encoder.Encode(intBuf, media.FrameSize, maxOpusFrame)
		if err != nil {
			return fmt.Errorf("encode error: %w", err)
		}

		select {
		case vc.OpusSend <- frame:
		case <-stop:
			return nil
		}
	}
}

// decodePCM reads little-endian samples from b into out.
func decodePCM(b []byte, out []int16) {
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(b[i*2 : i*2+2]))
	}
}
