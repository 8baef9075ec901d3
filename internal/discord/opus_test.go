package discord

import (
	"io"
	"testing"
	"time"

	"github.com/keshon/hark/internal/media"

	"github.com/bwmarrin/discordgo"
)

const pcmFrame = media.FrameSize * media.Channels * 2

func TestSendOpusStopUnblocksStalledStream(t *testing.T) {
	t.Parallel()

	// Nothing is ever written: the read blocks like a hung producer.
	pr, pw := io.Pipe()
	defer pw.Close()

	vc := &discordgo.VoiceConnection{OpusSend: make(chan []byte, 1)}
	stop := make(chan struct{})
	result := make(chan error, 1)
	go func() { result <- sendOpus(pr, stop, vc) }()

	time.Sleep(20 * time.Millisecond)
	close(stop)

	select {
	case err := <-result:
		if err != nil {
			t.Fatalf("sendOpus() = %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("sendOpus still blocked after stop")
	}
}

func TestSendOpusSendsEveryFrame(t *testing.T) {
	t.Parallel()

	pr, pw := io.Pipe()
	go func() {
		pw.Write(make([]byte, 2*pcmFrame))
		pw.Close()
	}()

	vc := &discordgo.VoiceConnection{OpusSend: make(chan []byte, 4)}
	if err := sendOpus(pr, make(chan struct{}), vc); err != nil {
		t.Fatalf("sendOpus() = %v", err)
	}
	if got := len(vc.OpusSend); got != 2 {
		t.Fatalf("sent %d frames, want 2", got)
	}
}
