package bot

import (
	"github.com/keshon/hark/internal/gateway"
	"github.com/keshon/hark/internal/voice"
	"github.com/keshon/hark/internal/world"

	"github.com/rs/zerolog/log"
)

// OccupancyMonitor leaves a voice channel once the bot is the only one
// left in it.
type OccupancyMonitor struct{}

func NewOccupancyMonitor() *OccupancyMonitor {
	return &OccupancyMonitor{}
}

// Handle runs after w has applied ev. Only events in a slot where the bot
// sits in a channel are considered.
func (o *OccupancyMonitor) Handle(w *world.State, act voice.Actuator, ev gateway.VoiceStateUpdate) {
	current, ok := act.CurrentChannel(ev.ServerID)
	if !ok {
		return
	}

	// An untracked direct call has emptied out and been forgotten. The
	// bot's own join may not have been applied yet, so only others count.
	others, tracked := w.Company(current)
	if !tracked && !current.IsDirect() {
		return
	}
	if others > 0 {
		return
	}

	log.Info().Str("module", "occupancy").Str("channel", current.String()).Msg("channel is empty, leaving")
	if err := act.Disconnect(current); err != nil {
		log.Warn().Str("module", "occupancy").Str("channel", current.String()).Err(err).Msg("disconnect failed")
	}
}
