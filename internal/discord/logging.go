package discord

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// RouteLogs sends discordgo's internal logging through zerolog.
func RouteLogs() {
	discordgo.Logger = func(msgL, _ int, format string, a ...any) {
		log.WithLevel(logLevel(msgL)).
			Str("module", "discordgo").
			Msg(fmt.Sprintf(format, a...))
	}
}

func logLevel(msgL int) zerolog.Level {
	switch msgL {
	case discordgo.LogError:
		return zerolog.ErrorLevel
	case discordgo.LogWarning:
		return zerolog.WarnLevel
	case discordgo.LogInformational:
		return zerolog.InfoLevel
	default:
		return zerolog.DebugLevel
	}
}
