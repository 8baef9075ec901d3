package main

import (
	"os"

	"github.com/keshon/hark/cmd/hark/commands"

	"github.com/rs/zerolog/log"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	if err := commands.NewRootCmd(version).Execute(); err != nil {
		log.Error().Err(err).Msg("hark stopped")
		os.Exit(1)
	}
}
