package cliconfig

import (
	"io"

	"github.com/rs/zerolog"

	"github.com/bft-labs/telship/pkg/log"
)

// Logger returns a console logger writing to w at the configured level.
// An unparsable level falls back to info.
func Logger(w io.Writer, level string) *log.ZerologAdapter {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return log.NewConsoleAdapter(w, lvl)
}
