package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/BurakkYuce/rental-backend/config"
)

// New builds the process logger. JSON is the default; "text" is meant for
// local runs.
func New(cfg config.LogConfig) *slog.Logger {
	return newWithWriter(cfg, os.Stdout)
}

func newWithWriter(cfg config.LogConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if strings.EqualFold(cfg.Format, "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}
