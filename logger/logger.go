// Package logger configures the global zerolog logger from the environment.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup initializes the global logger. LOG_LEVEL (default info) and
// LOG_FORMAT (console|json, default console) come from the environment.
func Setup() error {
	levelName := os.Getenv("LOG_LEVEL")
	if levelName == "" {
		levelName = "info"
	}
	level, err := zerolog.ParseLevel(strings.ToLower(levelName))
	if err != nil {
		return err
	}
	zerolog.SetGlobalLevel(level)

	var output io.Writer = os.Stdout
	if strings.ToLower(os.Getenv("LOG_FORMAT")) != "json" {
		output = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}

	log.Logger = zerolog.New(output).With().Timestamp().Logger()
	return nil
}

// WithComponent returns a logger tagged with a component field.
func WithComponent(component string) zerolog.Logger {
	return log.Logger.With().Str("component", component).Logger()
}
