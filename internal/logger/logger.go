// Package logger provides structured logging configuration and setup for the application.
package logger

import (
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
)

const ServiceName = "inkwell"

// New builds the console logger used by the server and tools.
func New(level string) zerolog.Logger {
	return NewWithWriter(level, zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
}

func NewWithWriter(level string, w io.Writer) zerolog.Logger {
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	zerolog.TimeFieldFormat = time.RFC3339Nano

	logLevel, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		logLevel = zerolog.InfoLevel
		// Use a basic logger to print this warning, as the main one isn't configured yet.
		fmt.Fprintf(os.Stderr, "Invalid log level '%s', defaulting to 'info'\n", level)
	}

	goVersion, gitRevision := buildVersions()

	l := zerolog.New(w).
		Level(logLevel).
		With().
		Timestamp().
		Caller().
		Str("service", ServiceName).
		Int("pid", os.Getpid()).
		Str("go_version", goVersion).
		Str("git_revision", gitRevision).
		Logger()

	zerolog.DefaultContextLogger = &l
	return l
}

func buildVersions() (goVersion, gitRevision string) {
	goVersion, gitRevision = "unknown", "unknown"
	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	goVersion = buildInfo.GoVersion
	for _, v := range buildInfo.Settings {
		if v.Key == "vcs.revision" {
			gitRevision = v.Value
			break
		}
	}
	return
}
