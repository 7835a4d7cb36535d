package logger

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	corelogger "github.com/kilianp07/robofleet/core/logger"
)

// Logger mirrors the core logger interface.
type Logger = corelogger.Logger

// NopLogger discards everything.
type NopLogger = corelogger.NopLogger

// Options configures the process-wide log output.
type Options struct {
	// Level is a zerolog level name. Empty means info.
	Level string
	// Format is "json" or "console". Empty picks console when APP_ENV=dev.
	Format string
	// File, when set, receives logs in addition to stdout and is rotated.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	// FileOnly drops stdout, for full-screen programs. Without a File the
	// output is discarded.
	FileOnly bool
}

var (
	mu     sync.RWMutex
	output io.Writer = os.Stdout
	format string
	level  = zerolog.InfoLevel
)

// Setup applies opts to every logger created afterwards.
func Setup(opts Options) error {
	lvl := zerolog.InfoLevel
	if opts.Level != "" {
		l, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
		if err != nil {
			return err
		}
		lvl = l
	}
	var w io.Writer = os.Stdout
	if opts.FileOnly {
		w = io.Discard
	}
	if opts.File != "" {
		rot := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
		}
		if opts.FileOnly {
			w = rot
		} else {
			w = io.MultiWriter(os.Stdout, rot)
		}
	}
	mu.Lock()
	output, format, level = w, opts.Format, lvl
	mu.Unlock()
	return nil
}

// New returns a Logger for the given component.
func New(component string) Logger {
	mu.RLock()
	w, f, lvl := output, format, level
	mu.RUnlock()
	return newZerolog(w, f, lvl, component)
}
