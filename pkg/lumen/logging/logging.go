// Package logging is the shared log facility of the lumen CLI and the
// lumend daemon. Each component gets a named charmbracelet/log handler
// with an optional per-component level override, all writing through a
// size-rotated log file. Get works before Init too: handlers created
// that early discard their output, and calling Get again after Init
// returns a configured handler.
package logging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/adrg/xdg"
	"github.com/charmbracelet/log"
)

// ErrInvalidLevel is returned for level strings Init does not accept.
var ErrInvalidLevel = errors.New("invalid log level")

// ParseLevel maps a config string onto a charmbracelet/log level.
// Accepted values are debug, info, warn (or warning) and error.
func ParseLevel(s string) (log.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return log.DebugLevel, nil
	case "info":
		return log.InfoLevel, nil
	case "warn", "warning":
		return log.WarnLevel, nil
	case "error":
		return log.ErrorLevel, nil
	}
	return log.InfoLevel, fmt.Errorf("%w: %q", ErrInvalidLevel, s)
}

// Config configures the logging system.
type Config struct {
	// Level is the default level for components without an override.
	Level string

	// Path is the log file. Empty uses DefaultLogPath().
	Path string

	// MaxSizeBytes rotates the log file once a write would push it
	// past this size. Zero uses DefaultMaxSizeBytes.
	MaxSizeBytes int64

	// MaxBackups is how many rotated files to keep. Zero uses
	// DefaultMaxBackups.
	MaxBackups int

	// Components overrides the level per component name.
	Components map[string]string

	// ConsoleLevel additionally echoes records at or above this level
	// to stderr. Empty disables the echo.
	ConsoleLevel string
}

// Logger fans each record out to its sinks: always the log file, plus
// stderr when a console level is configured. Sinks filter by their own
// level.
type Logger struct {
	sinks []*log.Logger
}

func (l *Logger) Debug(msg string, args ...any) {
	for _, s := range l.sinks {
		s.Debug(msg, args...)
	}
}

func (l *Logger) Info(msg string, args ...any) {
	for _, s := range l.sinks {
		s.Info(msg, args...)
	}
}

func (l *Logger) Warn(msg string, args ...any) {
	for _, s := range l.sinks {
		s.Warn(msg, args...)
	}
}

func (l *Logger) Error(msg string, args ...any) {
	for _, s := range l.sinks {
		s.Error(msg, args...)
	}
}

// With returns a logger carrying additional key-value context.
func (l *Logger) With(args ...any) *Logger {
	out := &Logger{sinks: make([]*log.Logger, len(l.sinks))}
	for i, s := range l.sinks {
		out.sinks[i] = s.With(args...)
	}
	return out
}

type registry struct {
	mu sync.Mutex

	ready        bool
	writer       *RotatingWriter
	defaultLevel log.Level
	overrides    map[string]log.Level
	echoStderr   bool
	stderrLevel  log.Level

	byName map[string]*Logger
}

var reg = &registry{byName: make(map[string]*Logger)}

// Init opens the log file and applies the configuration. Calling it
// again replaces the previous configuration and reopens the file.
func Init(cfg Config) error {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return err
	}

	overrides := make(map[string]log.Level, len(cfg.Components))
	for name, raw := range cfg.Components {
		lvl, err := ParseLevel(raw)
		if err != nil {
			return fmt.Errorf("component %s: %w", name, err)
		}
		overrides[name] = lvl
	}

	echo := false
	stderrLevel := log.InfoLevel
	if cfg.ConsoleLevel != "" {
		stderrLevel, err = ParseLevel(cfg.ConsoleLevel)
		if err != nil {
			return fmt.Errorf("console: %w", err)
		}
		echo = true
	}

	path := cfg.Path
	if path == "" {
		path = DefaultLogPath()
	}
	writer, err := NewRotatingWriter(path, cfg.MaxSizeBytes, cfg.MaxBackups)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}

	if reg.writer != nil {
		_ = reg.writer.Close()
	}
	reg.writer = writer
	reg.defaultLevel = level
	reg.overrides = overrides
	reg.echoStderr = echo
	reg.stderrLevel = stderrLevel
	reg.ready = true

	// Rebuild the cache so the next Get for a known component hands
	// out a handler with the new configuration. Logger values callers
	// are still holding keep their old sinks.
	for name := range reg.byName {
		reg.byName[name] = reg.build(name)
	}
	return nil
}

// Get returns the handler for the named component, creating it on
// first use.
func Get(component string) *Logger {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if l, ok := reg.byName[component]; ok {
		return l
	}
	l := reg.build(component)
	reg.byName[component] = l
	return l
}

// build constructs a component handler. Caller holds reg.mu.
func (r *registry) build(component string) *Logger {
	level := r.defaultLevel
	if lvl, ok := r.overrides[component]; ok {
		level = lvl
	}

	if !r.ready {
		return &Logger{sinks: []*log.Logger{
			log.NewWithOptions(io.Discard, log.Options{Prefix: component}),
		}}
	}

	sinks := []*log.Logger{
		log.NewWithOptions(r.writer, log.Options{
			Level:           level,
			Prefix:          component,
			ReportTimestamp: true,
			TimeFormat:      time.RFC3339,
		}),
	}
	if r.echoStderr {
		sinks = append(sinks, log.NewWithOptions(os.Stderr, log.Options{
			Level:           r.stderrLevel,
			Prefix:          component,
			ReportTimestamp: true,
			TimeFormat:      "15:04:05",
		}))
	}
	return &Logger{sinks: sinks}
}

// Close flushes and closes the log file. Handlers handed out earlier
// keep working but discard their output until the next Init.
func Close() error {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if !reg.ready {
		return nil
	}
	reg.ready = false

	err := reg.writer.Close()
	reg.writer = nil
	reg.byName = make(map[string]*Logger)
	reg.overrides = nil
	if err != nil {
		return fmt.Errorf("closing log file: %w", err)
	}
	return nil
}

// DefaultLogPath returns $XDG_STATE_HOME/lumen/lumen.log.
func DefaultLogPath() string {
	return filepath.Join(xdg.StateHome, "lumen", "lumen.log")
}
