package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/aretw0/circuitry/internal/config"
	"github.com/aretw0/circuitry/internal/logging"
	"github.com/aretw0/circuitry/pkg/codec"
	"github.com/aretw0/circuitry/pkg/domain"
)

// SignalContext wraps a context and captures the signal that cancelled it.
type SignalContext struct {
	context.Context
	Cancel func()
	start  sync.Once
	stop   sync.Once
	sigCh  chan os.Signal
	sigVal os.Signal
	mu     sync.Mutex
}

// NewSignalContext creates a context that is cancelled on SIGINT or SIGTERM.
// It acts as a drop-in replacement for signal.NotifyContext but allows retrieving the signal.
func NewSignalContext(parent context.Context) *SignalContext {
	ctx, cancel := context.WithCancel(parent)
	sc := &SignalContext{
		Context: ctx,
		Cancel:  cancel,
		sigCh:   make(chan os.Signal, 1),
	}

	sc.start.Do(func() {
		signal.Notify(sc.sigCh, os.Interrupt, syscall.SIGTERM)
		go func() {
			select {
			case sig := <-sc.sigCh:
				sc.mu.Lock()
				sc.sigVal = sig
				sc.mu.Unlock()
				sc.Cancel()
			case <-sc.Context.Done():
				// Context cancelled elsewhere
			}
			sc.stop.Do(func() {
				signal.Stop(sc.sigCh)
			})
		}()
	})

	return sc
}

// Signal returns the signal that caused the context to be cancelled, or nil.
func (sc *SignalContext) Signal() os.Signal {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.sigVal
}

// Options are the flags shared by every command.
type Options struct {
	ConfigPath string
	Debug      bool
	// Overrides are dotted config keys set from flags, applied after the environment.
	Overrides map[string]string
}

// LoadConfig reads the config file, the environment and flag overrides.
func LoadConfig(opts Options) (*config.Config, error) {
	environ := os.Environ()
	for key, value := range opts.Overrides {
		if env, ok := envName(key); ok {
			environ = append(environ, env+"="+value)
		}
	}
	if opts.Debug {
		environ = append(environ, config.EnvPrefix+"LOG_LEVEL=debug")
	}
	return config.Load(opts.ConfigPath, environ)
}

func envName(key string) (string, bool) {
	for _, r := range key {
		if r != '.' && r != '_' && (r < 'a' || r > 'z') {
			return "", false
		}
	}
	b := []byte(key)
	for i, c := range b {
		switch {
		case c == '.':
			b[i] = '_'
		case c >= 'a' && c <= 'z':
			b[i] = c - 'a' + 'A'
		}
	}
	return config.EnvPrefix + string(b), true
}

// CreateLogger configures the application logger from cfg.
// It writes to Stderr so Stdout carries only command output.
func CreateLogger(cfg *config.Config) *slog.Logger {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	return logging.New(level, cfg.Log.Format)
}

// ReadDocument loads a circuit document from path, or from in when path is "-".
// Standard input is decoded as YAML, which also accepts JSON.
func ReadDocument(path string, in io.Reader) (*domain.Document, error) {
	if path != "-" {
		return codec.ReadFile(path)
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return nil, fmt.Errorf("read stdin: %w", err)
	}
	return codec.Decode(data, codec.YAML)
}

// printSystemMessage prints a standardized system message.
func printSystemMessage(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, ">>> %s\n", fmt.Sprintf(format, args...))
}
