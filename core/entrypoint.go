package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path"
	"reflect"
	"runtime"
	"syscall"
	"time"

	"github.com/encodeous/strand/perf"
	"github.com/encodeous/strand/state"
	"github.com/encodeous/tint"
	slogmulti "github.com/samber/slog-multi"
	"gopkg.in/natefinch/lumberjack.v2"
)

var ErrShutdownSignal = errors.New("received shutdown signal")

// LoadNetwork reads and validates the network file referenced by cfg, and checks that cfg's node is part of it
func LoadNetwork(cfg *state.LocalCfg) (*state.NetworkCfg, error) {
	ncfg, err := state.ReadNetworkCfg(cfg.Network)
	if err != nil {
		return nil, err
	}
	err = state.NetworkCfgValidator(ncfg)
	if err != nil {
		return nil, err
	}
	_, err = ncfg.GetLinks(cfg.Addr())
	if err != nil {
		return nil, err
	}
	return ncfg, nil
}

// Bootstrap validates the configuration and runs the node until it is stopped
func Bootstrap(cfg state.LocalCfg, verbose bool) error {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	state.ExpandLocalCfg(&cfg)
	err := state.LocalCfgValidator(&cfg)
	if err != nil {
		return err
	}
	ncfg, err := LoadNetwork(&cfg)
	if err != nil {
		return err
	}
	return Start(cfg, *ncfg, level, nil, nil)
}

// newLogger returns the node logger, and the log file to close when the node stops, if any
func newLogger(lcfg state.LocalCfg, logLevel slog.Level) (*slog.Logger, io.Closer, error) {
	handlers := make([]slog.Handler, 0)
	handlers = append(handlers,
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:        logLevel,
			AddSource:    false,
			CustomPrefix: lcfg.Addr().String(),
			ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
				if attr.Key == "time" {
					return slog.Attr{}
				}
				return attr
			},
		}))

	var closer io.Closer
	if lcfg.LogPath != "" {
		err := os.MkdirAll(path.Dir(lcfg.LogPath), 0700)
		if err != nil {
			return nil, nil, err
		}
		var w io.WriteCloser
		if lcfg.LogMaxSizeMB > 0 {
			w = &lumberjack.Logger{
				Filename:   lcfg.LogPath,
				MaxSize:    lcfg.LogMaxSizeMB,
				MaxBackups: 3,
				MaxAge:     7,
			}
		} else {
			w, err = os.OpenFile(lcfg.LogPath, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0600)
			if err != nil {
				return nil, nil, err
			}
		}
		closer = w
		handlers = append(handlers, slog.NewTextHandler(w, &slog.HandlerOptions{Level: logLevel}))
	}
	return slog.New(slogmulti.Fanout(handlers...)), closer, nil
}

// Start runs a node on the calling goroutine until its context is cancelled.
// aux may carry a "transport" (Transport) to replace the UDP sockets. If initState is set, it receives the node state before modules are initialized.
func Start(lcfg state.LocalCfg, ncfg state.NetworkCfg, logLevel slog.Level, aux map[string]any, initState **state.State) error {
	ctx, cancel := context.WithCancelCause(context.Background())
	defer cancel(context.Canceled)

	dispatch := make(chan func(env *state.State) error, 128)

	logger, logFile, err := newLogger(lcfg, logLevel)
	if err != nil {
		return err
	}
	if logFile != nil {
		defer logFile.Close()
	}

	s := state.State{
		Modules: make(map[string]state.Module),
		Env: &state.Env{
			Context:         ctx,
			Cancel:          cancel,
			DispatchChannel: dispatch,
			LocalCfg:        lcfg,
			NetworkCfg:      ncfg,
			Log:             logger,
			AuxConfig:       aux,
			Rand:            state.NewRand(lcfg.Seed),
		},
	}
	if initState != nil {
		*initState = &s
	}

	s.Log.Info("init modules")
	err = initModules(&s)
	if err != nil {
		Stop(&s)
		return err
	}
	s.Log.Info("init modules complete")

	s.Log.Info("strand has been initialized. To gracefully exit, send SIGINT or Ctrl+C.")

	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		defer signal.Stop(c)
		select {
		case <-c:
			s.Cancel(ErrShutdownSignal)
		case <-ctx.Done():
			return
		}
	}()

	return MainLoop(&s, dispatch)
}

func initModules(s *state.State) error {
	var modules []state.Module
	// order matters, the router depends on the trace, and the node depends on the router state
	modules = append(modules, &Trace{})
	modules = append(modules, &StrandRouter{})
	modules = append(modules, &Node{})
	modules = append(modules, &Status{})

	for _, module := range modules {
		s.Modules[reflect.TypeOf(module).String()] = module
		if err := module.Init(s); err != nil {
			return fmt.Errorf("init %s: %w", reflect.TypeOf(module).String(), err)
		}
	}
	return nil
}

func MainLoop(s *state.State, dispatch <-chan func(*state.State) error) error {
	s.Log.Debug("started main loop")
	s.Started.Store(true)
	var loopErr error
	for {
		select {
		case fun := <-dispatch:
			start := time.Now()
			err := fun(s)
			if err != nil {
				s.Log.Error("error occurred during dispatch", "error", err)
				loopErr = err
				s.Cancel(err)
			}
			elapsed := time.Since(start)
			perf.DispatchLatency.Add(float64(elapsed.Microseconds()))
			if elapsed > time.Millisecond*4 {
				s.Log.Warn("dispatch took a long time!", "fun", runtime.FuncForPC(reflect.ValueOf(fun).Pointer()).Name(), "elapsed", elapsed, "len", len(dispatch))
			}
		case <-s.Context.Done():
			goto endLoop
		}
	}
endLoop:
	s.Log.Info("stopped main loop", "reason", context.Cause(s.Context).Error())
	Stop(s)
	return loopErr
}

// Stop cancels the node and cleans up its modules. It is safe to call more than once.
func Stop(s *state.State) {
	if s.Stopping.Swap(true) {
		return // don't stop twice
	}
	s.Cancel(context.Canceled)
	s.Log.Info("cleaning up modules")
	for moduleName, module := range s.Modules {
		err := module.Cleanup(s)
		if err != nil {
			s.Log.Error("error occurred during Stop", "module", moduleName, "error", err)
		}
	}
	s.Log.Info("stopped")
}
