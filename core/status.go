package core

import (
	"context"
	"errors"
	"expvar"
	"net"
	"net/http"
	"time"

	"github.com/encodeous/strand/perf"
	"github.com/encodeous/strand/state"
)

func printStatus(s *state.State) {
	s.Log.Info("routing table\n" + s.StringTable())
}

// Status serves the debug endpoints when debug_addr is configured
type Status struct {
	Addr net.Addr
	srv  *http.Server
}

func (st *Status) Init(s *state.State) error {
	if s.DebugAddr == "" {
		return nil
	}
	env := s.Env
	mux := http.NewServeMux()
	mux.Handle("/debug/metrics", perf.Handler())
	mux.Handle("/debug/vars", expvar.Handler())
	mux.HandleFunc("/debug/routes", func(w http.ResponseWriter, req *http.Request) {
		res, err := env.DispatchWait(func(s *state.State) (any, error) {
			return s.StringRoutes(), nil
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(res.(string)))
	})

	ln, err := net.Listen("tcp", s.DebugAddr)
	if err != nil {
		return err
	}
	st.Addr = ln.Addr()
	st.srv = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.Log.Info("serving debug endpoints", "addr", ln.Addr())
	go func() {
		err := st.srv.Serve(ln)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			env.Log.Error("debug server stopped", "error", err)
		}
	}()
	return nil
}

func (st *Status) Cleanup(s *state.State) error {
	if st.srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	return st.srv.Shutdown(ctx)
}
