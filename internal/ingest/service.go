package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"telemetry-rx/internal/indicator"
	"telemetry-rx/internal/linesource"
	"telemetry-rx/internal/metrics"
	"telemetry-rx/internal/telemetry"
)

// Options carries the optional collaborators of a Service.
type Options struct {
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
	Indicator indicator.Indicator
}

type Snapshot struct {
	State        string `json:"state"`
	Lines        uint64 `json:"lines"`
	ParseErrors  uint64 `json:"parse_errors"`
	Unrecognized uint64 `json:"unrecognized"`
	Dropped      uint64 `json:"dropped"`
	Pending      string `json:"pending"`
	LastError    string `json:"last_error,omitempty"`
	LastLineUTC  string `json:"last_line_utc,omitempty"`

	Counts telemetry.Counts `json:"counts"`
}

// Service feeds lines from a source through a parser into a store. It is the
// only writer of the store; queries go to the store directly.
type Service struct {
	store  *telemetry.Store
	parser *telemetry.Parser
	logger *slog.Logger
	m      *metrics.Metrics
	led    indicator.Indicator

	mu           sync.Mutex
	state        string
	lines        uint64
	parseErrors  uint64
	unrecognized uint64
	dropped      uint64
	pending      telemetry.JoinState
	lastErr      string
	lastLine     time.Time

	started   bool
	cancel    context.CancelFunc
	closer    io.Closer
	closeOnce sync.Once
	done      chan struct{}
	err       error
}

func New(store *telemetry.Store, opts Options) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("ingest store is nil")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	led := opts.Indicator
	if led == nil {
		led = indicator.Nop{}
	}
	return &Service{
		store:  store,
		parser: telemetry.NewParser(store),
		logger: logger,
		m:      opts.Metrics,
		led:    led,
		state:  "idle",
		done:   make(chan struct{}),
	}, nil
}

// Run reads src until end of stream, a transport failure or ctx is done.
// A clean end of stream returns nil; a transport failure returns a
// *linesource.TransportError.
func (s *Service) Run(ctx context.Context, src linesource.Source) error {
	if src == nil {
		return fmt.Errorf("ingest source is nil")
	}
	s.setState("running", "")

	for {
		if err := ctx.Err(); err != nil {
			s.setState("stopped", "")
			return err
		}

		line, err := src.Next()
		if err != nil {
			if ctx.Err() != nil {
				s.setState("stopped", "")
				return ctx.Err()
			}
			if linesource.IsDroppedLine(err) {
				s.dropLine(err)
				continue
			}
			if errors.Is(err, io.EOF) {
				s.setState("eof", "")
				s.logger.Info("telemetry stream ended", "lines", s.Snapshot().Lines)
				return nil
			}
			var te *linesource.TransportError
			if !errors.As(err, &te) {
				err = &linesource.TransportError{Op: "read", Err: err}
			}
			s.setState("failed", err.Error())
			s.logger.Error("telemetry read stopped", "error", err)
			return err
		}

		s.handle(line)
	}
}

// ResetPending drops a held half-coordinate. It must be called from the
// goroutine running Run, e.g. from a source callback.
func (s *Service) ResetPending() {
	s.parser.Reset()
	s.mu.Lock()
	s.pending = telemetry.StateIdle
	s.mu.Unlock()
	if s.m != nil {
		s.m.PendingJoin.Set(0)
	}
}

func (s *Service) dropLine(err error) {
	s.logger.Warn("dropping oversized line", "error", err)
	s.mu.Lock()
	s.dropped++
	s.lastErr = err.Error()
	s.mu.Unlock()
	if s.m != nil {
		s.m.ParseErrors.WithLabelValues("oversize").Inc()
	}
}

func (s *Service) handle(line string) {
	res := s.parser.Process(line)
	s.logger.Debug("received", "line", line, "kind", res.Kind.String())

	var pe *telemetry.ParseError
	switch {
	case errors.As(res.Err, &pe):
		s.logger.Warn("dropping malformed line", "kind", pe.Kind.String(), "line", pe.Line, "error", pe.Err)
		if s.m != nil {
			s.m.ParseErrors.WithLabelValues(pe.Kind.String()).Inc()
		}
	case res.Err != nil:
		s.logger.Error("store rejected reading", "kind", res.Kind.String(), "error", res.Err)
	case res.Kind == telemetry.KindUnrecognized:
		s.logger.Info("unknown data", "line", line)
	case res.Joined != nil:
		s.logger.Debug("added coordinate", "coordinate", res.Joined.String())
		if err := s.led.Toggle(); err != nil {
			s.logger.Debug("indicator toggle failed", "error", err)
		}
	}

	state := s.parser.State()
	s.mu.Lock()
	s.lines++
	if pe != nil {
		s.parseErrors++
		s.lastErr = res.Err.Error()
	}
	if res.Kind == telemetry.KindUnrecognized {
		s.unrecognized++
	}
	s.pending = state
	s.lastLine = time.Now().UTC()
	s.mu.Unlock()

	if s.m != nil {
		s.m.Lines.WithLabelValues(res.Kind.String()).Inc()
		if res.Joined != nil {
			s.m.Coordinates.Inc()
		}
		if state == telemetry.StateIdle {
			s.m.PendingJoin.Set(0)
		} else {
			s.m.PendingJoin.Set(1)
		}
	}
}

// Start runs Run in the background. If src is an io.Closer, Close closes it
// to interrupt a blocked read.
func (s *Service) Start(ctx context.Context, src linesource.Source) error {
	if s == nil {
		return fmt.Errorf("ingest service is nil")
	}
	if ctx == nil {
		return fmt.Errorf("ctx is nil")
	}
	if src == nil {
		return fmt.Errorf("ingest source is nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return fmt.Errorf("ingest service already started")
	}
	s.started = true

	childCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	if c, ok := src.(io.Closer); ok {
		s.closer = c
	}

	go func() {
		defer close(s.done)
		err := s.Run(childCtx, src)
		s.mu.Lock()
		s.err = err
		s.mu.Unlock()
	}()
	return nil
}

// Done is closed when a started Service stops reading.
func (s *Service) Done() <-chan struct{} { return s.done }

// Err reports why a started Service stopped. It is nil for end of stream.
func (s *Service) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Service) Close() {
	if s == nil {
		return
	}
	s.closeOnce.Do(func() {
		s.mu.Lock()
		started := s.started
		cancel := s.cancel
		closer := s.closer
		s.mu.Unlock()

		if cancel != nil {
			cancel()
		}
		if closer != nil {
			if err := closer.Close(); err != nil {
				s.logger.Debug("source close failed", "error", err)
			}
		}
		if started {
			<-s.done
		}
		if err := s.led.Close(); err != nil {
			s.logger.Debug("indicator close failed", "error", err)
		}
	})
}

func (s *Service) Snapshot() Snapshot {
	if s == nil {
		return Snapshot{}
	}
	s.mu.Lock()
	out := Snapshot{
		State:        s.state,
		Lines:        s.lines,
		ParseErrors:  s.parseErrors,
		Unrecognized: s.unrecognized,
		Dropped:      s.dropped,
		Pending:      s.pending.String(),
		LastError:    s.lastErr,
	}
	if !s.lastLine.IsZero() {
		out.LastLineUTC = s.lastLine.Format(time.RFC3339Nano)
	}
	s.mu.Unlock()
	out.Counts = s.store.Counts()
	return out
}

func (s *Service) setState(state, lastErr string) {
	s.mu.Lock()
	s.state = state
	if lastErr != "" {
		s.lastErr = lastErr
	}
	s.mu.Unlock()
}
