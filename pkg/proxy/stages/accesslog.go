package stages

import (
	"context"
	"log/slog"
	"time"

	"github.com/rpcgate/rpcgate/pkg/batch"
	"github.com/rpcgate/rpcgate/pkg/proxy"
	"github.com/rpcgate/rpcgate/pkg/telemetry/metrics"
)

// AccessEntry is one access log line.
type AccessEntry struct {
	Timestamp time.Time
	IP        string
	Method    string
}

// AccessLogOptions configures the access log stage.
type AccessLogOptions struct {
	FlushInterval time.Duration
	DrainTimeout  time.Duration
	Metrics       *metrics.Collector
	Logger        *slog.Logger
}

// AccessLog records every parsed request and writes the records in batches
// to a dedicated logger.
type AccessLog struct {
	out          *slog.Logger
	batcher      *batch.Batcher[AccessEntry]
	metrics      *metrics.Collector
	drainTimeout time.Duration
}

// NewAccessLog creates the access log stage writing to out. Start must be
// called to begin flushing.
func NewAccessLog(out *slog.Logger, opts AccessLogOptions) *AccessLog {
	s := &AccessLog{
		out:          out,
		metrics:      opts.Metrics,
		drainTimeout: opts.DrainTimeout,
	}
	s.batcher = batch.New(s.write, batch.Options{
		Name:     "access_log",
		Interval: opts.FlushInterval,
		Logger:   opts.Logger,
	})
	return s
}

func (*AccessLog) Name() string { return NameAccessLog }

// Start starts the flush loop.
func (s *AccessLog) Start() {
	s.batcher.Start()
}

// Process implements proxy.Stage.
func (s *AccessLog) Process(_ context.Context, rc *proxy.RequestContext) (bool, error) {
	s.batcher.Add(AccessEntry{
		Timestamp: rc.ReceivedAt,
		IP:        rc.CallerIP,
		Method:    rc.Method(),
	})
	return true, nil
}

// Drain implements proxy.Drainer.
func (s *AccessLog) Drain(ctx context.Context) <-chan struct{} {
	return proxy.PollDrain(ctx, s.batcher.InFlight, proxy.DefaultDrainPollInterval, s.drainTimeout)
}

// Close flushes the remaining entries and stops the flush loop.
func (s *AccessLog) Close() error {
	return s.batcher.Close()
}

func (s *AccessLog) write(ctx context.Context, entries []AccessEntry) error {
	for _, e := range entries {
		s.out.LogAttrs(ctx, slog.LevelInfo, "rpc call",
			slog.Time("timestamp", e.Timestamp),
			slog.String("ip", e.IP),
			slog.String("method", e.Method),
		)
	}
	s.metrics.RecordAccessLogEntries(len(entries))
	return nil
}
