package device

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Tracer receives enter/exit notifications around setup phases. It never
// sees numerical data.
type Tracer interface {
	Enter(phase string)
	Exit(phase string)
}

// Trace calls Enter and returns the matching Exit, for use with defer:
//
//	defer device.Trace(backend.Tracer(), "pa.domain.setup")()
func Trace(tr Tracer, phase string) func() {
	tr.Enter(phase)
	return func() { tr.Exit(phase) }
}

type NopTracer struct{}

func (NopTracer) Enter(string) {}
func (NopTracer) Exit(string)  {}

// ZapTracer logs every phase with its wall time at debug level
type ZapTracer struct {
	Logger *zap.Logger

	mu     sync.Mutex
	starts map[string][]time.Time
}

func NewZapTracer(logger *zap.Logger) *ZapTracer {
	return &ZapTracer{Logger: logger, starts: make(map[string][]time.Time)}
}

func (zt *ZapTracer) Enter(phase string) {
	zt.mu.Lock()
	zt.starts[phase] = append(zt.starts[phase], time.Now())
	zt.mu.Unlock()
	zt.Logger.Debug("enter", zap.String("phase", phase))
}

func (zt *ZapTracer) Exit(phase string) {
	zt.mu.Lock()
	stack := zt.starts[phase]
	var elapsed time.Duration
	if n := len(stack); n > 0 {
		elapsed = time.Since(stack[n-1])
		zt.starts[phase] = stack[:n-1]
	}
	zt.mu.Unlock()
	zt.Logger.Debug("exit", zap.String("phase", phase), zap.Duration("elapsed", elapsed))
}

// RecordingTracer keeps the sequence of events, mainly for tests
type RecordingTracer struct {
	mu     sync.Mutex
	Events []string
}

func (rt *RecordingTracer) Enter(phase string) {
	rt.mu.Lock()
	rt.Events = append(rt.Events, "enter "+phase)
	rt.mu.Unlock()
}

func (rt *RecordingTracer) Exit(phase string) {
	rt.mu.Lock()
	rt.Events = append(rt.Events, "exit "+phase)
	rt.mu.Unlock()
}
