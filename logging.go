package readypoll

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/joeycumines/logiface"
)

// Logger is the structured logger interface the Engine reports lifecycle
// and fault events to: registration/deregistration, quota rejections, and
// harvest faults. It is a thin alias over logiface.Logger[logEvent] rather
// than a bespoke interface, since github.com/joeycumines/logiface is
// already a direct dependency the teacher repo declares for exactly this
// purpose.
type Logger = *logiface.Logger[logEvent]

// engineEvent is the minimal logiface.Event implementation used for every
// log line the Engine emits, mirroring the teacher's testEvent pattern
// (coverage_extra_test.go): a plain field map plus a level, with no
// attempt at zero-allocation field typing, since engine log volume is low
// (lifecycle events, not per-event-record noise).
type engineEvent struct {
	logiface.UnimplementedEvent
	level  logiface.Level
	msg    string
	fields []eventField
}

type eventField struct {
	key string
	val any
}

func (e *engineEvent) Level() logiface.Level { return e.level }

func (e *engineEvent) AddField(key string, val any) {
	e.fields = append(e.fields, eventField{key, val})
}

func (e *engineEvent) AddMessage(msg string) bool {
	e.msg = msg
	return true
}

// engineEventFactory implements logiface.EventFactory[logEvent].
type engineEventFactory struct{}

func (engineEventFactory) NewEvent(level logiface.Level) *engineEvent {
	return &engineEvent{level: level}
}

// textWriter implements logiface.Writer[logEvent], formatting each engineEvent
// as a single human-readable line, in the spirit of the teacher's
// DefaultLogger.logPretty (logging.go) but without the terminal-color
// branch, since this writer is meant for plain log aggregation.
type textWriter struct {
	mu  sync.Mutex
	out io.Writer
}

func (w *textWriter) Write(event *engineEvent) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	fmt.Fprintf(w.out, "[%s] readypoll: %s", event.level, event.msg)
	for _, f := range event.fields {
		fmt.Fprintf(w.out, " %s=%v", f.key, f.val)
	}
	fmt.Fprintln(w.out)
	return nil
}

// NewTextLogger returns a Logger that writes one line per event to out.
func NewTextLogger(out io.Writer, level logiface.Level) Logger {
	return logiface.New[logEvent](
		logiface.WithLevel[logEvent](level),
		logiface.WithEventFactory[logEvent](engineEventFactory{}),
		logiface.WithWriter[logEvent](&textWriter{out: out}),
	)
}

// logEvent is the concrete logiface.Event type used throughout this
// package. Named distinctly from the public Event record type
// (eventmask.go's {Events, Cookie} struct delivered to Wait callers) so the
// two unrelated meanings of "event" in this package — a readiness record
// and a log line — don't collide under one identifier.
type logEvent = *engineEvent

var (
	globalLoggerState struct {
		sync.RWMutex
		logger Logger
	}
)

// SetLogger installs the package-level default Logger new Engines use when
// constructed without WithLogger. Passing nil restores the no-op default.
func SetLogger(logger Logger) {
	globalLoggerState.Lock()
	defer globalLoggerState.Unlock()
	globalLoggerState.logger = logger
}

// globalLogger returns the current package-level default Logger, a no-op
// logger if none has been set.
func globalLogger() Logger {
	globalLoggerState.RLock()
	defer globalLoggerState.RUnlock()
	if globalLoggerState.logger != nil {
		return globalLoggerState.logger
	}
	return noOpLogger
}

// noOpLogger discards every event; it is disabled at construction via
// logiface.WithLevel(LevelDisabled), so no engineEvent is ever allocated
// for it.
var noOpLogger = logiface.New[logEvent](
	logiface.WithLevel[logEvent](logiface.LevelDisabled),
	logiface.WithEventFactory[logEvent](engineEventFactory{}),
	logiface.WithWriter[logEvent](&textWriter{out: os.Stderr}),
)
