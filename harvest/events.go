package harvest

import "log/slog"

// Events receives the pipeline's diagnostic signals. Implementations must
// not block.
type Events interface {
	LoginStep(rec StepRecord)
	LoginFailed(step LoginStep, reason string, cause error)
	Unreachable(handle, marker string)
	Stall(attempt int, height float64)
	Progress(collected, target int)
}

// LogEvents writes events to a slog.Logger.
type LogEvents struct {
	Log *slog.Logger
}

// NewLogEvents returns LogEvents on l, or on slog.Default() when l is nil.
func NewLogEvents(l *slog.Logger) *LogEvents {
	if l == nil {
		l = slog.Default()
	}
	return &LogEvents{Log: l}
}

func (e *LogEvents) LoginStep(rec StepRecord) {
	e.Log.Debug("login step",
		"step", rec.Step.String(),
		"strategy", rec.Strategy,
		"skipped", rec.Skipped,
	)
}

func (e *LogEvents) LoginFailed(step LoginStep, reason string, cause error) {
	attrs := []any{"step", step.String(), "reason", reason}
	if cause != nil {
		attrs = append(attrs, "error", cause)
	}
	e.Log.Warn("login failed", attrs...)
}

func (e *LogEvents) Unreachable(handle, marker string) {
	e.Log.Info("target not accessible", "handle", handle, "marker", marker)
}

func (e *LogEvents) Stall(attempt int, height float64) {
	e.Log.Debug("scroll produced no new content", "attempt", attempt, "height", height)
}

func (e *LogEvents) Progress(collected, target int) {
	e.Log.Debug("collection progress", "collected", collected, "target", target)
}
