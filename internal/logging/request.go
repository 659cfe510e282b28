package logging

import "time"

// Span traces one operation. Lines written through it carry the span's
// fields, and End reports how long the operation took.
type Span struct {
	*Logger
	op     string
	id     string
	start  time.Time
	budget time.Duration
}

// Begin starts a span for op in category. A non-empty id is attached to
// every line as "req".
func Begin(category Category, op, id string) *Span {
	l := Get(category)
	if id != "" {
		l = l.With("req", id)
	}
	return &Span{Logger: l, op: op, id: id, start: time.Now()}
}

// ID returns the correlation id, empty for local operations.
func (s *Span) ID() string { return s.id }

// Field attaches key=value to the span's later lines.
func (s *Span) Field(key string, value any) *Span {
	s.Logger = s.Logger.With(key, value)
	return s
}

// Budget sets the duration above which End logs at warn level.
func (s *Span) Budget(d time.Duration) *Span {
	s.budget = d
	return s
}

// End logs the elapsed time and, when err is non-nil, the failure.
func (s *Span) End(err error) time.Duration {
	elapsed := time.Since(s.start)
	switch {
	case err != nil:
		s.Warn("%s failed after %v: %v", s.op, elapsed, err)
	case s.budget > 0 && elapsed > s.budget:
		s.Warn("%s took %v (budget %v)", s.op, elapsed, s.budget)
	default:
		s.Debug("%s done in %v", s.op, elapsed)
	}
	return elapsed
}
