package datafixer

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/reoring/datafixer/dynamic"
)

// State is the phase of a Migration.
type State int

const (
	StatePending State = iota
	StateApplying
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateApplying:
		return "applying"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Event reports one transition of a Migration. Fix is set when the
// transition follows the application of a fix.
type Event struct {
	Ref     TypeRef
	State   State
	Version int
	Fix     string
	Err     error
}

// Observer receives migration events. It is called synchronously from the
// goroutine running the migration.
type Observer func(Event)

// LogObserver returns an Observer writing every event to logger at debug
// level, and failures at warn level.
func LogObserver(logger *zap.Logger) Observer {
	return func(ev Event) {
		fields := []zap.Field{
			zap.String("ref", string(ev.Ref)),
			zap.Stringer("state", ev.State),
			zap.Int("version", ev.Version),
		}
		if ev.Fix != "" {
			fields = append(fields, zap.String("fix", ev.Fix))
		}
		if ev.Err != nil {
			logger.Warn("migration failed", append(fields, zap.Error(ev.Err))...)
			return
		}
		logger.Debug("migration transition", fields...)
	}
}

// Migration drives one document through the fix chain:
//
//	Pending -> Applying(from) -> Applying(v1) -> ... -> Done | Failed
//
// A Migration runs once; later calls to Run return the recorded outcome.
type Migration struct {
	fixer *Fixer
	ref   TypeRef
	input dynamic.Value
	from  int
	to    int
	stamp bool

	state   State
	version int
	result  dynamic.Value
	err     error
}

func (f *Fixer) newMigration(ref TypeRef, doc dynamic.Value, from, to int, stamp bool) *Migration {
	return &Migration{
		fixer:   f,
		ref:     ref,
		input:   doc,
		from:    from,
		to:      to,
		stamp:   stamp,
		state:   StatePending,
		version: from,
	}
}

// State returns the current phase.
func (m *Migration) State() State { return m.state }

// Version returns the version the document has reached so far.
func (m *Migration) Version() int { return m.version }

// From returns the source version of the document.
func (m *Migration) From() int { return m.from }

// To returns the version the migration aims for.
func (m *Migration) To() int { return m.to }

// Err returns the failure, if any.
func (m *Migration) Err() error { return m.err }

func (m *Migration) transition(s State, fix string) {
	m.state = s
	if m.fixer.observer == nil {
		return
	}
	m.fixer.observer(Event{Ref: m.ref, State: s, Version: m.version, Fix: fix, Err: m.err})
}

func (m *Migration) fail(err error) (dynamic.Value, error) {
	m.err = err
	m.result = m.input
	m.transition(StateFailed, "")
	return m.input, err
}

// Run applies every fix with a version in (from, to] in order. It returns
// the migrated document, or the untouched input together with the error.
func (m *Migration) Run() (dynamic.Value, error) {
	switch m.state {
	case StateDone:
		return m.result, nil
	case StateFailed:
		return m.input, m.err
	}
	f := m.fixer

	if m.from > m.to {
		// Newer than this build understands: leave it as it is.
		f.logger.Warn("document is newer than target version",
			zap.String("ref", string(m.ref)), zap.Int("version", m.from), zap.Int("target", m.to))
		m.result = m.input
		m.transition(StateDone, "")
		return m.result, nil
	}

	in, ok := f.SchemaAt(m.from)
	if !ok {
		it := newIssue(CodeInvalidVersion, map[string]string{"detail": "no schema covers the document version"})
		it.Ref, it.Version = m.ref, m.from
		return m.fail(it)
	}
	if _, ok := in.Resolve(m.ref); !ok {
		it := newIssue(CodeSchemaMismatch, map[string]string{"detail": "reference unknown to " + in.String()})
		it.Ref, it.Version = m.ref, m.from
		return m.fail(it)
	}
	// Tags of the target schema are accepted so already migrated documents
	// can run through the chain again.
	c := checker{s: in, later: f.latest}
	if err := c.conform(RefTo(m.ref), m.input, rootPath, checkInput, ""); err != nil {
		it := err.(Issue)
		if it.Ref == "" {
			it.Ref = m.ref
		}
		if it.Version == 0 {
			it.Version = m.from
		}
		return m.fail(it)
	}

	m.transition(StateApplying, "")
	cur := m.input
	for _, st := range f.stepsBetween(m.from, m.to) {
		for _, p := range st.plans {
			next, err := p.run(m.ref, cur)
			if err != nil {
				return m.fail(err)
			}
			cur = next
		}
		m.version = st.fix.version
		m.transition(StateApplying, st.fix.name)
	}

	m.version = m.to
	if m.stamp {
		cur = cur.Set(f.versionKey, dynamic.Int(int64(m.to)))
	}
	m.result = cur
	m.transition(StateDone, "")
	return cur, nil
}
