package undo

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/refgraph/internal/logging"
	"github.com/aretw0/refgraph/pkg/domain"
	"github.com/aretw0/refgraph/pkg/ports"
)

// Stack is the undo log of a document. Mutations are recorded only while a
// transaction is open and recording is not suspended; each committed top-level
// transaction becomes one undo step.
type Stack struct {
	ops          []ports.UndoableOperation
	index        int
	cleanIndex   int
	compound     []*compoundOperation
	suspendCount int
	undoing      bool
	redoing      bool
	limit        int
	logger       *slog.Logger
	metrics      *Metrics
}

// Option configures a Stack.
type Option func(*Stack)

// WithLogger sets the logger used for replay failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Stack) {
		s.logger = logger
	}
}

// WithUndoLimit bounds the number of steps kept. A negative limit keeps everything.
func WithUndoLimit(steps int) Option {
	return func(s *Stack) {
		s.limit = steps
	}
}

// WithMetrics attaches prometheus instrumentation.
func WithMetrics(m *Metrics) Option {
	return func(s *Stack) {
		s.metrics = m
	}
}

// New creates an empty stack.
func New(opts ...Option) *Stack {
	s := &Stack{
		index:      -1,
		cleanIndex: -1,
		limit:      -1,
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ ports.UndoRecorder = (*Stack)(nil)

// Logger returns the logger of the stack.
func (s *Stack) Logger() *slog.Logger { return s.logger }

// IsRecording reports whether field mutations should be recorded right now.
func (s *Stack) IsRecording() bool {
	return s.suspendCount == 0 && len(s.compound) > 0
}

func (s *Stack) IsUndoing() bool          { return s.undoing }
func (s *Stack) IsRedoing() bool          { return s.redoing }
func (s *Stack) IsUndoingOrRedoing() bool { return s.undoing || s.redoing }

// Push records op. Outside a transaction the operation becomes a step of its own.
func (s *Stack) Push(op ports.UndoableOperation) {
	s.metrics.operation("push")
	if len(s.compound) > 0 {
		top := s.compound[len(s.compound)-1]
		top.ops = append(top.ops, op)
		return
	}
	s.logger.Debug("Recording operation outside of a transaction", "operation", op.DisplayName())
	s.append(op)
}

// BeginTransaction opens a (possibly nested) compound operation.
func (s *Stack) BeginTransaction(name string) {
	s.compound = append(s.compound, &compoundOperation{name: name})
}

// EndTransaction closes the innermost transaction. With commit, its operations are
// kept: merged into the enclosing transaction, or pushed as a new undo step when
// it was the outermost one. Without commit, they are undone in reverse order and
// discarded.
func (s *Stack) EndTransaction(commit bool) error {
	if len(s.compound) == 0 {
		return domain.ErrNoTransaction
	}
	top := s.compound[len(s.compound)-1]
	s.compound = s.compound[:len(s.compound)-1]

	if !commit {
		s.metrics.transaction("rollback")
		return s.replay(func() error { return top.Undo() }, &s.undoing, "rollback")
	}
	if !top.significant() {
		s.metrics.transaction("empty")
		return nil
	}
	s.metrics.transaction("commit")
	if len(s.compound) > 0 {
		parent := s.compound[len(s.compound)-1]
		parent.ops = append(parent.ops, top)
		return nil
	}
	s.append(top)
	return nil
}

// ResetTransaction undoes everything recorded so far by the innermost transaction
// and keeps it open.
func (s *Stack) ResetTransaction() error {
	if len(s.compound) == 0 {
		return domain.ErrNoTransaction
	}
	top := s.compound[len(s.compound)-1]
	err := s.replay(func() error { return top.Undo() }, &s.undoing, "rollback")
	top.ops = nil
	return err
}

// Transaction runs fn inside a transaction. It commits when fn succeeds and rolls
// back when fn returns an error or panics.
func (s *Stack) Transaction(name string, fn func() error) (err error) {
	s.BeginTransaction(name)
	committed := false
	defer func() {
		if committed {
			return
		}
		if rerr := s.EndTransaction(false); rerr != nil {
			s.logger.Warn("Rollback incomplete", "transaction", name, "error", rerr)
		}
		if r := recover(); r != nil {
			panic(r)
		}
	}()
	if err := fn(); err != nil {
		return err
	}
	committed = true
	return s.EndTransaction(true)
}

// Suspend stops recording until the matching Resume.
func (s *Stack) Suspend() { s.suspendCount++ }

// Resume undoes one Suspend.
func (s *Stack) Resume() {
	if s.suspendCount == 0 {
		s.logger.Warn("Resume called more often than Suspend")
		return
	}
	s.suspendCount--
}

// IsSuspended reports whether recording is suspended.
func (s *Stack) IsSuspended() bool { return s.suspendCount > 0 }

// WithoutRecording runs fn with recording suspended.
func (s *Stack) WithoutRecording(fn func() error) error {
	s.Suspend()
	defer s.Resume()
	return fn()
}

func (s *Stack) CanUndo() bool { return s.index >= 0 }
func (s *Stack) CanRedo() bool { return s.index < len(s.ops)-1 }

// Undo reverts the current step.
func (s *Stack) Undo() error {
	if len(s.compound) > 0 {
		return fmt.Errorf("cannot undo while transaction %q is open", s.compound[len(s.compound)-1].name)
	}
	if !s.CanUndo() {
		return domain.ErrNothingToUndo
	}
	op := s.ops[s.index]
	s.index--
	s.metrics.operation("undo")
	s.metrics.setDepth(s.index + 1)
	return s.replay(op.Undo, &s.undoing, "undo")
}

// Redo re-applies the step after the current one.
func (s *Stack) Redo() error {
	if len(s.compound) > 0 {
		return fmt.Errorf("cannot redo while transaction %q is open", s.compound[len(s.compound)-1].name)
	}
	if !s.CanRedo() {
		return domain.ErrNothingToRedo
	}
	s.index++
	op := s.ops[s.index]
	s.metrics.operation("redo")
	s.metrics.setDepth(s.index + 1)
	return s.replay(op.Redo, &s.redoing, "redo")
}

// UndoText names the step Undo would revert, or "".
func (s *Stack) UndoText() string {
	if !s.CanUndo() {
		return ""
	}
	return s.ops[s.index].DisplayName()
}

// RedoText names the step Redo would re-apply, or "".
func (s *Stack) RedoText() string {
	if !s.CanRedo() {
		return ""
	}
	return s.ops[s.index+1].DisplayName()
}

// Index is the position of the step Undo would revert; -1 when nothing can be undone.
func (s *Stack) Index() int { return s.index }

// Count is the number of steps held, undone ones included.
func (s *Stack) Count() int { return len(s.ops) }

// Depth is the number of steps that can be undone.
func (s *Stack) Depth() int { return s.index + 1 }

// SetClean marks the current position as the saved state.
func (s *Stack) SetClean() { s.cleanIndex = s.index }

// SetDirty forgets the saved state.
func (s *Stack) SetDirty() { s.cleanIndex = -2 }

// IsClean reports whether the current position is the saved state.
func (s *Stack) IsClean() bool { return s.index == s.cleanIndex }

// CleanIndex returns the position marked by SetClean.
func (s *Stack) CleanIndex() int { return s.cleanIndex }

// UndoLimit returns the maximum number of steps kept; negative means unlimited.
func (s *Stack) UndoLimit() int { return s.limit }

// SetUndoLimit changes the maximum number of steps and drops the oldest ones if needed.
func (s *Stack) SetUndoLimit(steps int) {
	s.limit = steps
	s.trim()
}

// Clear drops every step and every open transaction.
func (s *Stack) Clear() {
	s.ops = nil
	s.compound = nil
	s.index = -1
	s.cleanIndex = -1
	s.metrics.setDepth(0)
}

// Entries lists the display names of all steps, oldest first.
func (s *Stack) Entries() []string {
	out := make([]string, len(s.ops))
	for i, op := range s.ops {
		out[i] = op.DisplayName()
	}
	return out
}

func (s *Stack) append(op ports.UndoableOperation) {
	s.ops = append(s.ops[:s.index+1], op)
	s.index++
	if s.cleanIndex > s.index-1 {
		s.cleanIndex = -2
	}
	s.trim()
	s.metrics.setDepth(s.index + 1)
}

func (s *Stack) trim() {
	if s.limit < 0 || len(s.ops) <= s.limit {
		return
	}
	excess := len(s.ops) - s.limit
	s.ops = append([]ports.UndoableOperation(nil), s.ops[excess:]...)
	s.index -= excess
	if s.index < -1 {
		s.index = -1
	}
	if s.cleanIndex >= 0 {
		s.cleanIndex -= excess
		if s.cleanIndex < 0 {
			s.cleanIndex = -2
		}
	}
	s.metrics.setDepth(s.index + 1)
}

// replay runs fn with recording suspended and the given flag raised. Failures are
// logged and returned; they never leave the stack in replay mode.
func (s *Stack) replay(fn func() error, flag *bool, kind string) error {
	start := time.Now()
	s.Suspend()
	*flag = true
	defer func() {
		*flag = false
		s.Resume()
		s.metrics.observeReplay(kind, time.Since(start).Seconds())
	}()
	err := fn()
	if err != nil {
		s.metrics.failure()
		s.logger.Warn("Operation failed during replay", "kind", kind, "error", err)
	}
	return err
}

// compoundOperation groups the operations of one transaction.
type compoundOperation struct {
	name string
	ops  []ports.UndoableOperation
}

func (c *compoundOperation) DisplayName() string { return c.name }

func (c *compoundOperation) significant() bool { return len(c.ops) > 0 }

// Undo reverts the sub-operations newest first. A failing sub-operation does not stop
// the remaining ones.
func (c *compoundOperation) Undo() error {
	var errs []error
	for i := len(c.ops) - 1; i >= 0; i-- {
		if err := c.ops[i].Undo(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", c.ops[i].DisplayName(), err))
		}
	}
	return errors.Join(errs...)
}

// Redo re-applies the sub-operations oldest first.
func (c *compoundOperation) Redo() error {
	var errs []error
	for _, op := range c.ops {
		if err := op.Redo(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", op.DisplayName(), err))
		}
	}
	return errors.Join(errs...)
}
