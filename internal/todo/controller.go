// Package todo mediates every change to a todo's completion state.
//
// Checking a pending todo does not complete it. It starts a grace window;
// only when the window elapses uncancelled is the completion written to the
// store. Unchecking during the window cancels it without any write. A
// completed todo can only return to pending through Restore.
package todo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/kimhsiao/fragmind/internal/db"
	apperrors "github.com/kimhsiao/fragmind/internal/errors"
	"github.com/kimhsiao/fragmind/internal/logging"
	"github.com/kimhsiao/fragmind/internal/metrics"
	"github.com/kimhsiao/fragmind/internal/models"
)

// GracePeriod is how long a checked todo waits before it is committed.
const GracePeriod = 10 * time.Second

// State is the lifecycle state of a todo.
type State int

const (
	StatePending State = iota
	// StateAwaitingCommit exists only in memory.
	StateAwaitingCommit
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateAwaitingCommit:
		return "awaiting_commit"
	case StateCompleted:
		return "completed"
	}
	return "unknown"
}

var (
	// ErrReopenViaToggle is returned when a completed todo is unchecked.
	ErrReopenViaToggle = apperrors.New(apperrors.ErrInvalidTransition, "completed todo cannot be unchecked; restore it instead")
	// ErrStopped is returned after Shutdown.
	ErrStopped = apperrors.New(apperrors.ErrInternal, "todo controller stopped")
)

// ToggleResult reports the state after a checkbox change.
type ToggleResult struct {
	ID    string
	State State
	// SnapBack asks the caller to re-render the checkbox as checked because
	// the requested transition was refused.
	SnapBack bool
	// Item is the stored todo as read during the toggle, if it was read.
	Item *models.TodoItem
}

// Timer is a scheduled callback that can be stopped.
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

type countdown struct {
	token     uint64
	timer     Timer
	startedAt time.Time
}

// Controller owns the per-todo countdowns.
type Controller struct {
	store db.TodoCompletionStore
	sched Scheduler
	now   func() time.Time
	grace time.Duration
	log   *logging.Logger

	// mu serializes countdown bookkeeping with the commit write so that a
	// cancel either removes the countdown first or sees the committed row.
	mu         sync.Mutex
	countdowns map[string]*countdown
	seq        uint64
	stopped    bool

	obsMu       sync.RWMutex
	onCommit    []func(models.TodoItem)
	onCommitErr []func(id string, err error)
}

// Option customizes a Controller.
type Option func(*Controller)

// WithScheduler replaces the timer source.
func WithScheduler(s Scheduler) Option {
	return func(c *Controller) { c.sched = s }
}

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithGracePeriod overrides GracePeriod.
func WithGracePeriod(d time.Duration) Option {
	return func(c *Controller) { c.grace = d }
}

// WithLogger replaces the logger.
func WithLogger(l *logging.Logger) Option {
	return func(c *Controller) { c.log = l }
}

// NewController creates a controller over store.
func NewController(store db.TodoCompletionStore, opts ...Option) *Controller {
	c := &Controller{
		store:      store,
		sched:      realScheduler{},
		now:        time.Now,
		grace:      GracePeriod,
		log:        logging.Get().Named("todo"),
		countdowns: make(map[string]*countdown),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OnCommit registers fn to run after a completion is written.
func (c *Controller) OnCommit(fn func(models.TodoItem)) {
	c.obsMu.Lock()
	c.onCommit = append(c.onCommit, fn)
	c.obsMu.Unlock()
}

// OnCommitError registers fn to run when a completion write fails.
func (c *Controller) OnCommitError(fn func(id string, err error)) {
	c.obsMu.Lock()
	c.onCommitErr = append(c.onCommitErr, fn)
	c.obsMu.Unlock()
}

// Toggle applies a checkbox change to todo id.
func (c *Controller) Toggle(ctx context.Context, id string, checked bool) (ToggleResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopped {
		return ToggleResult{ID: id}, ErrStopped
	}

	if _, ok := c.countdowns[id]; ok {
		if checked {
			c.startLocked(id)
			return ToggleResult{ID: id, State: StateAwaitingCommit}, nil
		}
		c.cancelLocked(id)
		metrics.RecordGraceEvent(metrics.GraceCancelled)
		c.log.Debug("todo completion cancelled", map[string]interface{}{"todo_id": id})
		return ToggleResult{ID: id, State: StatePending}, nil
	}

	item, err := c.store.GetTodo(ctx, id)
	if err != nil {
		return ToggleResult{ID: id}, err
	}

	switch {
	case item.Completed && checked:
		return ToggleResult{ID: id, State: StateCompleted, Item: item}, nil
	case item.Completed:
		metrics.RecordGraceEvent(metrics.GraceRejected)
		return ToggleResult{ID: id, State: StateCompleted, SnapBack: true, Item: item}, ErrReopenViaToggle
	case checked:
		c.startLocked(id)
		return ToggleResult{ID: id, State: StateAwaitingCommit, Item: item}, nil
	default:
		return ToggleResult{ID: id, State: StatePending, Item: item}, nil
	}
}

// startLocked starts (or restarts) the countdown for id.
func (c *Controller) startLocked(id string) {
	if old, ok := c.countdowns[id]; ok {
		old.timer.Stop()
	}
	c.seq++
	token := c.seq
	cd := &countdown{token: token, startedAt: c.now()}
	cd.timer = c.sched.AfterFunc(c.grace, func() { c.fire(id, token) })
	c.countdowns[id] = cd

	metrics.RecordGraceEvent(metrics.GraceStarted)
	c.log.Debug("todo completion pending", map[string]interface{}{
		"todo_id":    id,
		"grace_secs": c.grace.Seconds(),
	})
}

func (c *Controller) cancelLocked(id string) bool {
	cd, ok := c.countdowns[id]
	if !ok {
		return false
	}
	cd.timer.Stop()
	delete(c.countdowns, id)
	return true
}

// fire commits id if its countdown is still the one identified by token.
func (c *Controller) fire(id string, token uint64) {
	c.mu.Lock()
	cd, ok := c.countdowns[id]
	if !ok || cd.token != token {
		c.mu.Unlock()
		return
	}
	delete(c.countdowns, id)

	at := c.now()
	if at.Before(cd.startedAt) {
		at = cd.startedAt
	}
	item, err := c.store.SetTodoCompletion(context.Background(), id, true, at)
	c.mu.Unlock()

	if err != nil {
		metrics.RecordGraceEvent(metrics.GraceCommitFailed)
		c.log.Error("todo completion commit failed", err, map[string]interface{}{"todo_id": id})
		c.obsMu.RLock()
		handlers := c.onCommitErr
		c.obsMu.RUnlock()
		for _, fn := range handlers {
			fn(id, err)
		}
		return
	}

	metrics.RecordGraceEvent(metrics.GraceCommitted)
	c.log.Info("todo completed", map[string]interface{}{"todo_id": id})
	c.obsMu.RLock()
	handlers := c.onCommit
	c.obsMu.RUnlock()
	for _, fn := range handlers {
		fn(*item)
	}
}

// Restore returns a completed todo to pending. Restoring a todo that is not
// completed changes nothing.
func (c *Controller) Restore(ctx context.Context, id string) (*models.TodoItem, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, err := c.store.GetTodo(ctx, id)
	if err != nil {
		return nil, err
	}
	if !item.Completed {
		return item, nil
	}

	item, err = c.store.SetTodoCompletion(ctx, id, false, c.now())
	if err != nil {
		return nil, err
	}
	metrics.RecordGraceEvent(metrics.GraceRestored)
	c.log.Info("todo restored", map[string]interface{}{"todo_id": id})
	return item, nil
}

// State returns the lifecycle state of id.
func (c *Controller) State(ctx context.Context, id string) (State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.countdowns[id]; ok {
		return StateAwaitingCommit, nil
	}
	item, err := c.store.GetTodo(ctx, id)
	if err != nil {
		return StatePending, err
	}
	if item.Completed {
		return StateCompleted, nil
	}
	return StatePending, nil
}

// AwaitingCommit returns the ids inside their grace window, sorted.
func (c *Controller) AwaitingCommit() []string {
	c.mu.Lock()
	ids := make([]string, 0, len(c.countdowns))
	for id := range c.countdowns {
		ids = append(ids, id)
	}
	c.mu.Unlock()
	sort.Strings(ids)
	return ids
}

// Delete cancels any countdown for id and removes the todo.
func (c *Controller) Delete(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancelLocked(id) {
		metrics.RecordGraceEvent(metrics.GraceCancelled)
	}
	return c.store.DeleteTodo(ctx, id)
}

// Shutdown drops every countdown without committing. Todos inside their
// grace window stay pending.
func (c *Controller) Shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for id := range c.countdowns {
		c.cancelLocked(id)
	}
	c.stopped = true
}
