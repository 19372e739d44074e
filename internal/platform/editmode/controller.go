// Package editmode holds the view/edit state of one record: a committed
// copy that reflects what is persisted and, while editing, a private
// working copy that all mutations go to.
package editmode

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Rendang96/MixCore-sub002/internal/platform/apperr"
)

// State is the controller's mode.
type State int

const (
	Viewing State = iota
	Editing
)

func (s State) String() string {
	if s == Editing {
		return "editing"
	}
	return "viewing"
}

// ErrNotEditing is returned by operations that need an open working copy.
var ErrNotEditing = fmt.Errorf("not in edit mode: %w", apperr.ErrConflict)

// ErrSaving is returned while a Save of the same controller is in flight.
var ErrSaving = fmt.Errorf("save in progress: %w", apperr.ErrConflict)

// Saver persists a working copy on Save.
type Saver[T any] interface {
	Save(ctx context.Context, rec T) error
}

// SaverFunc adapts a function to Saver.
type SaverFunc[T any] func(ctx context.Context, rec T) error

func (f SaverFunc[T]) Save(ctx context.Context, rec T) error { return f(ctx, rec) }

// Validator checks a working copy before it is persisted.
type Validator[T any] func(rec T) error

// Controller is safe for concurrent use.
type Controller[T any] struct {
	mu        sync.Mutex
	state     State
	committed T
	working   T
	clone     func(T) T
	saver     Saver[T]
	validate  Validator[T]
	lastErr   error
	saving    bool
}

// Option configures a Controller.
type Option[T any] func(*Controller[T])

// StartEditing opens the controller directly in Editing, as when a page is
// reached with an edit navigation flag.
func StartEditing[T any]() Option[T] {
	return func(c *Controller[T]) {
		c.working = c.clone(c.committed)
		c.state = Editing
	}
}

// WithValidator sets the check run before Save persists.
func WithValidator[T any](v Validator[T]) Option[T] {
	return func(c *Controller[T]) { c.validate = v }
}

// New creates a controller in Viewing over committed. clone must return a
// deep copy; it is how edits are kept away from the committed record.
func New[T any](committed T, clone func(T) T, saver Saver[T], opts ...Option[T]) *Controller[T] {
	c := &Controller[T]{
		state:     Viewing,
		committed: clone(committed),
		clone:     clone,
		saver:     saver,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Controller[T]) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Committed returns a copy of the last committed record.
func (c *Controller[T]) Committed() T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.clone(c.committed)
}

// Working returns a copy of the working record, or false in Viewing.
func (c *Controller[T]) Working() (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Editing {
		var zero T
		return zero, false
	}
	return c.clone(c.working), true
}

// LastError is the error of the most recent failed Save, if still editing.
func (c *Controller[T]) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Begin snapshots the committed record into a fresh working copy. Calling
// it while already editing keeps the current working copy.
func (c *Controller[T]) Begin() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Editing {
		return
	}
	c.working = c.clone(c.committed)
	c.state = Editing
	c.lastErr = nil
}

// Mutate applies fn to the working copy.
func (c *Controller[T]) Mutate(fn func(*T)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Editing {
		return ErrNotEditing
	}
	if c.saving {
		return ErrSaving
	}
	fn(&c.working)
	return nil
}

// Save validates and persists the working copy. On success it becomes the
// committed record and the controller returns to Viewing. On failure the
// controller stays in Editing with the working copy intact.
//
// The saver runs without the controller lock held, so it may publish events
// whose handlers Refresh other controllers, or this one.
func (c *Controller[T]) Save(ctx context.Context) error {
	candidate, err := c.beginSave()
	if err != nil {
		return err
	}
	err = c.saver.Save(ctx, candidate)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.saving = false
	if err != nil {
		if !errors.Is(err, apperr.ErrPersistence) && !errors.Is(err, apperr.ErrValidation) {
			err = apperr.Persistence("save working copy", err)
		}
		c.lastErr = err
		return err
	}
	c.committed = candidate
	var zero T
	c.working = zero
	c.state = Viewing
	c.lastErr = nil
	return nil
}

// beginSave validates the working copy and marks the controller as saving.
// It returns the snapshot to persist.
func (c *Controller[T]) beginSave() (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var zero T
	if c.state != Editing {
		return zero, ErrNotEditing
	}
	if c.saving {
		return zero, ErrSaving
	}
	if c.validate != nil {
		if err := c.validate(c.working); err != nil {
			c.lastErr = err
			return zero, err
		}
	}
	c.saving = true
	return c.clone(c.working), nil
}

// Cancel discards the working copy. The committed record is untouched.
func (c *Controller[T]) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	var zero T
	c.working = zero
	c.state = Viewing
	c.lastErr = nil
}

// Refresh replaces the committed record, e.g. after another view saved it.
// A working copy in progress is left alone.
func (c *Controller[T]) Refresh(rec T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.committed = c.clone(rec)
}
