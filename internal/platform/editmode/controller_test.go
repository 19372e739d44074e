package editmode

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/Rendang96/MixCore-sub002/internal/platform/apperr"
)

type doc struct {
	Name string
	Tags []string
}

func cloneDoc(d doc) doc {
	d.Tags = append([]string(nil), d.Tags...)
	return d
}

type memSaver struct {
	saved []doc
	err   error
}

func (m *memSaver) Save(_ context.Context, d doc) error {
	if m.err != nil {
		return m.err
	}
	m.saved = append(m.saved, d)
	return nil
}

func TestController_StartsViewing(t *testing.T) {
	c := New(doc{Name: "A"}, cloneDoc, &memSaver{})
	if c.State() != Viewing {
		t.Fatalf("expected viewing, got %s", c.State())
	}
	if _, ok := c.Working(); ok {
		t.Error("expected no working copy")
	}
	if err := c.Mutate(func(d *doc) {}); !errors.Is(err, ErrNotEditing) {
		t.Errorf("expected ErrNotEditing, got %v", err)
	}
	if err := c.Save(context.Background()); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("expected conflict, got %v", err)
	}
}

func TestController_StartEditing(t *testing.T) {
	c := New(doc{Name: "A"}, cloneDoc, &memSaver{}, StartEditing[doc]())
	if c.State() != Editing {
		t.Fatal("expected editing")
	}
	w, ok := c.Working()
	if !ok || w.Name != "A" {
		t.Errorf("unexpected working copy: %+v", w)
	}
}

func TestController_EditIsolation(t *testing.T) {
	c := New(doc{Name: "A", Tags: []string{"x"}}, cloneDoc, &memSaver{})
	c.Begin()
	c.Mutate(func(d *doc) {
		d.Name = "B"
		d.Tags[0] = "changed"
		d.Tags = append(d.Tags, "y")
	})

	committed := c.Committed()
	if committed.Name != "A" || !reflect.DeepEqual(committed.Tags, []string{"x"}) {
		t.Errorf("committed copy changed during edit: %+v", committed)
	}
}

func TestController_CancelRestoresExactly(t *testing.T) {
	orig := doc{Name: "A", Tags: []string{"x", "y"}}
	c := New(orig, cloneDoc, &memSaver{})
	c.Begin()
	c.Mutate(func(d *doc) { d.Name = "B" })
	c.Mutate(func(d *doc) { d.Tags = d.Tags[:1] })
	c.Cancel()

	if c.State() != Viewing {
		t.Error("expected viewing after cancel")
	}
	if got := c.Committed(); !reflect.DeepEqual(got, orig) {
		t.Errorf("expected %+v, got %+v", orig, got)
	}
}

func TestController_Save(t *testing.T) {
	s := &memSaver{}
	c := New(doc{Name: "A"}, cloneDoc, s)
	c.Begin()
	c.Mutate(func(d *doc) { d.Name = "B" })

	if err := c.Save(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.State() != Viewing {
		t.Error("expected viewing after save")
	}
	if c.Committed().Name != "B" {
		t.Errorf("expected committed B, got %s", c.Committed().Name)
	}
	if len(s.saved) != 1 || s.saved[0].Name != "B" {
		t.Errorf("unexpected saves: %+v", s.saved)
	}
}

func TestController_SaveFailureKeepsEditing(t *testing.T) {
	s := &memSaver{err: errors.New("quota exceeded")}
	c := New(doc{Name: "A"}, cloneDoc, s)
	c.Begin()
	c.Mutate(func(d *doc) { d.Name = "B" })

	err := c.Save(context.Background())
	if !errors.Is(err, apperr.ErrPersistence) {
		t.Fatalf("expected persistence failure, got %v", err)
	}
	if c.State() != Editing {
		t.Fatal("expected to remain editing")
	}
	if w, _ := c.Working(); w.Name != "B" {
		t.Errorf("in-progress edits lost: %+v", w)
	}
	if c.Committed().Name != "A" {
		t.Error("committed copy should be untouched")
	}
	if c.LastError() == nil {
		t.Error("expected LastError to be set")
	}

	s.err = nil
	if err := c.Save(context.Background()); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if c.Committed().Name != "B" {
		t.Error("expected B after retry")
	}
}

func TestController_ValidatorBlocksSave(t *testing.T) {
	s := &memSaver{}
	c := New(doc{Name: "A"}, cloneDoc, s, WithValidator(func(d doc) error {
		if d.Name == "" {
			return apperr.Required("name")
		}
		return nil
	}))
	c.Begin()
	c.Mutate(func(d *doc) { d.Name = "" })

	if err := c.Save(context.Background()); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(s.saved) != 0 {
		t.Error("nothing should be persisted")
	}
	if c.State() != Editing {
		t.Error("expected to remain editing")
	}
}

func TestController_BeginTwiceKeepsWorkingCopy(t *testing.T) {
	c := New(doc{Name: "A"}, cloneDoc, &memSaver{})
	c.Begin()
	c.Mutate(func(d *doc) { d.Name = "B" })
	c.Begin()
	if w, _ := c.Working(); w.Name != "B" {
		t.Errorf("expected B, got %s", w.Name)
	}
}

func TestController_WorkingReturnsCopy(t *testing.T) {
	c := New(doc{Name: "A", Tags: []string{"x"}}, cloneDoc, &memSaver{})
	c.Begin()
	w, _ := c.Working()
	w.Tags[0] = "leak"
	again, _ := c.Working()
	if again.Tags[0] != "x" {
		t.Error("Working leaked internal state")
	}
}

func TestController_Refresh(t *testing.T) {
	c := New(doc{Name: "A"}, cloneDoc, &memSaver{})
	c.Begin()
	c.Mutate(func(d *doc) { d.Name = "mine" })
	c.Refresh(doc{Name: "theirs"})

	if c.Committed().Name != "theirs" {
		t.Error("expected refreshed committed copy")
	}
	if w, _ := c.Working(); w.Name != "mine" {
		t.Error("refresh must not touch the working copy")
	}
}

// saverFunc lets a test run code while the controller is saving.
func saverFunc(fn func(doc) error) Saver[doc] {
	return SaverFunc[doc](func(_ context.Context, d doc) error { return fn(d) })
}

func TestController_SaverMayReenter(t *testing.T) {
	var c *Controller[doc]
	c = New(doc{Name: "A"}, cloneDoc, saverFunc(func(d doc) error {
		c.Refresh(d)
		_ = c.State()
		return nil
	}), StartEditing[doc]())
	c.Mutate(func(d *doc) { d.Name = "B" })

	done := make(chan error, 1)
	go func() { done <- c.Save(context.Background()) }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("save: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("save blocked while the saver used the controller")
	}
	if c.Committed().Name != "B" || c.State() != Viewing {
		t.Errorf("unexpected state after save: %s %+v", c.State(), c.Committed())
	}
}

func TestController_OverlappingSaveRejected(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	c := New(doc{Name: "A"}, cloneDoc, saverFunc(func(doc) error {
		close(entered)
		<-release
		return nil
	}), StartEditing[doc]())

	done := make(chan error, 1)
	go func() { done <- c.Save(context.Background()) }()
	<-entered

	if err := c.Save(context.Background()); !errors.Is(err, ErrSaving) {
		t.Errorf("expected ErrSaving, got %v", err)
	}
	if err := c.Mutate(func(d *doc) { d.Name = "late" }); !errors.Is(err, ErrSaving) {
		t.Errorf("expected mutation to be refused while saving, got %v", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first save: %v", err)
	}
	if c.Committed().Name != "A" || c.State() != Viewing {
		t.Errorf("unexpected state after save: %s %+v", c.State(), c.Committed())
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry[doc]("provider")
	s := r.Open("P1", New(doc{}, cloneDoc, &memSaver{}))

	got, err := r.Get(s.ID, "P1")
	if err != nil || got != s {
		t.Fatalf("unexpected: %v %v", got, err)
	}
	if _, err := r.Get(s.ID, "P2"); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("expected conflict, got %v", err)
	}
	if _, err := r.Get("missing", "P1"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
	if n := len(r.ForRecord("P1")); n != 1 {
		t.Errorf("expected 1 session, got %d", n)
	}
	r.Close(s.ID)
	if r.Len() != 0 {
		t.Error("expected empty registry")
	}
}

func TestRegistry_Sweep(t *testing.T) {
	r := NewRegistry[doc]("provider")
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }
	r.Open("P1", New(doc{}, cloneDoc, &memSaver{}))
	now = now.Add(time.Hour)
	fresh := r.Open("P2", New(doc{}, cloneDoc, &memSaver{}))

	if n := r.Sweep(30 * time.Minute); n != 1 {
		t.Errorf("expected 1 swept, got %d", n)
	}
	if _, err := r.Get(fresh.ID, "P2"); err != nil {
		t.Errorf("fresh session should survive: %v", err)
	}
}
