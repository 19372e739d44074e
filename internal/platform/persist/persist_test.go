package persist

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rendang96/MixCore-sub002/internal/platform/apperr"
	"github.com/Rendang96/MixCore-sub002/internal/platform/events"
	"github.com/Rendang96/MixCore-sub002/internal/platform/kvstore"
)

type widget struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func widgetID(w widget) string { return w.ID }

// failingStore fails every write.
type failingStore struct {
	*kvstore.Memory
}

func (failingStore) Set(context.Context, string, []byte) error { return errors.New("disk full") }
func (failingStore) Delete(context.Context, string) error      { return errors.New("disk full") }

func newAdapter(t *testing.T) (*Adapter[widget], *events.Bus, *[]events.Event) {
	t.Helper()
	bus := events.NewBus(zerolog.Nop())
	var got []events.Event
	bus.Subscribe("widget", func(_ context.Context, e events.Event) { got = append(got, e) })
	return New[widget](kvstore.NewMemory(), bus, "widget", widgetID), bus, &got
}

func TestAdapter_SaveLoad(t *testing.T) {
	a, _, got := newAdapter(t)
	ctx := context.Background()

	require.NoError(t, a.Save(ctx, widget{ID: "w1", Name: "A"}))
	w, err := a.Load(ctx, "w1")
	require.NoError(t, err)
	assert.Equal(t, widget{ID: "w1", Name: "A"}, w)

	require.Len(t, *got, 1)
	assert.Equal(t, events.ChangeSaved, (*got)[0].Type)
	assert.Equal(t, "w1", (*got)[0].ResourceID)
}

func TestAdapter_LoadMissing(t *testing.T) {
	a, _, _ := newAdapter(t)
	_, err := a.Load(context.Background(), "nope")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestAdapter_SaveRequiresID(t *testing.T) {
	a, _, got := newAdapter(t)
	err := a.Save(context.Background(), widget{Name: "no id"})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Empty(t, *got)
}

func TestAdapter_Remove(t *testing.T) {
	a, _, got := newAdapter(t)
	ctx := context.Background()
	require.NoError(t, a.Save(ctx, widget{ID: "w1"}))
	require.NoError(t, a.Remove(ctx, "w1"))

	_, err := a.Load(ctx, "w1")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.ErrorIs(t, a.Remove(ctx, "w1"), apperr.ErrNotFound)

	require.Len(t, *got, 2)
	assert.Equal(t, events.ChangeRemoved, (*got)[1].Type)
}

func TestAdapter_PersistenceFailureDoesNotNotify(t *testing.T) {
	bus := events.NewBus(zerolog.Nop())
	notified := false
	bus.Subscribe(events.AllTopics, func(context.Context, events.Event) { notified = true })
	a := New[widget](failingStore{kvstore.NewMemory()}, bus, "widget", widgetID)

	err := a.Save(context.Background(), widget{ID: "w1"})
	assert.ErrorIs(t, err, apperr.ErrPersistence)
	assert.False(t, notified)
}

func TestAdapter_CancelledLoad(t *testing.T) {
	a, _, _ := newAdapter(t)
	require.NoError(t, a.Save(context.Background(), widget{ID: "w1"}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := a.Load(ctx, "w1")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAdapter_ListSkipsSubDocuments(t *testing.T) {
	store := kvstore.NewMemory()
	a := New[widget](store, nil, "widget", widgetID)
	ctx := context.Background()
	require.NoError(t, a.Save(ctx, widget{ID: "b"}))
	require.NoError(t, a.Save(ctx, widget{ID: "a"}))
	require.NoError(t, store.Set(ctx, "widget:a:rule", []byte(`{"x":1}`)))
	require.NoError(t, store.Set(ctx, "widget:broken", []byte(`not json`)))

	list, err := a.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].ID)
	assert.Equal(t, "b", list[1].ID)
}

func TestAdapter_AfterLoad(t *testing.T) {
	a := New[widget](kvstore.NewMemory(), nil, "widget", widgetID,
		WithAfterLoad(func(_ context.Context, w widget) (widget, error) {
			w.Name = strings.ToUpper(w.Name)
			return w, nil
		}))
	ctx := context.Background()
	require.NoError(t, a.Save(ctx, widget{ID: "w1", Name: "abc"}))
	w, err := a.Load(ctx, "w1")
	require.NoError(t, err)
	assert.Equal(t, "ABC", w.Name)
}

func TestAdapter_NextSequence(t *testing.T) {
	a, _, _ := newAdapter(t)
	n1, err := a.NextSequence(context.Background())
	require.NoError(t, err)
	n2, _ := a.NextSequence(context.Background())
	assert.Equal(t, n1+1, n2)
}

func TestDocument(t *testing.T) {
	bus := events.NewBus(zerolog.Nop())
	var got []events.Event
	bus.Subscribe("config", func(_ context.Context, e events.Event) { got = append(got, e) })
	d := NewDocument[[]widget](kvstore.NewMemory(), bus, "config", "configs")
	ctx := context.Background()

	_, err := d.Load(ctx)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	def, err := d.LoadOr(ctx, []widget{})
	require.NoError(t, err)
	assert.Empty(t, def)

	require.NoError(t, d.Save(ctx, []widget{{ID: "a"}}))
	v, err := d.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []widget{{ID: "a"}}, v)

	require.NoError(t, d.Remove(ctx))
	require.Len(t, got, 2)
	assert.Equal(t, "configs", got[0].ResourceID)
}
