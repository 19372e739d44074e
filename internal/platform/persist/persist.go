// Package persist maps typed records onto a key-value store: one entry per
// record id, a change event on the bus after every successful write.
package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Rendang96/MixCore-sub002/internal/platform/apperr"
	"github.com/Rendang96/MixCore-sub002/internal/platform/events"
	"github.com/Rendang96/MixCore-sub002/internal/platform/kvstore"
)

// Codec turns records into stored bytes and back. Decode is the single
// place where stored shapes are turned into the canonical type.
type Codec[T any] interface {
	Encode(rec T) ([]byte, error)
	Decode(data []byte) (T, error)
}

// JSONCodec is the default Codec.
type JSONCodec[T any] struct{}

func (JSONCodec[T]) Encode(rec T) ([]byte, error) { return json.Marshal(rec) }

func (JSONCodec[T]) Decode(data []byte) (T, error) {
	var rec T
	err := json.Unmarshal(data, &rec)
	return rec, err
}

// Adapter loads, saves and removes records of one kind.
type Adapter[T any] struct {
	store     kvstore.Store
	pub       events.Publisher
	kind      string
	prefix    string
	idOf      func(T) string
	codec     Codec[T]
	afterLoad func(ctx context.Context, rec T) (T, error)
	logger    zerolog.Logger
}

// Option configures an Adapter.
type Option[T any] func(*Adapter[T])

// WithCodec replaces the JSON codec.
func WithCodec[T any](c Codec[T]) Option[T] {
	return func(a *Adapter[T]) { a.codec = c }
}

// WithAfterLoad runs fn on every record returned by Load and List.
func WithAfterLoad[T any](fn func(ctx context.Context, rec T) (T, error)) Option[T] {
	return func(a *Adapter[T]) { a.afterLoad = fn }
}

// WithLogger sets the adapter's logger.
func WithLogger[T any](l zerolog.Logger) Option[T] {
	return func(a *Adapter[T]) { a.logger = l }
}

// New creates an adapter storing records of kind under "<kind>:<id>".
// pub may be nil.
func New[T any](store kvstore.Store, pub events.Publisher, kind string, idOf func(T) string, opts ...Option[T]) *Adapter[T] {
	a := &Adapter[T]{
		store:  store,
		pub:    pub,
		kind:   kind,
		prefix: kind + ":",
		idOf:   idOf,
		codec:  JSONCodec[T]{},
		logger: zerolog.Nop(),
	}
	for _, o := range opts {
		o(a)
	}
	a.logger = a.logger.With().Str("component", "persist").Str("kind", kind).Logger()
	return a
}

// Key returns the store key for id.
func (a *Adapter[T]) Key(id string) string { return a.prefix + id }

// Load returns the record stored under id. A context cancelled while the
// read is in flight discards the result.
func (a *Adapter[T]) Load(ctx context.Context, id string) (T, error) {
	var zero T
	data, err := a.store.Get(ctx, a.Key(id))
	if errors.Is(err, kvstore.ErrNotFound) {
		return zero, apperr.NotFound(a.kind, id)
	}
	if err != nil {
		return zero, apperr.Persistence("load "+a.kind, err)
	}
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	return a.decode(ctx, data)
}

func (a *Adapter[T]) decode(ctx context.Context, data []byte) (T, error) {
	rec, err := a.codec.Decode(data)
	if err != nil {
		return rec, fmt.Errorf("decode %s: %w", a.kind, err)
	}
	if a.afterLoad != nil {
		return a.afterLoad(ctx, rec)
	}
	return rec, nil
}

// Exists reports whether id has an entry.
func (a *Adapter[T]) Exists(ctx context.Context, id string) (bool, error) {
	_, err := a.store.Get(ctx, a.Key(id))
	if errors.Is(err, kvstore.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, apperr.Persistence("load "+a.kind, err)
	}
	return true, nil
}

// List returns every record of this kind ordered by id. Entries that fail to
// decode are logged and skipped.
func (a *Adapter[T]) List(ctx context.Context) ([]T, error) {
	keys, err := a.store.Keys(ctx, a.prefix)
	if err != nil {
		return nil, apperr.Persistence("list "+a.kind, err)
	}
	out := make([]T, 0, len(keys))
	for _, k := range keys {
		// sub-documents live under "<kind>:<id>:<doc>"
		if strings.Contains(k[len(a.prefix):], ":") {
			continue
		}
		data, err := a.store.Get(ctx, k)
		if errors.Is(err, kvstore.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, apperr.Persistence("list "+a.kind, err)
		}
		rec, err := a.decode(ctx, data)
		if err != nil {
			a.logger.Warn().Err(err).Str("key", k).Msg("skipping undecodable entry")
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// Save writes rec and broadcasts a saved event.
func (a *Adapter[T]) Save(ctx context.Context, rec T) error {
	id := a.idOf(rec)
	if id == "" {
		return apperr.Required("id")
	}
	data, err := a.codec.Encode(rec)
	if err != nil {
		return fmt.Errorf("encode %s: %w", a.kind, err)
	}
	if err := a.store.Set(ctx, a.Key(id), data); err != nil {
		return apperr.Persistence("save "+a.kind, err)
	}
	a.publish(ctx, events.ChangeSaved, id, data)
	return nil
}

// Remove deletes id and broadcasts a removed event.
func (a *Adapter[T]) Remove(ctx context.Context, id string) error {
	ok, err := a.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFound(a.kind, id)
	}
	if err := a.store.Delete(ctx, a.Key(id)); err != nil {
		return apperr.Persistence("remove "+a.kind, err)
	}
	a.publish(ctx, events.ChangeRemoved, id, nil)
	return nil
}

// NextSequence returns the next value of this kind's counter.
func (a *Adapter[T]) NextSequence(ctx context.Context) (int64, error) {
	n, err := a.store.Incr(ctx, a.kind)
	if err != nil {
		return 0, apperr.Persistence("sequence "+a.kind, err)
	}
	return n, nil
}

func (a *Adapter[T]) publish(ctx context.Context, t events.ChangeType, id string, data []byte) {
	publish(ctx, a.pub, a.logger, events.Event{
		Type:         t,
		Topic:        a.kind,
		ResourceType: a.kind,
		ResourceID:   id,
		Data:         data,
	})
}

func publish(ctx context.Context, pub events.Publisher, logger zerolog.Logger, e events.Event) {
	if pub == nil {
		return
	}
	if err := pub.Publish(ctx, e); err != nil {
		logger.Warn().Err(err).Str("resource_id", e.ResourceID).Msg("change notification not delivered")
	}
}
