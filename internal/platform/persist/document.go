package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Rendang96/MixCore-sub002/internal/platform/apperr"
	"github.com/Rendang96/MixCore-sub002/internal/platform/events"
	"github.com/Rendang96/MixCore-sub002/internal/platform/kvstore"
)

// Document is a single named entry, such as a policy sub-document or the
// list of all panel configurations.
type Document[T any] struct {
	store  kvstore.Store
	pub    events.Publisher
	kind   string
	key    string
	logger zerolog.Logger
}

// NewDocument binds key in store. kind is used as the event topic.
func NewDocument[T any](store kvstore.Store, pub events.Publisher, kind, key string) *Document[T] {
	return &Document[T]{store: store, pub: pub, kind: kind, key: key, logger: zerolog.Nop()}
}

// WithLogger returns d logging to l.
func (d *Document[T]) WithLogger(l zerolog.Logger) *Document[T] {
	d.logger = l.With().Str("component", "persist").Str("key", d.key).Logger()
	return d
}

func (d *Document[T]) Key() string { return d.key }

// Load returns the stored value or an apperr.ErrNotFound error.
func (d *Document[T]) Load(ctx context.Context) (T, error) {
	var v T
	data, err := d.store.Get(ctx, d.key)
	if errors.Is(err, kvstore.ErrNotFound) {
		return v, apperr.NotFound(d.kind, d.key)
	}
	if err != nil {
		return v, apperr.Persistence("load "+d.key, err)
	}
	if err := ctx.Err(); err != nil {
		return v, err
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("decode %s: %w", d.key, err)
	}
	return v, nil
}

// LoadOr returns the stored value, or def when the key is absent.
func (d *Document[T]) LoadOr(ctx context.Context, def T) (T, error) {
	v, err := d.Load(ctx)
	if errors.Is(err, apperr.ErrNotFound) {
		return def, nil
	}
	return v, err
}

// Save writes v and broadcasts a saved event.
func (d *Document[T]) Save(ctx context.Context, v T) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", d.key, err)
	}
	if err := d.store.Set(ctx, d.key, data); err != nil {
		return apperr.Persistence("save "+d.key, err)
	}
	publish(ctx, d.pub, d.logger, events.Event{
		Type:         events.ChangeSaved,
		Topic:        d.kind,
		ResourceType: d.kind,
		ResourceID:   d.key,
		Data:         data,
	})
	return nil
}

// Remove deletes the entry; removing an absent entry is not an error.
func (d *Document[T]) Remove(ctx context.Context) error {
	if err := d.store.Delete(ctx, d.key); err != nil {
		return apperr.Persistence("remove "+d.key, err)
	}
	publish(ctx, d.pub, d.logger, events.Event{
		Type:         events.ChangeRemoved,
		Topic:        d.kind,
		ResourceType: d.kind,
		ResourceID:   d.key,
	})
	return nil
}
