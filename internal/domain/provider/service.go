package provider

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Rendang96/MixCore-sub002/internal/platform/apperr"
	"github.com/Rendang96/MixCore-sub002/internal/platform/editmode"
	"github.com/Rendang96/MixCore-sub002/internal/platform/events"
	"github.com/Rendang96/MixCore-sub002/internal/platform/kvstore"
	"github.com/Rendang96/MixCore-sub002/internal/platform/persist"
)

const (
	Kind             = "provider"
	RegistrationKind = "registration"
)

var validStatuses = map[string]bool{
	StatusPending: true, StatusActive: true, StatusSuspended: true,
	StatusTerminated: true, StatusInactive: true,
}

type Service struct {
	createMu sync.Mutex
	records  *persist.Adapter[ProviderRecord]
	regs     *persist.Adapter[Registration]
	sessions *editmode.Registry[ProviderRecord]
	idle     time.Duration
	logger   zerolog.Logger
}

func NewService(store kvstore.Store, pub events.Publisher, logger zerolog.Logger) *Service {
	s := &Service{
		sessions: editmode.NewRegistry[ProviderRecord](Kind),
		idle:     30 * time.Minute,
		logger:   logger.With().Str("component", "provider").Logger(),
	}
	s.regs = persist.New[Registration](store, pub, RegistrationKind,
		func(r Registration) string { return r.Code },
		persist.WithCodec[Registration](registrationCodec{}),
		persist.WithLogger[Registration](logger))
	s.records = persist.New[ProviderRecord](store, pub, Kind,
		func(r ProviderRecord) string { return r.Code },
		persist.WithCodec[ProviderRecord](recordCodec{}),
		persist.WithAfterLoad(s.mergeRegistration),
		persist.WithLogger[ProviderRecord](logger))
	return s
}

// SetSessionIdle sets how long an untouched edit session survives.
func (s *Service) SetSessionIdle(d time.Duration) {
	s.idle = d
}

func (s *Service) mergeRegistration(ctx context.Context, rec ProviderRecord) (ProviderRecord, error) {
	reg, err := s.regs.Load(ctx, rec.Code)
	if errors.Is(err, apperr.ErrNotFound) {
		return rec, nil
	}
	if err != nil {
		return rec, err
	}
	return MergeRegistration(rec, &reg), nil
}

// Validate checks the required top-level fields and the lifecycle status.
func Validate(rec ProviderRecord) error {
	var missing []string
	if strings.TrimSpace(rec.Code) == "" {
		missing = append(missing, "code")
	}
	if strings.TrimSpace(rec.Name) == "" {
		missing = append(missing, "name")
	}
	if len(missing) > 0 {
		return apperr.Required(missing...)
	}
	if st := rec.StatusValue(); st != "" && !validStatuses[st] {
		return invalid("status.status", "must be one of pending, active, suspended, terminated, inactive")
	}
	return nil
}

// Create normalizes raw and stores it as a new provider. A record without
// a status starts as pending.
func (s *Service) Create(ctx context.Context, raw map[string]any) (ProviderRecord, error) {
	rec := Normalize(raw)
	if rec.Status.Status == nil {
		rec.Status.Status = strPtr(StatusPending)
	}
	if err := Validate(rec); err != nil {
		return ProviderRecord{}, err
	}
	s.createMu.Lock()
	defer s.createMu.Unlock()
	exists, err := s.records.Exists(ctx, rec.Code)
	if err != nil {
		return ProviderRecord{}, err
	}
	if exists {
		return ProviderRecord{}, apperr.Conflict("provider " + rec.Code + " already exists")
	}
	if err := s.records.Save(ctx, rec); err != nil {
		return ProviderRecord{}, err
	}
	s.logger.Info().Str("code", rec.Code).Msg("provider created")
	return rec, nil
}

func (s *Service) Get(ctx context.Context, code string) (ProviderRecord, error) {
	return s.records.Load(ctx, code)
}

// NextCode returns a fresh provider code, "P" and a six digit sequence.
func (s *Service) NextCode(ctx context.Context) (string, error) {
	n, err := s.records.NextSequence(ctx)
	if err != nil {
		return "", err
	}
	return formatCode(n), nil
}

func formatCode(n int64) string {
	return fmt.Sprintf("P%06d", n)
}

// SearchParams narrows List. Empty fields match everything.
type SearchParams struct {
	Query        string
	Status       string
	ProviderType string
	PanelGroup   string
	State        string
}

// List returns the providers matching p ordered by code. Query matches
// name, code, alias, city and state, ignoring case.
func (s *Service) List(ctx context.Context, p SearchParams) ([]ProviderRecord, error) {
	all, err := s.records.List(ctx)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(strings.TrimSpace(p.Query))
	out := make([]ProviderRecord, 0, len(all))
	for _, r := range all {
		if p.Status != "" && r.StatusValue() != p.Status {
			continue
		}
		if p.ProviderType != "" && deref(r.ProviderType) != p.ProviderType {
			continue
		}
		if p.PanelGroup != "" && deref(r.PanelGroup) != p.PanelGroup {
			continue
		}
		if p.State != "" && !strings.EqualFold(r.State, p.State) {
			continue
		}
		if q != "" && !matchesQuery(r, q) {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func matchesQuery(r ProviderRecord, q string) bool {
	for _, f := range []string{r.Code, r.Name, r.Alias, r.City, r.State} {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// SaveRegistration writes the registration entry of reg.Code.
func (s *Service) SaveRegistration(ctx context.Context, reg Registration) error {
	return s.regs.Save(ctx, reg)
}

func (s *Service) GetRegistration(ctx context.Context, code string) (Registration, error) {
	reg, err := s.regs.Load(ctx, code)
	if err != nil {
		return reg, err
	}
	if reg.Code == "" {
		reg.Code = code
	}
	return reg, nil
}

type originKey struct{}

// OpenEdit loads code and opens an edit session on it. Idle sessions are
// swept first.
func (s *Service) OpenEdit(ctx context.Context, code string) (*editmode.Session[ProviderRecord], error) {
	if n := s.sessions.Sweep(s.idle); n > 0 {
		s.logger.Debug().Int("count", n).Msg("swept idle edit sessions")
	}
	rec, err := s.records.Load(ctx, code)
	if err != nil {
		return nil, err
	}

	var sid string
	saver := editmode.SaverFunc[ProviderRecord](func(ctx context.Context, rec ProviderRecord) error {
		if rec.Code != code {
			return invalid("code", "is read-only")
		}
		return s.records.Save(context.WithValue(ctx, originKey{}, sid), rec)
	})
	ctrl := editmode.New(rec, ProviderRecord.Clone, saver,
		editmode.StartEditing[ProviderRecord](),
		editmode.WithValidator[ProviderRecord](Validate))
	sess := s.sessions.Open(code, ctrl)
	sid = sess.ID
	return sess, nil
}

// Session returns the open session sid of code.
func (s *Service) Session(code, sid string) (*editmode.Session[ProviderRecord], error) {
	return s.sessions.Get(sid, code)
}

// Patch merges fields into the working copy of session sid. Nested groups
// are merged one level deep; the code cannot be changed.
func (s *Service) Patch(code, sid string, fields map[string]any) (ProviderRecord, error) {
	sess, err := s.sessions.Get(sid, code)
	if err != nil {
		return ProviderRecord{}, err
	}
	err = sess.Controller.Mutate(func(w *ProviderRecord) {
		*w = MergePatch(*w, fields)
	})
	if err != nil {
		return ProviderRecord{}, err
	}
	w, _ := sess.Controller.Working()
	return w, nil
}

// EditList applies a row operation to a list field of the working copy.
func (s *Service) EditList(code, sid, field string, op ListOp) (ProviderRecord, error) {
	sess, err := s.sessions.Get(sid, code)
	if err != nil {
		return ProviderRecord{}, err
	}
	var opErr error
	err = sess.Controller.Mutate(func(w *ProviderRecord) {
		next := w.Clone()
		if opErr = ApplyListOp(&next, field, op); opErr == nil {
			*w = next
		}
	})
	if err != nil {
		return ProviderRecord{}, err
	}
	if opErr != nil {
		return ProviderRecord{}, opErr
	}
	w, _ := sess.Controller.Working()
	return w, nil
}

// SaveEdit commits the working copy of sid. On failure the session stays
// open in edit mode so the caller can retry or cancel.
func (s *Service) SaveEdit(ctx context.Context, code, sid string) (ProviderRecord, error) {
	sess, err := s.sessions.Get(sid, code)
	if err != nil {
		return ProviderRecord{}, err
	}
	if err := sess.Controller.Save(ctx); err != nil {
		s.logger.Warn().Err(err).Str("code", code).Str("session", sid).Msg("save failed, still editing")
		return ProviderRecord{}, err
	}
	s.sessions.Close(sid)
	return sess.Controller.Committed(), nil
}

// CancelEdit discards the working copy of sid and closes the session.
func (s *Service) CancelEdit(code, sid string) (ProviderRecord, error) {
	sess, err := s.sessions.Get(sid, code)
	if err != nil {
		return ProviderRecord{}, err
	}
	sess.Controller.Cancel()
	s.sessions.Close(sid)
	return sess.Controller.Committed(), nil
}

// Watch keeps the committed copy of open sessions current when a provider
// or its registration is written elsewhere. The session whose own save
// caused the event is skipped.
func (s *Service) Watch(bus *events.Bus) []*events.Subscription {
	refresh := func(ctx context.Context, e events.Event) {
		if e.Type != events.ChangeSaved {
			return
		}
		open := s.sessions.ForRecord(e.ResourceID)
		if len(open) == 0 {
			return
		}
		rec, err := s.records.Load(ctx, e.ResourceID)
		if err != nil {
			s.logger.Warn().Err(err).Str("code", e.ResourceID).Msg("refresh after change failed")
			return
		}
		origin, _ := ctx.Value(originKey{}).(string)
		for _, sess := range open {
			if sess.ID != origin {
				sess.Controller.Refresh(rec)
			}
		}
	}
	return []*events.Subscription{
		bus.Subscribe(Kind, refresh),
		bus.Subscribe(RegistrationKind, refresh),
	}
}

// MergePatch overlays fields onto rec and renormalizes. Legacy field names
// in fields are resolved first, so they replace the current value like
// their canonical names do. A nested group in fields is merged key by key
// into the existing group.
func MergePatch(rec ProviderRecord, fields map[string]any) ProviderRecord {
	patch := make(map[string]any, len(fields))
	for k, v := range fields {
		patch[k] = v
	}
	resolveAliases(patch)
	deriveStaffing(patch)

	base := ToMap(rec)
	for k, v := range patch {
		if k == "code" {
			continue
		}
		if sub, ok := v.(map[string]any); ok {
			if cur, ok := base[k].(map[string]any); ok {
				for kk, vv := range sub {
					cur[kk] = vv
				}
				continue
			}
		}
		base[k] = v
	}
	return Normalize(base)
}
