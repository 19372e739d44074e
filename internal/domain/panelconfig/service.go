package panelconfig

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Rendang96/MixCore-sub002/internal/platform/apperr"
	"github.com/Rendang96/MixCore-sub002/internal/platform/events"
	"github.com/Rendang96/MixCore-sub002/internal/platform/kvstore"
	"github.com/Rendang96/MixCore-sub002/internal/platform/persist"
)

const (
	Kind = "provider-config"
	Key  = "provider-configs"
)

// Service stores every config in one document. Writes are serialized so
// concurrent requests do not lose each other's changes.
type Service struct {
	mu     sync.Mutex
	doc    *persist.Document[[]ProviderConfig]
	logger zerolog.Logger
	now    func() time.Time
}

func NewService(store kvstore.Store, pub events.Publisher, logger zerolog.Logger) *Service {
	return &Service{
		doc:    persist.NewDocument[[]ProviderConfig](store, pub, Kind, Key).WithLogger(logger),
		logger: logger.With().Str("component", "panelconfig").Logger(),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Validate checks the company code and the enumerated fields.
func Validate(c ProviderConfig) error {
	if strings.TrimSpace(c.CompanyCode) == "" {
		return apperr.Required("companyCode")
	}
	var fields []apperr.FieldError
	if !validPanelships[c.Panelship] {
		fields = append(fields, apperr.FieldError{Field: "panelship", Message: "must be one of open_panel, close_panel, select_access, provider_group"})
	}
	if c.RestrictAccess != "" && c.RestrictAccess != "yes" && c.RestrictAccess != "no" {
		fields = append(fields, apperr.FieldError{Field: "restrictAccess", Message: "must be yes or no"})
	}
	if len(fields) > 0 {
		return &apperr.ValidationError{Fields: fields}
	}
	return nil
}

func (s *Service) load(ctx context.Context) ([]ProviderConfig, error) {
	return s.doc.LoadOr(ctx, []ProviderConfig{})
}

func (s *Service) List(ctx context.Context) ([]ProviderConfig, error) {
	return s.load(ctx)
}

func (s *Service) Get(ctx context.Context, id string) (ProviderConfig, error) {
	all, err := s.load(ctx)
	if err != nil {
		return ProviderConfig{}, err
	}
	for _, c := range all {
		if c.ID == id {
			return c, nil
		}
	}
	return ProviderConfig{}, apperr.NotFound(Kind, id)
}

// Create assigns an id and appends c.
func (s *Service) Create(ctx context.Context, c ProviderConfig) (ProviderConfig, error) {
	if err := Validate(c); err != nil {
		return ProviderConfig{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	all, err := s.load(ctx)
	if err != nil {
		return ProviderConfig{}, err
	}
	c.ID = uuid.New().String()
	c.CreatedAt = s.now()
	c.UpdatedAt = c.CreatedAt
	if err := s.doc.Save(ctx, append(all, c)); err != nil {
		return ProviderConfig{}, err
	}
	s.logger.Info().Str("id", c.ID).Str("company", c.CompanyCode).Msg("provider config created")
	return c, nil
}

// Update decodes patch onto the stored config id. Fields absent from the
// patch keep their value, so switching panelship leaves the other provider
// lists in place.
func (s *Service) Update(ctx context.Context, id string, patch []byte) (ProviderConfig, error) {
	return s.modify(ctx, id, func(next *ProviderConfig) error {
		if err := json.Unmarshal(patch, next); err != nil {
			return fmt.Errorf("decode patch: %w", &apperr.ValidationError{
				Fields: []apperr.FieldError{{Field: "body", Message: err.Error()}},
			})
		}
		return nil
	})
}

// ToggleServiceType selects serviceType on config id, or deselects it when
// it is already selected.
func (s *Service) ToggleServiceType(ctx context.Context, id, serviceType string) (ProviderConfig, error) {
	serviceType = strings.TrimSpace(serviceType)
	if serviceType == "" || strings.Contains(serviceType, ",") {
		return ProviderConfig{}, &apperr.ValidationError{
			Fields: []apperr.FieldError{{Field: "serviceType", Message: "must be a single non-empty value"}},
		}
	}
	return s.modify(ctx, id, func(next *ProviderConfig) error {
		next.ToggleServiceType(serviceType)
		return nil
	})
}

// modify applies fn to a copy of config id and stores the result. The id
// and creation time cannot be changed.
func (s *Service) modify(ctx context.Context, id string, fn func(*ProviderConfig) error) (ProviderConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all, err := s.load(ctx)
	if err != nil {
		return ProviderConfig{}, err
	}
	for i, cur := range all {
		if cur.ID != id {
			continue
		}
		next := cur
		if err := fn(&next); err != nil {
			return ProviderConfig{}, err
		}
		next.ID = cur.ID
		next.CreatedAt = cur.CreatedAt
		next.UpdatedAt = s.now()
		if err := Validate(next); err != nil {
			return ProviderConfig{}, err
		}
		all[i] = next
		if err := s.doc.Save(ctx, all); err != nil {
			return ProviderConfig{}, err
		}
		return next, nil
	}
	return ProviderConfig{}, apperr.NotFound(Kind, id)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	all, err := s.load(ctx)
	if err != nil {
		return err
	}
	for i, c := range all {
		if c.ID == id {
			rest := append(all[:i:i], all[i+1:]...)
			return s.doc.Save(ctx, rest)
		}
	}
	return apperr.NotFound(Kind, id)
}

// Display renders the config id.
func (s *Service) Display(ctx context.Context, id string) (Display, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return Display{}, err
	}
	return Render(c), nil
}
