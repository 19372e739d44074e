package application

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Rendang96/MixCore-sub002/internal/domain/provider"
	"github.com/Rendang96/MixCore-sub002/internal/platform/apperr"
	"github.com/Rendang96/MixCore-sub002/internal/platform/auth"
	"github.com/Rendang96/MixCore-sub002/internal/platform/events"
	"github.com/Rendang96/MixCore-sub002/internal/platform/kvstore"
	"github.com/Rendang96/MixCore-sub002/internal/platform/persist"
	"github.com/Rendang96/MixCore-sub002/internal/platform/sanitize"
	"github.com/Rendang96/MixCore-sub002/internal/platform/validation"
)

const Kind = "application"

var createSchema = validation.MustCompile(`{
	"type": "object",
	"required": ["providerName", "companyRegNo", "email"],
	"properties": {
		"providerName": {"type": "string", "minLength": 1, "pattern": "\\S"},
		"companyRegNo": {"type": "string", "minLength": 1, "pattern": "\\S"},
		"email":        {"type": "string", "minLength": 1, "format": "email"}
	}
}`)

// Providers is the part of the provider service an approval needs.
type Providers interface {
	NextCode(ctx context.Context) (string, error)
	Create(ctx context.Context, raw map[string]any) (provider.ProviderRecord, error)
	SaveRegistration(ctx context.Context, reg provider.Registration) error
}

// Service serializes decisions so an application is decided once.
type Service struct {
	mu        sync.Mutex
	records   *persist.Adapter[Application]
	providers Providers
	logger    zerolog.Logger
	now       func() time.Time
}

func NewService(store kvstore.Store, pub events.Publisher, providers Providers, logger zerolog.Logger) *Service {
	return &Service{
		records: persist.New[Application](store, pub, Kind,
			func(a Application) string { return a.ID },
			persist.WithLogger[Application](logger)),
		providers: providers,
		logger:    logger.With().Str("component", "application").Logger(),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func clean(a Application) Application {
	a.ProviderName = sanitize.Text(a.ProviderName)
	a.CompanyRegNo = strings.TrimSpace(a.CompanyRegNo)
	a.Email = strings.TrimSpace(a.Email)
	a.Address = sanitize.Text(a.Address)
	a.Remarks = sanitize.Text(a.Remarks)
	return a
}

// Submit validates a and stores it as a new submitted application.
func (s *Service) Submit(ctx context.Context, a Application) (Application, error) {
	a = clean(a)
	if err := createSchema.Validate(a); err != nil {
		return Application{}, err
	}
	a.ID = uuid.New().String()
	a.Status = StatusSubmitted
	a.ProviderCode = ""
	a.DecisionNote = ""
	a.DecidedBy = ""
	a.DecidedAt = nil
	a.SubmittedAt = s.now()
	if err := s.records.Save(ctx, a); err != nil {
		return Application{}, err
	}
	s.logger.Info().Str("id", a.ID).Str("provider_name", a.ProviderName).Msg("application submitted")
	return a, nil
}

func (s *Service) Get(ctx context.Context, id string) (Application, error) {
	return s.records.Load(ctx, id)
}

// List returns applications with status (if set) whose name, company
// registration number or email contains q, newest first.
func (s *Service) List(ctx context.Context, status, q string) ([]Application, error) {
	all, err := s.records.List(ctx)
	if err != nil {
		return nil, err
	}
	q = strings.ToLower(strings.TrimSpace(q))
	out := make([]Application, 0, len(all))
	for _, a := range all {
		if status != "" && a.Status != status {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(a.ProviderName), q) &&
			!strings.Contains(strings.ToLower(a.CompanyRegNo), q) &&
			!strings.Contains(strings.ToLower(a.Email), q) {
			continue
		}
		out = append(out, a)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SubmittedAt.After(out[j].SubmittedAt) })
	return out, nil
}

func (s *Service) pending(ctx context.Context, id string) (Application, error) {
	a, err := s.records.Load(ctx, id)
	if err != nil {
		return a, err
	}
	if a.Status != StatusSubmitted {
		return a, apperr.Conflict("application " + id + " is already " + a.Status)
	}
	return a, nil
}

// Approve turns application id into a pending provider. The provider code
// is d.ProviderCode when given, otherwise the next generated code. The code
// is reserved on the application before the provider is created, so a
// retry after a partial failure reuses it instead of creating a second
// provider.
func (s *Service) Approve(ctx context.Context, id string, d Decision) (Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, err := s.pending(ctx, id)
	if err != nil {
		return Application{}, err
	}
	retry := a.ProviderCode != ""
	if !retry {
		code := strings.TrimSpace(d.ProviderCode)
		if code == "" {
			if code, err = s.providers.NextCode(ctx); err != nil {
				return Application{}, err
			}
		}
		a.ProviderCode = code
		if err := s.records.Save(ctx, a); err != nil {
			return Application{}, err
		}
	}

	_, err = s.providers.Create(ctx, providerFields(a, a.ProviderCode))
	switch {
	case err == nil:
	case retry && errors.Is(err, apperr.ErrConflict):
		s.logger.Info().Str("id", a.ID).Str("provider_code", a.ProviderCode).Msg("provider already created by an earlier attempt")
	default:
		if !retry {
			s.release(ctx, a)
		}
		return Application{}, err
	}

	err = s.providers.SaveRegistration(ctx, provider.Registration{
		Code:              a.ProviderCode,
		SSTRegistrationNo: a.SSTRegistrationNo,
		TaxpayerStatus:    a.TaxpayerStatus,
	})
	if err != nil {
		return Application{}, err
	}

	if err := s.decide(ctx, &a, StatusApproved, d.Note); err != nil {
		return Application{}, err
	}
	s.logger.Info().Str("id", a.ID).Str("provider_code", a.ProviderCode).Msg("application approved")
	return a, nil
}

// release drops the code reserved on a when the provider was never created.
func (s *Service) release(ctx context.Context, a Application) {
	a.ProviderCode = ""
	if err := s.records.Save(ctx, a); err != nil {
		s.logger.Warn().Err(err).Str("id", a.ID).Msg("release provider code")
	}
}

// Reject closes application id without creating a provider.
func (s *Service) Reject(ctx context.Context, id string, d Decision) (Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, err := s.pending(ctx, id)
	if err != nil {
		return Application{}, err
	}
	if err := s.decide(ctx, &a, StatusRejected, d.Note); err != nil {
		return Application{}, err
	}
	s.logger.Info().Str("id", a.ID).Msg("application rejected")
	return a, nil
}

func (s *Service) decide(ctx context.Context, a *Application, status, note string) error {
	now := s.now()
	a.Status = status
	a.DecisionNote = sanitize.Text(note)
	a.DecidedBy = auth.UserIDFromContext(ctx)
	a.DecidedAt = &now
	return s.records.Save(ctx, *a)
}

func providerFields(a Application, code string) map[string]any {
	return map[string]any{
		"code":             code,
		"name":             a.ProviderName,
		"providerType":     a.ProviderType,
		"providerCategory": a.ProviderCategory,
		"companyRegNo":     a.CompanyRegNo,
		"sstReg":           a.SSTRegistrationNo,
		"taxpayerStatus":   a.TaxpayerStatus,
		"email":            a.Email,
		"telNumber":        a.TelNumber,
		"address":          a.Address,
		"city":             a.City,
		"state":            a.State,
		"postcode":         a.Postcode,
		"status":           provider.StatusPending,
	}
}
