package policy

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Rendang96/MixCore-sub002/internal/domain/setup"
	"github.com/Rendang96/MixCore-sub002/internal/platform/apperr"
	"github.com/Rendang96/MixCore-sub002/internal/platform/events"
	"github.com/Rendang96/MixCore-sub002/internal/platform/kvstore"
	"github.com/Rendang96/MixCore-sub002/internal/platform/persist"
	"github.com/Rendang96/MixCore-sub002/internal/platform/sanitize"
	"github.com/Rendang96/MixCore-sub002/internal/platform/validation"
)

const Kind = "policy"

var createSchema = validation.MustCompile(`{
	"type": "object",
	"required": ["policyNumber", "policyName", "payor"],
	"properties": {
		"policyNumber": {"type": "string", "minLength": 1, "pattern": "\\S"},
		"policyName":   {"type": "string", "minLength": 1, "pattern": "\\S"},
		"payor":        {"type": "string", "minLength": 1, "pattern": "\\S"}
	}
}`)

// ProductLookup finds products whose code or name contains a query.
type ProductLookup interface {
	SearchProducts(q string) []setup.Product
}

// Service serializes writes to policy records so policy numbers stay unique.
type Service struct {
	mu       sync.Mutex
	store    kvstore.Store
	pub      events.Publisher
	records  *persist.Adapter[PolicyRecord]
	products ProductLookup
	logger   zerolog.Logger
	now      func() time.Time
}

func NewService(store kvstore.Store, pub events.Publisher, products ProductLookup, logger zerolog.Logger) *Service {
	return &Service{
		store: store,
		pub:   pub,
		records: persist.New[PolicyRecord](store, pub, Kind,
			func(p PolicyRecord) string { return p.ID },
			persist.WithLogger[PolicyRecord](logger)),
		products: products,
		logger:   logger.With().Str("component", "policy").Logger(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Validate checks the required fields of p.
func Validate(p PolicyRecord) error {
	return createSchema.Validate(p)
}

func trim(p PolicyRecord) PolicyRecord {
	p.PolicyNumber = strings.TrimSpace(p.PolicyNumber)
	p.PolicyName = sanitize.Text(p.PolicyName)
	p.Payor = sanitize.Text(p.Payor)
	p.ProductCode = strings.TrimSpace(p.ProductCode)
	return p
}

// Create stores p under a new id. Policy numbers are unique.
func (s *Service) Create(ctx context.Context, p PolicyRecord) (PolicyRecord, error) {
	p = trim(p)
	if err := Validate(p); err != nil {
		return PolicyRecord{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkNumberFree(ctx, p.PolicyNumber, ""); err != nil {
		return PolicyRecord{}, err
	}
	p.ID = uuid.New().String()
	p.CreatedAt = s.now()
	p.UpdatedAt = p.CreatedAt
	if err := s.records.Save(ctx, p); err != nil {
		return PolicyRecord{}, err
	}
	s.logger.Info().Str("id", p.ID).Str("policy_number", p.PolicyNumber).Msg("policy created")
	return p, nil
}

func (s *Service) checkNumberFree(ctx context.Context, number, exceptID string) error {
	all, err := s.records.List(ctx)
	if err != nil {
		return err
	}
	for _, p := range all {
		if p.ID != exceptID && strings.EqualFold(p.PolicyNumber, number) {
			return apperr.Conflict("policy number " + number + " is already used")
		}
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id string) (PolicyRecord, error) {
	return s.records.Load(ctx, id)
}

// Update decodes patch onto policy id; omitted fields keep their value.
func (s *Service) Update(ctx context.Context, id string, patch []byte) (PolicyRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, err := s.records.Load(ctx, id)
	if err != nil {
		return PolicyRecord{}, err
	}
	next := cur
	if err := json.Unmarshal(patch, &next); err != nil {
		return PolicyRecord{}, &apperr.ValidationError{Fields: []apperr.FieldError{{Field: "body", Message: err.Error()}}}
	}
	next = trim(next)
	next.ID = cur.ID
	next.CreatedAt = cur.CreatedAt
	next.UpdatedAt = s.now()
	if err := Validate(next); err != nil {
		return PolicyRecord{}, err
	}
	if !strings.EqualFold(next.PolicyNumber, cur.PolicyNumber) {
		if err := s.checkNumberFree(ctx, next.PolicyNumber, id); err != nil {
			return PolicyRecord{}, err
		}
	}
	if err := s.records.Save(ctx, next); err != nil {
		return PolicyRecord{}, err
	}
	return next, nil
}

// Delete removes the policy and its sub-documents.
func (s *Service) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.records.Remove(ctx, id); err != nil {
		return err
	}
	for _, doc := range []string{DocRule, DocServiceType, DocContact} {
		if err := s.store.Delete(ctx, subKey(id, doc)); err != nil {
			s.logger.Warn().Err(err).Str("id", id).Str("doc", doc).Msg("sub-document not removed")
		}
	}
	return nil
}

// SearchParams narrows List. Text fields match by substring ignoring case,
// Status matches exactly, and Query matches number, name, payor or product.
type SearchParams struct {
	PolicyNumber string
	PolicyName   string
	Payor        string
	Status       string
	ProductCode  string
	Query        string
}

// List returns the matching policies ordered by policy number.
func (s *Service) List(ctx context.Context, p SearchParams) ([]PolicyRecord, error) {
	all, err := s.records.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]PolicyRecord, 0, len(all))
	for _, r := range all {
		if !contains(r.PolicyNumber, p.PolicyNumber) || !contains(r.PolicyName, p.PolicyName) ||
			!contains(r.Payor, p.Payor) || !contains(r.ProductCode, p.ProductCode) {
			continue
		}
		if p.Status != "" && !strings.EqualFold(r.Status, p.Status) {
			continue
		}
		if p.Query != "" && !contains(r.PolicyNumber, p.Query) && !contains(r.PolicyName, p.Query) &&
			!contains(r.Payor, p.Query) && !contains(r.ProductCode, p.Query) {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PolicyNumber < out[j].PolicyNumber })
	return out, nil
}

func contains(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(strings.TrimSpace(sub)))
}

// Products cross-checks the policy's free-text product code against the
// product list. An empty product code matches nothing.
func (s *Service) Products(ctx context.Context, id string) ([]setup.Product, error) {
	p, err := s.records.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.products.SearchProducts(p.ProductCode), nil
}

func subKey(id, doc string) string {
	return Kind + ":" + id + ":" + doc
}

func document[T any](s *Service, id, doc string) *persist.Document[T] {
	return persist.NewDocument[T](s.store, s.pub, Kind, subKey(id, doc)).WithLogger(s.logger)
}

// loadSub returns the sub-document doc of policy id, or its zero value if
// it was never saved.
func loadSub[T any](ctx context.Context, s *Service, id, doc string) (T, error) {
	var zero T
	if _, err := s.records.Load(ctx, id); err != nil {
		return zero, err
	}
	return document[T](s, id, doc).LoadOr(ctx, zero)
}

func saveSub[T any](ctx context.Context, s *Service, id, doc string, v T) error {
	if _, err := s.records.Load(ctx, id); err != nil {
		return err
	}
	return document[T](s, id, doc).Save(ctx, v)
}

func (s *Service) Rule(ctx context.Context, id string) (Rule, error) {
	r, err := loadSub[Rule](ctx, s, id, DocRule)
	if r.Exclusions == nil {
		r.Exclusions = []string{}
	}
	return r, err
}

func (s *Service) SaveRule(ctx context.Context, id string, r Rule) error {
	r.Remarks = sanitize.Text(r.Remarks)
	return saveSub(ctx, s, id, DocRule, r)
}

func (s *Service) ServiceTypes(ctx context.Context, id string) (ServiceTypes, error) {
	st, err := loadSub[ServiceTypes](ctx, s, id, DocServiceType)
	if st.Entries == nil {
		st.Entries = []ServiceTypeEntry{}
	}
	return st, err
}

func (s *Service) SaveServiceTypes(ctx context.Context, id string, st ServiceTypes) error {
	return saveSub(ctx, s, id, DocServiceType, st)
}

func (s *Service) Contact(ctx context.Context, id string) (ContactInfo, error) {
	c, err := loadSub[ContactInfo](ctx, s, id, DocContact)
	if c.Contacts == nil {
		c.Contacts = []Contact{}
	}
	return c, err
}

func (s *Service) SaveContact(ctx context.Context, id string, c ContactInfo) error {
	var missing []string
	for i, ct := range c.Contacts {
		if strings.TrimSpace(ct.Name) == "" {
			missing = append(missing, "contacts["+strconv.Itoa(i)+"].name")
		}
	}
	if len(missing) > 0 {
		return apperr.Required(missing...)
	}
	c.Remarks = sanitize.Text(c.Remarks)
	return saveSub(ctx, s, id, DocContact, c)
}
