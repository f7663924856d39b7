package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"lead-intake/internal/config"
	"lead-intake/internal/models"
	"lead-intake/internal/util"
)

//go:generate mockgen -destination=mock/mock_service.go -package=mock lead-intake/internal/service RateLimiter,Notifier

// RateLimiter records an attempt for identifier at now and reports whether it is admitted
type RateLimiter interface {
	Record(ctx context.Context, identifier string, now time.Time) (bool, error)
}

// Notifier delivers an accepted lead to its destination with a single call
type Notifier interface {
	Name() string
	Configured() bool
	Send(ctx context.Context, lead *models.Lead) error
}

// Policy holds the product-specific validation limits
type Policy struct {
	PhonePrefix      string
	PhoneDigits      int
	NameMinLength    int
	NameMaxLength    int
	MessageMinLength int
	MessageMaxLength int
}

func PolicyFromConfig(cfg config.ValidationConfig) Policy {
	return Policy{
		PhonePrefix:      cfg.PhonePrefix,
		PhoneDigits:      cfg.PhoneDigits,
		NameMinLength:    cfg.NameMinLength,
		NameMaxLength:    cfg.NameMaxLength,
		MessageMinLength: cfg.MessageMinLength,
		MessageMaxLength: cfg.MessageMaxLength,
	}
}

// PhoneFormatHint renders the expected phone shape, e.g. +998XXXXXXXXX
func (p Policy) PhoneFormatHint() string {
	return p.PhonePrefix + strings.Repeat("X", p.PhoneDigits)
}

// LeadService runs the intake pipeline: rate limit, honeypot, validation, delivery.
// The first failing gate ends the pipeline.
type LeadService struct {
	limiter      RateLimiter
	notifier     Notifier
	policy       Policy
	phonePattern *regexp.Regexp
	logger       *zap.Logger
	now          func() time.Time
}

func NewLeadService(limiter RateLimiter, notifier Notifier, policy Policy, logger *zap.Logger) *LeadService {
	return &LeadService{
		limiter:      limiter,
		notifier:     notifier,
		policy:       policy,
		phonePattern: regexp.MustCompile(`^` + regexp.QuoteMeta(policy.PhonePrefix) + fmt.Sprintf(`[0-9]{%d}$`, policy.PhoneDigits)),
		logger:       logger,
		now:          time.Now,
	}
}

// WithClock replaces the time source
func (s *LeadService) WithClock(now func() time.Time) *LeadService {
	s.now = now
	return s
}

func (s *LeadService) Policy() Policy {
	return s.policy
}

// Submit validates sub from clientID and delivers it. Identical resubmissions
// are delivered again; there is no deduplication.
func (s *LeadService) Submit(ctx context.Context, clientID string, sub *models.Submission) (*models.Lead, error) {
	if clientID == "" {
		clientID = "unknown"
	}
	now := s.now()

	admitted, err := s.limiter.Record(ctx, clientID, now)
	if err != nil {
		// best effort: a broken store must not block leads
		s.logger.Warn("Rate limiter unavailable, admitting request",
			util.String("client_id", clientID),
			util.ErrorField(err),
		)
		admitted = true
	}
	if !admitted {
		s.logger.Info("Lead rejected: rate limit", util.String("client_id", clientID))
		return nil, ErrRateLimited
	}

	lead, err := s.validate(sub)
	if err != nil {
		s.logger.Info("Lead rejected",
			util.String("client_id", clientID),
			util.String("reason", err.Error()),
		)
		return nil, err
	}
	lead.ID = uuid.New()
	lead.ClientID = clientID
	lead.ReceivedAt = now.UTC()

	if !s.notifier.Configured() {
		s.logger.Error("Lead delivery is not configured",
			util.String("backend", s.notifier.Name()),
			util.String("lead_id", lead.ID.String()),
		)
		return nil, ErrNotConfigured
	}

	start := time.Now()
	if err := s.notifier.Send(ctx, lead); err != nil {
		s.logger.Error("Lead delivery failed",
			util.String("backend", s.notifier.Name()),
			util.String("lead_id", lead.ID.String()),
			util.Duration("duration", time.Since(start)),
			util.ErrorField(err),
		)
		return nil, fmt.Errorf("%w: %w", ErrDeliveryFailed, err)
	}

	s.logger.Info("Lead accepted",
		util.String("lead_id", lead.ID.String()),
		util.String("backend", s.notifier.Name()),
		util.String("name", lead.Name),
		util.String("phone", util.MaskPhone(lead.Phone)),
		util.Duration("duration", time.Since(start)),
	)
	return lead, nil
}

// validate applies the honeypot and field gates in order and returns the normalized lead
func (s *LeadService) validate(sub *models.Submission) (*models.Lead, error) {
	if sub == nil {
		return nil, ErrMissingFields
	}

	if sub.Website != "" {
		return nil, ErrSpamDetected
	}

	name := strings.TrimSpace(sub.Name)
	message := strings.TrimSpace(sub.Message)
	phone := util.StripPhoneFormatting(sub.Phone)
	if name == "" || phone == "" || message == "" {
		return nil, ErrMissingFields
	}

	if n := util.CharLen(name); n < s.policy.NameMinLength || n > s.policy.NameMaxLength {
		return nil, ErrInvalidName
	}

	if !s.phonePattern.MatchString(phone) {
		return nil, ErrInvalidPhone
	}

	if n := util.CharLen(message); n < s.policy.MessageMinLength || n > s.policy.MessageMaxLength {
		return nil, ErrInvalidMessage
	}

	return &models.Lead{
		Name:    name,
		Phone:   phone,
		Message: message,
	}, nil
}
