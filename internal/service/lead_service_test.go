package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"lead-intake/internal/models"
	"lead-intake/internal/repository/memory"
	"lead-intake/internal/service"
	"lead-intake/internal/service/mock"
)

var defaultPolicy = service.Policy{
	PhonePrefix:      "+998",
	PhoneDigits:      9,
	NameMinLength:    2,
	NameMaxLength:    100,
	MessageMinLength: 5,
	MessageMaxLength: 1000,
}

func validSubmission() *models.Submission {
	return &models.Submission{
		Name:    "Aziz",
		Phone:   "+998 (90) 123-45-67",
		Message: "Landing sahifa kerak",
	}
}

type fixture struct {
	svc      *service.LeadService
	limiter  *mock.MockRateLimiter
	notifier *mock.MockNotifier
}

func newFixture(t *testing.T) *fixture {
	ctrl := gomock.NewController(t)
	limiter := mock.NewMockRateLimiter(ctrl)
	notifier := mock.NewMockNotifier(ctrl)
	notifier.EXPECT().Name().Return("telegram").AnyTimes()

	return &fixture{
		svc:      service.NewLeadService(limiter, notifier, defaultPolicy, zap.NewNop()),
		limiter:  limiter,
		notifier: notifier,
	}
}

func (f *fixture) admitAll() {
	f.limiter.EXPECT().Record(gomock.Any(), gomock.Any(), gomock.Any()).Return(true, nil).AnyTimes()
}

func TestSubmit_Success(t *testing.T) {
	f := newFixture(t)
	f.admitAll()
	f.notifier.EXPECT().Configured().Return(true)

	var sent *models.Lead
	f.notifier.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, lead *models.Lead) error {
		sent = lead
		return nil
	})

	sub := validSubmission()
	sub.Name = "  Aziz  "
	sub.Message = "  Landing sahifa kerak \n"

	lead, err := f.svc.Submit(context.Background(), "203.0.113.5", sub)
	require.NoError(t, err)
	require.Same(t, sent, lead)
	require.Equal(t, "Aziz", lead.Name)
	require.Equal(t, "+998901234567", lead.Phone)
	require.Equal(t, "Landing sahifa kerak", lead.Message)
	require.Equal(t, "203.0.113.5", lead.ClientID)
	require.NotEmpty(t, lead.ID.String())
}

func TestSubmit_RateLimitedStopsPipeline(t *testing.T) {
	f := newFixture(t)
	f.limiter.EXPECT().Record(gomock.Any(), "203.0.113.5", gomock.Any()).Return(false, nil)

	_, err := f.svc.Submit(context.Background(), "203.0.113.5", validSubmission())
	require.ErrorIs(t, err, service.ErrRateLimited)
	require.False(t, errors.Is(err, service.ErrInvalidInput))
}

func TestSubmit_EmptyClientIDIsUnknown(t *testing.T) {
	f := newFixture(t)
	f.limiter.EXPECT().Record(gomock.Any(), "unknown", gomock.Any()).Return(false, nil)

	_, err := f.svc.Submit(context.Background(), "", validSubmission())
	require.ErrorIs(t, err, service.ErrRateLimited)
}

func TestSubmit_LimiterErrorAdmits(t *testing.T) {
	f := newFixture(t)
	f.limiter.EXPECT().Record(gomock.Any(), gomock.Any(), gomock.Any()).Return(false, errors.New("redis down"))
	f.notifier.EXPECT().Configured().Return(true)
	f.notifier.EXPECT().Send(gomock.Any(), gomock.Any()).Return(nil)

	_, err := f.svc.Submit(context.Background(), "ip", validSubmission())
	require.NoError(t, err)
}

func TestSubmit_FourthWithinWindowRejected(t *testing.T) {
	ctrl := gomock.NewController(t)
	notifier := mock.NewMockNotifier(ctrl)
	notifier.EXPECT().Name().Return("telegram").AnyTimes()
	notifier.EXPECT().Configured().Return(true).Times(3)
	notifier.EXPECT().Send(gomock.Any(), gomock.Any()).Return(nil).Times(3)

	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	svc := service.NewLeadService(memory.NewRateLimitStore(time.Minute, 3, 100), notifier, defaultPolicy, zap.NewNop()).
		WithClock(func() time.Time { return now })

	for i := 0; i < 3; i++ {
		_, err := svc.Submit(context.Background(), "ip", validSubmission())
		require.NoError(t, err, "submission %d", i+1)
		now = now.Add(10 * time.Second)
	}

	_, err := svc.Submit(context.Background(), "ip", validSubmission())
	require.ErrorIs(t, err, service.ErrRateLimited)
}

func TestSubmit_InvalidSubmissionsCountTowardsLimit(t *testing.T) {
	ctrl := gomock.NewController(t)
	notifier := mock.NewMockNotifier(ctrl)
	notifier.EXPECT().Name().Return("telegram").AnyTimes()

	svc := service.NewLeadService(memory.NewRateLimitStore(time.Minute, 3, 100), notifier, defaultPolicy, zap.NewNop())

	bad := validSubmission()
	bad.Website = "http://spam.example"
	for i := 0; i < 3; i++ {
		_, err := svc.Submit(context.Background(), "ip", bad)
		require.ErrorIs(t, err, service.ErrSpamDetected)
	}

	_, err := svc.Submit(context.Background(), "ip", validSubmission())
	require.ErrorIs(t, err, service.ErrRateLimited)
}

func TestSubmit_HoneypotAlwaysRejected(t *testing.T) {
	cases := []*models.Submission{
		{Name: "Aziz", Phone: "+998901234567", Message: "Salom dunyo", Website: "x"},
		{Website: "http://bot.example"},
		{Name: "A", Phone: "123", Message: "hi", Website: " "},
	}

	for _, sub := range cases {
		f := newFixture(t)
		f.admitAll()

		_, err := f.svc.Submit(context.Background(), "ip", sub)
		require.ErrorIs(t, err, service.ErrSpamDetected)
		require.ErrorIs(t, err, service.ErrInvalidInput)
	}
}

func TestSubmit_MissingFields(t *testing.T) {
	cases := map[string]*models.Submission{
		"nil":           nil,
		"empty":         {},
		"no name":       {Phone: "+998901234567", Message: "Salom dunyo"},
		"blank name":    {Name: "   ", Phone: "+998901234567", Message: "Salom dunyo"},
		"no phone":      {Name: "Aziz", Message: "Salom dunyo"},
		"blank phone":   {Name: "Aziz", Phone: " - ( ) ", Message: "Salom dunyo"},
		"no message":    {Name: "Aziz", Phone: "+998901234567"},
		"blank message": {Name: "Aziz", Phone: "+998901234567", Message: "\n\t "},
	}

	for name, sub := range cases {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			f.admitAll()

			_, err := f.svc.Submit(context.Background(), "ip", sub)
			require.ErrorIs(t, err, service.ErrMissingFields)
		})
	}
}

func TestSubmit_NameBounds(t *testing.T) {
	cases := []struct {
		name string
		ok   bool
	}{
		{"A", false},
		{"Al", true},
		{" A ", false},
		{"Ли", true},
		{strings.Repeat("n", 100), true},
		{strings.Repeat("n", 101), false},
		{strings.Repeat("ш", 100), true},
	}

	for _, tc := range cases {
		f := newFixture(t)
		f.admitAll()
		if tc.ok {
			f.notifier.EXPECT().Configured().Return(true)
			f.notifier.EXPECT().Send(gomock.Any(), gomock.Any()).Return(nil)
		}

		sub := validSubmission()
		sub.Name = tc.name
		_, err := f.svc.Submit(context.Background(), "ip", sub)
		if tc.ok {
			require.NoError(t, err, "name %q", tc.name)
		} else {
			require.ErrorIs(t, err, service.ErrInvalidName, "name %q", tc.name)
		}
	}
}

func TestSubmit_PhoneFormat(t *testing.T) {
	cases := []struct {
		phone string
		ok    bool
	}{
		{"+998901234567", true},
		{"+998 90 123 45 67", true},
		{"+998 (90) 123-45-67", true},
		{"+99890123456", false},
		{"+9989012345678", false},
		{"998901234567", false},
		{"+997901234567", false},
		{"+99890123456a", false},
		{"+998９01234567", false},
	}

	for _, tc := range cases {
		f := newFixture(t)
		f.admitAll()
		if tc.ok {
			f.notifier.EXPECT().Configured().Return(true)
			f.notifier.EXPECT().Send(gomock.Any(), gomock.Any()).Return(nil)
		}

		sub := validSubmission()
		sub.Phone = tc.phone
		_, err := f.svc.Submit(context.Background(), "ip", sub)
		if tc.ok {
			require.NoError(t, err, "phone %q", tc.phone)
		} else {
			require.ErrorIs(t, err, service.ErrInvalidPhone, "phone %q", tc.phone)
		}
	}
}

func TestSubmit_MessageBounds(t *testing.T) {
	cases := []struct {
		message string
		ok      bool
	}{
		{"abcd", false},
		{"abcde", true},
		{"  abcd  ", false},
		{strings.Repeat("m", 1000), true},
		{strings.Repeat("m", 1001), false},
	}

	for _, tc := range cases {
		f := newFixture(t)
		f.admitAll()
		if tc.ok {
			f.notifier.EXPECT().Configured().Return(true)
			f.notifier.EXPECT().Send(gomock.Any(), gomock.Any()).Return(nil)
		}

		sub := validSubmission()
		sub.Message = tc.message
		_, err := f.svc.Submit(context.Background(), "ip", sub)
		if tc.ok {
			require.NoError(t, err, "message length %d", len(tc.message))
		} else {
			require.ErrorIs(t, err, service.ErrInvalidMessage, "message length %d", len(tc.message))
		}
	}
}

func TestSubmit_NotConfiguredSkipsDelivery(t *testing.T) {
	f := newFixture(t)
	f.admitAll()
	f.notifier.EXPECT().Configured().Return(false)
	f.notifier.EXPECT().Send(gomock.Any(), gomock.Any()).Times(0)

	_, err := f.svc.Submit(context.Background(), "ip", validSubmission())
	require.ErrorIs(t, err, service.ErrNotConfigured)
	require.False(t, errors.Is(err, service.ErrInvalidInput))
}

func TestSubmit_DeliveryFailure(t *testing.T) {
	f := newFixture(t)
	f.admitAll()
	cause := errors.New("telegram api error: chat not found")
	f.notifier.EXPECT().Configured().Return(true)
	f.notifier.EXPECT().Send(gomock.Any(), gomock.Any()).Return(cause)

	_, err := f.svc.Submit(context.Background(), "ip", validSubmission())
	require.ErrorIs(t, err, service.ErrDeliveryFailed)
	require.ErrorIs(t, err, cause)
}

func TestSubmit_NoDeduplication(t *testing.T) {
	f := newFixture(t)
	f.admitAll()
	f.notifier.EXPECT().Configured().Return(true).Times(2)
	f.notifier.EXPECT().Send(gomock.Any(), gomock.Any()).Return(nil).Times(2)

	first, err := f.svc.Submit(context.Background(), "ip", validSubmission())
	require.NoError(t, err)
	second, err := f.svc.Submit(context.Background(), "ip", validSubmission())
	require.NoError(t, err)
	require.NotEqual(t, first.ID, second.ID)
}

func TestSubmit_ConfigurablePhonePolicy(t *testing.T) {
	ctrl := gomock.NewController(t)
	limiter := mock.NewMockRateLimiter(ctrl)
	limiter.EXPECT().Record(gomock.Any(), gomock.Any(), gomock.Any()).Return(true, nil).AnyTimes()
	notifier := mock.NewMockNotifier(ctrl)
	notifier.EXPECT().Name().Return("telegram").AnyTimes()
	notifier.EXPECT().Configured().Return(true).AnyTimes()
	notifier.EXPECT().Send(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	policy := defaultPolicy
	policy.PhonePrefix = "+7"
	policy.PhoneDigits = 10
	svc := service.NewLeadService(limiter, notifier, policy, zap.NewNop())
	require.Equal(t, "+7XXXXXXXXXX", svc.Policy().PhoneFormatHint())

	sub := validSubmission()
	sub.Phone = "+7 (912) 345-67-89"
	_, err := svc.Submit(context.Background(), "ip", sub)
	require.NoError(t, err)

	sub.Phone = "+998901234567"
	_, err = svc.Submit(context.Background(), "ip", sub)
	require.ErrorIs(t, err, service.ErrInvalidPhone)
}
