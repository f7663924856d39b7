package factory

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"lead-intake/internal/config"
	"lead-intake/internal/handler"
	"lead-intake/internal/repository/memory"
	"lead-intake/internal/util"
)

func testConfig(telegramURL string) *config.Config {
	return &config.Config{
		Environment: "test",
		Server:      config.ServerConfig{MaxBodyBytes: 10 * 1024},
		Telegram: config.TelegramConfig{
			BotToken: "123:abc",
			ChatID:   "-100",
			APIURL:   telegramURL,
			Timeout:  time.Second,
		},
		RateLimit: config.RateLimitConfig{
			Backend:        config.RateLimitBackendMemory,
			Window:         time.Minute,
			MaxRequests:    3,
			SweepInterval:  time.Minute,
			MaxIdentifiers: 100,
		},
		Validation: config.ValidationConfig{
			PhonePrefix:      "+998",
			PhoneDigits:      9,
			NameMinLength:    2,
			NameMaxLength:    100,
			MessageMinLength: 5,
			MessageMaxLength: 1000,
		},
		Delivery: config.DeliveryConfig{Backend: config.DeliveryBackendTelegram},
	}
}

func TestFactory_DefaultWiring(t *testing.T) {
	util.Set(zap.NewNop())

	var sent int
	tg := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/bot123:abc/sendMessage", r.URL.Path)
		sent++
		_, _ = w.Write([]byte(`{"ok":true,"result":{}}`))
	}))
	defer tg.Close()

	f, err := New(testConfig(tg.URL))
	require.NoError(t, err)
	defer f.Close()

	require.IsType(t, &memory.RateLimitStore{}, f.RateLimiter())
	require.Empty(t, f.HealthCheck(context.Background()))

	router := handler.NewRouter(f.LeadHandler(), util.Get(), handler.RouterOptions{Health: f.HealthCheck})

	body := `{"name":"Ali","phone":"+998 90 123 45 67","message":"Salom, narx kerak"}`
	req := httptest.NewRequest(http.MethodPost, "/api/contact", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1, sent)
}

func TestFactory_UnconfiguredTelegramIsUnhealthy(t *testing.T) {
	util.Set(zap.NewNop())

	cfg := testConfig("http://127.0.0.1:1")
	cfg.Telegram.BotToken = ""

	f, err := New(cfg)
	require.NoError(t, err)
	defer f.Close()

	health := f.HealthCheck(context.Background())
	require.Contains(t, health, "delivery")
}

func TestFactory_UnknownDeliveryBackend(t *testing.T) {
	util.Set(zap.NewNop())

	cfg := testConfig("http://127.0.0.1:1")
	cfg.Delivery.Backend = "carrier-pigeon"

	_, err := New(cfg)
	require.Error(t, err)
}

func TestFactory_RunBackgroundStopsOnCancel(t *testing.T) {
	util.Set(zap.NewNop())

	f, err := New(testConfig("http://127.0.0.1:1"))
	require.NoError(t, err)
	defer f.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.RunBackground(ctx) }()
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("RunBackground did not return after cancel")
	}
}
