package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crepmaster/pharmapp/internal/application/idempotency"
	"github.com/crepmaster/pharmapp/internal/application/walletservice"
	"github.com/crepmaster/pharmapp/internal/domain"
	"github.com/crepmaster/pharmapp/internal/infrastructure/cache"
	"github.com/crepmaster/pharmapp/internal/infrastructure/events"
	"github.com/crepmaster/pharmapp/internal/repositories/repotest"
	"github.com/crepmaster/pharmapp/pkg/config"
)

func newWebhookRouter(t *testing.T, store *repotest.Store, webhooks config.WebhooksConfig) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := zerolog.Nop()

	cfg := &config.Config{Webhooks: webhooks}
	cfg.Server.Environment = "development"
	cfg.Escrow = config.EscrowConfig{DefaultCurrency: "XAF", MaxSandboxCredit: 100000}
	if cfg.Webhooks.LogRetention == 0 {
		cfg.Webhooks.LogRetention = 720 * time.Hour
	}

	guard := idempotency.NewGuard(store, store.IdempotencyRepo(), log)
	walletSvc := walletservice.New(store.Querier(), store, guard, store.WalletRepo(), store.LedgerRepo(), store.PaymentRepo(), cache.NewNop(), events.NewNop(), cfg, log)

	h := NewWebhookHandler(walletSvc, cfg.Webhooks, log)
	router := gin.New()
	router.POST("/webhooks/momo", h.HandleMomo)
	router.POST("/webhooks/orange", h.HandleOrange)
	return router
}

func post(router *gin.Engine, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestWebhookRejectsMissingToken(t *testing.T) {
	store := repotest.NewStore()
	router := newWebhookRouter(t, store, config.WebhooksConfig{MomoToken: "secret"})

	w := post(router, "/webhooks/momo", `{}`, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, store.WebhookLogs)
}

func TestWebhookRejectsWrongToken(t *testing.T) {
	store := repotest.NewStore()
	router := newWebhookRouter(t, store, config.WebhooksConfig{MomoToken: "secret"})

	w := post(router, "/webhooks/momo", `{}`, map[string]string{"X-Callback-Token": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWebhookDisabledWhenTokenUnconfigured(t *testing.T) {
	store := repotest.NewStore()
	router := newWebhookRouter(t, store, config.WebhooksConfig{})

	w := post(router, "/webhooks/momo", `{}`, map[string]string{"X-Callback-Token": ""})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWebhookAcceptsQueryToken(t *testing.T) {
	store := repotest.NewStore()
	router := newWebhookRouter(t, store, config.WebhooksConfig{OrangeToken: "secret"})

	w := post(router, "/webhooks/orange?token=secret", `{"txnid":"orange-1","amount":"100"}`, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestWebhookMomoCreditsPendingIntent(t *testing.T) {
	store := repotest.NewStore()
	store.Payments["pay-1"] = domain.Payment{
		ID:       "pay-1",
		UserID:   "user-1",
		Method:   string(domain.ProviderMomo),
		Amount:   5000,
		Currency: "XAF",
		Status:   domain.PaymentPending,
	}
	router := newWebhookRouter(t, store, config.WebhooksConfig{MomoToken: "secret"})

	body := `{"financialTransactionId":"momo-1","externalId":"pay-1","amount":"5000","currency":"XAF","status":"SUCCESSFUL"}`
	w := post(router, "/webhooks/momo", body, map[string]string{"X-Callback-Token": "secret"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["ok"])

	assert.Equal(t, int64(5000), store.Wallets["user-1"].Available)
	assert.Equal(t, domain.PaymentSucceeded, store.Payments["pay-1"].Status)
	assert.Len(t, store.WebhookLogs, 1)
}

func TestWebhookRedeliveryAcknowledgedWithoutDoubleCredit(t *testing.T) {
	store := repotest.NewStore()
	store.Payments["pay-1"] = domain.Payment{
		ID:     "pay-1",
		UserID: "user-1",
		Amount: 5000,
		Status: domain.PaymentPending,
	}
	router := newWebhookRouter(t, store, config.WebhooksConfig{MomoToken: "secret"})

	body := `{"financialTransactionId":"momo-1","externalId":"pay-1"}`
	headers := map[string]string{"X-Callback-Token": "secret"}
	for i := 0; i < 3; i++ {
		w := post(router, "/webhooks/momo", body, headers)
		require.Equal(t, http.StatusOK, w.Code, fmt.Sprintf("delivery %d", i))
	}

	assert.Equal(t, int64(5000), store.Wallets["user-1"].Available)
	assert.Equal(t, 1, store.LedgerByType(domain.LedgerTopup))
}

func TestWebhookMalformedBodyStillAcknowledged(t *testing.T) {
	store := repotest.NewStore()
	router := newWebhookRouter(t, store, config.WebhooksConfig{MomoToken: "secret"})

	w := post(router, "/webhooks/momo", `not json`, map[string]string{"X-Callback-Token": "secret"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, store.Wallets)
}

func TestWebhookMissingTxnIDStillAcknowledged(t *testing.T) {
	store := repotest.NewStore()
	router := newWebhookRouter(t, store, config.WebhooksConfig{MomoToken: "secret"})

	w := post(router, "/webhooks/momo", `{"status":"SUCCESSFUL"}`, map[string]string{"X-Callback-Token": "secret"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, store.WebhookLogs)
}
