package hooks

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kamishop/backend/pkg/config"
	"github.com/kamishop/backend/pkg/db/models"
	"github.com/kamishop/backend/pkg/logger"
	"github.com/kamishop/backend/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDispatcher(t *testing.T) *Dispatcher {
	t.Helper()
	dispatcher, err := NewDispatcher(
		config.HooksConfig{Timeout: 2 * time.Second},
		logger.New(logger.Options{ServiceName: "test"}),
		nil,
	)
	require.NoError(t, err)
	return dispatcher
}

func novelOrder(orderSN string) *models.Order {
	return &models.Order{
		OrderSN:  orderSN,
		Email:    "reader@example.com",
		Metadata: types.JSONMap{"source": "novel", "recharge_account": "reader-77"},
	}
}

func TestDispatch_DeliveredOnConfirmedResponse(t *testing.T) {
	var received map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true}`))
	}))
	defer server.Close()

	strategy := NewNovelStrategy(config.HooksConfig{NovelAPIURL: server.URL})
	err := newTestDispatcher(t).Dispatch(context.Background(), strategy, novelOrder("SN2001"), nil)
	require.NoError(t, err)
	assert.Equal(t, "SN2001", received["order_sn"])
	assert.Equal(t, "reader-77", received["email"])
}

func TestDispatch_BusinessRejectionIsTerminal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false,"message":"account frozen"}`))
	}))
	defer server.Close()

	strategy := NewNovelStrategy(config.HooksConfig{NovelAPIURL: server.URL})
	err := newTestDispatcher(t).Dispatch(context.Background(), strategy, novelOrder("SN2002"), nil)
	assert.NoError(t, err)
}

func TestDispatch_FormatErrorIsTerminal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>not json</html>`))
	}))
	defer server.Close()

	strategy := NewNovelStrategy(config.HooksConfig{NovelAPIURL: server.URL})
	err := newTestDispatcher(t).Dispatch(context.Background(), strategy, novelOrder("SN2003"), nil)
	assert.NoError(t, err)
}

func TestDispatch_TransportErrorIsRetryable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // connection refused from here on

	strategy := NewNovelStrategy(config.HooksConfig{NovelAPIURL: server.URL})
	err := newTestDispatcher(t).Dispatch(context.Background(), strategy, novelOrder("SN2004"), nil)
	require.Error(t, err)
}

func TestDispatch_SkipsUnconfiguredStrategy(t *testing.T) {
	strategy := NewNovelStrategy(config.HooksConfig{})
	err := newTestDispatcher(t).Dispatch(context.Background(), strategy, novelOrder("SN2005"), nil)
	assert.NoError(t, err)
}

func TestDispatch_DefaultStrategyIgnoresResponseBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	}))
	defer server.Close()

	order := &models.Order{OrderSN: "SN2006", Email: "reader@example.com"}
	product := &models.Product{Name: "Gift Card", HookURL: hookURL(server.URL)}
	err := newTestDispatcher(t).Dispatch(context.Background(), NewDefaultStrategy(), order, product)
	assert.NoError(t, err)
}
