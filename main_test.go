package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"eshop/internal/config"
	"eshop/internal/models"
	"eshop/pkg/logger"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(driver string) config.Config {
	cfg := config.Config{
		AppPort:        ":0",
		AppEnv:         "test",
		LogLevel:       "error",
		DatabaseDriver: driver,
		SeedProducts:   true,
	}
	if driver == config.DriverSQLite {
		cfg.DatabaseDSN = fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	}
	return cfg
}

func TestHealthCheck(t *testing.T) {
	srv, err := newServer(testConfig(config.DriverMemory), logger.Discard())
	require.NoError(t, err)
	defer srv.Close()

	resp, err := srv.app.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "disabled", body["events"])
}

func TestSeedProducts(t *testing.T) {
	for _, driver := range []string{config.DriverMemory, config.DriverSQLite} {
		t.Run(driver, func(t *testing.T) {
			srv, err := newServer(testConfig(driver), logger.Discard())
			require.NoError(t, err)
			defer srv.Close()

			ctx := context.Background()
			seedProducts(ctx, srv.catalog, logger.Discard())
			seedProducts(ctx, srv.catalog, logger.Discard())

			resp, err := srv.app.Test(httptest.NewRequest(http.MethodGet, "/api/products", nil), -1)
			require.NoError(t, err)
			defer resp.Body.Close()
			require.Equal(t, http.StatusOK, resp.StatusCode)

			var products []models.Product
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&products))
			assert.Len(t, products, 3, "seeding a non-empty catalog is a no-op")
		})
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- run(ctx, testConfig(config.DriverMemory), logger.Discard())
	}()

	time.Sleep(200 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop after cancellation")
	}
}

func TestCatalogEventHandler(t *testing.T) {
	log, hook := test.NewNullLogger()
	handle := catalogEventHandler(log)

	body, err := json.Marshal(map[string]interface{}{
		"type":        "product.created",
		"product_id":  "p1",
		"occurred_at": time.Now().UTC(),
	})
	require.NoError(t, err)
	require.NoError(t, handle(amqp.Delivery{Body: body}))
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "product.created", hook.LastEntry().Data["event"])
	assert.Equal(t, "p1", hook.LastEntry().Data["product_id"])

	assert.Error(t, handle(amqp.Delivery{Body: []byte("not json")}))
	assert.Error(t, handle(amqp.Delivery{Body: []byte(`{"type":"product.created"}`)}))
}
