package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"eshop/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp(log logrus.FieldLogger) *fiber.App {
	app := fiber.New()
	app.Use(requestid.New())
	app.Use(middleware.RequestLogger(log))
	app.Get("/ok", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	app.Get("/missing", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusNotFound, "missing")
	})
	app.Get("/broken", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "boom"})
	})
	return app
}

func TestRequestLogger(t *testing.T) {
	log, hook := test.NewNullLogger()
	app := newApp(log)

	cases := []struct {
		path   string
		status int
		level  logrus.Level
	}{
		{"/ok", http.StatusOK, logrus.InfoLevel},
		{"/missing", http.StatusNotFound, logrus.WarnLevel},
		{"/broken", http.StatusInternalServerError, logrus.ErrorLevel},
	}
	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			hook.Reset()
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, tc.path, nil), -1)
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, tc.status, resp.StatusCode)

			entry := hook.LastEntry()
			require.NotNil(t, entry)
			assert.Equal(t, tc.level, entry.Level)
			assert.Equal(t, tc.path, entry.Data["path"])
			assert.Equal(t, tc.status, entry.Data["status"])
			assert.Equal(t, resp.Header.Get(fiber.HeaderXRequestID), entry.Data["request_id"])
			assert.NotEmpty(t, entry.Data["request_id"])
		})
	}
}
