package api_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/alertdesk/backend/internal/api"
	"github.com/alertdesk/backend/internal/config"
	"github.com/alertdesk/backend/internal/db"
	"github.com/alertdesk/backend/internal/db/dbtest"
	"github.com/alertdesk/backend/internal/metrics"
	"github.com/alertdesk/backend/internal/models"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestApp(t *testing.T) (*fiber.App, *db.Pool) {
	t.Helper()

	pool := dbtest.NewPool(t)
	s := api.NewServices(pool, nil, metrics.New())
	s.Alerts.Recompute = dbtest.RecomputeNotes

	cfg := &config.Config{Server: config.ServerConfig{CORSAllowOrigins: "*"}}
	app := api.NewApp(cfg, s)
	api.SetupRoutes(app, s)
	return app, pool
}

func do(t *testing.T, app *fiber.App, method, target, body string) (int, []byte) {
	t.Helper()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, 5000)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func listAlerts(t *testing.T, app *fiber.App) []models.Alert {
	t.Helper()

	status, body := do(t, app, http.MethodGet, "/alerts", "")
	require.Equal(t, fiber.StatusOK, status)

	var alerts []models.Alert
	require.NoError(t, json.Unmarshal(body, &alerts))
	return alerts
}

func TestCreateAlerts_ReturnsCount(t *testing.T) {
	app, _ := newTestApp(t)

	status, body := do(t, app, http.MethodPost, "/alerts",
		`{"symbol":"AAPL","alert_type":"price","alert_direction":"above","alert_level":"180,190,200"}`)
	require.Equal(t, fiber.StatusCreated, status)
	require.JSONEq(t, `{"message":"Alerts created successfully","count":3}`, string(body))

	alerts := listAlerts(t, app)
	require.Len(t, alerts, 3)
	for _, a := range alerts {
		require.NotNil(t, a.Note)
		require.Equal(t, "price above "+a.AlertLevel, *a.Note)
	}
}

func TestCreateAlerts_InvalidJSON(t *testing.T) {
	app, pool := newTestApp(t)

	status, body := do(t, app, http.MethodPost, "/alerts", `{"symbol":"AAPL",`)
	require.Equal(t, fiber.StatusBadRequest, status)
	require.JSONEq(t, `{"error":"Invalid JSON"}`, string(body))
	require.Zero(t, dbtest.CountAlerts(t, pool))
}

func TestCreateAlerts_MissingField(t *testing.T) {
	app, pool := newTestApp(t)

	status, body := do(t, app, http.MethodPost, "/alerts",
		`{"symbol":"AAPL","alert_type":"price","alert_level":"1"}`)
	require.Equal(t, fiber.StatusBadRequest, status)

	var resp struct {
		Error   string                 `json:"error"`
		Missing []string               `json:"missing"`
		Data    map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &resp))
	require.Equal(t, "Missing required fields", resp.Error)
	require.Equal(t, []string{"alert_direction"}, resp.Missing)
	require.Equal(t, "AAPL", resp.Data["symbol"])
	require.Zero(t, dbtest.CountAlerts(t, pool))
}

func TestCreateAlerts_AcceptsScalarFields(t *testing.T) {
	app, _ := newTestApp(t)

	status, body := do(t, app, http.MethodPost, "/alerts",
		`{"symbol":"AAPL","alert_type":"price","alert_direction":"above","alert_level":100}`)
	require.Equal(t, fiber.StatusCreated, status, string(body))

	alerts := listAlerts(t, app)
	require.Len(t, alerts, 1)
	require.Equal(t, "100", alerts[0].AlertLevel)
}

func TestCreateAlerts_WrongFieldType(t *testing.T) {
	app, pool := newTestApp(t)

	status, body := do(t, app, http.MethodPost, "/alerts",
		`{"symbol":{"ticker":"AAPL"},"alert_type":"price","alert_direction":"above","alert_level":"1"}`)
	require.Equal(t, fiber.StatusBadRequest, status)
	require.Contains(t, string(body), "Invalid field type")
	require.NotContains(t, string(body), "Invalid JSON")
	require.Zero(t, dbtest.CountAlerts(t, pool))
}

func TestCreateAlerts_RollsBackOnStorageError(t *testing.T) {
	app, pool := newTestApp(t)
	dbtest.RejectLevel(t, pool, "2")

	status, body := do(t, app, http.MethodPost, "/alerts",
		`{"symbol":"AAPL","alert_type":"price","alert_direction":"above","alert_level":"1,2,3"}`)
	require.Equal(t, fiber.StatusInternalServerError, status)
	require.Contains(t, string(body), "alert level rejected")
	require.Zero(t, dbtest.CountAlerts(t, pool))
}

func TestGetAlerts_Sorted(t *testing.T) {
	app, _ := newTestApp(t)

	for _, body := range []string{
		`{"symbol":"MSFT","alert_type":"price","alert_direction":"above","alert_level":"1"}`,
		`{"symbol":"AAPL","alert_type":"volume","alert_direction":"below","alert_level":"2"}`,
		`{"symbol":"AAPL","alert_type":"price","alert_direction":"below","alert_level":"3"}`,
		`{"symbol":"AAPL","alert_type":"price","alert_direction":"above","alert_level":"4"}`,
	} {
		status, _ := do(t, app, http.MethodPost, "/alerts", body)
		require.Equal(t, fiber.StatusCreated, status)
	}

	var got []string
	for _, a := range listAlerts(t, app) {
		got = append(got, a.Symbol+"/"+a.AlertType+"/"+a.AlertDirection)
	}
	require.Equal(t, []string{
		"AAPL/price/above",
		"AAPL/price/below",
		"AAPL/volume/below",
		"MSFT/price/above",
	}, got)
}

func TestGetAlerts_EmptyIsArray(t *testing.T) {
	app, _ := newTestApp(t)

	status, body := do(t, app, http.MethodGet, "/alerts", "")
	require.Equal(t, fiber.StatusOK, status)
	require.JSONEq(t, `[]`, string(body))
}

func TestUpdateAlert_Overwrites(t *testing.T) {
	app, _ := newTestApp(t)

	status, _ := do(t, app, http.MethodPost, "/alerts",
		`{"symbol":"AAPL","alert_type":"price","alert_direction":"above","alert_level":"180"}`)
	require.Equal(t, fiber.StatusCreated, status)
	id := listAlerts(t, app)[0].ID

	status, body := do(t, app, http.MethodPut, "/alerts/"+itoa(id),
		`{"symbol":"TSLA","alert_type":"volume","alert_direction":"below","alert_level":"5","note":"watch"}`)
	require.Equal(t, fiber.StatusOK, status)
	require.JSONEq(t, `{"message":"Alert updated successfully"}`, string(body))

	alerts := listAlerts(t, app)
	require.Len(t, alerts, 1)
	require.Equal(t, "TSLA", alerts[0].Symbol)
	require.Equal(t, "volume", alerts[0].AlertType)
	require.Equal(t, "below", alerts[0].AlertDirection)
	require.Equal(t, "5", alerts[0].AlertLevel)
	require.NotNil(t, alerts[0].Note)
	require.Equal(t, "watch", *alerts[0].Note)

	// Omitting note clears it.
	status, _ = do(t, app, http.MethodPut, "/alerts/"+itoa(id),
		`{"symbol":"TSLA","alert_type":"volume","alert_direction":"below","alert_level":"5"}`)
	require.Equal(t, fiber.StatusOK, status)
	require.Nil(t, listAlerts(t, app)[0].Note)
}

func TestUpdateAlert_Validation(t *testing.T) {
	app, _ := newTestApp(t)

	status, _ := do(t, app, http.MethodPut, "/alerts/1", `not json`)
	require.Equal(t, fiber.StatusBadRequest, status)

	status, body := do(t, app, http.MethodPut, "/alerts/1", `{"symbol":"AAPL"}`)
	require.Equal(t, fiber.StatusBadRequest, status)
	require.Contains(t, string(body), "alert_level")
}

func TestUpdateAndDelete_UnknownID(t *testing.T) {
	app, _ := newTestApp(t)

	status, body := do(t, app, http.MethodPut, "/alerts/999",
		`{"symbol":"AAPL","alert_type":"price","alert_direction":"above","alert_level":"1"}`)
	require.Equal(t, fiber.StatusNotFound, status)
	require.JSONEq(t, `{"error":"Alert not found"}`, string(body))

	status, _ = do(t, app, http.MethodDelete, "/alerts/999", "")
	require.Equal(t, fiber.StatusNotFound, status)
}

func TestUpdateAndDelete_StorageErrors(t *testing.T) {
	app, pool := newTestApp(t)

	status, _ := do(t, app, http.MethodPost, "/alerts",
		`{"symbol":"AAPL","alert_type":"price","alert_direction":"above","alert_level":"1"}`)
	require.Equal(t, fiber.StatusCreated, status)
	id := itoa(listAlerts(t, app)[0].ID)

	dbtest.RejectStatement(t, pool, "update")
	dbtest.RejectStatement(t, pool, "delete")

	status, body := do(t, app, http.MethodPut, "/alerts/"+id,
		`{"symbol":"MSFT","alert_type":"price","alert_direction":"above","alert_level":"2"}`)
	require.Equal(t, fiber.StatusInternalServerError, status)
	require.Contains(t, string(body), "alert update rejected")

	status, body = do(t, app, http.MethodDelete, "/alerts/"+id, "")
	require.Equal(t, fiber.StatusInternalServerError, status)
	require.Contains(t, string(body), "alert delete rejected")
	require.EqualValues(t, 1, dbtest.CountAlerts(t, pool))
}

func TestAlertRoutes_RejectNonNumericID(t *testing.T) {
	app, _ := newTestApp(t)

	for _, target := range []string{"/alerts/abc", "/alerts/0", "/alerts/-3"} {
		status, _ := do(t, app, http.MethodDelete, target, "")
		require.Equal(t, fiber.StatusNotFound, status, target)
	}
}

func TestDeleteAlert(t *testing.T) {
	app, pool := newTestApp(t)

	status, _ := do(t, app, http.MethodPost, "/alerts",
		`{"symbol":"AAPL","alert_type":"price","alert_direction":"above","alert_level":"1,2"}`)
	require.Equal(t, fiber.StatusCreated, status)
	alerts := listAlerts(t, app)

	status, body := do(t, app, http.MethodDelete, "/alerts/"+itoa(alerts[0].ID), "")
	require.Equal(t, fiber.StatusOK, status)
	require.JSONEq(t, `{"message":"Alert deleted successfully"}`, string(body))
	require.EqualValues(t, 1, dbtest.CountAlerts(t, pool))

	remaining := listAlerts(t, app)
	require.Len(t, remaining, 1)
	require.Equal(t, alerts[1].ID, remaining[0].ID)
}

func TestGetConsolidatedHoldings(t *testing.T) {
	app, pool := newTestApp(t)

	err := pool.WithConn(context.Background(), func(tx *gorm.DB) error {
		return tx.Exec(`INSERT INTO consolidated_holdings (symbol, quantity, market_value) VALUES ('AAPL', 100, 18950.5)`).Error
	})
	require.NoError(t, err)

	status, body := do(t, app, http.MethodGet, "/consolidated_holdings", "")
	require.Equal(t, fiber.StatusOK, status)
	require.JSONEq(t, `[{"symbol":"AAPL","quantity":100,"market_value":18950.5}]`, string(body))
}

func TestHealthAndMetrics(t *testing.T) {
	app, _ := newTestApp(t)

	status, body := do(t, app, http.MethodGet, "/health", "")
	require.Equal(t, fiber.StatusOK, status)
	require.Contains(t, string(body), `"status":"ok"`)
	require.Contains(t, string(body), `"redis":"disabled"`)

	status, _ = do(t, app, http.MethodPost, "/alerts",
		`{"symbol":"AAPL","alert_type":"price","alert_direction":"above","alert_level":"1"}`)
	require.Equal(t, fiber.StatusCreated, status)

	status, body = do(t, app, http.MethodGet, "/metrics", "")
	require.Equal(t, fiber.StatusOK, status)
	require.Contains(t, string(body), `alertdesk_alerts_created_total 1`)
	require.Contains(t, string(body), `alertdesk_http_requests_total{method="POST",route="/alerts",status="201"} 1`)
}

func TestStreamDisabledWithoutRedis(t *testing.T) {
	app, _ := newTestApp(t)

	status, _ := do(t, app, http.MethodGet, "/alerts/stream", "")
	require.Equal(t, fiber.StatusServiceUnavailable, status)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
