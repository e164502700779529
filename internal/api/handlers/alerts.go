/**
 * @description
 * Alert API Handlers.
 * List, batch-create, overwrite and delete alerts.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2
 * - backend/internal/services
 *
 * @notes
 * - Request bodies are validated (parseable JSON, required fields present)
 *   before the store is touched.
 */

package handlers

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/alertdesk/backend/internal/models"
	"github.com/alertdesk/backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

var (
	errEmptyBody = errors.New("empty request body")
	errFieldType = errors.New("fields must be strings, numbers or booleans")
)

// textField holds a JSON string, number or boolean as text. Numbers and booleans keep
// their literal spelling. Absent or null leaves Set false.
type textField struct {
	Value string
	Set   bool
}

// UnmarshalJSON implements json.Unmarshaler
func (f *textField) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*f = textField{}
	case data[0] == '"':
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*f = textField{Value: v, Set: true}
	case data[0] == '{' || data[0] == '[':
		return errFieldType
	default:
		*f = textField{Value: string(data), Set: true}
	}
	return nil
}

// AlertHandler handles alert-related requests
type AlertHandler struct {
	Service *services.AlertService
}

// NewAlertHandler creates a new AlertHandler
func NewAlertHandler(service *services.AlertService) *AlertHandler {
	return &AlertHandler{Service: service}
}

// CreateAlertRequest is the POST /alerts body. A null field counts as missing.
type CreateAlertRequest struct {
	Symbol         textField `json:"symbol"`
	AlertType      textField `json:"alert_type"`
	AlertDirection textField `json:"alert_direction"`
	AlertLevel     textField `json:"alert_level"` // comma-separated, one alert per level
}

func (r CreateAlertRequest) missing() []string {
	var missing []string
	for _, f := range []struct {
		name  string
		field textField
	}{
		{"symbol", r.Symbol},
		{"alert_type", r.AlertType},
		{"alert_direction", r.AlertDirection},
		{"alert_level", r.AlertLevel},
	} {
		if !f.field.Set {
			missing = append(missing, f.name)
		}
	}
	return missing
}

// UpdateAlertRequest is the PUT /alerts/:id body. note may be omitted or null.
type UpdateAlertRequest struct {
	CreateAlertRequest
	Note textField `json:"note"`
}

// GetAlerts returns every alert sorted by symbol, type, direction, level, create date
// GET /alerts
func (h *AlertHandler) GetAlerts(c *fiber.Ctx) error {
	alerts, err := h.Service.ListAlerts(c.Context())
	if err != nil {
		return respondError(c, "AlertHandler.GetAlerts", err)
	}
	return c.JSON(alerts)
}

// CreateAlerts creates one alert per comma-separated level
// POST /alerts
func (h *AlertHandler) CreateAlerts(c *fiber.Ctx) error {
	var req CreateAlertRequest
	if err := decodeJSON(c, &req); err != nil {
		return badBody(c, err)
	}

	if missing := req.missing(); len(missing) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Missing required fields",
			"missing": missing,
			"data":    echoBody(c),
		})
	}

	created, err := h.Service.CreateAlerts(c.Context(), models.AlertFields{
		Symbol:         req.Symbol.Value,
		AlertType:      req.AlertType.Value,
		AlertDirection: req.AlertDirection.Value,
	}, req.AlertLevel.Value)
	if err != nil {
		return respondError(c, "AlertHandler.CreateAlerts", err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Alerts created successfully",
		"count":   len(created),
	})
}

// UpdateAlert overwrites every mutable field of an alert
// PUT /alerts/:id
func (h *AlertHandler) UpdateAlert(c *fiber.Ctx) error {
	id, ok := alertID(c)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Alert not found"})
	}

	var req UpdateAlertRequest
	if err := decodeJSON(c, &req); err != nil {
		return badBody(c, err)
	}

	if missing := req.missing(); len(missing) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Missing required fields",
			"missing": missing,
			"data":    echoBody(c),
		})
	}

	var note *string
	if req.Note.Set {
		note = &req.Note.Value
	}

	err := h.Service.UpdateAlert(c.Context(), id, models.AlertUpdate{
		Symbol:         req.Symbol.Value,
		AlertType:      req.AlertType.Value,
		AlertDirection: req.AlertDirection.Value,
		AlertLevel:     req.AlertLevel.Value,
		Note:           note,
	})
	if err != nil {
		return respondError(c, "AlertHandler.UpdateAlert", err)
	}

	return c.JSON(fiber.Map{"message": "Alert updated successfully"})
}

// DeleteAlert removes an alert
// DELETE /alerts/:id
func (h *AlertHandler) DeleteAlert(c *fiber.Ctx) error {
	id, ok := alertID(c)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Alert not found"})
	}

	if err := h.Service.DeleteAlert(c.Context(), id); err != nil {
		return respondError(c, "AlertHandler.DeleteAlert", err)
	}

	return c.JSON(fiber.Map{"message": "Alert deleted successfully"})
}

func alertID(c *fiber.Ctx) (int64, bool) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, false
	}
	return int64(id), true
}

// decodeJSON parses the raw body as JSON regardless of Content-Type
func decodeJSON(c *fiber.Ctx, out interface{}) error {
	body := c.Body()
	if len(bytes.TrimSpace(body)) == 0 {
		return errEmptyBody
	}
	return json.Unmarshal(body, out)
}

// badBody reports a body that could not be decoded
func badBody(c *fiber.Ctx, err error) error {
	if errors.Is(err, errFieldType) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid field type: " + errFieldType.Error(),
			"data":  echoBody(c),
		})
	}
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid JSON"})
}

// echoBody returns the received JSON object for error responses
func echoBody(c *fiber.Ctx) map[string]interface{} {
	var data map[string]interface{}
	_ = json.Unmarshal(c.Body(), &data)
	return data
}
