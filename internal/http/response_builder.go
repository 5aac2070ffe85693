// Package http provides HTTP server and handler implementations.
//
// This file implements a fluent builder for HTMX responses. It
// encapsulates the construction of HX-Trigger headers and consistent
// response formatting.

package http

import (
	"encoding/json"
	"html/template"
	"net/http"
)

// HTMXResponseBuilder provides a fluent API for building HTMX responses.
type HTMXResponseBuilder struct {
	triggers   map[string]interface{}
	statusCode int
	body       []byte
	headers    map[string]string
}

// NewHTMXResponse creates a new response builder with default 200 status.
func NewHTMXResponse() *HTMXResponseBuilder {
	return &HTMXResponseBuilder{
		triggers:   make(map[string]interface{}),
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *HTMXResponseBuilder) Status(code int) *HTMXResponseBuilder {
	b.statusCode = code
	return b
}

// Trigger adds a named trigger with optional data to the HX-Trigger header.
func (b *HTMXResponseBuilder) Trigger(name string, data interface{}) *HTMXResponseBuilder {
	b.triggers[name] = data
	return b
}

// TriggerTransactionCreated adds the transaction:created trigger with year/month data.
func (b *HTMXResponseBuilder) TriggerTransactionCreated(year, month int) *HTMXResponseBuilder {
	return b.Trigger("transaction:created", map[string]int{"year": year, "month": month})
}

// TriggerTransactionUpdated adds the transaction:updated trigger.
func (b *HTMXResponseBuilder) TriggerTransactionUpdated() *HTMXResponseBuilder {
	return b.Trigger("transaction:updated", struct{}{})
}

// TriggerTransactionDeleted adds the transaction:deleted trigger.
func (b *HTMXResponseBuilder) TriggerTransactionDeleted() *HTMXResponseBuilder {
	return b.Trigger("transaction:deleted", struct{}{})
}

// TriggerBudgetSaved adds the budget:saved trigger with year data.
func (b *HTMXResponseBuilder) TriggerBudgetSaved(year int) *HTMXResponseBuilder {
	return b.Trigger("budget:saved", map[string]int{"year": year})
}

// TriggerBudgetDeleted adds the budget:deleted trigger.
func (b *HTMXResponseBuilder) TriggerBudgetDeleted() *HTMXResponseBuilder {
	return b.Trigger("budget:deleted", struct{}{})
}

// TriggerFormReset adds the form:reset trigger.
func (b *HTMXResponseBuilder) TriggerFormReset() *HTMXResponseBuilder {
	return b.Trigger("form:reset", struct{}{})
}

// TriggerDashboardRefresh adds the dashboard:refresh trigger with year/month data.
func (b *HTMXResponseBuilder) TriggerDashboardRefresh(year, month int) *HTMXResponseBuilder {
	return b.Trigger("dashboard:refresh", map[string]int{"year": year, "month": month})
}

// NotificationType represents the type of notification to display.
type NotificationType string

const (
	NotificationSuccess NotificationType = "success"
	NotificationError   NotificationType = "error"
	NotificationWarning NotificationType = "warning"
	NotificationInfo    NotificationType = "info"
)

// TriggerNotification adds a show-notification trigger with the specified parameters.
func (b *HTMXResponseBuilder) TriggerNotification(notifType NotificationType, message string, durationMs int) *HTMXResponseBuilder {
	return b.Trigger("show-notification", map[string]interface{}{
		"type":     string(notifType),
		"message":  message,
		"duration": durationMs,
	})
}

// TriggerSuccessNotification is a convenience method for success notifications.
func (b *HTMXResponseBuilder) TriggerSuccessNotification(message string) *HTMXResponseBuilder {
	return b.TriggerNotification(NotificationSuccess, message, 3000)
}

// TriggerErrorNotification is a convenience method for error notifications.
func (b *HTMXResponseBuilder) TriggerErrorNotification(message string) *HTMXResponseBuilder {
	return b.TriggerNotification(NotificationError, message, 5000)
}

// Header adds a custom header to the response.
func (b *HTMXResponseBuilder) Header(name, value string) *HTMXResponseBuilder {
	b.headers[name] = value
	return b
}

// Body sets the response body as bytes.
func (b *HTMXResponseBuilder) Body(content []byte) *HTMXResponseBuilder {
	b.body = content
	return b
}

// BodyString sets the response body as a string.
func (b *HTMXResponseBuilder) BodyString(content string) *HTMXResponseBuilder {
	b.body = []byte(content)
	return b
}

// BodyHTML sets the response body as an HTML fragment, escaping the
// given message.
func (b *HTMXResponseBuilder) BodyHTML(class, message string) *HTMXResponseBuilder {
	escaped := template.HTMLEscapeString(message)
	b.body = []byte(`<div class="` + class + `">` + escaped + `</div>`)
	return b
}

// Write serializes the triggers, sets headers and writes the response.
func (b *HTMXResponseBuilder) Write(w http.ResponseWriter) {
	if len(b.triggers) > 0 {
		if payload, err := json.Marshal(b.triggers); err == nil {
			w.Header().Set("HX-Trigger", string(payload))
		}
	}
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	w.WriteHeader(b.statusCode)
	if len(b.body) > 0 {
		w.Write(b.body)
	}
}

// ErrorResponse builds a standard HTMX error fragment with an error
// notification trigger.
func ErrorResponse(statusCode int, message string) *HTMXResponseBuilder {
	return NewHTMXResponse().
		Status(statusCode).
		TriggerErrorNotification(message).
		BodyHTML("error", message)
}

// BadRequest builds a 400 error response.
func BadRequest(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

// UnprocessableEntity builds a 422 error response.
func UnprocessableEntity(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusUnprocessableEntity, message)
}

// InternalServer builds a 500 error response.
func InternalServer(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}

// NotFound builds a 404 error response.
func NotFound(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

// MethodNotAllowedError builds a 405 response advertising the allowed
// methods.
func MethodNotAllowedError(allowed string) *HTMXResponseBuilder {
	return NewHTMXResponse().
		Status(http.StatusMethodNotAllowed).
		Header("Allow", allowed)
}
