package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gcal "google.golang.org/api/calendar/v3"

	"github.com/teemow/calendar-api/internal/calendar"
	"github.com/teemow/calendar-api/pkg/googlecaltest"
)

const testAPIKey = "test-key"

func newTestGateway(t *testing.T) (http.Handler, *googlecaltest.Server) {
	t.Helper()

	fake := googlecaltest.NewServer()
	t.Cleanup(fake.Close)

	client, err := calendar.NewClient(context.Background(), http.DefaultClient, calendar.ClientConfig{
		Endpoint: fake.URL,
	})
	require.NoError(t, err)

	sc := NewServerContext(context.Background(), Config{APIKey: testAPIKey}, nil, nil)
	t.Cleanup(func() { _ = sc.Shutdown() })
	sc.SetCalendarClient(client)

	return Handler(sc), fake
}

func doRequest(t *testing.T, handler http.Handler, method, target, body string, authenticated bool) *httptest.ResponseRecorder {
	t.Helper()

	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}

	req := httptest.NewRequest(method, target, reader)
	if authenticated {
		req.Header.Set("X-API-Key", testAPIKey)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestMissingAPIKeyRejectedBeforeDispatch(t *testing.T) {
	handler, fake := newTestGateway(t)

	targets := []struct {
		method string
		url    string
	}{
		{http.MethodGet, "/events"},
		{http.MethodPost, "/events"},
		{http.MethodPut, "/events/evt1"},
		{http.MethodDelete, "/events/evt1"},
		{http.MethodGet, "/events/search?query=x"},
	}

	for _, target := range targets {
		rec := doRequest(t, handler, target.method, target.url, "", false)

		assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", target.method, target.url)
		body := decodeBody(t, rec)
		assert.Equal(t, false, body["success"])
		assert.Equal(t, "Invalid or missing API key", body["error"])
	}

	assert.Equal(t, 0, fake.TotalCalls(), "unauthenticated requests must never reach the calendar API")
}

func TestWrongAPIKeyRejected(t *testing.T) {
	handler, _ := newTestGateway(t)

	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	req.Header.Set("X-API-Key", "wrong")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHealthRequiresNoAPIKey(t *testing.T) {
	handler, _ := newTestGateway(t)

	rec := doRequest(t, handler, http.MethodGet, "/health", "", false)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "calendar-api", body["service"])
}

func TestListEvents(t *testing.T) {
	handler, fake := newTestGateway(t)

	fake.AddEvent("primary", &gcal.Event{
		Summary: "Standup",
		Start:   &gcal.EventDateTime{DateTime: "2026-03-02T10:00:00Z"},
		End:     &gcal.EventDateTime{DateTime: "2026-03-02T10:30:00Z"},
	})
	fake.AddEvent("primary", &gcal.Event{
		Summary: "Far future",
		Start:   &gcal.EventDateTime{DateTime: "2026-06-01T10:00:00Z"},
		End:     &gcal.EventDateTime{DateTime: "2026-06-01T11:00:00Z"},
	})

	rec := doRequest(t, handler, http.MethodGet, "/events?date=2026-03-01&days=7", "", true)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(1), body["count"])

	events := body["events"].([]any)
	event := events[0].(map[string]any)
	assert.Equal(t, "Standup", event["title"])
	assert.Equal(t, "2026-03-02T10:00:00Z", event["start"])
}

func TestListEventsInvalidDate(t *testing.T) {
	handler, fake := newTestGateway(t)

	rec := doRequest(t, handler, http.MethodGet, "/events?date=not-a-date", "", true)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, 0, fake.TotalCalls())
}

func TestCreateEvent(t *testing.T) {
	handler, fake := newTestGateway(t)

	rec := doRequest(t, handler, http.MethodPost, "/events",
		`{"title":"Planning","date":"2026-03-02","time":"09:00","end_time":"10:00"}`, true)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Event 'Planning' created successfully", body["message"])
	assert.NotEmpty(t, body["event_id"])
	assert.NotEmpty(t, body["event_link"])

	stored := fake.Event("primary", body["event_id"].(string))
	require.NotNil(t, stored)
	assert.Equal(t, "2026-03-02T09:00:00", stored.Start.DateTime)
	assert.Equal(t, "2026-03-02T10:00:00", stored.End.DateTime)
}

func TestCreateEventDefaultsTitle(t *testing.T) {
	handler, _ := newTestGateway(t)

	rec := doRequest(t, handler, http.MethodPost, "/events", `{"date":"2026-03-02"}`, true)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Event 'New Event' created successfully", body["message"])
}

func TestCreateEventMalformedBody(t *testing.T) {
	handler, fake := newTestGateway(t)

	rec := doRequest(t, handler, http.MethodPost, "/events", `{not json`, true)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, 0, fake.TotalCalls())
}

func TestUpdateEvent(t *testing.T) {
	handler, fake := newTestGateway(t)

	fake.AddEvent("primary", &gcal.Event{
		Id:          "evt1",
		Summary:     "Original",
		Description: "keep",
		Start:       &gcal.EventDateTime{DateTime: "2026-03-02T09:00:00-05:00"},
		End:         &gcal.EventDateTime{DateTime: "2026-03-02T10:00:00-05:00"},
	})

	rec := doRequest(t, handler, http.MethodPut, "/events/evt1", `{"title":"Renamed"}`, true)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Event updated successfully", body["message"])

	stored := fake.Event("primary", "evt1")
	assert.Equal(t, "Renamed", stored.Summary)
	assert.Equal(t, "keep", stored.Description)
}

func TestUpdateEventMissing(t *testing.T) {
	handler, _ := newTestGateway(t)

	rec := doRequest(t, handler, http.MethodPut, "/events/missing", `{"title":"x"}`, true)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, false, body["success"])
}

func TestDeleteEvent(t *testing.T) {
	handler, fake := newTestGateway(t)

	fake.AddEvent("primary", &gcal.Event{Id: "evt1", Summary: "Doomed"})

	rec := doRequest(t, handler, http.MethodDelete, "/events/evt1", "", true)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Event 'Doomed' deleted successfully", body["message"])
	assert.Nil(t, fake.Event("primary", "evt1"))
}

func TestDeleteEventMissing(t *testing.T) {
	handler, fake := newTestGateway(t)

	rec := doRequest(t, handler, http.MethodDelete, "/events/missing", "", true)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, 0, fake.Calls("delete"))
}

func TestSearchEvents(t *testing.T) {
	handler, fake := newTestGateway(t)

	fake.AddEvent("primary", &gcal.Event{
		Summary: "Budget review",
		Start:   &gcal.EventDateTime{DateTime: "2026-03-02T10:00:00Z"},
	})

	rec := doRequest(t, handler, http.MethodGet, "/events/search?query=budget", "", true)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(1), body["count"])
	assert.Equal(t, "budget", body["query"])
}

func TestSearchEventsMissingQuery(t *testing.T) {
	handler, fake := newTestGateway(t)

	rec := doRequest(t, handler, http.MethodGet, "/events/search", "", true)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Query parameter required", body["error"])
	assert.Equal(t, 0, fake.TotalCalls())
}
