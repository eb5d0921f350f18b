package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/teemow/calendar-api/internal/calendar"
	"github.com/teemow/calendar-api/internal/logging"
)

const (
	serviceName = "calendar-api"

	dateLayout  = "2006-01-02"
	defaultDays = 7
)

// Handler builds the API route table. Event routes sit behind the API-key
// check; /health and the probe endpoints do not.
func Handler(sc *ServerContext) http.Handler {
	mux := http.NewServeMux()

	auth := requireAPIKey(sc.Config().APIKey)

	mux.Handle("GET /events", auth(http.HandlerFunc(sc.handleListEvents)))
	mux.Handle("POST /events", auth(http.HandlerFunc(sc.handleCreateEvent)))
	mux.Handle("GET /events/search", auth(http.HandlerFunc(sc.handleSearchEvents)))
	mux.Handle("PUT /events/{id}", auth(http.HandlerFunc(sc.handleUpdateEvent)))
	mux.Handle("DELETE /events/{id}", auth(http.HandlerFunc(sc.handleDeleteEvent)))

	mux.HandleFunc("GET /health", sc.handleHealth)

	health := NewHealthChecker(sc)
	health.RegisterHealthEndpoints(mux)

	return withRequestMetrics(sc.Metrics(), mux)
}

// createEventRequest is the POST /events body. All fields optional; the title
// defaults downstream and a missing date leaves the event without times.
type createEventRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Location    string `json:"location"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	EndTime     string `json:"end_time"`
}

// updateEventRequest is the PUT /events/{id} body. Pointer fields distinguish
// "absent" from "set to empty".
type updateEventRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Location    *string `json:"location"`
	Date        *string `json:"date"`
	Time        *string `json:"time"`
	EndTime     *string `json:"end_time"`
}

func (sc *ServerContext) handleListEvents(w http.ResponseWriter, r *http.Request) {
	client, err := sc.CalendarClient()
	if err != nil {
		writeErrorResponse(w, r, err)
		return
	}

	dateStr := r.URL.Query().Get("date")
	if dateStr == "" {
		dateStr = time.Now().Format(dateLayout)
	}
	from, err := time.Parse(dateLayout, dateStr)
	if err != nil {
		writeErrorResponse(w, r, fmt.Errorf("invalid date %q: %w", dateStr, err))
		return
	}

	days := defaultDays
	if daysStr := r.URL.Query().Get("days"); daysStr != "" {
		days, err = strconv.Atoi(daysStr)
		if err != nil {
			writeErrorResponse(w, r, fmt.Errorf("invalid days %q: %w", daysStr, err))
			return
		}
	}

	events, err := client.ListEvents(r.Context(), from, days, r.URL.Query().Get("query"))
	if err != nil {
		writeErrorResponse(w, r, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{
		"success": true,
		"events":  events,
		"count":   len(events),
	})
}

func (sc *ServerContext) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	client, err := sc.CalendarClient()
	if err != nil {
		writeErrorResponse(w, r, err)
		return
	}

	var req createEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, r, fmt.Errorf("invalid request body: %w", err))
		return
	}

	ref, err := client.CreateEvent(r.Context(), calendar.CreateEventInput{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		Date:        req.Date,
		Time:        req.Time,
		EndTime:     req.EndTime,
	})
	if err != nil {
		writeErrorResponse(w, r, err)
		return
	}

	slog.InfoContext(r.Context(), "event created", logging.EventID(ref.ID))
	writeJSONResponse(w, http.StatusOK, map[string]any{
		"success":    true,
		"event_id":   ref.ID,
		"event_link": ref.HTMLLink,
		"message":    fmt.Sprintf("Event '%s' created successfully", ref.Title),
	})
}

func (sc *ServerContext) handleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	client, err := sc.CalendarClient()
	if err != nil {
		writeErrorResponse(w, r, err)
		return
	}

	var req updateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, r, fmt.Errorf("invalid request body: %w", err))
		return
	}

	ref, err := client.UpdateEvent(r.Context(), r.PathValue("id"), calendar.UpdateEventInput{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		Date:        req.Date,
		Time:        req.Time,
		EndTime:     req.EndTime,
	})
	if err != nil {
		writeErrorResponse(w, r, err)
		return
	}

	slog.InfoContext(r.Context(), "event updated", logging.EventID(ref.ID))
	writeJSONResponse(w, http.StatusOK, map[string]any{
		"success":    true,
		"message":    "Event updated successfully",
		"event_link": ref.HTMLLink,
	})
}

func (sc *ServerContext) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	client, err := sc.CalendarClient()
	if err != nil {
		writeErrorResponse(w, r, err)
		return
	}

	eventID := r.PathValue("id")
	title, err := client.DeleteEvent(r.Context(), eventID)
	if err != nil {
		writeErrorResponse(w, r, err)
		return
	}

	slog.InfoContext(r.Context(), "event deleted", logging.EventID(eventID))
	writeJSONResponse(w, http.StatusOK, map[string]any{
		"success": true,
		"message": fmt.Sprintf("Event '%s' deleted successfully", title),
	})
}

func (sc *ServerContext) handleSearchEvents(w http.ResponseWriter, r *http.Request) {
	client, err := sc.CalendarClient()
	if err != nil {
		writeErrorResponse(w, r, err)
		return
	}

	query := r.URL.Query().Get("query")
	events, err := client.SearchEvents(r.Context(), query)
	if err != nil {
		writeErrorResponse(w, r, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{
		"success": true,
		"events":  events,
		"count":   len(events),
		"query":   query,
	})
}

func (sc *ServerContext) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSONResponse(w, http.StatusOK, map[string]any{
		"status":  "healthy",
		"service": serviceName,
	})
}

func writeJSONResponse(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeErrorResponse maps adapter errors to the failure envelope. Validation
// failures are the caller's fault (400); everything else, including remote
// and credential failures, surfaces as 500.
func writeErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError

	var verr *calendar.ValidationError
	if errors.As(err, &verr) {
		status = http.StatusBadRequest
	} else {
		slog.ErrorContext(r.Context(), "request failed",
			logging.Operation(r.Method+" "+r.URL.Path),
			logging.Err(err))
	}

	writeJSONResponse(w, status, map[string]any{
		"success": false,
		"error":   err.Error(),
	})
}
