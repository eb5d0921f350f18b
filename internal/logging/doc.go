// Package logging provides slog attribute helpers for consistent structured
// logging across the calendar-api codebase.
package logging
