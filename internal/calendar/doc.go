// Package calendar wraps the Google Calendar API for a single fixed calendar.
//
// The client is the only component aware of both event shapes: the provider's
// native schema (nested start/end objects carrying dateTime/date/timeZone) and
// the simplified flat Event this service returns to its callers. All list,
// search, create, update and delete operations translate between the two at
// the boundary.
package calendar
