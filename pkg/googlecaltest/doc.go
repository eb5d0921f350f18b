// Package googlecaltest provides an in-memory fake of the Google Calendar API
// v3 Events endpoints for testing.
//
// The fake implements list (with timeMin/timeMax, free-text q filtering,
// maxResults and startTime ordering), insert, get, update and delete. Point a
// calendar service at it with option.WithEndpoint:
//
//	srv := googlecaltest.NewServer()
//	defer srv.Close()
//
//	svc, err := calendar.NewService(ctx,
//	    option.WithHTTPClient(http.DefaultClient),
//	    option.WithEndpoint(srv.URL))
//
// Helpers exist for test setup and assertions: AddEvent pre-populates
// events, Events returns the stored state, Calls reports how many requests
// each operation served (useful for asserting that a code path never reached
// the remote collaborator), and Reset clears everything between tests.
package googlecaltest
