// Package restapi is the stock REST transport for the session engine:
// profile fetch, login, and registration over a resty HTTP client. Non-2xx
// responses surface as structured goSession.StatusError values so the
// classifier never has to guess from message text.
package restapi
