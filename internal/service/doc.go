// Package service contains the business logic layer of the application.
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (business layer) → validates, enforces ownership, orchestrates
//	Repository (data layer)  → reads/writes the database
//
// Services accept plain Go values, never *http.Request, so the same rules
// apply whether the caller is an HTTP handler or the recipectl CLI. They
// return apperror kinds (validation, not found, conflict); the handler layer
// decides what status code each kind becomes.
//
// Every service takes repository interfaces, not *sqlite.DB, so tests can
// hand it in-memory fakes.
package service
