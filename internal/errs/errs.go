// Package errs define custom error types and utilities.
//
// Its purpose is to create specific error structures..
// (e.g. validation details or dispatch failures)..
// to ensure the client receive meaningful, actionable, and consistent..
// error messages.
//
// - Return consistent error shapes to API clients (JSON).
// - Keep remote/integration failures behind fixed, non-leaking messages.
// - Provide errors that play nicely with Go's standard errors package.
package errs
