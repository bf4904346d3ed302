// Package handler is the HTTP layer between the router and the services.
//
// It binds and validates request bodies through the validation package,
// calls the matching service and writes the response. Errors are returned
// untouched so the global error handler can shape them.
package handler
