// Package service contains the business logic.
//
// It sits between the handler layer and the integrations in lib.
// It receives validated data from the handler, performs
// the dispatch, and translates integration failures into
// client-facing errors.
package service
