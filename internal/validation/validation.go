// Package validation contains the logic for validating
// request data.
//
// It uses the `validator` library to enforce rules (like
// required fields, length bounds or the owner/repo shape) defined
// in struct tags and collects every violation into a list of
// messages the client can act on in one round trip.
package validation
