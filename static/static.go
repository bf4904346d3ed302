// Package static embeds the API documentation assets served under /docs
// and /static.
package static

import "embed"

//go:embed openapi.json openapi.html
var FS embed.FS
