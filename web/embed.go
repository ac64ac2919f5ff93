// Package web embeds the static frontend served by the application.
package web

import "embed"

// Pages holds the HTML pages served under /html/. Access to each page is
// decided by the gate middleware, not by the file server.
//
//go:embed html
var Pages embed.FS

// Static holds shared assets served under /static/.
//
//go:embed static
var Static embed.FS
