// Package web embeds the static frontend assets.
package web

import "embed"

// StaticFS contains the static catalog page.
//
//go:embed static
var StaticFS embed.FS
