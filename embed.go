package techpulse

import "embed"

// EmbeddedAssets contains static assets shipped with the application:
// search.js, editor.js, dashboard.js, site.css
//
//go:embed embedded/*
var EmbeddedAssets embed.FS
