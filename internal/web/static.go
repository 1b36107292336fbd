package web

import (
	"embed"
)

// staticFiles holds the control panel page, script and stylesheet.
//
//go:embed static/*
var staticFiles embed.FS
