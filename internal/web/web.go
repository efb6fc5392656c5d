// Package web holds the embedded pages and the companion userscript.
package web

import (
	"embed"
	"html/template"
)

// ScriptName is the download name of the companion userscript.
const ScriptName = "userscript.js"

//go:embed templates/*.html
var templateFiles embed.FS

//go:embed static/userscript.js
var Userscript []byte

// Pages is parsed once; execute a page by its file name, e.g. "index.html".
var Pages = template.Must(template.ParseFS(templateFiles, "templates/*.html"))
