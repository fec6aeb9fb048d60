package site

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"
)

//go:embed static templates
var siteFS embed.FS

// FS returns an http.FileSystem for the embedded stylesheet and assets.
func FS() http.FileSystem {
	sub, err := fs.Sub(siteFS, "static")
	if err != nil {
		// Only fails when the embed directive is broken.
		return http.FS(siteFS)
	}
	return http.FS(sub)
}

// parsePage parses templates/layout.html together with one page template.
func parsePage(name string) (*template.Template, error) {
	return template.New(name).Funcs(funcs).ParseFS(siteFS, "templates/layout.html", "templates/"+name)
}
