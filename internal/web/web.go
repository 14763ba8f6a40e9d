// Package web holds the page templates. Every page is rendered through the
// "base" layout, which picks the body by the Page value.
package web

import (
	"embed"
	"html/template"
	"strings"
	"unicode"

	"github.com/jwalitptl/medbook-web/internal/model"
)

//go:embed templates/*.html
var files embed.FS

func Funcs() template.FuncMap {
	return template.FuncMap{
		"availability": model.FormatAvailability,
		"slot":         model.FormatSlot,
		"day":          model.NormalizeDate,
		"capitalize":   capitalize,
		"eq2":          func(a, b string) bool { return a == b },
	}
}

func Templates() (*template.Template, error) {
	return template.New("").Funcs(Funcs()).ParseFS(files, "templates/*.html")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return strings.TrimSpace(string(r))
}
