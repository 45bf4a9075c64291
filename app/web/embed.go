// Package web 内嵌页面模板
package web

import (
	"embed"
	"html/template"
	"time"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Templates 解析内嵌模板
func Templates() (*template.Template, error) {
	return template.New("").Funcs(template.FuncMap{
		"datetime": datetime,
	}).ParseFS(templateFS, "templates/*.tmpl")
}

func datetime(v any) string {
	var t time.Time
	switch tv := v.(type) {
	case time.Time:
		t = tv
	case *time.Time:
		if tv != nil {
			t = *tv
		}
	}
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02 15:04")
}
