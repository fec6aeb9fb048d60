package site

import (
	"fmt"
	"html/template"
	"time"
)

var funcs = template.FuncMap{
	"date": func(t *time.Time) string {
		if t == nil {
			return "无日期"
		}
		return t.Format(time.DateOnly)
	},
	// isodate fills date inputs; nil is empty.
	"isodate": func(t *time.Time) string {
		if t == nil {
			return ""
		}
		return t.Format(time.DateOnly)
	},
	"is": func(p *string, v string) bool { return p != nil && *p == v },
	"pct": func(v float64) string { return fmt.Sprintf("%.1f%%", v) },
	// share renders a 0..1 fraction as a percentage.
	"share": func(v float64) string { return fmt.Sprintf("%.1f%%", v*100) },
	"num":   func(v float64) string { return fmt.Sprintf("%.2f", v) },
	"str": func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	},
	"int": func(n *int) string {
		if n == nil {
			return ""
		}
		return fmt.Sprint(*n)
	},
	"optnum": func(v *float64) string {
		if v == nil {
			return "-"
		}
		return fmt.Sprintf("%.2f", *v)
	},
}
