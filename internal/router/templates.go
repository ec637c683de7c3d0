package router

import (
	"fmt"
	"html/template"
	"strings"

	"hangspot/internal/utils"
	"hangspot/web"

	"github.com/gin-contrib/multitemplate"
)

// 每个页面 = 布局 + 公共片段 + 自身视图，以视图路径作为模板名
var views = []string{
	"auth/login.html",
	"auth/register.html",
	"update/list.html",
	"update/choose.html",
	"update/form.html",
	"user/profile.html",
	"error.html",
}

var funcMap = template.FuncMap{
	"markdown": utils.RenderMarkdown,
	"lower":    strings.ToLower,
	"add": func(a, b int) int {
		return a + b
	},
	"deref": func(p *int) int {
		if p == nil {
			return 0
		}
		return *p
	},
}

func loadTemplates() (multitemplate.Render, error) {
	r := multitemplate.New()

	for _, view := range views {
		// root template must be named after the layout so Execute renders it
		tmpl, err := template.New("base.html").Funcs(funcMap).ParseFS(web.Templates,
			"templates/layouts/base.html",
			"templates/includes/*.html",
			"templates/views/"+view,
		)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", view, err)
		}
		r.Add(view, tmpl)
	}

	return r, nil
}
