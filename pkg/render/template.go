package render

import (
	"bytes"
	"embed"
	"html/template"
	"path/filepath"
)

//go:embed templates/*.html
var templateFS embed.FS

// ParseTemplate loads the invoice template. An empty path selects the
// built-in template; otherwise the file at path is parsed instead.
func ParseTemplate(path string) (*template.Template, error) {
	var (
		tpl *template.Template
		err error
	)
	if path == "" {
		tpl, err = template.New("invoice.html").ParseFS(templateFS, "templates/invoice.html")
	} else {
		tpl, err = template.New(filepath.Base(path)).ParseFiles(path)
	}
	if err != nil {
		return nil, NewError(CodeInvalidTemplate, "parse invoice template", err)
	}
	return tpl, nil
}

// ExecuteHTML fills tpl with view.
func ExecuteHTML(tpl *template.Template, view View) (string, error) {
	buf := &bytes.Buffer{}
	if err := tpl.Execute(buf, view); err != nil {
		return "", NewError(CodeInvalidTemplate, "execute invoice template", err)
	}
	return buf.String(), nil
}
