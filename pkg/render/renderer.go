package render

import (
	"context"
	"fmt"
	"html/template"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ryokai0809/juku-invoice/pkg/invoice"
)

// Format is the kind of document produced.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatHTML Format = "html"
	FormatXLSX Format = "xlsx"
)

// ParseFormat validates a format name. Empty means PDF.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "."))); f {
	case "":
		return FormatPDF, nil
	case FormatPDF, FormatHTML, FormatXLSX:
		return f, nil
	}
	return "", NewError(CodeUnsupported, fmt.Sprintf("unsupported format %q", s), nil)
}

// Extension returns the file extension, without the dot.
func (f Format) Extension() string { return string(f) }

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	switch f {
	case FormatHTML:
		return "text/html; charset=utf-8"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "application/pdf"
}

// Document is a rendered invoice.
type Document struct {
	Format Format
	Data   []byte
}

// Options select the output of a single Render call. Zero values fall back
// to the renderer defaults.
type Options struct {
	Format Format
	Locale Locale
}

// Config wires a Renderer.
type Config struct {
	Engine       PDFEngine
	Issuer       Issuer
	Locale       Locale
	TemplatePath string
	Timeout      time.Duration
	Logger       *zap.Logger
}

// Renderer projects invoices into documents.
type Renderer struct {
	tpl     *template.Template
	engine  PDFEngine
	issuer  Issuer
	locale  Locale
	timeout time.Duration
	logger  *zap.Logger
}

// NewRenderer parses the invoice template and wires the PDF engine.
func NewRenderer(cfg Config) (*Renderer, error) {
	tpl, err := ParseTemplate(cfg.TemplatePath)
	if err != nil {
		return nil, err
	}
	locale := cfg.Locale
	if locale == "" {
		locale = LocaleJA
	}
	if _, ok := conventions[locale]; !ok {
		return nil, NewError(CodeUnsupported, fmt.Sprintf("unsupported locale %q", locale), nil)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Renderer{
		tpl:     tpl,
		engine:  cfg.Engine,
		issuer:  cfg.Issuer,
		locale:  locale,
		timeout: timeout,
		logger:  logger,
	}, nil
}

// Render produces the document for inv.
func (r *Renderer) Render(ctx context.Context, inv invoice.Invoice, opts Options) (Document, error) {
	format := opts.Format
	if format == "" {
		format = FormatPDF
	}
	locale := opts.Locale
	if locale == "" {
		locale = r.locale
	}
	view, err := NewView(inv, r.issuer, locale)
	if err != nil {
		return Document{}, err
	}

	start := time.Now()
	var data []byte
	switch format {
	case FormatXLSX:
		data, err = BuildXLSX(view)
	case FormatHTML:
		var html string
		html, err = ExecuteHTML(r.tpl, view)
		data = []byte(html)
	case FormatPDF:
		data, err = r.renderPDF(ctx, view)
	default:
		err = NewError(CodeUnsupported, fmt.Sprintf("unsupported format %q", format), nil)
	}
	if err != nil {
		return Document{}, err
	}
	if len(data) == 0 {
		return Document{}, NewError(CodeEmptyOutput, string(format)+" output is empty", nil)
	}

	r.logger.Debug("invoice rendered",
		zap.String("format", string(format)),
		zap.String("locale", string(locale)),
		zap.Int("bytes", len(data)),
		zap.Duration("duration", time.Since(start)))
	return Document{Format: format, Data: data}, nil
}

func (r *Renderer) renderPDF(ctx context.Context, view View) ([]byte, error) {
	if r.engine == nil {
		return nil, NewError(CodeUnsupported, "no pdf engine configured", nil)
	}
	html, err := ExecuteHTML(r.tpl, view)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	pdf, err := r.engine.RenderPDF(ctx, Source{HTML: html, View: view})
	if err != nil {
		if CodeOf(err) == "" {
			return nil, NewError(CodeRenderFailed, "pdf engine", err)
		}
		return nil, err
	}
	return pdf, nil
}
