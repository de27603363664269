package render

import (
	"context"
	"fmt"
	"strings"
)

// Source is what a PDF engine may draw from: the filled HTML template and
// the view it was filled with.
type Source struct {
	HTML string
	View View
}

// PDFEngine turns an invoice source into PDF bytes.
type PDFEngine interface {
	RenderPDF(ctx context.Context, src Source) ([]byte, error)
}

// Engine names accepted by configuration.
const (
	EngineChromedp  = "chromedp"
	EngineGotenberg = "gotenberg"
	EngineGofpdf    = "gofpdf"
)

// EngineConfig selects and configures a PDF engine.
type EngineConfig struct {
	Name         string
	ChromeURL    string
	NoSandbox    bool
	GotenbergURL string
	FontPath     string
}

// NewEngine builds the engine named in cfg. The returned close function
// releases engine resources and is never nil.
func NewEngine(cfg EngineConfig, opts ...ChromeOption) (PDFEngine, func() error, error) {
	noop := func() error { return nil }
	switch strings.ToLower(cfg.Name) {
	case EngineChromedp, "":
		eng := NewChromeEngine(append([]ChromeOption{
			WithRemoteURL(cfg.ChromeURL),
			WithNoSandbox(cfg.NoSandbox),
		}, opts...)...)
		return eng, eng.Close, nil
	case EngineGotenberg:
		if cfg.GotenbergURL == "" {
			return nil, noop, NewError(CodeUnsupported, "gotenberg engine requires a base URL", nil)
		}
		return NewGotenbergClient(cfg.GotenbergURL), noop, nil
	case EngineGofpdf:
		return NewNativePDF(cfg.FontPath), noop, nil
	}
	return nil, noop, NewError(CodeUnsupported, fmt.Sprintf("unknown pdf engine %q", cfg.Name), nil)
}
