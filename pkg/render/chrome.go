package render

import (
	"context"
	"errors"
	"fmt"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// A4 in inches, as expected by the DevTools print API.
const (
	a4WidthInches  = 210 / 25.4
	a4HeightInches = 297 / 25.4
	marginInches   = 15 / 25.4
)

// ChromeOption configures a ChromeEngine.
type ChromeOption func(*ChromeEngine)

// WithRemoteURL connects to an already running Chrome instead of launching one.
func WithRemoteURL(url string) ChromeOption {
	return func(e *ChromeEngine) { e.remoteURL = url }
}

// WithNoSandbox runs Chrome without its sandbox, which containers running as root need.
func WithNoSandbox(v bool) ChromeOption {
	return func(e *ChromeEngine) { e.noSandbox = v }
}

// WithChromeLogger sets the logger used for DevTools debug output.
func WithChromeLogger(logger *zap.Logger) ChromeOption {
	return func(e *ChromeEngine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// ChromeEngine prints HTML to PDF with headless Chrome over the DevTools protocol.
type ChromeEngine struct {
	remoteURL string
	noSandbox bool
	logger    *zap.Logger

	allocCtx    context.Context
	allocCancel context.CancelFunc
}

// NewChromeEngine prepares a Chrome allocator. The browser itself starts on
// the first render.
func NewChromeEngine(opts ...ChromeOption) *ChromeEngine {
	e := &ChromeEngine{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}

	if e.remoteURL != "" {
		e.allocCtx, e.allocCancel = chromedp.NewRemoteAllocator(context.Background(), e.remoteURL)
		return e
	}
	flags := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("font-render-hinting", "none"),
	)
	if e.noSandbox {
		flags = append(flags, chromedp.NoSandbox)
	}
	e.allocCtx, e.allocCancel = chromedp.NewExecAllocator(context.Background(), flags...)
	return e
}

// RenderPDF loads src.HTML into a blank page and prints it as A4.
func (e *ChromeEngine) RenderPDF(ctx context.Context, src Source) ([]byte, error) {
	if e == nil || e.allocCtx == nil {
		return nil, NewError(CodeRenderFailed, "chrome engine not initialised", nil)
	}
	browserCtx, cancel := chromedp.NewContext(e.allocCtx,
		chromedp.WithLogf(func(format string, args ...any) {
			e.logger.Debug(fmt.Sprintf(format, args...))
		}),
	)
	defer cancel()

	// Bind the caller's deadline to the browser context.
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var pdf []byte
	err := chromedp.Run(browserCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, src.HTML).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			data, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(a4WidthInches).
				WithPaperHeight(a4HeightInches).
				WithMarginTop(marginInches).
				WithMarginBottom(marginInches).
				WithMarginLeft(marginInches).
				WithMarginRight(marginInches).
				Do(ctx)
			if err != nil {
				return err
			}
			pdf = data
			return nil
		}),
	)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, NewError(CodeRenderTimeout, "chrome rendering timed out", err)
		}
		return nil, NewError(CodeRenderFailed, "chrome rendering failed", err)
	}
	return pdf, nil
}

// Close shuts down the browser allocator.
func (e *ChromeEngine) Close() error {
	if e != nil && e.allocCancel != nil {
		e.allocCancel()
	}
	return nil
}

var _ PDFEngine = (*ChromeEngine)(nil)
