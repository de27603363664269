package generator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/ryokai0809/juku-invoice/pkg/invoice"
	"github.com/ryokai0809/juku-invoice/pkg/metrics"
	"github.com/ryokai0809/juku-invoice/pkg/render"
	"github.com/ryokai0809/juku-invoice/pkg/storage"
)

// DocumentRenderer produces a document from an invoice.
type DocumentRenderer interface {
	Render(ctx context.Context, inv invoice.Invoice, opts render.Options) (render.Document, error)
}

// FileSaver stages a document next to its local path. The staged file
// replaces the target only on Commit.
type FileSaver interface {
	Stage(ctx context.Context, path string, data []byte) (*storage.PendingFile, error)
}

// ObjectSaver copies a document to object storage.
type ObjectSaver interface {
	Save(ctx context.Context, name string, data []byte, contentType string) (string, error)
}

// Recorder observes generation outcomes.
type Recorder interface {
	ObserveGeneration(format, outcome string, d time.Duration)
}

// Request describes one invoice to generate.
type Request struct {
	Params invoice.Params
	// ReferenceDate is treated as "today"; zero means the generator clock.
	ReferenceDate time.Time
	// OutputPath is the target file; empty means OutputDir plus the default name.
	OutputPath string
	Format     render.Format
	Locale     render.Locale
	// Lenient skips input validation.
	Lenient bool
}

// Result describes a generated invoice.
type Result struct {
	Invoice  invoice.Invoice
	Document render.Document
	FileName string
	Path     string
	// Location is the object storage URL, when an upload happened.
	Location string
}

// Config wires a Generator. Renderer is required.
type Config struct {
	Renderer  DocumentRenderer
	Files     FileSaver
	Objects   ObjectSaver
	Clock     invoice.Clock
	OutputDir string
	Recorder  Recorder
	Logger    *zap.Logger
	// Stdout receives the confirmation message.
	Stdout io.Writer
}

// Generator computes, renders and stores invoices.
type Generator struct {
	renderer  DocumentRenderer
	files     FileSaver
	objects   ObjectSaver
	clock     invoice.Clock
	outputDir string
	recorder  Recorder
	logger    *zap.Logger
	stdout    io.Writer
}

// New constructs a Generator.
func New(cfg Config) (*Generator, error) {
	if cfg.Renderer == nil {
		return nil, errors.New("generator: renderer required")
	}
	g := &Generator{
		renderer:  cfg.Renderer,
		files:     cfg.Files,
		objects:   cfg.Objects,
		clock:     cfg.Clock,
		outputDir: cfg.OutputDir,
		recorder:  cfg.Recorder,
		logger:    cfg.Logger,
		stdout:    cfg.Stdout,
	}
	if g.files == nil {
		g.files = &storage.FileSink{Logger: cfg.Logger}
	}
	if g.clock == nil {
		g.clock = invoice.SystemClock{}
	}
	if g.logger == nil {
		g.logger = zap.NewNop()
	}
	if g.stdout == nil {
		g.stdout = os.Stdout
	}
	return g, nil
}

// Build computes and renders an invoice without storing it.
func (g *Generator) Build(ctx context.Context, req Request) (Result, error) {
	start := time.Now()
	res, err := g.build(ctx, req)
	g.observe(req.Format, err, start)
	return res, err
}

// Generate builds the invoice, writes it to disk and, when object storage
// is configured, uploads a copy. It prints one confirmation line on success.
func (g *Generator) Generate(ctx context.Context, req Request) (Result, error) {
	start := time.Now()
	res, err := g.generate(ctx, req)
	g.observe(req.Format, err, start)
	if err != nil {
		return Result{}, err
	}
	fmt.Fprintf(g.stdout, "invoice generated: %s\n", res.Path)
	return res, nil
}

func (g *Generator) generate(ctx context.Context, req Request) (Result, error) {
	res, err := g.build(ctx, req)
	if err != nil {
		return Result{}, err
	}

	path := req.OutputPath
	if path == "" {
		path = filepath.Join(g.outputDir, res.FileName)
	}
	pending, err := g.files.Stage(ctx, path, res.Document.Data)
	if err != nil {
		return Result{}, err
	}
	// A file already at path is only replaced once the upload succeeded.
	if g.objects != nil {
		if res.Location, err = g.objects.Save(ctx, filepath.Base(path), res.Document.Data, res.Document.Format.ContentType()); err != nil {
			pending.Abort()
			return Result{}, err
		}
	}
	if res.Path, err = pending.Commit(); err != nil {
		if res.Location != "" {
			g.logger.Warn("local write failed after upload", zap.String("location", res.Location), zap.Error(err))
		}
		return Result{}, err
	}

	g.logger.Info("invoice stored",
		zap.String("customer", res.Invoice.CustomerName()),
		zap.Stringer("billing_month", res.Invoice.BillingMonth()),
		zap.Int64("total_amount", res.Invoice.TotalAmount()),
		zap.String("path", res.Path),
		zap.String("location", res.Location),
		zap.Int("bytes", len(res.Document.Data)))
	return res, nil
}

func (g *Generator) build(ctx context.Context, req Request) (Result, error) {
	ref := req.ReferenceDate
	if ref.IsZero() {
		ref = g.clock.Now()
	}
	var opts []invoice.Option
	if req.Lenient {
		opts = append(opts, invoice.WithoutValidation())
	}
	inv, err := invoice.Compute(req.Params, ref, opts...)
	if err != nil {
		return Result{}, err
	}

	doc, err := g.renderer.Render(ctx, inv, render.Options{Format: req.Format, Locale: req.Locale})
	if err != nil {
		return Result{}, err
	}
	return Result{
		Invoice:  inv,
		Document: doc,
		FileName: storage.DefaultFileName(inv, doc.Format.Extension()),
	}, nil
}

func (g *Generator) observe(format render.Format, err error, start time.Time) {
	if g.recorder == nil {
		return
	}
	if format == "" {
		format = render.FormatPDF
	}
	g.recorder.ObserveGeneration(string(format), Outcome(err), time.Since(start))
}

// Outcome classifies err into a metrics outcome label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, invoice.ErrInvalidInput):
		return metrics.OutcomeInvalidInput
	case errors.Is(err, render.ErrRendering):
		return metrics.OutcomeRenderError
	case errors.Is(err, storage.ErrIO):
		return metrics.OutcomeIOError
	}
	return metrics.OutcomeError
}
