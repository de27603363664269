// cmd/main.go

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/ryokai0809/juku-invoice/pkg/config"
	"github.com/ryokai0809/juku-invoice/pkg/generator"
	"github.com/ryokai0809/juku-invoice/pkg/invoice"
	"github.com/ryokai0809/juku-invoice/pkg/logging"
	"github.com/ryokai0809/juku-invoice/pkg/metrics"
	"github.com/ryokai0809/juku-invoice/pkg/render"
	"github.com/ryokai0809/juku-invoice/pkg/server"
	"github.com/ryokai0809/juku-invoice/pkg/storage"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp(os.Stdout, os.Stderr).RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      "invoice",
		Usage:     "generate monthly student-count invoices",
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "engine", Usage: "pdf engine: chromedp, gotenberg or gofpdf", EnvVars: []string{"INVOICE_ENGINE"}},
			&cli.StringFlag{Name: "locale", Usage: "document language: ja or en", EnvVars: []string{"INVOICE_LOCALE"}},
			&cli.StringFlag{Name: "profile", Usage: "YAML issuer profile", EnvVars: []string{"INVOICE_PROFILE"}},
			&cli.StringFlag{Name: "font", Usage: "UTF-8 TrueType font for the gofpdf engine", EnvVars: []string{"INVOICE_FONT_PATH"}},
			&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error", EnvVars: []string{"INVOICE_LOG_LEVEL"}},
		},
		Commands: []*cli.Command{
			generateCommand(),
			serveCommand(),
		},
	}
}

func generateCommand() *cli.Command {
	return &cli.Command{
		Name:  "generate",
		Usage: "compute one invoice and write it to a file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "students", Aliases: []string{"n"}, Usage: "registered student count", Required: true},
			&cli.StringFlag{Name: "unit-price", Aliases: []string{"p"}, Usage: "price per student", Required: true},
			&cli.StringFlag{Name: "refund-rate", Aliases: []string{"r"}, Usage: "billed fraction, 0.3 or 30%", Required: true},
			&cli.StringFlag{Name: "customer", Aliases: []string{"c"}, Usage: "billed party", Required: true},
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "output file (default invoice_YYYYMM_<customer>.<format>)"},
			&cli.StringFlag{Name: "date", Usage: "reference date YYYY-MM-DD (default today)"},
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: "pdf, html or xlsx"},
			&cli.BoolFlag{Name: "upload", Usage: "also upload the document to INVOICE_S3_BUCKET"},
			&cli.BoolFlag{Name: "lenient", Usage: "skip input range validation"},
		},
		Action: runGenerate,
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "serve the invoice form and API over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Usage: "listen address", EnvVars: []string{"INVOICE_HTTP_ADDR"}},
		},
		Action: runServe,
	}
}

// app bundles the objects built from configuration.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	engine   render.PDFEngine
	renderer *render.Renderer
	close    func() error
}

func setup(c *cli.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	overrides := map[string]*string{
		"engine":    &cfg.Engine,
		"locale":    &cfg.Locale,
		"font":      &cfg.FontPath,
		"log-level": &cfg.LogLevel,
	}
	for name, dst := range overrides {
		if c.IsSet(name) {
			*dst = c.String(name)
		}
	}
	if c.IsSet("profile") {
		if cfg.Issuer, err = config.LoadProfile(c.String("profile")); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, err := logging.New(loggingConfig(cfg))
	if err != nil {
		return nil, err
	}
	engine, closeEngine, err := render.NewEngine(cfg.EngineConfig(), render.WithChromeLogger(logger.Named("chrome")))
	if err != nil {
		return nil, err
	}
	locale, _ := render.ParseLocale(cfg.Locale)
	renderer, err := render.NewRenderer(render.Config{
		Engine:       engine,
		Issuer:       cfg.Issuer,
		Locale:       locale,
		TemplatePath: cfg.TemplatePath,
		Timeout:      cfg.RenderTimeout,
		Logger:       logger.Named("render"),
	})
	if err != nil {
		_ = closeEngine()
		return nil, err
	}
	return &app{cfg: cfg, logger: logger, engine: engine, renderer: renderer, close: closeEngine}, nil
}

// loggingConfig overlays the configured log settings on the logging defaults.
func loggingConfig(cfg *config.Config) logging.Config {
	out := logging.DefaultConfig()
	if cfg.LogLevel != "" {
		out.Level = cfg.LogLevel
	}
	if cfg.LogFormat != "" {
		out.Format = cfg.LogFormat
	}
	if cfg.LogOutput != "" {
		out.Output = cfg.LogOutput
	}
	return out
}

// engineHealthCheck returns a check for engines backed by a remote service,
// or nil when the engine has nothing to check.
func engineHealthCheck(engine render.PDFEngine) func(context.Context) error {
	if gotenberg, ok := engine.(*render.GotenbergClient); ok {
		return gotenberg.Ping
	}
	return nil
}

func (a *app) shutdown() {
	_ = a.close()
	_ = a.logger.Sync()
}

func runGenerate(c *cli.Context) error {
	a, err := setup(c)
	if err != nil {
		return err
	}
	defer a.shutdown()

	params, err := invoice.ParseParams(c.String("students"), c.String("unit-price"), c.String("refund-rate"), c.String("customer"))
	if err != nil {
		return err
	}
	formatName := a.cfg.Format
	if c.IsSet("format") {
		formatName = c.String("format")
	}
	format, err := render.ParseFormat(formatName)
	if err != nil {
		return err
	}
	req := generator.Request{
		Params:     params,
		OutputPath: c.String("output"),
		Format:     format,
		Lenient:    c.Bool("lenient"),
	}
	if raw := c.String("date"); raw != "" {
		if req.ReferenceDate, err = time.ParseInLocation(time.DateOnly, raw, time.Local); err != nil {
			return fmt.Errorf("invalid --date %q: %w", raw, err)
		}
	}

	gcfg := generator.Config{
		Renderer:  a.renderer,
		Files:     &storage.FileSink{Logger: a.logger.Named("storage")},
		OutputDir: a.cfg.OutputDir,
		Logger:    a.logger,
		Stdout:    c.App.Writer,
	}
	if c.Bool("upload") {
		sink, err := storage.NewS3Sink(storage.S3Config{
			Bucket:   a.cfg.S3Bucket,
			Region:   a.cfg.S3Region,
			Prefix:   a.cfg.S3Prefix,
			Endpoint: a.cfg.S3Endpoint,
		}, a.logger.Named("s3"))
		if err != nil {
			return err
		}
		gcfg.Objects = sink
	}
	gen, err := generator.New(gcfg)
	if err != nil {
		return err
	}
	_, err = gen.Generate(c.Context, req)
	return err
}

func runServe(c *cli.Context) error {
	a, err := setup(c)
	if err != nil {
		return err
	}
	defer a.shutdown()

	m := metrics.New()
	gen, err := generator.New(generator.Config{
		Renderer: a.renderer,
		Recorder: m,
		Logger:   a.logger,
	})
	if err != nil {
		return err
	}
	addr := a.cfg.HTTPAddr
	if c.IsSet("addr") {
		addr = c.String("addr")
	}
	format, err := render.ParseFormat(a.cfg.Format)
	if err != nil {
		return err
	}
	locale, err := render.ParseLocale(a.cfg.Locale)
	if err != nil {
		return err
	}
	scfg := server.Config{
		Addr:              addr,
		ReadTimeout:       a.cfg.HTTPReadTimeout,
		WriteTimeout:      a.cfg.HTTPWriteTimeout,
		Builder:           gen,
		Metrics:           m,
		Logger:            a.logger.Named("http"),
		DefaultFormat:     format,
		DefaultLocale:     locale,
		DefaultUnitPrice:  "1000",
		DefaultRefundRate: "0.3",
	}
	if check := engineHealthCheck(a.engine); check != nil {
		scfg.HealthCheck = check
		if err := check(c.Context); err != nil {
			a.logger.Warn("pdf engine not reachable", zap.String("engine", a.cfg.Engine), zap.Error(err))
		}
	}
	srv, err := server.New(scfg)
	if err != nil {
		return err
	}
	return srv.Run(c.Context)
}
