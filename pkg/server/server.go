package server

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"

	"github.com/ryokai0809/juku-invoice/pkg/generator"
	"github.com/ryokai0809/juku-invoice/pkg/invoice"
	"github.com/ryokai0809/juku-invoice/pkg/metrics"
	"github.com/ryokai0809/juku-invoice/pkg/render"
	_ "github.com/ryokai0809/juku-invoice/pkg/server/docs"
	"github.com/ryokai0809/juku-invoice/pkg/storage"
)

//go:embed templates/index.html
var templatesFS embed.FS

const maxFormBytes = 5 * 1024 * 1024

// Builder renders invoices on demand.
type Builder interface {
	Build(ctx context.Context, req generator.Request) (generator.Result, error)
}

// Config wires a Server.
type Config struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Builder      Builder
	Clock        invoice.Clock
	Metrics      *metrics.Metrics
	Logger       *zap.Logger
	// HealthCheck, when set, is run by /healthz.
	HealthCheck func(ctx context.Context) error
	// DefaultFormat applies when a request names no format; empty leaves
	// the choice to the renderer.
	DefaultFormat render.Format
	// DefaultLocale preselects the form language. Requests without a
	// locale use the renderer default.
	DefaultLocale render.Locale
	// Defaults prefilled in the form.
	DefaultUnitPrice  string
	DefaultRefundRate string
}

// Server exposes invoice generation over HTTP.
type Server struct {
	cfg    Config
	index  *template.Template
	logger *zap.Logger
}

// New parses the form page and returns a server.
func New(cfg Config) (*Server, error) {
	if cfg.Builder == nil {
		return nil, errors.New("server: builder required")
	}
	if cfg.Clock == nil {
		cfg.Clock = invoice.SystemClock{}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	index, err := template.ParseFS(templatesFS, "templates/index.html")
	if err != nil {
		return nil, err
	}
	return &Server{cfg: cfg, index: index, logger: cfg.Logger}, nil
}

// Router returns the HTTP handler with all routes mounted.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	r.Use(requestID, s.accessLog, s.cfg.Metrics.Middleware)

	r.HandleFunc("/", s.indexHandler).Methods(http.MethodGet)
	r.HandleFunc("/generate-invoice", s.generateInvoiceHandler).Methods(http.MethodPost)
	r.HandleFunc("/healthz", s.healthHandler).Methods(http.MethodGet)
	r.Handle("/metrics", s.cfg.Metrics.Handler()).Methods(http.MethodGet)
	r.PathPrefix("/swagger/").Handler(httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.Router(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", s.cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("http server shutting down")
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) indexHandler(w http.ResponseWriter, r *http.Request) {
	data := map[string]any{
		"UnitPrice":  s.cfg.DefaultUnitPrice,
		"RefundRate": s.cfg.DefaultRefundRate,
		"Formats":    []render.Format{render.FormatPDF, render.FormatHTML, render.FormatXLSX},
		"Format":     s.cfg.DefaultFormat,
		"Locale":     s.cfg.DefaultLocale,
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.index.Execute(w, data); err != nil {
		s.logger.Error("render index page", zap.Error(err))
	}
}

// generateInvoiceHandler godoc
// @Summary  Generate a monthly invoice
// @Accept   x-www-form-urlencoded
// @Produce  application/pdf
// @Param    student_count formData int    true  "registered students"
// @Param    unit_price    formData number true  "price per student"
// @Param    refund_rate   formData number true  "fraction billed, 0..1"
// @Param    customer_name formData string true  "billed party"
// @Param    date          formData string false "reference date, YYYY-MM-DD"
// @Param    format        formData string false "pdf, html or xlsx"
// @Param    locale        formData string false "ja or en"
// @Success  200
// @Failure  400 {object} errorResponse
// @Failure  502 {object} errorResponse
// @Router   /generate-invoice [post]
func (s *Server) generateInvoiceHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxFormBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}

	req, err := s.parseRequest(r)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}

	res, err := s.cfg.Builder.Build(r.Context(), req)
	if err != nil {
		s.writeError(w, r, statusFor(err), err)
		return
	}

	doc := res.Document
	w.Header().Set("Content-Type", doc.Format.ContentType())
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": res.FileName}))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc.Data)
}

func (s *Server) parseRequest(r *http.Request) (generator.Request, error) {
	params, err := invoice.ParseParams(
		r.FormValue("student_count"),
		r.FormValue("unit_price"),
		r.FormValue("refund_rate"),
		r.FormValue("customer_name"),
	)
	if err != nil {
		return generator.Request{}, err
	}
	req := generator.Request{Params: params, Format: s.cfg.DefaultFormat}
	if raw := strings.TrimSpace(r.FormValue("format")); raw != "" {
		if req.Format, err = render.ParseFormat(raw); err != nil {
			return generator.Request{}, err
		}
	}
	if raw := strings.TrimSpace(r.FormValue("locale")); raw != "" {
		if req.Locale, err = render.ParseLocale(raw); err != nil {
			return generator.Request{}, err
		}
	}
	if raw := strings.TrimSpace(r.FormValue("date")); raw != "" {
		ref, err := time.ParseInLocation(time.DateOnly, raw, s.cfg.Clock.Now().Location())
		if err != nil {
			return generator.Request{}, &invoice.ValidationError{Fields: []invoice.FieldError{{Field: "date", Rule: "date", Value: raw}}}
		}
		req.ReferenceDate = ref
	}
	return req, nil
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if s.cfg.HealthCheck != nil {
		if err := s.cfg.HealthCheck(r.Context()); err != nil {
			s.logger.Warn("health check failed", zap.Error(err))
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

type errorResponse struct {
	Error     string   `json:"error"`
	Fields    []string `json:"fields,omitempty"`
	RequestID string   `json:"request_id,omitempty"`
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, invoice.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, render.ErrRendering):
		if render.CodeOf(err) == render.CodeUnsupported {
			return http.StatusBadRequest
		}
		return http.StatusBadGateway
	case errors.Is(err, storage.ErrIO):
		return http.StatusInternalServerError
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	resp := errorResponse{Error: err.Error(), RequestID: requestIDFrom(r.Context())}
	var verr *invoice.ValidationError
	if errors.As(err, &verr) {
		for _, f := range verr.Fields {
			resp.Fields = append(resp.Fields, f.Field)
		}
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("generate invoice", zap.Error(err), zap.String("request_id", resp.RequestID))
		resp.Error = http.StatusText(status)
		if status == http.StatusBadGateway {
			resp.Error = "invoice rendering failed"
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

type ctxKey struct{}

func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
	})
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &metrics.StatusRecorder{ResponseWriter: w, Status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.Status),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", requestIDFrom(r.Context())))
	})
}
