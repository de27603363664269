package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/ryokai0809/juku-invoice/pkg/render"
)

// Config holds runtime configuration, read from INVOICE_* environment variables.
type Config struct {
	Engine        string        `envconfig:"ENGINE" default:"chromedp"`
	Locale        string        `envconfig:"LOCALE" default:"ja"`
	Format        string        `envconfig:"FORMAT" default:"pdf"`
	RenderTimeout time.Duration `envconfig:"RENDER_TIMEOUT" default:"30s"`
	TemplatePath  string        `envconfig:"TEMPLATE"`
	ProfilePath   string        `envconfig:"PROFILE"`

	ChromeURL       string `envconfig:"CHROME_URL"`
	ChromeNoSandbox bool   `envconfig:"CHROME_NO_SANDBOX" default:"false"`
	GotenbergURL    string `envconfig:"GOTENBERG_URL" default:"http://127.0.0.1:3000"`
	FontPath        string `envconfig:"FONT_PATH"`

	OutputDir  string `envconfig:"OUTPUT_DIR" default:"."`
	S3Bucket   string `envconfig:"S3_BUCKET"`
	S3Region   string `envconfig:"S3_REGION" default:"ap-northeast-1"`
	S3Prefix   string `envconfig:"S3_PREFIX" default:"invoices"`
	S3Endpoint string `envconfig:"S3_ENDPOINT"`

	HTTPAddr         string        `envconfig:"HTTP_ADDR" default:":8080"`
	HTTPReadTimeout  time.Duration `envconfig:"HTTP_READ_TIMEOUT" default:"15s"`
	HTTPWriteTimeout time.Duration `envconfig:"HTTP_WRITE_TIMEOUT" default:"60s"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"console"`
	LogOutput string `envconfig:"LOG_OUTPUT" default:"stderr"`

	Issuer render.Issuer `ignored:"true"`
}

// Profile is the YAML document describing the issuing organisation.
type Profile struct {
	Issuer render.Issuer `yaml:"issuer"`
}

// Load reads configuration from the environment and, when INVOICE_PROFILE
// is set, the issuer profile it points to.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("invoice", &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	issuer, err := LoadProfile(cfg.ProfilePath)
	if err != nil {
		return nil, err
	}
	cfg.Issuer = issuer
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadProfile reads an issuer profile. Keys missing from the file keep
// their default values; an empty path yields the defaults.
func LoadProfile(path string) (render.Issuer, error) {
	profile := Profile{Issuer: render.DefaultIssuer()}
	if path == "" {
		return profile.Issuer, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return render.Issuer{}, fmt.Errorf("config: read profile: %w", err)
	}
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return render.Issuer{}, fmt.Errorf("config: parse profile %s: %w", path, err)
	}
	return profile.Issuer, nil
}

// Validate checks the enumerated settings.
func (c *Config) Validate() error {
	switch c.Engine {
	case render.EngineChromedp, render.EngineGotenberg, render.EngineGofpdf:
	default:
		return fmt.Errorf("config: unknown engine %q", c.Engine)
	}
	if _, err := render.ParseLocale(c.Locale); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if _, err := render.ParseFormat(c.Format); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.RenderTimeout <= 0 {
		return fmt.Errorf("config: render timeout must be positive")
	}
	return nil
}

// EngineConfig returns the PDF engine settings.
func (c *Config) EngineConfig() render.EngineConfig {
	return render.EngineConfig{
		Name:         c.Engine,
		ChromeURL:    c.ChromeURL,
		NoSandbox:    c.ChromeNoSandbox,
		GotenbergURL: c.GotenbergURL,
		FontPath:     c.FontPath,
	}
}
