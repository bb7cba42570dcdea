// Package config loads and validates dataset builder configuration via Viper.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/JakeFAU/news-archive-dataset/internal/archive"
	"github.com/JakeFAU/news-archive-dataset/internal/dispatcher"
	"github.com/JakeFAU/news-archive-dataset/internal/extract"
	"github.com/JakeFAU/news-archive-dataset/internal/logging"
	"github.com/JakeFAU/news-archive-dataset/internal/policy/ratelimit"
	"github.com/JakeFAU/news-archive-dataset/internal/stage"
	"github.com/JakeFAU/news-archive-dataset/internal/storage"
	pkgconfig "github.com/JakeFAU/news-archive-dataset/pkg/config"
)

// Config captures all configuration knobs loaded via Viper.
type Config struct {
	Logging       logging.Options     `mapstructure:"logging"`
	HTTP          HTTPConfig          `mapstructure:"http"`
	RateLimit     ratelimit.Config    `mapstructure:"rate_limit"`
	Portal        PortalConfig        `mapstructure:"portal"`
	Archive       ArchiveConfig       `mapstructure:"archive"`
	Discovery     DiscoveryConfig     `mapstructure:"discovery"`
	Extraction    ExtractionConfig    `mapstructure:"extraction"`
	Normalization NormalizationConfig `mapstructure:"normalization"`
	Output        OutputConfig        `mapstructure:"output"`
	Metrics       MetricsConfig       `mapstructure:"metrics"`
}

// HTTPConfig configures the outbound fetchers.
type HTTPConfig struct {
	UserAgent     string        `mapstructure:"user_agent"`
	RespectRobots bool          `mapstructure:"respect_robots"`
	LookupTimeout time.Duration `mapstructure:"lookup_timeout"`
	PageTimeout   time.Duration `mapstructure:"page_timeout"`
}

// PortalConfig describes the news portal being archived.
type PortalConfig struct {
	// Domain is the registrable domain; article hosts are <category>.<domain>.
	Domain     string            `mapstructure:"domain"`
	ListingURL string            `mapstructure:"listing_url"`
	Selectors  extract.Selectors `mapstructure:"selectors"`
}

// ArchiveConfig points at the snapshot availability API.
type ArchiveConfig struct {
	LookupEndpoint string `mapstructure:"lookup_endpoint"`
}

// DiscoveryConfig bounds the listing pages walked, [StartPage, EndPage).
type DiscoveryConfig struct {
	StartPage int `mapstructure:"start_page"`
	EndPage   int `mapstructure:"end_page"`
	Workers   int `mapstructure:"workers"`
}

// ExtractionConfig controls the extraction stage.
type ExtractionConfig struct {
	// Input is the snapshot URL list; empty means the discovery success file.
	Input        string `mapstructure:"input"`
	Workers      int    `mapstructure:"workers"`
	SkipExisting bool   `mapstructure:"skip_existing"`
}

// NormalizationConfig controls the normalization stage.
type NormalizationConfig struct {
	Workers       int    `mapstructure:"workers"`
	Language      string `mapstructure:"language"`
	StopwordsFile string `mapstructure:"stopwords_file"`
	LemmaFile     string `mapstructure:"lemma_file"`
}

// OutputConfig names every artifact of a run.
type OutputConfig struct {
	SuccessFile   string `mapstructure:"success_file"`
	PremiumFile   string `mapstructure:"premium_file"`
	FailedFile    string `mapstructure:"failed_file"`
	ExtractedDir  string `mapstructure:"extracted_dir"`
	NormalizedDir string `mapstructure:"normalized_dir"`

	storage.Config `mapstructure:",squash"`
}

// MetricsConfig controls the optional metrics HTTP server.
type MetricsConfig struct {
	// ListenAddr, e.g. ":9090"; empty disables the server.
	ListenAddr string `mapstructure:"listen_addr"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v, err := pkgconfig.NewViper(path)
	if err != nil {
		return Config{}, err
	}
	return FromViper(v)
}

// FromViper applies defaults to v and decodes it. Callers that bind CLI
// flags to v use this directly.
func FromViper(v *viper.Viper) (Config, error) {
	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	sel := extract.DefaultSelectors()

	v.SetDefault("logging.development", false)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.file", "")

	v.SetDefault("http.user_agent", "news-archive-dataset/0.1")
	v.SetDefault("http.respect_robots", false)
	v.SetDefault("http.lookup_timeout", "6s")
	v.SetDefault("http.page_timeout", "10s")

	v.SetDefault("rate_limit.requests_per_second", 1.0)
	v.SetDefault("rate_limit.burst", 1)
	v.SetDefault("rate_limit.min_delay", "5s")
	v.SetDefault("rate_limit.max_delay", "10s")

	v.SetDefault("portal.domain", "sme.sk")
	v.SetDefault("portal.listing_url", stage.DefaultListingURL)
	v.SetDefault("portal.selectors.premium", sel.Premium)
	v.SetDefault("portal.selectors.title", sel.Title)
	v.SetDefault("portal.selectors.introduction", sel.Introduction)
	v.SetDefault("portal.selectors.article", sel.Article)
	v.SetDefault("portal.selectors.listing", sel.Listing)

	v.SetDefault("archive.lookup_endpoint", archive.DefaultLookupEndpoint)

	v.SetDefault("discovery.start_page", 100)
	v.SetDefault("discovery.end_page", 12500)
	v.SetDefault("discovery.workers", 1)

	v.SetDefault("extraction.input", "")
	v.SetDefault("extraction.workers", 1)
	v.SetDefault("extraction.skip_existing", false)

	v.SetDefault("normalization.workers", 1)
	v.SetDefault("normalization.language", "sk")
	v.SetDefault("normalization.stopwords_file", "stop-words-sk.txt")
	v.SetDefault("normalization.lemma_file", "")

	v.SetDefault("output.success_file", "sme-archive-urls.txt")
	v.SetDefault("output.premium_file", "sme-archive-urls-premium.txt")
	v.SetDefault("output.failed_file", "sme-archive-urls-failed.txt")
	v.SetDefault("output.extracted_dir", "sme-archive-extracted-raw-content")
	v.SetDefault("output.normalized_dir", "sme-archive-preprocessed")
	v.SetDefault("output.backend", storage.BackendLocal)
	v.SetDefault("output.gcs_bucket", "")
	v.SetDefault("output.gcs_prefix", "")

	v.SetDefault("metrics.listen_addr", "")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.HTTP.LookupTimeout <= 0 {
		return fmt.Errorf("http.lookup_timeout must be > 0")
	}
	if c.HTTP.PageTimeout <= 0 {
		return fmt.Errorf("http.page_timeout must be > 0")
	}
	if err := c.RateLimit.Validate(); err != nil {
		return fmt.Errorf("rate_limit: %w", err)
	}
	if strings.TrimSpace(c.Portal.Domain) == "" {
		return fmt.Errorf("portal.domain must be set")
	}
	if strings.Count(c.Portal.ListingURL, "%d") != 1 {
		return fmt.Errorf("portal.listing_url must contain exactly one %%d")
	}
	if u, err := url.Parse(c.Archive.LookupEndpoint); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("archive.lookup_endpoint must be an absolute url")
	}
	if c.Discovery.StartPage < 0 || c.Discovery.EndPage < c.Discovery.StartPage {
		return fmt.Errorf("discovery page range [%d, %d) is invalid", c.Discovery.StartPage, c.Discovery.EndPage)
	}
	for name, workers := range map[string]int{
		"discovery.workers":     c.Discovery.Workers,
		"extraction.workers":    c.Extraction.Workers,
		"normalization.workers": c.Normalization.Workers,
	} {
		if _, err := dispatcher.ResolveWorkers(workers); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	if c.Output.SuccessFile == "" || c.Output.PremiumFile == "" || c.Output.FailedFile == "" {
		return fmt.Errorf("output url files must be set")
	}
	if c.Output.ExtractedDir == "" || c.Output.NormalizedDir == "" {
		return fmt.Errorf("output record directories must be set")
	}
	switch c.Output.Backend {
	case storage.BackendLocal, storage.BackendMemory:
	case storage.BackendGCS:
		if c.Output.GCSBucket == "" {
			return fmt.Errorf("output.gcs_bucket must be set for the gcs backend")
		}
	default:
		return fmt.Errorf("unknown output.backend %q", c.Output.Backend)
	}
	return nil
}

// ExtractionInput returns the URL list the extraction stage reads.
func (c Config) ExtractionInput() string {
	if c.Extraction.Input != "" {
		return c.Extraction.Input
	}
	return c.Output.SuccessFile
}
