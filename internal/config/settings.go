package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Settings is the single tunable configuration passed to the classifier,
// aggregator, numbering engine, planner and executor.
type Settings struct {
	LogLevel   string             `yaml:"log_level"`
	Classifier ClassifierSettings `yaml:"classifier"`
	Aggregator AggregatorSettings `yaml:"aggregator"`
	Numbering  NumberingSettings  `yaml:"numbering"`
	Paginate   PaginateSettings   `yaml:"paginate"`
	Routing    RoutingSettings    `yaml:"routing"`
	Retry      RetrySettings      `yaml:"retry"`
	Cache      CacheSettings      `yaml:"cache"`
	Quote      QuoteSettings      `yaml:"quote"`
	Server     ServerSettings     `yaml:"server"`
	Workers    WorkerSettings     `yaml:"workers"`
}

// ClassifierSettings holds every threshold of the line classifier.
// Distances are PDF points, bands are fractions of the page rectangle.
type ClassifierSettings struct {
	WatermarkKeywords     []string `yaml:"watermark_keywords"`
	WatermarkCenterRadius float64  `yaml:"watermark_center_radius"`
	WatermarkMaxTokens    int      `yaml:"watermark_max_tokens"`

	HeaderFooterBand    float64  `yaml:"header_footer_band"`
	BoilerplateKeywords []string `yaml:"boilerplate_keywords"`

	SideMarginBand float64 `yaml:"side_margin_band"`
	MinLineHeight  float64 `yaml:"min_line_height"`
	MinLineWidth   float64 `yaml:"min_line_width"`

	TableHeaderKeywords []string `yaml:"table_header_keywords"`
	TableMinChars       int      `yaml:"table_min_chars"`
	TableSymbolDensity  float64  `yaml:"table_symbol_density"`
	NumericCellMaxChars int      `yaml:"numeric_cell_max_chars"`
	ShortTokenMaxChars  int      `yaml:"short_token_max_chars"`
}

// AggregatorSettings controls how spans become lines.
type AggregatorSettings struct {
	// fraction of the smaller span height two spans must share vertically to sit on one line
	LineOverlapRatio float64 `yaml:"line_overlap_ratio"`
	// horizontal gap, in points, that splits a band into separate lines (table cells, columns)
	ColumnGap float64 `yaml:"column_gap"`
	// gap as a fraction of font size above which a space is inserted between spans
	SpaceGapRatio float64 `yaml:"space_gap_ratio"`
}

type NumberingSettings struct {
	Interval    int     `yaml:"interval"`
	FontSize    float64 `yaml:"font_size"`
	Color       string  `yaml:"color"`
	RightOffset float64 `yaml:"right_offset"`
}

type PaginateSettings struct {
	FontSize     float64 `yaml:"font_size"`
	BottomOffset float64 `yaml:"bottom_offset"`
}

// RoutingSettings decides between the direct and the chunked path and sizes the pools.
type RoutingSettings struct {
	MassiveThreshold int64         `yaml:"massive_threshold"`
	ChunkSize        int64         `yaml:"chunk_size"`
	MassiveWorkers   int           `yaml:"massive_workers"`
	DirectWorkers    int           `yaml:"direct_workers"`
	DocumentWorkers  int           `yaml:"document_workers"`
	PaceDelay        time.Duration `yaml:"pace_delay"`
	ChunkTimeout     time.Duration `yaml:"chunk_timeout"`
	VolumePageLimit  int           `yaml:"volume_page_limit"`
	PagesPerSecond   float64       `yaml:"pages_per_second"`
}

type RetrySettings struct {
	Attempts    int           `yaml:"attempts"`
	BaseBackoff time.Duration `yaml:"base_backoff"`
	MaxBackoff  time.Duration `yaml:"max_backoff"`
}

type CacheSettings struct {
	ShortTTL time.Duration `yaml:"short_ttl"`
	LongTTL  time.Duration `yaml:"long_ttl"`
}

type QuoteSettings struct {
	PricePerPagePerService int    `yaml:"price_per_page_per_service"`
	Currency               string `yaml:"currency"`
}

// ServerSettings bounds what a single client can push through the API.
type ServerSettings struct {
	RateLimitPerSecond float64 `yaml:"rate_limit_per_second"`
	RateLimitBurst     int     `yaml:"rate_limit_burst"`
	// a client limiter unused for this long is dropped
	LimiterIdleTTL time.Duration `yaml:"limiter_idle_ttl"`
}

// WorkerSettings sizes the background job pool.
type WorkerSettings struct {
	Min int64 `yaml:"min"`
	Max int64 `yaml:"max"`
	// queued jobs between two scale-up signals
	RequestsPerNewWorker int64         `yaml:"requests_per_new_worker"`
	IdleTimeout          time.Duration `yaml:"idle_timeout"`
	JobTimeout           time.Duration `yaml:"job_timeout"`
	// budget for the terminal status write after the job context is gone
	FinalizeTimeout time.Duration `yaml:"finalize_timeout"`
}

func Default() Settings {
	return Settings{
		LogLevel: "debug",
		Classifier: ClassifierSettings{
			WatermarkKeywords:     []string{"confidential", "draft", "sample", "watermark", "specimen", "preview", "do not copy"},
			WatermarkCenterRadius: 50,
			WatermarkMaxTokens:    4,
			HeaderFooterBand:      0.10,
			BoilerplateKeywords:   []string{"all rights reserved", "attorney-client", "privileged", "attorney work product", "case no"},
			SideMarginBand:        0.05,
			MinLineHeight:         10,
			MinLineWidth:          50,
			TableHeaderKeywords: []string{"name", "date", "amount", "total", "item", "description", "quantity",
				"price", "cost", "number", "id", "type", "status", "yes", "no", "n/a", "tbd", "pending"},
			TableMinChars:       3,
			TableSymbolDensity:  0.5,
			NumericCellMaxChars: 20,
			ShortTokenMaxChars:  15,
		},
		Aggregator: AggregatorSettings{
			LineOverlapRatio: 0.5,
			ColumnGap:        36,
			SpaceGapRatio:    0.15,
		},
		Numbering: NumberingSettings{
			Interval:    10,
			FontSize:    8,
			Color:       "#808080",
			RightOffset: 30,
		},
		Paginate: PaginateSettings{
			FontSize:     10,
			BottomOffset: 30,
		},
		Routing: RoutingSettings{
			MassiveThreshold: 10 << 20,
			ChunkSize:        2 << 20,
			MassiveWorkers:   2,
			DirectWorkers:    4,
			DocumentWorkers:  2,
			PaceDelay:        100 * time.Millisecond,
			ChunkTimeout:     2 * time.Minute,
			VolumePageLimit:  500,
			PagesPerSecond:   50,
		},
		Retry: RetrySettings{
			Attempts:    3,
			BaseBackoff: 500 * time.Millisecond,
			MaxBackoff:  10 * time.Second,
		},
		Cache: CacheSettings{
			ShortTTL: 1 * time.Hour,
			LongTTL:  24 * time.Hour,
		},
		Quote: QuoteSettings{
			PricePerPagePerService: 1,
			Currency:               "KSH",
		},
		Server: ServerSettings{
			RateLimitPerSecond: 2,
			RateLimitBurst:     5,
			LimiterIdleTTL:     3 * time.Minute,
		},
		Workers: WorkerSettings{
			Min:                  1,
			Max:                  4,
			RequestsPerNewWorker: 10,
			IdleTimeout:          1 * time.Minute,
			JobTimeout:           10 * time.Minute,
			FinalizeTimeout:      10 * time.Second,
		},
	}
}

// Load reads a YAML file over Default(). An empty path returns the defaults
// with environment overrides applied.
func Load(path string) (Settings, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	applyEnv(&cfg)
	return cfg, cfg.Validate()
}

func (s Settings) Validate() error {
	var errs []error
	if s.Numbering.Interval <= 0 {
		errs = append(errs, errors.New("numbering.interval must be > 0"))
	}
	if s.Routing.MassiveWorkers <= 0 || s.Routing.DirectWorkers <= 0 || s.Routing.DocumentWorkers <= 0 {
		errs = append(errs, errors.New("routing worker counts must be > 0"))
	}
	if s.Routing.ChunkSize <= 0 {
		errs = append(errs, errors.New("routing.chunk_size must be > 0"))
	}
	if s.Routing.ChunkTimeout <= 0 {
		errs = append(errs, errors.New("routing.chunk_timeout must be > 0"))
	}
	if s.Retry.Attempts <= 0 {
		errs = append(errs, errors.New("retry.attempts must be > 0"))
	}
	if s.Classifier.HeaderFooterBand < 0 || s.Classifier.HeaderFooterBand >= 0.5 {
		errs = append(errs, errors.New("classifier.header_footer_band must be in [0, 0.5)"))
	}
	if s.Classifier.SideMarginBand < 0 || s.Classifier.SideMarginBand >= 0.5 {
		errs = append(errs, errors.New("classifier.side_margin_band must be in [0, 0.5)"))
	}
	if s.Aggregator.LineOverlapRatio <= 0 || s.Aggregator.LineOverlapRatio > 1 {
		errs = append(errs, errors.New("aggregator.line_overlap_ratio must be in (0, 1]"))
	}
	if s.Server.RateLimitPerSecond <= 0 || s.Server.RateLimitBurst <= 0 {
		errs = append(errs, errors.New("server rate limits must be > 0"))
	}
	if s.Workers.Min < 1 || s.Workers.Max < s.Workers.Min {
		errs = append(errs, errors.New("workers.min must be >= 1 and <= workers.max"))
	}
	if s.Workers.RequestsPerNewWorker <= 0 {
		errs = append(errs, errors.New("workers.requests_per_new_worker must be > 0"))
	}
	if s.Workers.JobTimeout <= 0 || s.Workers.FinalizeTimeout <= 0 || s.Workers.IdleTimeout <= 0 {
		errs = append(errs, errors.New("worker timeouts must be > 0"))
	}
	return errors.Join(errs...)
}

func applyEnv(cfg *Settings) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("TENTH_LINE_INTERVAL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Numbering.Interval = n
		}
	}
	if v := os.Getenv("MASSIVE_THRESHOLD_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Routing.MassiveThreshold = n
		}
	}
	if v := os.Getenv("MAX_WORKERS"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Workers.Max = n
		}
	}
	if v := os.Getenv("RATE_LIMIT_PER_SECOND"); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Server.RateLimitPerSecond = n
		}
	}
	if v := os.Getenv("CHUNK_SIZE_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Routing.ChunkSize = n
		}
	}
}
