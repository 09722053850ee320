// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() initializer to build a Config with defaults.
// - Load layers a YAML file and ISP_* environment variables over the defaults.
package config

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// RubricPath points at a rubric YAML document. Empty uses the embedded one.
	RubricPath string `koanf:"rubric_path"`

	// ClassifierProvider selects the location classifier: openai, gemini or
	// empty to run without one.
	ClassifierProvider  string `koanf:"classifier_provider"`
	ClassifierAPIKey    string `koanf:"classifier_api_key"`
	ClassifierModel     string `koanf:"classifier_model"`
	ClassifierBaseURL   string `koanf:"classifier_base_url"`
	ClassifierTimeoutMS int    `koanf:"classifier_timeout_ms"`

	// ClassifyBatchSize bounds concurrent classifier calls.
	ClassifyBatchSize int `koanf:"classify_batch_size"`

	// LocationCache selects the cache backend: memory, lru or sqlite.
	LocationCache     string `koanf:"location_cache"`
	LocationCacheSize int    `koanf:"location_cache_size"`
	LocationCachePath string `koanf:"location_cache_path"`

	// MonthTimezone is the IANA zone used to read dates.
	MonthTimezone string `koanf:"month_timezone"`

	// UploadStore selects where uploads live: local or s3.
	UploadStore    string `koanf:"upload_store"`
	UploadDir      string `koanf:"upload_dir"`
	MaxUploadBytes int64  `koanf:"max_upload_bytes"`
	S3Bucket       string `koanf:"s3_bucket"`
	S3Region       string `koanf:"s3_region"`
	S3Prefix       string `koanf:"s3_prefix"`

	// RosterSources maps a cohort year to a remote export URL.
	RosterSources        map[string]string `koanf:"roster_sources"`
	RosterFetchTimeoutMS int               `koanf:"roster_fetch_timeout_ms"`

	// CORSAllowOrigin is echoed in Access-Control-Allow-Origin.
	CORSAllowOrigin string `koanf:"cors_allow_origin"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:             "info",
		LogFormat:            "text",
		Addr:                 ":9080",
		ClassifierTimeoutMS:  30_000,
		ClassifyBatchSize:    5,
		LocationCache:        "memory",
		LocationCacheSize:    10_000,
		LocationCachePath:    "data/locations.db",
		MonthTimezone:        "UTC",
		UploadStore:          "local",
		UploadDir:            "uploads",
		MaxUploadBytes:       10 << 20,
		RosterSources:        map[string]string{},
		RosterFetchTimeoutMS: 15_000,
		CORSAllowOrigin:      "*",
	}
}
