package model

import "time"

// Config is the complete pipeline configuration. One instance is built per
// run and passed by reference into every stage and worker; there is no
// module-level client or config state.
type Config struct {
	Store       StoreConfig       `yaml:"store" mapstructure:"store"`
	Filter      FilterConfig      `yaml:"filter" mapstructure:"filter"`
	Collab      CollabConfig      `yaml:"collaborator" mapstructure:"collaborator"`
	LLM         LLMConfig         `yaml:"llm" mapstructure:"llm"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Output      OutputConfig      `yaml:"output" mapstructure:"output"`
}

// StoreConfig locates the flat artifact store.
type StoreConfig struct {
	// Root is the directory holding per-(document, stage, attribute) CSV
	// artifacts, laid out as entity=<doc>/stage=<stage>/attribute=<slug>.csv.
	Root string `yaml:"root" mapstructure:"root"`
	// DocInfo is the document metadata CSV inside Root.
	DocInfo string `yaml:"doc_info" mapstructure:"doc_info"`
}

// FilterConfig controls the similarity filter. A zero cap means unset.
type FilterConfig struct {
	MaxRowsToKeep     int      `yaml:"max_rows_to_keep" mapstructure:"max_rows_to_keep"`
	MaxFracRowsToKeep float64  `yaml:"max_frac_rows_to_keep" mapstructure:"max_frac_rows_to_keep"`
	NonNullCols       []string `yaml:"non_null_cols" mapstructure:"non_null_cols"`
}

// CollabConfig bounds external collaborator traffic.
type CollabConfig struct {
	RequestsPerSecond float64       `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int           `yaml:"burst" mapstructure:"burst"`
	MaxRetries        int           `yaml:"max_retries" mapstructure:"max_retries"`
	Timeout           time.Duration `yaml:"timeout" mapstructure:"timeout"`
	BatchSize         int           `yaml:"batch_size" mapstructure:"batch_size"`
	BatchDelay        time.Duration `yaml:"batch_delay" mapstructure:"batch_delay"`
}

// LLMConfig configures the optional LLM provider behind the semantic
// collaborators. Empty provider disables it; heuristic fallbacks apply.
type LLMConfig struct {
	Provider  string `yaml:"provider" mapstructure:"provider"`
	Model     string `yaml:"model" mapstructure:"model"`
	APIKey    string `yaml:"api_key" mapstructure:"api_key"`
	BaseURL   string `yaml:"base_url" mapstructure:"base_url"`
	Timeout   int    `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// CacheConfig configures the content-addressed collaborator cache.
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// ConcurrencyConfig sets worker counts for the parallel stages.
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// OutputConfig controls panel/report output. MaxRank keeps only records at or
// above that similarity rank in the panels; zero keeps everything.
type OutputConfig struct {
	Dir     string `yaml:"dir" mapstructure:"dir"`
	MaxRank int    `yaml:"max_rank" mapstructure:"max_rank"`
	Verbose bool   `yaml:"verbose" mapstructure:"verbose"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Root:    "./artifacts",
			DocInfo: "doc_info.csv",
		},
		Filter: FilterConfig{
			MaxRowsToKeep:     20,
			MaxFracRowsToKeep: 0.5,
			NonNullCols:       []string{"value"},
		},
		Collab: CollabConfig{
			RequestsPerSecond: 2,
			Burst:             5,
			MaxRetries:        3,
			Timeout:           60 * time.Second,
			BatchSize:         10,
			BatchDelay:        2 * time.Second,
		},
		LLM: LLMConfig{
			Provider:  "", // Disabled by default
			Timeout:   30,
			MaxTokens: 1000,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       "./.factpanel-cache",
			MemoryTTL: 30 * time.Minute,
			DiskTTL:   7 * 24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		Output: OutputConfig{
			Dir: "./panels",
		},
	}
}
