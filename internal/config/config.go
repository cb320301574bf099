package config

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/dgallion1/chapterlint/internal/rules"
)

// Output format constants.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Settings is the resolved configuration for one run.
// Priority: CLI flags > environment (CHAPTERLINT_*) > defaults.
type Settings struct {
	MinCollapsible int    `mapstructure:"min_collapsible"`
	MinDiagrams    int    `mapstructure:"min_diagrams"`
	MinRetrieval   int    `mapstructure:"min_retrieval"`
	MinMistakes    int    `mapstructure:"min_mistakes"`
	Strict         bool   `mapstructure:"strict"`
	Format         string `mapstructure:"format"`
	Workers        int    `mapstructure:"workers"`

	Serve ServeSettings `mapstructure:"serve"`
}

// ServeSettings configures the optional HTTP serve mode.
type ServeSettings struct {
	Port   int    `mapstructure:"port"`
	APIKey string `mapstructure:"api_key"`

	// MaxBodyBytes caps the size of a submitted chapter.
	MaxBodyBytes int64 `mapstructure:"max_body_bytes"`
}

// RegisterFlags registers the checker flags on the given FlagSet.
func RegisterFlags(flags *pflag.FlagSet) {
	flags.Int("min-collapsible", 0, "Minimum collapsible <details> sections per chapter")
	flags.Int("min-diagrams", 0, "Minimum mermaid diagrams per chapter")
	flags.Int("min-retrieval", 0, "Minimum retrieval-practice sections per chapter")
	flags.Int("min-mistakes", 0, "Minimum mistake-pattern headings per chapter")
	flags.Bool("strict", false, "Promote advisory violations to failures")
	flags.String("format", "", "Report format: text or json")
	flags.Int("workers", 0, "Concurrent file checks")
}

// RegisterServeFlags registers the serve-mode flags.
func RegisterServeFlags(flags *pflag.FlagSet) {
	flags.IntP("port", "p", 0, "HTTP listen port")
	flags.String("api-key", "", "Bearer token required on check endpoints (empty disables auth)")
}

// Load resolves settings from flags, environment, and defaults.
// Pass nil to skip flag binding.
func Load(flags *pflag.FlagSet) (*Settings, error) {
	v := viper.New()

	v.SetDefault("min_collapsible", 35)
	v.SetDefault("min_diagrams", 5)
	v.SetDefault("min_retrieval", 15)
	v.SetDefault("min_mistakes", 6)
	v.SetDefault("strict", false)
	v.SetDefault("format", FormatText)
	v.SetDefault("workers", 4)

	v.SetDefault("serve.port", 8091)
	v.SetDefault("serve.api_key", "")
	v.SetDefault("serve.max_body_bytes", int64(4*1024*1024))

	v.SetEnvPrefix("CHAPTERLINT")
	v.AutomaticEnv()
	_ = v.BindEnv("min_collapsible", "CHAPTERLINT_MIN_COLLAPSIBLE")
	_ = v.BindEnv("min_diagrams", "CHAPTERLINT_MIN_DIAGRAMS")
	_ = v.BindEnv("min_retrieval", "CHAPTERLINT_MIN_RETRIEVAL")
	_ = v.BindEnv("min_mistakes", "CHAPTERLINT_MIN_MISTAKES")
	_ = v.BindEnv("strict", "CHAPTERLINT_STRICT")
	_ = v.BindEnv("format", "CHAPTERLINT_FORMAT")
	_ = v.BindEnv("workers", "CHAPTERLINT_WORKERS")
	_ = v.BindEnv("serve.port", "CHAPTERLINT_SERVE_PORT")
	_ = v.BindEnv("serve.api_key", "CHAPTERLINT_SERVE_API_KEY")
	_ = v.BindEnv("serve.max_body_bytes", "CHAPTERLINT_SERVE_MAX_BODY_BYTES")

	if flags != nil {
		bind := func(key, flag string) {
			if f := flags.Lookup(flag); f != nil && f.Changed {
				_ = v.BindPFlag(key, f)
			}
		}
		bind("min_collapsible", "min-collapsible")
		bind("min_diagrams", "min-diagrams")
		bind("min_retrieval", "min-retrieval")
		bind("min_mistakes", "min-mistakes")
		bind("strict", "strict")
		bind("format", "format")
		bind("workers", "workers")
		bind("serve.port", "port")
		bind("serve.api_key", "api-key")
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}
	return &s, nil
}

// Validate checks the resolved settings before any file processing begins.
// A validation error here is a configuration error (exit code 2), distinct
// from any content violation.
func (s *Settings) Validate() error {
	if err := validation.ValidateStruct(s,
		validation.Field(&s.MinCollapsible, validation.Min(0)),
		validation.Field(&s.MinDiagrams, validation.Min(0)),
		validation.Field(&s.MinRetrieval, validation.Min(0)),
		validation.Field(&s.MinMistakes, validation.Min(0)),
		validation.Field(&s.Format, validation.Required, validation.In(FormatText, FormatJSON)),
		validation.Field(&s.Workers, validation.Min(1)),
	); err != nil {
		return err
	}
	return validation.ValidateStruct(&s.Serve,
		validation.Field(&s.Serve.Port, validation.Min(1), validation.Max(65535)),
		validation.Field(&s.Serve.MaxBodyBytes, validation.Min(int64(1))),
	)
}

// RuleSet derives the immutable rule set for this run.
func (s *Settings) RuleSet() rules.RuleSet {
	return rules.RuleSet{
		MinCollapsible: s.MinCollapsible,
		MinDiagrams:    s.MinDiagrams,
		MinRetrieval:   s.MinRetrieval,
		MinMistakes:    s.MinMistakes,
		Strict:         s.Strict,
	}
}
