package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/scholardesk/scholardesk-backend/internal/pkg/logger"
)

// Config is resolved once at startup and injected into components; nothing
// reads the environment after construction.
type Config struct {
	Port         string
	JWTSecretKey string
	CORSOrigins  []string

	Processing ProcessingConfig
}

// ProcessingConfig bounds the pipeline and the Q&A gateway. Env defaults may
// be overridden by an optional YAML file (PROCESSING_CONFIG_PATH).
type ProcessingConfig struct {
	StageTimeout       time.Duration `yaml:"-"`
	AnswerTimeout      time.Duration `yaml:"-"`
	HealthTimeout      time.Duration `yaml:"-"`
	CitationBatchMax   int           `yaml:"citation_batch_max"`
	QuestionMaxLen     int           `yaml:"question_max_len"`
	KeywordTopN        int           `yaml:"keyword_top_n"`
	SummaryMaxLength   int           `yaml:"summary_max_length"`
	ReadinessCacheTTL  time.Duration `yaml:"-"`
	StageTimeoutSecs   int           `yaml:"stage_timeout_seconds"`
	AnswerTimeoutSecs  int           `yaml:"answer_timeout_seconds"`
	HealthTimeoutSecs  int           `yaml:"health_timeout_seconds"`
	ReadinessCacheSecs int           `yaml:"readiness_cache_seconds"`
}

func Load(log *logger.Logger) (Config, error) {
	cfg := Config{
		Port:         GetEnv("PORT", "8080", log),
		JWTSecretKey: GetEnv("JWT_SECRET_KEY", "defaultsecret", log),
		Processing: ProcessingConfig{
			CitationBatchMax:   GetEnvAsInt("CITATION_BATCH_MAX", 5, log),
			QuestionMaxLen:     GetEnvAsInt("QUESTION_MAX_LEN", 2000, log),
			KeywordTopN:        GetEnvAsInt("KEYWORD_TOP_N", 10, log),
			SummaryMaxLength:   GetEnvAsInt("SUMMARY_MAX_LENGTH", 500, log),
			StageTimeoutSecs:   GetEnvAsInt("STAGE_TIMEOUT_SECONDS", 60, log),
			AnswerTimeoutSecs:  GetEnvAsInt("ANSWER_TIMEOUT_SECONDS", 30, log),
			HealthTimeoutSecs:  GetEnvAsInt("HEALTH_TIMEOUT_SECONDS", 10, log),
			ReadinessCacheSecs: GetEnvAsInt("READINESS_CACHE_SECONDS", 60, log),
		},
	}

	origins := GetEnv("CORS_ALLOW_ORIGINS", "http://localhost:3000,http://localhost:5173", log)
	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, o)
		}
	}

	if path := strings.TrimSpace(os.Getenv("PROCESSING_CONFIG_PATH")); path != "" {
		if err := cfg.Processing.applyOverrides(path); err != nil {
			return Config{}, fmt.Errorf("load processing config %s: %w", path, err)
		}
		if log != nil {
			log.Info("processing config overrides applied", "path", path)
		}
	}

	cfg.Processing.resolveDurations()
	return cfg, nil
}

func (p *ProcessingConfig) applyOverrides(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(raw, p)
}

func (p *ProcessingConfig) resolveDurations() {
	p.StageTimeout = time.Duration(p.StageTimeoutSecs) * time.Second
	p.AnswerTimeout = time.Duration(p.AnswerTimeoutSecs) * time.Second
	p.HealthTimeout = time.Duration(p.HealthTimeoutSecs) * time.Second
	p.ReadinessCacheTTL = time.Duration(p.ReadinessCacheSecs) * time.Second
}
