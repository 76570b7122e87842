package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Server struct {
		Port         string        `default:"8080" envconfig:"PORT"`
		ReadTimeout  time.Duration `default:"30s" envconfig:"READ_TIMEOUT"`
		WriteTimeout time.Duration `default:"90s" envconfig:"WRITE_TIMEOUT"`
	}

	Log struct {
		Level  string `default:"info" envconfig:"LOG_LEVEL"`
		Pretty bool   `default:"false" envconfig:"LOG_PRETTY"`
	}

	Store struct {
		URI      string `required:"true" envconfig:"STORE_URI"`
		Database string `envconfig:"STORE_DATABASE_NAME"`
	}

	Models struct {
		SentimentURL string `required:"true" envconfig:"MODEL_SENTIMENT_URL"`
		ZeroShotURL  string `required:"true" envconfig:"MODEL_ZEROSHOT_URL"`
		ChatURL      string `required:"true" envconfig:"MODEL_CHAT_URL"`
		APIToken     string `required:"true" envconfig:"MODEL_API_TOKEN"`
		ChatModelID  string `default:"deepseek-chat" envconfig:"MODEL_CHAT_MODEL_ID"`
		MaxInflight  int    `default:"16" envconfig:"MODEL_MAX_INFLIGHT"`
	}

	Quality struct {
		Weights Weights

		// Gate thresholds: hard reject below HardReject, suspicious reviews
		// need BaseThreshold, uncertain-toxicity reviews need UncertainThreshold.
		HardReject         float64 `default:"0.45" envconfig:"QUALITY_HARD_REJECT"`
		BaseThreshold      float64 `default:"0.55" envconfig:"QUALITY_BASE_THRESHOLD"`
		UncertainThreshold float64 `default:"0.65" envconfig:"QUALITY_UNCERTAIN_THRESHOLD"`
	}

	Webhook struct {
		SigningSecret string `envconfig:"WEBHOOK_SIGNING_SECRET"`
	}

	Push struct {
		CredentialsJSON string `envconfig:"PUSH_CREDENTIALS_JSON"`
	}

	Telegram struct {
		BotToken string `envconfig:"CHAT_BOT_TOKEN"`
		APIURL   string `default:"https://api.telegram.org" envconfig:"TELEGRAM_API_URL"`
	}

	Lang struct {
		CategoryLabelsFile string `envconfig:"SHOP_CATEGORY_LABELS_FILE"`
	}
}

// Weights are the quality-score factor weights. Defaults sum to 1.0; keep
// overrides summing to 1.0 so the score stays in [0,1].
type Weights struct {
	Length     float64 `default:"0.30" envconfig:"QUALITY_WEIGHTS_LENGTH"`
	Diversity  float64 `default:"0.20" envconfig:"QUALITY_WEIGHTS_DIVERSITY"`
	ValidChars float64 `default:"0.25" envconfig:"QUALITY_WEIGHTS_VALID_CHARS"`
	Repetition float64 `default:"0.15" envconfig:"QUALITY_WEIGHTS_REPETITION"`
	Toxicity   float64 `default:"0.10" envconfig:"QUALITY_WEIGHTS_TOXICITY"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}
	return &cfg, nil
}
