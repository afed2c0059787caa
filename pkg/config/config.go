package config

import (
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	App struct {
		Env       string `env:"APP_ENV" env-default:"development"`
		Port      int    `env:"APP_PORT" env-default:"8080"`
		SentryUrl string `env:"SENTRY_URL"`
	}
	Backend struct {
		PostURL         string        `env:"SNAPPY_POST_URL"`
		UserURL         string        `env:"SNAPPY_USER_URL"`
		StoryURL        string        `env:"SNAPPY_STORY_URL"`
		NotificationURL string        `env:"SNAPPY_NOTIFICATION_URL"`
		AuthURL         string        `env:"SNAPPY_AUTH_URL"`
		Timeout         time.Duration `env:"SNAPPY_HTTP_TIMEOUT" env-default:"0s"`
	}
	Account struct {
		Email    string `env:"SNAPPY_EMAIL"`
		Password string `env:"SNAPPY_PASSWORD"`
	}
	Media struct {
		UploadURL    string `env:"MEDIA_UPLOAD_URL" env-default:"https://api.cloudinary.com/v1_1"`
		CloudName    string `env:"MEDIA_CLOUD_NAME"`
		UploadPreset string `env:"MEDIA_UPLOAD_PRESET"`
		DestroyURL   string `env:"MEDIA_DESTROY_URL"`
	}
	MediaProxy struct {
		Port       int    `env:"MEDIA_PROXY_PORT" env-default:"8090"`
		APIKey     string `env:"MEDIA_API_KEY"`
		APISecret  string `env:"MEDIA_API_SECRET"`
		DestroyURL string `env:"MEDIA_PROXY_DESTROY_URL" env-default:"https://api.cloudinary.com/v1_1"`
		// Token is shared by the agent and the proxy. An empty token refuses every destroy.
		Token string `env:"MEDIA_PROXY_TOKEN"`
	}
	Cache struct {
		PostsTTL   time.Duration `env:"CACHE_POSTS_TTL" env-default:"5m"`
		StoriesTTL time.Duration `env:"CACHE_STORIES_TTL" env-default:"5m"`
	}
	Confirm struct {
		MaxRetries      uint64        `env:"CONFIRM_MAX_RETRIES" env-default:"8"`
		InitialInterval time.Duration `env:"CONFIRM_INITIAL_INTERVAL" env-default:"500ms"`
		MaxInterval     time.Duration `env:"CONFIRM_MAX_INTERVAL" env-default:"5s"`
	}
	Mutations struct {
		Requests int           `env:"MUTATION_REQUESTS" env-default:"5"`
		Per      time.Duration `env:"MUTATION_PER" env-default:"1s"`
		Burst    int           `env:"MUTATION_BURST" env-default:"10"`
	}
	Scheduler struct {
		Timezone         string        `env:"SCHEDULER_TIMEZONE" env-default:"UTC"`
		NotificationPoll time.Duration `env:"SCHEDULER_NOTIFICATION_POLL" env-default:"10s"`
		MediaSweep       time.Duration `env:"SCHEDULER_MEDIA_SWEEP" env-default:"15m"`
	}
	Workers struct {
		PoolSize int `env:"WORKERS_POOL_SIZE" env-default:"5"`
	}
	Postgres struct {
		Port    int    `env:"POSTGRES_PORT" env-default:"5432"`
		Host    string `env:"POSTGRES_HOST"`
		User    string `env:"POSTGRES_USER"`
		Pass    string `env:"POSTGRES_PASS"`
		Name    string `env:"POSTGRES_NAME"`
		SslMode string `env:"POSTGRES_SSL_MODE" env-default:"disable"`
	}
}

var (
	once sync.Once
	cfg  *Config
)

func New() (*Config, error) {
	once.Do(func() {
		cfg = &Config{}
		if err := cleanenv.ReadEnv(cfg); err != nil {
			help, _ := cleanenv.GetDescription(cfg, nil)
			log.Fatalf("Failed to read configuration: %v\n%v", err, help)
		}
	})
	return cfg, nil
}

// ValidateBackend reports the backend base URLs the sync agent cannot run without.
// The media proxy does not need them.
func (c *Config) ValidateBackend() error {
	missing := []string{}
	for name, v := range map[string]string{
		"SNAPPY_POST_URL":         c.Backend.PostURL,
		"SNAPPY_USER_URL":         c.Backend.UserURL,
		"SNAPPY_STORY_URL":        c.Backend.StoryURL,
		"SNAPPY_NOTIFICATION_URL": c.Backend.NotificationURL,
		"SNAPPY_AUTH_URL":         c.Backend.AuthURL,
	} {
		if v == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("missing required backend configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

// GetDSN returns the postgres connection URL.
func (c *Config) GetDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Postgres.User,
		c.Postgres.Pass,
		c.Postgres.Host,
		c.Postgres.Port,
		c.Postgres.Name,
		c.Postgres.SslMode,
	)
}
