package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	AppEnv       string `env:"APP_ENV" envDefault:"development"`
	ServerPort   int    `env:"PORT" envDefault:"3000"`
	DatabasePath string `env:"DATABASE_PATH" envDefault:"./portal.db"`

	JWTSecret string        `env:"JWT_SECRET,required"`
	JWTTTL    time.Duration `env:"JWT_TTL" envDefault:"24h"`

	// Only this origin may make credentialed cross-origin requests.
	AllowedOrigin string `env:"CORS_ORIGIN" envDefault:"http://localhost:4000"`

	PublicDir  string `env:"PUBLIC_DIR" envDefault:"./public"`
	PrivateDir string `env:"PRIVATE_DIR" envDefault:"./private"`

	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"5s"`

	TokenPruneSchedule string `env:"TOKEN_PRUNE_SCHEDULE" envDefault:"@hourly"`

	LoginRatePerMinute int `env:"LOGIN_RATE_PER_MINUTE" envDefault:"10"`
	LoginBurst         int `env:"LOGIN_BURST" envDefault:"5"`
}

// IsProduction reports whether the app runs with APP_ENV=production.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Load reads an optional .env file into the process environment and then
// parses the environment into a Config. Variables already set in the
// environment win over the file.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}
