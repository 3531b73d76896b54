package configuration

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/atrium-hq/atrium/pkg/logging"
)

const Production = "production"

var singleton = sync.OnceValue(func() *Configuration {
	c := &Configuration{}
	if err := c.load([]string{".env", ".env.local"}); err != nil {
		c.Unload()
		panic(err)
	}
	return c
})

func LoadEnv(envFiles []string) (int, error) {
	existingFiles := make([]string, 0, len(envFiles))
	for _, file := range envFiles {
		if _, err := os.Stat(file); err == nil {
			existingFiles = append(existingFiles, file)
		}
	}

	if len(existingFiles) == 0 {
		return 0, nil
	}

	return len(existingFiles), godotenv.Load(existingFiles...)
}

type DatabaseOptions struct {
	Opts     string `env:"-"`
	Name     string `env:"DB_NAME" envDefault:"atrium"`
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     string `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER" envDefault:"postgres"`
	Password string `env:"DB_PASSWORD" envDefault:"postgres"`
}

func (d *DatabaseOptions) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s dbname=%s password=%s sslmode=disable",
		d.Host, d.Port, d.User, d.Name, d.Password,
	)
}

type PrometheusOptions struct {
	Enabled bool   `env:"PROMETHEUS_METRICS_ENABLED" envDefault:"false"`
	Path    string `env:"PROMETHEUS_METRICS_PATH" envDefault:"/debug/prometheus"`
}

// SuggestionOptions tune the periodic merge-suggestion batch job.
type SuggestionOptions struct {
	WindowHours    float64 `env:"SUGGESTIONS_WINDOW_HOURS" envDefault:"1.2"`
	SampleLimit    int     `env:"SUGGESTIONS_SAMPLE_LIMIT" envDefault:"1000"`
	InsertChunkLen int     `env:"SUGGESTIONS_INSERT_CHUNK" envDefault:"100"`
}

func (s *SuggestionOptions) Validate() error {
	if s.WindowHours <= 0 {
		return fmt.Errorf("suggestions window must be positive, got %f", s.WindowHours)
	}
	if s.SampleLimit <= 0 {
		return fmt.Errorf("suggestions sample limit must be positive, got %d", s.SampleLimit)
	}
	if s.InsertChunkLen <= 0 || s.InsertChunkLen > 1000 {
		return fmt.Errorf("suggestions insert chunk must be in (0, 1000], got %d", s.InsertChunkLen)
	}
	return nil
}

type Configuration struct {
	Database    DatabaseOptions
	Prometheus  PrometheusOptions
	Suggestions SuggestionOptions

	ServerPort       int           `env:"PORT" envDefault:"3200"`
	GoAppEnvironment string       `env:"GO_APP_ENV" envDefault:"development"`
	SocketAddress    string       `env:"-"`
	Domain           string       `env:"DOMAIN" envDefault:"localhost"`
	PageSize         int          `env:"PAGE_SIZE" envDefault:"25"`
	MaxPageSize      int          `env:"MAX_PAGE_SIZE" envDefault:"100"`
	LogLevel         string       `env:"LOG_LEVEL" envDefault:"error"`
	LogPath          string       `env:"LOG_PATH" envDefault:"./logs/app.log"`
	RequestIDHeader  string       `env:"REQUEST_ID_HEADER" envDefault:"X-Request-ID"`
	TenantIDHeader   string       `env:"TENANT_ID_HEADER" envDefault:"X-Tenant-ID"`
	SegmentIDHeader  string       `env:"SEGMENT_ID_HEADER" envDefault:"X-Segment-ID"`
	ShutdownTimeout  time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	logFile *os.File
	logger  *logrus.Logger
}

func (c *Configuration) Logger() *logrus.Logger {
	return c.logger
}

func (c *Configuration) LogrusLogLevel() logrus.Level {
	switch c.LogLevel {
	case "silent":
		return logrus.PanicLevel
	case "error":
		return logrus.ErrorLevel
	case "warn":
		return logrus.WarnLevel
	case "info":
		return logrus.InfoLevel
	case "debug":
		return logrus.DebugLevel
	default:
		return logrus.ErrorLevel
	}
}

func Use() *Configuration {
	return singleton()
}

func (c *Configuration) load(envFiles []string) error {
	n, err := LoadEnv(envFiles)
	if err != nil {
		return err
	}
	if n == 0 {
		wd, _ := os.Getwd()
		log.Println("No .env files found. Tried:")
		for _, file := range envFiles {
			log.Println(filepath.Join(wd, file))
		}
	}
	if err := env.Parse(c); err != nil {
		return err
	}

	if err := c.Suggestions.Validate(); err != nil {
		return fmt.Errorf("suggestions configuration error: %w", err)
	}

	f, logger, err := logging.FileLogger(c.LogrusLogLevel(), c.LogPath)
	if err != nil {
		return err
	}
	c.logFile = f
	c.logger = logger

	c.Database.Opts = c.Database.ConnectionString()
	c.SocketAddress = fmt.Sprintf(":%d", c.ServerPort)
	return nil
}

func (c *Configuration) Unload() {
	if c.logFile != nil {
		if err := c.logFile.Close(); err != nil {
			log.Printf("failed to close log file: %v", err)
		}
		c.logFile = nil
	}
}
