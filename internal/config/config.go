// Package config loads application configuration from the environment and
// from the optional dotenv file that carries the backend API location.
package config

import (
    "errors"
    "fmt"
    "os"
    "strconv"
    "strings"
    "time"

    "github.com/joho/godotenv"
)

// APIEnvFile is the dotenv file holding the backend API location.
const APIEnvFile = "eegj-API-config.env"

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.
type Config struct {
    Env  string // application environment (dev, prod)
    Port string // HTTP port to listen on

    APIHostname string // backend API host (EEGJ_API_HOSTNAME)
    APIPort     int    // backend API port (EEGJ_API_PORT)
    APITimeout  time.Duration

    SessionSecret string        // HMAC secret for the session cookie and store keys
    SessionStore  string        // memory | redis | mysql
    SessionTTL    time.Duration // lifetime of a session entry and its cookie
    CookieSecure  bool

    RedisURL string // optional; enables Redis sessions, cache and rate limits

    DBUser string // MySQL session store
    DBPass string
    DBHost string
    DBPort string
    DBName string

    AMQPURL string // optional; activity events are dropped when empty

    LogLevel  string
    LogFormat string

    Otel OtelConfig
}

// OtelConfig configures tracing of backend calls.
type OtelConfig struct {
    Enabled     bool
    Endpoint    string
    ServiceName string
    Insecure    bool
    SampleRate  float64
}

// ErrMissing is wrapped by Load for every required variable that is unset.
var ErrMissing = errors.New("missing required env var")

const devSessionSecret = "dev-session-secret-change-me"

// Load reads the dotenv file (if present) and the process environment and
// returns a Config.  Values already present in the environment are never
// overwritten by the file.  Missing or malformed required variables are
// reported as an error; callers are expected to treat it as fatal.
func Load(envFile string) (Config, error) {
    if envFile != "" {
        if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
            return Config{}, fmt.Errorf("load %s: %w", envFile, err)
        }
    }

    var problems []error
    must := func(key string) string {
        v, ok := os.LookupEnv(key)
        if !ok || strings.TrimSpace(v) == "" {
            problems = append(problems, fmt.Errorf("%w: %s", ErrMissing, key))
        }
        return strings.TrimSpace(v)
    }

    cfg := Config{
        Env:         envStr("APP_ENV", "dev"),
        Port:        envStr("APP_PORT", "8080"),
        APIHostname: must("EEGJ_API_HOSTNAME"),
        APITimeout:  envDur("BACKEND_TIMEOUT", 10*time.Second),

        SessionSecret: os.Getenv("SESSION_SECRET"),
        SessionTTL:    envDur("SESSION_TTL", 24*time.Hour),
        CookieSecure:  envBool("COOKIE_SECURE", false),

        RedisURL: os.Getenv("REDIS_URL"),

        DBUser: os.Getenv("DB_USER"),
        DBPass: os.Getenv("DB_PASS"),
        DBHost: envStr("DB_HOST", "127.0.0.1"),
        DBPort: envStr("DB_PORT", "3306"),
        DBName: os.Getenv("DB_NAME"),

        AMQPURL: os.Getenv("AMQP_URL"),

        LogLevel:  envStr("LOG_LEVEL", "info"),
        LogFormat: envStr("LOG_FORMAT", "json"),

        Otel: OtelConfig{
            Enabled:     envBool("OTEL_ENABLED", false),
            Endpoint:    os.Getenv("OTEL_ENDPOINT"),
            ServiceName: envStr("OTEL_SERVICE_NAME", "mutual-help-web"),
            Insecure:    envBool("OTEL_INSECURE", true),
            SampleRate:  envFloat("OTEL_SAMPLE_RATE", 0.1),
        },
    }

    if raw := must("EEGJ_API_PORT"); raw != "" {
        port, err := strconv.Atoi(raw)
        if err != nil || port <= 0 || port > 65535 {
            problems = append(problems, fmt.Errorf("invalid int for EEGJ_API_PORT: %q", raw))
        }
        cfg.APIPort = port
    }

    if cfg.SessionSecret == "" {
        if cfg.Env == "prod" {
            problems = append(problems, fmt.Errorf("%w: SESSION_SECRET", ErrMissing))
        }
        cfg.SessionSecret = devSessionSecret
    }

    cfg.SessionStore = strings.ToLower(envStr("SESSION_STORE", ""))
    if cfg.SessionStore == "" {
        cfg.SessionStore = "memory"
        if cfg.RedisURL != "" {
            cfg.SessionStore = "redis"
        }
    }
    switch cfg.SessionStore {
    case "memory":
    case "redis":
        if cfg.RedisURL == "" {
            problems = append(problems, fmt.Errorf("%w: REDIS_URL (SESSION_STORE=redis)", ErrMissing))
        }
    case "mysql":
        if cfg.DBUser == "" || cfg.DBName == "" {
            problems = append(problems, fmt.Errorf("%w: DB_USER/DB_NAME (SESSION_STORE=mysql)", ErrMissing))
        }
    default:
        problems = append(problems, fmt.Errorf("unknown SESSION_STORE %q", cfg.SessionStore))
    }

    if len(problems) > 0 {
        return Config{}, errors.Join(problems...)
    }
    return cfg, nil
}

// APIBaseURL returns the root URL of the backend API.
func (c Config) APIBaseURL() string {
    return fmt.Sprintf("http://%s:%d", c.APIHostname, c.APIPort)
}
