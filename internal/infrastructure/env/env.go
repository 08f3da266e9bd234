package env

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"ufunda-orchestrator/internal/application/port/output"

	"github.com/joho/godotenv"
)

var _ output.ConfigPort = (*EnvService)(nil)

// EnvService reads configuration from the process environment after layering the
// optional .env files on top of it.
type EnvService struct {
	appEnv  string
	loaded  []string
	skipped map[string]error
}

// NewEnvService loads .env (secrets) and then .env.$APP_ENV on top of it. Neither file is
// required; LogSources reports what was found once a logger exists.
func NewEnvService() *EnvService {
	e := &EnvService{
		appEnv:  strings.TrimSpace(os.Getenv("APP_ENV")),
		skipped: make(map[string]error),
	}
	if e.appEnv == "" {
		e.appEnv = "dev"
	}

	e.apply(".env", godotenv.Load)
	e.apply(fmt.Sprintf(".env.%s", e.appEnv), godotenv.Overload)
	return e
}

func (e *EnvService) apply(file string, load func(...string) error) {
	if err := load(file); err != nil {
		e.skipped[file] = err
		return
	}
	e.loaded = append(e.loaded, file)
}

func (e *EnvService) AppEnv() string { return e.appEnv }

// Loaded lists the env files applied, in order.
func (e *EnvService) Loaded() []string {
	return append([]string(nil), e.loaded...)
}

func (e *EnvService) LogSources(logger output.LoggerPort) {
	for file, err := range e.skipped {
		logger.Debug("Env file not loaded", "file", file, "error", err)
	}
	logger.Info("Environment loaded", "app_env", e.appEnv, "files", e.loaded)
}

func (e *EnvService) Get(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func (e *EnvService) GetWithDefault(key string, defaultValue string) string {
	if val := e.Get(key); val != "" {
		return val
	}
	return defaultValue
}

func (e *EnvService) GetBool(key string, defaultValue bool) bool {
	val := e.Get(key)
	if val == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func (e *EnvService) GetInt(key string, defaultValue int) int {
	val := e.Get(key)
	if val == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// GetDuration accepts Go duration strings ("90s") or a bare number of seconds.
func (e *EnvService) GetDuration(key string, defaultValue time.Duration) time.Duration {
	val := e.Get(key)
	if val == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(val); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(val); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
