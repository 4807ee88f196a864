package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
	"time"    // time is used for duration-typed settings

	"github.com/joho/godotenv" // godotenv loads a local .env file when present
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The types reflect how the values are used in
// the application: strings for identifiers and paths, ints for costs and
// durations.
type Config struct {
	Env              string        // application environment (e.g. "dev", "prod")
	Port             string        // HTTP port to listen on
	DataDir          string        // root directory holding the flat-file tables and movie folders
	BcryptCost       int           // bcrypt cost for password hashing
	SessionTTL       time.Duration // lifetime of a session token
	SessionBackend   string        // "memory" or "redis"
	RabbitURL        string        // AMQP broker URL for the moderation audit trail (optional)
	CatalogRefresh   time.Duration // interval between catalog cache regenerations
	CatalogRefreshOn bool          // whether the background refresher runs at all
}

// Load reads configuration values from environment variables and returns a
// Config.  A .env file in the working directory is loaded first if present.
// Required variables are enforced by must() and missing values cause the
// program to exit with a fatal log message.
func Load() Config {
	_ = godotenv.Load() // best-effort; deployed environments set vars directly

	return Config{
		Env:              getenv("APP_ENV", "dev"),
		Port:             must("APP_PORT"),
		DataDir:          must("DATA_DIR"),
		BcryptCost:       mustInt("BCRYPT_COST"),
		SessionTTL:       time.Duration(envInt("SESSION_TTL_HOURS", 24)) * time.Hour,
		SessionBackend:   getenv("SESSION_BACKEND", "memory"),
		RabbitURL:        os.Getenv("RABBITMQ_URL"),
		CatalogRefresh:   time.Duration(envInt("CATALOG_REFRESH_MIN", 10)) * time.Minute,
		CatalogRefreshOn: envBool("CATALOG_REFRESH_ENABLED", true),
	}
}

// AdminSeedEmail and AdminSeedPassword configure the bootstrap admin
// account created at startup.  Seeding is skipped when the email is unset.
func AdminSeedEmail() string    { return os.Getenv("ADMIN_EMAIL") }
func AdminSeedPassword() string { return os.Getenv("ADMIN_PASSWORD") }

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an integer.
// If conversion fails, the application logs a fatal error and exits.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return def
}

func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	switch v {
	case "1", "true", "TRUE", "True", "yes", "YES", "on", "ON":
		return true
	case "0", "false", "FALSE", "False", "no", "NO", "off", "OFF":
		return false
	}
	return def
}
