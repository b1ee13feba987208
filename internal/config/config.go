package config // package config loads application configuration from environment variables

import (
	"log"     // log reports configuration errors and halts execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types

	"github.com/joho/godotenv" // godotenv loads a local .env file when present
)

// Config holds all runtime configuration values. Each field corresponds to
// an environment variable. The types reflect how the values are used in the
// application: strings for identifiers and secrets, ints for durations and costs.
type Config struct {
	Env                string // application environment (e.g. "dev", "prod")
	Port               string // HTTP port to listen on
	DBUser             string // database username
	DBPass             string // database password (optional)
	DBHost             string // database host address
	DBPort             string // database port number
	DBName             string // database name
	DBMaxOpenConns     int    // connection pool ceiling
	DBMaxIdleConns     int    // idle connections kept around
	DBConnMaxLifeMin   int    // connection lifetime in minutes
	JWTSecret          string // secret used to sign JWTs (user and service tokens)
	AccessTTLMin       int    // access token time-to-live in minutes
	RefreshTTLDays     int    // refresh token time-to-live in days
	CookieTTLHours     int    // lifetime of the accessToken cookie in hours
	ServiceTokenTTLMin int    // service-to-service token time-to-live in minutes
	BcryptCost         int    // bcrypt cost for password and client-secret hashing
}

// IsProduction reports whether the service runs with the production profile.
// Cookie security flags and error detail in responses depend on it.
func (c Config) IsProduction() bool { return c.Env == "prod" || c.Env == "production" }

// Load reads configuration values from environment variables and returns a
// Config. A .env file in the working directory is loaded first if it exists.
// Required variables are enforced by must() and missing values cause the
// program to exit with a fatal log message.
func Load() Config {
	_ = godotenv.Load() // absent .env is fine; real environments export vars directly
	return Config{
		Env:                must("APP_ENV"),
		Port:               must("APP_PORT"),
		DBUser:             must("DB_USER"),
		DBPass:             os.Getenv("DB_PASS"), // empty password allowed
		DBHost:             must("DB_HOST"),
		DBPort:             must("DB_PORT"),
		DBName:             must("DB_NAME"),
		DBMaxOpenConns:     envIntDefault("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns:     envIntDefault("DB_MAX_IDLE_CONNS", 25),
		DBConnMaxLifeMin:   envIntDefault("DB_CONN_MAX_LIFETIME_MIN", 30),
		JWTSecret:          must("JWT_SECRET"),
		AccessTTLMin:       mustInt("ACCESS_TOKEN_TTL_MIN"),
		RefreshTTLDays:     envIntDefault("REFRESH_TOKEN_TTL_DAYS", 30),
		CookieTTLHours:     envIntDefault("JWT_COOKIE_EXPIRE_HOURS", 1),
		ServiceTokenTTLMin: envIntDefault("SERVICE_TOKEN_TTL_MIN", 60),
		BcryptCost:         mustInt("BCRYPT_COST"),
	}
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an integer.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}

// envIntDefault reads an optional integer variable, falling back to def when
// the variable is unset or malformed.
func envIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
