package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
	"strings" // strings splits list-valued variables
	"time"    // time resolves the booking timezone
)

// Config holds all runtime configuration values.  Each field corresponds
// to an environment variable.  Required variables are enforced by must();
// optional ones fall back to sensible defaults.
type Config struct {
	Env            string // application environment (e.g. "dev", "prod")
	Port           string // HTTP port to listen on
	DBUser         string // database username
	DBPass         string // database password (optional)
	DBHost         string // database host address
	DBPort         string // database port number
	DBName         string // database name
	DBMaxConns     int    // connection pool size
	JWTSecret      string // secret used to sign JWTs
	AccessTTLMin   int    // access token time-to-live in minutes
	RefreshTTLDays int    // refresh token time-to-live in days
	BcryptCost     int    // bcrypt cost for password hashing

	// Booking subsystem
	LockWaitSec      int             // innodb lock wait bound for submissions
	AuthCacheTTL     time.Duration   // TTL of the admin/privileged email snapshots
	BookingTZ        *time.Location  // wall clock used by the cleaning-window check
	RestrictedRooms  map[uint64]bool // rooms blocked over the cleaning window
	CleaningStartMin int             // cleaning window start, minutes from midnight
	CleaningEndMin   int             // cleaning window end, minutes from midnight

	// Outbound mail (used by the notify worker)
	SMTPHost        string
	SMTPPort        string
	SMTPAccount     string
	SMTPPassword    string
	ApprovalBaseURL string // public URL of the email approval page
}

// Load reads configuration values from environment variables and returns a
// Config.  Missing required variables cause the program to exit with a
// fatal log message.
func Load() Config {
	return Config{
		Env:            must("APP_ENV"),
		Port:           must("APP_PORT"),
		DBUser:         must("DB_USER"),
		DBPass:         os.Getenv("DB_PASS"),
		DBHost:         must("DB_HOST"),
		DBPort:         must("DB_PORT"),
		DBName:         must("DB_NAME"),
		DBMaxConns:     envInt("DB_MAX_CONNS", 25),
		JWTSecret:      must("JWT_SECRET"),
		AccessTTLMin:   mustInt("ACCESS_TOKEN_TTL_MIN"),
		RefreshTTLDays: mustInt("REFRESH_TOKEN_TTL_DAYS"),
		BcryptCost:     mustInt("BCRYPT_COST"),

		LockWaitSec:      envInt("BOOKING_LOCK_WAIT_SEC", 10),
		AuthCacheTTL:     envDur("AUTH_CACHE_TTL", 5*time.Minute),
		BookingTZ:        loadLocation("BOOKING_TZ", "Asia/Shanghai"),
		RestrictedRooms:  parseRooms(os.Getenv("RESTRICTED_ROOMS")),
		CleaningStartMin: envInt("CLEANING_START_MIN", 12*60),
		CleaningEndMin:   envInt("CLEANING_END_MIN", 13*60),

		SMTPHost:        os.Getenv("SMTP_HOST"),
		SMTPPort:        envStr("SMTP_PORT", "587"),
		SMTPAccount:     os.Getenv("SMTP_ACCOUNT"),
		SMTPPassword:    os.Getenv("SMTP_PASSWORD"),
		ApprovalBaseURL: envStr("APPROVAL_BASE_URL", "http://localhost:8080/approval"),
	}
}

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

// loadLocation resolves a timezone name, falling back to def and then UTC.
func loadLocation(key, def string) *time.Location {
	name := envStr(key, def)
	loc, err := time.LoadLocation(name)
	if err != nil {
		log.Printf("invalid timezone %q, using UTC: %v", name, err)
		return time.UTC
	}
	return loc
}

// parseRooms parses a comma-separated room id list into a lookup set.
func parseRooms(s string) map[uint64]bool {
	out := map[uint64]bool{}
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if n, err := strconv.ParseUint(p, 10, 64); err == nil {
			out[n] = true
		}
	}
	return out
}
