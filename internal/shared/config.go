package shared

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string
	HTTPAddr    string
	MetricsAddr string
	MySQLDSN    string
	RedisAddr   string
	RedisDB     int
	RedisPass   string
	CacheTTL    time.Duration

	CMSBase string
	CMSKey  string

	BookingBase            string
	BookingAppID           string
	BookingMode            string // demo|live
	BookingFallbackOnError bool
	BookingRPS             int

	SMTPHost  string
	SMTPPort  int
	SMTPUser  string
	SMTPPass  string
	MailFrom  string
	ContactTo string

	WarmWorkers int
	WarmAreas   []string
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present; real env vars win.
func Load() Config {
	if err := godotenv.Load(); err == nil {
		log.Debug().Msg("loaded .env")
	}

	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	c := Config{
		AppEnv:      env("APP_ENV", "prod"),
		HTTPAddr:    env("HTTP_ADDR", ":8080"),
		MetricsAddr: env("METRICS_ADDR", ""),
		MySQLDSN:    env("MYSQL_DSN", ""),
		RedisAddr:   env("REDIS_ADDR", ""),
		RedisPass:   env("REDIS_PASSWORD", ""),
		RedisDB:     atoi("REDIS_DB", 0),
		CacheTTL:    time.Duration(atoi("CACHE_TTL_SECONDS", 300)) * time.Second,

		CMSBase: env("CMS_BASE_URL", ""),
		CMSKey:  env("CMS_API_KEY", ""),

		BookingBase:            env("BOOKING_BASE_URL", "https://app.rakuten.co.jp/services/api/Travel"),
		BookingAppID:           env("BOOKING_APP_ID", ""),
		BookingMode:            strings.ToLower(env("BOOKING_MODE", "demo")),
		BookingFallbackOnError: envBool("BOOKING_FALLBACK_ON_ERROR", true),
		BookingRPS:             atoi("BOOKING_RPS", 1),

		SMTPHost:  env("SMTP_HOST", ""),
		SMTPPort:  atoi("SMTP_PORT", 587),
		SMTPUser:  env("SMTP_USER", ""),
		SMTPPass:  env("SMTP_PASSWORD", ""),
		MailFrom:  env("MAIL_FROM", "noreply@wanstay.jp"),
		ContactTo: env("CONTACT_TO", "info@wanstay.jp"),

		WarmWorkers: atoi("WARM_WORKERS", 4),
		WarmAreas:   splitList(env("WARM_AREAS", "北海道,東京都,神奈川県,静岡県,長野県,京都府,大阪府,沖縄県")),
	}
	if c.CMSBase == "" || c.CMSKey == "" {
		log.Warn().Msg("CMS_BASE_URL or CMS_API_KEY is empty; curated listings disabled")
	}
	if c.BookingMode == "live" && c.BookingAppID == "" {
		log.Warn().Msg("BOOKING_APP_ID is empty; booking search will serve fallback data")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envBool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

// splitList splits a comma-separated value, trimming blanks.
func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

