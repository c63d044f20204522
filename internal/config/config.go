package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"lumapos/backend/internal/domain"
)

type Config struct {
	Port                   string
	AllowedOrigin          string
	DatabaseURL            string
	RedisAddr              string
	RedisPassword          string
	RedisDB                int
	ReceiptCacheTTLSeconds int
	AuthSecret             string
	AccessTokenTTLMinutes  int
	RefreshTokenTTLDays    int
	Store                  domain.ReceiptStore
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present; real environment variables win.
func Load() Config {
	_ = godotenv.Load()

	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	cacheTTL, err := strconv.Atoi(getEnv("RECEIPT_CACHE_TTL_SECONDS", "300"))
	if err != nil || cacheTTL < 1 {
		cacheTTL = 300
	}
	tokenTTL, err := strconv.Atoi(getEnv("ACCESS_TOKEN_TTL_MINUTES", "15"))
	if err != nil || tokenTTL < 1 {
		tokenTTL = 15
	}
	refreshTTL, err := strconv.Atoi(getEnv("REFRESH_TOKEN_TTL_DAYS", "7"))
	if err != nil || refreshTTL < 1 {
		refreshTTL = 7
	}

	cfg := Config{
		Port:                   getEnv("PORT", "8080"),
		AllowedOrigin:          getEnv("ALLOWED_ORIGIN", "http://127.0.0.1:3000"),
		DatabaseURL:            os.Getenv("DATABASE_URL"),
		RedisAddr:              os.Getenv("REDIS_ADDR"),
		RedisPassword:          os.Getenv("REDIS_PASSWORD"),
		RedisDB:                redisDB,
		ReceiptCacheTTLSeconds: cacheTTL,
		AuthSecret:             strings.TrimSpace(os.Getenv("AUTH_SECRET")),
		AccessTokenTTLMinutes:  tokenTTL,
		RefreshTokenTTLDays:    refreshTTL,
		Store:                  loadStore(),
	}

	return cfg
}

func loadStore() domain.ReceiptStore {
	return domain.ReceiptStore{
		Name:      getEnv("STORE_NAME", "My Store"),
		Address:   strings.TrimSpace(os.Getenv("STORE_ADDRESS")),
		Phone:     strings.TrimSpace(os.Getenv("STORE_PHONE")),
		TaxNumber: strings.TrimSpace(os.Getenv("STORE_TAX_NO")),
		Currency:  getEnv("STORE_CURRENCY", "EGP"),
		Footer:    parseFooterLines(os.Getenv("STORE_FOOTER_LINES")),
	}
}

// parseFooterLines accepts either a JSON string array or a comma separated
// list. Blank entries are dropped.
func parseFooterLines(input string) []string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return nil
	}

	if strings.HasPrefix(trimmed, "[") {
		var parsed []string
		if err := json.Unmarshal([]byte(trimmed), &parsed); err == nil {
			return cleanLines(parsed)
		}
		// fall through to comma parsing
	}
	return cleanLines(strings.Split(trimmed, ","))
}

func cleanLines(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if s := strings.TrimSpace(line); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key string, fallback string) string {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback
	}
	return val
}
