package config

import (
	"os"
	"strconv"
	"time"
)

// FromEnv overlays COMMLOG_* environment variables onto cfg.
func FromEnv(cfg *Config) {
	str := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}
	dur := func(key string, dst *Duration) {
		if v := os.Getenv(key); v != "" {
			if d, err := time.ParseDuration(v); err == nil {
				*dst = Duration(d)
			}
		}
	}

	str("COMMLOG_HTTP", &cfg.HTTPAddr)
	str("COMMLOG_DATA_DIR", &cfg.DataDir)
	str("COMMLOG_PROVIDER_MODE", &cfg.Provider.Mode)
	str("COMMLOG_VAPI_BASE_URL", &cfg.Provider.VAPIBaseURL)
	str("COMMLOG_VAPI_API_KEY", &cfg.Provider.VAPIKey)
	str("COMMLOG_TWILIO_BASE_URL", &cfg.Provider.TwilioBaseURL)
	str("COMMLOG_TWILIO_ACCOUNT_SID", &cfg.Provider.TwilioAccountSID)
	str("COMMLOG_TWILIO_AUTH_TOKEN", &cfg.Provider.TwilioAuthToken)
	// Conventional names used by provider SDKs.
	str("VAPI_API_KEY", &cfg.Provider.VAPIKey)
	str("TWILIO_ACCOUNT_SID", &cfg.Provider.TwilioAccountSID)
	str("TWILIO_AUTH_TOKEN", &cfg.Provider.TwilioAuthToken)

	if v := os.Getenv("COMMLOG_PROVIDER_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			cfg.Provider.RequestsPerSecond = f
		}
	}
	num("COMMLOG_PROVIDER_BURST", &cfg.Provider.Burst)
	dur("COMMLOG_FETCH_TIMEOUT", &cfg.Provider.FetchTimeout)

	num("COMMLOG_WALK_PAGE_SIZE", &cfg.Walk.PageSize)
	num("COMMLOG_WALK_MAX_RECORDS", &cfg.Walk.MaxRecords)
	num("COMMLOG_WALK_MAX_PAGES", &cfg.Walk.MaxPages)
	dur("COMMLOG_WALK_RETRY_BACKOFF", &cfg.Walk.RetryBackoff)

	num("COMMLOG_DEFAULT_PAGE_SIZE", &cfg.Paging.DefaultPageSize)
	num("COMMLOG_MAX_PAGE_SIZE", &cfg.Paging.MaxPageSize)
	num("COMMLOG_ESTIMATED_TOTAL", &cfg.Paging.EstimatedTotal)

	dur("COMMLOG_CACHE_TTL", &cfg.CacheTTL)
}
