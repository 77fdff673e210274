package config

import (
	"time"

	"github.com/spf13/viper"
)

// defaults lists every key Load understands. Keys must be registered here
// for environment overrides to reach Unmarshal.
var defaults = map[string]any{
	"app.name": "salestax",
	"app.env":  "development",
	"app.port": "8080",

	"database.host":               "localhost",
	"database.port":               5432,
	"database.user":               "postgres",
	"database.password":           "",
	"database.dbname":             "salestax",
	"database.sslmode":            "disable",
	"database.max_open_conns":     25,
	"database.max_idle_conns":     5,
	"database.conn_max_lifetime":  time.Hour,
	"database.conn_max_idle_time": 30 * time.Minute,

	"redis.host":     "localhost",
	"redis.port":     6379,
	"redis.password": "",
	"redis.db":       0,

	"log.level":  "info",
	"log.format": "console",
	"log.output": "stdout",

	"event.processor_enabled": true,
	"event.batch_size":        100,
	"event.poll_interval":     5 * time.Second,
	"event.max_retries":       5,
	"event.cleanup_enabled":   true,
	"event.cleanup_retention": 7 * 24 * time.Hour,
	"event.claim_timeout":     5 * time.Minute,
	"event.idempotency_ttl":   24 * time.Hour,

	"http.read_timeout":        15 * time.Second,
	"http.write_timeout":       15 * time.Second,
	"http.idle_timeout":        time.Minute,
	"http.max_header_bytes":    1 << 20,
	"http.max_body_size":       int64(1 << 20),
	"http.request_timeout":     30 * time.Second,
	"http.rate_limit_enabled":  false,
	"http.rate_limit_requests": 100,
	"http.rate_limit_window":   time.Minute,
	// no origin is allowed until one is configured
	"http.cors_allow_origins": []string{},
	"http.cors_allow_methods": []string{"GET", "POST", "OPTIONS"},
	"http.cors_allow_headers": []string{"Content-Type", "Authorization", "X-Request-ID", "X-Organization-ID"},
	"http.trusted_proxies":    []string{},

	"auth.enabled":          false,
	"auth.jwt_secret":       "",
	"auth.issuer":           "salestax",
	"auth.token_expiration": time.Hour,

	"taxjar.production_url":     "https://api.taxjar.com",
	"taxjar.sandbox_url":        "https://api.sandbox.taxjar.com",
	"taxjar.reporting_currency": "USD",
	"taxjar.rate_cache_ttl":     time.Hour,

	"telemetry.enabled":                 false,
	"telemetry.collector_endpoint":      "localhost:4317",
	"telemetry.sampling_ratio":          1.0,
	"telemetry.service_name":            "salestax",
	"telemetry.insecure":                false,
	"telemetry.metrics_enabled":         false,
	"telemetry.metrics_interval":        time.Minute,
	"telemetry.logs_enabled":            false,
	"telemetry.logs_min_level":          "info",
	"telemetry.db_trace_enabled":        false,
	"telemetry.db_log_full_sql":         false,
	"telemetry.db_slow_query_threshold": 200 * time.Millisecond,
	"telemetry.profiling_enabled":       false,
	"telemetry.profiling_server":        "http://localhost:4040",
	"telemetry.profiling_types":         []string{"cpu", "alloc_space", "inuse_space", "goroutines"},
	"telemetry.profiling_user":          "",
	"telemetry.profiling_password":      "",
	"telemetry.span_profiles":           false,
}

func setDefaults(v *viper.Viper) {
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
}
