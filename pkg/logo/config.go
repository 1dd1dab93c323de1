package logo

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// CredentialProvider supplies the credential header attached to every
// request. Implementations live in internal/auth; any type with this method
// can be used.
type CredentialProvider interface {
	Header(ctx context.Context) (name, value string, err error)
}

// Config represents client configuration.
//
// Only BaseURL is required. APIKey is sent as "Authorization: Bearer <key>"
// unless APIKeyHeader names another header, in which case the raw key is sent
// in that header. Credentials, when set, takes precedence over APIKey.
//
// Timeout bounds each transport attempt. Only GET requests are retried, on
// network errors, timeouts and 502/503/504 responses, for at most
// MaxAttempts attempts in total with exponential backoff between
// RetryWaitMin and RetryWaitMax.
type Config struct {
	// BaseURL: root of the REST API (e.g. "https://erp.example.com/api/v1").
	// logoclient.New trims a trailing slash and adds "https://" when no
	// scheme is present.
	BaseURL string
	// APIKey: credential attached to every request.
	APIKey string
	// APIKeyHeader: optional header carrying the raw API key.
	APIKeyHeader string
	// Credentials: optional provider overriding APIKey.
	Credentials CredentialProvider

	// Timeout: per-attempt timeout. Zero uses the default.
	Timeout time.Duration
	// MaxAttempts: total attempt budget for GET requests. Zero uses the default.
	MaxAttempts int
	// RetryWaitMin: first backoff delay.
	RetryWaitMin time.Duration
	// RetryWaitMax: backoff cap.
	RetryWaitMax time.Duration

	// UserAgent: overrides the default User-Agent header.
	UserAgent string
	// Debug: enables verbose request/response logging through Logger.
	Debug bool
	// Logger: optional structured logger used by the HTTP layer.
	Logger Logger
	// Interceptors: optional chain run once per logical call.
	Interceptors *InterceptorChain
	// Entities: entity metadata exposed through Client.Entities.
	Entities []Entity
}

// configKeys lists the recognized configuration keys. Anything else in a
// config file or the environment is ignored.
var configKeys = []struct {
	key     string
	aliases []string
	env     string
}{
	{key: "baseurl", aliases: []string{"base_url"}, env: "LOGO_BASE_URL"},
	{key: "apikey", aliases: []string{"api_key"}, env: "LOGO_API_KEY"},
	{key: "apikeyheader", aliases: []string{"api_key_header"}, env: "LOGO_API_KEY_HEADER"},
	{key: "timeout", env: "LOGO_TIMEOUT"},
	{key: "maxattempts", aliases: []string{"max_attempts"}, env: "LOGO_MAX_ATTEMPTS"},
	{key: "retrywaitmin", aliases: []string{"retry_wait_min"}, env: "LOGO_RETRY_WAIT_MIN"},
	{key: "retrywaitmax", aliases: []string{"retry_wait_max"}, env: "LOGO_RETRY_WAIT_MAX"},
	{key: "useragent", aliases: []string{"user_agent"}, env: "LOGO_USER_AGENT"},
	{key: "debug", env: "LOGO_DEBUG"},
}

// LoadConfig reads configuration from the YAML or JSON file at path and from
// LOGO_* environment variables, which take precedence. An empty path reads
// the environment only. Unknown keys are ignored. Durations given as numbers
// are milliseconds; strings use time.ParseDuration syntax.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	for _, entry := range configKeys {
		err := v.BindEnv(entry.key, entry.env)
		if err != nil {
			return nil, fmt.Errorf("binding %s: %w", entry.env, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)

		err := v.ReadInConfig()
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	config := &Config{}

	var err error

	config.BaseURL = lookupString(v, "baseurl")
	config.APIKey = lookupString(v, "apikey")
	config.APIKeyHeader = lookupString(v, "apikeyheader")
	config.UserAgent = lookupString(v, "useragent")

	config.Timeout, err = lookupDuration(v, "timeout")
	if err != nil {
		return nil, err
	}

	config.RetryWaitMin, err = lookupDuration(v, "retrywaitmin")
	if err != nil {
		return nil, err
	}

	config.RetryWaitMax, err = lookupDuration(v, "retrywaitmax")
	if err != nil {
		return nil, err
	}

	if raw := lookup(v, "maxattempts"); raw != nil {
		config.MaxAttempts, err = strconv.Atoi(strings.TrimSpace(fmt.Sprint(raw)))
		if err != nil {
			return nil, fmt.Errorf("%w: max_attempts %v", ErrInvalidConfigValue, raw)
		}
	}

	if raw := lookup(v, "debug"); raw != nil {
		config.Debug, err = strconv.ParseBool(strings.TrimSpace(fmt.Sprint(raw)))
		if err != nil {
			return nil, fmt.Errorf("%w: debug %v", ErrInvalidConfigValue, raw)
		}
	}

	return config, nil
}

// lookup returns the value of key or the first alias that is set.
func lookup(v *viper.Viper, key string) interface{} {
	if v.IsSet(key) {
		return v.Get(key)
	}

	for _, entry := range configKeys {
		if entry.key != key {
			continue
		}

		for _, alias := range entry.aliases {
			if v.IsSet(alias) {
				return v.Get(alias)
			}
		}
	}

	return nil
}

func lookupString(v *viper.Viper, key string) string {
	raw := lookup(v, key)
	if raw == nil {
		return ""
	}

	return strings.TrimSpace(fmt.Sprint(raw))
}

func lookupDuration(v *viper.Viper, key string) (time.Duration, error) {
	raw := lookup(v, key)
	if raw == nil {
		return 0, nil
	}

	duration, err := ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}

	return duration, nil
}

// ParseDuration interprets a configuration duration: integers and floats are
// milliseconds, numeric strings likewise, other strings use
// time.ParseDuration.
func ParseDuration(raw interface{}) (time.Duration, error) {
	switch typed := raw.(type) {
	case time.Duration:
		return typed, nil
	case int:
		return time.Duration(typed) * time.Millisecond, nil
	case int64:
		return time.Duration(typed) * time.Millisecond, nil
	case float64:
		return time.Duration(typed * float64(time.Millisecond)), nil
	case string:
		value := strings.TrimSpace(typed)
		if value == "" {
			return 0, nil
		}

		if millis, err := strconv.ParseFloat(value, 64); err == nil {
			return time.Duration(millis * float64(time.Millisecond)), nil
		}

		duration, err := time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidConfigValue, value)
		}

		return duration, nil
	default:
		return 0, fmt.Errorf("%w: %v", ErrInvalidConfigValue, raw)
	}
}

// Validate checks the fields that have no usable default.
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigRequired
	}

	if strings.TrimSpace(c.BaseURL) == "" {
		return ErrBaseURLRequired
	}

	var errs []error

	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("%w: negative timeout", ErrInvalidConfigValue))
	}

	if c.MaxAttempts < 0 {
		errs = append(errs, fmt.Errorf("%w: negative max attempts", ErrInvalidConfigValue))
	}

	if c.RetryWaitMax > 0 && c.RetryWaitMin > c.RetryWaitMax {
		errs = append(errs, fmt.Errorf("%w: retry wait min exceeds max", ErrInvalidConfigValue))
	}

	return errors.Join(errs...)
}
