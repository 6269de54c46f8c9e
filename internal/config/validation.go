package config

import (
	"fmt"
	"strings"

	"github.com/khanglvm/movie-picker/internal/validation"
)

var logLevels = []string{"trace", "debug", "info", "warn", "warning", "error", "fatal", "disabled", "off", "none"}

// Validate checks field constraints and cross-field rules.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c); err != nil {
		return err
	}

	r := c.Recommend
	if r.MinRating >= r.MaxRating {
		return fmt.Errorf("recommend.min_rating (%g) must be below recommend.max_rating (%g)", r.MinRating, r.MaxRating)
	}
	if r.Midpoint < r.MinRating || r.Midpoint > r.MaxRating {
		return fmt.Errorf("recommend.midpoint (%g) must lie within the rating scale %g..%g", r.Midpoint, r.MinRating, r.MaxRating)
	}

	if c.Serve.RateLimit > 0 && c.Serve.RateWindow <= 0 {
		return fmt.Errorf("serve.rate_window must be positive when serve.rate_limit is set")
	}

	if !contains(logLevels, strings.ToLower(c.Logging.Level)) {
		return fmt.Errorf("logging.level %q is not one of %s", c.Logging.Level, strings.Join(logLevels, ", "))
	}
	if f := strings.ToLower(c.Logging.Format); f != "json" && f != "console" {
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}

	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
