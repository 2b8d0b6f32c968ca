package retry

import (
	"time"

	"github.com/avast/retry-go/v4"
)

// RetryConfig holds backoff settings for outbound calls that are worth
// repeating, such as AI completions.
type RetryConfig struct {
	Attempts uint          `env:"ATTEMPTS" envDefault:"3"`
	Delay    time.Duration `env:"DELAY" envDefault:"100ms"`
	MaxDelay time.Duration `env:"MAX_DELAY" envDefault:"2s"`
	Timeout  time.Duration `env:"TIMEOUT" envDefault:"60s"`
}

// Options converts the config into retry-go options. LastErrorOnly keeps the
// returned error classifiable instead of an aggregate of every attempt.
func (rc *RetryConfig) Options() []retry.Option {
	return []retry.Option{
		retry.Attempts(rc.Attempts),
		retry.Delay(rc.Delay),
		retry.MaxDelay(rc.MaxDelay),
		retry.LastErrorOnly(true),
	}
}
