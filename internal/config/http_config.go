package config

import (
	"time"

	"github.com/spf13/viper"
)

const (
	requestTimeoutVar = "REQUEST_TIMEOUT"
	refreshTimeoutVar = "REFRESH_TIMEOUT"
)

type HTTPConfig interface {
	GetRequestTimeout() time.Duration
	GetRefreshTimeout() time.Duration
}

type HTTP struct {
	v *viper.Viper
}

var _ HTTPConfig = HTTP{}

// GetRequestTimeout bounds every single attempt of an authenticated request
func (h HTTP) GetRequestTimeout() time.Duration {
	return durationOr(h.v.GetDuration(requestTimeoutVar), 20*time.Second)
}

// GetRefreshTimeout bounds a token renewal call
func (h HTTP) GetRefreshTimeout() time.Duration {
	return durationOr(h.v.GetDuration(refreshTimeoutVar), 10*time.Second)
}

func durationOr(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}
