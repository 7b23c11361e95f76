package config

import (
	"time"

	"github.com/spf13/viper"
)

const (
	keepAliveEnabledVar  = "KEEPALIVE_ENABLED"
	keepAliveScheduleVar = "KEEPALIVE_SCHEDULE"
	keepAliveMarginVar   = "KEEPALIVE_MARGIN"
)

type KeepAliveConfig interface {
	GetKeepAliveEnabled() bool
	GetKeepAliveSchedule() string
	GetKeepAliveMargin() time.Duration
}

type KeepAlive struct {
	v *viper.Viper
}

var _ KeepAliveConfig = KeepAlive{}

func (k KeepAlive) GetKeepAliveEnabled() bool {
	return k.v.GetBool(keepAliveEnabledVar)
}

func (k KeepAlive) GetKeepAliveSchedule() string {
	return k.v.GetString(keepAliveScheduleVar)
}

// GetKeepAliveMargin renews access tokens expiring within this window
func (k KeepAlive) GetKeepAliveMargin() time.Duration {
	return durationOr(k.v.GetDuration(keepAliveMarginVar), 2*time.Minute)
}
