package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	portEnvVar         = "PORT"
	jwtSecretVar       = "JWT_SECRET"
	accessTokenTTLVar  = "ACCESS_TOKEN_TTL"
	refreshTokenTTLVar = "REFRESH_TOKEN_TTL"
)

// DevServerConfig configures the in-process development backend
type DevServerConfig interface {
	GetPort() string
	GetJWTSecret() string
	GetAccessTokenTTL() time.Duration
	GetRefreshTokenTTL() time.Duration
}

type DevServer struct {
	v *viper.Viper
}

var _ DevServerConfig = DevServer{}

func (d DevServer) GetPort() string {
	port := d.v.GetString(portEnvVar)
	if port == "" {
		port = "8080"
	}
	if !strings.HasPrefix(port, ":") {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (d DevServer) GetJWTSecret() string {
	return d.v.GetString(jwtSecretVar)
}

func (d DevServer) GetAccessTokenTTL() time.Duration {
	return durationOr(d.v.GetDuration(accessTokenTTLVar), 15*time.Minute)
}

func (d DevServer) GetRefreshTokenTTL() time.Duration {
	return durationOr(d.v.GetDuration(refreshTokenTTLVar), 7*24*time.Hour)
}
