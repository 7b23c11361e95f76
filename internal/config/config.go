package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

const configFileEnvVar = "SHOP_CONFIG"

type Config interface {
	EnvConfig
	HTTPConfig
	StorageConfig
	KeepAliveConfig
	DevServerConfig
}

type mainConfig struct {
	EnvVars
	HTTP
	Storage
	KeepAlive
	DevServer
}

// New builds the configuration from environment variables, plus the file named by SHOP_CONFIG when set.
func New() Config {
	c, err := Load(os.Getenv(configFileEnvVar))
	if err != nil {
		// An unreadable config file falls back to env vars and defaults.
		return fromViper(newViper())
	}
	return c
}

// Load builds the configuration, reading the given file (yaml, json or toml) when path is not empty.
func Load(path string) (Config, error) {
	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("[config Load] failed to read %s: %w", path, err)
		}
	}
	return fromViper(v), nil
}

func fromViper(v *viper.Viper) Config {
	return mainConfig{
		EnvVars:   EnvVars{v: v},
		HTTP:      HTTP{v: v},
		Storage:   Storage{v: v},
		KeepAlive: KeepAlive{v: v},
		DevServer: DevServer{v: v},
	}
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault(appNameVar, "Go Shop Client")
	v.SetDefault(envVar, "DEV")
	v.SetDefault(logLevelVar, "info")
	v.SetDefault(apiBaseURLVar, "http://localhost:8080")
	v.SetDefault(folderEnvVar, "./data")
	v.SetDefault(loginPathVar, "/login")

	v.SetDefault(requestTimeoutVar, "20s")
	v.SetDefault(refreshTimeoutVar, "10s")

	v.SetDefault(storageBackendVar, StorageBackendSQLite)
	v.SetDefault(storagePathVar, "")
	v.SetDefault(storagePassphraseVar, "")

	v.SetDefault(keepAliveEnabledVar, true)
	v.SetDefault(keepAliveScheduleVar, "@every 1m")
	v.SetDefault(keepAliveMarginVar, "2m")

	v.SetDefault(portEnvVar, "8080")
	v.SetDefault(jwtSecretVar, "")
	v.SetDefault(accessTokenTTLVar, "15m")
	v.SetDefault(refreshTokenTTLVar, "168h")
	return v
}
