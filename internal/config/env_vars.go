package config

import (
	"os"
	"strings"

	"github.com/spf13/viper"
)

const (
	appNameVar    = "APP_NAME"
	envVar        = "ENV"
	logLevelVar   = "LOG_LEVEL"
	apiBaseURLVar = "API_BASE_URL"
	folderEnvVar  = "DATA_FOLDER"
	loginPathVar  = "LOGIN_PATH"
)

type EnvConfig interface {
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
	GetAPIBaseURL() string
	GetDataFolder() string
	GetLoginPath() string
}

type EnvVars struct {
	v *viper.Viper
}

var _ EnvConfig = EnvVars{}

func (e EnvVars) GetAppName() string {
	return e.v.GetString(appNameVar)
}

func (e EnvVars) GetEnv() string {
	env := e.v.GetString(envVar)
	if env == "" {
		return "DEV"
	}
	return strings.ToUpper(env)
}

func (e EnvVars) GetLogLevel() string {
	return e.v.GetString(logLevelVar)
}

// GetAPIBaseURL returns the backend base URL without a trailing slash (e.g., "https://shop.example.com")
func (e EnvVars) GetAPIBaseURL() string {
	return strings.TrimRight(e.v.GetString(apiBaseURLVar), "/")
}

func (e EnvVars) GetDataFolder() string {
	return e.v.GetString(folderEnvVar)
}

// GetLoginPath is where the client navigates after logout or a failed renewal
func (e EnvVars) GetLoginPath() string {
	return e.v.GetString(loginPathVar)
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
