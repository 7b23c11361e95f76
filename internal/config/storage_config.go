package config

import (
	"path/filepath"

	"github.com/spf13/viper"
)

const (
	storageBackendVar    = "STORAGE_BACKEND"
	storagePathVar       = "STORAGE_PATH"
	storagePassphraseVar = "STORAGE_PASSPHRASE"
)

const (
	StorageBackendSQLite = "sqlite"
	StorageBackendMemory = "memory"
)

type StorageConfig interface {
	GetStorageBackend() string
	GetStoragePath() string
	GetStoragePassphrase() string
}

type Storage struct {
	v *viper.Viper
}

var _ StorageConfig = Storage{}

func (s Storage) GetStorageBackend() string {
	switch b := s.v.GetString(storageBackendVar); b {
	case StorageBackendMemory, StorageBackendSQLite:
		return b
	default:
		return StorageBackendSQLite
	}
}

// GetStoragePath defaults to local.db inside the data folder
func (s Storage) GetStoragePath() string {
	if p := s.v.GetString(storagePathVar); p != "" {
		return p
	}
	return filepath.Join(s.v.GetString(folderEnvVar), "local.db")
}

// GetStoragePassphrase enables sealed (encrypted) local storage when not empty
func (s Storage) GetStoragePassphrase() string {
	return s.v.GetString(storagePassphraseVar)
}
