package envconfig

import (
	"github.com/caarlos0/env/v6"
)

type StorageServiceEnvConfig struct {
	DataDir string `env:"DATA_DIR" envDefault:"data"`
	Host    string `env:"HOST" envDefault:"0.0.0.0"`
	Port    string `env:"PORT" envDefault:"5000"`
}

func ReadStorageServiceEnv() (*StorageServiceEnvConfig, error) {
	cfg := &StorageServiceEnvConfig{}
	err := env.Parse(cfg)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}
