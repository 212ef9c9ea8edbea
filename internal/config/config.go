package config

import (
	"os"

	"github.com/go-yaml/yaml"

	"github.com/fdwmarket/marketd"
	"github.com/fdwmarket/marketd/internal/domain"
)

type Config struct {
	NodeInfo domain.Config `yaml:"nodeInfo"`
	Server   Server        `yaml:"server"`
}

type Server struct {
	PostgresDsn   string `yaml:"postgresDsn"`
	FdwDsn        string `yaml:"fdwDsn"`
	RedisAddr     string `yaml:"redisAddr"`
	RedisPassword string `yaml:"redisPassword"`
	RedisDB       int    `yaml:"redisDB"`
	MemcachedAddr string `yaml:"memcachedAddr"`
	Listen        string `yaml:"listen"`
	EnableTrace   bool   `yaml:"enableTrace"`
	TraceEndpoint string `yaml:"traceEndpoint"`
}

func Load(path string) (Config, error) {

	file, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}

	var config Config
	err = yaml.NewDecoder(file).Decode(&config)
	if err != nil {
		return Config{}, err
	}

	fingerprint, err := marketd.PrivKeyToFingerprint(config.NodeInfo.PrivateKey)
	if err != nil {
		panic(err)
	}

	config.NodeInfo.Fingerprint = fingerprint

	if config.Server.Listen == "" {
		config.Server.Listen = ":8000"
	}

	return config, nil
}
