package env

import (
	"context"
	"os"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	// Sentinels is a comma separated list of alternating host and port
	// entries, e.g. "10.0.0.1,26379,10.0.0.2,26379".
	Sentinels []string `env:"BEACON_SENTINELS"`

	// MasterName is the replication group to discover.
	MasterName string `env:"BEACON_MASTER_NAME,default=mymaster"`

	DebugHTTP bool `env:"BEACON_DEBUG_HTTP"`
}

func LoadConfig(ctx context.Context) (*Config, error) {
	config := Config{}

	if err := godotenv.Load(".env.local"); err != nil {
		if !os.IsNotExist(err) {
			panic(err)
		}
	}

	if err := envconfig.Process(ctx, &config); err != nil {
		return nil, err
	}

	return &config, nil
}
