package config

import (
	"time"

	"github.com/gaze-network/btcname-indexer/core/datasources"
	"github.com/gaze-network/btcname-indexer/internal/postgres"
)

type Config struct {
	Datasource  string   `mapstructure:"datasource"`   // Datasource to fetch inscription events. `ord-postgres` or `s3-parquet`
	Database    string   `mapstructure:"database"`     // Database to store data. `postgres` or `memory`
	APIHandlers []string `mapstructure:"api_handlers"` // List of API handlers to enable. (e.g. `http`)

	// Registration modes to run. `btc_domain` and/or `btc_name`. Default is `btc_domain`.
	Modes []string `mapstructure:"modes"`
	// Suffixes of the `btc_name` mode. Default is `btc`.
	// Changing them against an existing database is refused.
	Suffixes []string `mapstructure:"suffixes"`

	PollingInterval time.Duration `mapstructure:"polling_interval"` // Default is 15s
	NameCacheTTL    time.Duration `mapstructure:"name_cache_ttl"`   // Default is 1m

	Postgres    postgres.Config             `mapstructure:"postgres"`
	OrdPostgres postgres.Config             `mapstructure:"ord_postgres"` // Database of the ordinals indexer for `ord-postgres` datasource
	S3          datasources.S3ParquetConfig `mapstructure:"s3"`           // Archive location for `s3-parquet` datasource
}
