package app

import (
	"context"
	"fmt"
	"time"

	"github.com/adanyl0v/go-taskdesk/internal/config"
	"github.com/adanyl0v/go-taskdesk/internal/storage"
	"github.com/adanyl0v/go-taskdesk/internal/storage/mongostore"
	"github.com/adanyl0v/go-taskdesk/internal/storage/pgstore"
)

var globalStorage storage.Storage

func MustConnectStorage() {
	cfg := config.Global()

	var err error
	switch cfg.Storage.Driver {
	case storage.DriverMongo:
		globalStorage, err = connectMongo(cfg.Mongo)
	case storage.DriverPostgres:
		globalStorage, err = connectPostgres(cfg.Postgres)
	default:
		err = fmt.Errorf("unknown storage driver: %s", cfg.Storage.Driver)
	}
	if err != nil {
		globalLogger.Error().
			Err(err).
			Str("driver", cfg.Storage.Driver).
			Msg("failed to connect to storage")
		panic(err)
	}
}

func connectMongo(cfg config.MongoConfig) (storage.Storage, error) {
	s, err := mongostore.Connect(context.Background(), mongostore.Config{
		URI:            cfg.URI,
		Database:       cfg.Database,
		ConnectTimeout: cfg.ConnectTimeout,
		PingTimeout:    cfg.PingTimeout,
	})
	if err != nil {
		return nil, err
	}
	globalLogger.Info().
		Str("database", cfg.Database).
		Msg("connected to mongo")
	return s, nil
}

func connectPostgres(cfg config.PostgresConfig) (storage.Storage, error) {
	s, err := pgstore.Connect(context.Background(), pgstore.Config{
		Host:           cfg.Host,
		Port:           cfg.Port,
		Username:       cfg.Username,
		Password:       cfg.Password,
		Database:       cfg.Database,
		SSLMode:        cfg.SSLMode,
		ConnectTimeout: cfg.ConnectTimeout,
		PingTimeout:    cfg.PingTimeout,
		Migrate:        cfg.Migrate,
	})
	if err != nil {
		return nil, err
	}
	globalLogger.Info().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Bool("migrated", cfg.Migrate).
		Msg("connected to postgres")
	return s, nil
}

func DisconnectStorage() {
	const timeout = 5 * time.Second
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	err := globalStorage.Close(ctx)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Str("driver", globalStorage.Driver()).
			Msg("failed to disconnect from storage")
		return
	}
	globalLogger.Info().
		Str("driver", globalStorage.Driver()).
		Msg("disconnected from storage")
}
