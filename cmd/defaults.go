package cmd

import (
	"time"

	"dispatch/internal/adapters/out/notify"
	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/domain/services"
	"dispatch/internal/jobs"
)

const (
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

const (
	defaultHTTPPort       = 8080
	defaultBackend        = BackendPostgres
	defaultRabbitExchange = "dispatch.notifications"
	defaultMongoDB        = "dispatch"
	defaultNotifyWorkers  = 2
)

var defaultDB = DBConfig{
	Host:    "localhost",
	Port:    "5432",
	User:    "postgres",
	Name:    "dispatch",
	SslMode: "disable",
}

func defaultConfig() Config {
	return Config{
		HTTPPort:            defaultHTTPPort,
		StorageBackend:      defaultBackend,
		DB:                  defaultDB,
		RabbitExchange:      defaultRabbitExchange,
		MongoDB:             defaultMongoDB,
		MaxDistanceKm:       services.DefaultMaxDistanceKm,
		PlatformDeliveryFee: services.DefaultPlatformFee,
		SnapshotTimeout:     commands.DefaultSnapshotTimeout,
		RetrySchedule:       jobs.DefaultRetrySchedule,
		NotifyQueueSize:     notify.DefaultQueueSize,
		NotifyWorkers:       defaultNotifyWorkers,
		NotifyTimeout:       notify.DefaultDeliveryTimeout,
		ShutdownTimeout:     10 * time.Second,
	}
}
