package main

import "time"

type Config struct {
	ConnectionBufferSize      int           `env:"CONNECTION_BUFFER_SIZE,required=true"`
	DeliveryTimeout           time.Duration `env:"DELIVERY_TIMEOUT,required=true"`
	WriteTimeout              time.Duration `env:"WRITE_TIMEOUT,required=true"`
	RestartInterval           time.Duration `env:"RESTART_INTERVAL,required=true"`
	TelemetryInterval         time.Duration `env:"TELEMETRY_INTERVAL,required=true"`
	TokenDuration             time.Duration `env:"TOKEN_DURATION,required=true"`
	ModerationCharReplacement rune          `env:"MODERATION_CHARACTER_REPLACEMENT,required=true"`
	BadgerFilepath            string        `env:"BADGER_FILEPATH,required=true"`
	LogLevel                  string        `env:"LOG_LEVEL,required=true"`
	Host                      string        `env:"HOST,default=localhost"`
	Port                      int           `env:"PORT,default=8080"`
}
