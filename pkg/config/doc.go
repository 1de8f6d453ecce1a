// Package config loads typed configuration structs from environment
// variables.
//
// Configuration structs declare their environment mapping with `env` struct
// tags and optional `envDefault` values. A .env file in the working directory
// is loaded once per process before the first parse, which keeps local
// development friction-free without affecting deployed environments.
//
// # Usage
//
//	type StoreConfig struct {
//		URL            string        `env:"CONFIGSTORE_URL,required"`
//		ConnectTimeout time.Duration `env:"CONFIGSTORE_CONNECT_TIMEOUT" envDefault:"10s"`
//	}
//
//	var cfg StoreConfig
//	if err := config.Load(&cfg); err != nil {
//		// handle error
//	}
//
// Use MustLoad for configuration the process cannot start without.
package config
