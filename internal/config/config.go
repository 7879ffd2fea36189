// Package config provides functionality for managing configuration options
// for the application using command-line flags, environment variables, and
// an optional JSON config file.
package config

import (
	"encoding/json"
	"flag"
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Options holds the configuration values for the application.
type Options struct {
	// Port defines the server's listening address (ip:port).
	Port string

	// DatabaseDSN holds the database connection string for the application.
	DatabaseDSN string

	// JWTSecret signs and verifies session tokens (HS256).
	JWTSecret string

	// BlobRoot is the base directory for the filesystem blob store.
	// Ignored when S3Bucket is set.
	BlobRoot string

	// S3Bucket, S3Region, S3Endpoint, S3KeyID, and S3Secret configure the
	// S3-compatible blob store. Leaving S3Bucket empty selects the
	// filesystem store.
	S3Bucket   string
	S3Region   string
	S3Endpoint string
	S3KeyID    string
	S3Secret   string

	// PurgeRetentionDays defines how long soft-deleted documents are kept
	// before the background cleaner hard-deletes them.
	PurgeRetentionDays int

	// Config is the path to the Config file.
	Config string
}

// options holds the current configuration values.
var options = &Options{}

// init initializes command-line flags and sets default values.
func init() {
	flag.StringVar(&options.Port, "a", "localhost:8080", "run on ip:port server")
	flag.StringVar(&options.DatabaseDSN, "d", "", "db address")
	flag.StringVar(&options.BlobRoot, "b", "blobs", "base directory for the filesystem blob store")
	flag.IntVar(&options.PurgeRetentionDays, "r", 30, "soft-delete retention in days")
	flag.StringVar(&options.Config, "config", "config.json", "path to config file")
	flag.StringVar(&options.Config, "c", "config.json", "path to config file (shorthand)")
}

// Parse parses the command-line flags, the optional .env file, the optional
// JSON config file, and environment variables to set configuration values.
// It returns a pointer to the Options struct containing the parsed
// configuration values. Environment variables win over the config file,
// which wins over flag defaults.
func Parse() *Options {
	flag.Parse()

	// Load a local .env file if present; a missing file is not an error.
	_ = godotenv.Load()

	if configPath := os.Getenv("CONFIG"); configPath != "" {
		options.Config = configPath
	}

	if options.Config != "" {
		if _, err := os.Stat(options.Config); err == nil {
			data, err := os.ReadFile(options.Config)
			if err != nil {
				log.Fatalf("error while reading config file: %v", err)
			}
			if err := json.Unmarshal(data, options); err != nil {
				log.Fatalf("error while parsing config file: %v", err)
			}
		}
	}

	if serverAddress := os.Getenv("SERVER_ADDRESS"); serverAddress != "" {
		options.Port = serverAddress
	}
	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		options.DatabaseDSN = dsn
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		options.JWTSecret = secret
	}
	if root := os.Getenv("BLOB_ROOT"); root != "" {
		options.BlobRoot = root
	}
	if bucket := os.Getenv("S3_BUCKET"); bucket != "" {
		options.S3Bucket = bucket
	}
	if region := os.Getenv("S3_REGION"); region != "" {
		options.S3Region = region
	}
	if endpoint := os.Getenv("S3_ENDPOINT"); endpoint != "" {
		options.S3Endpoint = endpoint
	}
	if keyID := os.Getenv("S3_KEY_ID"); keyID != "" {
		options.S3KeyID = keyID
	}
	if secret := os.Getenv("S3_SECRET"); secret != "" {
		options.S3Secret = secret
	}

	return options
}
