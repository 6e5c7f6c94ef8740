package config

import (
	"time"

	"github.com/Gobusters/ectoenv"
	"github.com/go-playground/validator/v10"
)

type Config struct {
	AppName                       string   `env:"APP_NAME" env-default:"listings-reconciler"`
	Port                          int      `env:"PORT" env-default:"3003"`
	LogLevel                      string   `env:"LOG_LEVEL" env-default:"info"`
	PrettyLogs                    bool     `env:"PRETTY_LOGS" env-default:"false"`
	HttpServerWriteTimeoutSeconds int      `env:"HTTP_SERVER_WRITE_TIMEOUT_SECONDS" env-default:"30"`
	HttpServerReadTimeoutSeconds  int      `env:"HTTP_SERVER_READ_TIMEOUT_SECONDS" env-default:"30"`
	HttpServerIdleTimeoutSeconds  int      `env:"HTTP_SERVER_IDLE_TIMEOUT_SECONDS" env-default:"10"`
	AllowOrigins                  []string `env:"HTTP_SERVER_ALLOW_ORIGINS" env-default:"*"`

	// Identity resolution
	FuzzyMatchThreshold float64 `env:"FUZZY_MATCH_THRESHOLD" env-default:"85" validate:"gte=0,lte=100"`
	GeoThresholdMeters  float64 `env:"GEO_THRESHOLD_METERS" env-default:"100" validate:"gte=0"`
	RequireBothSignals  bool    `env:"REQUIRE_BOTH_SIGNALS" env-default:"false"`

	// Id generation
	IDCollisionSuffix bool   `env:"ID_COLLISION_SUFFIX" env-default:"false"`
	CodeTablePath     string `env:"CODE_TABLE_PATH" env-default:""`

	// Engine
	MergeWorkerCount int `env:"MERGE_WORKER_COUNT" env-default:"4" validate:"gte=1"`

	// Batch IO
	PrimaryInputPath   string `env:"PRIMARY_INPUT_PATH" env-default:"data/listings.json"`
	SecondaryInputPath string `env:"SECONDARY_INPUT_PATH" env-default:"data/temp_listings.json"`
	OutputJSONPath     string `env:"OUTPUT_JSON_PATH" env-default:"out/merged_listings.json"`
	OutputCSVPath      string `env:"OUTPUT_CSV_PATH" env-default:""`

	// Image staging
	ImageStagingEnabled bool   `env:"IMAGE_STAGING_ENABLED" env-default:"false"`
	ImageSourceDir      string `env:"IMAGE_SOURCE_DIR" env-default:"."`
	ImageStagingDir     string `env:"IMAGE_STAGING_DIR" env-default:"out/images"`

	// PostgreSQL (merged collection store)
	DatabaseEnabled             bool          `env:"DB_ENABLED" env-default:"false"`
	DatabaseDriver              string        `env:"DB_DRIVER" env-default:"postgres"`
	DatabaseHost                string        `env:"DB_HOST" env-default:"localhost"`
	DatabasePort                string        `env:"DB_PORT" env-default:"5432"`
	DatabaseUserName            string        `env:"DB_USER_NAME" env-default:""`
	DatabasePassword            string        `env:"DB_PASSWORD" env-default:""`
	DatabaseName                string        `env:"DB_NAME" env-default:"reconciler"`
	DatabaseSSLMode             string        `env:"DB_SQL_MODE" env-default:"disable"`
	DatabaseMaxOpenConns        int           `env:"DB_MAX_OPEN_CONNS" env-default:"25"`
	DatabaseMaxIdleConns        int           `env:"DB_MAX_IDLE_CONNS" env-default:"10"`
	DatabaseConnMaxLifetime     time.Duration `env:"DB_CONN_MAX_LIFETIME" env-default:"10s"`
	DatabaseMigrationFolderPath string        `env:"DB_MIGRATION_FOLDER_PATH" env-default:"db/pg"`
	DatabaseMigrationVersion    int           `env:"DB_MIGRATION_VERSION" env-default:"0"`
	DatabaseMigrationForce      int           `env:"DB_MIGRATION_FORCE" env-default:"0"`

	// Kafka Producer (run/listing events)
	KafkaEnabled      bool     `env:"KAFKA_ENABLED" env-default:"false"`
	KafkaBrokers      []string `env:"KAFKA_BROKERS" env-default:"localhost:9092"`
	KafkaOutputTopic  string   `env:"KAFKA_OUTPUT_TOPIC" env-default:"listing-events"`
	KafkaBatchSize    int      `env:"KAFKA_BATCH_SIZE" env-default:"100"`
	KafkaBatchTimeout int      `env:"KAFKA_BATCH_TIMEOUT_MS" env-default:"100"`
	KafkaRequiredAcks int      `env:"KAFKA_REQUIRED_ACKS" env-default:"1"`
	KafkaCompression  string   `env:"KAFKA_COMPRESSION" env-default:"snappy"`

	// Sanity CMS export
	SanityEnabled         bool   `env:"SANITY_ENABLED" env-default:"false"`
	SanityProjectID       string `env:"SANITY_PROJECT_ID" env-default:""`
	SanityDataset         string `env:"SANITY_DATASET" env-default:"production"`
	SanityToken           string `env:"SANITY_API_TOKEN" env-default:""`
	SanityAPIVersion      string `env:"SANITY_API_VERSION" env-default:"2021-06-07"`
	SanityUploadBatchSize int    `env:"SANITY_UPLOAD_BATCH_SIZE" env-default:"50" validate:"gte=1"`
	SanityMaxRetries      int    `env:"SANITY_MAX_RETRIES" env-default:"3" validate:"gte=0"`
}

// Load binds environment variables onto a Config and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := ectoenv.BindEnv(&cfg); err != nil {
		return nil, err
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
