// Package config loads the pet store configuration from PETSTORE_*
// environment variables.
//
// Server settings:
//
//	PETSTORE_HOST="0.0.0.0"
//	PETSTORE_PORT="8080"
//	PETSTORE_HEALTH_PORT="9090"       # /metrics and /health probes
//	PETSTORE_READ_TIMEOUT="15s"
//	PETSTORE_WRITE_TIMEOUT="15s"
//	PETSTORE_SHUTDOWN_TIMEOUT="30s"
//	PETSTORE_CORS_ORIGINS="http://localhost:3000,https://shop.example"
//
// Storage settings:
//
//	PETSTORE_STORAGE_TYPE="file"      # file, s3, postgres, sqlite
//	PETSTORE_FILE_PATH="pets.json"
//	PETSTORE_SEED_ON_START="false"
//	PETSTORE_SQL_URL="postgres://localhost/petstore?sslmode=disable"
//	PETSTORE_SQL_TABLE="pets"         # pets, cats, dogs
//	PETSTORE_S3_BUCKET="petstore"
//	PETSTORE_S3_KEY="pets.json"
//	PETSTORE_S3_ENDPOINT="http://localhost:9000"
//	PETSTORE_CACHE_ENABLED="true"
//	PETSTORE_REDIS_URL="redis://localhost:6379/0"
//
// Observability settings:
//
//	PETSTORE_LOG_LEVEL="info"
//	PETSTORE_METRICS_ENABLED="true"
//	PETSTORE_OTEL_ENABLED="false"
//	PETSTORE_OTEL_ENDPOINT="localhost:4317"
//
// Snapshots:
//
//	PETSTORE_BACKUP_SCHEDULE="@daily" # empty disables snapshots
//	PETSTORE_BACKUP_DIR="backups"
//	PETSTORE_BACKUP_PREFIX="backups/"
package config
