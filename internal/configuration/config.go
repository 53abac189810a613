package configuration

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Storage  StorageConfig
	Remote   RemoteConfig
	Log      LogConfig
	NATSURL  string
	ClamAV   string
	OIDC     OIDCConfig
	Tracing  TracingConfig
	Postgres string
}

type ServerConfig struct {
	Port           string
	MaxUploadBytes int64
	HideLocalPaths bool
}

type StorageConfig struct {
	DataDir         string
	UploadsDir      string
	MetadataBackend string // "file" or "postgres"
}

// RemoteConfig describes the S3-compatible bucket (Cloudflare R2, MinIO).
type RemoteConfig struct {
	Enabled         bool
	Bucket          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	PublicURL       string
	UseSSL          bool
}

type LogConfig struct {
	Level  string
	Format string
}

type OIDCConfig struct {
	IssuerURL string
	ClientID  string
}

type TracingConfig struct {
	Enabled     bool
	ServiceName string
	Environment string
}

// Requested reports whether the remote backend should be set up at all.
func (r RemoteConfig) Requested() bool {
	return r.Enabled && r.Bucket != ""
}

// HasCredentials reports whether both halves of the key pair are present.
func (r RemoteConfig) HasCredentials() bool {
	return r.AccessKeyID != "" && r.SecretAccessKey != ""
}

// Load reads .env (if present) and then the process environment.
func Load() *Config {
	_ = godotenv.Load()
	return fromEnv()
}

func fromEnv() *Config {
	bucket := getEnv("R2_BUCKET_NAME", "")
	return &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "3000"),
			MaxUploadBytes: getEnvInt64("MAX_UPLOAD_BYTES", 200<<20),
			HideLocalPaths: getEnv("HIDE_LOCAL_PATHS", "false") == "true",
		},
		Storage: StorageConfig{
			DataDir:         getEnv("DATA_DIR", "./data"),
			UploadsDir:      getEnv("UPLOADS_DIR", "./uploads"),
			MetadataBackend: strings.ToLower(getEnv("METADATA_BACKEND", "file")),
		},
		Remote: RemoteConfig{
			Enabled:         remoteEnabled(getEnv("R2_ENABLED", ""), bucket),
			Bucket:          bucket,
			Endpoint:        getEnv("R2_ENDPOINT", ""),
			AccessKeyID:     getEnv("R2_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("R2_SECRET_ACCESS_KEY", ""),
			Region:          getEnv("AWS_REGION", "auto"),
			PublicURL:       getEnv("R2_PUBLIC_URL", ""),
			UseSSL:          getEnv("R2_USE_SSL", "true") == "true",
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		NATSURL: getEnv("NATS_URL", ""),
		ClamAV:  getEnv("CLAMAV_URL", ""),
		OIDC: OIDCConfig{
			IssuerURL: getEnv("OIDC_ISSUER_URL", ""),
			ClientID:  getEnv("OIDC_CLIENT_ID", ""),
		},
		Tracing: TracingConfig{
			Enabled:     getEnv("DD_TRACE_ENABLED", "false") == "true",
			ServiceName: getEnv("DD_SERVICE", "image-service"),
			Environment: getEnv("DD_ENV", ""),
		},
		Postgres: getEnv("DATABASE_URL", ""),
	}
}

// remoteEnabled: an explicit "false" always wins; otherwise "true" or a
// bucket name turns the remote on.
func remoteEnabled(flag, bucket string) bool {
	switch strings.ToLower(flag) {
	case "false", "0", "no":
		return false
	case "true", "1", "yes":
		return true
	}
	return bucket != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	v, err := strconv.ParseInt(getEnv(key, ""), 10, 64)
	if err != nil || v <= 0 {
		return defaultValue
	}
	return v
}
