package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Addr           string
	WorkbookPath   string
	DataDir        string
	AuditRepoDir   string
	AdminEmail     string
	SessionTTL     time.Duration
	CORSOrigin     string
	MeiliURL       string
	MeiliMasterKey string
	// Redis - client-storage namespace and sessions; memory fallback if empty
	RedisURL string
	// S3-compatible storage (Wasabi) - uploads disabled if not configured
	S3Endpoint  string
	S3Region    string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string
	S3UseSSL    bool
	S3PublicURL string
	S3URLExpiry time.Duration
}

func Load() Config {
	return Config{
		Addr:           getenv("API_ADDR", ":3000"),
		WorkbookPath:   getenv("SITEWATCH_WORKBOOK_PATH", "./data/projects.xlsx"),
		DataDir:        getenv("SITEWATCH_DATA_DIR", "./data"),
		AuditRepoDir:   getenv("SITEWATCH_AUDIT_REPO_DIR", "./data/audit"),
		AdminEmail:     getenv("SITEWATCH_ADMIN_EMAIL", ""),
		SessionTTL:     time.Duration(getenvInt("SITEWATCH_SESSION_TTL_SECONDS", 43200)) * time.Second,
		CORSOrigin:     getenv("SITEWATCH_CORS_ORIGIN", "*"),
		MeiliURL:       getenv("MEILI_URL", ""),
		MeiliMasterKey: getenv("MEILI_MASTER_KEY", ""),
		RedisURL:       getenv("REDIS_URL", ""),
		S3Endpoint:     getenv("WASABI_ENDPOINT", ""),
		S3Region:       getenv("WASABI_REGION", "us-east-1"),
		S3Bucket:       getenv("WASABI_BUCKET", ""),
		S3AccessKey:    getenv("WASABI_ACCESS_KEY", ""),
		S3SecretKey:    getenv("WASABI_SECRET_KEY", ""),
		S3UseSSL:       getenvBool("WASABI_USE_SSL", true),
		S3PublicURL:    getenv("WASABI_PUBLIC_URL", ""),
		S3URLExpiry:    time.Duration(getenvInt("WASABI_SIGNED_URL_EXPIRES", 3600)) * time.Second,
	}
}

func getenv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
