package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port    string
	LogMode string

	DBHost         string
	DBPort         string
	DBUser         string
	DBPassword     string
	DBName         string
	DBMaxOpenConns int
	DBMaxIdleConns int

	JWTKey string

	RedisAddr           string
	QuizCacheTTLMinutes int

	CompletionWebhookURL string
	SendgridAPIKey       string
	SendgridFromEmail    string
	SendgridFromName     string
	CompletionMailTo     string

	ProgressAuditCron string
}

// AppConfig is a global variable to access configuration
var AppConfig *Config

// LoadConfig initializes configuration from environment variables or defaults
func LoadConfig() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found. Using system environment variables.")
	}

	AppConfig = &Config{
		Port:    getEnv("PORT", "3000"),
		LogMode: getEnv("LOG_MODE", "dev"),

		DBHost:         getEnv("DB_HOST", "localhost"),
		DBPort:         getEnv("DB_PORT", "5432"),
		DBUser:         getEnv("DB_USER", "postgres"),
		DBPassword:     getEnv("DB_PASSWORD", ""),
		DBName:         getEnv("DB_NAME", "coursehub"),
		DBMaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 10),
		DBMaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 5),

		JWTKey: getEnv("JWT_SECRET_KEY", "defaultSecret"),

		// Empty disables the quiz cache.
		RedisAddr:           getEnv("REDIS_ADDR", ""),
		QuizCacheTTLMinutes: getEnvInt("QUIZ_CACHE_TTL_MINUTES", 10),

		CompletionWebhookURL: getEnv("COMPLETION_WEBHOOK_URL", ""),
		SendgridAPIKey:       getEnv("SENDGRID_API_KEY", ""),
		SendgridFromEmail:    getEnv("SENDGRID_FROM_EMAIL", "noreply@coursehub.local"),
		SendgridFromName:     getEnv("SENDGRID_FROM_NAME", "CourseHub"),
		CompletionMailTo:     getEnv("COMPLETION_MAIL_TO", ""),

		ProgressAuditCron: getEnv("PROGRESS_AUDIT_CRON", "0 3 * * *"),
	}

	// Validate critical configuration
	if AppConfig.JWTKey == "defaultSecret" {
		log.Println("Warning: Using default JWT_SECRET_KEY. Update it in your environment.")
	}
	if AppConfig.DBPassword == "" {
		log.Println("Warning: DB_PASSWORD is empty. Update it in your environment.")
	}
	if AppConfig.SendgridAPIKey != "" && AppConfig.CompletionMailTo == "" {
		log.Println("Warning: SENDGRID_API_KEY is set but COMPLETION_MAIL_TO is empty; completion mail disabled.")
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt retrieves an environment variable as an integer or returns the default integer value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Error converting environment variable %s to int: %v", key, err)
		return defaultValue
	}
	return intValue
}
