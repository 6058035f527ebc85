package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port      string
	DbHost    string
	DbPort    string
	DbUser    string
	DbPass    string
	DbName    string
	DbSSLMode string

	JWTSecret      string
	AccessTokenTTL string

	Log      string
	LogLevel string
	Env      string // dev|prod

	SMTPHost     string
	SMTPPort     string
	SMTPUser     string
	SMTPPassword string

	SMSGatewayURL string
	SMSGatewayKey string
	SMSSenderID   string

	RazorpayKeyID         string
	RazorpayKeySecret     string
	RazorpayWebhookSecret string

	RedisAddr     string
	RedisPassword string
	RedisDB       string

	AWSRegion      string
	AWSAccessKeyID string
	AWSSecretKey   string
	S3Bucket       string

	AssignHour     string // час запуска ежедневной раздачи (0-23)
	OTPTTLMin      string
	MigrationsPath string
}

// LoadConfig загружает .env, читает переменные окружения и выставляет дефолты.
// Ничего не логирует — чтобы не создавать зависимость от logger.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load(".env")

	def := func(v, d string) string {
		v = strings.TrimSpace(v)
		if v == "" {
			return d
		}
		return v
	}

	cfg := &Config{
		Port:      def(os.Getenv("PORT"), "8080"),
		DbHost:    os.Getenv("DB_HOST"),
		DbPort:    def(os.Getenv("DB_PORT"), "5432"),
		DbUser:    os.Getenv("DB_USER"),
		DbPass:    os.Getenv("DB_PASSWORD"),
		DbName:    os.Getenv("DB_NAME"),
		DbSSLMode: def(os.Getenv("DB_SSLMODE"), "disable"),

		JWTSecret:      os.Getenv("JWT_SECRET"),
		AccessTokenTTL: def(os.Getenv("ACCESS_TOKEN_EXPIRY"), "24h"),

		Log:      os.Getenv("LOG"),
		LogLevel: strings.ToLower(def(os.Getenv("LOGLEVEL"), "info")),
		Env:      strings.ToLower(def(os.Getenv("ENV"), "prod")),

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     def(os.Getenv("SMTP_PORT"), "587"),
		SMTPUser:     os.Getenv("SMTP_USER"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),

		SMSGatewayURL: os.Getenv("SMS_GATEWAY_URL"),
		SMSGatewayKey: os.Getenv("SMS_GATEWAY_KEY"),
		SMSSenderID:   def(os.Getenv("SMS_SENDER_ID"), "PALSAN"),

		RazorpayKeyID:         os.Getenv("RAZORPAY_KEY_ID"),
		RazorpayKeySecret:     os.Getenv("RAZORPAY_KEY_SECRET"),
		RazorpayWebhookSecret: os.Getenv("RAZORPAY_WEBHOOK_SECRET"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       def(os.Getenv("REDIS_DB"), "0"),

		AWSRegion:      def(os.Getenv("AWS_REGION"), "ap-south-1"),
		AWSAccessKeyID: os.Getenv("AWS_ACCESS_KEY_ID"),
		AWSSecretKey:   os.Getenv("AWS_SECRET_ACCESS_KEY"),
		S3Bucket:       os.Getenv("S3_BUCKET"),

		AssignHour:     def(os.Getenv("DAILY_ASSIGN_HOUR"), "1"),
		OTPTTLMin:      def(os.Getenv("OTP_TTL_MIN"), "10"),
		MigrationsPath: def(os.Getenv("MIGRATIONS_PATH"), "migrations"),
	}

	return cfg, nil
}

// Validate возвращает предупреждения и фатальную ошибку (если критично).
func (c *Config) Validate() (warnings []string, err error) {
	// Критичные: БД
	if c.DbHost == "" || c.DbUser == "" || c.DbName == "" {
		return nil, fmt.Errorf("incomplete DB config (DB_HOST/DB_USER/DB_NAME)")
	}

	if strings.TrimSpace(c.JWTSecret) == "" {
		warnings = append(warnings, "JWT_SECRET is empty")
	}

	// Razorpay — предупреждение, проект может подниматься и без оплат
	if c.RazorpayKeyID == "" || c.RazorpayKeySecret == "" {
		warnings = append(warnings, "Razorpay credentials are not set")
	}
	if c.RazorpayWebhookSecret == "" {
		warnings = append(warnings, "RAZORPAY_WEBHOOK_SECRET is empty, webhooks will be rejected")
	}

	// Каналы доставки OTP — предупреждение
	if c.SMTPHost == "" || c.SMTPUser == "" {
		warnings = append(warnings, "SMTP is not fully configured")
	}
	if c.SMSGatewayURL == "" {
		warnings = append(warnings, "SMS gateway is not configured")
	}

	// Redis опционален: без него pending-регистрации живут в памяти процесса
	if c.RedisAddr == "" {
		warnings = append(warnings, "REDIS_ADDR is empty, pending signups are stored in-process (single instance only)")
	}

	if c.S3Bucket == "" {
		warnings = append(warnings, "S3_BUCKET is empty, image upload is disabled")
	}

	return warnings, nil
}

// GetDSN — полная DSN (с паролем)
func (c *Config) GetDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DbUser, c.DbPass, c.DbHost, c.DbPort, c.DbName, c.DbSSLMode,
	)
}

// GetDSNSafe — DSN без пароля (для логов)
func (c *Config) GetDSNSafe() string {
	return fmt.Sprintf(
		"postgres://%s:***@%s:%s/%s?sslmode=%s",
		c.DbUser, c.DbHost, c.DbPort, c.DbName, c.DbSSLMode,
	)
}

// AssignHourInt — час запуска ежедневной раздачи вопросов.
func (c *Config) AssignHourInt() int {
	h, err := strconv.Atoi(c.AssignHour)
	if err != nil || h < 0 || h > 23 {
		return 1
	}
	return h
}

// RedisDBInt — номер базы Redis.
func (c *Config) RedisDBInt() int {
	n, err := strconv.Atoi(c.RedisDB)
	if err != nil {
		return 0
	}
	return n
}

// OTPTTL — время жизни pending-регистрации в минутах.
func (c *Config) OTPTTL() int {
	n, err := strconv.Atoi(c.OTPTTLMin)
	if err != nil || n <= 0 {
		return 10
	}
	return n
}
