package config

import (
	"log"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	Env               string `mapstructure:"ENV"`
	DatabaseURL       string `mapstructure:"DATABASE_URL"`
	DatabaseName      string `mapstructure:"DATABASE_NAME"`
	JWTSecret         string `mapstructure:"JWT_SECRET"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Redis configuration.
	RedisAddr      string `mapstructure:"REDIS_ADDR"`
	RedisPassword  string `mapstructure:"REDIS_PASSWORD"`
	RedisPaymentDB int    `mapstructure:"REDIS_PAYMENT_DB"`
	RedisTaskDB    int    `mapstructure:"REDIS_TASK_DB"`

	// Safepay (direct-redirect gateway).
	SafepayBaseURL   string `mapstructure:"SAFEPAY_BASE_URL"`
	SafepayAPIKey    string `mapstructure:"SAFEPAY_API_KEY"`
	SafepayReturnURL string `mapstructure:"SAFEPAY_RETURN_URL"`
	SafepayCancelURL string `mapstructure:"SAFEPAY_CANCEL_URL"`

	// Easypay (two-step handshake gateway).
	EasypayStoreID     string `mapstructure:"EASYPAY_STORE_ID"`
	EasypayCallbackURL string `mapstructure:"EASYPAY_CALLBACK_URL"`
	EasypaySandbox     bool   `mapstructure:"EASYPAY_SANDBOX"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	// Set default values.
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("DATABASE_NAME", "carvia")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_PAYMENT_DB", 0)
	viper.SetDefault("REDIS_TASK_DB", 1)
	viper.SetDefault("SAFEPAY_BASE_URL", "https://sandbox.api.getsafepay.com")
	viper.SetDefault("SAFEPAY_RETURN_URL", "http://localhost:3000/payment/success")
	viper.SetDefault("SAFEPAY_CANCEL_URL", "http://localhost:3000/payment/cancel")
	viper.SetDefault("EASYPAY_CALLBACK_URL", "http://localhost:3000/payment/return")
	viper.SetDefault("EASYPAY_SANDBOX", true)

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}
