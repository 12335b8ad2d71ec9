package config

import (
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	JWTSecret  string
	ServerPort string

	// PollInterval is advertised to clients as the recommended poll cadence.
	PollInterval time.Duration
	// MinQuestionDisplay is how long a question must be visible before
	// auto-advance may finish it.
	MinQuestionDisplay time.Duration
	// AutoAdvanceSettle is the delay between the last answer arriving and
	// auto-advance finishing the question.
	AutoAdvanceSettle time.Duration
}

func Load() *Config {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "postgres")
	viper.SetDefault("DB_PASSWORD", "postgres")
	viper.SetDefault("DB_NAME", "quizlive")
	viper.SetDefault("JWT_SECRET", "super-secret-key-change-me")
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("POLL_INTERVAL", "2s")
	viper.SetDefault("MIN_QUESTION_DISPLAY", "5s")
	viper.SetDefault("AUTO_ADVANCE_SETTLE", "1s")

	if err := viper.ReadInConfig(); err != nil {
		log.Debug().Err(err).Msg("no .env file, using environment and defaults")
	}

	return &Config{
		DBHost:             viper.GetString("DB_HOST"),
		DBPort:             viper.GetString("DB_PORT"),
		DBUser:             viper.GetString("DB_USER"),
		DBPassword:         viper.GetString("DB_PASSWORD"),
		DBName:             viper.GetString("DB_NAME"),
		JWTSecret:          viper.GetString("JWT_SECRET"),
		ServerPort:         viper.GetString("SERVER_PORT"),
		PollInterval:       viper.GetDuration("POLL_INTERVAL"),
		MinQuestionDisplay: viper.GetDuration("MIN_QUESTION_DISPLAY"),
		AutoAdvanceSettle:  viper.GetDuration("AUTO_ADVANCE_SETTLE"),
	}
}
