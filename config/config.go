package config

import (
	"database/sql"
	"errors"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/spf13/viper"
	"strings"
	"time"
)

type Config struct {
	App     App       `yaml:"app"`
	DB      *sql.DB   `yaml:"db"`
	Queue   *RabbitMQ `yaml:"rabbitmq"`
	Server  Server    `yaml:"server"`
	Daily   Daily     `yaml:"daily"`
	Consult Consult   `yaml:"consult"`
	Auth    Auth      `yaml:"auth"`
}

type App struct {
	Environment string `yaml:"environment"`
	BaseURL     string `yaml:"base_url"`
}

type Server struct {
	HttpPort string `yaml:"http_port"`
	Workers  int    `yaml:"workers"`
}

type RabbitMQ struct {
	Host         string `json:"host"`
	Port         int    `json:"port"`
	User         string `json:"user"`
	Pass         string `json:"pass"`
	ExchangeName string `json:"exchange_name"`
	Kind         string `json:"kind"`
}

type Daily struct {
	APIKey     string        `yaml:"api_key"`
	APIBaseURL string        `yaml:"api_base_url"`
	TokenTTL   time.Duration `yaml:"token_ttl_minutes"`
	RoomTTL    time.Duration `yaml:"room_exp_minutes"`
	Timeout    time.Duration `yaml:"timeout_seconds"`
	RoomPrefix string        `yaml:"room_prefix"`
}

type Consult struct {
	DefaultDepartment string        `yaml:"default_department"`
	JoinKeyTTL        time.Duration `yaml:"join_key_ttl_minutes"`
	WindowLead        time.Duration `yaml:"window_lead_minutes"`
	WindowGrace       time.Duration `yaml:"window_grace_minutes"`
	DefaultDuration   time.Duration `yaml:"default_duration_minutes"`
}

type Auth struct {
	JWTSecret string `yaml:"jwt_secret"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.environment", "develop")
	v.SetDefault("app.base_url", "http://localhost:8080")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.workers", 2)
	v.SetDefault("rabbitmq_port", 5672)
	v.SetDefault("rabbitmq_kind", "topic")
	v.SetDefault("daily.api_base_url", "https://api.daily.co/v1")
	v.SetDefault("daily.token_ttl_minutes", 10)
	v.SetDefault("daily.room_exp_minutes", 60)
	v.SetDefault("daily.timeout_seconds", 30)
	v.SetDefault("daily.room_prefix", "consult")
	v.SetDefault("consult.join_key_ttl_minutes", 60)
	v.SetDefault("consult.window_lead_minutes", 10)
	v.SetDefault("consult.window_grace_minutes", 60)
	v.SetDefault("consult.default_duration_minutes", 30)
}

// Load reads config.yaml from path. Environment variables override file
// values with dots replaced by underscores (DAILY_API_KEY for daily.api_key),
// and a .env file in the working directory is loaded first when present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	err := v.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	db, err := sql.Open("postgres", v.GetString("postgresql_host"))
	if err != nil {
		return nil, err
	}

	rabbitmq := &RabbitMQ{
		Host: v.GetString("rabbitmq_host"),
		Port: v.GetInt("rabbitmq_port"),
		User: v.GetString("rabbitmq_user"),
		Pass: v.GetString("rabbitmq_pass"),
		Kind: v.GetString("rabbitmq_kind"),
	}

	return &Config{
		App: App{
			Environment: v.GetString("app.environment"),
			BaseURL:     v.GetString("app.base_url"),
		},
		Server: Server{
			HttpPort: v.GetString("server.port"),
			Workers:  v.GetInt("server.workers"),
		},
		Daily: Daily{
			APIKey:     v.GetString("daily.api_key"),
			APIBaseURL: v.GetString("daily.api_base_url"),
			TokenTTL:   minutes(v, "daily.token_ttl_minutes"),
			RoomTTL:    minutes(v, "daily.room_exp_minutes"),
			Timeout:    time.Duration(v.GetInt("daily.timeout_seconds")) * time.Second,
			RoomPrefix: v.GetString("daily.room_prefix"),
		},
		Consult: Consult{
			DefaultDepartment: v.GetString("consult.default_department"),
			JoinKeyTTL:        minutes(v, "consult.join_key_ttl_minutes"),
			WindowLead:        minutes(v, "consult.window_lead_minutes"),
			WindowGrace:       minutes(v, "consult.window_grace_minutes"),
			DefaultDuration:   minutes(v, "consult.default_duration_minutes"),
		},
		Auth: Auth{
			JWTSecret: v.GetString("auth.jwt_secret"),
		},
		DB:    db,
		Queue: rabbitmq,
	}, nil
}

func minutes(v *viper.Viper, key string) time.Duration {
	return time.Duration(v.GetInt(key)) * time.Minute
}
