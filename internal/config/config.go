package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server Server
	SQLite SQLite
	Redis  Redis
	Kafka  Kafka
	Auth   Auth
	Sweep  Sweep
	Packs  Packs
}

type Server struct {
	Port string
}

type SQLite struct {
	Path string
}

type Redis struct {
	Addr     string
	Password string
	DB       int
	PoolSize int
}

type Kafka struct {
	Brokers []string
	Topic   string
}

type Auth struct {
	AdminJWTSecret string
}

type Sweep struct {
	Interval  time.Duration
	BatchSize int
}

type Packs struct {
	FreePackCooldown time.Duration
}

func New() *Config {
	return &Config{
		Server: Server{
			Port: os.Getenv("SERVER_PORT"),
		},
		SQLite: SQLite{
			Path: os.Getenv("SQLITE_PATH"),
		},
		Redis: Redis{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       atoiOr(os.Getenv("REDIS_DB"), 0),
			PoolSize: atoiOr(os.Getenv("REDIS_POOL_SIZE"), 10),
		},
		Kafka: Kafka{
			Brokers: strings.Split(os.Getenv("KAFKA_BROKERS"), ","),
			Topic:   os.Getenv("KAFKA_TOPIC"),
		},
		Auth: Auth{
			AdminJWTSecret: os.Getenv("ADMIN_JWT_SECRET"),
		},
		Sweep: Sweep{
			Interval:  durationOr(os.Getenv("SWEEP_INTERVAL_SECONDS"), 60*time.Second),
			BatchSize: atoiOr(os.Getenv("SWEEP_BATCH_SIZE"), 100),
		},
		Packs: Packs{
			FreePackCooldown: durationOr(os.Getenv("FREE_PACK_COOLDOWN_SECONDS"), 24*time.Hour),
		},
	}
}

func atoiOr(s string, def int) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

func durationOr(s string, def time.Duration) time.Duration {
	v, err := strconv.Atoi(s)
	if err != nil || v <= 0 {
		return def
	}
	return time.Duration(v) * time.Second
}
