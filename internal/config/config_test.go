package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad(t *testing.T) {
	for k, v := range map[string]string{
		"APP_ENV": "test", "APP_PORT": "8080",
		"DB_USER": "app", "DB_HOST": "localhost", "DB_PORT": "3306", "DB_NAME": "airport",
		"JWT_SECRET": "s3cret", "ACCESS_TOKEN_TTL_MIN": "15", "REFRESH_TOKEN_TTL_DAYS": "7",
		"BCRYPT_COST": "4", "IMAGE_MAX_BYTES": "1024",
	} {
		t.Setenv(k, v)
	}
	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 15, cfg.AccessTTLMin)
	assert.Equal(t, "media", cfg.MediaRoot)
	assert.Equal(t, "/media/", cfg.MediaURL)
	assert.Equal(t, int64(1024), cfg.ImageMaxBytes)
	assert.True(t, cfg.AutoMigrate)
}

func TestLoadCacheConfigDefaults(t *testing.T) {
	t.Setenv("CACHE_METHODS", "get, head")
	cfg := LoadCacheConfig()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, map[string]bool{"GET": true, "HEAD": true}, cfg.Methods)
	assert.Equal(t, 30*time.Second, cfg.TTL)
	assert.Equal(t, "cache", cfg.Prefix)
}

func TestLoadRateLimitConfigClamps(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_EVERY", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")
	t.Setenv("RATE_LIMIT_BOOKING_CAPACITY", "-3")
	cfg := LoadRateLimitConfig()
	assert.Equal(t, Bucket{Capacity: 1, RefillTokens: 1, RefillInterval: 2 * time.Second, TTL: 10 * time.Second}, cfg.API)
	assert.Equal(t, 1, cfg.Booking.Capacity)
	assert.Equal(t, 6*time.Second, cfg.Booking.RefillInterval)
	assert.Equal(t, 10*time.Minute, cfg.Booking.TTL)
}

func TestBookingBudgetIsTighterByDefault(t *testing.T) {
	cfg := LoadRateLimitConfig()
	assert.Less(t, cfg.Booking.Capacity, cfg.API.Capacity)
	assert.Greater(t, cfg.Booking.RefillInterval, cfg.API.RefillInterval)
	assert.Equal(t, "rl", cfg.Prefix)
}

func TestLoadEventsConfig(t *testing.T) {
	t.Setenv("EVENTS_BROKER", "carrier-pigeon")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("AMQP_URL", "amqp://u:p@mq:5672/")
	cfg := LoadEventsConfig()
	assert.Equal(t, BrokerRabbitMQ, cfg.Broker)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "amqp://u:p@mq:5672/", cfg.AMQPURL)
	assert.Equal(t, "order.created", cfg.Queue)
}

func TestLoadRedisConfigHostPortWins(t *testing.T) {
	t.Setenv("REDIS_ADDR", "ignored:1")
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("REDIS_TLS", "1")
	cfg := LoadRedisConfig()
	assert.Equal(t, "cache:6380", cfg.Addr)
	assert.True(t, cfg.TLS)
}
