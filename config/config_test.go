package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `
http:
  address: ":5000"
database:
  host: localhost
  port: 5432
  user: postgres
  password: secret
  name: buddy_tour_db
  ssl_mode: disable
kafka:
  brokers: ["localhost:9092"]
  booking_topic: bookings
booking:
  max_group_size: 12
  pending_ttl_minutes: 30
paymob:
  hmac_secret: s3cret
  currency: EGP
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, ":5000", cfg.HTTP.Address)
	assert.Equal(t, 12, cfg.Booking.MaxGroupSize)
	assert.Equal(t, "EGP", cfg.Paymob.Currency)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.Contains(t, cfg.Database.DSN(), "dbname=buddy_tour_db")
	assert.Contains(t, cfg.Database.DSN(), "sslmode=disable")
}

// Omitted booking and worker sections must still yield usable values: the
// worker's sweep ticker cannot take a zero interval, and a zero hold TTL
// would make the first sweep cancel every pending booking immediately.
func TestLoadConfig_Defaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("http:\n  address: \":5000\"\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 15, cfg.Booking.MaxGroupSize)
	assert.Equal(t, 30, cfg.Booking.PendingTTLMinutes)
	assert.Equal(t, 60, cfg.Booking.AvailabilityCacheTTL)
	assert.Equal(t, 5, cfg.Worker.ExpirationSweepMinutes)
}

func TestLoadConfig_ExplicitValuesKept(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := "booking:\n  pending_ttl_minutes: 45\nworker:\n  expiration_sweep_minutes: 2\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 45, cfg.Booking.PendingTTLMinutes)
	assert.Equal(t, 2, cfg.Worker.ExpirationSweepMinutes)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig("/does/not/exist.yaml")
	assert.Error(t, err)
}
