package repository

import (
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
)

func TestNewSessionRepository(t *testing.T) {
	pool := &pgxpool.Pool{}
	repo := NewSessionRepository(pool)
	assert.NotNil(t, repo)
}
