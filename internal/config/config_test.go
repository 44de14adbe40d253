package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestServerLoadDefaults(t *testing.T) {
	var c ServerConfig
	c.LoadDefaults()

	assert.Equal(t, ":8080", c.HTTPAddr)
	assert.Equal(t, "", c.DatabaseDSN)
	assert.Equal(t, "dockeep.db", c.SQLitePath)
	assert.Equal(t, 24*time.Hour, c.TokenValidityDuration)
}

func TestClientLoadDefaults(t *testing.T) {
	var c ClientConfig
	c.LoadDefaults()

	assert.Equal(t, "http://127.0.0.1:8080", c.ServerURL)
	assert.Equal(t, "dockeep-cache.json", c.CachePath)
	assert.Equal(t, 10*time.Second, c.RequestTimeout)
}
