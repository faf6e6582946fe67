package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/portal-agenda-api/pkg/config"
)

func TestAsynqOptUsesReminderDB(t *testing.T) {
	cfg := config.RedisConfig{Host: "redis", Port: 6380, Password: "s3cret", DB: 0}

	opt := AsynqOpt(cfg, 2)

	assert.Equal(t, "redis:6380", opt.Addr)
	assert.Equal(t, "s3cret", opt.Password)
	assert.Equal(t, 2, opt.DB)
}
