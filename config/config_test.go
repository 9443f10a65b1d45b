package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyDefaults(t *testing.T) {
	c := &Config{}
	applyDefaults(c)

	assert.Equal(t, ":8080", c.Server.Port)
	assert.Equal(t, "/data", c.Data.Root)
	assert.Equal(t, "https://api.openai.com/v1", c.OpenAI.BaseURL)
	assert.NotEmpty(t, c.Harvest.Subreddits)
	assert.Equal(t, 25, c.Harvest.Limit)
	assert.Equal(t, "top", c.Harvest.Sort)
	assert.Equal(t, 60, c.Scheduler.IntervalSeconds)
	assert.Equal(t, 4, c.Scheduler.Concurrency)
}

func TestApplyDefaultsKeepsExplicitValues(t *testing.T) {
	c := &Config{}
	c.Server.Port = ":9000"
	c.Harvest.Limit = 5
	applyDefaults(c)

	assert.Equal(t, ":9000", c.Server.Port)
	assert.Equal(t, 5, c.Harvest.Limit)
}
