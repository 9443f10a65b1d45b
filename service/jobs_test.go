package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"FrameForge-server/models"
)

func TestHarvestOptionsFromParams(t *testing.T) {
	opts := harvestOptionsFromParams(models.JobParams{
		"subreddits": []interface{}{"nosleep", "shortstories"},
		"limit":      10.0,
		"min_chars":  4000.0,
		"sort":       "top",
		"timeframe":  "week",
	})
	assert.Equal(t, []string{"nosleep", "shortstories"}, opts.Subreddits)
	assert.Equal(t, 10, opts.Limit)
	assert.Equal(t, 4000, opts.MinChars)
	assert.Equal(t, "top", opts.Sort)
	assert.Equal(t, "week", opts.Timeframe)
}

func TestHarvestOptionsCommaSeparatedSubreddits(t *testing.T) {
	opts := harvestOptionsFromParams(models.JobParams{"subreddits": "nosleep, scarystories"})
	assert.Equal(t, []string{"nosleep", "scarystories"}, opts.Subreddits)
}

func TestMasteringPatchFromParams(t *testing.T) {
	params := models.JobParams{
		"output_format":   "mp4",
		"transition_type": "dissolve",
		"auto_run":        true,
		"limit":           10.0,
		"intro":           map[string]interface{}{"mode": "video"},
	}
	patch := masteringPatchFromParams(params)

	assert.Equal(t, "mp4", patch["output_format"])
	assert.Equal(t, "dissolve", patch["transition_type"])
	assert.Contains(t, patch, "intro")
	assert.NotContains(t, patch, "auto_run", "runner flags are not stamped onto projects")
	assert.NotContains(t, patch, "limit", "harvest knobs are not stamped onto projects")
}

func TestParamHelpers(t *testing.T) {
	params := models.JobParams{"s": "v", "n": 7.0, "b": true}
	assert.Equal(t, "v", paramString(params, "s", "d"))
	assert.Equal(t, "d", paramString(params, "x", "d"))
	assert.Equal(t, 7, paramInt(params, "n", 0))
	assert.Equal(t, 1, paramInt(params, "x", 1))
	assert.True(t, paramBool(params, "b", false))
	assert.False(t, paramBool(params, "x", false))
}
