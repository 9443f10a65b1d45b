package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectFromMirrorReadsPipelineKeys(t *testing.T) {
	// Same key names the harvester and pipeline write into meta.json.
	raw, err := json.Marshal(map[string]interface{}{
		"title":         "The Lighthouse Keeper",
		"author":        "storyteller",
		"subreddit":     "nosleep",
		"status":        ProjectStatusError,
		"current_stage": "Speech Generated",
	})
	require.NoError(t, err)

	p := projectFromMirror("proj-1", raw)
	assert.Equal(t, "proj-1", p.ID)
	assert.Equal(t, "The Lighthouse Keeper", p.Title)
	assert.Equal(t, "storyteller", p.Author)
	assert.Equal(t, "nosleep", p.Subreddit)
	assert.Equal(t, ProjectStatusError, p.Status)
	assert.Equal(t, "Speech Generated", p.CurrentStage)
	assert.Equal(t, string(raw), p.MetaJSON)
}

func TestProjectFromMirrorDefaultsWithoutMeta(t *testing.T) {
	p := projectFromMirror("orphan", nil)
	assert.Equal(t, "orphan", p.ID)
	assert.Equal(t, "orphan", p.Title)
	assert.Equal(t, "unknown", p.Subreddit)
	assert.Equal(t, ProjectStatusSuccess, p.Status)
	assert.Equal(t, "Text Scrapped", p.CurrentStage)
	assert.Empty(t, p.MetaJSON)

	p = projectFromMirror("broken", []byte("{not json"))
	assert.Equal(t, "Text Scrapped", p.CurrentStage)
}
