package service

import (
	"fmt"

	"gorm.io/gorm"

	"FrameForge-server/models"
)

// SeedWorkflows inserts the built-in workflow catalogs when they are not
// present yet. Existing rows are left alone so user edits survive restarts.
func SeedWorkflows(db *gorm.DB) error {
	for _, wf := range defaultWorkflows() {
		var count int64
		if err := db.Model(&models.Workflow{}).Where("id = ?", wf.ID).Count(&count).Error; err != nil {
			return fmt.Errorf("seed workflows: %w", err)
		}
		if count > 0 {
			continue
		}
		if err := db.Create(&wf).Error; err != nil {
			return fmt.Errorf("seed workflows: %w", err)
		}
	}
	return nil
}

func defaultWorkflows() []models.Workflow {
	return []models.Workflow{
		{
			ID:          "reddit-shorts",
			Name:        "Reddit Shorts",
			Description: "Harvest short horror stories and master them as vertical clips with word captions.",
			Status:      "active",
			Tags:        models.StringList{"reddit", "shorts", "vertical"},
			Nodes: models.WorkflowNodeList{
				{
					ID:          "harvest",
					Label:       "Harvest Stories",
					Icon:        "download",
					Description: "Pull top posts from story subreddits and filter by length.",
					Parameters: []map[string]interface{}{
						{"name": "subreddits", "type": "list", "default": []string{"shortscarystories", "TwoSentenceHorror"}},
						{"name": "limit", "type": "number", "default": 25},
						{"name": "min_chars", "type": "number", "default": 600},
						{"name": "max_chars", "type": "number", "default": 3000},
					},
				},
				{
					ID:          "translate",
					Label:       "Translate",
					Icon:        "language",
					Description: "Render the story into Latin American Spanish and detect the narrator's gender.",
				},
				{
					ID:          "narrate",
					Label:       "Narrate",
					Icon:        "microphone",
					Description: "Synthesize the narration with a voice matching the narrator.",
					Parameters: []map[string]interface{}{
						{"name": "voice", "type": "string", "default": ""},
					},
				},
				{
					ID:          "caption",
					Label:       "Caption",
					Icon:        "closed-captioning",
					Description: "Transcribe the narration and emit one caption per word.",
					Parameters: []map[string]interface{}{
						{"name": "caption_mode", "type": "string", "default": "word"},
					},
				},
				{
					ID:          "master",
					Label:       "Master",
					Icon:        "film",
					Description: "Composite the vertical video over gameplay backgrounds with hard cuts.",
					Parameters: []map[string]interface{}{
						{"name": "output_format", "type": "string", "default": "mp4"},
						{"name": "background_mode", "type": "string", "default": "category"},
						{"name": "asset_category", "type": "string", "default": "gameplay"},
						{"name": "segment_length", "type": "number", "default": 1},
						{"name": "selection_strategy", "type": "string", "default": "random"},
						{"name": "transition_type", "type": "string", "default": "cut"},
					},
				},
			},
		},
		{
			ID:          "reddit-longform",
			Name:        "Reddit Longform",
			Description: "Harvest long stories and master them as horizontal videos with intro and outro.",
			Status:      "active",
			Tags:        models.StringList{"reddit", "longform", "horizontal"},
			Nodes: models.WorkflowNodeList{
				{
					ID:          "harvest",
					Label:       "Harvest Stories",
					Icon:        "download",
					Description: "Pull top posts from longform story subreddits.",
					Parameters: []map[string]interface{}{
						{"name": "subreddits", "type": "list", "default": []string{"nosleep", "shortstories"}},
						{"name": "limit", "type": "number", "default": 10},
						{"name": "min_chars", "type": "number", "default": 4000},
						{"name": "max_chars", "type": "number", "default": 12000},
					},
				},
				{
					ID:          "translate",
					Label:       "Translate",
					Icon:        "language",
					Description: "Render the story into Latin American Spanish.",
				},
				{
					ID:          "narrate",
					Label:       "Narrate",
					Icon:        "microphone",
					Description: "Synthesize the narration.",
				},
				{
					ID:          "caption",
					Label:       "Caption",
					Icon:        "closed-captioning",
					Description: "Transcribe and wrap captions into short two-line blocks.",
					Parameters: []map[string]interface{}{
						{"name": "caption_mode", "type": "string", "default": "line"},
					},
				},
				{
					ID:          "master",
					Label:       "Master",
					Icon:        "film",
					Description: "Composite a horizontal video with ambient backgrounds, dissolves and a spoken intro.",
					Parameters: []map[string]interface{}{
						{"name": "output_format", "type": "string", "default": "mp4_horizontal"},
						{"name": "background_mode", "type": "string", "default": "category"},
						{"name": "asset_category", "type": "string", "default": "ambient"},
						{"name": "segment_length", "type": "number", "default": 3},
						{"name": "selection_strategy", "type": "string", "default": "sequential"},
						{"name": "transition_type", "type": "string", "default": "dissolve"},
						{"name": "intro", "type": "object", "default": map[string]interface{}{
							"mode": "video", "duration": 3,
							"text": "{{title_es}}", "voice": "same",
						}},
					},
				},
			},
		},
	}
}
