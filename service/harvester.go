package service

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/vartanbeno/go-reddit/v2/reddit"
	"gorm.io/gorm"

	"FrameForge-server/config"
	"FrameForge-server/models"
)

// HarvestOptions narrow one harvest run. Zero values fall back to the
// configured defaults.
type HarvestOptions struct {
	Subreddits []string
	Limit      int
	MinChars   int
	MaxChars   int
	Sort       string // hot, new, top
	Timeframe  string // day, week, month, year, all
}

// StoryLister is the slice of the Reddit API the harvester consumes.
type StoryLister interface {
	ListPosts(ctx context.Context, subreddit, sort, timeframe string, limit int) ([]*reddit.Post, error)
}

// RedditSource wraps the read-only Reddit client.
type RedditSource struct {
	Client *reddit.Client
}

func NewRedditSource() (*RedditSource, error) {
	client, err := reddit.NewReadonlyClient()
	if err != nil {
		return nil, fmt.Errorf("reddit client: %w", err)
	}
	return &RedditSource{Client: client}, nil
}

func (r *RedditSource) ListPosts(ctx context.Context, subreddit, sort, timeframe string, limit int) ([]*reddit.Post, error) {
	switch sort {
	case "hot":
		posts, _, err := r.Client.Subreddit.HotPosts(ctx, subreddit, &reddit.ListOptions{Limit: limit})
		return posts, err
	case "new":
		posts, _, err := r.Client.Subreddit.NewPosts(ctx, subreddit, &reddit.ListOptions{Limit: limit})
		return posts, err
	default:
		posts, _, err := r.Client.Subreddit.TopPosts(ctx, subreddit, &reddit.ListPostOptions{
			ListOptions: reddit.ListOptions{Limit: limit},
			Time:        timeframe,
		})
		return posts, err
	}
}

// Harvester pulls story posts and turns each into a fresh project: a
// directory tree, a meta.json and a project row at the first stage.
type Harvester struct {
	Source StoryLister
	DB     *gorm.DB
	Meta   *MetaStore
	Events EventSink
	Root   string
}

var (
	markdownLinkPattern = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	urlPattern          = regexp.MustCompile(`https?://\S+`)
	editLinePattern     = regexp.MustCompile(`(?im)^\s*(edit|update|tl;?dr)\s*[:\d].*$`)
	multiBlankPattern   = regexp.MustCompile(`\n{3,}`)
)

// cleanStoryText strips Reddit markup artifacts that read badly when
// narrated: markdown links, bare URLs, edit/update footers, stray markup
// characters and excess blank lines.
func cleanStoryText(text string) string {
	text = strings.ReplaceAll(text, "&amp;", "&")
	text = strings.ReplaceAll(text, "&lt;", "<")
	text = strings.ReplaceAll(text, "&gt;", ">")
	text = strings.ReplaceAll(text, "&#x200B;", "")
	text = markdownLinkPattern.ReplaceAllString(text, "$1")
	text = urlPattern.ReplaceAllString(text, "")
	text = editLinePattern.ReplaceAllString(text, "")
	for _, mark := range []string{"**", "__", "~~", "^", "*"} {
		text = strings.ReplaceAll(text, mark, "")
	}
	text = multiBlankPattern.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

func (h *Harvester) options(opts HarvestOptions) HarvestOptions {
	cfg := config.AppConfig.Harvest
	if len(opts.Subreddits) == 0 {
		opts.Subreddits = cfg.Subreddits
	}
	if opts.Limit <= 0 {
		opts.Limit = cfg.Limit
	}
	if opts.MinChars <= 0 {
		opts.MinChars = cfg.MinChars
	}
	if opts.MaxChars <= 0 {
		opts.MaxChars = cfg.MaxChars
	}
	if opts.Sort == "" {
		opts.Sort = cfg.Sort
	}
	if opts.Timeframe == "" {
		opts.Timeframe = cfg.Timeframe
	}
	return opts
}

// Harvest fetches posts from each subreddit, filters them by length,
// deduplicates against existing projects and creates new ones. It returns
// the IDs of projects created.
func (h *Harvester) Harvest(ctx context.Context, opts HarvestOptions) ([]string, error) {
	opts = h.options(opts)

	var created []string
	for _, sub := range opts.Subreddits {
		posts, err := h.Source.ListPosts(ctx, sub, opts.Sort, opts.Timeframe, opts.Limit)
		if err != nil {
			config.Log.WithError(err).WithField("subreddit", sub).Warn("subreddit listing failed")
			continue
		}
		for _, post := range posts {
			if post.Body == "" {
				continue
			}
			text := cleanStoryText(post.Body)
			if len(text) < opts.MinChars || len(text) > opts.MaxChars {
				continue
			}

			projectID := fmt.Sprintf("reddit_%s_%s", strings.ToLower(sub), post.ID)
			if _, err := models.GetProjectByID(h.DB, projectID); err == nil {
				continue
			} else if err != gorm.ErrRecordNotFound {
				return created, fmt.Errorf("harvest: dedup check: %w", err)
			}

			if err := h.createProject(projectID, sub, post, text); err != nil {
				config.Log.WithError(err).WithField("project", projectID).Error("project creation failed")
				continue
			}
			created = append(created, projectID)
			if h.Events != nil {
				h.Events.BroadcastLog(projectID, "info", fmt.Sprintf("harvested %q from r/%s", post.Title, sub))
			}
		}
	}
	return created, nil
}

func (h *Harvester) createProject(projectID, subreddit string, post *reddit.Post, text string) error {
	dir := filepath.Join(h.Root, projectID)
	for _, sub := range []string{
		filepath.Join("audio", "source"),
		filepath.Join("audio", "clean"),
		filepath.Join("video", "parts"),
		"text",
	} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return fmt.Errorf("create project dirs: %w", err)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, "text", "story.txt"), []byte(text), 0o644); err != nil {
		return fmt.Errorf("write story: %w", err)
	}

	meta := map[string]interface{}{
		"title":         post.Title,
		"author":        post.Author,
		"subreddit":     subreddit,
		"source_url":    post.URL,
		"harvested_at":  time.Now().UTC().Format(time.RFC3339),
		"status":        models.ProjectStatusIdle,
		"current_stage": StageTextScrapped.String(),
	}
	raw, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}

	p := &models.Project{
		ID:           projectID,
		Title:        post.Title,
		Author:       post.Author,
		Subreddit:    subreddit,
		Status:       models.ProjectStatusIdle,
		CurrentStage: StageTextScrapped.String(),
		MetaJSON:     string(raw),
	}
	if err := h.DB.Create(p).Error; err != nil {
		return fmt.Errorf("insert project row: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "meta.json"), raw, 0o644); err != nil {
		config.Log.WithError(err).WithField("project", projectID).Warn("meta mirror write failed")
	}
	return nil
}
