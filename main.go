package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"FrameForge-server/config"
	"FrameForge-server/models"
	"FrameForge-server/routers"
	"FrameForge-server/routers/api"
	"FrameForge-server/service"
)

func main() {
	config.InitConfig()
	config.InitLogger()
	models.InitDB()
	db := models.GormDB

	projectsRoot := filepath.Join(config.AppConfig.Data.Root, "projects")
	assetRoot := filepath.Join(config.AppConfig.Data.Root, "assets")
	for _, dir := range []string{projectsRoot, assetRoot} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			config.Log.WithError(err).Fatal("data directory creation failed")
		}
	}

	models.SyncProjectsToDB(db, projectsRoot)
	if err := service.SeedWorkflows(db); err != nil {
		config.Log.WithError(err).Fatal("workflow seeding failed")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logs := service.NewLogStore(config.AppConfig.Data.Root)
	events := service.NewBroadcaster(logs)
	store := service.NewGormProjectStore(db)
	meta := service.NewMetaStore(store, projectsRoot)
	ffmpeg := service.NewFFmpeg()
	tts := service.NewEdgeTTS()
	openai := service.NewOpenAIClient(config.AppConfig.OpenAI.APIKey, config.AppConfig.OpenAI.BaseURL)

	executor := service.NewExecutor(store, meta, events)
	executor.Translate = &service.TranslateUnit{Client: openai, Meta: meta, Root: projectsRoot}
	speech := service.NewSpeechUnit(tts, ffmpeg, meta, projectsRoot)
	speech.Cleaner = ffmpeg
	executor.Speech = speech
	executor.Subtitles = &service.SubtitleUnit{Client: openai, Meta: meta, Root: projectsRoot}
	executor.Thumbnail = &service.ThumbnailUnit{Chat: openai, Images: openai, Meta: meta, Root: projectsRoot}
	executor.Mastering = service.NewMasteringUnit(
		ffmpeg, meta, &service.GormAssetCatalog{DB: db}, tts,
		service.DiskTemplateRenderer{}, projectsRoot, assetRoot)

	source, err := service.NewRedditSource()
	if err != nil {
		config.Log.WithError(err).Fatal("reddit client setup failed")
	}
	harvester := &service.Harvester{
		Source: source,
		DB:     db,
		Meta:   meta,
		Events: events,
		Root:   projectsRoot,
	}

	queue := service.NewQueue()
	defer queue.Close()

	jobs := &service.JobRunner{
		DB:        db,
		Harvester: harvester,
		Meta:      meta,
		Queue:     queue,
		Events:    events,
	}
	worker := service.NewWorker(executor, jobs)
	if err := worker.Start(); err != nil {
		config.Log.WithError(err).Fatal("worker startup failed")
	}
	defer worker.Shutdown()

	scheduler := service.NewScheduler(db, queue)
	go scheduler.Run(ctx)

	oss, err := service.NewObjectStore(ctx)
	if err != nil {
		config.Log.WithError(err).Warn("object store unavailable, artifact mirroring disabled")
	} else if oss != nil {
		executor.Mastering = oss.WrapMastering(executor.Mastering, projectsRoot)
		config.Log.Info("artifact mirroring enabled")
	}

	env := &api.Env{
		DB:        db,
		Executor:  executor,
		Meta:      meta,
		Queue:     queue,
		Events:    events,
		Logs:      logs,
		Shorts:    &service.ShortsExtractor{FFmpeg: ffmpeg, Meta: meta, Root: projectsRoot},
		Harvester: harvester,
		OSS:       oss,
		Root:      projectsRoot,
		AssetRoot: assetRoot,
	}
	r := routers.InitRouter(env)
	if err := r.Run(config.AppConfig.Server.Port); err != nil {
		config.Log.WithError(err).Fatal("server exited")
	}
}
