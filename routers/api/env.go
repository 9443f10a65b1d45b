package api

import (
	"gorm.io/gorm"

	"FrameForge-server/service"
)

// Env carries the handlers' dependencies. One instance is built in main and
// shared across requests.
type Env struct {
	DB        *gorm.DB
	Executor  *service.Executor
	Meta      *service.MetaStore
	Queue     *service.Queue
	Events    *service.Broadcaster
	Logs      *service.LogStore
	Shorts    *service.ShortsExtractor
	Harvester *service.Harvester
	OSS       *service.ObjectStore
	Root      string
	AssetRoot string
}
