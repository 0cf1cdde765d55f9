package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"blog_to_video/video-converter/api"
	"blog_to_video/video-converter/config"
	"blog_to_video/video-converter/engine"
	"blog_to_video/video-converter/logging"
	"blog_to_video/video-converter/service"
	"blog_to_video/video-converter/store"
	"blog_to_video/video-converter/utils"
)

const (
	version         = "1.0.0"
	shutdownTimeout = 30 * time.Second

	historyCloseTimeout = 5 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Init("info", true)
		log.Fatal().Err(err).Msg("failed to load config")
	}
	logging.Init(cfg.LogLevel, cfg.LogPretty)

	if !cfg.LogPretty {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := utils.EnsureDirectoryExists(cfg.OutputDir); err != nil {
		log.Fatal().Err(err).Str("dir", cfg.OutputDir).Msg("failed to create output directory")
	}
	if err := utils.ValidateFFmpegInstalled(cfg.FFmpegPath); err != nil {
		log.Warn().Err(err).Msg("ffmpeg is not available, jobs will fail until it is installed")
	}

	options, err := engine.RenderOptionsFromSettings(cfg.Render)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid render settings")
	}
	fontPath := engine.ResolveFontPath(cfg.FontPath, runtime.GOOS)
	if fontPath == "" {
		log.Warn().Msg("no font file found, drawtext will use the ffmpeg default font")
	}

	runner := engine.NewFFmpegRunner(cfg.FFmpegPath, logging.WithComponent("ffmpeg"))
	renderer := engine.NewRenderer(options, runner, fontPath, cfg.OutputDir, runtime.GOOS, logging.WithComponent("renderer"))

	limits := service.DefaultLimits(runtime.NumCPU()).
		WithOverrides(cfg.JobConcurrency, cfg.SceneConcurrency, cfg.CutConcurrency)

	registry := service.NewRegistry()
	worker := service.NewWorker(registry, renderer, cfg.OutputDir, limits, cfg.JobTimeout, logging.WithComponent("worker"))
	translator := service.NewTranslator(cfg.SecondsPerCharacter, cfg.TitleAsHeader)
	converter := service.NewConverter(translator, worker, registry, logging.WithComponent("converter"))
	sequencer := service.NewSequencer(cfg.SecondsPerCharacter)

	serverOpts := []api.Option{api.WithVersion(version)}

	var history *store.History
	if cfg.MongoURI != "" {
		history, err = store.Connect(context.Background(), cfg.MongoURI, cfg.MongoDB, logging.WithComponent("history"))
		if err != nil {
			log.Warn().Err(err).Msg("job history disabled")
		} else {
			registry.Observe(history.Observe)
			serverOpts = append(serverOpts, api.WithHistory(history))
		}
	}

	server := api.NewServer(converter, sequencer, cfg.OutputDir, logging.WithComponent("api"), serverOpts...)
	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: server.Router(),
	}

	go func() {
		effective, render := worker.Limits(), renderer.Options()
		log.Info().
			Str("port", cfg.Port).
			Str("output_dir", cfg.OutputDir).
			Int("width", render.Resolution.Width).
			Int("height", render.Resolution.Height).
			Str("codec", render.VideoCodec).
			Bool("hardware", render.HardwareAccel).
			Int("job_limit", effective.Job).
			Int("scene_limit", effective.Scene).
			Int("cut_limit", effective.Cut).
			Msg("video converter starting")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}

	// running jobs get the rest of the shutdown window before history is flushed
	if err := worker.WaitContext(ctx); err != nil {
		log.Warn().Err(err).Msg("jobs still running at shutdown, exiting anyway")
	}

	if history != nil {
		closeCtx, closeCancel := context.WithTimeout(context.Background(), historyCloseTimeout)
		defer closeCancel()
		if err := history.Close(closeCtx); err != nil {
			log.Error().Err(err).Msg("failed to close history")
		}
	}
}
