package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/halrobotics/wsrobot/internal/api/rest"
	"github.com/halrobotics/wsrobot/internal/config"
	"github.com/halrobotics/wsrobot/internal/engine"
	"github.com/halrobotics/wsrobot/internal/robot"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	loader, err := robot.NewProfileLoader()
	if err != nil {
		logger.Fatal("Failed to create profile loader", zap.Error(err))
	}
	profile, err := loader.Load(cfg.Robot.Profile)
	if err != nil {
		logger.Fatal("Failed to load robot profile", zap.Error(err))
	}

	// Duplicate field registrations in the profile surface here, before any
	// connection is accepted.
	bot, err := robot.BuildVirtualRobot(profile, logger)
	if err != nil {
		logger.Fatal("Failed to build robot", zap.Error(err))
	}
	logger.Info("Robot profile loaded",
		zap.String("robot", bot.Descriptor()),
		zap.Int("sim_devices", len(bot.SimDevices())))

	engCfg := engine.Config{
		PollInterval:    cfg.Engine.PollInterval,
		NominalVoltage:  cfg.Engine.NominalVoltage,
		DSPacketTimeout: cfg.Engine.DSPacketTimeout,
	}

	var eng *engine.Engine
	switch cfg.Bridge.Role {
	case config.RoleListen:
		eng = engine.NewServerEndpoint(cfg.Bridge.Host, cfg.Bridge.Port, cfg.Bridge.Path, bot, engCfg, logger)
	case config.RoleConnect:
		eng = engine.NewClientEndpoint(cfg.Bridge.Host, cfg.Bridge.Port, cfg.Bridge.Path, bot, engCfg, logger)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.API.Enabled {
		api := rest.NewServer(cfg.API.Port, eng, logger)
		api.Start()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := api.Shutdown(shutdownCtx); err != nil {
				logger.Error("Status API shutdown failed", zap.Error(err))
			}
		}()
	}

	if err := eng.Run(ctx); err != nil {
		logger.Fatal("Engine failed", zap.Error(err))
	}

	logger.Info("wsrobot stopped")
}
