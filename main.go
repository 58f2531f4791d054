package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"PiBot/bot"
	"PiBot/config"
	"PiBot/logger"
	"PiBot/metrics"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

var configFile string

var rootCmd = &cobra.Command{
	Use:   "pibot",
	Short: "PiBot is a Discord bot with dice, reaction GIFs and interactive adventures",
	Long: `PiBot registers slash commands on Discord: dice rolls, reaction GIFs
and /adventure, a branching story player reading its stories from a folder.

Running pibot without a subcommand starts the bot.`,
	SilenceUsage: true,
	RunE:         runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Connect to Discord and serve commands",
	RunE:  runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "config.yaml", "path to the YAML configuration file")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(storiesCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig loads .env then the YAML configuration
func loadConfig() (*config.Config, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, err
	}
	return config.Load(configFile)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if err := logger.Init(logger.Config{
		Level:        cfg.Logging.Level,
		File:         cfg.Logging.File,
		MaxSize:      cfg.Logging.MaxSize,
		MaxBackups:   cfg.Logging.MaxBackups,
		MaxAge:       cfg.Logging.MaxAge,
		Compress:     cfg.Logging.Compress,
		EnableStdout: cfg.Logging.StdoutEnabled(),
	}); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"config_file": configFile,
		"story_dir":   cfg.Adventure.StoryDir,
		"guild":       cfg.Discord.GuildID,
		"version":     Version,
	}).Info("pibot-starting")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	discordBot, err := bot.New(cfg)
	if err != nil {
		return fmt.Errorf("error creating bot: %w", err)
	}

	var services []service
	if cfg.Metrics.Listen != "" {
		metricsServer := metrics.NewServer(cfg.Metrics.Listen)
		services = append(services, service{name: "metrics server", start: metricsServer.Start, stop: metricsServer.Stop})
	}
	services = append(services, service{name: "bot", start: discordBot.Start, stop: discordBot.Stop})

	if err := startAll(ctx, services); err != nil {
		return err
	}

	logger.Infof("Bot is now running. Press CTRL+C to exit.")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Infof("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	stopAll(shutdownCtx, services)
	return nil
}
