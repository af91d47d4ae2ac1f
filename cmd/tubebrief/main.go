package main

import (
	"errors"
	"flag"
	"os"
	"path"
	"strings"

	"github.com/tubebrief/tubebrief/internal/cmd"
	"github.com/tubebrief/tubebrief/internal/config"
	"github.com/tubebrief/tubebrief/internal/logging"
	log "github.com/sirupsen/logrus"
)

func init() {
	logging.SetupBaseLogger()
}

func main() {
	var login bool
	var logout bool
	var showHistory bool
	var configPath string

	flag.BoolVar(&login, "login", false, "Login Google Account")
	flag.BoolVar(&logout, "logout", false, "Clear the stored credential")
	flag.BoolVar(&showHistory, "history", false, "List stored summaries")
	flag.StringVar(&configPath, "config", "", "Configure File Path")

	flag.Parse()

	var err error
	var cfg *config.Config
	var wd string

	if configPath != "" {
		cfg, err = config.LoadConfig(configPath)
	} else {
		wd, err = os.Getwd()
		if err != nil {
			log.Fatalf("failed to get working directory: %v", err)
		}
		cfg, err = config.LoadConfig(path.Join(wd, "config.yaml"))
		if err != nil && errors.Is(err, os.ErrNotExist) {
			// Running without a config file is fine; defaults cover it.
			cfg = config.DefaultConfig()
			err = nil
		}
	}
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.InfoLevel)
	}

	if err = logging.ConfigureLogOutput(cfg.LoggingToFile); err != nil {
		log.Fatalf("failed to configure log output: %v", err)
	}

	cfg.AuthDir = expandHome(cfg.AuthDir)
	cfg.HistoryFile = expandHome(cfg.HistoryFile)

	switch {
	case login:
		cmd.DoLogin(cfg)
	case logout:
		cmd.DoLogout(cfg)
	case showHistory:
		cmd.ShowHistory(cfg)
	default:
		cmd.RunSummarize(cfg, flag.Arg(0))
	}
}

// expandHome replaces a leading ~ with the user's home directory.
func expandHome(p string) string {
	if !strings.HasPrefix(p, "~") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		log.Fatalf("failed to get home directory: %v", err)
	}
	parts := strings.Split(p, "/")
	if len(parts) > 1 {
		parts[0] = home
		return path.Join(parts...)
	}
	return home
}
