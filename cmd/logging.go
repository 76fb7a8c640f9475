package cmd

import (
	"os"
	"strings"

	"betledger/config"

	log "github.com/sirupsen/logrus"
)

// ConfigureLogging applies the configured logrus level and format
func ConfigureLogging(cfg *config.Config) {
	log.SetOutput(os.Stdout)

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if strings.EqualFold(cfg.LogFormat, "json") {
		log.SetFormatter(&log.JSONFormatter{})
		return
	}
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
}
