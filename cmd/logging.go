package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
)

func configureLogging() error {
	if format := os.Getenv("LOG_FORMAT"); format == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		parsed, err := logrus.ParseLevel(level)
		if err != nil {
			return err
		}
		logrus.SetLevel(parsed)
	}

	return nil
}
