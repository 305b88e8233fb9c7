package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/jj88-npm/lerna/pkg/cli"
)

func main() {
	logger := setupLogger(os.Getenv("LERNA_LOG_LEVEL"))

	rootCmd := cli.NewRootCommand(logger)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func setupLogger(logLevel string) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	return logger
}
