package main

import (
	"crime_news/internal/logger"
	"os"
)

func main() {
	logger.Init()

	if err := newRootCmd().Execute(); err != nil {
		logger.Log.Errorf("Command failed: %v", err)
		os.Exit(1)
	}
}
