package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/orgball2608/media-parser-telegram-bot/internal/cache"
	"github.com/orgball2608/media-parser-telegram-bot/pkg/config"
	"github.com/orgball2608/media-parser-telegram-bot/pkg/logger"
)

// One-shot cache maintenance. The running bot sweeps on a schedule; this tool
// covers operational cleanup while the bot is stopped.
func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: cachesweep [sweep|purge] [ttl, e.g. 24h]")
	}

	command := os.Args[1]

	cfg, err := config.New()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ttl := cfg.Downloader.CacheTTL
	if len(os.Args) > 2 {
		parsed, err := time.ParseDuration(os.Args[2])
		if err != nil {
			log.Fatalf("Invalid ttl %q: %v", os.Args[2], err)
		}
		ttl = parsed
	}

	dir := cfg.Downloader.CacheDir
	if !cache.Available(dir) {
		log.Fatalf("Cache directory unavailable: %s", dir)
	}

	switch command {
	case "sweep":
		fmt.Printf("Sweeping entries older than %s from: %s\n", ttl, dir)
		cache.NewJanitor(dir, ttl, logger.New(logger.Opts{})).Sweep()
	case "purge":
		fmt.Printf("Removing every entry from: %s\n", dir)
		cache.NewJanitor(dir, time.Duration(0), logger.New(logger.Opts{})).Sweep()
	default:
		log.Fatalf("Unknown command: %s", command)
	}
}
