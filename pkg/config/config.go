package config

import (
	"log"
	"sync"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	App struct {
		Env       string `env:"APP_ENV" env-default:"development"`
		Port      int    `env:"APP_PORT" env-default:"8080"`
		SentryUrl string `env:"SENTRY_URL"`
	}
	Telegram struct {
		User    int64  `env:"TELEGRAM_USER"`
		Token   string `env:"TELEGRAM_TOKEN"`
		Channel string `env:"TELEGRAM_CHANNEL"`
	}
	Downloader struct {
		// MaxVideoSizeMB is the hard ceiling for a single video. 0 disables
		// the limit entirely.
		MaxVideoSizeMB float64 `env:"DOWNLOADER_MAX_VIDEO_SIZE_MB" env-default:"0"`
		// LargeVideoThresholdMB is the size above which a video is fetched to
		// the local cache even when pre-fetch mode is off. 0 means every
		// video is treated as large.
		LargeVideoThresholdMB float64       `env:"DOWNLOADER_LARGE_VIDEO_THRESHOLD_MB" env-default:"50"`
		CacheDir              string        `env:"DOWNLOADER_CACHE_DIR" env-default:"./cache"`
		PreFetchAll           bool          `env:"DOWNLOADER_PRE_FETCH_ALL" env-default:"false"`
		MaxConcurrent         int           `env:"DOWNLOADER_MAX_CONCURRENT" env-default:"3"`
		ProbeTimeout          time.Duration `env:"DOWNLOADER_PROBE_TIMEOUT" env-default:"10s"`
		FetchTimeout          time.Duration `env:"DOWNLOADER_FETCH_TIMEOUT" env-default:"5m"`
		CacheTTL              time.Duration `env:"DOWNLOADER_CACHE_TTL" env-default:"24h"`
		FfmpegBin             string        `env:"DOWNLOADER_FFMPEG_BIN" env-default:"ffmpeg"`
		FfprobeBin            string        `env:"DOWNLOADER_FFPROBE_BIN" env-default:"ffprobe"`
	}
	RateLimit struct {
		// Requests per Per interval that a single user may trigger, with
		// Burst commands allowed back to back.
		Requests int           `env:"RATE_LIMIT_REQUESTS" env-default:"1"`
		Per      time.Duration `env:"RATE_LIMIT_PER" env-default:"5s"`
		Burst    int           `env:"RATE_LIMIT_BURST" env-default:"3"`
	}
	Proxy struct {
		URL string `env:"PROXY_URL"`
	}
}

// MaxLargeVideoThresholdMB caps the configured large-video threshold so the
// delivery layer is never asked to stream something close to the hard limit.
const MaxLargeVideoThresholdMB = 100.0

var (
	once sync.Once
	cfg  *Config
)

func New() (*Config, error) {
	once.Do(func() {
		cfg = &Config{}
		if err := cleanenv.ReadEnv(cfg); err != nil {
			help, _ := cleanenv.GetDescription(cfg, nil)
			log.Fatalf("Failed to read configuration: %v\n%v", err, help)
		}

		if cfg.Downloader.LargeVideoThresholdMB > MaxLargeVideoThresholdMB {
			cfg.Downloader.LargeVideoThresholdMB = MaxLargeVideoThresholdMB
		}
		if cfg.Downloader.LargeVideoThresholdMB < 0 {
			cfg.Downloader.LargeVideoThresholdMB = 0
		}
		if cfg.Downloader.MaxConcurrent <= 0 {
			cfg.Downloader.MaxConcurrent = 3
		}
	})
	return cfg, nil
}
