package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	koanffile "github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"golang.org/x/exp/slog"

	"github.com/cardops/backoffice/authority"
)

var defaultConfig = []byte(`
http_addr: "localhost:9090"
backend: "mem"
dsn: ""
pan_hash_key: "dev-secret-pepper"
cancel_window: "5m"
log_level: "info"
`)

// loadConfig loads the default configuration and overrides it with the
// config file specified by the path defined in the config flag.
func loadConfig() *koanf.Koanf {
	configPath := kingpin.Flag("config", "Path to the application config file").Short('c').Default("").String()

	kingpin.Parse()
	k := koanf.New(".")
	_ = k.Load(rawbytes.Provider(defaultConfig), yaml.Parser())
	if *configPath != "" {
		if err := k.Load(koanffile.Provider(*configPath), yaml.Parser()); err != nil {
			log.Fatalf("loading config file: %v", err)
		}
	}
	return k
}

func main() {
	k := loadConfig()

	config := authority.DefaultConfig()
	if err := k.Unmarshal("", config); err != nil {
		log.Fatalf("loading config: %v", err)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(k.String("log_level"))); err != nil {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.HandlerOptions{Level: level}.NewJSONHandler(os.Stdout))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app := authority.NewApp(logger, config)
	if err := app.Start(); err != nil {
		logger.Error("starting app", "err", err)
		os.Exit(1)
	}

	<-ctx.Done()

	app.Shutdown()
}
