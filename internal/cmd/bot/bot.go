// Package bot parses bot command flags and composes the Telegram polling
// loop with the admin HTTP surface.
package bot

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"strings"

	entrypoint "github.com/louisbranch/pickup.football/internal/platform/cmd"
	"github.com/louisbranch/pickup.football/internal/platform/timeouts"
	apihttp "github.com/louisbranch/pickup.football/internal/services/roster/api/http"
	"github.com/louisbranch/pickup.football/internal/services/roster/app"
	"github.com/louisbranch/pickup.football/internal/services/roster/storage/prompts"
	"github.com/louisbranch/pickup.football/internal/services/roster/storage/sqlite"
	"github.com/louisbranch/pickup.football/internal/services/roster/telegram"
)

// Config holds bot command configuration.
type Config struct {
	BotToken        string   `env:"PICKUP_BOT_TOKEN"`
	OrganizerID     string   `env:"PICKUP_ORGANIZER_ID"`
	GroupID         int64    `env:"PICKUP_GROUP_ID"        envDefault:"0"`
	GuestCap        int      `env:"PICKUP_GUEST_CAP"       envDefault:"2"`
	Locale          string   `env:"PICKUP_LOCALE"          envDefault:"ru-RU"`
	HTTPAddr        string   `env:"PICKUP_HTTP_ADDR"       envDefault:":8080"`
	DBPath          string   `env:"PICKUP_DB_PATH"         envDefault:"pickup.db"`
	PromptDBPath    string   `env:"PICKUP_PROMPT_DB_PATH"  envDefault:"prompts.db"`
	TelegramBaseURL string   `env:"PICKUP_TELEGRAM_BASE_URL"`
	AllowedOrigins  []string `env:"PICKUP_ALLOWED_ORIGINS" envSeparator:","`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.BotToken, "bot-token", cfg.BotToken, "telegram bot token")
	fs.StringVar(&cfg.OrganizerID, "organizer-id", cfg.OrganizerID, "telegram user id with organizer rights")
	fs.Int64Var(&cfg.GroupID, "group-id", cfg.GroupID, "restrict the bot to this chat id (0 allows any)")
	fs.IntVar(&cfg.GuestCap, "guest-cap", cfg.GuestCap, "guests allowed per sponsor")
	fs.StringVar(&cfg.Locale, "locale", cfg.Locale, "reply locale")
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "admin API listen address")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "roster snapshot database path")
	fs.StringVar(&cfg.PromptDBPath, "prompt-db-path", cfg.PromptDBPath, "prompt state database path")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (cfg Config) validate() error {
	if strings.TrimSpace(cfg.BotToken) == "" {
		return errors.New("bot token is required")
	}
	if strings.TrimSpace(cfg.OrganizerID) == "" {
		return errors.New("organizer id is required")
	}
	return nil
}

// Run wires storage, the Telegram transport, and the admin API, then blocks
// until the context ends or a transport gives up.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceBot, func(ctx context.Context) error {
		return run(ctx, cfg)
	})
}

func run(ctx context.Context, cfg Config) error {
	if err := cfg.validate(); err != nil {
		return err
	}

	client, err := telegram.NewClient(cfg.BotToken, cfg.TelegramBaseURL)
	if err != nil {
		return fmt.Errorf("build telegram client: %w", err)
	}
	probeCtx, cancelProbe := context.WithTimeout(ctx, timeouts.TelegramCall)
	me, err := client.GetMe(probeCtx)
	cancelProbe()
	if err != nil {
		return fmt.Errorf("telegram connectivity probe: %w", err)
	}
	log.Printf("authorized as @%s", me.Username)

	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open roster store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("close roster store: %v", err)
		}
	}()

	promptStore, err := prompts.Open(cfg.PromptDBPath)
	if err != nil {
		return fmt.Errorf("open prompt store: %w", err)
	}
	defer func() {
		if err := promptStore.Close(); err != nil {
			log.Printf("close prompt store: %v", err)
		}
	}()

	svc := app.NewService(app.Config{
		OrganizerID: cfg.OrganizerID,
		GuestCap:    cfg.GuestCap,
		Store:       store,
		Notifier:    telegram.NewNotifier(client),
	})
	defer svc.Close()
	if err := svc.LoadFromStore(ctx); err != nil {
		return fmt.Errorf("load persisted rosters: %w", err)
	}

	handler := telegram.NewHandler(telegram.HandlerConfig{
		Service: svc,
		Client:  client,
		Prompts: promptStore,
		GroupID: cfg.GroupID,
		Locale:  cfg.Locale,
	})
	poller := telegram.NewPoller(client, handler)
	monitor := telegram.NewHealthMonitor(client)

	apiServer, err := apihttp.NewServer(cfg.HTTPAddr, svc, cfg.AllowedOrigins, monitor)
	if err != nil {
		return fmt.Errorf("build admin api: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go monitor.Run(runCtx)
	errs := make(chan error, 2)
	go func() { errs <- apiServer.ListenAndServe(runCtx) }()
	go func() { errs <- poller.Run(runCtx) }()

	err = <-errs
	cancel()
	<-errs
	if err != nil && errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
