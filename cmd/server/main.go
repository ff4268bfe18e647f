package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"interview-scheduler/internal/app"
	"interview-scheduler/internal/availability"
	"interview-scheduler/internal/calendar"
	"interview-scheduler/internal/config"
	"interview-scheduler/internal/events"
	"interview-scheduler/internal/interview"
	"interview-scheduler/internal/lock"
	"interview-scheduler/internal/logging"
	"interview-scheduler/internal/scheduler"
	"interview-scheduler/internal/server"
	"interview-scheduler/internal/store/memory"
	"interview-scheduler/internal/store/postgres"
)

type stores struct {
	profiles   availability.Repository
	bookings   scheduler.BookingStore
	candidates interview.Directory
	tokens     calendar.TokenStore
}

func main() {
	configPath := flag.String("config", "", "path to an optional config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Pretty)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	if !cfg.Log.Pretty {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("Server exited", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	allowed, err := cfg.AllowedDays()
	if err != nil {
		return err
	}

	var st stores
	switch cfg.Storage.Driver {
	case "postgres":
		pool, err := postgres.Connect(ctx, cfg.Database.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		if err := postgres.Migrate(ctx, pool, logger); err != nil {
			return err
		}
		st = stores{
			profiles:   postgres.NewProfiles(pool),
			bookings:   postgres.NewBookings(pool),
			candidates: postgres.NewCandidates(pool),
			tokens:     postgres.NewTokens(pool),
		}
	default:
		logger.Warn("Using in-memory storage, state is lost on restart")
		st = stores{
			profiles:   memory.NewProfiles(),
			bookings:   memory.NewBookings(),
			candidates: memory.NewCandidates(),
			tokens:     memory.NewTokens(),
		}
	}

	var locks lock.Locker = lock.NewLocal()
	if cfg.Redis.Addr != "" {
		client, err := lock.NewRedisClient(ctx, lock.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return err
		}
		defer client.Close()
		locks = lock.NewRedis(client, cfg.Lock.TTL, logger)
		logger.Info("Using redis owner locks", zap.String("addr", cfg.Redis.Addr))
	}

	var notifier scheduler.Notifier = events.Nop{}
	if cfg.NATS.URL != "" {
		pub, err := events.Connect(cfg.NATS.URL, logger)
		if err != nil {
			return err
		}
		defer pub.Close()
		notifier = pub
	}

	var (
		cal      scheduler.Calendar = calendar.Disabled{}
		accounts app.CalendarAccounts
	)
	google, err := calendar.NewGoogle(calendar.Config{
		ClientID:     cfg.Google.ClientID,
		ClientSecret: cfg.Google.ClientSecret,
		RedirectURL:  cfg.Google.RedirectURL,
		CalendarID:   cfg.Google.CalendarID,
		StateSecret:  cfg.Google.StateSecret,
		Location:     loc,
	}, st.tokens, logger)
	switch {
	case errors.Is(err, calendar.ErrNotConfigured):
		logger.Warn("Google Calendar not configured, scheduling will fail every candidate")
	case err != nil:
		return err
	default:
		cal, accounts = google, google
	}

	availabilitySvc := availability.NewService(st.profiles, locks, logger,
		availability.WithAllowedDays(allowed))

	sched := scheduler.New(availabilitySvc, st.candidates, st.bookings, cal, locks, logger,
		scheduler.WithLocation(loc),
		scheduler.WithConcurrency(cfg.Scheduling.Concurrency),
		scheduler.WithCallTimeout(cfg.Scheduling.CallTimeout),
		scheduler.WithNotifier(notifier),
	)

	a := &app.App{
		Availability: availabilitySvc,
		Scheduler:    sched,
		Accounts:     accounts,
		Auth: app.AuthConfig{
			JWTSecret:    cfg.Auth.JWTSecret,
			StaticTokens: cfg.Auth.StaticTokens,
		},
		Logger: logger,
	}

	return server.Run(ctx, a.Router(), cfg.Server.Port, cfg.Server.ShutdownTimeout, logger)
}
