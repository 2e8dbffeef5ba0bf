package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Freeeeeet/smartclass/internal/app"
	"github.com/Freeeeeet/smartclass/internal/config"
	"github.com/Freeeeeet/smartclass/internal/dedup"
	"github.com/Freeeeeet/smartclass/internal/notify"
	"github.com/Freeeeeet/smartclass/internal/repository"
	"github.com/Freeeeeet/smartclass/internal/service"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const shutdownTimeout = 20 * time.Second

func main() {
	once := flag.Bool("once", false, "run a single tick and exit")
	occupancy := flag.Bool("occupancy", false, "print current classroom occupancy and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := app.NewLogger(cfg.Environment, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, *once, *occupancy); err != nil {
		logger.Error("Service stopped with error", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger, once, occupancy bool) error {
	logger.Info("Starting smartclass",
		zap.String("environment", cfg.Environment),
		zap.Duration("tick_interval", cfg.TickInterval),
		zap.Duration("lookahead", cfg.Lookahead),
		zap.String("match_mode", cfg.MatchMode),
		zap.String("dedup_policy", cfg.DedupPolicy))

	pool, err := pgxpool.New(ctx, cfg.GetDBDSN())
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	if !cfg.MigrationsDisabled {
		migrator, err := app.NewMigrator(pool, logger)
		if err != nil {
			return err
		}
		err = migrator.Run(ctx)
		_ = migrator.Close()
		if err != nil {
			return err
		}
	}

	classroomRepo := repository.NewClassroomRepository(pool)
	professorRepo := repository.NewProfessorRepository(pool)
	scheduleRepo := repository.NewClassScheduleRepository(pool)
	qrCodeRepo := repository.NewClassQRCodeRepository(pool)
	deliveryLogRepo := repository.NewDeliveryLogRepository(pool)

	if occupancy {
		catalog := service.NewCatalogService(classroomRepo, professorRepo, scheduleRepo, logger)
		return printOccupancy(ctx, catalog, time.Now().In(cfg.Location))
	}

	guard, closeGuard, err := buildGuard(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeGuard()

	notifier := notify.NewEmailNotifier(buildSender(cfg, logger), logger)

	matchMode := service.MatchModeWallClock
	if cfg.MatchMode == config.MatchModeMinuteOfWeek {
		matchMode = service.MatchModeMinuteOfWeek
	}

	notifications := service.NewNotificationService(
		service.NewRepositorySnapshotSource(scheduleRepo, professorRepo, classroomRepo),
		service.NewQRCodeIssuer(qrCodeRepo, cfg.CredentialTTL, logger),
		notifier,
		service.NotificationOptions{
			Matcher:      service.Matcher{Mode: matchMode, Lookahead: cfg.Lookahead},
			Guard:        guard,
			Journal:      deliveryLogRepo,
			MaxInFlight:  cfg.MaxInFlight,
			RatePerSec:   cfg.DeliveryRatePerSec,
			MatchTimeout: cfg.MatchTimeout,
		},
		logger,
	)

	if once {
		_, err := notifications.RunTick(ctx, time.Now().In(cfg.Location))
		return err
	}

	var observers []service.TickObserver
	if cfg.TelegramAdminChatID != 0 {
		reporter, err := notify.NewTelegramReporter(cfg.TelegramToken, cfg.TelegramAdminChatID, logger)
		if err != nil {
			return err
		}
		observers = append(observers, reporter)
	}

	scheduler := app.NewScheduler(notifications, app.SchedulerOptions{
		Interval:  cfg.TickInterval,
		Location:  cfg.Location,
		Observers: observers,
	}, logger)

	scheduler.Start(ctx)
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := scheduler.Stop(shutdownCtx); err != nil {
		logger.Warn("Scheduler did not stop cleanly", zap.Error(err))
	}

	logger.Info("smartclass stopped")
	return nil
}

// buildGuard выбирает хранилище меток по политике дедупликации
func buildGuard(ctx context.Context, cfg *config.Config, logger *zap.Logger) (service.OccurrenceGuard, func(), error) {
	noop := func() {}

	if cfg.DedupPolicy == config.DedupEveryTick {
		logger.Warn("Dedup disabled: a new QR code is sent on every tick while the class is in the window")
		return nil, noop, nil
	}

	if cfg.RedisAddr == "" {
		return dedup.NewMemoryGuard(), noop, nil
	}

	rdb, err := dedup.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, noop, err
	}
	logger.Info("Using redis occurrence guard", zap.String("addr", cfg.RedisAddr))

	guard := dedup.NewRedisGuard(rdb, logger)
	return guard, func() { _ = guard.Close() }, nil
}

func buildSender(cfg *config.Config, logger *zap.Logger) notify.Sender {
	if cfg.SendgridAPIKey == "" {
		if cfg.IsProduction() {
			logger.Warn("SENDGRID_API_KEY is not set, emails will only be logged")
		}
		return notify.NewConsoleSender(logger)
	}
	return notify.NewSendgridSender(cfg.SendgridAPIKey, cfg.MailFromName, cfg.MailFrom)
}

func printOccupancy(ctx context.Context, catalog *service.CatalogService, now time.Time) error {
	statuses, err := catalog.Occupancy(ctx, now)
	if err != nil {
		return err
	}

	fmt.Printf("Occupancy at %s %s\n", now.Weekday(), now.Format("15:04"))
	for _, st := range statuses {
		if !st.IsOccupied() {
			fmt.Printf("  %-20s free\n", st.Classroom.Name)
			continue
		}
		professor := st.Current.ProfessorID
		if st.Professor != nil {
			professor = st.Professor.Name
		}
		fmt.Printf("  %-20s %s %s-%s (%s)\n", st.Classroom.Name, st.Current.Subject,
			st.Current.StartTime, st.Current.EndTime, professor)
	}
	return nil
}
