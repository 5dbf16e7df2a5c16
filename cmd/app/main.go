package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/eventdraw/drawbot/internal/bootstrap"
	"github.com/eventdraw/drawbot/internal/config"
	"github.com/eventdraw/drawbot/internal/database"
	"github.com/eventdraw/drawbot/internal/discord"
	"github.com/eventdraw/drawbot/internal/draw"
	"github.com/eventdraw/drawbot/internal/event"
	"github.com/eventdraw/drawbot/internal/eventsvc"
	"github.com/eventdraw/drawbot/internal/logger"
	"github.com/eventdraw/drawbot/internal/notify"
	"github.com/eventdraw/drawbot/internal/participant"
	"github.com/eventdraw/drawbot/internal/server"
	"github.com/eventdraw/drawbot/internal/wizard"
	"github.com/eventdraw/drawbot/internal/worker"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("Startup failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger.InitDefault(cfg.LogLevel, cfg.LogFormat, cfg.ServiceName)

	ctx := context.Background()

	dbPool, err := database.NewPool(cfg.GetDBConnString(), 10, 5*time.Minute, 30*time.Minute)
	if err != nil {
		return err
	}
	defer dbPool.Close()

	if err := database.Migrate(dbPool); err != nil {
		return err
	}

	repos := bootstrap.InitializeRepositories(dbPool)

	eventBus := event.NewMemoryBus()
	bootstrap.RegisterEventHandlers(eventBus)

	pool := worker.NewPool(cfg.WorkerCount, cfg.JobQueueSize)
	pool.Start()

	runner, err := bootstrap.NewJobRunner(cfg, repos.Job, pool)
	if err != nil {
		return err
	}

	participantSvc := participant.NewService(repos.Participant, repos.Contact, repos.Winner, repos.Event, eventBus)
	cachedParticipants := participant.NewCachedService(participantSvc, 1024, 5*time.Minute)

	// The Discord session is shared: the bot listens on it and the
	// notification fan-out delivers through it.
	var session *discordgo.Session
	var messenger notify.Messenger
	if cfg.DiscordToken != "" {
		session, err = discord.NewSession(cfg.DiscordToken)
		if err != nil {
			return err
		}
		messenger = discord.NewMessenger(session)
	} else {
		slog.Warn("DISCORD_TOKEN not set, notifications are logged and dropped")
		messenger = notify.NopMessenger{}
	}

	dispatcher := notify.NewDispatcher(messenger)

	eventSvc := eventsvc.NewService(repos.Event, repos.Contact, repos.Participant, dispatcher, eventBus)
	drawSvc := draw.NewService(repos.Participant, repos.Winner, repos.DrawConfig, repos.Contact, dispatcher, runner, eventBus)

	runner.Register(draw.JobKindDrawRound, draw.RoundHandler(drawSvc))
	if err := runner.Start(ctx); err != nil {
		return err
	}

	var bot *discord.Bot
	if session != nil {
		bot = discord.NewBot(session, wizard.New(participantSvc), participantSvc, eventSvc)
		if err := bot.Start(ctx); err != nil {
			return err
		}
	}

	srv := server.NewServer(cfg.Port, cfg.APIKey, server.Deps{
		DBPool:       dbPool,
		Events:       eventSvc,
		Draws:        drawSvc,
		Participants: cachedParticipants,
		Configs:      repos.DrawConfig,
		ParticipantR: repos.Participant,
		Tokens:       repos.Token,
	})

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		slog.Info("Signal received", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	bootstrap.GracefulShutdown(shutdownCtx, bootstrap.ShutdownComponents{
		Server:       srv,
		Bot:          bot,
		Runner:       runner,
		DrawService:  drawSvc,
		EventService: eventSvc,
		WorkerPool:   pool,
	})
	return nil
}
