package bootstrap

import (
	"context"
	"log/slog"

	"github.com/eventdraw/drawbot/internal/discord"
	"github.com/eventdraw/drawbot/internal/draw"
	"github.com/eventdraw/drawbot/internal/eventsvc"
	"github.com/eventdraw/drawbot/internal/server"
	"github.com/eventdraw/drawbot/internal/worker"
)

// ShutdownComponents holds all components that need graceful shutdown
type ShutdownComponents struct {
	Server       *server.Server
	Bot          *discord.Bot
	Runner       JobRunner
	DrawService  draw.Service
	EventService eventsvc.Service
	WorkerPool   *worker.Pool
}

// GracefulShutdown stops the application in dependency order: the HTTP
// server and bot stop accepting work first, then the runner cancels its
// timers, then services drain their in-flight fan-outs, and the worker
// pool goes last so queued jobs can still finish. Errors are logged but
// never stop the sequence.
func GracefulShutdown(ctx context.Context, components ShutdownComponents) {
	slog.Info(LogMsgShuttingDown)

	if components.Server != nil {
		if err := components.Server.Stop(ctx); err != nil {
			slog.Error(LogMsgServerForcedShutdown, "error", err)
		}
	}

	if components.Bot != nil {
		if err := components.Bot.Stop(); err != nil {
			slog.Error("Component shutdown failed", "component", ServiceNameDiscordBot, "error", err)
		}
	}

	if components.Runner != nil {
		if err := components.Runner.Shutdown(ctx); err != nil {
			slog.Error("Component shutdown failed", "component", ServiceNameJobRunner, "error", err)
		}
	}

	if components.DrawService != nil {
		if err := components.DrawService.Shutdown(ctx); err != nil {
			slog.Error("Component shutdown failed", "component", ServiceNameDraw, "error", err)
		}
	}

	if components.EventService != nil {
		if err := components.EventService.Shutdown(ctx); err != nil {
			slog.Error("Component shutdown failed", "component", ServiceNameEvent, "error", err)
		}
	}

	if components.WorkerPool != nil {
		components.WorkerPool.Stop()
	}
}
