package bootstrap

// Log messages for startup and shutdown
const (
	LogMsgShuttingDown         = "Shutting down"
	LogMsgServerForcedShutdown = "Server forced to shutdown"
	LogMsgRunnerInitTimer      = "Job runner initialized (postgres timers)"
	LogMsgRunnerInitRedis      = "Job runner initialized (redis queue)"
	LogMsgMetricsRegistered    = "Metrics collector registered"
)

// Service names used in shutdown logging
const (
	ServiceNameDraw       = "draw"
	ServiceNameEvent      = "event"
	ServiceNameJobRunner  = "job runner"
	ServiceNameDiscordBot = "discord bot"
)
