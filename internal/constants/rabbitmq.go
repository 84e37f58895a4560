package constants

// Имена очередей
const (
	QueueSchedulerTicks = "scheduler_ticks"
)

// Обменники
const (
	NotificationsExchange = "notifications_exchange"
	SchedulerExchange     = "scheduler_exchange"
)

// Ключи маршрутизации
const (
	RoutingKeySchedulerTick      = "scheduler.tick.run"
	RoutingKeySearchNotification = "notify.search.fired"
)

// Типы и версии событий (заголовки event-type / event-version)
const (
	EventTypeSchedulerTick      = "SchedulerTickEvent"
	EventTypeSearchNotification = "SearchNotificationEvent"
	EventVersionV1              = "1.0.0"
)

const (
	FinalDLXExchange   = "scheduler_ticks_final_dlx"
	FinalDLQ           = "scheduler_ticks_final_dlq"
	FinalDLQRoutingKey = "ticks.dlq.key"
)
