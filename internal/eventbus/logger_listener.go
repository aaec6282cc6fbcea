package eventbus

import (
	"context"

	"github.com/annel0/voxel-engine/internal/logging"
)

// StartLoggingListener подписывается на все события и пишет их в лог.
// nil logger - логгер компонента events. Функция неблокирующая.
func StartLoggingListener(bus EventBus, logger *logging.Logger) (Subscription, error) {
	if logger == nil {
		logger = logging.GetEventsLogger()
	}
	sub, err := bus.Subscribe(context.Background(), Filter{}, func(ctx context.Context, ev *Envelope) {
		logger.Info("📨 %s run=%s src=%s id=%s (%dB)", ev.EventType, ev.RunID, ev.Source, ev.ID, len(ev.Payload))
	})
	if err != nil {
		return nil, err
	}
	logger.Debug("LoggingListener: подписка на все события активирована")
	return sub, nil
}
