package messaging

import (
	"fmt"
	"io"
	"sync"

	"github.com/onlinelearn/learning-platform/internal/domain/shared"
	"github.com/onlinelearn/learning-platform/pkg/logger"
)

// NewLogReporter returns a handler that logs every event's report line:
// successful operations at info level, rejections at warn level.
func NewLogReporter(log *logger.Logger) shared.EventHandler {
	if log == nil {
		log = logger.Nop()
	}
	log = log.With(logger.Component("reporter"))

	return func(event shared.Event) error {
		fields := []logger.Field{
			logger.String("event_type", string(event.EventType())),
			logger.String("course_id", event.AggregateID()),
		}
		if event.EventType().IsRejection() {
			log.Warn(event.Message(), fields...)
		} else {
			log.Info(event.Message(), fields...)
		}
		return nil
	}
}

// NewConsoleReporter returns a handler that prints each report line to w,
// one per line, in publication order.
func NewConsoleReporter(w io.Writer) shared.EventHandler {
	var mu sync.Mutex
	return func(event shared.Event) error {
		mu.Lock()
		defer mu.Unlock()

		_, err := fmt.Fprintln(w, event.Message())
		return err
	}
}
