package slack

import (
	"time"

	"github.com/Strob0t/blackboard/internal/port/notifier"
)

func init() {
	notifier.Register(providerName, func(config map[string]string) (notifier.Notifier, error) {
		timeout, _ := time.ParseDuration(config["timeout"])
		return NewNotifier(config["webhook_url"], timeout), nil
	})
}
