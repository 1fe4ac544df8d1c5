package worker

import (
	"github.com/spec-kit/email-approval/internal/notify"
)

// StartNotificationWorker registers notification handlers.
func StartNotificationWorker(notifier *notify.ConfirmationNotifier) {
	if notifier == nil {
		return
	}
	notifier.RegisterHandlers()
}
