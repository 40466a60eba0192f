package command

import (
	"context"
	"regexp"
)

// NotificationKind is what the bot does when a notification arrives.
type NotificationKind string

const (
	// NotifyPause stops the run loop, e.g. after being moved to a holding area.
	NotifyPause NotificationKind = "pause"
	// NotifyResume starts the run loop again if a notification or a death stopped it, e.g. after being
	// moved back to a work channel.
	NotifyResume NotificationKind = "resume"
	// NotifyReply answers the notification with a chat line, e.g. to accept a teleport request.
	NotifyReply NotificationKind = "reply"
)

// Notification is a server message the bot reacts to on its own.
type Notification struct {
	Pattern string
	Kind    NotificationKind
	// Reply is sent for notifications of the reply kind.
	Reply string
}

type compiledNotification struct {
	Notification
	re *regexp.Regexp
}

func (d *Dispatcher) notify(ctx context.Context, n Notification) {
	d.log.Debugf("notification %s: %s", n.Kind, n.Pattern)
	switch n.Kind {
	case NotifyPause:
		d.Pause()
	case NotifyResume:
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			d.Resume(ctx)
		}()
	case NotifyReply:
		if err := d.c.Chat(n.Reply); err != nil {
			d.log.Debugf("failed to answer notification: %v", err)
		}
	}
}
