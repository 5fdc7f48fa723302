package notify

import (
	"context"

	"github.com/sirupsen/logrus"
)

// LogSender writes messages to the log instead of delivering them. Used in
// development and when no mail transport is configured.
type LogSender struct {
	Log logrus.FieldLogger
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	s.Log.WithFields(logrus.Fields{
		"to":      msg.To,
		"subject": msg.Subject,
	}).Info(msg.Body)
	return nil
}
