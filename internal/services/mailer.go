package services

import "log"

// Mailer sends outbound mail. Delivery is best-effort: callers dispatch sends
// on a goroutine and only log failures.
type Mailer interface {
	Send(to, subject, body string) error
}

// LogMailer writes mail to the process log instead of delivering it. It stands
// in for a real provider in development and tests.
type LogMailer struct {
	From string
}

// NewLogMailer creates a LogMailer.
func NewLogMailer(from string) *LogMailer {
	return &LogMailer{From: from}
}

// Send logs the message.
func (m *LogMailer) Send(to, subject, body string) error {
	log.Printf("mail from=%s to=%s subject=%q: %s", m.From, to, subject, body)
	return nil
}

// sendAsync dispatches a send on a goroutine. Failures are logged and never
// surfaced to the caller; there are no retries.
func sendAsync(mailer Mailer, to, subject, body string) {
	go func() {
		if err := mailer.Send(to, subject, body); err != nil {
			log.Printf("failed to send mail to %s: %v", to, err)
		}
	}()
}
