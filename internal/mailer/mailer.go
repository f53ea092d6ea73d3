// Package mailer delivers outgoing mail such as password reset links.
package mailer

import (
	"context"
	"fmt"

	"github.com/weiawesome/wes-io-social/internal/config"
	"github.com/weiawesome/wes-io-social/pkg/log"
)

// Message is one outgoing mail.
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Mailer sends mail. Send returns once the message is accepted by the
// transport or failed.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
	Close() error
}

// New builds the mailer selected by cfg.Driver.
func New(cfg config.MailerConfig) (Mailer, error) {
	switch cfg.Driver {
	case "", "log":
		return NewLogMailer(cfg.From), nil
	case "kafka":
		return NewKafkaMailer(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.From, cfg.Kafka.Timeout)
	default:
		return nil, fmt.Errorf("unsupported mailer driver: %s", cfg.Driver)
	}
}

// LogMailer writes mail to the log instead of sending it. Useful in
// development where no mail relay runs.
type LogMailer struct {
	from string
}

func NewLogMailer(from string) *LogMailer {
	return &LogMailer{from: from}
}

func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	l := log.Ctx(ctx)
	l.Info().
		Str("from", m.from).
		Str(log.FieldEmail, msg.To).
		Str("subject", msg.Subject).
		Str("body", msg.Body).
		Msg("mail sent to log")
	return nil
}

func (m *LogMailer) Close() error { return nil }
