package mailer

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiawesome/wes-io-social/internal/config"
	"github.com/weiawesome/wes-io-social/pkg/log"
)

func TestLogMailerWritesMessage(t *testing.T) {
	var buf bytes.Buffer
	ctx := log.WithLogger(context.Background(), zerolog.New(&buf))

	m, err := New(config.MailerConfig{Driver: "log", From: "noreply@x.io"})
	require.NoError(t, err)
	require.NoError(t, m.Send(ctx, Message{To: "a@x.io", Subject: "Password Reset", Body: "link"}))
	require.NoError(t, m.Close())

	out := buf.String()
	assert.Contains(t, out, `"email":"a@x.io"`)
	assert.Contains(t, out, `"subject":"Password Reset"`)
	assert.Contains(t, out, `"from":"noreply@x.io"`)
}

func TestNewUnknownDriver(t *testing.T) {
	_, err := New(config.MailerConfig{Driver: "smtp"})
	assert.Error(t, err)
}

func TestNewKafkaRequiresBrokers(t *testing.T) {
	_, err := New(config.MailerConfig{Driver: "kafka"})
	assert.Error(t, err)
}
