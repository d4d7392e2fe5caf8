package email

import (
	"bytes"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

type recordingSender struct {
	messages []*gomail.Message
	err      error
}

func (r *recordingSender) DialAndSend(m ...*gomail.Message) error {
	r.messages = append(r.messages, m...)
	return r.err
}

func testConfig() SMTPConfig {
	return SMTPConfig{FromName: "SocietyHub", FromEmail: "noreply@societyhub.test", BaseURL: "http://localhost:8080"}
}

func TestSendActivationEmail(t *testing.T) {
	sender := &recordingSender{}
	svc := NewEmailServiceWithSender(testConfig(), sender, zerolog.Nop())

	require.NoError(t, svc.SendActivationEmail("ada@leeds.ac.uk", "Ada", "tok-123"))
	require.Len(t, sender.messages, 1)

	m := sender.messages[0]
	assert.Equal(t, []string{"ada@leeds.ac.uk"}, m.GetHeader("To"))
	assert.Equal(t, []string{"Activate Your Account - SocietyHub"}, m.GetHeader("Subject"))
}

func TestSendWithoutSMTPOnlyLogs(t *testing.T) {
	var logs bytes.Buffer
	svc := NewEmailServiceWithSender(testConfig(), nil, zerolog.New(&logs))

	require.NoError(t, svc.SendReverificationEmail("ada@leeds.ac.uk", "Ada", "tok-9"))
	assert.Contains(t, logs.String(), "/api/v1/auth/reverify?token=tok-9")
}

func TestSendPropagatesDialError(t *testing.T) {
	sender := &recordingSender{err: errors.New("connection refused")}
	svc := NewEmailServiceWithSender(testConfig(), sender, zerolog.Nop())

	err := svc.SendNotice("ada@leeds.ac.uk", "Ada", "Society approved", "Chess Club was approved")
	assert.Error(t, err)
}
