package mailer

import (
	"io"
	"net/mail"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMessage_SeparatesHeadersFromBody(t *testing.T) {
	msg := buildMessage("noreply@example.com", "ops@example.com",
		"Reconciliation complete", "Reconciliation report for 2024-01-01 to 2024-01-31\r\nAll matched.")

	// headers and body must be split by an empty line
	assert.Contains(t, msg, "Content-Type: text/plain; charset=UTF-8\r\n\r\nReconciliation report")

	parsed, err := mail.ReadMessage(strings.NewReader(msg))
	require.NoError(t, err)
	assert.Equal(t, "Reconciliation complete", parsed.Header.Get("Subject"))
	assert.Equal(t, "ops@example.com", parsed.Header.Get("To"))

	body, err := io.ReadAll(parsed.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "Reconciliation report for 2024-01-01")
}

func TestBuildMessage_StripsHeaderInjection(t *testing.T) {
	msg := buildMessage("noreply@example.com", "ops@example.com\r\nBcc: attacker@example.com",
		"subject\r\nX-Evil: 1", "body")

	parsed, err := mail.ReadMessage(strings.NewReader(msg))
	require.NoError(t, err)
	assert.Empty(t, parsed.Header.Get("Bcc"))
	assert.Empty(t, parsed.Header.Get("X-Evil"))
	assert.Equal(t, "subject  X-Evil: 1", parsed.Header.Get("Subject"))
}

func TestEnvelopeAddress(t *testing.T) {
	addr, err := envelopeAddress("Store Sync <noreply@example.com>")
	require.NoError(t, err)
	assert.Equal(t, "noreply@example.com", addr)

	_, err = envelopeAddress("not an address")
	assert.Error(t, err)
}
