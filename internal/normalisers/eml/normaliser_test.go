package eml

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/intellidocs/internal/core/domain"
)

func TestNormaliser_Metadata(t *testing.T) {
	n := New()
	assert.Equal(t, []string{"eml"}, n.SupportedFormats())
	assert.Equal(t, 50, n.Priority())
}

func TestNormalise_SimpleEmail(t *testing.T) {
	eml := "From: sender@example.com\r\n" +
		"To: recipient@example.com\r\n" +
		"Subject: Test Email Subject\r\n" +
		"Date: Mon, 01 Jan 2024 10:00:00 +0000\r\n" +
		"Content-Type: text/plain\r\n" +
		"\r\n" +
		"This is the body of the email.\r\nIt has multiple lines.\r\n"

	got, err := New().Normalise(context.Background(), []byte(eml))
	require.NoError(t, err)

	assert.Equal(t, "From: sender@example.com\n"+
		"To: recipient@example.com\n"+
		"Date: Mon, 01 Jan 2024 10:00:00 +0000\n"+
		"Subject: Test Email Subject\n\n"+
		"This is the body of the email.\nIt has multiple lines.", got)
}

func TestNormalise_EncodedSubject(t *testing.T) {
	eml := "Subject: =?UTF-8?B?SGVsbG8gV29ybGQ=?=\n\nbody"

	got, err := New().Normalise(context.Background(), []byte(eml))
	require.NoError(t, err)
	assert.Contains(t, got, "Subject: Hello World")
}

func TestNormalise_MultipartPrefersPlainText(t *testing.T) {
	eml := `From: a@example.com
Content-Type: multipart/alternative; boundary="b1"

--b1
Content-Type: text/html

<p>HTML version</p>
--b1
Content-Type: text/plain

Plain version
--b1--
`

	got, err := New().Normalise(context.Background(), []byte(eml))
	require.NoError(t, err)
	assert.Contains(t, got, "Plain version")
	assert.NotContains(t, got, "HTML version")
}

func TestNormalise_HTMLOnly(t *testing.T) {
	eml := "Content-Type: text/html\n\n<div>Hello <b>there</b></div><script>x()</script>"

	got, err := New().Normalise(context.Background(), []byte(eml))
	require.NoError(t, err)
	assert.Equal(t, "Hello there", got)
}

func TestNormalise_NestedMultipart(t *testing.T) {
	eml := `Content-Type: multipart/mixed; boundary="outer"

--outer
Content-Type: multipart/alternative; boundary="inner"

--inner
Content-Type: text/plain

Nested text
--inner--
--outer--
`

	got, err := New().Normalise(context.Background(), []byte(eml))
	require.NoError(t, err)
	assert.Contains(t, got, "Nested text")
}

func TestNormalise_Corrupt(t *testing.T) {
	_, err := New().Normalise(context.Background(), []byte("no header separator and no colon"))
	assert.ErrorIs(t, err, domain.ErrCorruptInput)
}
