// Package eml normalises RFC 822 email messages.
package eml

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"strings"

	"github.com/custodia-labs/intellidocs/internal/core/domain"
	"github.com/custodia-labs/intellidocs/internal/core/ports/driven"
	"github.com/custodia-labs/intellidocs/internal/normalisers/html"
	"github.com/custodia-labs/intellidocs/internal/normalisers/plaintext"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles EML (email) documents.
type Normaliser struct{}

// New creates a new EML normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedFormats returns the file extensions this normaliser handles.
func (n *Normaliser) SupportedFormats() []string {
	return []string{"eml"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise renders the From, To, Date and Subject headers followed by the
// message body. Plain text parts are preferred over HTML parts.
func (n *Normaliser) Normalise(_ context.Context, raw []byte) (string, error) {
	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("%w: eml: %w", domain.ErrCorruptInput, err)
	}

	body, err := extractBody(msg)
	if err != nil {
		return "", err
	}

	var content strings.Builder
	for _, key := range []string{"From", "To", "Date", "Subject"} {
		if v := decodeHeader(msg.Header.Get(key)); v != "" {
			fmt.Fprintf(&content, "%s: %s\n", key, v)
		}
	}
	content.WriteString("\n")
	content.WriteString(body)

	return strings.TrimSpace(plaintext.Clean(content.String())), nil
}

// decodeHeader decodes RFC 2047 encoded headers.
func decodeHeader(header string) string {
	if header == "" {
		return ""
	}
	dec := new(mime.WordDecoder)
	decoded, err := dec.DecodeHeader(header)
	if err != nil {
		return header
	}
	return decoded
}

func extractBody(msg *mail.Message) (string, error) {
	contentType := msg.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "text/plain"
	}

	body, err := io.ReadAll(msg.Body)
	if err != nil {
		return "", fmt.Errorf("%w: eml: read body: %w", domain.ErrCorruptInput, err)
	}

	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return string(body), nil
	}

	switch {
	case strings.HasPrefix(mediaType, "multipart/"):
		return extractMultipartBody(bytes.NewReader(body), params["boundary"]), nil
	case mediaType == "text/html":
		return html.Text(string(body)), nil
	default:
		return string(body), nil
	}
}

// extractMultipartBody walks the parts depth first. Unreadable parts are
// skipped.
func extractMultipartBody(r io.Reader, boundary string) string {
	if boundary == "" {
		return ""
	}

	mr := multipart.NewReader(r, boundary)
	var textParts, htmlParts []string

	for {
		part, err := mr.NextPart()
		if err != nil {
			break
		}

		mediaType, params, parseErr := mime.ParseMediaType(part.Header.Get("Content-Type"))
		if parseErr != nil {
			mediaType = "text/plain"
		}

		content, readErr := io.ReadAll(part)
		part.Close()
		if readErr != nil {
			continue
		}

		switch {
		case mediaType == "text/plain":
			textParts = append(textParts, string(content))
		case mediaType == "text/html":
			htmlParts = append(htmlParts, html.Text(string(content)))
		case strings.HasPrefix(mediaType, "multipart/"):
			if nested := extractMultipartBody(bytes.NewReader(content), params["boundary"]); nested != "" {
				textParts = append(textParts, nested)
			}
		}
	}

	if len(textParts) > 0 {
		return strings.Join(textParts, "\n")
	}
	return strings.Join(htmlParts, "\n")
}
