package mail

import (
	"fmt"
	"io"

	_ "github.com/emersion/go-message/charset"
	msgmail "github.com/emersion/go-message/mail"

	auditapp "github.com/finaudit/backend/internal/application/audit"
)

// extractAttachments walks the MIME tree and collects every part carrying a
// filename. Scanned submissions arrive both as attachments and as inline
// parts depending on the sending client.
func extractAttachments(r io.Reader) ([]auditapp.MessageAttachment, error) {
	mr, err := msgmail.CreateReader(r)
	if err != nil {
		return nil, fmt.Errorf("read message: %w", err)
	}

	var attachments []auditapp.MessageAttachment
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read message part: %w", err)
		}

		var filename, contentType string
		switch h := part.Header.(type) {
		case *msgmail.AttachmentHeader:
			filename, _ = h.Filename()
			contentType, _, _ = h.ContentType()
		case *msgmail.InlineHeader:
			// Inline parts have no disposition filename, only the
			// Content-Type name parameter.
			t, params, err := h.ContentType()
			if err == nil {
				contentType = t
				filename = params["name"]
			}
		}
		if filename == "" {
			continue
		}

		content, err := io.ReadAll(part.Body)
		if err != nil {
			return nil, fmt.Errorf("read attachment %s: %w", filename, err)
		}
		attachments = append(attachments, auditapp.MessageAttachment{
			Filename:    filename,
			ContentType: contentType,
			Content:     content,
		})
	}
	return attachments, nil
}
