// Package mail reads submission messages from the institution-facing mailbox.
package mail

import (
	"context"
	"fmt"
	"sync"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"go.uber.org/zap"

	auditapp "github.com/finaudit/backend/internal/application/audit"
	"github.com/finaudit/backend/internal/infrastructure/config"
)

// ImapSource fetches unseen messages over IMAP. Bodies are peeked, so the
// \Seen flag is only set by an explicit MarkSeen after the workflow handled
// the message. The connection is established lazily and dropped on any
// protocol error, the next call reconnects.
type ImapSource struct {
	cfg    config.MailConfig
	logger *zap.Logger

	mu   sync.Mutex
	conn *client.Client
	uids map[string]uint32
}

// NewImapSource creates a mailbox source for the given configuration
func NewImapSource(cfg config.MailConfig, logger *zap.Logger) *ImapSource {
	return &ImapSource{
		cfg:    cfg,
		logger: logger,
		uids:   make(map[string]uint32),
	}
}

// FetchUnseen returns all messages without the \Seen flag
func (s *ImapSource) FetchUnseen(ctx context.Context) ([]auditapp.InboundMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.ensureConnected()
	if err != nil {
		return nil, err
	}

	criteria := imap.NewSearchCriteria()
	criteria.WithoutFlags = []string{imap.SeenFlag}
	uids, err := c.UidSearch(criteria)
	if err != nil {
		s.drop()
		return nil, fmt.Errorf("search mailbox: %w", err)
	}
	if len(uids) == 0 {
		return nil, nil
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(uids...)
	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{imap.FetchEnvelope, imap.FetchUid, section.FetchItem()}

	ch := make(chan *imap.Message, len(uids))
	done := make(chan error, 1)
	go func() {
		done <- c.UidFetch(seqset, items, ch)
	}()

	var messages []auditapp.InboundMessage
	for msg := range ch {
		inbound, ok := s.toInbound(msg, section)
		if !ok {
			continue
		}
		s.uids[inbound.MessageID] = msg.Uid
		messages = append(messages, inbound)
	}
	if err := <-done; err != nil {
		s.drop()
		return nil, fmt.Errorf("fetch mailbox: %w", err)
	}
	return messages, nil
}

// MarkSeen flags a previously fetched message as seen
func (s *ImapSource) MarkSeen(ctx context.Context, messageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	uid, ok := s.uids[messageID]
	if !ok {
		return fmt.Errorf("unknown message id %q", messageID)
	}

	c, err := s.ensureConnected()
	if err != nil {
		return err
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(uid)
	item := imap.FormatFlagsOp(imap.AddFlags, true)
	if err := c.UidStore(seqset, item, []interface{}{imap.SeenFlag}, nil); err != nil {
		s.drop()
		return fmt.Errorf("mark message seen: %w", err)
	}
	delete(s.uids, messageID)
	return nil
}

// Close logs out from the mail server
func (s *ImapSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	err := s.conn.Logout()
	s.conn = nil
	return err
}

func (s *ImapSource) toInbound(msg *imap.Message, section *imap.BodySectionName) (auditapp.InboundMessage, bool) {
	if msg.Envelope == nil {
		return auditapp.InboundMessage{}, false
	}
	body := msg.GetBody(section)
	if body == nil {
		return auditapp.InboundMessage{}, false
	}

	attachments, err := extractAttachments(body)
	if err != nil {
		s.logger.Warn("unparseable message body",
			zap.Uint32("uid", msg.Uid),
			zap.String("subject", msg.Envelope.Subject),
			zap.Error(err))
		return auditapp.InboundMessage{}, false
	}

	messageID := msg.Envelope.MessageId
	if messageID == "" {
		messageID = fmt.Sprintf("uid-%d", msg.Uid)
	}
	from := ""
	if len(msg.Envelope.From) > 0 {
		from = msg.Envelope.From[0].Address()
	}

	return auditapp.InboundMessage{
		MessageID:   messageID,
		From:        from,
		Subject:     msg.Envelope.Subject,
		ReceivedAt:  msg.Envelope.Date,
		Attachments: attachments,
	}, true
}

func (s *ImapSource) ensureConnected() (*client.Client, error) {
	if s.conn != nil {
		return s.conn, nil
	}

	c, err := client.DialTLS(s.cfg.Address, nil)
	if err != nil {
		return nil, fmt.Errorf("dial mail server %s: %w", s.cfg.Address, err)
	}
	if err := c.Login(s.cfg.Username, s.cfg.Password); err != nil {
		_ = c.Logout()
		return nil, fmt.Errorf("mail login: %w", err)
	}
	if _, err := c.Select(s.cfg.Mailbox, false); err != nil {
		_ = c.Logout()
		return nil, fmt.Errorf("select mailbox %s: %w", s.cfg.Mailbox, err)
	}
	s.conn = c
	return c, nil
}

func (s *ImapSource) drop() {
	if s.conn != nil {
		_ = s.conn.Logout()
		s.conn = nil
	}
}
