package mail

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	gomail "github.com/emersion/go-message/mail"

	"github.com/joseph-ayodele/invoice-auditor/internal/common"
)

// Attachment is one file pulled off a mailbox message.
type Attachment struct {
	Filename string
	MIMEType string
	Data     []byte
}

// Message is a scanned mailbox message and its attachments.
type Message struct {
	SeqNum      uint32
	Subject     string
	Attachments []Attachment
}

// Source reads unseen messages from a mailbox. MarkSeen is separate from
// FetchUnseen so the poller can acknowledge every scanned message even when
// some of its attachments fail to ingest.
type Source interface {
	FetchUnseen(max int) ([]Message, error)
	MarkSeen(seqNums []uint32) error
	Close() error
}

// Dialer opens a Source; injectable so the poller can be tested offline.
type Dialer func(cfg common.IMAPConfig, logger *slog.Logger) (Source, error)

type imapSource struct {
	client *client.Client
	folder string
	logger *slog.Logger
}

// Dial connects over TLS, logs in, and selects the configured folder.
func Dial(cfg common.IMAPConfig, logger *slog.Logger) (Source, error) {
	if logger == nil {
		logger = slog.Default()
	}
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	start := time.Now()
	c, err := client.DialTLS(addr, nil)
	if err != nil {
		return nil, fmt.Errorf("imap dial %s: %w", addr, err)
	}
	if err := c.Login(cfg.User, cfg.Password); err != nil {
		_ = c.Logout()
		return nil, fmt.Errorf("imap login: %w", err)
	}
	if _, err := c.Select(cfg.Folder, false); err != nil {
		_ = c.Logout()
		return nil, fmt.Errorf("imap select %s: %w", cfg.Folder, err)
	}

	logger.Info("mail.connected",
		"host", cfg.Host, "folder", cfg.Folder,
		"elapsed_ms", time.Since(start).Milliseconds())
	return &imapSource{client: c, folder: cfg.Folder, logger: logger}, nil
}

// FetchUnseen returns up to max unseen messages, newest last. Body parts that
// fail to parse are skipped per message rather than failing the whole fetch.
func (s *imapSource) FetchUnseen(max int) ([]Message, error) {
	criteria := imap.NewSearchCriteria()
	criteria.WithoutFlags = []string{imap.SeenFlag}
	ids, err := s.client.Search(criteria)
	if err != nil {
		return nil, fmt.Errorf("imap search: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	if max > 0 && len(ids) > max {
		ids = ids[len(ids)-max:]
	}

	seqset := new(imap.SeqSet)
	for _, id := range ids {
		seqset.AddNum(id)
	}

	section := &imap.BodySectionName{}
	items := []imap.FetchItem{section.FetchItem(), imap.FetchEnvelope}

	msgCh := make(chan *imap.Message, len(ids))
	done := make(chan error, 1)
	go func() {
		done <- s.client.Fetch(seqset, items, msgCh)
	}()

	var out []Message
	for msg := range msgCh {
		m := Message{SeqNum: msg.SeqNum}
		if msg.Envelope != nil {
			m.Subject = msg.Envelope.Subject
		}
		body := msg.GetBody(section)
		if body == nil {
			s.logger.Warn("mail.message_no_body", "seq", msg.SeqNum)
			out = append(out, m)
			continue
		}
		m.Attachments = s.readAttachments(msg.SeqNum, body)
		out = append(out, m)
	}
	if err := <-done; err != nil {
		return nil, fmt.Errorf("imap fetch: %w", err)
	}
	return out, nil
}

func (s *imapSource) readAttachments(seq uint32, body io.Reader) []Attachment {
	mr, err := gomail.CreateReader(body)
	if err != nil {
		s.logger.Warn("mail.message_parse_failed", "seq", seq, "error", err)
		return nil
	}

	var atts []Attachment
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			s.logger.Warn("mail.part_parse_failed", "seq", seq, "error", err)
			break
		}
		ah, ok := part.Header.(*gomail.AttachmentHeader)
		if !ok {
			continue
		}
		filename, _ := ah.Filename()
		contentType, _, _ := ah.ContentType()
		data, err := io.ReadAll(part.Body)
		if err != nil {
			s.logger.Warn("mail.attachment_read_failed", "seq", seq, "filename", filename, "error", err)
			continue
		}
		atts = append(atts, Attachment{
			Filename: filename,
			MIMEType: contentType,
			Data:     data,
		})
	}
	return atts
}

// MarkSeen flags the given messages as seen.
func (s *imapSource) MarkSeen(seqNums []uint32) error {
	if len(seqNums) == 0 {
		return nil
	}
	seqset := new(imap.SeqSet)
	for _, n := range seqNums {
		seqset.AddNum(n)
	}
	item := imap.FormatFlagsOp(imap.AddFlags, true)
	if err := s.client.Store(seqset, item, []interface{}{imap.SeenFlag}, nil); err != nil {
		return fmt.Errorf("imap store seen: %w", err)
	}
	return nil
}

func (s *imapSource) Close() error {
	return s.client.Logout()
}
