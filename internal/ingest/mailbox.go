package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-auditor/constants"
)

// PollMailbox scans unseen messages, ingests every supported attachment as an
// EMAIL-sourced document, and marks every scanned message seen regardless of
// per-attachment outcome. Redelivery is safe: the content hash guard turns a
// replay into a DUPLICATE.
func (s *Service) PollMailbox(ctx context.Context) PollResult {
	rid := uuid.New().String()
	start := s.now()
	s.health.RecordPoll(start)

	s.logger.Info("ingest.poll.start",
		"req_id", rid,
		"host", s.cfg.IMAP.Host,
		"folder", s.cfg.IMAP.Folder,
	)

	res := PollResult{}

	src, err := s.dial(s.cfg.IMAP, s.logger)
	if err != nil {
		msg := fmt.Sprintf("mailbox connect failed: %v", err)
		s.logger.Error("ingest.poll.connect_failed", "req_id", rid, "error", err)
		s.health.RecordFailure(msg)
		res.Status = constants.IngestFailed
		res.Errors = append(res.Errors, msg)
		return res
	}
	defer func() {
		if err := src.Close(); err != nil {
			s.logger.Warn("ingest.poll.close_failed", "req_id", rid, "error", err)
		}
	}()

	messages, err := src.FetchUnseen(s.cfg.Ingest.MaxMailMessages)
	if err != nil {
		msg := fmt.Sprintf("mailbox fetch failed: %v", err)
		s.logger.Error("ingest.poll.fetch_failed", "req_id", rid, "error", err)
		s.health.RecordFailure(msg)
		res.Status = constants.IngestFailed
		res.Errors = append(res.Errors, msg)
		return res
	}

	var scanned []uint32
	for _, msg := range messages {
		res.MessagesScanned++
		scanned = append(scanned, msg.SeqNum)

		for _, att := range msg.Attachments {
			mimeType := constants.NormalizeMIME(att.MIMEType)
			if !constants.SupportedMIME(mimeType) {
				continue
			}
			res.AttachmentsFound++

			out := s.Ingest(ctx, IngestRequest{
				Data:     att.Data,
				Filename: att.Filename,
				MIMEType: mimeType,
				Source:   constants.SourceEmail,
			})
			switch out.Status {
			case constants.IngestSuccess:
				res.Ingested++
			case constants.IngestDuplicate:
				res.Duplicates++
			default:
				res.Failed++
				res.Errors = append(res.Errors,
					fmt.Sprintf("%s: %s", att.Filename, out.Error))
			}
		}
	}

	// Every scanned message is acknowledged, failures included, so the next
	// poll sees fresh mail instead of replaying a poison message forever.
	if err := src.MarkSeen(scanned); err != nil {
		msg := fmt.Sprintf("mark seen failed: %v", err)
		s.logger.Warn("ingest.poll.mark_seen_failed", "req_id", rid, "error", err)
		res.Errors = append(res.Errors, msg)
	}

	switch {
	case len(res.Errors) > 0 && res.Ingested == 0:
		res.Status = constants.IngestFailed
	case len(res.Errors) > 0 || res.Failed > 0:
		res.Status = constants.IngestPartial
	default:
		res.Status = constants.IngestSuccess
	}

	if res.Status == constants.IngestSuccess || res.Status == constants.IngestPartial {
		s.health.RecordSuccess(s.now())
	} else {
		s.health.RecordFailure(fmt.Sprintf("poll failed: %d errors", len(res.Errors)))
	}

	s.logger.Info("ingest.poll.done",
		"req_id", rid,
		"status", res.Status,
		"messages_scanned", res.MessagesScanned,
		"attachments_found", res.AttachmentsFound,
		"ingested", res.Ingested,
		"duplicates", res.Duplicates,
		"failed", res.Failed,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return res
}
