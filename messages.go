package docent

import (
	"context"
	"errors"

	"github.com/poiesic/docent/chat"
	"github.com/poiesic/docent/extract"
	"github.com/poiesic/docent/ingestion"
	"github.com/poiesic/docent/session"
)

// User-facing failure messages.
const (
	MsgIngestionFailed   = "could not build knowledge base from this document."
	MsgAnswerFailed      = "could not answer the question."
	MsgSummaryFailed     = "could not summarize this document."
	MsgNoText            = "could not extract text from this document."
	MsgUnsupportedFormat = "this file type is not supported."
	MsgNoDocument        = "send a document first, then start a chat."
	MsgNotChatting       = "start a chat before asking questions."
	MsgCanceled          = "the request was canceled."
	MsgInternal          = "something went wrong."
)

// UserMessage maps err to a message suitable for end users. Backend detail
// stays in the logs. It returns "" for a nil error.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var ingestErr *ingestion.StageError
	var chatErr *chat.StageError
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return MsgCanceled
	case errors.Is(err, ErrNothingIngested), errors.Is(err, chat.ErrEmptyText):
		return MsgNoText
	case errors.Is(err, extract.ErrUnsupportedFormat):
		return MsgUnsupportedFormat
	case errors.Is(err, extract.ErrMalformedDocument):
		return MsgNoText
	case errors.Is(err, session.ErrNoNamespace):
		return MsgNoDocument
	case errors.Is(err, session.ErrNotChatting):
		return MsgNotChatting
	case errors.As(err, &ingestErr):
		return MsgIngestionFailed
	case errors.As(err, &chatErr) && chatErr.Stage == chat.StageSummarize:
		return MsgSummaryFailed
	case errors.As(err, &chatErr):
		return MsgAnswerFailed
	}
	return MsgInternal
}
