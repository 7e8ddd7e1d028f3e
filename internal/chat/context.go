package chat

import (
	"fmt"
	"strings"

	"github.com/ShaneChing7/Shimmer-AIChatBot-backend/internal/models"
)

// EmptyContentPlaceholder replaces message content that is empty after
// trimming; the completion API rejects empty content.
const EmptyContentPlaceholder = "[empty message or file only]"

// continuationDirective is the synthetic user turn appended in continue
// mode. It is sent upstream only and never persisted.
const continuationDirective = "Continue exactly from the last sentence above. " +
	"Output only the continuation; do not repeat anything already written " +
	"and do not add pleasantries like \"Sure\" or \"Continuing on\"."

// BuildHistory converts stored messages into the ordered role/content list
// sent upstream. Attachment text is folded into each message's content; the
// stored content itself stays the raw user input.
func BuildHistory(messages []models.Message) []models.DeepSeekMessage {
	history := make([]models.DeepSeekMessage, 0, len(messages))
	for i := range messages {
		history = append(history, models.DeepSeekMessage{
			Role:    messages[i].RoleForAPI(),
			Content: messageContent(&messages[i]),
		})
	}
	return history
}

// messageContent assembles the upstream content for one message: stored
// content plus delimited attachment text, falling back to the legacy
// single-file parsed_content field for old rows.
func messageContent(m *models.Message) string {
	content := m.Content
	if len(m.Files) > 0 {
		for _, f := range m.Files {
			if f.ParsedContent != "" {
				content += fmt.Sprintf("\n\n--- attachment [%s] ---\n%s\n--- end ---\n", f.FileName, f.ParsedContent)
			}
		}
	} else if m.ParsedContent != "" {
		content += fmt.Sprintf("\n\n--- attachment content ---\n%s\n----------------", m.ParsedContent)
	}

	if strings.TrimSpace(content) == "" {
		return EmptyContentPlaceholder
	}
	return content
}

// HistoryUpTo returns the messages whose (created_at, id) order key is at
// most the target's, excluding the target itself. messages must already be
// in store order.
func HistoryUpTo(messages []models.Message, target *models.Message) []models.Message {
	history := make([]models.Message, 0, len(messages))
	for i := range messages {
		m := &messages[i]
		if m.ID == target.ID {
			continue
		}
		if m.CreatedAt.After(target.CreatedAt) {
			continue
		}
		if m.CreatedAt.Equal(target.CreatedAt) && m.ID.String() > target.ID.String() {
			continue
		}
		history = append(history, *m)
	}
	return history
}

// AppendContinuation adds the assistant's partial output and the
// continuation directive to the history. No-op when there is nothing to
// continue from.
func AppendContinuation(history []models.DeepSeekMessage, existingContent string) []models.DeepSeekMessage {
	if existingContent == "" {
		return history
	}
	history = append(history, models.DeepSeekMessage{
		Role:    "assistant",
		Content: existingContent,
	})
	history = append(history, models.DeepSeekMessage{
		Role:    "user",
		Content: continuationDirective,
	})
	return history
}
