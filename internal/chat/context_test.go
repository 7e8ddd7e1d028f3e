package chat

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShaneChing7/Shimmer-AIChatBot-backend/internal/models"
)

func TestBuildHistoryMapsSenders(t *testing.T) {
	history := BuildHistory([]models.Message{
		{Sender: models.SenderUser, Content: "hi"},
		{Sender: models.SenderAI, Content: "hello"},
	})

	require.Len(t, history, 2)
	assert.Equal(t, "user", history[0].Role)
	assert.Equal(t, "hi", history[0].Content)
	assert.Equal(t, "assistant", history[1].Role)
	assert.Equal(t, "hello", history[1].Content)
}

func TestBuildHistoryFoldsAttachments(t *testing.T) {
	history := BuildHistory([]models.Message{{
		Sender:  models.SenderUser,
		Content: "summarize this",
		Files: []models.Attachment{
			{FileName: "a.txt", ParsedContent: "first file"},
			{FileName: "b.txt", ParsedContent: "second file"},
		},
	}})

	require.Len(t, history, 1)
	assert.Contains(t, history[0].Content, "summarize this")
	assert.Contains(t, history[0].Content, "--- attachment [a.txt] ---\nfirst file\n--- end ---")
	assert.Contains(t, history[0].Content, "--- attachment [b.txt] ---\nsecond file\n--- end ---")
}

func TestBuildHistoryLegacyParsedContent(t *testing.T) {
	history := BuildHistory([]models.Message{{
		Sender:        models.SenderUser,
		Content:       "see file",
		ParsedContent: "legacy text",
	}})

	require.Len(t, history, 1)
	assert.Contains(t, history[0].Content, "--- attachment content ---\nlegacy text")
}

func TestBuildHistoryEmptyContentPlaceholder(t *testing.T) {
	history := BuildHistory([]models.Message{{
		Sender:  models.SenderUser,
		Content: "   \n ",
	}})

	require.Len(t, history, 1)
	assert.Equal(t, EmptyContentPlaceholder, history[0].Content)
}

func TestHistoryUpToExcludesTargetAndLaterMessages(t *testing.T) {
	base := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	msgs := []models.Message{
		{ID: uuid.New(), Sender: models.SenderUser, Content: "q1", CreatedAt: base},
		{ID: uuid.New(), Sender: models.SenderAI, Content: "a1", CreatedAt: base.Add(time.Second)},
		{ID: uuid.New(), Sender: models.SenderUser, Content: "q2", CreatedAt: base.Add(2 * time.Second)},
		{ID: uuid.New(), Sender: models.SenderAI, Content: "a2", CreatedAt: base.Add(3 * time.Second)},
		{ID: uuid.New(), Sender: models.SenderUser, Content: "q3", CreatedAt: base.Add(4 * time.Second)},
	}

	history := HistoryUpTo(msgs, &msgs[3])
	require.Len(t, history, 3)
	assert.Equal(t, "q1", history[0].Content)
	assert.Equal(t, "a1", history[1].Content)
	assert.Equal(t, "q2", history[2].Content)
}

func TestHistoryUpToTieBreaksOnID(t *testing.T) {
	at := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	low := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	mid := uuid.MustParse("00000000-0000-0000-0000-000000000002")
	high := uuid.MustParse("00000000-0000-0000-0000-000000000003")

	msgs := []models.Message{
		{ID: low, Sender: models.SenderUser, Content: "before", CreatedAt: at},
		{ID: mid, Sender: models.SenderAI, Content: "target", CreatedAt: at},
		{ID: high, Sender: models.SenderUser, Content: "after", CreatedAt: at},
	}

	history := HistoryUpTo(msgs, &msgs[1])
	require.Len(t, history, 1)
	assert.Equal(t, "before", history[0].Content)
}

func TestAppendContinuation(t *testing.T) {
	base := []models.DeepSeekMessage{{Role: "user", Content: "write a story"}}

	history := AppendContinuation(base, "Once upon a time")
	require.Len(t, history, 3)
	assert.Equal(t, "assistant", history[1].Role)
	assert.Equal(t, "Once upon a time", history[1].Content)
	assert.Equal(t, "user", history[2].Role)
	assert.Equal(t, continuationDirective, history[2].Content)
}

func TestAppendContinuationEmptyPrior(t *testing.T) {
	base := []models.DeepSeekMessage{{Role: "user", Content: "write a story"}}
	history := AppendContinuation(base, "")
	assert.Len(t, history, 1)
}
