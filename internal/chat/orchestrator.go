package chat

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ShaneChing7/Shimmer-AIChatBot-backend/internal/models"
)

// ConversationStore is the persistence surface the orchestrator drives.
// Implemented by internal/store.
type ConversationStore interface {
	CreateMessage(ctx context.Context, message *models.Message) error
	UpdateMessage(ctx context.Context, message *models.Message) error
	ListMessages(ctx context.Context, sessionID uuid.UUID) ([]models.Message, error)
	GetAIMessage(ctx context.Context, sessionID, id uuid.UUID) (*models.Message, error)
	CreateAttachment(ctx context.Context, attachment *models.Attachment) error
	SetAttachmentParsed(ctx context.Context, id uuid.UUID, text string) error
}

// TextExtractor turns an uploaded file into text. It never fails; problems
// come back as diagnostic strings.
type TextExtractor interface {
	Extract(path, name string) string
}

// Upstream opens a streaming completion request. Implemented by
// UpstreamClient.
type Upstream interface {
	Stream(ctx context.Context, messages []models.DeepSeekMessage, model, apiKey string) (<-chan Chunk, <-chan error, error)
}

// Mode selects which of the three streaming flows a run executes.
type Mode int

const (
	ModeNewMessage Mode = iota
	ModeRegenerate
	ModeContinue
)

// Orchestrator prepares and drives streaming conversation turns. One Run is
// created per HTTP stream request; runs share no state.
type Orchestrator struct {
	store     ConversationStore
	upstream  Upstream
	extractor TextExtractor
	now       func() time.Time
}

func NewOrchestrator(store ConversationStore, upstream Upstream, extractor TextExtractor) *Orchestrator {
	return &Orchestrator{
		store:     store,
		upstream:  upstream,
		extractor: extractor,
		now:       time.Now,
	}
}

// UploadedFile is a file already saved to disk by the transport layer.
type UploadedFile struct {
	Name string
	Path string
}

// NewMessageRequest starts a fresh turn: persist the user message, then
// stream the AI reply.
type NewMessageRequest struct {
	Session     *models.Session
	Content     string
	ContentType string
	Model       string
	APIKey      string
	Files       []UploadedFile
}

// RegenerateRequest rewrites (or continues) an existing AI message.
type RegenerateRequest struct {
	Session   *models.Session
	MessageID uuid.UUID
	Continue  bool
	Model     string
	APIKey    string
}

// Run is a prepared stream: context built, user-side state persisted,
// upstream not yet opened. Stream drives it to exactly one terminal status.
type Run struct {
	o       *Orchestrator
	mode    Mode
	session *models.Session

	// target is the AI message being written. Nil until Stream creates it
	// in new-message mode; preloaded for regenerate/continue.
	target *models.Message

	history []models.DeepSeekMessage
	model   string
	apiKey  string

	// prior content carried forward in continue mode.
	priorContent   string
	priorReasoning string
}

// PrepareNewMessage persists the user message and its attachments, runs
// text extraction (cached per attachment), and builds the upstream context
// from the full session history. Returns before any upstream traffic.
func (o *Orchestrator) PrepareNewMessage(ctx context.Context, req NewMessageRequest) (*Run, error) {
	contentType := req.ContentType
	if contentType == "" {
		contentType = models.ContentTypeText
	}
	if strings.TrimSpace(req.Content) == "" && len(req.Files) > 0 {
		contentType = models.ContentTypeFile
	}

	userMessage := &models.Message{
		SessionID:   req.Session.ID,
		Sender:      models.SenderUser,
		ContentType: contentType,
		Content:     req.Content,
		Status:      models.StatusCompleted,
		CreatedAt:   o.now(),
	}
	if err := o.store.CreateMessage(ctx, userMessage); err != nil {
		return nil, err
	}

	for _, file := range req.Files {
		attachment := &models.Attachment{
			MessageID:  userMessage.ID,
			FileName:   file.Name,
			StoredPath: file.Path,
			CreatedAt:  o.now(),
		}
		if err := o.store.CreateAttachment(ctx, attachment); err != nil {
			return nil, err
		}
		parsed := o.extractor.Extract(file.Path, file.Name)
		if err := o.store.SetAttachmentParsed(ctx, attachment.ID, parsed); err != nil {
			return nil, err
		}
	}

	messages, err := o.store.ListMessages(ctx, req.Session.ID)
	if err != nil {
		return nil, err
	}

	return &Run{
		o:       o,
		mode:    ModeNewMessage,
		session: req.Session,
		history: BuildHistory(messages),
		model:   req.Model,
		apiKey:  req.APIKey,
	}, nil
}

// PrepareRegenerate resolves the target AI message and builds the context
// up to it. Returns store.ErrNotFound (wrapped) when the target is missing
// or not an AI turn.
func (o *Orchestrator) PrepareRegenerate(ctx context.Context, req RegenerateRequest) (*Run, error) {
	target, err := o.store.GetAIMessage(ctx, req.Session.ID, req.MessageID)
	if err != nil {
		return nil, err
	}

	messages, err := o.store.ListMessages(ctx, req.Session.ID)
	if err != nil {
		return nil, err
	}
	history := BuildHistory(HistoryUpTo(messages, target))

	run := &Run{
		o:       o,
		mode:    ModeRegenerate,
		session: req.Session,
		target:  target,
		history: history,
		model:   req.Model,
		apiKey:  req.APIKey,
	}

	if req.Continue {
		run.mode = ModeContinue
		run.priorContent = target.Content
		run.priorReasoning = target.ReasoningContent
		run.history = AppendContinuation(run.history, target.Content)
	}
	return run, nil
}

// Stream executes the prepared run: Idle -> Streaming -> terminal. Every
// chunk is accumulated and forwarded in arrival order; finalization runs on
// every exit path and leaves the AI message in exactly one terminal status.
func (r *Run) Stream(ctx context.Context, enc *Encoder) {
	var contentBuf, reasoningBuf strings.Builder

	// Client disconnects land here without touching status again, so
	// interrupted is the default terminal state.
	status := models.StatusInterrupted

	if r.mode == ModeNewMessage {
		r.target = &models.Message{
			SessionID:   r.session.ID,
			Sender:      models.SenderAI,
			ContentType: models.ContentTypeMarkdown,
			Status:      models.StatusGenerating,
			CreatedAt:   r.o.now(),
		}
		if err := r.o.store.CreateMessage(ctx, r.target); err != nil {
			log.Printf("Failed to create AI message: %v", err)
			enc.Error("failed to create AI message")
			return
		}
	} else {
		r.target.Status = models.StatusGenerating
		if err := r.o.store.UpdateMessage(ctx, r.target); err != nil {
			log.Printf("Failed to mark message %s as generating: %v", r.target.ID, err)
		}
	}

	defer r.finalize(&status, &contentBuf, &reasoningBuf, enc)

	chunks, errc, err := r.o.upstream.Stream(ctx, r.history, r.model, r.apiKey)
	if err != nil {
		status = models.StatusError
		enc.Error("AI call failed: " + err.Error())
		return
	}

	for {
		select {
		case <-ctx.Done():
			// Client went away: stop pulling, persist what it saw.
			return

		case err := <-errc:
			if err != nil {
				status = models.StatusError
				enc.Error("AI call failed: " + err.Error())
				return
			}

		case chunk, ok := <-chunks:
			if !ok {
				// The channel also closes on cancellation; that is an
				// interrupt, not a completion.
				if ctx.Err() != nil {
					return
				}
				// Producer sends its error, if any, before closing.
				select {
				case err := <-errc:
					if err != nil {
						status = models.StatusError
						enc.Error("AI call failed: " + err.Error())
						return
					}
				default:
				}
				status = models.StatusCompleted
				return
			}

			switch chunk.Kind {
			case ChunkReasoning:
				reasoningBuf.WriteString(chunk.Text)
			case ChunkContent:
				contentBuf.WriteString(chunk.Text)
			}
			if err := enc.Chunk(chunk); err != nil {
				// Write failure means the client is gone.
				return
			}
		}
	}
}

// finalize persists the accumulated output under the terminal status and,
// on completion, emits the done event. It uses a fresh context so a client
// disconnect cannot skip persistence.
func (r *Run) finalize(status *string, contentBuf, reasoningBuf *strings.Builder, enc *Encoder) {
	if r.target == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if r.mode == ModeContinue {
		r.target.Content = r.priorContent + contentBuf.String()
		r.target.ReasoningContent = r.priorReasoning + reasoningBuf.String()
	} else {
		r.target.Content = contentBuf.String()
		r.target.ReasoningContent = reasoningBuf.String()
	}
	r.target.Status = *status

	if err := r.o.store.UpdateMessage(ctx, r.target); err != nil {
		log.Printf("Failed to persist AI message %s: %v", r.target.ID, err)
		return
	}

	if *status == models.StatusCompleted {
		if err := enc.Done(r.target, reasoningBuf.String()); err != nil {
			log.Printf("Failed to emit done event: %v", err)
		}
	}
}
