package models

// DeepSeekMessage is one role/content turn sent to the completion API.
type DeepSeekMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// DeepSeekChatRequest is the body of a streaming completion call.
type DeepSeekChatRequest struct {
	Model    string            `json:"model"`
	Messages []DeepSeekMessage `json:"messages"`
	Stream   bool              `json:"stream"`
}

// DeepSeekStreamResponse is one parsed "data:" record from the stream.
type DeepSeekStreamResponse struct {
	ID      string          `json:"id"`
	Object  string          `json:"object"`
	Created int64           `json:"created"`
	Model   string          `json:"model"`
	Choices []Choice        `json:"choices"`
	Error   *DeepSeekError  `json:"error,omitempty"`
}

type Choice struct {
	Delta        Delta  `json:"delta"`
	Index        int    `json:"index"`
	FinishReason string `json:"finish_reason,omitempty"`
}

// Delta carries the incremental output of one record. Reasoner models
// interleave reasoning_content with content; either or both may be empty.
type Delta struct {
	Role             string `json:"role,omitempty"`
	Content          string `json:"content,omitempty"`
	ReasoningContent string `json:"reasoning_content,omitempty"`
}

type DeepSeekError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}
