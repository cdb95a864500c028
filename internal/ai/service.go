package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/huddle-chat/huddle/internal/circuitbreaker"
	"github.com/huddle-chat/huddle/internal/common/config"
	"github.com/huddle-chat/huddle/internal/common/errors"
	"github.com/huddle-chat/huddle/internal/messages"
)

const summarySystemPrompt = "You are an expert assistant summarizing team discussion threads. " +
	"Use only the provided thread content and never invent facts, names, or timelines. " +
	"First write a single concise paragraph (2-4 sentences) capturing the thread's purpose, key decisions, and any blockers or next steps. " +
	"Then add a blank line followed by 2-3 one-sentence bullet points with the most important takeaways. " +
	"Stay neutral and specific, preserve terminology from the thread, and avoid filler. " +
	"If the context is insufficient, return a single-sentence summary and omit the bullets."

// ThreadSource resolves a thread transcript for summarization.
type ThreadSource interface {
	Thread(ctx context.Context, messageID string) (*messages.ThreadResult, error)
}

// Service produces AI summaries of message threads.
type Service struct {
	client   *openai.Client
	model    string
	enabled  bool
	messages ThreadSource
	breaker  *circuitbreaker.Breaker
}

func NewService(cfg config.AIConfig, msgs ThreadSource) *Service {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &Service{
		client:   openai.NewClientWithConfig(clientCfg),
		model:    cfg.Model,
		enabled:  cfg.APIKey != "",
		messages: msgs,
		breaker:  circuitbreaker.New(5, 30*time.Second),
	}
}

// Enabled reports whether an API key was configured.
func (s *Service) Enabled() bool {
	return s.enabled
}

// SummaryStream opens a token stream for a thread summary. The caller owns
// the returned stream and must Close it.
func (s *Service) SummaryStream(ctx context.Context, messageID string) (*openai.ChatCompletionStream, error) {
	prompt, err := s.compileThread(ctx, messageID)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	var stream *openai.ChatCompletionStream
	err = s.breaker.Call(func() error {
		var callErr error
		stream, callErr = s.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
			Model:     s.model,
			MaxTokens: 1000,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: summarySystemPrompt},
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
			Temperature: 0.2,
			Stream:      true,
		})
		return callErr
	})
	if err != nil {
		cancel()
		if err == circuitbreaker.ErrCircuitOpen {
			return nil, errors.Unavailable("summary generation temporarily unavailable", err)
		}
		return nil, errors.Internal("summary generation failed", err)
	}

	go func() {
		<-ctx.Done()
		cancel()
	}()
	return stream, nil
}

// Summarize generates a complete summary in one call.
func (s *Service) Summarize(ctx context.Context, messageID string) (string, error) {
	prompt, err := s.compileThread(ctx, messageID)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	var resp openai.ChatCompletionResponse
	err = s.breaker.Call(func() error {
		var callErr error
		resp, callErr = s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:     s.model,
			MaxTokens: 1000,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: summarySystemPrompt},
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
			Temperature: 0.2,
		})
		return callErr
	})
	if err != nil {
		if err == circuitbreaker.ErrCircuitOpen {
			return "", errors.Unavailable("summary generation temporarily unavailable", err)
		}
		return "", errors.Internal("summary generation failed", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.Internal("summary generation returned no choices", nil)
	}
	return resp.Choices[0].Message.Content, nil
}

// compileThread flattens a thread into a plain-text transcript. Any message
// in the thread resolves to the root first, so summarizing a reply and
// summarizing its parent produce the same transcript.
func (s *Service) compileThread(ctx context.Context, messageID string) (string, error) {
	thread, err := s.messages.Thread(ctx, messageID)
	if err != nil {
		return "", err
	}
	if root := thread.Parent.ThreadPublicID(); root != "" {
		thread, err = s.messages.Thread(ctx, root)
		if err != nil {
			return "", err
		}
	}

	var b strings.Builder
	parent := thread.Parent
	fmt.Fprintf(&b, "Thread Root - %s - %s\n", parent.AuthorName, parent.CreatedAt.Format(time.RFC3339))
	b.WriteString(parent.Content)
	if len(thread.Messages) > 0 {
		b.WriteString("\n\nReplies\n")
		for _, r := range thread.Messages {
			fmt.Fprintf(&b, "- %s - %s: %s\n", r.AuthorName, r.CreatedAt.Format(time.RFC3339), r.Content)
		}
	}
	return b.String(), nil
}
