package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huddle-chat/huddle/internal/common/config"
	"github.com/huddle-chat/huddle/internal/messages"
)

type fakeThreads struct {
	calls   []string
	threads map[string]*messages.ThreadResult
}

func (f *fakeThreads) Thread(_ context.Context, messageID string) (*messages.ThreadResult, error) {
	f.calls = append(f.calls, messageID)
	return f.threads[messageID], nil
}

func listItem(id int64, threadID *int64, author, content string) *messages.ListItem {
	return &messages.ListItem{Message: messages.Message{
		ID:         id,
		ThreadID:   threadID,
		AuthorName: author,
		Content:    content,
		CreatedAt:  time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}}
}

func completionServer(t *testing.T, reply string, lastPrompt *string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req openai.ChatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 2)
		*lastPrompt = req.Messages[1].Content

		resp := openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{
				{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: reply}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
}

func TestSummarizeCompilesTranscript(t *testing.T) {
	rootID := int64(100)
	threads := &fakeThreads{threads: map[string]*messages.ThreadResult{
		"100": {
			Parent: listItem(rootID, nil, "alice", "should we ship friday?"),
			Messages: []*messages.ListItem{
				listItem(101, &rootID, "bob", "yes, the migration is done"),
			},
		},
	}}

	var prompt string
	srv := completionServer(t, "Ship on friday.", &prompt)
	defer srv.Close()

	svc := NewService(config.AIConfig{APIKey: "test", Model: "gpt-4o-mini", BaseURL: srv.URL + "/v1"}, threads)

	summary, err := svc.Summarize(context.Background(), "100")
	require.NoError(t, err)
	assert.Equal(t, "Ship on friday.", summary)
	assert.Contains(t, prompt, "should we ship friday?")
	assert.Contains(t, prompt, "bob")
	assert.Contains(t, prompt, "yes, the migration is done")
}

func TestSummarizeResolvesReplyToRoot(t *testing.T) {
	rootID := int64(100)
	root := &messages.ThreadResult{
		Parent:   listItem(rootID, nil, "alice", "root message"),
		Messages: []*messages.ListItem{listItem(101, &rootID, "bob", "a reply")},
	}
	threads := &fakeThreads{threads: map[string]*messages.ThreadResult{
		"100": root,
		"101": {Parent: listItem(101, &rootID, "bob", "a reply")},
	}}

	var prompt string
	srv := completionServer(t, "ok", &prompt)
	defer srv.Close()

	svc := NewService(config.AIConfig{APIKey: "test", Model: "gpt-4o-mini", BaseURL: srv.URL + "/v1"}, threads)

	_, err := svc.Summarize(context.Background(), "101")
	require.NoError(t, err)
	assert.Equal(t, []string{"101", "100"}, threads.calls, "a reply resolves to its root before compiling")
	assert.Contains(t, prompt, "root message")
}

func TestThreadSummaryJSON(t *testing.T) {
	rootID := int64(7)
	threads := &fakeThreads{threads: map[string]*messages.ThreadResult{
		"7": {Parent: listItem(rootID, nil, "carol", "standup notes")},
	}}

	var prompt string
	srv := completionServer(t, "Standup happened.", &prompt)
	defer srv.Close()

	svc := NewService(config.AIConfig{APIKey: "test", Model: "gpt-4o-mini", BaseURL: srv.URL + "/v1"}, threads)
	handler := NewHandler(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/ai/thread-summary?messageId=7", nil)
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	handler.ThreadSummary(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "Standup happened.", body["summary"])
}

func TestThreadSummaryRequiresMessageID(t *testing.T) {
	svc := NewService(config.AIConfig{APIKey: "test"}, &fakeThreads{})
	handler := NewHandler(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/ai/thread-summary", nil)
	rec := httptest.NewRecorder()
	handler.ThreadSummary(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestThreadSummaryDisabledWithoutKey(t *testing.T) {
	svc := NewService(config.AIConfig{}, &fakeThreads{})
	handler := NewHandler(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/ai/thread-summary?messageId=7", nil)
	rec := httptest.NewRecorder()
	handler.ThreadSummary(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
