package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/daybrief/internal/core"
	"github.com/agenthands/daybrief/internal/core/model"
)

type stubClient struct {
	response   string
	err        error
	lastPrompt string
}

func (c *stubClient) Generate(_ context.Context, prompt string) (string, error) {
	c.lastPrompt = prompt
	return c.response, c.err
}

func digestRequest() core.DigestRequest {
	rec := model.Record{
		Title:        "OpenAI releases GPT-X",
		CanonicalURL: "https://example.com/gpt-x",
		SourceID:     "hn",
		Category:     model.CategoryAIFrontier,
		BodySnippet:  "A new flagship model.",
		Merge: model.MergeMetadata{
			ContributingSources: []string{"hn", "techcrunch"},
			MentionCount:        2,
		},
	}
	return core.DigestRequest{
		Date:       time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC),
		Categories: map[model.Category][]model.Record{model.CategoryAIFrontier: {rec}},
		EntityChanges: []model.EntityChange{
			{Kind: model.EntityChangeNew, Name: "OpenAI", Entity: model.EntityOrganization, SourceID: "hn", Title: rec.Title},
		},
		DeepDive: rec,
	}
}

func TestSummarizePromptContents(t *testing.T) {
	client := &stubClient{response: "## ai-frontier\n\nA digest.\n"}
	s := NewDigestSummarizer(client, "")

	draft, err := s.Summarize(context.Background(), digestRequest())
	require.NoError(t, err)
	assert.Equal(t, client.response, draft)

	assert.Contains(t, client.lastPrompt, "2026-08-26")
	assert.Contains(t, client.lastPrompt, "<ai-frontier>")
	assert.Contains(t, client.lastPrompt, "OpenAI releases GPT-X")
	assert.Contains(t, client.lastPrompt, "hn, techcrunch")
	assert.Contains(t, client.lastPrompt, "<entity-timeline>")
	assert.Contains(t, client.lastPrompt, "Deep-dive topic: OpenAI releases GPT-X")
	assert.NotContains(t, client.lastPrompt, "covered recently")
}

func TestSummarizeRepeatHint(t *testing.T) {
	client := &stubClient{response: "draft"}
	s := NewDigestSummarizer(client, "custom preamble")

	req := digestRequest()
	req.DeepDiveRepeat = true
	_, err := s.Summarize(context.Background(), req)
	require.NoError(t, err)

	assert.Contains(t, client.lastPrompt, "custom preamble")
	assert.Contains(t, client.lastPrompt, "covered recently")
}

func TestSummarizeErrors(t *testing.T) {
	s := NewDigestSummarizer(&stubClient{err: errors.New("quota")}, "")
	_, err := s.Summarize(context.Background(), digestRequest())
	require.Error(t, err)

	s = NewDigestSummarizer(&stubClient{response: "  \n"}, "")
	_, err = s.Summarize(context.Background(), digestRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty narrative")
}
