package chat

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// Gemini calls Google's Gemini API.
type Gemini struct {
	client *genai.Client
	opts   Options
}

// NewGemini creates a Gemini provider.
func NewGemini(ctx context.Context, opts Options) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &Gemini{client: client, opts: opts}, nil
}

// Name implements Provider.
func (g *Gemini) Name() string {
	return "gemini:" + g.opts.Model
}

// Generate implements Provider.
func (g *Gemini) Generate(ctx context.Context, conv Conversation) (Reply, error) {
	contents := geminiContents(conv.Messages)
	if len(contents) == 0 {
		return Reply{}, ErrEmptyConversation
	}

	cfg := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(g.opts.MaxTokens),
	}
	if sys := system(conv, g.opts.SystemInstruction); sys != "" {
		cfg.SystemInstruction = genai.NewContentFromText(sys, genai.RoleUser)
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.opts.Model, contents, cfg)
	if err != nil {
		return Reply{}, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return Reply{}, fmt.Errorf("%w: no candidates returned", ErrUpstream)
	}

	cand := resp.Candidates[0]
	var b strings.Builder
	for _, p := range cand.Content.Parts {
		if p != nil {
			b.WriteString(p.Text)
		}
	}

	reply := Reply{
		Text:         b.String(),
		FinishReason: string(cand.FinishReason),
	}
	if u := resp.UsageMetadata; u != nil {
		reply.Usage = Usage{
			PromptTokens:    int(u.PromptTokenCount),
			CandidateTokens: int(u.CandidatesTokenCount),
			TotalTokens:     int(u.TotalTokenCount),
		}
	}
	return reply, nil
}

func geminiContents(msgs []Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(msgs))
	for _, m := range msgs {
		role := genai.Role(genai.RoleUser)
		if m.Role == RoleModel {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Text, role))
	}
	return contents
}
