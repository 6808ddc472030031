package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// Anthropic calls the Anthropic Messages API.
type Anthropic struct {
	client anthropic.Client
	opts   Options
}

// NewAnthropic creates an Anthropic provider. Extra request options are
// applied after the API key.
func NewAnthropic(opts Options, extra ...option.RequestOption) *Anthropic {
	reqOpts := append([]option.RequestOption{option.WithAPIKey(opts.APIKey)}, extra...)
	return &Anthropic{
		client: anthropic.NewClient(reqOpts...),
		opts:   opts,
	}
}

// Name implements Provider.
func (a *Anthropic) Name() string {
	return "anthropic:" + a.opts.Model
}

// Generate implements Provider.
func (a *Anthropic) Generate(ctx context.Context, conv Conversation) (Reply, error) {
	msgs := anthropicMessages(conv.Messages)
	if len(msgs) == 0 {
		return Reply{}, ErrEmptyConversation
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(a.opts.Model),
		MaxTokens: int64(a.opts.MaxTokens),
		Messages:  msgs,
	}
	if sys := system(conv, a.opts.SystemInstruction); sys != "" {
		params.System = []anthropic.TextBlockParam{{Text: sys}}
	}

	msg, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return Reply{}, fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}

	in, out := int(msg.Usage.InputTokens), int(msg.Usage.OutputTokens)
	return Reply{
		Text:         b.String(),
		FinishReason: string(msg.StopReason),
		Usage: Usage{
			PromptTokens:    in,
			CandidateTokens: out,
			TotalTokens:     in + out,
		},
	}, nil
}

// anthropicMessages maps Gemini roles to Messages API roles. The API requires
// the first turn to come from the user, so leading model greetings are
// dropped.
func anthropicMessages(msgs []Message) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(msgs))
	for _, m := range msgs {
		if m.Role == RoleModel {
			if len(out) == 0 {
				continue
			}
			out = append(out, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Text)))
			continue
		}
		out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Text)))
	}
	return out
}
