// Package chat proxies tutor conversations to a hosted language model.
//
// # Overview
//
// The browser sends a Gemini-style request ({contents, config}) and expects a
// Gemini-style response. A Provider turns the parsed Conversation into one
// upstream call and returns a Reply, which NewEnvelope shapes back into the
// response the browser reads.
//
// Two providers are available:
//   - Gemini: google.golang.org/genai
//   - Anthropic: github.com/anthropics/anthropic-sdk-go
//
// The API key never leaves the server.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ieltsmaster/studyplan/internal/config"
)

// Sentinel errors.
var (
	// ErrEmptyConversation is returned when a request carries no text.
	ErrEmptyConversation = errors.New("conversation is empty")

	// ErrNoAPIKey is returned when no key is configured for the provider.
	ErrNoAPIKey = errors.New("API key is not set")

	// ErrUpstream wraps failures reported by the model provider.
	ErrUpstream = errors.New("upstream model call failed")
)

// Role is the author of a message, in Gemini's vocabulary.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Message is one turn of a conversation.
type Message struct {
	Role Role
	Text string
}

// Conversation is a parsed chat request.
type Conversation struct {
	System   string
	Messages []Message
}

// Reply is a provider's answer.
type Reply struct {
	Text         string
	FinishReason string
	Usage        Usage
}

// Usage counts tokens for one call.
type Usage struct {
	PromptTokens    int
	CandidateTokens int
	TotalTokens     int
}

// Provider generates a reply for a conversation.
type Provider interface {
	// Name returns the provider name used in logs.
	Name() string

	// Generate makes one upstream call. Failures wrap ErrUpstream.
	Generate(ctx context.Context, conv Conversation) (Reply, error)
}

// Options are the provider settings shared by every implementation.
type Options struct {
	APIKey            string
	Model             string
	MaxTokens         int
	SystemInstruction string
}

// FromConfig converts the chat section of the service config.
func FromConfig(cfg config.ChatConfig) Options {
	return Options{
		APIKey:            cfg.APIKey,
		Model:             cfg.Model,
		MaxTokens:         cfg.MaxTokens,
		SystemInstruction: cfg.SystemInstruction,
	}
}

// New creates the provider named by provider.
func New(ctx context.Context, provider string, opts Options) (Provider, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, fmt.Errorf("%s: %w", provider, ErrNoAPIKey)
	}
	if opts.Model == "" {
		opts.Model = config.DefaultModel(provider)
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 1024
	}

	switch provider {
	case config.ProviderGemini, "":
		return NewGemini(ctx, opts)
	case config.ProviderAnthropic:
		return NewAnthropic(opts), nil
	default:
		return nil, fmt.Errorf("unknown chat provider %q", provider)
	}
}

// system returns the conversation's instruction, falling back to the
// configured default.
func system(conv Conversation, fallback string) string {
	if s := strings.TrimSpace(conv.System); s != "" {
		return s
	}
	return fallback
}
