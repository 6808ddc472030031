package chat

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Part is one text segment of a content entry.
type Part struct {
	Text string `json:"text"`
}

type wireContent struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

type wireRequest struct {
	Contents json.RawMessage `json:"contents"`
	Config   struct {
		SystemInstruction json.RawMessage `json:"systemInstruction"`
	} `json:"config"`

	Prompt            string `json:"prompt"`
	SystemInstruction string `json:"systemInstruction"`
}

// ParseRequest decodes a chat request body. It accepts the Gemini form
//
//	{"contents":[{"role":"user","parts":[{"text":"..."}]}],"config":{"systemInstruction":"..."}}
//
// where contents may also be a plain string and systemInstruction a content
// object, and the shorthand form {"prompt":"...","systemInstruction":"..."}.
func ParseRequest(body []byte) (Conversation, error) {
	var req wireRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return Conversation{}, fmt.Errorf("invalid chat request: %w", err)
	}

	var conv Conversation

	sys, err := textOf(req.Config.SystemInstruction)
	if err != nil {
		return Conversation{}, fmt.Errorf("invalid systemInstruction: %w", err)
	}
	conv.System = sys
	if conv.System == "" {
		conv.System = req.SystemInstruction
	}

	msgs, err := parseContents(req.Contents)
	if err != nil {
		return Conversation{}, err
	}
	if strings.TrimSpace(req.Prompt) != "" {
		msgs = append(msgs, Message{Role: RoleUser, Text: req.Prompt})
	}
	if len(msgs) == 0 {
		return Conversation{}, ErrEmptyConversation
	}
	conv.Messages = msgs
	return conv, nil
}

func parseContents(raw json.RawMessage) ([]Message, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("invalid contents: %w", err)
		}
		if strings.TrimSpace(s) == "" {
			return nil, nil
		}
		return []Message{{Role: RoleUser, Text: s}}, nil

	case '{':
		raw = append(append([]byte{'['}, raw...), ']')
	}

	var contents []wireContent
	if err := json.Unmarshal(raw, &contents); err != nil {
		return nil, fmt.Errorf("invalid contents: %w", err)
	}

	msgs := make([]Message, 0, len(contents))
	for _, c := range contents {
		text := joinParts(c.Parts)
		if strings.TrimSpace(text) == "" {
			continue
		}
		role := RoleUser
		if c.Role == string(RoleModel) || c.Role == "assistant" {
			role = RoleModel
		}
		msgs = append(msgs, Message{Role: role, Text: text})
	}
	return msgs, nil
}

// textOf reads a string or a content object.
func textOf(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}
	if raw[0] == '"' {
		var s string
		err := json.Unmarshal(raw, &s)
		return s, err
	}
	var c wireContent
	if err := json.Unmarshal(raw, &c); err != nil {
		return "", err
	}
	return joinParts(c.Parts), nil
}

func joinParts(parts []Part) string {
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(p.Text)
	}
	return b.String()
}
