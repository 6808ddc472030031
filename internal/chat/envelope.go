package chat

// Envelope is the response body returned to the browser. It mirrors the
// Gemini generateContent response, with response.text added as a shortcut.
type Envelope struct {
	Response      EnvelopeText  `json:"response"`
	Candidates    []Candidate   `json:"candidates"`
	UsageMetadata UsageMetadata `json:"usageMetadata"`
}

// EnvelopeText carries the reply text outside the candidates list.
type EnvelopeText struct {
	Text string `json:"text"`
}

// Candidate is one generated answer. The proxy always returns exactly one.
type Candidate struct {
	Content      CandidateContent `json:"content"`
	FinishReason string           `json:"finishReason,omitempty"`
}

// CandidateContent is the model turn of a candidate.
type CandidateContent struct {
	Role  string `json:"role"`
	Parts []Part `json:"parts"`
}

// UsageMetadata reports token counts in Gemini's field names.
type UsageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

// NewEnvelope shapes a reply for the browser.
func NewEnvelope(r Reply) Envelope {
	total := r.Usage.TotalTokens
	if total == 0 {
		total = r.Usage.PromptTokens + r.Usage.CandidateTokens
	}
	return Envelope{
		Response: EnvelopeText{Text: r.Text},
		Candidates: []Candidate{{
			Content: CandidateContent{
				Role:  string(RoleModel),
				Parts: []Part{{Text: r.Text}},
			},
			FinishReason: r.FinishReason,
		}},
		UsageMetadata: UsageMetadata{
			PromptTokenCount:     r.Usage.PromptTokens,
			CandidatesTokenCount: r.Usage.CandidateTokens,
			TotalTokenCount:      total,
		},
	}
}
