package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/promptreel/server/internal/shared/config"
)

// contentGenerator is the subset of *genai.Models used here.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiInvoker invokes Gemini text models through the genai SDK.
type GeminiInvoker struct {
	models      contentGenerator
	model       string
	timeout     time.Duration
	temperature *float32
	recorder    Recorder
}

// NewGeminiInvoker creates a Gemini API client for cfg.
func NewGeminiInvoker(ctx context.Context, cfg *config.LLMConfig, recorder Recorder) (*GeminiInvoker, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("llm api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	inv := newGeminiInvoker(client.Models, cfg.Model, cfg.Timeout, recorder)
	if cfg.Temperature > 0 {
		temperature := cfg.Temperature
		inv.temperature = &temperature
	}
	return inv, nil
}

func newGeminiInvoker(models contentGenerator, model string, timeout time.Duration, recorder Recorder) *GeminiInvoker {
	return &GeminiInvoker{
		models:   models,
		model:    model,
		timeout:  timeout,
		recorder: recorder,
	}
}

// Invoke implements Invoker. System messages become the system instruction and
// assistant messages are sent with the model role.
func (g *GeminiInvoker) Invoke(ctx context.Context, req *Request) (*Response, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	contents, genCfg := g.build(req)
	if len(contents) == 0 {
		return nil, errors.New("request has no user or assistant messages")
	}

	start := time.Now()
	resp, err := g.models.GenerateContent(ctx, g.model, contents, genCfg)
	if err != nil {
		g.record("error", start)
		return nil, fmt.Errorf("generate content: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		g.record("empty", start)
		return nil, ErrEmptyResponse
	}
	g.record("success", start)

	out := &Response{Content: text, Model: g.model}
	if usage := resp.UsageMetadata; usage != nil {
		out.InputTokens = int(usage.PromptTokenCount)
		out.OutputTokens = int(usage.CandidatesTokenCount)
		if g.recorder != nil {
			g.recorder.RecordLLMTokens(g.model, out.InputTokens, out.OutputTokens)
		}
	}
	return out, nil
}

func (g *GeminiInvoker) build(req *Request) ([]*genai.Content, *genai.GenerateContentConfig) {
	genCfg := &genai.GenerateContentConfig{Temperature: g.temperature}
	if req.Temperature != nil {
		genCfg.Temperature = req.Temperature
	}
	if req.ResponseFormat == FormatJSON {
		genCfg.ResponseMIMEType = "application/json"
	}

	var (
		system   []string
		contents []*genai.Content
	)
	for _, m := range req.Messages {
		switch m.Role {
		case RoleSystem:
			system = append(system, m.Content)
		case RoleAssistant:
			contents = append(contents, &genai.Content{Role: "model", Parts: []*genai.Part{{Text: m.Content}}})
		default:
			contents = append(contents, &genai.Content{Role: "user", Parts: []*genai.Part{{Text: m.Content}}})
		}
	}
	if len(system) > 0 {
		genCfg.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: strings.Join(system, "\n\n")}},
		}
	}
	return contents, genCfg
}

func (g *GeminiInvoker) record(status string, start time.Time) {
	if g.recorder != nil {
		g.recorder.RecordLLMRequest(g.model, status, time.Since(start))
	}
}

// Compile-time check
var _ Invoker = (*GeminiInvoker)(nil)
