package liveedit

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"google.golang.org/genai"
)

// Source produces the raw text of one response as a sequence of fragments.
// Stream calls emit once per fragment, in order, and stops early when emit
// returns an error or ctx is done.
type Source interface {
	Stream(ctx context.Context, emit func(fragment string) error) error
}

// ReplaySource replays a recorded response in fixed-size chunks, so a saved
// answer renders the way it would while streaming.
type ReplaySource struct {
	text      string
	chunkSize int
	delay     time.Duration
}

// NewReplaySource splits text into chunks of chunkSize runes, pausing delay
// between them.
func NewReplaySource(text string, chunkSize int, delay time.Duration) *ReplaySource {
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	return &ReplaySource{text: text, chunkSize: chunkSize, delay: delay}
}

// ReadReplayInput returns the response to replay: the named file, a pipe on
// stdin, or else the clipboard.
func ReadReplayInput(path string) (string, error) {
	if path != "" && path != "-" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read input: %w", err)
		}
		return string(data), nil
	}

	stat, _ := os.Stdin.Stat()
	if path == "-" || (stat != nil && stat.Mode()&os.ModeCharDevice == 0) {
		c, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", err
		}
		return string(c), nil
	}

	c, err := clipboard.ReadAll()
	if err != nil {
		return "", fmt.Errorf("failed to read clipboard: %w", err)
	}
	return strings.TrimSpace(c), nil
}

func (r *ReplaySource) Stream(ctx context.Context, emit func(string) error) error {
	for _, chunk := range chunkRunes(r.text, r.chunkSize) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := emit(chunk); err != nil {
			return err
		}
		if r.delay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(r.delay):
			}
		}
	}
	return nil
}

func chunkRunes(s string, size int) []string {
	var chunks []string
	runes := []rune(s)
	for start := 0; start < len(runes); start += size {
		end := min(start+size, len(runes))
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}

const editInstruction = `Answer with a JSON object. Put a short description of the change in "explanation". For every file you change, add an item to "edits" with its "path" relative to the project root and its complete new "content". Never abbreviate content.`

// editSchema constrains the model output to the ResponseArguments shape.
var editSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"explanation": {Type: genai.TypeString},
		"edits": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"path":    {Type: genai.TypeString},
					"content": {Type: genai.TypeString},
				},
				Required:         []string{"path", "content"},
				PropertyOrdering: []string{"path", "content"},
			},
		},
	},
	Required:         []string{"edits"},
	PropertyOrdering: []string{"explanation", "edits"},
}

// GeminiSource streams a live answer to prompt from the Gemini API.
type GeminiSource struct {
	client *genai.Client
	model  string
	prompt string
}

func NewGeminiSource(ctx context.Context, apiKey, model, prompt string) (*GeminiSource, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: GEMINI_API_KEY is not set", ErrInvalidConfig)
	}
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	if model == "" {
		model = defaultModel
	}
	return &GeminiSource{client: cli, model: model, prompt: prompt}, nil
}

func (g *GeminiSource) Stream(ctx context.Context, emit func(string) error) error {
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(editInstruction, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		ResponseSchema:    editSchema,
	}

	log.Info("gemini request: model=%s prompt=%q", g.model, truncate(g.prompt, 80))
	for resp, err := range g.client.Models.GenerateContentStream(ctx, g.model, genai.Text(g.prompt), cfg) {
		if err != nil {
			return fmt.Errorf("gemini stream: %w", err)
		}
		if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
			continue
		}
		for _, part := range resp.Candidates[0].Content.Parts {
			if part.Text == "" || part.Thought {
				continue
			}
			if err := emit(part.Text); err != nil {
				return err
			}
		}
	}
	return nil
}

