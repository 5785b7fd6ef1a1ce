// Package extract wraps the vision-language extraction backend: it maps an
// uploaded statement to one model call carrying the file bytes plus a fixed
// instructional prompt, and turns the free-form response text into
// validated transactions.
package extract

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/genai"

	"github.com/magalhaesnegocios/renda-pro/internal/statement"
)

// ContentKind distinguishes how the backend should treat the attached
// bytes.
type ContentKind string

const (
	KindDocument ContentKind = "document"
	KindImage    ContentKind = "image"
)

// Extractor sends one statement to the extraction backend and returns the
// raw response text. Implementations make exactly one call per invocation
// and never retry: each call costs money and draws on a shared quota.
type Extractor interface {
	Extract(ctx context.Context, data []byte, declaredMIME string) (string, error)
}

// MediaType resolves a declared MIME type into the media type and content
// kind sent to the backend. This check runs again here even though batch
// validation already restricted accepted types, because the declared MIME
// of an upload can diverge from its extension.
func MediaType(declaredMIME string) (string, ContentKind, error) {
	switch declaredMIME {
	case "application/pdf":
		return "application/pdf", KindDocument, nil
	case "image/jpeg", "image/jpg":
		return "image/jpeg", KindImage, nil
	case "image/png":
		return "image/png", KindImage, nil
	default:
		return "", "", &statement.ValidationError{
			Kind:   statement.ValidationUnknownMIMEType,
			Detail: fmt.Sprintf("declared MIME type %q", declaredMIME),
		}
	}
}

// GeminiExtractor is the concrete Extractor backed by the Gemini API.
type GeminiExtractor struct {
	client *genai.Client
	model  string
}

// NewGeminiExtractor creates the Gemini-backed extractor. The API key is
// the opaque credential from config; model selects the vision model.
func NewGeminiExtractor(ctx context.Context, apiKey, model string) (*GeminiExtractor, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("NewGeminiExtractor: create genai client: %w", err)
	}
	return &GeminiExtractor{client: client, model: model}, nil
}

// Extract sends the statement bytes and the fixed prompt in a single
// request and returns the raw model text.
func (e *GeminiExtractor) Extract(ctx context.Context, data []byte, declaredMIME string) (string, error) {
	mediaType, _, err := MediaType(declaredMIME)
	if err != nil {
		return "", err
	}

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: extractionPrompt},
				{
					InlineData: &genai.Blob{
						MIMEType: mediaType,
						Data:     data,
					},
				},
			},
		},
	}

	resp, err := e.client.Models.GenerateContent(ctx, e.model, contents, nil)
	if err != nil {
		return "", classifyServiceError(err)
	}

	rawText := resp.Text()
	if rawText == "" {
		return "", &statement.ServiceError{
			Kind: statement.ServiceOther,
			Err:  errors.New("empty response from model"),
		}
	}
	return rawText, nil
}

// classifyServiceError maps a backend failure onto the service error
// taxonomy. API errors carry an HTTP status; anything else is treated as a
// transport problem.
func classifyServiceError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		kind := statement.ServiceOther
		switch {
		case apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden:
			kind = statement.ServiceAuth
		case apiErr.Code == http.StatusTooManyRequests:
			kind = statement.ServiceRateLimit
		case apiErr.Code >= http.StatusInternalServerError:
			kind = statement.ServiceTransport
		}
		return &statement.ServiceError{Kind: kind, Err: err}
	}
	return &statement.ServiceError{Kind: statement.ServiceTransport, Err: err}
}
