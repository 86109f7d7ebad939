// Package summarize annotates history records with natural-language summaries.
package summarize

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/prompts"

	"github.com/raphaelgruber/aprx-explorer/internal/history"
)

var (
	// ErrUnavailable indicates summarization was requested but no model could be set up.
	ErrUnavailable = errors.New("summarization unavailable")

	// ErrInvalidTemplate indicates a human prompt that does not use exactly
	// the propertiesXML variable.
	ErrInvalidTemplate = errors.New("invalid prompt template")
)

// InputVariable is the only variable available to the human prompt.
const InputVariable = "propertiesXML"

// DefaultSystemMessage instructs the model how to summarize.
const DefaultSystemMessage = `You are a text generation AI that interprets geoprocessing history objects from ArcGIS Pro.
Provide a concise natural language summary of the geoprocessing history object with no additional commentary.`

// DefaultHumanMessage wraps the record's XML in a fenced block.
const DefaultHumanMessage = "```xml\n{{.propertiesXML}}\n```"

// Summarizer attaches summaries to records.
// Implementations return new records and never modify the input slice.
type Summarizer interface {
	Summarize(ctx context.Context, records []history.Record) ([]history.Record, error)
}

// Generator produces text from a system and a user prompt.
type Generator interface {
	GenerateWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Select returns Noop when summarization is disabled, otherwise the result of
// build, or Unavailable if build fails.
func Select(enabled bool, build func() (Summarizer, error)) Summarizer {
	if !enabled {
		return Noop{}
	}
	s, err := build()
	if err != nil {
		return Unavailable{Err: err}
	}
	return s
}

// Noop returns records unchanged.
type Noop struct{}

// Summarize implements Summarizer.
func (Noop) Summarize(_ context.Context, records []history.Record) ([]history.Record, error) {
	return records, nil
}

// Unavailable fails every call with the reason the model could not be built.
type Unavailable struct {
	Err error
}

// Summarize implements Summarizer.
func (u Unavailable) Summarize(context.Context, []history.Record) ([]history.Record, error) {
	return nil, fmt.Errorf("%w: %w; set an API key (--openai_api_key, OPENAI_API_KEY or ANTHROPIC_API_KEY), pick another --provider, or drop --summarize",
		ErrUnavailable, u.Err)
}

// LLM summarizes each record's propertiesXML with a language model.
type LLM struct {
	gen    Generator
	system string
	human  prompts.PromptTemplate

	// OnProgress, if set, is called after each record with the number done.
	OnProgress func(done, total int)
}

// NewLLM builds an LLM summarizer. Empty messages fall back to the defaults.
// The human message is a Go template that must reference {{.propertiesXML}}
// and nothing else.
func NewLLM(gen Generator, systemMessage, humanMessage string) (*LLM, error) {
	if systemMessage == "" {
		systemMessage = DefaultSystemMessage
	}
	if humanMessage == "" {
		humanMessage = DefaultHumanMessage
	}

	human := prompts.NewPromptTemplate(strings.TrimSpace(humanMessage), []string{InputVariable})
	if err := validateTemplate(human); err != nil {
		return nil, err
	}

	return &LLM{
		gen:    gen,
		system: strings.TrimSpace(systemMessage),
		human:  human,
	}, nil
}

// validateTemplate renders the template with a marker value and checks that
// the marker appears and no other variable was referenced.
func validateTemplate(tmpl prompts.PromptTemplate) error {
	const marker = "\x00propertiesXML\x00"

	out, err := tmpl.Format(map[string]any{InputVariable: marker})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidTemplate, err)
	}
	if !strings.Contains(out, marker) {
		return fmt.Errorf("%w: template must reference {{.%s}}", ErrInvalidTemplate, InputVariable)
	}
	if strings.Contains(out, "<no value>") {
		return fmt.Errorf("%w: only {{.%s}} may be referenced", ErrInvalidTemplate, InputVariable)
	}
	return nil
}

// Summarize asks the model about each record in order, one call per record
// rather than a single concurrent batch. The first failure aborts the batch
// and no records are returned.
func (s *LLM) Summarize(ctx context.Context, records []history.Record) ([]history.Record, error) {
	out := make([]history.Record, 0, len(records))

	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		prompt, err := s.human.Format(map[string]any{InputVariable: rec.PropertiesXML})
		if err != nil {
			return nil, fmt.Errorf("format prompt for record %d: %w", i, err)
		}

		text, err := s.gen.GenerateWithSystem(ctx, s.system, prompt)
		if err != nil {
			return nil, fmt.Errorf("summarize record %d (%s): %w", i, rec.Name, err)
		}

		out = append(out, rec.WithSummary(strings.TrimSpace(text)))
		if s.OnProgress != nil {
			s.OnProgress(i+1, len(records))
		}
	}

	return out, nil
}
