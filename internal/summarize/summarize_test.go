package summarize

import (
	"context"
	"errors"
	"testing"

	"github.com/raphaelgruber/aprx-explorer/internal/history"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	system string
	user   string
}

// fakeGenerator answers from a fixed list and records every prompt.
type fakeGenerator struct {
	replies []string
	failAt  int // 1-based call number to fail on, 0 never
	err     error
	calls   []call
}

func (f *fakeGenerator) GenerateWithSystem(_ context.Context, system, user string) (string, error) {
	f.calls = append(f.calls, call{system, user})
	if f.failAt == len(f.calls) {
		return "", f.err
	}
	return f.replies[len(f.calls)-1], nil
}

func record(t *testing.T, name string) history.Record {
	t.Helper()
	rec, err := history.NewRecord(map[string]any{
		"name":          name,
		"propertiesXML": `<process ticks="0" ticks2="10">` + name + `_roads</process>`,
	})
	require.NoError(t, err)
	return rec
}

func TestLLM_Summarize(t *testing.T) {
	gen := &fakeGenerator{replies: []string{"  Buffered roads.\n", "Clipped roads."}}
	s, err := NewLLM(gen, "", "")
	require.NoError(t, err)

	var progress [][2]int
	s.OnProgress = func(done, total int) { progress = append(progress, [2]int{done, total}) }

	in := []history.Record{record(t, "Buffer"), record(t, "Clip")}
	out, err := s.Summarize(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.Equal(t, "Buffered roads.", out[0].Text)
	assert.Equal(t, "Clipped roads.", out[1].Text)
	assert.Equal(t, "Buffer", out[0].Name, "responses stay in input order")
	assert.Empty(t, in[0].Text, "input records are not modified")

	require.Len(t, gen.calls, 2)
	assert.Equal(t, DefaultSystemMessage, gen.calls[0].system)
	assert.Contains(t, gen.calls[0].user, "Buffer_roads")
	assert.Contains(t, gen.calls[0].user, "```xml")
	assert.Contains(t, gen.calls[1].user, "Clip_roads")

	assert.Equal(t, [][2]int{{1, 2}, {2, 2}}, progress)
}

func TestLLM_SummarizeAbortsOnFirstFailure(t *testing.T) {
	boom := errors.New("model overloaded")
	gen := &fakeGenerator{replies: []string{"ok", "", "never"}, failAt: 2, err: boom}
	s, err := NewLLM(gen, "", "")
	require.NoError(t, err)

	out, err := s.Summarize(context.Background(), []history.Record{record(t, "A"), record(t, "B"), record(t, "C")})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "record 1 (B)")
	assert.Nil(t, out)
	assert.Len(t, gen.calls, 2, "no calls after the failure")
}

func TestLLM_SummarizeCancelled(t *testing.T) {
	gen := &fakeGenerator{replies: []string{"x"}}
	s, err := NewLLM(gen, "", "")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = s.Summarize(ctx, []history.Record{record(t, "A")})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, gen.calls)
}

func TestLLM_CustomMessages(t *testing.T) {
	gen := &fakeGenerator{replies: []string{"short"}}
	s, err := NewLLM(gen, "  Be terse.  ", "Summarize: {{.propertiesXML}}")
	require.NoError(t, err)

	_, err = s.Summarize(context.Background(), []history.Record{record(t, "Dissolve")})
	require.NoError(t, err)
	assert.Equal(t, "Be terse.", gen.calls[0].system)
	assert.Contains(t, gen.calls[0].user, "Summarize: ")
	assert.Contains(t, gen.calls[0].user, "Dissolve_roads")
}

func TestNewLLM_InvalidTemplate(t *testing.T) {
	tests := []struct {
		name  string
		human string
	}{
		{"no variable", "Summarize this."},
		{"wrong variable", "{{.xml}}"},
		{"extra variable", "{{.propertiesXML}} {{.name}}"},
		{"unparsable", "{{.propertiesXML"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLLM(&fakeGenerator{}, "", tt.human)
			assert.ErrorIs(t, err, ErrInvalidTemplate)
		})
	}
}

func TestNoop(t *testing.T) {
	in := []history.Record{record(t, "A")}
	out, err := Noop{}.Summarize(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestSelect(t *testing.T) {
	built := &LLM{}

	t.Run("disabled", func(t *testing.T) {
		called := false
		s := Select(false, func() (Summarizer, error) { called = true; return built, nil })
		assert.IsType(t, Noop{}, s)
		assert.False(t, called, "model is not built when summarization is off")
	})

	t.Run("enabled", func(t *testing.T) {
		s := Select(true, func() (Summarizer, error) { return built, nil })
		assert.Same(t, built, s)
	})

	t.Run("build failure", func(t *testing.T) {
		cause := errors.New("OpenAI API key required")
		s := Select(true, func() (Summarizer, error) { return nil, cause })
		require.IsType(t, Unavailable{}, s)

		_, err := s.Summarize(context.Background(), []history.Record{record(t, "A")})
		assert.ErrorIs(t, err, ErrUnavailable)
		assert.ErrorIs(t, err, cause)
		assert.Contains(t, err.Error(), "drop --summarize")
	})
}
