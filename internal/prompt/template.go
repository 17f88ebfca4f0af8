package prompt

import (
	"fmt"
	"os"
	"strings"

	"github.com/kmori/sentinel-go/internal/git"
	"github.com/kmori/sentinel-go/internal/verdict"
)

// DefaultSource marks a run that used the built-in template.
const DefaultSource = "default"

// defaultTemplate is the built-in analysis prompt. Placeholders are
// substituted literally; the exact-format instructions are appended by the
// renderer so they are present even with user-supplied templates.
const defaultTemplate = `Analyze this git commit for suspicious or malicious code:

COMMIT HASH: {hash}
AUTHOR: {author}
DATE: {date}
COMMIT MESSAGE:
{message}

DIFF:
{diff}`

// Template is an analysis prompt template plus its provenance.
type Template struct {
	Text   string
	Source string // DefaultSource or the path it was loaded from
}

// Default returns the built-in template.
func Default() Template {
	return Template{Text: defaultTemplate, Source: DefaultSource}
}

// LoadError indicates a custom template could not be used. Recoverable: the
// caller falls back to the default template and reports it.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("prompt template %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Load reads a custom template from path. A missing, unreadable, or empty
// file yields a LoadError; an empty path yields the default template.
func Load(path string) (Template, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Template{}, &LoadError{Path: path, Err: err}
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return Template{}, &LoadError{Path: path, Err: fmt.Errorf("template file is empty")}
	}
	return Template{Text: text, Source: path}, nil
}

// Renderer produces the exact text sent to the model for one commit.
type Renderer struct {
	tpl   Template
	vocab verdict.Vocabulary
}

// NewRenderer creates a renderer for the given template and vocabulary.
func NewRenderer(tpl Template, vocab verdict.Vocabulary) Renderer {
	return Renderer{tpl: tpl, vocab: vocab}
}

// Source reports the template provenance for the run summary.
func (r Renderer) Source() string { return r.tpl.Source }

// Render fills the template with commit fields and wraps it with the system
// instruction and the exact-format block. The format block is always
// appended verbatim so the normalizer's fast path contract reaches the
// model regardless of which template is in use.
func (r Renderer) Render(commit git.CommitRecord, diff string) string {
	filled := strings.NewReplacer(
		"{hash}", commit.Hash,
		"{author}", commit.Author,
		"{date}", commit.Date,
		"{message}", commit.Message,
		"{diff}", diff,
	).Replace(r.tpl.Text)

	return r.systemInstruction() + "\n\n" + filled + "\n\n" + r.formatInstructions()
}

func (r Renderer) systemInstruction() string {
	return fmt.Sprintf(`You are a security expert analyzing git commits for suspicious or malicious code.
RESPONSE FORMAT REQUIREMENTS:
1. Your first line MUST contain EXACTLY ONE of these two words:
   - %q
   - %q
2. Your second line MUST contain your reasoning for the verdict.
3. Do not use any emojis in your response.
4. Do not include any additional text before the verdict.`, r.vocab.Positive, r.vocab.Negative)
}

func (r Renderer) formatInstructions() string {
	return fmt.Sprintf(`IMPORTANT: Your response MUST follow this exact format:
1. First line: ONLY the verdict (%q or %q)
2. Second line: Your reasoning for the verdict
Do not use emojis or include any text before the verdict.`, r.vocab.Positive, r.vocab.Negative)
}
