package schemas

import (
	"fmt"
	"strings"
	"time"
)

// -- Form Schemas --

// QuestionType is the closed set of field classifications the analyzer can produce.
type QuestionType string

const (
	SingleChoice QuestionType = "single_choice"
	MultiChoice  QuestionType = "multi_choice"
	Dropdown     QuestionType = "dropdown"
	Scale        QuestionType = "scale"
	ShortText    QuestionType = "short_text"
	Paragraph    QuestionType = "paragraph"
	Email        QuestionType = "email"
	URL          QuestionType = "url"
	Number       QuestionType = "number"
	Date         QuestionType = "date"
	Time         QuestionType = "time"
	FileUpload   QuestionType = "file_upload"
	// Grid is recognised so it can be refused; it has no fill strategy.
	Grid QuestionType = "grid"
)

var allQuestionTypes = map[QuestionType]struct{}{
	SingleChoice: {}, MultiChoice: {}, Dropdown: {}, Scale: {}, ShortText: {},
	Paragraph: {}, Email: {}, URL: {}, Number: {}, Date: {}, Time: {},
	FileUpload: {}, Grid: {},
}

// IsValid reports whether t is a member of the enumeration.
func (t QuestionType) IsValid() bool {
	_, ok := allQuestionTypes[t]
	return ok
}

// IsChoice reports whether the type is answered by picking from options.
func (t QuestionType) IsChoice() bool {
	switch t {
	case SingleChoice, MultiChoice, Dropdown, Scale:
		return true
	}
	return false
}

// IsFreeText reports whether the type is answered by typing.
func (t QuestionType) IsFreeText() bool {
	switch t {
	case ShortText, Paragraph, Email, URL, Number:
		return true
	}
	return false
}

// ParseQuestionType converts a string to a QuestionType, rejecting unknown values.
func ParseQuestionType(s string) (QuestionType, error) {
	t := QuestionType(strings.ToLower(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", fmt.Errorf("unknown question type %q", s)
	}
	return t, nil
}

// ElementRef is an opaque handle to a live element. It is only meaningful
// against the snapshot generation that produced it.
type ElementRef struct {
	Generation uint64 `json:"generation"`
	XPath      string `json:"xpath"`
}

// IsZero reports whether the ref points at nothing.
func (r ElementRef) IsZero() bool { return r.XPath == "" }

// Question is one detected form field.
type Question struct {
	Index     int          `json:"index"`
	Text      string       `json:"text"`
	Type      QuestionType `json:"type"`
	Required  bool         `json:"required"`
	Options   []string     `json:"options,omitempty"`
	Answered  bool         `json:"answered"`
	Container ElementRef   `json:"container"`
	Target    ElementRef   `json:"target"`
}

// FormSnapshot is the immutable result of one analysis pass.
type FormSnapshot struct {
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	URL         string     `json:"url,omitempty"`
	Generation  uint64     `json:"generation"`
	Degraded    bool       `json:"degraded"`
	Questions   []Question `json:"questions"`
	CapturedAt  time.Time  `json:"capturedAt"`
}

// Unanswered returns the questions that have no value yet.
func (s *FormSnapshot) Unanswered() []Question {
	if s == nil {
		return nil
	}
	out := make([]Question, 0, len(s.Questions))
	for _, q := range s.Questions {
		if !q.Answered {
			out = append(out, q)
		}
	}
	return out
}

// AnswerSource records where an answer came from.
type AnswerSource string

const (
	SourceRemote  AnswerSource = "remote"
	SourceOffline AnswerSource = "offline"
)

// Answer is a generated answer, either free text or a list of chosen options.
type Answer struct {
	Text    string       `json:"text"`
	Choices []string     `json:"choices,omitempty"`
	Source  AnswerSource `json:"source"`
}

// Values returns the answer as a list, using Choices when present.
func (a Answer) Values() []string {
	if len(a.Choices) > 0 {
		return a.Choices
	}
	if a.Text == "" {
		return nil
	}
	return []string{a.Text}
}

// IsEmpty reports whether the answer carries nothing to fill.
func (a Answer) IsEmpty() bool {
	return strings.TrimSpace(a.Text) == "" && len(a.Choices) == 0
}

// FillResult reports the outcome of filling one question.
type FillResult struct {
	Index        int    `json:"index"`
	Success      bool   `json:"success"`
	AttemptsUsed int    `json:"attemptsUsed"`
	Strategy     string `json:"strategy,omitempty"`
	Err          string `json:"error,omitempty"`
}

// RunSummary aggregates one fill run.
type RunSummary struct {
	RunID        string        `json:"runId"`
	SuccessCount int           `json:"successCount"`
	ErrorCount   int           `json:"errorCount"`
	Skipped      int           `json:"skipped"`
	Results      []FillResult  `json:"results"`
	Duration     time.Duration `json:"duration"`
}

// ProgressPhase labels a progress event.
type ProgressPhase string

const (
	PhaseStarted    ProgressPhase = "started"
	PhaseGenerating ProgressPhase = "generating"
	PhaseFilling    ProgressPhase = "filling"
	PhaseFilled     ProgressPhase = "filled"
	PhaseFailed     ProgressPhase = "failed"
	PhaseCompleted  ProgressPhase = "completed"
	// PhaseAnalyzed is published when a page change triggered re-analysis.
	PhaseAnalyzed ProgressPhase = "analyzed"
)

// ProgressEvent is published by the orchestrator during a run.
type ProgressEvent struct {
	RunID        string        `json:"runId"`
	Phase        ProgressPhase `json:"phase"`
	Current      int           `json:"current"`
	Total        int           `json:"total"`
	QuestionText string        `json:"questionText,omitempty"`
	Message      string        `json:"message,omitempty"`
}

// -- Preferences --

// Style controls the tone of generated answers.
type Style string

const (
	StyleNatural Style = "natural"
	StyleFormal  Style = "formal"
	StyleBrief   Style = "brief"
)

// Locale selects the prompt language.
type Locale string

const (
	LocaleEnglish    Locale = "en"
	LocaleIndonesian Locale = "id"
)

// Speed controls typing cadence.
type Speed string

const (
	SpeedFast   Speed = "fast"
	SpeedNormal Speed = "normal"
	SpeedSlow   Speed = "slow"
)

// Preferences are the user-selectable knobs that shape generation and filling.
type Preferences struct {
	Style  Style  `json:"style" mapstructure:"style" yaml:"style"`
	Locale Locale `json:"locale" mapstructure:"locale" yaml:"locale"`
	Speed  Speed  `json:"speed" mapstructure:"speed" yaml:"speed"`
}

// DefaultPreferences mirrors the extension defaults.
func DefaultPreferences() Preferences {
	return Preferences{Style: StyleNatural, Locale: LocaleIndonesian, Speed: SpeedNormal}
}

// Normalize replaces unknown values with defaults.
func (p Preferences) Normalize() Preferences {
	def := DefaultPreferences()
	switch p.Style {
	case StyleNatural, StyleFormal, StyleBrief:
	default:
		p.Style = def.Style
	}
	switch p.Locale {
	case LocaleEnglish, LocaleIndonesian:
	default:
		p.Locale = def.Locale
	}
	switch p.Speed {
	case SpeedFast, SpeedNormal, SpeedSlow:
	default:
		p.Speed = def.Speed
	}
	return p
}

// TypingDelay returns the mean per-character delay for the speed preset.
func (s Speed) TypingDelay() time.Duration {
	switch s {
	case SpeedFast:
		return 20 * time.Millisecond
	case SpeedSlow:
		return 100 * time.Millisecond
	default:
		return 50 * time.Millisecond
	}
}
