package answer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xkilldash9x/formpilot-cli/api/schemas"
	"github.com/xkilldash9x/formpilot-cli/internal/config"
)

func TestBuildPrompt(t *testing.T) {
	en := schemas.Preferences{Locale: schemas.LocaleEnglish, Style: schemas.StyleNatural}

	t.Run("multi choice lists options", func(t *testing.T) {
		p := BuildPrompt(schemas.Question{Text: "Which features?", Type: schemas.MultiChoice, Options: []string{"A", "B"}}, en)
		assert.Contains(t, p, `Question: "Which features?"`)
		assert.Contains(t, p, "Available options: A, B")
		assert.Contains(t, p, "Separate with comma")
	})

	t.Run("scale states its range", func(t *testing.T) {
		p := BuildPrompt(schemas.Question{Text: "Rate us", Type: schemas.Scale, Options: []string{"1", "2", "3", "4", "5"}}, en)
		assert.Contains(t, p, "from 1 to 5")
	})

	t.Run("brief paragraph", func(t *testing.T) {
		p := BuildPrompt(schemas.Question{Text: "Tell us more", Type: schemas.Paragraph}, schemas.Preferences{Locale: schemas.LocaleEnglish, Style: schemas.StyleBrief})
		assert.Contains(t, p, "1-2 concise")
		assert.Contains(t, p, "as briefly as possible")
	})

	t.Run("indonesian formal", func(t *testing.T) {
		p := BuildPrompt(schemas.Question{Text: "Alamat email", Type: schemas.Email}, schemas.Preferences{Locale: schemas.LocaleIndonesian, Style: schemas.StyleFormal})
		assert.Contains(t, p, "Pertanyaan:")
		assert.Contains(t, p, "format email yang valid")
		assert.Contains(t, p, "bahasa formal")
	})

	t.Run("unknown locale falls back to default", func(t *testing.T) {
		p := BuildPrompt(schemas.Question{Text: "x", Type: schemas.ShortText}, schemas.Preferences{Locale: "fr"})
		assert.Contains(t, p, "Berikan jawaban singkat")
	})
}

func TestTemperature(t *testing.T) {
	cfg := config.NewDefaultConfig().LLM()
	assert.InDelta(t, 0.2, Temperature(cfg, schemas.Dropdown), 1e-6)
	assert.InDelta(t, 0.2, Temperature(cfg, schemas.Date), 1e-6)
	assert.InDelta(t, 0.7, Temperature(cfg, schemas.Paragraph), 1e-6)
	assert.InDelta(t, 0.7, Temperature(cfg, schemas.ShortText), 1e-6)
}

func TestClean(t *testing.T) {
	assert.Equal(t, "Neutral", Clean("  **Neutral** "))
	assert.Equal(t, "Neutral", Clean(`"Neutral"`))
	assert.Equal(t, "go run", Clean("`go run`"))
	assert.Equal(t, "very good", Clean("*very* good"))
}

func TestProcess(t *testing.T) {
	opts := []string{"Very satisfied", "Satisfied", "Neutral"}
	tests := []struct {
		name string
		q    schemas.Question
		raw  string
		want schemas.Answer
	}{
		{"exact option", schemas.Question{Type: schemas.SingleChoice, Options: opts}, "satisfied.", schemas.Answer{Text: "Satisfied"}},
		{"contained option", schemas.Question{Type: schemas.Dropdown, Options: opts}, "I would say Neutral", schemas.Answer{Text: "Neutral"}},
		{"unmatched keeps text", schemas.Question{Type: schemas.SingleChoice, Options: opts}, "No idea", schemas.Answer{Text: "No idea"}},
		{"multi named", schemas.Question{Type: schemas.MultiChoice, Options: []string{"Dashboard", "Reports", "Mobile app"}}, "Dashboard and Mobile app", schemas.Answer{Text: "Dashboard, Mobile app", Choices: []string{"Dashboard", "Mobile app"}}},
		{"multi split", schemas.Question{Type: schemas.MultiChoice, Options: []string{"Go programming", "Data engineering"}}, "go, data", schemas.Answer{Text: "Go programming, Data engineering", Choices: []string{"Go programming", "Data engineering"}}},
		{"email", schemas.Question{Type: schemas.Email}, "Sure: ani.w@mail.co.id is mine", schemas.Answer{Text: "ani.w@mail.co.id"}},
		{"url", schemas.Question{Type: schemas.URL}, "Visit https://ani.dev/portfolio.", schemas.Answer{Text: "https://ani.dev/portfolio"}},
		{"number", schemas.Question{Type: schemas.Number}, "About 7 years", schemas.Answer{Text: "7"}},
		{"paragraph", schemas.Question{Type: schemas.Paragraph}, "**Great** service overall.", schemas.Answer{Text: "Great service overall."}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.want.Source = schemas.SourceRemote
			assert.Equal(t, tt.want, Process(tt.q, tt.raw))
		})
	}
}

func TestOffline(t *testing.T) {
	en := schemas.Preferences{Locale: schemas.LocaleEnglish}
	tests := []struct {
		name string
		q    schemas.Question
		want string
	}{
		{"email type", schemas.Question{Text: "Contact", Type: schemas.Email}, "demo@example.com"},
		{"email keyword", schemas.Question{Text: "Your e-mail", Type: schemas.ShortText}, "demo@example.com"},
		{"company email", schemas.Question{Text: "What is your company email?", Type: schemas.ShortText}, "demo@example.com"},
		{"company email id", schemas.Question{Text: "Alamat email perusahaan", Type: schemas.ShortText}, "demo@example.com"},
		{"job contact email", schemas.Question{Text: "Job application contact email", Type: schemas.ShortText}, "demo@example.com"},
		{"plural emails", schemas.Question{Text: "Your emails", Type: schemas.ShortText}, "demo@example.com"},
		{"name", schemas.Question{Text: "Nama lengkap", Type: schemas.ShortText}, "Demo User"},
		{"company before name", schemas.Question{Text: "Company name", Type: schemas.ShortText}, "Demo Company"},
		{"phone", schemas.Question{Text: "Phone number", Type: schemas.ShortText}, "081234567890"},
		{"age number", schemas.Question{Text: "Berapa umur anda?", Type: schemas.Number}, "25"},
		{"number default", schemas.Question{Text: "How many pets?", Type: schemas.Number}, "25"},
		{"date type uses clock", schemas.Question{Text: "Start", Type: schemas.Date}, "2025-03-14"},
		{"time type uses clock", schemas.Question{Text: "Start", Type: schemas.Time}, "09:26"},
		{"no partial word match", schemas.Question{Text: "Sometimes?", Type: schemas.ShortText}, "This is a sample answer."},
		{"first option", schemas.Question{Text: "x", Type: schemas.SingleChoice, Options: []string{"A", "B"}}, "A"},
		{"scale middle", schemas.Question{Text: "x", Type: schemas.Scale, Options: []string{"1", "2", "3", "4", "5"}}, "3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ans := Offline(tt.q, en, fixedNow)
			assert.Equal(t, tt.want, ans.Text)
			assert.Equal(t, schemas.SourceOffline, ans.Source)
		})
	}

	multi := Offline(schemas.Question{Type: schemas.MultiChoice, Options: []string{"X", "Y"}}, en, fixedNow)
	assert.Equal(t, []string{"X"}, multi.Choices)

	id := Offline(schemas.Question{Text: "Apa pendapat anda?", Type: schemas.Paragraph}, schemas.Preferences{Locale: schemas.LocaleIndonesian}, fixedNow)
	assert.Equal(t, "Ini adalah jawaban contoh.", id.Text)
}

func TestKeyRing(t *testing.T) {
	r := NewKeyRing([]string{" k1 ", "k2", "k1", ""})
	assert.Equal(t, 2, r.Len())

	k, ok := r.Active()
	assert.True(t, ok)
	assert.Equal(t, "k1", k)

	r.MarkExhausted("k1")
	k, _ = r.Active()
	assert.Equal(t, "k2", k)

	r.MarkExhausted("k2")
	_, ok = r.Active()
	assert.False(t, ok)
	assert.Equal(t, 0, r.Available())

	r.Reset()
	assert.Equal(t, 2, r.Available())

	r.SetKeys(nil)
	_, ok = r.Active()
	assert.False(t, ok)
}
