package answer

import (
	"fmt"
	"strings"

	"github.com/xkilldash9x/formpilot-cli/api/schemas"
	"github.com/xkilldash9x/formpilot-cli/internal/config"
)

type promptText struct {
	intro        string
	question     string
	options      string
	chooseOne    string
	chooseMany   string
	short        string
	paragraph    string
	paragraphLow string
	email        string
	url          string
	number       string
	date         string
	time         string
	scale        string
	formal       string
	brief        string
}

var prompts = map[schemas.Locale]promptText{
	schemas.LocaleEnglish: {
		intro:        "You are an AI assistant helping to fill Google Forms. Answer the following question accurately and contextually.",
		question:     "Question: %q",
		options:      "Available options: %s",
		chooseOne:    "Answer by choosing one of the options above.",
		chooseMany:   "You can choose multiple options. Separate with comma if selecting multiple.",
		short:        "Provide a short and precise answer.",
		paragraph:    "Provide a detailed and comprehensive answer in paragraph form.",
		paragraphLow: "Provide answer in 1-2 concise and informative sentences.",
		email:        "Answer with valid email format (example: name@domain.com).",
		url:          "Answer with valid URL (starting with http:// or https://).",
		number:       "Answer with numbers only.",
		date:         "Answer with appropriate date format (DD/MM/YYYY or requested format).",
		time:         "Answer with time format (HH:MM).",
		scale:        "Answer with a single number from %s to %s.",
		formal:       "Use formal and professional language.",
		brief:        "Answer as briefly as possible while remaining informative.",
	},
	schemas.LocaleIndonesian: {
		intro:        "Anda adalah asisten AI yang membantu mengisi Google Form. Jawab pertanyaan berikut dengan akurat dan sesuai konteks.",
		question:     "Pertanyaan: %q",
		options:      "Pilihan yang tersedia: %s",
		chooseOne:    "Jawab dengan memilih salah satu dari pilihan di atas.",
		chooseMany:   "Anda bisa memilih lebih dari satu. Pisahkan dengan koma jika memilih beberapa.",
		short:        "Berikan jawaban singkat dan tepat.",
		paragraph:    "Berikan jawaban yang detail dan komprehensif dalam bentuk paragraf.",
		paragraphLow: "Berikan jawaban dalam 1-2 kalimat yang padat dan informatif.",
		email:        "Jawab dengan format email yang valid (contoh: nama@domain.com).",
		url:          "Jawab dengan URL yang valid (dimulai dengan http:// atau https://).",
		number:       "Jawab hanya dengan angka.",
		date:         "Jawab dengan format tanggal yang sesuai (DD/MM/YYYY atau format yang diminta).",
		time:         "Jawab dengan format waktu (HH:MM).",
		scale:        "Jawab dengan satu angka dari %s sampai %s.",
		formal:       "Gunakan bahasa formal dan profesional.",
		brief:        "Jawab sesingkat mungkin namun tetap informatif.",
	},
}

// BuildPrompt renders the prompt for q in the preferred locale and style.
func BuildPrompt(q schemas.Question, prefs schemas.Preferences) string {
	prefs = prefs.Normalize()
	t := prompts[prefs.Locale]

	var b strings.Builder
	b.WriteString(t.intro)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, t.question, q.Text)

	section := func(lines ...string) {
		b.WriteString("\n\n")
		b.WriteString(strings.Join(lines, "\n"))
	}
	options := fmt.Sprintf(t.options, strings.Join(q.Options, ", "))

	switch q.Type {
	case schemas.SingleChoice, schemas.Dropdown:
		if len(q.Options) > 0 {
			section(options, t.chooseOne)
		}
	case schemas.MultiChoice:
		if len(q.Options) > 0 {
			section(options, t.chooseMany)
		}
	case schemas.Scale:
		if len(q.Options) > 0 {
			section(options, fmt.Sprintf(t.scale, q.Options[0], q.Options[len(q.Options)-1]))
		}
	case schemas.ShortText:
		section(t.short)
	case schemas.Paragraph:
		if prefs.Style == schemas.StyleBrief {
			section(t.paragraphLow)
		} else {
			section(t.paragraph)
		}
	case schemas.Email:
		section(t.email)
	case schemas.URL:
		section(t.url)
	case schemas.Number:
		section(t.number)
	case schemas.Date:
		section(t.date)
	case schemas.Time:
		section(t.time)
	}

	switch prefs.Style {
	case schemas.StyleFormal:
		section(t.formal)
	case schemas.StyleBrief:
		section(t.brief)
	}
	return b.String()
}

// Temperature picks the sampling temperature for the question type:
// deterministic for classification-like answers, looser for prose.
func Temperature(cfg config.LLMConfig, t schemas.QuestionType) float32 {
	switch t {
	case schemas.ShortText, schemas.Paragraph:
		return cfg.FreeTextTemperature
	default:
		return cfg.ClassificationTemperature
	}
}
