package answer

import (
	"regexp"
	"time"

	"github.com/xkilldash9x/formpilot-cli/api/schemas"
)

type keywordAnswer struct {
	pattern *regexp.Regexp
	answer  func(now time.Time) string
}

func fixed(s string) func(time.Time) string { return func(time.Time) string { return s } }

func words(ws string) *regexp.Regexp { return regexp.MustCompile(`(?i)\b(` + ws + `)\b`) }

// Order matters: any mention of email wins, and "company name" is a company
// question, not a name question. Email matches inside words ("emails").
var keywordAnswers = []keywordAnswer{
	{regexp.MustCompile(`(?i)e-?mail`), fixed("demo@example.com")},
	{words("company|perusahaan|organi[sz]ation|instansi"), fixed("Demo Company")},
	{words("job|pekerjaan|occupation|profesi"), fixed("Software Developer")},
	{words("phone|telepon|telp|whatsapp|hp"), fixed("081234567890")},
	{words("address|alamat"), fixed("Jakarta, Indonesia")},
	{words("age|umur|usia"), fixed("25")},
	{words("date|tanggal"), func(now time.Time) string { return now.Format("2006-01-02") }},
	{words("time|waktu|jam"), func(now time.Time) string { return now.Format("15:04") }},
	{words("website|url|link"), fixed("https://example.com")},
	{words("name|nama"), fixed("Demo User")},
}

var genericAnswer = map[schemas.Locale]string{
	schemas.LocaleEnglish:    "This is a sample answer.",
	schemas.LocaleIndonesian: "Ini adalah jawaban contoh.",
}

// Offline returns a deterministic answer built from the question alone.
// It is used whenever the remote service cannot produce one.
func Offline(q schemas.Question, prefs schemas.Preferences, now time.Time) schemas.Answer {
	ans := schemas.Answer{Source: schemas.SourceOffline}

	switch q.Type {
	case schemas.SingleChoice, schemas.Dropdown:
		if len(q.Options) > 0 {
			ans.Text = q.Options[0]
			return ans
		}
	case schemas.MultiChoice:
		if len(q.Options) > 0 {
			ans.Choices = []string{q.Options[0]}
			ans.Text = q.Options[0]
			return ans
		}
	case schemas.Scale:
		if len(q.Options) > 0 {
			ans.Text = q.Options[len(q.Options)/2]
			return ans
		}
		ans.Text = "3"
		return ans
	case schemas.Email:
		ans.Text = "demo@example.com"
		return ans
	case schemas.URL:
		ans.Text = "https://example.com"
		return ans
	case schemas.Date:
		ans.Text = now.Format("2006-01-02")
		return ans
	case schemas.Time:
		ans.Text = now.Format("15:04")
		return ans
	}

	for _, k := range keywordAnswers {
		if k.pattern.MatchString(q.Text) {
			ans.Text = k.answer(now)
			break
		}
	}
	if q.Type == schemas.Number && !numberRe.MatchString(ans.Text) {
		ans.Text = "25"
	}
	if ans.Text == "" {
		ans.Text = genericAnswer[prefs.Normalize().Locale]
	}
	return ans
}
