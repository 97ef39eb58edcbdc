package analyzer

import (
	"fmt"

	"github.com/antchfx/xpath"
	"github.com/xkilldash9x/formpilot-cli/api/schemas"
	"github.com/xkilldash9x/formpilot-cli/internal/browser/dom"
	"github.com/xkilldash9x/formpilot-cli/internal/config"
)

// StrategyKind labels how a container strategy locates questions.
type StrategyKind string

const (
	KindAttribute StrategyKind = "attribute"
	KindClass     StrategyKind = "class"
	KindRole      StrategyKind = "role"
	KindGeneric   StrategyKind = "generic"
	KindCustom    StrategyKind = "custom"
)

// ContainerStrategy is one step of the container waterfall.
type ContainerStrategy struct {
	Name  string
	Kind  StrategyKind
	XPath string
}

// TypeRule classifies a container as Type when any Match expression hits and
// no Exclude expression does. Target lists where the fillable control lives.
type TypeRule struct {
	Type    schemas.QuestionType
	Match   []string
	Exclude []string
	Target  []string
}

// Selectors holds every ordered lookup list the analyzer uses. Container-relative
// expressions start with "./".
type Selectors struct {
	Title       []string
	Description []string
	Containers  []ContainerStrategy
	Fallback    []string
	// InputBearing is the validity check for a container.
	InputBearing []string
	Label        []string
	Required     []string
	Types        []TypeRule
	// ChoiceOptions locate option nodes for single, multi and scale questions.
	ChoiceOptions []string
	// ListOptions locate option nodes for dropdowns.
	ListOptions []string
	// OptionLabel is the nested-text query applied inside an option node.
	OptionLabel string
	// Placeholders are option texts that never count as a real option.
	Placeholders []string
}

func cls(name string) string { return dom.ClassContains(name) }

// scaleSignal distinguishes a linear scale from an ordinary radio group.
var scaleSignal = []string{
	".//*[" + cls("freebirdFormviewerComponentsQuestionLinearscaleLinearscaleContainer") + "]",
	".//*[" + cls("freebirdMaterialScalecontentContainer") + "]",
	".//*[@data-value and @data-answer-value]",
}

// DefaultSelectors returns the built-in waterfalls for Google Forms plus
// generic fieldset based markup.
func DefaultSelectors() Selectors {
	textInput := ".//input[not(@type) or @type='text' or @type='tel' or @type='search']"
	paperInput := ".//input[" + cls("quantumWizTextinputPaperinputInput") + "]"
	ariaInput := func(words ...string) string {
		expr := paperInput[:len(paperInput)-1] + " and ("
		for i, w := range words {
			if i > 0 {
				expr += " or "
			}
			expr += "contains(@aria-label,'" + w + "')"
		}
		return expr + ")]"
	}

	return Selectors{
		Title: []string{
			"//*[@data-docs-text-id]//span[@dir='auto']",
			"//*[" + cls("freebirdFormviewerViewHeaderTitle") + "]",
			"//form//h1",
			"//h1",
			"//title",
		},
		Description: []string{
			"//*[" + cls("freebirdFormviewerViewHeaderDescription") + "]",
			"//*[" + cls("exportFormDescription") + "]",
		},
		Containers: []ContainerStrategy{
			{Name: "question-params", Kind: KindAttribute, XPath: "//*[contains(@data-params,'question')]//*[" + cls("freebirdFormviewerComponentsQuestionBaseRoot") + "]"},
			{Name: "question-card", Kind: KindClass, XPath: "//*[" + cls("Qr7Oae") + "]"},
			{Name: "items-item", Kind: KindClass, XPath: "//*[" + cls("freebirdFormviewerViewItemsItemItem") + "]"},
			{Name: "listitem-params", Kind: KindRole, XPath: "//*[@role='listitem'][@data-params]"},
			{Name: "fieldset", Kind: KindGeneric, XPath: "//fieldset | //*[" + cls("form-group") + "]"},
		},
		Fallback: []string{
			"//*[contains(@data-params,'question')]",
			"//*[" + cls("freebirdFormviewerViewItemsItemItem") + "]",
			"//*[@role='listitem']",
			"//*[" + cls("Qr7Oae") + "]",
		},
		InputBearing: []string{
			".//input[not(@type='hidden')]",
			".//textarea",
			".//select",
			".//*[@role='radio' or @role='checkbox' or @role='listbox' or @role='option' or @role='combobox']",
			".//*[@data-value]",
		},
		Label: []string{
			".//*[@data-docs-text-id]//span",
			".//*[" + cls("freebirdFormviewerComponentsQuestionBaseTitle") + "]",
			".//*[" + cls("M7eMe") + "]",
			".//*[" + cls("AgroKb") + "]",
			".//legend",
			".//*[@role='heading']",
			".//*[@dir='auto']",
			".//span[@jsname]",
			".//label",
		},
		Required: []string{
			".//*[" + cls("freebirdFormviewerComponentsQuestionBaseRequiredAsterisk") + "]",
			".//*[" + cls("vnumgf") + "]",
			".//*[@aria-required='true']",
			".//*[@required]",
		},
		Types: []TypeRule{
			{
				Type:   schemas.Grid,
				Match:  []string{".//*[" + cls("freebirdFormviewerComponentsQuestionGridContainer") + "]", ".//*[@role='grid']"},
				Target: []string{".//*[@role='grid']", ".//*[@role='radio']"},
			},
			{
				Type:    schemas.SingleChoice,
				Match:   []string{".//input[@type='radio']", ".//*[@role='radio']", ".//*[" + cls("freebirdFormviewerComponentsQuestionRadioChoice") + "]"},
				Exclude: scaleSignal,
				Target:  []string{".//input[@type='radio']", ".//*[@role='radiogroup']", ".//*[@role='radio']"},
			},
			{
				Type:   schemas.MultiChoice,
				Match:  []string{".//input[@type='checkbox']", ".//*[@role='checkbox']", ".//*[" + cls("freebirdFormviewerComponentsQuestionCheckboxChoice") + "]"},
				Target: []string{".//input[@type='checkbox']", ".//*[@role='checkbox']"},
			},
			{
				Type: schemas.Dropdown,
				Match: []string{
					".//select", ".//*[@role='listbox']", ".//*[@role='combobox']",
					".//*[" + cls("quantumWizMenuPaperselectEl") + "]",
					".//*[" + cls("quantumWizMenuPaperselectDropDown") + "]",
				},
				Target: []string{".//select", ".//*[@role='listbox']", ".//*[@role='combobox']", ".//*[" + cls("quantumWizMenuPaperselectEl") + "]"},
			},
			{
				Type:   schemas.Scale,
				Match:  scaleSignal,
				Target: []string{".//*[@role='radio']", ".//input[@type='radio']", ".//*[@data-value]"},
			},
			{
				Type:   schemas.Date,
				Match:  []string{".//input[@type='date']", ariaInput("Date", "date"), ".//*[" + cls("freebirdFormviewerComponentsQuestionDateDateInputs") + "]"},
				Target: []string{".//input[@type='date']", ariaInput("Date", "date"), ".//*[" + cls("freebirdFormviewerComponentsQuestionDateDateInputs") + "]//input"},
			},
			{
				Type:   schemas.Time,
				Match:  []string{".//input[@type='time']", ariaInput("Time", "time"), ".//*[" + cls("freebirdFormviewerComponentsQuestionTimeTimeInputs") + "]"},
				Target: []string{".//input[@type='time']", ariaInput("Time", "time"), ".//*[" + cls("freebirdFormviewerComponentsQuestionTimeTimeInputs") + "]//input"},
			},
			{
				Type:   schemas.Email,
				Match:  []string{".//input[@type='email']", ariaInput("Email", "email"), ".//input[@autocomplete='email']"},
				Target: []string{".//input[@type='email']", ariaInput("Email", "email"), ".//input[@autocomplete='email']"},
			},
			{
				Type:   schemas.URL,
				Match:  []string{".//input[@type='url']", ariaInput("URL", "url")},
				Target: []string{".//input[@type='url']", ariaInput("URL", "url")},
			},
			{
				Type:   schemas.Number,
				Match:  []string{".//input[@type='number']", ariaInput("Number", "number")},
				Target: []string{".//input[@type='number']", ariaInput("Number", "number")},
			},
			{
				Type:   schemas.Paragraph,
				Match:  []string{".//textarea", ".//*[" + cls("quantumWizTextinputPapertextareaInput") + "]"},
				Target: []string{".//textarea", ".//*[" + cls("quantumWizTextinputPapertextareaInput") + "]"},
			},
			{
				Type:   schemas.ShortText,
				Match:  []string{textInput, paperInput},
				Target: []string{textInput, paperInput},
			},
			{
				Type:   schemas.FileUpload,
				Match:  []string{".//input[@type='file']", ".//*[" + cls("freebirdFormviewerComponentsQuestionFileuploadFileuploadContainer") + "]"},
				Target: []string{".//input[@type='file']"},
			},
		},
		ChoiceOptions: []string{
			".//*[@role='radio' or @role='checkbox']",
			".//input[@type='radio' or @type='checkbox']",
			".//*[" + cls("freebirdFormviewerComponentsQuestionRadioChoice") + " or " + cls("freebirdFormviewerComponentsQuestionCheckboxChoice") + "]",
			".//*[@data-value]",
		},
		ListOptions: []string{
			".//select//option",
			".//*[@role='option']",
			".//*[" + cls("quantumWizMenuPaperselectOption") + "]",
		},
		OptionLabel:  ".//span[@dir='auto'] | .//*[" + cls("aDTYNe") + "] | .//*[" + cls("eRqjfd") + "]",
		Placeholders: []string{"choose", "pilih", "select", "select one", "select an option", "--"},
	}
}

// WithOverrides replaces built-in lists with non-empty configured ones.
func (s Selectors) WithOverrides(o config.SelectorOverrides) Selectors {
	if len(o.Title) > 0 {
		s.Title = o.Title
	}
	if len(o.Description) > 0 {
		s.Description = o.Description
	}
	if len(o.Containers) > 0 {
		s.Containers = make([]ContainerStrategy, len(o.Containers))
		for i, x := range o.Containers {
			s.Containers[i] = ContainerStrategy{Name: fmt.Sprintf("custom-%d", i), Kind: KindCustom, XPath: x}
		}
	}
	if len(o.Fallback) > 0 {
		s.Fallback = o.Fallback
	}
	if len(o.Label) > 0 {
		s.Label = o.Label
	}
	if len(o.Required) > 0 {
		s.Required = o.Required
	}
	if len(o.Options) > 0 {
		s.ChoiceOptions = o.Options
	}
	return s
}

type compiledStrategy struct {
	ContainerStrategy
	expr *xpath.Expr
}

type compiledRule struct {
	typ     schemas.QuestionType
	match   []*xpath.Expr
	exclude []*xpath.Expr
	target  []*xpath.Expr
}

// compiled is the ready-to-evaluate form of Selectors.
type compiled struct {
	title, description []*xpath.Expr
	containers         []compiledStrategy
	fallback           []*xpath.Expr
	inputBearing       []*xpath.Expr
	label              []*xpath.Expr
	required           []*xpath.Expr
	types              []compiledRule
	choiceOptions      []*xpath.Expr
	listOptions        []*xpath.Expr
	optionLabel        *xpath.Expr
	placeholders       []string
}

func compileList(field string, list []string) ([]*xpath.Expr, error) {
	out := make([]*xpath.Expr, 0, len(list))
	for _, s := range list {
		e, err := dom.Compile(s)
		if err != nil {
			return nil, fmt.Errorf("selectors.%s: %w", field, err)
		}
		out = append(out, e)
	}
	return out, nil
}

func (s Selectors) compile() (*compiled, error) {
	var (
		c   compiled
		err error
	)
	if c.title, err = compileList("title", s.Title); err != nil {
		return nil, err
	}
	if c.description, err = compileList("description", s.Description); err != nil {
		return nil, err
	}
	for _, cs := range s.Containers {
		e, err := dom.Compile(cs.XPath)
		if err != nil {
			return nil, fmt.Errorf("selectors.containers[%s]: %w", cs.Name, err)
		}
		c.containers = append(c.containers, compiledStrategy{ContainerStrategy: cs, expr: e})
	}
	if c.fallback, err = compileList("fallback", s.Fallback); err != nil {
		return nil, err
	}
	if c.inputBearing, err = compileList("input_bearing", s.InputBearing); err != nil {
		return nil, err
	}
	if c.label, err = compileList("label", s.Label); err != nil {
		return nil, err
	}
	if c.required, err = compileList("required", s.Required); err != nil {
		return nil, err
	}
	for _, r := range s.Types {
		cr := compiledRule{typ: r.Type}
		if cr.match, err = compileList("types."+string(r.Type), r.Match); err != nil {
			return nil, err
		}
		if cr.exclude, err = compileList("types."+string(r.Type), r.Exclude); err != nil {
			return nil, err
		}
		if cr.target, err = compileList("types."+string(r.Type), r.Target); err != nil {
			return nil, err
		}
		c.types = append(c.types, cr)
	}
	if c.choiceOptions, err = compileList("options", s.ChoiceOptions); err != nil {
		return nil, err
	}
	if c.listOptions, err = compileList("list_options", s.ListOptions); err != nil {
		return nil, err
	}
	if s.OptionLabel != "" {
		if c.optionLabel, err = dom.Compile(s.OptionLabel); err != nil {
			return nil, fmt.Errorf("selectors.option_label: %w", err)
		}
	}
	c.placeholders = s.Placeholders
	return &c, nil
}
