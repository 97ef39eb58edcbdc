package filler

import "github.com/xkilldash9x/formpilot-cli/internal/browser/dom"

// Selectors are the ordered XPath lists the filler resolves against the live
// page. Entries beginning with "/" are appended to a container or element ref;
// Popup entries are document-wide.
type Selectors struct {
	SingleOptions []string
	MultiOptions  []string
	ScaleOptions  []string
	// OptionLabel reads nested label text inside an option node.
	OptionLabel []string
	// ChoiceParent finds the structural wrapper clicked as a fallback.
	ChoiceParent []string
	NativeSelect []string
	ListTrigger  []string
	ListOptions  []string
	Popup        []string
	TextTargets  []string
	DateParts    PartSelectors
	TimeParts    PartSelectors
	// CheckedClasses mark a selected custom option.
	CheckedClasses []string
}

// PartSelectors locate the inputs of a split date or time widget.
type PartSelectors struct {
	First, Second, Third []string
}

func cls(name string) string { return dom.ClassContains(name) }

// DefaultSelectors mirrors the analyzer's view of Google Forms and native markup.
func DefaultSelectors() Selectors {
	return Selectors{
		SingleOptions: []string{
			"//input[@type='radio']",
			"//*[@role='radio']",
			"//*[" + cls("freebirdFormviewerComponentsQuestionRadioChoice") + "]",
			"//*[@data-value]",
		},
		MultiOptions: []string{
			"//input[@type='checkbox']",
			"//*[@role='checkbox']",
			"//*[" + cls("freebirdFormviewerComponentsQuestionCheckboxChoice") + "]",
		},
		ScaleOptions: []string{
			"//*[@role='radio']",
			"//input[@type='radio']",
			"//*[@data-value]",
		},
		OptionLabel: []string{
			"//span[@dir='auto']",
			"//*[" + cls("aDTYNe") + "]",
			"//*[" + cls("eRqjfd") + "]",
		},
		ChoiceParent: []string{
			"/ancestor::label[1]",
			"/ancestor::*[" + cls("docssharedWizToggleLabeledContainer") + "][1]",
			"/ancestor::*[" + cls("freebirdFormviewerComponentsQuestionRadioChoice") + " or " + cls("freebirdFormviewerComponentsQuestionCheckboxChoice") + "][1]",
			"/..",
		},
		NativeSelect: []string{"//select"},
		ListTrigger: []string{
			"//*[@role='listbox']",
			"//*[@role='combobox']",
			"//*[" + cls("quantumWizMenuPaperselectEl") + "]",
		},
		ListOptions: []string{
			"//*[@role='option']",
			"//*[" + cls("quantumWizMenuPaperselectOption") + "]",
		},
		Popup: []string{
			"//*[@role='listbox'][@aria-expanded='true']//*[@role='option']",
			"//*[@role='presentation']//*[@role='option']",
			"//*[" + cls("exportSelectPopup") + "]//*[@role='option']",
			"//li[@data-value]",
		},
		TextTargets: []string{
			"//textarea",
			"//input[not(@type) or @type='text' or @type='email' or @type='url' or @type='number' or @type='tel' or @type='search']",
			"//*[@contenteditable='true']",
		},
		DateParts: PartSelectors{
			First:  []string{"//input[contains(@aria-label,'Day') or contains(@aria-label,'Hari')]"},
			Second: []string{"//input[contains(@aria-label,'Month') or contains(@aria-label,'Bulan')]"},
			Third:  []string{"//input[contains(@aria-label,'Year') or contains(@aria-label,'Tahun')]"},
		},
		TimeParts: PartSelectors{
			First:  []string{"//input[contains(@aria-label,'Hour') or contains(@aria-label,'Jam')]"},
			Second: []string{"//input[contains(@aria-label,'Minute') or contains(@aria-label,'Menit')]"},
		},
		CheckedClasses: []string{"isChecked", "isSelected", "selected", "checked"},
	}
}
