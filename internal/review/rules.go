package review

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// shortCodeThreshold is the rune count below which a snippet is flagged as short.
const shortCodeThreshold = 20

// riskyCalls is matched case-insensitively against the whole snippet.
var riskyCalls = []string{
	"eval(",
	"exec(",
	"os.system(",
	"subprocess.popen(",
	"rm -rf",
	"drop table",
}

var (
	jsVarPattern      = regexp.MustCompile(`\bvar\b`)
	javaEmptyCatchPat = regexp.MustCompile(`(?i)catch\s*\([^)]*\)\s*\{\s*\}`)
)

// rule is one heuristic. Language-specific rules carry the language label used
// when the finding is rendered as prose.
type rule struct {
	tag      string
	severity Severity
	message  string
	match    func(code string) bool
}

var commonRules = []rule{
	{RuleEmpty, SeverityWarn, "Code is empty.", func(code string) bool {
		return strings.TrimSpace(code) == ""
	}},
	{RuleShort, SeverityInfo, "Code is very short; add more context or tests.", func(code string) bool {
		return utf8.RuneCountInString(code) < shortCodeThreshold
	}},
	{RuleTodo, SeverityInfo, "Found TODOs; resolve or track them explicitly.", func(code string) bool {
		return strings.Contains(strings.ToLower(code), "todo")
	}},
	{RuleRisky, SeverityDanger, "Potentially dangerous calls detected; review security implications.", containsRiskyCall},
}

// languageRules groups the language-aware checks. Only one group runs per
// evaluation.
type languageRules struct {
	label   string
	aliases []string
	rules   []rule
}

var languages = []languageRules{
	{
		label:   "JavaScript",
		aliases: []string{"javascript", "js"},
		rules: []rule{
			{RuleJSVar, SeverityWarn, "Avoid 'var'; prefer 'let' or 'const'.", jsVarPattern.MatchString},
			{RuleJSSemi, SeverityInfo, "Some statements may be missing semicolons.", hasMissingSemicolon},
		},
	},
	{
		label:   "Python",
		aliases: []string{"python", "py"},
		rules: []rule{
			{RulePyIndent, SeverityWarn, "Mixed tabs in indentation; use spaces consistently.", func(code string) bool {
				return strings.Contains(code, "\t")
			}},
			{RulePyPrint, SeverityInfo, "'print' found; avoid prints in production code.", func(code string) bool {
				return strings.Contains(code, "print(")
			}},
		},
	},
	{
		label:   "Java",
		aliases: []string{"java"},
		rules: []rule{
			{RuleJavaCatch, SeverityWarn, "Empty catch block; handle or log exceptions.", javaEmptyCatchPat.MatchString},
		},
	},
}

// Evaluate runs every heuristic against code and returns the findings in
// check order. The result is never nil.
func Evaluate(code, language string) []Finding {
	findings := make([]Finding, 0, 4)
	for _, r := range commonRules {
		if r.match(code) {
			findings = append(findings, r.finding())
		}
	}
	if lr := lookupLanguage(language); lr != nil {
		for _, r := range lr.rules {
			if r.match(code) {
				findings = append(findings, r.finding())
			}
		}
	}
	return findings
}

// Render evaluates code and formats the findings as a short prose review.
func Render(code, language string) string {
	header := "Basic Review"
	if language != "" {
		header += fmt.Sprintf(" (%s)", language)
	}

	findings := Evaluate(code, language)
	if len(findings) == 0 {
		return header + ": No obvious issues detected. Consider adding docstrings and tests."
	}

	var b strings.Builder
	b.WriteString(header)
	b.WriteString(":")
	lr := lookupLanguage(language)
	for _, f := range findings {
		b.WriteString("\n- ")
		if lr != nil && lr.owns(f.Rule) {
			b.WriteString(lr.label)
			b.WriteString(": ")
		}
		b.WriteString(f.Message)
	}
	return b.String()
}

func (r rule) finding() Finding {
	return Finding{Message: r.message, Severity: r.severity, Rule: r.tag}
}

func (lr *languageRules) owns(tag string) bool {
	for _, r := range lr.rules {
		if r.tag == tag {
			return true
		}
	}
	return false
}

func lookupLanguage(language string) *languageRules {
	lang := strings.ToLower(strings.TrimSpace(language))
	if lang == "" {
		return nil
	}
	for i := range languages {
		for _, alias := range languages[i].aliases {
			if alias == lang {
				return &languages[i]
			}
		}
	}
	return nil
}

func containsRiskyCall(code string) bool {
	lower := strings.ToLower(code)
	for _, token := range riskyCalls {
		if strings.Contains(lower, token) {
			return true
		}
	}
	return false
}

// hasMissingSemicolon flags statement-looking lines that end in a letter.
func hasMissingSemicolon(code string) bool {
	for _, line := range strings.Split(code, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}
		last, _ := utf8.DecodeLastRuneInString(line)
		if unicode.IsLetter(last) && !strings.Contains(line, "function") && !strings.HasSuffix(line, ";") {
			return true
		}
	}
	return false
}
