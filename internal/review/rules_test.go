package review

import (
	"reflect"
	"strings"
	"testing"
)

func rulesOf(findings []Finding) []string {
	tags := make([]string, len(findings))
	for i, f := range findings {
		tags[i] = f.Rule
	}
	return tags
}

func hasRule(findings []Finding, tag string) bool {
	for _, f := range findings {
		if f.Rule == tag {
			return true
		}
	}
	return false
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		language string
		want     []string
	}{
		{"empty", "", "", []string{RuleEmpty, RuleShort}},
		{"whitespace", "   \n\t ", "", []string{RuleEmpty, RuleShort}},
		{"short", "x = 1", "python", []string{RuleShort}},
		{"todo", "// TODO: handle overflow in the parser", "", []string{RuleTodo}},
		{"risky upper", "result = EVAL(user_input) + more_padding", "", []string{RuleRisky}},
		{"risky drop", "query = 'DROP TABLE users' # migration", "", []string{RuleRisky}},
		{"js var", "var counter = 10000000;", "javascript", []string{RuleJSVar}},
		{"js alias", "var counter = 10000000;", "JS", []string{RuleJSVar}},
		{"js semi", "let total = compute(a, b)\nreturn total", "js", []string{RuleJSSemi}},
		{"js function line", "function handle(event) {\n  run(event);\n}", "js", nil},
		{"js comment", "// just a comment line here\nconst a = 1;", "js", nil},
		{"py tab", "def f():\n\treturn 1 + 2 + 3 + 4", "python", []string{RulePyIndent}},
		{"py print", "def f():\n    print('hello world')", "py", []string{RulePyPrint}},
		{"java catch", "try { run(); } catch (Exception e) { }", "java", []string{RuleJavaCatch}},
		{"java handled", "try { run(); } catch (Exception e) { log(e); }", "java", nil},
		{"unknown language", "var counter = 10000000\tprint(", "go", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := rulesOf(Evaluate(tt.code, tt.language))
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Evaluate(%q, %q) rules = %v, want %v", tt.code, tt.language, got, tt.want)
			}
		})
	}
}

func TestEvaluate_NeverNil(t *testing.T) {
	findings := Evaluate("a perfectly ordinary line of code;", "")
	if findings == nil {
		t.Fatal("Evaluate should return a non-nil slice")
	}
	if len(findings) != 0 {
		t.Errorf("expected no findings, got %v", rulesOf(findings))
	}
}

func TestEvaluate_Deterministic(t *testing.T) {
	code := "var x = eval(input)\n// todo\nlet y = x"
	first := Evaluate(code, "js")
	for i := 0; i < 5; i++ {
		if got := Evaluate(code, "js"); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d differs: %v vs %v", i, got, first)
		}
	}
}

func TestEvaluate_ShortBoundary(t *testing.T) {
	if hasRule(Evaluate(strings.Repeat("a", 20), ""), RuleShort) {
		t.Error("20 characters should not be short")
	}
	if !hasRule(Evaluate(strings.Repeat("a", 19), ""), RuleShort) {
		t.Error("19 characters should be short")
	}
	// Runes, not bytes.
	if !hasRule(Evaluate(strings.Repeat("é", 19), ""), RuleShort) {
		t.Error("19 multi-byte runes should be short")
	}
}

func TestEvaluate_Severities(t *testing.T) {
	findings := Evaluate("eval(", "")
	want := map[string]Severity{RuleShort: SeverityInfo, RuleRisky: SeverityDanger}
	for _, f := range findings {
		if sev, ok := want[f.Rule]; ok && f.Severity != sev {
			t.Errorf("%s severity = %q, want %q", f.Rule, f.Severity, sev)
		}
	}
	if empty := Evaluate("", ""); empty[0].Severity != SeverityWarn {
		t.Errorf("empty severity = %q, want warn", empty[0].Severity)
	}
}

func TestRender(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		language string
		want     string
	}{
		{
			"short python",
			"x = 1",
			"python",
			"Basic Review (python):\n- Code is very short; add more context or tests.",
		},
		{
			"clean without language",
			"a perfectly ordinary line of code;",
			"",
			"Basic Review: No obvious issues detected. Consider adding docstrings and tests.",
		},
		{
			"language prefix",
			"var counter = 10000000;",
			"javascript",
			"Basic Review (javascript):\n- JavaScript: Avoid 'var'; prefer 'let' or 'const'.",
		},
		{
			"java prefix",
			"try { run(); } catch (Exception e) { }",
			"java",
			"Basic Review (java):\n- Java: Empty catch block; handle or log exceptions.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Render(tt.code, tt.language); got != tt.want {
				t.Errorf("Render() =\n%q\nwant\n%q", got, tt.want)
			}
		})
	}
}

func TestRender_PythonPrintPrefix(t *testing.T) {
	got := Render("def f():\n    print('hello world')", "python")
	if !strings.Contains(got, "- Python: 'print' found") {
		t.Errorf("Render should prefix python findings, got %q", got)
	}
}
