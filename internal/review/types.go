package review

// Severity represents the severity level of a finding.
type Severity string

const (
	SeverityInfo   Severity = "info"
	SeverityWarn   Severity = "warn"
	SeverityDanger Severity = "danger"
)

// SeverityRank returns a numeric rank for sorting (higher = more severe).
func SeverityRank(s Severity) int {
	switch s {
	case SeverityDanger:
		return 3
	case SeverityWarn:
		return 2
	case SeverityInfo:
		return 1
	default:
		return 0
	}
}

// MeetsThreshold returns true if severity is at or above the threshold.
func MeetsThreshold(s Severity, threshold string) bool {
	if threshold == "none" || threshold == "" {
		return false
	}
	return SeverityRank(s) >= SeverityRank(Severity(threshold))
}

// Rule tags reported by the rule engine.
const (
	RuleEmpty     = "empty"
	RuleShort     = "short"
	RuleTodo      = "todo"
	RuleRisky     = "risky"
	RuleJSVar     = "js.var"
	RuleJSSemi    = "js.semi"
	RulePyIndent  = "py.indent"
	RulePyPrint   = "py.print"
	RuleJavaCatch = "java.catch"
)

// Finding is a single issue detected by the rule engine.
type Finding struct {
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
	Rule     string   `json:"rule"`
}

// SeverityCounts holds counts by severity level.
type SeverityCounts struct {
	Info   int `json:"info"`
	Warn   int `json:"warn"`
	Danger int `json:"danger"`
}

// Summary provides an overview of findings.
type Summary struct {
	Counts          SeverityCounts `json:"counts"`
	HighestSeverity Severity       `json:"highestSeverity,omitempty"`
}

// ComputeSummary calculates the summary from findings.
func ComputeSummary(findings []Finding) Summary {
	var s Summary
	for _, f := range findings {
		switch f.Severity {
		case SeverityInfo:
			s.Counts.Info++
		case SeverityWarn:
			s.Counts.Warn++
		case SeverityDanger:
			s.Counts.Danger++
		}
		if SeverityRank(f.Severity) > SeverityRank(s.HighestSeverity) {
			s.HighestSeverity = f.Severity
		}
	}
	return s
}
