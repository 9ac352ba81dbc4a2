package review

import (
	"fmt"
	"strings"
)

const systemPrompt = "You are an expert code reviewer. Provide clear, actionable feedback."

// rubric is the fixed review outline every remote provider is asked to follow.
var rubric = []string{
	"Code quality and best practices",
	"Potential bugs or issues",
	"Security concerns",
	"Performance improvements",
	"Code style and readability",
}

// SystemPrompt returns the system prompt for the LLM.
func SystemPrompt() string {
	return systemPrompt
}

// BuildUserPrompt constructs the review prompt for a single snippet.
func BuildUserPrompt(code, language string) string {
	var b strings.Builder

	b.WriteString("Review the following")
	if language != "" {
		fmt.Fprintf(&b, " (%s)", language)
	}
	b.WriteString(" code and provide constructive feedback:\n\n")

	fmt.Fprintf(&b, "```%s\n", fenceTag(language))
	b.WriteString(code)
	if !strings.HasSuffix(code, "\n") {
		b.WriteString("\n")
	}
	b.WriteString("```\n\n")

	b.WriteString("Provide a code review covering:\n")
	for i, item := range rubric {
		fmt.Fprintf(&b, "%d. %s\n", i+1, item)
	}
	b.WriteString("\nFormat as a clear, structured review.")

	return b.String()
}

// fenceTag returns the info string for the markdown code fence. Tags with
// whitespace or backticks would break the fence and are replaced.
func fenceTag(language string) string {
	lang := strings.TrimSpace(language)
	if lang == "" || strings.ContainsAny(lang, " \t\n`") {
		return "code"
	}
	return lang
}
