package coverletter

import (
	"fmt"
	"strings"
)

// SystemPrompt sets the assistant persona for every completion
const SystemPrompt = "You are a professional cover letter writer. Write clear, concise, and impactful cover letters that highlight the candidate's relevant experience and skills. Never use placeholder text or include contact information."

var instructions = []string{
	"DO NOT use placeholder text like [Your Name], [Address], etc.",
	"DO NOT include contact information or addresses",
	`Start directly with "Dear Hiring Manager"`,
	"Focus on the candidate's actual experience from their CV",
	"Make specific references to the company and position",
	"Keep the tone professional but engaging",
	`End with "Best regards" followed by a blank line`,
	"The letter should be concise and impactful, typically 3-4 paragraphs",
	"If no CV is provided, focus on transferable skills and enthusiasm for the role",
	"Avoid generic statements and clichés",
}

// BuildPrompt renders the user prompt. cvText is embedded verbatim and omitted when empty.
func BuildPrompt(req *Request, cvText string) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Write a professional cover letter for a %s position at %s.\n", strings.TrimSpace(req.JobTitle), strings.TrimSpace(req.Company))
	if cvText != "" {
		fmt.Fprintf(&sb, "Here is the candidate's CV content for context: %s\n", cvText)
	}

	sb.WriteString("\nStyle guidelines:\n")
	fmt.Fprintf(&sb, "- Inventiveness level: %d%% (%s)\n", req.Inventiveness, InventivenessDirective(req.Inventiveness))
	fmt.Fprintf(&sb, "- Humor level: %d%% (%s)\n", req.Humor, HumorDirective(req.Humor))

	sb.WriteString("\nImportant instructions:\n")
	for i, line := range instructions {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, line)
	}

	return strings.TrimRight(sb.String(), "\n")
}
