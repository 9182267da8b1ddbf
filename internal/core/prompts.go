package core

import (
	"fmt"
	"strings"

	"lyra-backend-go/internal/models"
)

const (
	defaultTone       = "professional"
	defaultExperience = "intermediate"
)

// promptBuilder collects prompt lines and skips optional lines whose value is blank.
type promptBuilder struct {
	b strings.Builder
}

func (p *promptBuilder) line(s string) {
	p.b.WriteString(s)
	p.b.WriteByte('\n')
}

func (p *promptBuilder) blank() { p.b.WriteByte('\n') }

// field writes "label: value" only when value is present.
func (p *promptBuilder) field(label, value string) {
	if value = strings.TrimSpace(value); value != "" {
		p.line(label + ": " + value)
	}
}

func (p *promptBuilder) numbered(items ...string) {
	for i, item := range items {
		p.line(fmt.Sprintf("%d. %s", i+1, item))
	}
}

func (p *promptBuilder) String() string { return strings.TrimSpace(p.b.String()) }

func orDefault(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return fallback
}

// RenderPrompt builds the model prompt for input. Absent optional fields are omitted entirely.
func RenderPrompt(input models.ToolInput) (string, error) {
	switch in := input.(type) {
	case models.ProposalInput:
		return proposalPrompt(in), nil
	case *models.ProposalInput:
		return proposalPrompt(*in), nil
	case models.EmailInput:
		return emailPrompt(in), nil
	case *models.EmailInput:
		return emailPrompt(*in), nil
	case models.PricingInput:
		return pricingPrompt(in), nil
	case *models.PricingInput:
		return pricingPrompt(*in), nil
	case models.ContractInput:
		return contractPrompt(in), nil
	case *models.ContractInput:
		return contractPrompt(*in), nil
	case models.BriefInput:
		return briefPrompt(in), nil
	case *models.BriefInput:
		return briefPrompt(*in), nil
	case models.OnboardingInput:
		return onboardingPrompt(in), nil
	case *models.OnboardingInput:
		return onboardingPrompt(*in), nil
	default:
		return "", fmt.Errorf("no prompt template for %T", input)
	}
}

func proposalPrompt(in models.ProposalInput) string {
	var p promptBuilder
	p.line("Generate a professional project proposal with the following details:")
	p.blank()
	p.field("Project Title", in.Title)
	p.field("Client Industry", in.Industry)
	p.field("Project Scope", in.Scope)
	p.field("Start Date", in.StartDate)
	p.field("End Date", in.EndDate)
	if min, max := strings.TrimSpace(string(in.MinBudget)), strings.TrimSpace(string(in.MaxBudget)); min != "" && max != "" {
		p.line(fmt.Sprintf("Budget Range: $%s - $%s", min, max))
	}
	p.blank()
	p.line("Tone: " + orDefault(in.Tone, defaultTone))
	p.blank()
	p.line("The proposal should include the following sections:")
	p.numbered(
		"Introduction and project understanding",
		"Detailed scope of work",
		"Timeline and milestones",
		"Pricing and payment terms",
		"About me/my team",
		"Next steps",
	)
	p.blank()
	p.line("Format the response with proper section headers and professional language.")
	return p.String()
}

func emailPrompt(in models.EmailInput) string {
	var p promptBuilder
	p.line(fmt.Sprintf("Rewrite the following email to sound more %s.", orDefault(in.Tone, defaultTone)))
	p.field("Additional context", in.Context)
	p.blank()
	p.line("Here's the original email:")
	p.line(`"` + in.OriginalEmail + `"`)
	p.blank()
	p.line("Please maintain the same information but improve the structure, clarity, tone, and professionalism. Fix any grammar or spelling issues.")
	return p.String()
}

func pricingPrompt(in models.PricingInput) string {
	var p promptBuilder
	p.line("Generate pricing estimates for a freelance project with the following details:")
	p.blank()
	p.field("Project Type", in.ProjectType)
	p.field("Project Scope", in.Scope)
	p.field("Timeline", in.Timeline)
	p.line("Experience Level: " + orDefault(in.Experience, defaultExperience))
	p.field("Region", in.Region)
	p.blank()
	p.line("Provide both hourly rate and flat project rate estimates. Include:")
	p.numbered(
		"A range of prices with low, average, and high estimates",
		"Factors that influence the price",
		"How to justify the rates to clients",
		"Any recommendations for pricing structure (milestone payments, etc.)",
	)
	p.blank()
	p.line("Format the response with clear sections and professional language.")
	return p.String()
}

func contractPrompt(in models.ContractInput) string {
	var p promptBuilder
	p.line("Explain the following contract in simple, plain English:")
	p.blank()
	p.line(in.ContractText)
	var areas []string
	for _, a := range in.FocusAreas {
		if a = strings.TrimSpace(a); a != "" {
			areas = append(areas, a)
		}
	}
	if len(areas) > 0 {
		p.blank()
		p.line("Please focus especially on these areas: " + strings.Join(areas, ", "))
	}
	p.blank()
	p.line("Break down the explanation into sections:")
	p.numbered(
		"Summary of the contract",
		"Key terms and obligations",
		"Potential risks or red flags",
		"Plain English explanation of legal jargon",
		"What to pay attention to before signing",
	)
	p.blank()
	p.line("Format the response with clear headings and simple language that a non-lawyer can understand.")
	return p.String()
}

func briefPrompt(in models.BriefInput) string {
	var p promptBuilder
	p.line("Convert the following unstructured ideas into a formal creative brief:")
	p.blank()
	p.line(in.Text)
	p.blank()
	p.line("Create a structured creative brief that includes:")
	p.numbered(
		"Project overview and background",
		"Objectives and goals",
		"Target audience",
		"Key deliverables",
		"Timeline",
		"Budget considerations",
		"Constraints or special requirements",
	)
	p.blank()
	p.line("Format the response as a professional document that could be shared with clients or team members.")
	return p.String()
}

func onboardingPrompt(in models.OnboardingInput) string {
	var p promptBuilder
	p.line("Create a client onboarding package for a new freelance client with the following details:")
	p.blank()
	p.field("Client Name", in.ClientName)
	p.field("Business Type", in.BusinessType)
	p.field("Project Type", in.ProjectType)
	p.field("Timeline", in.Timeline)
	p.field("Budget", string(in.Budget))
	p.field("Additional Information", in.AdditionalInfo)
	p.blank()
	p.line("Tone: " + orDefault(in.Tone, defaultTone))
	p.blank()
	p.line("The onboarding package should include:")
	p.numbered(
		"A warm welcome message addressed to the client",
		"A project kickoff questionnaire",
		"Timeline and milestones overview",
		"Communication plan and availability",
		"Checklist of materials and access needed from the client",
		"Next steps",
	)
	p.blank()
	p.line("Format the response with clear section headers so it can be sent to the client as-is.")
	return p.String()
}
