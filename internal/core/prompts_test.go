package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lyra-backend-go/internal/models"
)

func TestRenderPrompt_ProposalOmitsAbsentOptionals(t *testing.T) {
	prompt, err := RenderPrompt(models.ProposalInput{Title: "Site", Industry: "Retail", Scope: "Storefront", MinBudget: "500"})
	require.NoError(t, err)

	assert.Contains(t, prompt, "Project Title: Site")
	assert.Contains(t, prompt, "Client Industry: Retail")
	assert.Contains(t, prompt, "Tone: professional")
	assert.NotContains(t, prompt, "Start Date")
	assert.NotContains(t, prompt, "End Date")
	assert.NotContains(t, prompt, "Budget Range", "budget needs both bounds")
}

func TestRenderPrompt_ProposalWithAllFields(t *testing.T) {
	prompt, err := RenderPrompt(&models.ProposalInput{
		Title: "Site", Industry: "Retail", Scope: "Storefront",
		StartDate: "2026-06-01", EndDate: "2026-07-01",
		MinBudget: "500", MaxBudget: "900", Tone: "friendly",
	})
	require.NoError(t, err)

	assert.Contains(t, prompt, "Start Date: 2026-06-01")
	assert.Contains(t, prompt, "End Date: 2026-07-01")
	assert.Contains(t, prompt, "Budget Range: $500 - $900")
	assert.Contains(t, prompt, "Tone: friendly")
	assert.Contains(t, prompt, "6. Next steps")
}

func TestRenderPrompt_Email(t *testing.T) {
	prompt, err := RenderPrompt(models.EmailInput{OriginalEmail: "hey can u send the file"})
	require.NoError(t, err)

	assert.Contains(t, prompt, "Rewrite the following email to sound more professional.")
	assert.Contains(t, prompt, `"hey can u send the file"`)
	assert.NotContains(t, prompt, "Additional context")

	prompt, err = RenderPrompt(models.EmailInput{OriginalEmail: "hi", Tone: "apologetic", Context: "late delivery"})
	require.NoError(t, err)
	assert.Contains(t, prompt, "sound more apologetic")
	assert.Contains(t, prompt, "Additional context: late delivery")
}

func TestRenderPrompt_Pricing(t *testing.T) {
	prompt, err := RenderPrompt(models.PricingInput{ProjectType: "Logo", Scope: "3 concepts"})
	require.NoError(t, err)

	assert.Contains(t, prompt, "Experience Level: intermediate")
	assert.NotContains(t, prompt, "Timeline:")
	assert.NotContains(t, prompt, "Region:")

	prompt, err = RenderPrompt(models.PricingInput{ProjectType: "Logo", Scope: "3", Timeline: "2 weeks", Experience: "expert", Region: "EU"})
	require.NoError(t, err)
	assert.Contains(t, prompt, "Timeline: 2 weeks")
	assert.Contains(t, prompt, "Experience Level: expert")
	assert.Contains(t, prompt, "Region: EU")
}

func TestRenderPrompt_ContractFocusAreas(t *testing.T) {
	prompt, err := RenderPrompt(models.ContractInput{ContractText: "Clause 1"})
	require.NoError(t, err)
	assert.NotContains(t, prompt, "focus especially")

	prompt, err = RenderPrompt(models.ContractInput{ContractText: "Clause 1", FocusAreas: []string{"payment", " ", "termination"}})
	require.NoError(t, err)
	assert.Contains(t, prompt, "Please focus especially on these areas: payment, termination")
}

func TestRenderPrompt_BriefAndOnboarding(t *testing.T) {
	prompt, err := RenderPrompt(models.BriefInput{Text: "a podcast for bakers"})
	require.NoError(t, err)
	assert.Contains(t, prompt, "a podcast for bakers")
	assert.Contains(t, prompt, "7. Constraints or special requirements")

	prompt, err = RenderPrompt(models.OnboardingInput{ClientName: "Acme", BusinessType: "Bakery", ProjectType: "Website"})
	require.NoError(t, err)
	assert.Contains(t, prompt, "Client Name: Acme")
	assert.Contains(t, prompt, "Tone: professional")
	assert.NotContains(t, prompt, "Budget:")
	assert.NotContains(t, prompt, "Timeline:")
	assert.NotContains(t, prompt, "Additional Information")
}
