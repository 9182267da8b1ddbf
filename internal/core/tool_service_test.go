package core

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lyra-backend-go/internal/db"
	"lyra-backend-go/internal/models"
)

// steppingClock advances by step on every read, so each generation measures exactly step.
func steppingClock(start time.Time, step time.Duration) func() time.Time {
	t := start.Add(-step)
	return func() time.Time {
		t = t.Add(step)
		return t
	}
}

func newToolFixture(t *testing.T, gen TextGenerator, opts ...ToolOption) (*db.MemoryStore, ToolService) {
	t.Helper()
	mem := db.NewMemoryStore()
	return mem, NewToolService(gen, mem.Store().History, nil, opts...)
}

func TestInvoke_EmailScenario(t *testing.T) {
	gen := &fakeGenerator{text: "Hello, could you please send the file?"}
	mem, svc := newToolFixture(t, gen)
	ctx := context.Background()

	in := models.EmailInput{OriginalEmail: "hey can u send the file", Tone: "professional"}
	res, err := svc.Invoke(ctx, 1, in)
	require.NoError(t, err)

	assert.Equal(t, "Hello, could you please send the file?", res.Text)
	assert.GreaterOrEqual(t, res.GenerationTime, 0.0)
	assert.Equal(t, 1, gen.Calls())
	assert.Equal(t, GenerationTemperature, gen.requests[0].Temperature)
	assert.Equal(t, 1, gen.requests[0].Candidates)

	rows, err := mem.Store().History.ListByUser(ctx, 1, "")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, models.ToolEmail, rows[0].ToolType)
	assert.Equal(t, models.ActionGenerate, rows[0].Action)
	assert.Nil(t, rows[0].Format)
	assert.Equal(t, res.Text, rows[0].Output)
	require.NotNil(t, rows[0].GenerationTime)
	assert.GreaterOrEqual(t, *rows[0].GenerationTime, 0)

	var archived models.EmailInput
	require.NoError(t, json.Unmarshal([]byte(rows[0].Input), &archived))
	assert.Equal(t, in, archived)
}

func TestInvoke_RoundsArchivedGenerationTime(t *testing.T) {
	gen := &fakeGenerator{text: "pricing table"}
	clock := steppingClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), 1600*time.Millisecond)
	mem, svc := newToolFixture(t, gen, WithToolClock(clock))

	res, err := svc.Invoke(context.Background(), 3, models.PricingInput{ProjectType: "web", Scope: "landing page"})
	require.NoError(t, err)
	assert.InDelta(t, 1.6, res.GenerationTime, 1e-9)

	rows, err := mem.Store().History.ListByUser(context.Background(), 3, models.ToolPricing)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 2, *rows[0].GenerationTime)
}

func TestInvoke_MissingRequiredFields(t *testing.T) {
	tests := []struct {
		name  string
		input models.ToolInput
		want  []string
	}{
		{"proposal without title", models.ProposalInput{Industry: "retail", Scope: "app"}, []string{"title"}},
		{"proposal empty", models.ProposalInput{}, []string{"title", "industry", "scope"}},
		{"proposal blank title", models.ProposalInput{Title: "   ", Industry: "retail", Scope: "shop"}, []string{"title"}},
		{"email", models.EmailInput{Tone: "friendly"}, []string{"originalEmail"}},
		{"pricing", models.PricingInput{ProjectType: "logo"}, []string{"scope"}},
		{"contract", models.ContractInput{FocusAreas: []string{"payment"}}, []string{"contractText"}},
		{"brief", models.BriefInput{}, []string{"text"}},
		{"brief whitespace", &models.BriefInput{Text: "\n\t "}, []string{"text"}},
		{"onboarding", models.OnboardingInput{ClientName: "Acme"}, []string{"businessType", "projectType"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &fakeGenerator{text: "unused"}
			mem, svc := newToolFixture(t, gen)

			_, err := svc.Invoke(context.Background(), 1, tt.input)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidInput)

			var invalid *InvalidInputError
			require.True(t, errors.As(err, &invalid))
			assert.Equal(t, tt.want, invalid.Fields)

			assert.Equal(t, 0, gen.Calls())
			assert.Equal(t, 0, mem.HistoryCount())
		})
	}
}

func TestInvoke_ProviderFailureWritesNoHistory(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("quota exceeded")}
	mem, svc := newToolFixture(t, gen)

	_, err := svc.Invoke(context.Background(), 1, models.BriefInput{Text: "logo ideas"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrGenerationFailed)

	var genErr *GenerationFailedError
	require.True(t, errors.As(err, &genErr))
	assert.Equal(t, "quota exceeded", genErr.Message)
	assert.Equal(t, 0, mem.HistoryCount())
}

func TestInvoke_EmptyCompletionIsAFailure(t *testing.T) {
	gen := &fakeGenerator{text: "   "}
	mem, svc := newToolFixture(t, gen)

	_, err := svc.Invoke(context.Background(), 1, models.BriefInput{Text: "ideas"})
	assert.ErrorIs(t, err, ErrGenerationFailed)
	assert.Equal(t, 0, mem.HistoryCount())
}

func TestInvoke_UnconfiguredProvider(t *testing.T) {
	_, svc := newToolFixture(t, nil)

	_, err := svc.Invoke(context.Background(), 1, models.BriefInput{Text: "ideas"})
	assert.ErrorIs(t, err, ErrGenerationFailed)
}

func TestInvoke_HistoryFailureStillReturnsText(t *testing.T) {
	gen := &fakeGenerator{text: "explained"}
	svc := NewToolService(gen, failingHistory{}, nil)

	res, err := svc.Invoke(context.Background(), 1, models.ContractInput{ContractText: "The party of the first part..."})
	require.NoError(t, err)
	assert.Equal(t, "explained", res.Text)
}

func TestInvoke_TimeoutBoundsProviderContext(t *testing.T) {
	var deadline time.Time
	gen := generatorFunc(func(ctx context.Context, _ GenerationRequest) (string, error) {
		d, ok := ctx.Deadline()
		require.True(t, ok)
		deadline = d
		return "ok", nil
	})
	_, svc := newToolFixture(t, gen, WithGenerationTimeout(time.Minute))

	_, err := svc.Invoke(context.Background(), 1, models.BriefInput{Text: "ideas"})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Minute), deadline, 5*time.Second)
}

func TestInvoke_PublishesActivity(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	gen := &fakeGenerator{text: "welcome pack"}
	_, svc := newToolFixture(t, gen, WithActivityPublisher(pub))

	_, err := svc.Invoke(context.Background(), 9, models.OnboardingInput{ClientName: "Acme", BusinessType: "bakery", ProjectType: "site"})
	require.NoError(t, err, "publish failures are not surfaced")

	events := pub.Events()
	require.Len(t, events, 1)
	assert.Equal(t, EventToolGenerated, events[0].Type)
	assert.Equal(t, int64(9), events[0].UserID)
	assert.Equal(t, models.ToolOnboarding, events[0].ToolType)
}

type generatorFunc func(ctx context.Context, req GenerationRequest) (string, error)

func (f generatorFunc) Generate(ctx context.Context, req GenerationRequest) (string, error) {
	return f(ctx, req)
}

func TestRecordExport(t *testing.T) {
	gen := &fakeGenerator{}
	mem, svc := newToolFixture(t, gen)
	ctx := context.Background()

	id, err := svc.RecordExport(ctx, 4, models.ToolProposal, models.FormatNotion, models.ExportContent{
		"title":   "Website redesign",
		"pageUrl": "https://notion.so/abc123",
	})
	require.NoError(t, err)
	assert.Positive(t, id)
	assert.Equal(t, 0, gen.Calls())

	rows, err := mem.Store().History.ListByUser(ctx, 4, "")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	row := rows[0]
	assert.Equal(t, id, row.ID)
	assert.Equal(t, models.ActionExport, row.Action)
	require.NotNil(t, row.Format)
	assert.Equal(t, models.FormatNotion, *row.Format)
	assert.Empty(t, row.Output)
	require.NotNil(t, row.Metadata)
	assert.JSONEq(t, `{"pageUrl":"https://notion.so/abc123"}`, *row.Metadata)
	assert.JSONEq(t, `{"title":"Website redesign","pageUrl":"https://notion.so/abc123"}`, row.Input)
}

func TestRecordExport_PDFWithoutContent(t *testing.T) {
	mem, svc := newToolFixture(t, &fakeGenerator{})

	_, err := svc.RecordExport(context.Background(), 4, models.ToolEmail, models.FormatPDF, nil)
	require.NoError(t, err)

	rows, err := mem.Store().History.ListByUser(context.Background(), 4, models.ToolEmail)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "{}", rows[0].Input)
	assert.Nil(t, rows[0].Metadata)
}

func TestRecordExport_Validation(t *testing.T) {
	mem, svc := newToolFixture(t, &fakeGenerator{})

	_, err := svc.RecordExport(context.Background(), 1, "poem", models.FormatPDF, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.RecordExport(context.Background(), 1, models.ToolBrief, "Word", nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	assert.Equal(t, 0, mem.HistoryCount())
}

func TestHistory_RejectsUnknownTool(t *testing.T) {
	_, svc := newToolFixture(t, &fakeGenerator{})

	_, err := svc.History(context.Background(), 1, "poem")
	assert.ErrorIs(t, err, ErrInvalidInput)

	rows, err := svc.History(context.Background(), 1, "")
	require.NoError(t, err)
	assert.Empty(t, rows)
}
