package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"go.uber.org/zap"

	"lyra-backend-go/internal/db"
	"lyra-backend-go/internal/models"
)

// GenerationTemperature is the creativity setting used for every tool.
const GenerationTemperature float32 = 0.7

type toolService struct {
	generator TextGenerator
	history   db.HistoryRepository
	publisher ActivityPublisher
	validate  *validator.Validate
	now       func() time.Time
	timeout   time.Duration
	logger    *zap.Logger
}

// ToolOption configures the tool service.
type ToolOption func(*toolService)

// WithToolClock sets the time source used to measure generation time.
func WithToolClock(now func() time.Time) ToolOption {
	return func(s *toolService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithGenerationTimeout bounds each provider call.
func WithGenerationTimeout(d time.Duration) ToolOption {
	return func(s *toolService) { s.timeout = d }
}

// WithActivityPublisher forwards generate and export events to p.
func WithActivityPublisher(p ActivityPublisher) ToolOption {
	return func(s *toolService) {
		if p != nil {
			s.publisher = p
		}
	}
}

// NewToolService creates the tool gateway. A nil generator makes every
// invocation fail with ErrGenerationFailed.
func NewToolService(generator TextGenerator, history db.HistoryRepository, logger *zap.Logger, opts ...ToolOption) ToolService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &toolService{
		generator: generator,
		history:   history,
		publisher: NopPublisher{},
		validate:  NewValidator(),
		now:       time.Now,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewValidator returns a validator that reports fields by their JSON names.
// It also knows the "notblank" tag, which rejects whitespace-only strings.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(JSONFieldName)
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}
	return v
}

// JSONFieldName returns the JSON name of a struct field, falling back to the Go name.
func JSONFieldName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	switch name {
	case "-":
		return ""
	case "":
		return fld.Name
	}
	return name
}

// missingFields lists the JSON names of fields failing validation on input.
func (s *toolService) missingFields(input models.ToolInput) ([]string, error) {
	err := s.validate.Struct(input)
	if err == nil {
		return nil, nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, err
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
	}
	return fields, nil
}

// Invoke validates input, generates text and archives the invocation.
// Validation failures never reach the provider. A provider failure writes no
// history. A history failure is logged and the text is still returned.
func (s *toolService) Invoke(ctx context.Context, userID int64, input models.ToolInput) (*models.ToolResult, error) {
	if input == nil {
		return nil, &InvalidInputError{Reason: "request body is required"}
	}
	toolType := input.ToolType()

	missing, err := s.missingFields(input)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if len(missing) > 0 {
		return nil, &InvalidInputError{Fields: missing}
	}

	start := s.now()

	prompt, err := RenderPrompt(input)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	text, err := s.generate(ctx, prompt)
	if err != nil {
		s.logger.Warn("Generation failed",
			zap.Int64("userID", userID),
			zap.String("toolType", string(toolType)),
			zap.Error(err))
		return nil, err
	}

	elapsed := s.now().Sub(start).Seconds()
	if elapsed < 0 {
		elapsed = 0
	}

	s.archive(ctx, userID, input, text, elapsed)

	return &models.ToolResult{Text: text, GenerationTime: elapsed}, nil
}

func (s *toolService) generate(ctx context.Context, prompt string) (string, error) {
	if s.generator == nil {
		return "", &GenerationFailedError{Message: "language model provider is not configured"}
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	text, err := s.generator.Generate(ctx, GenerationRequest{
		Prompt:      prompt,
		Temperature: GenerationTemperature,
		Candidates:  1,
	})
	if err != nil {
		return "", &GenerationFailedError{Message: err.Error(), Err: err}
	}
	if strings.TrimSpace(text) == "" {
		return "", &GenerationFailedError{Message: "language model returned an empty completion"}
	}
	return text, nil
}

// archive is best effort: failures are logged, never returned.
func (s *toolService) archive(ctx context.Context, userID int64, input models.ToolInput, text string, elapsed float64) {
	toolType := input.ToolType()
	serialized, err := input.HistoryInput()
	if err != nil {
		s.logger.Error("Failed to serialize tool input for history",
			zap.Int64("userID", userID), zap.String("toolType", string(toolType)), zap.Error(err))
		return
	}

	rounded := int(math.Round(elapsed))
	entry, err := s.history.Create(ctx, &models.ToolHistory{
		UserID:         userID,
		ToolType:       toolType,
		Action:         models.ActionGenerate,
		Input:          serialized,
		Output:         text,
		GenerationTime: &rounded,
	})
	if err != nil {
		s.logger.Error("Failed to record tool history",
			zap.Int64("userID", userID), zap.String("toolType", string(toolType)), zap.Error(err))
		return
	}

	s.publish(ctx, ActivityEvent{
		Type:      EventToolGenerated,
		UserID:    userID,
		ToolType:  toolType,
		HistoryID: entry.ID,
		At:        entry.CreatedAt,
	})
}

// RecordExport archives an export action. It never calls the language model.
func (s *toolService) RecordExport(ctx context.Context, userID int64, toolType models.ToolType, format string, content models.ExportContent) (int64, error) {
	if !toolType.Valid() {
		return 0, invalidField("toolType", fmt.Sprintf("%q is not a known tool", toolType))
	}
	if !models.ValidExportFormat(format) {
		return 0, invalidField("format", fmt.Sprintf("must be %s or %s", models.FormatPDF, models.FormatNotion))
	}

	if content == nil {
		content = models.ExportContent{}
	}
	input, err := json.Marshal(content)
	if err != nil {
		return 0, invalidField("content", "is not serializable: "+err.Error())
	}

	entry := &models.ToolHistory{
		UserID:         userID,
		ToolType:       toolType,
		Action:         models.ActionExport,
		Format:         &format,
		Input:          string(input),
		Output:         "",
		GenerationTime: new(int),
	}
	if pageURL := content.PageURL(); pageURL != "" {
		md, err := json.Marshal(map[string]string{"pageUrl": pageURL})
		if err != nil {
			return 0, fmt.Errorf("failed to encode export metadata: %w", err)
		}
		metadata := string(md)
		entry.Metadata = &metadata
	}

	created, err := s.history.Create(ctx, entry)
	if err != nil {
		return 0, fmt.Errorf("failed to record %s export for user %d: %w", format, userID, err)
	}

	s.publish(ctx, ActivityEvent{
		Type:      EventToolExported,
		UserID:    userID,
		ToolType:  toolType,
		HistoryID: created.ID,
		Format:    format,
		At:        created.CreatedAt,
	})
	return created.ID, nil
}

// History lists the principal's records newest first.
func (s *toolService) History(ctx context.Context, userID int64, toolType models.ToolType) ([]*models.ToolHistory, error) {
	if toolType != "" && !toolType.Valid() {
		return nil, invalidField("tool", fmt.Sprintf("%q is not a known tool", toolType))
	}
	entries, err := s.history.ListByUser(ctx, userID, toolType)
	if err != nil {
		return nil, fmt.Errorf("failed to list history for user %d: %w", userID, err)
	}
	return entries, nil
}

func (s *toolService) publish(ctx context.Context, event ActivityEvent) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("Failed to publish activity event",
			zap.String("type", event.Type), zap.Int64("userID", event.UserID), zap.Error(err))
	}
}
