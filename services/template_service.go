package services

import (
	"context"
	"fmt"
	"strings"

	"stayhub-backend/apperrors"
	"stayhub-backend/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type TemplateRepo interface {
	TemplateLookup
	List(ctx context.Context, category string, active *bool) ([]models.MessageTemplate, error)
	Create(ctx context.Context, t *models.MessageTemplate) error
	Save(ctx context.Context, t *models.MessageTemplate) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountSchedules(ctx context.Context, id uuid.UUID, activeOnly bool) (int64, error)
	KeyTaken(ctx context.Context, key string, except uuid.UUID) (bool, error)
}

type TemplateInput struct {
	Key       *string `json:"key"`
	Name      *string `json:"name"`
	Content   *string `json:"content"`
	Variables *string `json:"variables"`
	Category  *string `json:"category"`
	IsActive  *bool   `json:"isActive"`
}

type TemplateView struct {
	models.MessageTemplate
	ScheduleCount int64 `json:"scheduleCount"`
}

type TemplatePreview struct {
	Rendered   string   `json:"rendered"`
	Variables  []string `json:"variablesUsed"`
	Unresolved []string `json:"unresolved"`
}

type TemplateService struct {
	templates TemplateRepo
	renderer  *Renderer
	logger    *zap.Logger
}

func NewTemplateService(templates TemplateRepo, logger *zap.Logger) *TemplateService {
	return &TemplateService{
		templates: templates,
		renderer:  NewRenderer(templates, logger),
		logger:    logger,
	}
}

func (s *TemplateService) List(ctx context.Context, category string, active *bool) ([]TemplateView, error) {
	templates, err := s.templates.List(ctx, category, active)
	if err != nil {
		return nil, err
	}

	out := make([]TemplateView, 0, len(templates))
	for _, t := range templates {
		n, err := s.templates.CountSchedules(ctx, t.ID, false)
		if err != nil {
			return nil, err
		}
		out = append(out, TemplateView{MessageTemplate: t, ScheduleCount: n})
	}
	return out, nil
}

func (s *TemplateService) Get(ctx context.Context, id uuid.UUID) (*TemplateView, error) {
	t, err := s.templates.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	n, err := s.templates.CountSchedules(ctx, id, false)
	if err != nil {
		return nil, err
	}
	return &TemplateView{MessageTemplate: *t, ScheduleCount: n}, nil
}

func (s *TemplateService) Create(ctx context.Context, in TemplateInput) (*models.MessageTemplate, error) {
	t := &models.MessageTemplate{IsActive: true}
	in.apply(t)

	if err := s.validate(ctx, t); err != nil {
		return nil, err
	}
	if err := s.templates.Create(ctx, t); err != nil {
		return nil, err
	}

	s.logger.Info("template created", zap.String("template_id", t.ID.String()), zap.String("key", t.Key))
	return t, nil
}

// Update applies only the fields present in the input.
func (s *TemplateService) Update(ctx context.Context, id uuid.UUID, in TemplateInput) (*models.MessageTemplate, error) {
	t, err := s.templates.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	in.apply(t)

	if err := s.validate(ctx, t); err != nil {
		return nil, err
	}
	if err := s.templates.Save(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Delete refuses templates that active schedules still use.
func (s *TemplateService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.templates.GetByID(ctx, id); err != nil {
		return err
	}

	n, err := s.templates.CountSchedules(ctx, id, true)
	if err != nil {
		return err
	}
	if n > 0 {
		return apperrors.NewValidation("template", fmt.Sprintf("used by %d active schedule(s)", n))
	}
	return s.templates.Delete(ctx, id)
}

// Preview renders the template with caller-supplied variables.
func (s *TemplateService) Preview(ctx context.Context, id uuid.UUID, vars map[string]any) (*TemplatePreview, error) {
	t, err := s.templates.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	rendered, unresolved := Substitute(t.Content, vars)
	if unresolved == nil {
		unresolved = []string{}
	}
	return &TemplatePreview{
		Rendered:   rendered,
		Variables:  Placeholders(t.Content),
		Unresolved: unresolved,
	}, nil
}

// Render renders the active template under key.
func (s *TemplateService) Render(ctx context.Context, key string, vars map[string]any) (string, error) {
	return s.renderer.Render(ctx, key, vars)
}

func (s *TemplateService) validate(ctx context.Context, t *models.MessageTemplate) error {
	if strings.TrimSpace(t.Key) == "" {
		return apperrors.NewValidation("key", "is required")
	}
	if strings.TrimSpace(t.Name) == "" {
		return apperrors.NewValidation("name", "is required")
	}
	if strings.TrimSpace(t.Content) == "" {
		return apperrors.NewValidation("content", "is required")
	}

	taken, err := s.templates.KeyTaken(ctx, t.Key, t.ID)
	if err != nil {
		return err
	}
	if taken {
		return apperrors.NewValidation("key", fmt.Sprintf("%q already exists", t.Key))
	}
	return nil
}

func (in TemplateInput) apply(t *models.MessageTemplate) {
	if in.Key != nil {
		t.Key = strings.TrimSpace(*in.Key)
	}
	if in.Name != nil {
		t.Name = *in.Name
	}
	if in.Content != nil {
		t.Content = *in.Content
	}
	if in.Variables != nil {
		t.Variables = *in.Variables
	}
	if in.Category != nil {
		t.Category = *in.Category
	}
	if in.IsActive != nil {
		t.IsActive = *in.IsActive
	}
}
