package service

import (
	"context"
	"time"

	"content-editor-be/internal/dto"
	"content-editor-be/internal/entity"
	"content-editor-be/internal/pkg/logger"
	"content-editor-be/internal/repository/scope"
	"content-editor-be/internal/repository/specification"
	"content-editor-be/internal/repository/unitofwork"
	"content-editor-be/pkg/events"

	"github.com/google/uuid"
)

type IContentService interface {
	Create(ctx context.Context, req *dto.CreateContentRequest) (*dto.CreateContentResponse, error)
	Show(ctx context.Context, entityName string, id uuid.UUID) (*dto.ShowContentResponse, error)
	List(ctx context.Context, req *dto.ListContentRequest) (*dto.ListContentResponse, error)
	Update(ctx context.Context, req *dto.UpdateContentRequest) (*dto.UpdateContentResponse, error)
	Delete(ctx context.Context, entityName string, id uuid.UUID) error
}

type contentService struct {
	uowFactory     unitofwork.RepositoryFactory
	entities       func(string) bool
	eventPublisher EventPublisher
	logger         logger.ILogger
}

func NewContentService(
	uowFactory unitofwork.RepositoryFactory,
	entities func(string) bool,
	eventPublisher EventPublisher,
	log logger.ILogger,
) IContentService {
	return &contentService{
		uowFactory:     uowFactory,
		entities:       entities,
		eventPublisher: eventPublisher,
		logger:         log,
	}
}

func (c *contentService) Create(ctx context.Context, req *dto.CreateContentRequest) (*dto.CreateContentResponse, error) {
	if !c.entities(req.Entity) {
		return nil, ErrUnknownEntity
	}

	tree, err := decodeField(req.Markdown)
	if err != nil {
		return nil, err
	}
	md, state, err := encodeField(tree)
	if err != nil {
		return nil, err
	}

	content := entity.Content{
		Id:        uuid.New(),
		Entity:    req.Entity,
		Title:     req.Title,
		Markdown:  md,
		State:     state,
		CreatedAt: time.Now(),
	}

	uow := c.uowFactory.NewUnitOfWork(ctx)
	if err := uow.ContentRepository().Create(ctx, &content); err != nil {
		return nil, err
	}

	c.logger.Info("ContentService", "Content created", map[string]interface{}{
		"content_id": content.Id,
		"entity":     content.Entity,
	})

	return &dto.CreateContentResponse{
		Id: content.Id,
	}, nil
}

func (c *contentService) Show(ctx context.Context, entityName string, id uuid.UUID) (*dto.ShowContentResponse, error) {
	content, err := c.find(ctx, c.uowFactory.NewUnitOfWork(ctx), entityName, id)
	if err != nil {
		return nil, err
	}
	return toShowContentResponse(content), nil
}

func (c *contentService) List(ctx context.Context, req *dto.ListContentRequest) (*dto.ListContentResponse, error) {
	if !c.entities(req.Entity) {
		return nil, ErrUnknownEntity
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 20
	}

	order := scope.OrderByUpdatedDesc
	if req.Sort == "created" {
		order = scope.OrderByCreatedDesc
	}

	uow := c.uowFactory.NewUnitOfWork(ctx)
	total, err := uow.ContentRepository().Count(ctx, specification.ByEntity{Entity: req.Entity})
	if err != nil {
		return nil, err
	}
	contents, err := uow.ContentRepository().FindAll(ctx,
		specification.ByEntity{Entity: req.Entity},
		specification.Scoped(order),
		specification.Pagination{Limit: limit, Offset: req.Offset},
	)
	if err != nil {
		return nil, err
	}

	items := make([]*dto.ShowContentResponse, 0, len(contents))
	for _, content := range contents {
		items = append(items, toShowContentResponse(content))
	}
	return &dto.ListContentResponse{
		Items: items,
		Total: total,
	}, nil
}

// Update replaces the field out of band. Open editor sessions keep their own
// copy; their next commit overwrites this one.
func (c *contentService) Update(ctx context.Context, req *dto.UpdateContentRequest) (*dto.UpdateContentResponse, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)
	content, err := c.find(ctx, uow, req.Entity, req.Id)
	if err != nil {
		return nil, err
	}

	tree, err := decodeField(req.Markdown)
	if err != nil {
		return nil, err
	}
	md, state, err := encodeField(tree)
	if err != nil {
		return nil, err
	}

	content.Title = req.Title
	content.Markdown = md
	content.State = state
	content.Version = 0
	content.LastSessionId = nil

	if err := uow.ContentRepository().Update(ctx, content); err != nil {
		return nil, err
	}

	return &dto.UpdateContentResponse{
		Id: content.Id,
	}, nil
}

func (c *contentService) Delete(ctx context.Context, entityName string, id uuid.UUID) error {
	uow := c.uowFactory.NewUnitOfWork(ctx)
	if _, err := c.find(ctx, uow, entityName, id); err != nil {
		return err
	}
	if err := uow.ContentRepository().Delete(ctx, id); err != nil {
		return err
	}

	if c.eventPublisher != nil {
		evt := events.BaseEvent{
			Type: events.ContentDeleted,
			Data: map[string]interface{}{
				"content_id": id,
				"entity":     entityName,
			},
			OccurredAt: time.Now(),
		}
		if err := c.eventPublisher.Publish(ctx, evt); err != nil {
			c.logger.Warn("ContentService", "Failed to publish CONTENT_DELETED event", map[string]interface{}{"error": err.Error()})
		}
	}
	return nil
}

func (c *contentService) find(ctx context.Context, uow unitofwork.UnitOfWork, entityName string, id uuid.UUID) (*entity.Content, error) {
	if !c.entities(entityName) {
		return nil, ErrUnknownEntity
	}
	content, err := uow.ContentRepository().FindOne(ctx,
		specification.ByID{ID: id},
		specification.ByEntity{Entity: entityName},
	)
	if err != nil {
		return nil, err
	}
	if content == nil {
		return nil, ErrContentNotFound
	}
	return content, nil
}

func toShowContentResponse(content *entity.Content) *dto.ShowContentResponse {
	return &dto.ShowContentResponse{
		Id:        content.Id,
		Entity:    content.Entity,
		Title:     content.Title,
		Markdown:  content.Markdown,
		State:     content.State,
		Version:   content.Version,
		CreatedAt: content.CreatedAt,
		UpdatedAt: content.UpdatedAt,
	}
}
