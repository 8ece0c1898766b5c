package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/pancakepress/posts-api/internal/events"
	"github.com/pancakepress/posts-api/internal/observability"
)

// AuditService records who changed which post.
type AuditService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// NewAuditService creates the service.
func NewAuditService(dispatcher events.Dispatcher, logger *zap.Logger, metrics *observability.Metrics) *AuditService {
	return &AuditService{dispatcher: dispatcher, logger: logger, metrics: metrics}
}

// RegisterHandlers subscribes to post events.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	for _, t := range []events.EventType{events.EventPostCreated, events.EventPostUpdated, events.EventPostDeleted} {
		a.dispatcher.Subscribe(t, a.handlePostEvent)
	}
}

func (a *AuditService) handlePostEvent(_ context.Context, event events.Event) error {
	a.metrics.RecordPostEvent(string(event.Type))
	a.logger.Info("post audit",
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)),
		zap.Int64("post_id", event.PostID),
		zap.String("actor", event.Actor),
		zap.Time("at", event.Timestamp),
	)
	return nil
}
