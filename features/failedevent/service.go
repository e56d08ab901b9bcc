package failedevent

import (
	"context"

	"taxdoc/apps/processor/internal/config"
)

type EventPublisher interface {
	Publish(topic string, body []byte) error
}

type Service struct {
	repo Repository
	pub  EventPublisher
}

func NewService(repo Repository, pub EventPublisher) *Service {
	return &Service{repo: repo, pub: pub}
}

func (s *Service) List(ctx context.Context) ([]FailedEvent, error) {
	return s.repo.List(ctx)
}

// Retry re-publishes a dead-lettered event onto the job-events topic and
// removes it from the store.
func (s *Service) Retry(ctx context.Context, id string) error {
	ev, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.pub.Publish(config.TopicJobEvents, ev.Payload); err != nil {
		return err
	}

	return s.repo.Delete(ctx, id)
}

func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}
