package service

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/rl1809/bookshop/internal/core/domain"
	"github.com/rl1809/bookshop/internal/port"
)

type MemberService struct {
	db     port.DatabaseRepository
	events port.EventPublisher
	logger *zap.Logger
}

func NewMemberService(db port.DatabaseRepository, events port.EventPublisher, logger *zap.Logger) *MemberService {
	return &MemberService{
		db:     db,
		events: events,
		logger: orNop(logger),
	}
}

// Join registers a member whose name is not taken yet and returns its ID.
func (s *MemberService) Join(ctx context.Context, member domain.Member) (int64, error) {
	ctx, span := tracer().Start(ctx, "member.join")
	defer span.End()
	span.SetAttributes(attribute.String("member.name", member.Name))

	if err := member.Validate(); err != nil {
		recordError(span, err)
		return 0, err
	}

	var id int64
	err := s.db.RunAtomic(ctx, func(ctx context.Context) error {
		existing, err := s.db.FindMembersByName(ctx, member.Name)
		if err != nil {
			return fmt.Errorf("find members by name: %w", err)
		}
		if err := domain.CheckUniqueName(member.Name, existing); err != nil {
			return err
		}

		id, err = s.db.SaveMember(ctx, member)
		if err != nil {
			return fmt.Errorf("save member: %w", err)
		}
		return nil
	})
	if err != nil {
		recordError(span, err)
		return 0, err
	}

	span.SetAttributes(attribute.Int64("member.id", id))
	s.logger.Info("member joined", zap.Int64("member_id", id), zap.String("name", member.Name))

	publish(ctx, s.events, s.logger, domain.Event{
		Type:       domain.EventMemberJoined,
		Key:        id,
		OccurredAt: time.Now().UTC(),
		Payload:    domain.MemberJoined{MemberID: id, Name: member.Name},
	})
	return id, nil
}

func (s *MemberService) FindOne(ctx context.Context, id int64) (*domain.Member, error) {
	m, err := s.db.FindMember(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find member: %w", err)
	}
	if m == nil {
		return nil, ErrMemberNotFound
	}
	return m, nil
}

func (s *MemberService) FindMembers(ctx context.Context) ([]domain.Member, error) {
	members, err := s.db.FindMembers(ctx)
	if err != nil {
		return nil, fmt.Errorf("find members: %w", err)
	}
	return members, nil
}
