package appointment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hackgods/practice-calendar/internal/calendar"
)

// TimeBlockInput is the edit form for a single existing block.
type TimeBlockInput struct {
	Title    string
	Notes    *string
	StartsAt time.Time
	EndsAt   time.Time
}

// CreateTimeBlocks stores one block per day of the date range.
func (s *Service) CreateTimeBlocks(ctx context.Context, practitionerID uuid.UUID, in calendar.BlockSpec) ([]TimeBlock, error) {
	intervals, err := calendar.ExpandBlocks(in, s.cal.Location)
	if err != nil {
		return nil, err
	}

	rows := make([]TimeBlock, len(intervals))
	for i, iv := range intervals {
		rows[i] = TimeBlock{
			PractitionerID: practitionerID,
			Title:          iv.Title,
			StartsAt:       iv.StartsAt,
			EndsAt:         iv.EndsAt,
			Notes:          optionalString(iv.Notes),
		}
	}

	created, err := s.repo.CreateTimeBlocks(ctx, rows)
	if err != nil {
		return nil, fmt.Errorf("create time blocks: %w", err)
	}

	s.metrics.TimeBlocksCreated(len(created))
	s.logger.Info("time blocks created",
		zap.String("practitioner_id", practitionerID.String()),
		zap.String("title", in.Title),
		zap.Int("days", len(created)),
	)
	return created, nil
}

func (s *Service) UpdateTimeBlock(ctx context.Context, id uuid.UUID, in TimeBlockInput) (*TimeBlock, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, calendar.ErrEmptyTitle
	}
	if !in.EndsAt.After(in.StartsAt) {
		return nil, calendar.ErrInvalidInterval
	}

	existing, err := s.repo.GetTimeBlockByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrTimeBlockNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load time block: %w", err)
	}

	existing.Title = strings.TrimSpace(in.Title)
	existing.Notes = in.Notes
	existing.StartsAt = in.StartsAt
	existing.EndsAt = in.EndsAt

	updated, err := s.repo.UpdateTimeBlock(ctx, *existing)
	if err != nil {
		return nil, fmt.Errorf("update time block: %w", err)
	}
	return updated, nil
}

func (s *Service) DeleteTimeBlock(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteTimeBlock(ctx, id); err != nil {
		if errors.Is(err, ErrTimeBlockNotFound) {
			return err
		}
		return fmt.Errorf("delete time block: %w", err)
	}
	return nil
}

func optionalString(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}
