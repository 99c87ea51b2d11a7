// Package meeting implements the meeting procedures: create, getMany,
// getOne and update. Every procedure is scoped to the calling user.
package meeting

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/quantummeet/quantummeet/internal/agent"
	"github.com/quantummeet/quantummeet/internal/models"
	"github.com/quantummeet/quantummeet/internal/rpc"
	"gorm.io/gorm"
)

// CreateInput is the input of meetings.create.
type CreateInput struct {
	Name    string `json:"name" validate:"required,max=255"`
	AgentID string `json:"agentId" validate:"required"`
}

// UpdateInput is the input of meetings.update. Nil fields are left unchanged.
type UpdateInput struct {
	ID        string     `json:"id" validate:"required"`
	Name      *string    `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	AgentID   *string    `json:"agentId,omitempty" validate:"omitempty,min=1"`
	Status    *string    `json:"status,omitempty" validate:"omitempty,oneof=upcoming active completed processing cancelled"`
	StartedAt *time.Time `json:"startedAt,omitempty"`
	EndedAt   *time.Time `json:"endedAt,omitempty"`
	Summary   *string    `json:"summary,omitempty"`
}

// ListInput is the input of meetings.getMany.
type ListInput struct {
	rpc.PageInput
	AgentID *string `json:"agentId,omitempty"`
	Status  *string `json:"status,omitempty" validate:"omitempty,oneof=upcoming active completed processing cancelled"`
}

// GetOneInput is the input of meetings.getOne.
type GetOneInput struct {
	ID string `json:"id" validate:"required"`
}

// AgentRef is the agent embedded in a meeting row.
type AgentRef struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Instructions string `json:"instructions"`
}

// Row is a meeting as returned to callers. Duration is derived from the
// start and end timestamps, in seconds, and is null until both are set.
type Row struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	AgentID       string     `json:"agentId"`
	UserID        string     `json:"userId"`
	Status        string     `json:"status"`
	StartedAt     *time.Time `json:"startedAt"`
	EndedAt       *time.Time `json:"endedAt"`
	TranscriptURL string     `json:"transcriptUrl"`
	RecordingURL  string     `json:"recordingUrl"`
	Summary       string     `json:"summary"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
	Agent         *AgentRef  `json:"agent,omitempty"`
	Duration      *float64   `json:"duration"`
}

var errEndBeforeStart = rpc.Errorf(rpc.CodeBadRequest, "endedAt must not be before startedAt")

// GetOneOption tunes GetOne.
type GetOneOption func(*getOneOpts)

type getOneOpts struct {
	delay time.Duration
}

// WithDelay holds GetOne's result back for d, to exercise loading states.
func WithDelay(d time.Duration) GetOneOption {
	return func(o *getOneOpts) { o.delay = d }
}

// Create inserts a meeting owned by userID. The agent must belong to the
// caller.
func Create(ctx context.Context, db *gorm.DB, userID string, in CreateInput) (*Row, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := rpc.Validate(in); err != nil {
		return nil, err
	}
	if err := agent.Owned(ctx, db, userID, in.AgentID); err != nil {
		return nil, err
	}

	m := models.Meeting{
		Name:    in.Name,
		AgentID: in.AgentID,
		UserID:  userID,
		Status:  models.MeetingUpcoming,
	}
	if err := db.WithContext(ctx).Create(&m).Error; err != nil {
		return nil, fmt.Errorf("meeting: create: %w", err)
	}
	return toRow(m, false), nil
}

// GetMany returns one page of the caller's meetings joined with their
// agent, newest first, optionally filtered by a case-insensitive substring
// of the name, by agent and by status.
func GetMany(ctx context.Context, db *gorm.DB, userID string, in ListInput) (*rpc.Page[Row], error) {
	if err := rpc.Validate(in); err != nil {
		return nil, err
	}
	p, err := in.PageInput.Resolve()
	if err != nil {
		return nil, err
	}

	scope := func(tx *gorm.DB) *gorm.DB {
		tx = tx.Where("meetings.user_id = ?", userID)
		if p.Search != "" {
			tx = tx.Where("meetings.name_search LIKE ? ESCAPE '"+rpc.LikeEscape+"'", rpc.LikePattern(p.Search))
		}
		if in.AgentID != nil && *in.AgentID != "" {
			tx = tx.Where("meetings.agent_id = ?", *in.AgentID)
		}
		if in.Status != nil && *in.Status != "" {
			tx = tx.Where("meetings.status = ?", *in.Status)
		}
		return tx
	}

	var meetings []models.Meeting
	if err := db.WithContext(ctx).Model(&models.Meeting{}).
		InnerJoins("Agent").
		Scopes(scope).
		Order("meetings.created_at DESC, meetings.id DESC").
		Limit(p.PageSize).
		Offset(p.Offset()).
		Find(&meetings).Error; err != nil {
		return nil, fmt.Errorf("meeting: list: %w", err)
	}

	// Same join and filters as the page query, so total and items agree.
	var total int64
	if err := db.WithContext(ctx).Model(&models.Meeting{}).
		Joins("JOIN agents ON agents.id = meetings.agent_id").
		Scopes(scope).
		Count(&total).Error; err != nil {
		return nil, fmt.Errorf("meeting: count: %w", err)
	}

	rows := make([]Row, len(meetings))
	for i, m := range meetings {
		rows[i] = *toRow(m, true)
	}
	return &rpc.Page[Row]{
		Items:      rows,
		Total:      total,
		TotalPages: p.TotalPages(total),
	}, nil
}

// GetOne returns the caller's meeting with the given id.
func GetOne(ctx context.Context, db *gorm.DB, userID string, in GetOneInput, opts ...GetOneOption) (*Row, error) {
	var o getOneOpts
	for _, opt := range opts {
		opt(&o)
	}
	if err := rpc.Validate(in); err != nil {
		return nil, err
	}

	m, err := find(ctx, db, userID, in.ID)
	if err != nil {
		return nil, err
	}

	if o.delay > 0 {
		timer := time.NewTimer(o.delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return nil, fmt.Errorf("meeting: get %s: %w", in.ID, ctx.Err())
		}
	}
	return toRow(*m, m.Agent.ID != ""), nil
}

// Update applies a partial update to the caller's meeting. A meeting that
// does not exist or belongs to someone else is NOT_FOUND and is left as is.
// The resulting endedAt must not be before startedAt, counting stored values
// for whichever side is not being changed.
func Update(ctx context.Context, db *gorm.DB, userID string, in UpdateInput) (*Row, error) {
	if in.Name != nil {
		trimmed := strings.TrimSpace(*in.Name)
		in.Name = &trimmed
	}
	if err := rpc.Validate(in); err != nil {
		return nil, err
	}
	if in.StartedAt != nil && in.EndedAt != nil && in.EndedAt.Before(*in.StartedAt) {
		return nil, errEndBeforeStart
	}

	var m *models.Meeting
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := find(ctx, tx, userID, in.ID)
		if err != nil {
			return err
		}
		started, ended := current.StartedAt, current.EndedAt
		if in.StartedAt != nil {
			started = in.StartedAt
		}
		if in.EndedAt != nil {
			ended = in.EndedAt
		}
		if started != nil && ended != nil && ended.Before(*started) {
			return errEndBeforeStart
		}
		if in.AgentID != nil {
			if err := agent.Owned(ctx, tx, userID, *in.AgentID); err != nil {
				return err
			}
		}

		updates := map[string]interface{}{"updated_at": time.Now()}
		if in.Name != nil {
			updates["name"] = *in.Name
			updates["name_search"] = models.SearchKey(*in.Name)
		}
		if in.AgentID != nil {
			updates["agent_id"] = *in.AgentID
		}
		if in.Status != nil {
			updates["status"] = *in.Status
		}
		if in.StartedAt != nil {
			updates["started_at"] = *in.StartedAt
		}
		if in.EndedAt != nil {
			updates["ended_at"] = *in.EndedAt
		}
		if in.Summary != nil {
			updates["summary"] = *in.Summary
		}

		result := tx.Model(&models.Meeting{}).
			Where("id = ? AND user_id = ?", in.ID, userID).
			Updates(updates)
		if result.Error != nil {
			return fmt.Errorf("meeting: update %s: %w", in.ID, result.Error)
		}
		if result.RowsAffected == 0 {
			return rpc.NotFound("Meeting not found")
		}

		m, err = find(ctx, tx, userID, in.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return toRow(*m, m.Agent.ID != ""), nil
}

// find loads a meeting scoped to its owner, with its agent when present.
func find(ctx context.Context, db *gorm.DB, userID, id string) (*models.Meeting, error) {
	var m models.Meeting
	err := db.WithContext(ctx).
		Joins("Agent").
		Where("meetings.id = ? AND meetings.user_id = ?", id, userID).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, rpc.NotFound("Meeting not found")
		}
		return nil, fmt.Errorf("meeting: get %s: %w", id, err)
	}
	return &m, nil
}

func toRow(m models.Meeting, withAgent bool) *Row {
	row := &Row{
		ID:            m.ID,
		Name:          m.Name,
		AgentID:       m.AgentID,
		UserID:        m.UserID,
		Status:        m.Status,
		StartedAt:     m.StartedAt,
		EndedAt:       m.EndedAt,
		TranscriptURL: m.TranscriptURL,
		RecordingURL:  m.RecordingURL,
		Summary:       m.Summary,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
	if withAgent {
		row.Agent = &AgentRef{
			ID:           m.Agent.ID,
			Name:         m.Agent.Name,
			Instructions: m.Agent.Instructions,
		}
	}
	if d := m.Duration(); d != nil {
		secs := d.Seconds()
		row.Duration = &secs
	}
	return row
}
