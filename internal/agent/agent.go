// Package agent implements the agent procedures: create, getMany, getOne
// and update. Every procedure is scoped to the calling user.
package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/quantummeet/quantummeet/internal/models"
	"github.com/quantummeet/quantummeet/internal/rpc"
	"gorm.io/gorm"
)

// meetingCountSelect adds the number of meetings that reference each agent.
const meetingCountSelect = "agents.*, (SELECT COUNT(*) FROM meetings WHERE meetings.agent_id = agents.id) AS meeting_count"

// CreateInput is the input of agents.create.
type CreateInput struct {
	Name         string `json:"name" validate:"required,max=255"`
	Instructions string `json:"instructions" validate:"required"`
}

// UpdateInput is the input of agents.update. Nil fields are left unchanged.
type UpdateInput struct {
	ID           string  `json:"id" validate:"required"`
	Name         *string `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Instructions *string `json:"instructions,omitempty" validate:"omitempty,min=1"`
}

// GetOneInput is the input of agents.getOne.
type GetOneInput struct {
	ID string `json:"id" validate:"required"`
}

// Row is an agent as returned to callers.
type Row struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Instructions string    `json:"instructions"`
	UserID       string    `json:"userId"`
	MeetingCount int64     `json:"meetingCount"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Create inserts an agent owned by userID.
func Create(ctx context.Context, db *gorm.DB, userID string, in CreateInput) (*Row, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := rpc.Validate(in); err != nil {
		return nil, err
	}

	a := models.Agent{
		Name:         in.Name,
		Instructions: in.Instructions,
		UserID:       userID,
	}
	if err := db.WithContext(ctx).Create(&a).Error; err != nil {
		return nil, fmt.Errorf("agent: create: %w", err)
	}
	return &Row{
		ID:           a.ID,
		Name:         a.Name,
		Instructions: a.Instructions,
		UserID:       a.UserID,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}, nil
}

// GetMany returns one page of the caller's agents, newest first, optionally
// filtered by a case-insensitive substring of the name.
func GetMany(ctx context.Context, db *gorm.DB, userID string, in rpc.PageInput) (*rpc.Page[Row], error) {
	p, err := in.Resolve()
	if err != nil {
		return nil, err
	}

	scope := func(tx *gorm.DB) *gorm.DB {
		tx = tx.Where("agents.user_id = ?", userID)
		if p.Search != "" {
			tx = tx.Where("agents.name_search LIKE ? ESCAPE '"+rpc.LikeEscape+"'", rpc.LikePattern(p.Search))
		}
		return tx
	}

	rows := []Row{}
	if err := db.WithContext(ctx).Model(&models.Agent{}).
		Select(meetingCountSelect).
		Scopes(scope).
		Order("agents.created_at DESC, agents.id DESC").
		Limit(p.PageSize).
		Offset(p.Offset()).
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("agent: list: %w", err)
	}
	if rows == nil {
		rows = []Row{}
	}

	var total int64
	if err := db.WithContext(ctx).Model(&models.Agent{}).
		Scopes(scope).
		Count(&total).Error; err != nil {
		return nil, fmt.Errorf("agent: count: %w", err)
	}

	return &rpc.Page[Row]{
		Items:      rows,
		Total:      total,
		TotalPages: p.TotalPages(total),
	}, nil
}

// GetOne returns the caller's agent with the given id.
func GetOne(ctx context.Context, db *gorm.DB, userID string, in GetOneInput) (*Row, error) {
	if err := rpc.Validate(in); err != nil {
		return nil, err
	}

	var rows []Row
	if err := db.WithContext(ctx).Model(&models.Agent{}).
		Select(meetingCountSelect).
		Where("agents.id = ? AND agents.user_id = ?", in.ID, userID).
		Limit(1).
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("agent: get %s: %w", in.ID, err)
	}
	if len(rows) == 0 {
		return nil, rpc.NotFound("Agent not found")
	}
	return &rows[0], nil
}

// Update applies a partial update to the caller's agent.
func Update(ctx context.Context, db *gorm.DB, userID string, in UpdateInput) (*Row, error) {
	if in.Name != nil {
		trimmed := strings.TrimSpace(*in.Name)
		in.Name = &trimmed
	}
	if err := rpc.Validate(in); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{"updated_at": time.Now()}
	if in.Name != nil {
		updates["name"] = *in.Name
		updates["name_search"] = models.SearchKey(*in.Name)
	}
	if in.Instructions != nil {
		updates["instructions"] = *in.Instructions
	}

	result := db.WithContext(ctx).Model(&models.Agent{}).
		Where("id = ? AND user_id = ?", in.ID, userID).
		Updates(updates)
	if result.Error != nil {
		return nil, fmt.Errorf("agent: update %s: %w", in.ID, result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, rpc.NotFound("Agent not found")
	}
	return GetOne(ctx, db, userID, GetOneInput{ID: in.ID})
}

// Owned reports whether agentID exists and belongs to userID.
func Owned(ctx context.Context, db *gorm.DB, userID, agentID string) error {
	var a models.Agent
	err := db.WithContext(ctx).Select("id").
		Where("id = ? AND user_id = ?", agentID, userID).
		First(&a).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return rpc.NotFound("Agent not found")
		}
		return fmt.Errorf("agent: check %s: %w", agentID, err)
	}
	return nil
}
