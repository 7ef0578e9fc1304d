package models

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MovementParams are the query-string filters accepted by the movement
// listing endpoints.
type MovementParams struct {
	TankID   *uuid.UUID
	Kind     *MovementKind
	From     *time.Time
	To       *time.Time
	Page     int
	PageSize int
}

// ParseMovementParams reads listing filters from the request query string.
func ParseMovementParams(r *http.Request) (*MovementParams, error) {
	q := r.URL.Query()
	params := &MovementParams{Page: 1, PageSize: 50}

	if v := q.Get("tank_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return nil, fmt.Errorf("invalid tank_id %q", v)
		}
		params.TankID = &id
	}
	if v := q.Get("kind"); v != "" {
		k := MovementKind(v)
		switch k {
		case MovementIntake, MovementFuelingOut, MovementTransferOut, MovementTransferIn:
			params.Kind = &k
		default:
			return nil, fmt.Errorf("invalid kind %q", v)
		}
	}
	if v := q.Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return nil, fmt.Errorf("invalid from date %q", v)
		}
		params.From = &t
	}
	if v := q.Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return nil, fmt.Errorf("invalid to date %q", v)
		}
		params.To = &t
	}
	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid page %q", v)
		}
		params.Page = n
	}
	if v := q.Get("page_size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 500 {
			return nil, fmt.Errorf("invalid page_size %q (1-500)", v)
		}
		params.PageSize = n
	}
	return params, nil
}

// MovementPage is one page of movements plus paging metadata.
type MovementPage struct {
	Items    []FuelMovement `json:"items"`
	Total    int64          `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"pageSize"`
}

// ListMovements returns movements matching the filters, newest first, with
// allocation breakdowns preloaded.
func ListMovements(db *gorm.DB, params *MovementParams) (*MovementPage, error) {
	query := db.Model(&FuelMovement{})
	if params.TankID != nil {
		query = query.Where("tank_id = ?", *params.TankID)
	}
	if params.Kind != nil {
		query = query.Where("kind = ?", *params.Kind)
	}
	if params.From != nil {
		query = query.Where("occurred_at >= ?", *params.From)
	}
	if params.To != nil {
		query = query.Where("occurred_at <= ?", *params.To)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var items []FuelMovement
	err := query.
		Preload("Allocations", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Order("occurred_at DESC").
		Offset((params.Page - 1) * params.PageSize).
		Limit(params.PageSize).
		Find(&items).Error
	if err != nil {
		return nil, err
	}

	return &MovementPage{
		Items:    items,
		Total:    total,
		Page:     params.Page,
		PageSize: params.PageSize,
	}, nil
}
