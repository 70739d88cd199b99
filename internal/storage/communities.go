package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"membify/internal/stories/communities"
)

const communitiesTable = "communities"

var communityRowFields = fields(communityRow{})

type communityRow struct {
	ID              int64     `db:"id"`
	OwnerTelegramID int64     `db:"owner_telegram_id"`
	ChatID          int64     `db:"chat_id"`
	Title           string    `db:"title"`
	InviteLink      *string   `db:"invite_link"`
	PhotoURL        *string   `db:"photo_url"`
	MemberCount     int       `db:"member_count"`
	SubscriberCount int       `db:"subscriber_count"`
	TotalRevenue    int64     `db:"total_revenue"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
}

func (c communityRow) ToModel() *communities.Community {
	return &communities.Community{
		ID:              c.ID,
		OwnerTelegramID: c.OwnerTelegramID,
		ChatID:          c.ChatID,
		Title:           c.Title,
		InviteLink:      c.InviteLink,
		PhotoURL:        c.PhotoURL,
		MemberCount:     c.MemberCount,
		SubscriberCount: c.SubscriberCount,
		TotalRevenue:    c.TotalRevenue,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}

func (s *storageImpl) CreateCommunity(ctx context.Context, community communities.Community) (*communities.Community, error) {
	now := s.now()

	params := map[string]interface{}{
		"owner_telegram_id": community.OwnerTelegramID,
		"chat_id":           community.ChatID,
		"title":             community.Title,
		"invite_link":       community.InviteLink,
		"photo_url":         community.PhotoURL,
		"created_at":        now,
		"updated_at":        now,
	}

	q, args, err := s.stmpBuilder().
		Insert(communitiesTable).
		SetMap(params).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build sql query: %w", err)
	}

	result, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("db.ExecContext: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("result.LastInsertId: %w", err)
	}

	return s.GetCommunity(ctx, communities.GetCriteria{ID: &id})
}

func (s *storageImpl) GetCommunity(ctx context.Context, criteria communities.GetCriteria) (*communities.Community, error) {
	query := s.stmpBuilder().
		Select(communityRowFields).
		From(communitiesTable).
		Limit(1)

	if criteria.ID != nil {
		query = query.Where(sq.Eq{"id": *criteria.ID})
	}
	if criteria.ChatID != nil {
		query = query.Where(sq.Eq{"chat_id": *criteria.ChatID})
	}

	q, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build sql query: %w", err)
	}

	var row communityRow
	err = s.db.GetContext(ctx, &row, q, args...)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("db.GetContext: %w", err)
	}

	return row.ToModel(), nil
}

func (s *storageImpl) UpdateCommunity(ctx context.Context, criteria communities.GetCriteria, params communities.UpdateParams) (*communities.Community, error) {
	query := s.stmpBuilder().
		Update(communitiesTable).
		Set("updated_at", s.now())

	if criteria.ID != nil {
		query = query.Where(sq.Eq{"id": *criteria.ID})
	}
	if criteria.ChatID != nil {
		query = query.Where(sq.Eq{"chat_id": *criteria.ChatID})
	}

	if params.Title != nil {
		query = query.Set("title", *params.Title)
	}
	if params.InviteLink != nil {
		query = query.Set("invite_link", *params.InviteLink)
	}
	if params.PhotoURL != nil {
		query = query.Set("photo_url", *params.PhotoURL)
	}
	if params.MemberCount != nil {
		query = query.Set("member_count", *params.MemberCount)
	}
	if params.SubscriberCount != nil {
		query = query.Set("subscriber_count", *params.SubscriberCount)
	}
	if params.TotalRevenue != nil {
		query = query.Set("total_revenue", *params.TotalRevenue)
	}

	q, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build sql query: %w", err)
	}

	_, err = s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("db.ExecContext: %w", err)
	}

	return s.GetCommunity(ctx, criteria)
}

func (s *storageImpl) ListCommunities(ctx context.Context, criteria communities.ListCriteria) ([]*communities.Community, error) {
	query := s.stmpBuilder().
		Select(communityRowFields).
		From(communitiesTable)

	if len(criteria.OwnerTelegramIDs) > 0 {
		query = query.Where(sq.Eq{"owner_telegram_id": criteria.OwnerTelegramIDs})
	}

	if criteria.Limit > 0 {
		query = query.Limit(uint64(criteria.Limit))
	}
	if criteria.Offset > 0 {
		query = query.Offset(uint64(criteria.Offset))
	}

	query = query.OrderBy("created_at DESC")

	q, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build sql query: %w", err)
	}

	var rows []communityRow
	err = s.db.SelectContext(ctx, &rows, q, args...)
	if err != nil {
		return nil, fmt.Errorf("db.SelectContext: %w", err)
	}

	var result []*communities.Community
	for _, row := range rows {
		result = append(result, row.ToModel())
	}

	return result, nil
}
