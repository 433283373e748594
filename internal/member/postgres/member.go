package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/sekreterlik/sekreterlik/internal/member"
)

func NewMemberRepository(db *sqlx.DB) member.Repository {
	return &memberRepo{db: db}
}

type memberRepo struct {
	db *sqlx.DB
}

const selectMember = `
SELECT id, username, COALESCE(name, '') AS name, role, COALESCE(position, '') AS position,
       member_id, town_id, is_active
FROM users
WHERE id = $1
`

func (p *memberRepo) GetByID(ctx context.Context, id int64) (*member.Profile, error) {
	var m member.Profile
	if err := p.db.GetContext(ctx, &m, selectMember, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get member query: %w", err)
	}
	return &m, nil
}
