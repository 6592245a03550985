package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tryohq/tryo-api/internal/domain/entity"
	"github.com/tryohq/tryo-api/internal/domain/repository"
)

const postColumns = `id, founder_name, project_name, posted_date, deadline,
	description, image_url, field, stage, compensation, roles`

type PostRepository struct {
	pool *pgxpool.Pool
}

func NewPostRepository(pool *pgxpool.Pool) *PostRepository {
	return &PostRepository{pool: pool}
}

var _ repository.PostRepository = (*PostRepository)(nil)

func scanPost(row rowScanner) (*entity.ProjectPost, error) {
	var p entity.ProjectPost
	err := row.Scan(
		&p.ID, &p.FounderName, &p.ProjectName, &p.PostedDate, &p.Deadline,
		&p.Description, &p.ImageURL, &p.Field, &p.Stage, &p.Compensation, &p.Roles,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PostRepository) Create(ctx context.Context, post *entity.ProjectPost) error {
	roles := post.Roles
	if roles == nil {
		roles = []string{}
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO posts (
			id, founder_name, project_name, posted_date, deadline,
			description, image_url, field, stage, compensation, roles
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		post.ID, post.FounderName, post.ProjectName, post.PostedDate, post.Deadline,
		post.Description, post.ImageURL, post.Field, post.Stage, post.Compensation, roles,
	)
	return err
}

func (r *PostRepository) GetByID(ctx context.Context, id string) (*entity.ProjectPost, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+postColumns+`
		FROM posts
		WHERE id = $1
	`, id)

	p, err := scanPost(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return p, err
}

func (r *PostRepository) List(ctx context.Context, f repository.PostFilter) ([]entity.ProjectPost, error) {
	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+postColumns+`
		FROM posts
		WHERE ($1 = '' OR field = $1)
		  AND posted_date >= $2
		ORDER BY posted_date DESC
		LIMIT $3
	`, string(f.Field), f.PostedAfter, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPosts(rows)
}

func (r *PostRepository) SearchText(ctx context.Context, q string, limit int) ([]entity.ProjectPost, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+postColumns+`
		FROM posts
		WHERE project_name ILIKE '%' || $1 || '%'
		   OR description ILIKE '%' || $1 || '%'
		ORDER BY posted_date DESC
		LIMIT $2
	`, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPosts(rows)
}

func collectPosts(rows pgx.Rows) ([]entity.ProjectPost, error) {
	out := make([]entity.ProjectPost, 0)
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}
