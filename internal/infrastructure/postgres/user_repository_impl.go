package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/go-ddd-user-credentials/internal/domain/entity"
	"github.com/oksasatya/go-ddd-user-credentials/internal/domain/repository"
)

const (
	uniqueViolation    = "23505"
	googleIDConstraint = "users_google_id_key"
)

const userColumns = `id, email, name, password_hash, role, google_id, avatar_url,
	is_email_verified, email_verification_token, email_verification_expiry,
	password_reset_token, password_reset_expiry, is_active, last_login_at,
	created_at, updated_at`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	s := u.Snapshot()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`, s.ID, s.Email, s.Name, s.PasswordHash, s.Role, s.GoogleID, s.AvatarURL,
		s.IsEmailVerified, s.EmailVerificationToken, s.EmailVerificationExpiry,
		s.PasswordResetToken, s.PasswordResetExpiry, s.IsActive, s.LastLoginAt,
		s.CreatedAt, s.UpdatedAt)
	return mapWriteError(err)
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return r.getOne(ctx, `WHERE id = $1`, id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.getOne(ctx, `WHERE email = $1`, email)
}

func (r *UserRepository) GetByGoogleID(ctx context.Context, googleID string) (*entity.User, error) {
	return r.getOne(ctx, `WHERE google_id = $1`, googleID)
}

func (r *UserRepository) GetByVerificationToken(ctx context.Context, token string) (*entity.User, error) {
	return r.getOne(ctx, `WHERE email_verification_token = $1`, token)
}

func (r *UserRepository) GetByResetToken(ctx context.Context, token string) (*entity.User, error) {
	return r.getOne(ctx, `WHERE password_reset_token = $1`, token)
}

func (r *UserRepository) Update(ctx context.Context, u *entity.User) error {
	s := u.Snapshot()
	res, err := r.pool.Exec(ctx, `
		UPDATE users
		SET email = $2, name = $3, password_hash = $4, role = $5, google_id = $6,
		    avatar_url = $7, is_email_verified = $8, email_verification_token = $9,
		    email_verification_expiry = $10, password_reset_token = $11,
		    password_reset_expiry = $12, is_active = $13, last_login_at = $14,
		    updated_at = $15
		WHERE id = $1
	`, s.ID, s.Email, s.Name, s.PasswordHash, s.Role, s.GoogleID, s.AvatarURL,
		s.IsEmailVerified, s.EmailVerificationToken, s.EmailVerificationExpiry,
		s.PasswordResetToken, s.PasswordResetExpiry, s.IsActive, s.LastLoginAt,
		s.UpdatedAt)
	if err != nil {
		return mapWriteError(err)
	}
	if res.RowsAffected() == 0 {
		return repository.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	res, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) List(ctx context.Context, f repository.ListFilter) ([]*entity.User, int, error) {
	f = f.Normalized()
	where, args := listWhere(f)

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM users`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, f.Limit, f.Offset)
	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
		SELECT %s FROM users%s
		ORDER BY created_at DESC, id
		LIMIT $%d OFFSET $%d
	`, userColumns, where, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]*entity.User, 0, f.Limit)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *UserRepository) getOne(ctx context.Context, where string, arg any) (*entity.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users `+where, arg)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

func scanUser(row pgx.Row) (*entity.User, error) {
	var s entity.UserSnapshot
	if err := row.Scan(&s.ID, &s.Email, &s.Name, &s.PasswordHash, &s.Role, &s.GoogleID,
		&s.AvatarURL, &s.IsEmailVerified, &s.EmailVerificationToken, &s.EmailVerificationExpiry,
		&s.PasswordResetToken, &s.PasswordResetExpiry, &s.IsActive, &s.LastLoginAt,
		&s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	u, err := entity.Rehydrate(s)
	if err != nil {
		return nil, fmt.Errorf("rehydrate user %s: %w", s.ID, err)
	}
	return u, nil
}

func listWhere(f repository.ListFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if f.Role != "" {
		args = append(args, f.Role)
		conds = append(conds, fmt.Sprintf("role = $%d", len(args)))
	}
	if f.Active != nil {
		args = append(args, *f.Active)
		conds = append(conds, fmt.Sprintf("is_active = $%d", len(args)))
	}
	if f.Verified != nil {
		args = append(args, *f.Verified)
		conds = append(conds, fmt.Sprintf("is_email_verified = $%d", len(args)))
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		if pgErr.ConstraintName == googleIDConstraint {
			return repository.ErrGoogleIDTaken
		}
		return repository.ErrEmailTaken
	}
	return err
}

var _ repository.UserRepository = (*UserRepository)(nil)
