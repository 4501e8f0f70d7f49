package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/musihub/backend/internal/db"
	"github.com/musihub/backend/internal/models"
)

// PostgresUserRepository provides PostgreSQL-backed persistence for users.
type PostgresUserRepository struct {
	pool db.Pool
}

// NewPostgresUserRepository constructs a user repository backed by PostgreSQL.
func NewPostgresUserRepository(pool db.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

// Create persists a new user record.
func (r *PostgresUserRepository) Create(ctx context.Context, user models.User) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO users (id, name, email, password_hash, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, user.ID, user.Name, user.Email, user.Password, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		if pgErrorCode(err) == codeUniqueViolation {
			return ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// FindByEmail fetches a user by their email address.
func (r *PostgresUserRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	return r.findOne(ctx, "email", email)
}

// FindByID fetches a user by identifier.
func (r *PostgresUserRepository) FindByID(ctx context.Context, id string) (models.User, error) {
	if !validID(id) {
		return models.User{}, ErrNotFound
	}
	return r.findOne(ctx, "id", id)
}

func (r *PostgresUserRepository) findOne(ctx context.Context, column, value string) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	// column is one of the two literals passed by FindByEmail and FindByID.
	row := conn.QueryRow(ctx, `
        SELECT id, name, email, password_hash, created_at, updated_at
        FROM users
        WHERE `+column+` = $1
    `, value)

	var user models.User
	if err := row.Scan(&user.ID, &user.Name, &user.Email, &user.Password, &user.CreatedAt, &user.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isMalformedID(err) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("select user by %s: %w", column, err)
	}

	user.CreatedAt = user.CreatedAt.UTC()
	user.UpdatedAt = user.UpdatedAt.UTC()
	return user, nil
}

// Update modifies an existing user record.
func (r *PostgresUserRepository) Update(ctx context.Context, user models.User) error {
	if !validID(user.ID) {
		return ErrNotFound
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE users
        SET name = $2, email = $3, password_hash = $4, updated_at = $5
        WHERE id = $1
    `, user.ID, user.Name, user.Email, user.Password, user.UpdatedAt)
	if err != nil {
		if pgErrorCode(err) == codeUniqueViolation {
			return ErrConflict
		}
		if isMalformedID(err) {
			return ErrNotFound
		}
		return fmt.Errorf("update user: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// PostgresProfileRepository provides PostgreSQL-backed persistence for musician profiles.
type PostgresProfileRepository struct {
	pool db.Pool
}

// NewPostgresProfileRepository constructs a profile repository backed by PostgreSQL.
func NewPostgresProfileRepository(pool db.Pool) *PostgresProfileRepository {
	return &PostgresProfileRepository{pool: pool}
}

const profileColumns = `id, user_id, name, email, bio, location, picture_url, created_at, updated_at`

// Create stores a new profile. A user owns at most one profile.
func (r *PostgresProfileRepository) Create(ctx context.Context, profile models.Profile) error {
	if !validID(profile.UserID) {
		return ErrNotFound
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO profiles (`+profileColumns+`)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
    `, profile.ID, profile.UserID, profile.Name, profile.Email, profile.Bio, profile.Location, profile.PictureURL, profile.CreatedAt, profile.UpdatedAt)
	if err != nil {
		switch pgErrorCode(err) {
		case codeUniqueViolation:
			return ErrConflict
		case codeForeignKeyViolation, codeInvalidText:
			return ErrNotFound
		}
		return fmt.Errorf("insert profile: %w", err)
	}

	return nil
}

// FindByID fetches a profile by identifier.
func (r *PostgresProfileRepository) FindByID(ctx context.Context, id string) (models.Profile, error) {
	return r.findOne(ctx, "id", id)
}

// FindByUserID fetches the profile owned by a user.
func (r *PostgresProfileRepository) FindByUserID(ctx context.Context, userID string) (models.Profile, error) {
	return r.findOne(ctx, "user_id", userID)
}

func (r *PostgresProfileRepository) findOne(ctx context.Context, column, value string) (models.Profile, error) {
	if !validID(value) {
		return models.Profile{}, ErrNotFound
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Profile{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE `+column+` = $1`, value)

	profile, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isMalformedID(err) {
			return models.Profile{}, ErrNotFound
		}
		return models.Profile{}, fmt.Errorf("select profile by %s: %w", column, err)
	}
	return profile, nil
}

// SearchByName returns profiles whose name contains the given text, ignoring case.
func (r *PostgresProfileRepository) SearchByName(ctx context.Context, name string, limit int) ([]models.Profile, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT `+profileColumns+`
        FROM profiles
        WHERE name ILIKE $1 ESCAPE '\'
        ORDER BY name ASC, id ASC
        LIMIT $2
    `, "%"+escapeLike(name)+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("search profiles: %w", err)
	}
	defer rows.Close()

	profiles := []models.Profile{}
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		profiles = append(profiles, profile)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate profiles: %w", err)
	}

	return profiles, nil
}

// Update writes the editable profile fields.
func (r *PostgresProfileRepository) Update(ctx context.Context, profile models.Profile) error {
	if !validID(profile.ID) {
		return ErrNotFound
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE profiles
        SET name = $2, bio = $3, location = $4, picture_url = $5, updated_at = $6
        WHERE id = $1
    `, profile.ID, profile.Name, profile.Bio, profile.Location, profile.PictureURL, profile.UpdatedAt)
	if err != nil {
		if isMalformedID(err) {
			return ErrNotFound
		}
		return fmt.Errorf("update profile: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func scanProfile(row pgx.Row) (models.Profile, error) {
	var p models.Profile
	if err := row.Scan(&p.ID, &p.UserID, &p.Name, &p.Email, &p.Bio, &p.Location, &p.PictureURL, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return models.Profile{}, err
	}
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return p, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike neutralises LIKE wildcards so user input matches literally.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

var _ UserRepository = (*PostgresUserRepository)(nil)
var _ ProfileRepository = (*PostgresProfileRepository)(nil)
