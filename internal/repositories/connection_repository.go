package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cockroachdb/cockroach-go/v2/crdb/crdbpgxv5"
	"github.com/jackc/pgx/v5"

	"github.com/musihub/backend/internal/connections"
	"github.com/musihub/backend/internal/db"
	"github.com/musihub/backend/internal/models"
)

// PostgresConnectionRepository persists connection requests between profiles.
type PostgresConnectionRepository struct {
	pool db.Pool
}

// NewPostgresConnectionRepository constructs a connection store backed by PostgreSQL.
func NewPostgresConnectionRepository(pool db.Pool) *PostgresConnectionRepository {
	return &PostgresConnectionRepository{pool: pool}
}

const connectionColumns = `id, profile_id_1, profile_id_2, status, created_at, updated_at, responded_at`

// CreateRequest inserts a request unless the pair already has one. The check and
// insert share a transaction that is retried on serialization failures, and the
// pair index rejects whatever slips through concurrently.
func (r *PostgresConnectionRepository) CreateRequest(ctx context.Context, request models.ConnectionRequest) error {
	if !validID(request.InitiatorID) || !validID(request.RecipientID) {
		return connections.ErrProfileNotFound
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	err = crdbpgx.ExecuteTx(ctx, conn, pgx.TxOptions{}, func(tx pgx.Tx) error {
		var exists bool
		if err := tx.QueryRow(ctx, `
            SELECT EXISTS (
                SELECT 1 FROM profile_connections
                WHERE LEAST(profile_id_1, profile_id_2) = LEAST($1::UUID, $2::UUID)
                  AND GREATEST(profile_id_1, profile_id_2) = GREATEST($1::UUID, $2::UUID)
            )
        `, request.InitiatorID, request.RecipientID).Scan(&exists); err != nil {
			return err
		}
		if exists {
			return connections.ErrRequestExists
		}

		_, err := tx.Exec(ctx, `
            INSERT INTO profile_connections (`+connectionColumns+`)
            VALUES ($1, $2, $3, $4, $5, $6, $7)
        `, request.ID, request.InitiatorID, request.RecipientID, request.Status, request.CreatedAt, request.UpdatedAt, request.RespondedAt)
		return err
	})
	if err != nil {
		if errors.Is(err, connections.ErrRequestExists) {
			return err
		}
		switch pgErrorCode(err) {
		case codeUniqueViolation:
			return connections.ErrRequestExists
		case codeForeignKeyViolation, codeInvalidText:
			return connections.ErrProfileNotFound
		}
		return fmt.Errorf("insert connection request: %w", err)
	}

	return nil
}

// FindRequest loads a request without expanding its profiles.
func (r *PostgresConnectionRepository) FindRequest(ctx context.Context, requestID string) (models.ConnectionRequest, error) {
	if !validID(requestID) {
		return models.ConnectionRequest{}, connections.ErrRequestNotFound
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.ConnectionRequest{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `SELECT `+connectionColumns+` FROM profile_connections WHERE id = $1`, requestID)
	request, err := scanConnection(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isMalformedID(err) {
			return models.ConnectionRequest{}, connections.ErrRequestNotFound
		}
		return models.ConnectionRequest{}, fmt.Errorf("select connection request: %w", err)
	}
	return request, nil
}

// FindBetween loads the request between two profiles in either direction.
func (r *PostgresConnectionRepository) FindBetween(ctx context.Context, profileA, profileB string) (models.ConnectionRequest, error) {
	if !validID(profileA) || !validID(profileB) {
		return models.ConnectionRequest{}, connections.ErrRequestNotFound
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.ConnectionRequest{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT `+connectionColumns+`
        FROM profile_connections
        WHERE LEAST(profile_id_1, profile_id_2) = LEAST($1::UUID, $2::UUID)
          AND GREATEST(profile_id_1, profile_id_2) = GREATEST($1::UUID, $2::UUID)
    `, profileA, profileB)
	request, err := scanConnection(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isMalformedID(err) {
			return models.ConnectionRequest{}, connections.ErrRequestNotFound
		}
		return models.ConnectionRequest{}, fmt.Errorf("select connection between profiles: %w", err)
	}
	return request, nil
}

// List returns requests touching a profile with both profiles expanded.
func (r *PostgresConnectionRepository) List(ctx context.Context, query connections.Query) ([]models.ConnectionRequest, error) {
	if !validID(query.ProfileID) {
		return []models.ConnectionRequest{}, nil
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	orderBy := "c.created_at"
	if query.SortByUpdated {
		orderBy = "c.updated_at"
	}
	limit := query.Limit
	if limit <= 0 {
		limit = 100
	}

	rows, err := conn.Query(ctx, `
        SELECT c.id, c.profile_id_1, c.profile_id_2, c.status, c.created_at, c.updated_at, c.responded_at,
               p1.id, p1.user_id, p1.name, p1.email, p1.bio, p1.location, p1.picture_url, p1.created_at, p1.updated_at,
               p2.id, p2.user_id, p2.name, p2.email, p2.bio, p2.location, p2.picture_url, p2.created_at, p2.updated_at
        FROM profile_connections c
        JOIN profiles p1 ON p1.id = c.profile_id_1
        JOIN profiles p2 ON p2.id = c.profile_id_2
        WHERE (c.profile_id_1 = $1 OR c.profile_id_2 = $1)
          AND ($2 = '' OR c.status = $2)
        ORDER BY `+orderBy+` DESC, c.id DESC
        LIMIT $3
    `, query.ProfileID, query.Status, limit)
	if err != nil {
		return nil, fmt.Errorf("query connection requests: %w", err)
	}
	defer rows.Close()

	requests := []models.ConnectionRequest{}
	for rows.Next() {
		var (
			req         models.ConnectionRequest
			respondedAt *time.Time
			initiator   models.Profile
			recipient   models.Profile
		)
		if err := rows.Scan(
			&req.ID, &req.InitiatorID, &req.RecipientID, &req.Status, &req.CreatedAt, &req.UpdatedAt, &respondedAt,
			&initiator.ID, &initiator.UserID, &initiator.Name, &initiator.Email, &initiator.Bio, &initiator.Location, &initiator.PictureURL, &initiator.CreatedAt, &initiator.UpdatedAt,
			&recipient.ID, &recipient.UserID, &recipient.Name, &recipient.Email, &recipient.Bio, &recipient.Location, &recipient.PictureURL, &recipient.CreatedAt, &recipient.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan connection request: %w", err)
		}
		normalizeConnection(&req, respondedAt)
		initiator.CreatedAt, initiator.UpdatedAt = initiator.CreatedAt.UTC(), initiator.UpdatedAt.UTC()
		recipient.CreatedAt, recipient.UpdatedAt = recipient.CreatedAt.UTC(), recipient.UpdatedAt.UTC()
		req.Initiator = &initiator
		req.Recipient = &recipient
		requests = append(requests, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate connection requests: %w", err)
	}

	return requests, nil
}

// TransitionStatus moves a request from one status to another only if it still holds from.
func (r *PostgresConnectionRepository) TransitionStatus(ctx context.Context, requestID, from, to string, at time.Time) (models.ConnectionRequest, error) {
	if !validID(requestID) {
		return models.ConnectionRequest{}, connections.ErrRequestNotFound
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.ConnectionRequest{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        UPDATE profile_connections
        SET status = $3, updated_at = $4, responded_at = $4
        WHERE id = $1 AND status = $2
        RETURNING `+connectionColumns+`
    `, requestID, from, to, at)
	request, err := scanConnection(row)
	if err == nil {
		return request, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) && !isMalformedID(err) {
		return models.ConnectionRequest{}, fmt.Errorf("update connection request status: %w", err)
	}

	return models.ConnectionRequest{}, r.missOrChanged(ctx, requestID)
}

// DeleteRequest removes a request only while it still holds status.
func (r *PostgresConnectionRepository) DeleteRequest(ctx context.Context, requestID, status string) error {
	if !validID(requestID) {
		return connections.ErrRequestNotFound
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `DELETE FROM profile_connections WHERE id = $1 AND status = $2`, requestID, status)
	if err != nil {
		return fmt.Errorf("delete connection request: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	return r.missOrChanged(ctx, requestID)
}

// missOrChanged explains why a conditional write touched no rows.
func (r *PostgresConnectionRepository) missOrChanged(ctx context.Context, requestID string) error {
	if _, err := r.FindRequest(ctx, requestID); err != nil {
		return err
	}
	return connections.ErrStatusChanged
}

func scanConnection(row pgx.Row) (models.ConnectionRequest, error) {
	var (
		req         models.ConnectionRequest
		respondedAt *time.Time
	)
	if err := row.Scan(&req.ID, &req.InitiatorID, &req.RecipientID, &req.Status, &req.CreatedAt, &req.UpdatedAt, &respondedAt); err != nil {
		return models.ConnectionRequest{}, err
	}
	normalizeConnection(&req, respondedAt)
	return req, nil
}

func normalizeConnection(req *models.ConnectionRequest, respondedAt *time.Time) {
	req.CreatedAt = req.CreatedAt.UTC()
	req.UpdatedAt = req.UpdatedAt.UTC()
	if respondedAt != nil {
		t := respondedAt.UTC()
		req.RespondedAt = &t
	}
}

var _ connections.Store = (*PostgresConnectionRepository)(nil)
