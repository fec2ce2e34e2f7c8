package activity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// uniqueViolation is the Postgres unique-constraint error code. The unique
// index on (activity_id, user_id) is the authoritative duplicate-join
// rejection; service-level checks are optimistic pre-checks only.
const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// Repository handles activity data persistence
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new activity repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const activityColumns = `id, group_id, title, description, place, date, start_time, end_time, payment, type, participant_limit, invite_code, current_participants, created_by, created_at`

func scanActivity(row interface{ Scan(...interface{}) error }) (*Activity, error) {
	a := &Activity{}
	err := row.Scan(
		&a.ID,
		&a.GroupID,
		&a.Title,
		&a.Description,
		&a.Place,
		&a.Date,
		&a.StartTime,
		&a.EndTime,
		&a.Payment,
		&a.Type,
		&a.ParticipantLimit,
		&a.InviteCode,
		&a.CurrentParticipants,
		&a.CreatedBy,
		&a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Create inserts a new activity
func (r *Repository) Create(ctx context.Context, req *CreateActivityRequest, date time.Time, creatorID int64, inviteCode *string) (*Activity, error) {
	query := `
		INSERT INTO activities (group_id, title, description, place, date, start_time, end_time, payment, type, participant_limit, invite_code, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING ` + activityColumns

	a, err := scanActivity(r.db.QueryRowContext(ctx, query,
		req.GroupID, req.Title, req.Description, req.Place, date,
		req.StartTime, req.EndTime, req.Payment, req.Type,
		req.ParticipantLimit, inviteCode, creatorID))
	if err != nil {
		return nil, fmt.Errorf("failed to create activity: %w", err)
	}
	return a, nil
}

// GetByID retrieves an activity by its ID, or nil when it does not exist
func (r *Repository) GetByID(ctx context.Context, id int64) (*Activity, error) {
	query := `SELECT ` + activityColumns + ` FROM activities WHERE id = $1`

	a, err := scanActivity(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get activity: %w", err)
	}
	return a, nil
}

// List retrieves activities with an optional date-range filter, soonest first
func (r *Repository) List(ctx context.Context, start, end *time.Time, limit, offset int) ([]*Activity, int, error) {
	filter := `WHERE ($1::date IS NULL OR date >= $1) AND ($2::date IS NULL OR date <= $2)`

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM activities `+filter, start, end).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count activities: %w", err)
	}

	query := `
		SELECT ` + activityColumns + `
		FROM activities ` + filter + `
		ORDER BY date, start_time
		LIMIT $3 OFFSET $4
	`

	rows, err := r.db.QueryContext(ctx, query, start, end, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list activities: %w", err)
	}
	defer rows.Close()

	var activities []*Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan activity: %w", err)
		}
		activities = append(activities, a)
	}

	return activities, total, nil
}

// ListByGroup retrieves all of a group's activities, soonest first
func (r *Repository) ListByGroup(ctx context.Context, groupID int64) ([]*Activity, error) {
	query := `
		SELECT ` + activityColumns + `
		FROM activities
		WHERE group_id = $1
		ORDER BY date, start_time
	`

	rows, err := r.db.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list group activities: %w", err)
	}
	defer rows.Close()

	var activities []*Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		activities = append(activities, a)
	}

	return activities, nil
}

// Update modifies an activity's editable fields. The type and invite code are
// fixed at creation.
func (r *Repository) Update(ctx context.Context, id int64, req *UpdateActivityRequest, date *time.Time) (*Activity, error) {
	query := `
		UPDATE activities
		SET title = COALESCE($2, title),
		    description = COALESCE($3, description),
		    place = COALESCE($4, place),
		    date = COALESCE($5, date),
		    start_time = COALESCE($6, start_time),
		    end_time = COALESCE($7, end_time),
		    payment = COALESCE($8, payment),
		    participant_limit = COALESCE($9, participant_limit)
		WHERE id = $1
		RETURNING ` + activityColumns

	a, err := scanActivity(r.db.QueryRowContext(ctx, query,
		id, req.Title, req.Description, req.Place, date,
		req.StartTime, req.EndTime, req.Payment, req.ParticipantLimit))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update activity: %w", err)
	}
	return a, nil
}

// Delete removes an activity; participations cascade
func (r *Repository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM activities WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete activity: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrActivityNotFound
	}
	return nil
}

// InviteCodeExists reports whether any activity already holds the code
func (r *Repository) InviteCodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM activities WHERE invite_code = $1)`, code).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check invite code: %w", err)
	}
	return exists, nil
}

// GetParticipation retrieves the participation row for (activity, user), or nil
func (r *Repository) GetParticipation(ctx context.Context, activityID, userID int64) (*Participation, error) {
	query := `
		SELECT id, activity_id, user_id, status, registered_at
		FROM activity_participants
		WHERE activity_id = $1 AND user_id = $2
	`

	p := &Participation{}
	err := r.db.QueryRowContext(ctx, query, activityID, userID).Scan(
		&p.ID, &p.ActivityID, &p.UserID, &p.Status, &p.RegisteredAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get participation: %w", err)
	}
	return p, nil
}

// CountRegistered returns the authoritative participant count
func (r *Repository) CountRegistered(ctx context.Context, activityID int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM activity_participants WHERE activity_id = $1 AND status = 'registered'
	`, activityID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count participants: %w", err)
	}
	return count, nil
}

// refreshParticipantCount recomputes the denormalized cache from registered rows
func refreshParticipantCount(ctx context.Context, tx *sql.Tx, activityID int64) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE activities
		SET current_participants = (SELECT COUNT(*) FROM activity_participants WHERE activity_id = $1 AND status = 'registered')
		WHERE id = $1
	`, activityID)
	if err != nil {
		return fmt.Errorf("failed to refresh participant count: %w", err)
	}
	return nil
}

// AddParticipant registers a user, holding the capacity check and the insert
// in one transaction. The activity row is locked so two concurrent joins
// cannot both pass the count check; the unique constraint still backs the
// duplicate check.
func (r *Repository) AddParticipant(ctx context.Context, activityID, userID int64, limit *int) (*Participation, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var locked int64
	if err := tx.QueryRowContext(ctx,
		`SELECT id FROM activities WHERE id = $1 FOR UPDATE`, activityID).Scan(&locked); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrActivityNotFound
		}
		return nil, fmt.Errorf("failed to lock activity: %w", err)
	}

	if limit != nil {
		var count int
		if err := tx.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM activity_participants WHERE activity_id = $1 AND status = 'registered'
		`, activityID).Scan(&count); err != nil {
			return nil, fmt.Errorf("failed to count participants: %w", err)
		}
		if count >= *limit {
			return nil, ErrActivityFull
		}
	}

	p := &Participation{}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO activity_participants (activity_id, user_id, status)
		VALUES ($1, $2, 'registered')
		RETURNING id, activity_id, user_id, status, registered_at
	`, activityID, userID).Scan(&p.ID, &p.ActivityID, &p.UserID, &p.Status, &p.RegisteredAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrAlreadyJoined
		}
		return nil, fmt.Errorf("failed to add participant: %w", err)
	}

	if err := refreshParticipantCount(ctx, tx, activityID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit participation: %w", err)
	}
	return p, nil
}

// DeleteParticipation removes a user's registration row entirely. Returns
// false when no row existed.
func (r *Repository) DeleteParticipation(ctx context.Context, activityID, userID int64) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		DELETE FROM activity_participants WHERE activity_id = $1 AND user_id = $2
	`, activityID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to delete participation: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return false, nil
	}

	if err := refreshParticipantCount(ctx, tx, activityID); err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit participation: %w", err)
	}
	return true, nil
}

// ListParticipants retrieves an activity's registered participants in
// registration order
func (r *Repository) ListParticipants(ctx context.Context, activityID int64) ([]*Participation, error) {
	query := `
		SELECT ap.id, ap.activity_id, ap.user_id, ap.status, ap.registered_at, u.name, u.email
		FROM activity_participants ap
		JOIN users u ON ap.user_id = u.id
		WHERE ap.activity_id = $1 AND ap.status = 'registered'
		ORDER BY ap.registered_at
	`

	rows, err := r.db.QueryContext(ctx, query, activityID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	defer rows.Close()

	var participants []*Participation
	for rows.Next() {
		p := &Participation{}
		if err := rows.Scan(&p.ID, &p.ActivityID, &p.UserID, &p.Status, &p.RegisteredAt, &p.Name, &p.Email); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		participants = append(participants, p)
	}

	return participants, nil
}
