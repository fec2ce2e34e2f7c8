package group

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/soulstices/activityhub/internal/group/join"
)

// uniqueViolation is the Postgres error code the store raises when an insert
// hits a unique constraint. It is the authoritative rejection for concurrent
// duplicate joins; the service-level pre-check is only an optimistic shortcut.
const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// Repository handles group data persistence
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new group repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func marshalQuestions(qs []join.Question) (interface{}, error) {
	if len(qs) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(qs)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal screening form: %w", err)
	}
	return b, nil
}

func marshalApplication(app map[string]string) (interface{}, error) {
	if len(app) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(app)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal application data: %w", err)
	}
	return b, nil
}

func scanGroup(row interface{ Scan(...interface{}) error }) (*Group, error) {
	g := &Group{}
	var screeningForm []byte
	err := row.Scan(
		&g.ID,
		&g.Name,
		&g.Description,
		&g.Category,
		&g.JoiningType,
		&g.InviteCode,
		&screeningForm,
		&g.MemberCount,
		&g.CreatedBy,
		&g.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(screeningForm) > 0 {
		if err := json.Unmarshal(screeningForm, &g.ScreeningForm); err != nil {
			return nil, fmt.Errorf("failed to unmarshal screening form: %w", err)
		}
	}
	return g, nil
}

const groupColumns = `id, name, description, category, joining_type, invite_code, screening_form, member_count, created_by, created_at`

// Create inserts a new group
func (r *Repository) Create(ctx context.Context, req *CreateGroupRequest, creatorID int64, inviteCode *string) (*Group, error) {
	form, err := marshalQuestions(req.ScreeningForm)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO groups (name, description, category, joining_type, invite_code, screening_form, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + groupColumns

	g, err := scanGroup(r.db.QueryRowContext(ctx, query,
		req.Name, req.Description, req.Category, req.JoiningType, inviteCode, form, creatorID))
	if err != nil {
		return nil, fmt.Errorf("failed to create group: %w", err)
	}
	return g, nil
}

// GetByID retrieves a group by its ID, or nil when it does not exist
func (r *Repository) GetByID(ctx context.Context, id int64) (*Group, error) {
	query := `SELECT ` + groupColumns + ` FROM groups WHERE id = $1`

	g, err := scanGroup(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	return g, nil
}

// List retrieves all groups, newest first
func (r *Repository) List(ctx context.Context, limit, offset int) ([]*Group, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM groups`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count groups: %w", err)
	}

	query := `
		SELECT ` + groupColumns + `
		FROM groups
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list groups: %w", err)
	}
	defer rows.Close()

	var groups []*Group
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, g)
	}

	return groups, total, nil
}

// Update modifies a group. The invite code is only written when the stored
// one is NULL, keeping codes immutable once minted.
func (r *Repository) Update(ctx context.Context, id int64, req *UpdateGroupRequest, inviteCode *string) (*Group, error) {
	form, err := marshalQuestions(req.ScreeningForm)
	if err != nil {
		return nil, err
	}

	query := `
		UPDATE groups
		SET name = COALESCE($2, name),
		    description = COALESCE($3, description),
		    category = COALESCE($4, category),
		    joining_type = COALESCE($5, joining_type),
		    invite_code = COALESCE(invite_code, $6),
		    screening_form = COALESCE($7, screening_form)
		WHERE id = $1
		RETURNING ` + groupColumns

	g, err := scanGroup(r.db.QueryRowContext(ctx, query,
		id, req.Name, req.Description, req.Category, req.JoiningType, inviteCode, form))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update group: %w", err)
	}
	return g, nil
}

// Delete removes a group; memberships and activities cascade
func (r *Repository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM groups WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrGroupNotFound
	}
	return nil
}

// InviteCodeExists reports whether any group already holds the code
func (r *Repository) InviteCodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM groups WHERE invite_code = $1)`, code).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check invite code: %w", err)
	}
	return exists, nil
}

func scanMembership(row interface{ Scan(...interface{}) error }, withUser bool) (*Membership, error) {
	m := &Membership{}
	var application []byte
	dest := []interface{}{&m.ID, &m.GroupID, &m.UserID, &m.Status, &application, &m.JoinedAt}
	if withUser {
		dest = append(dest, &m.Name, &m.Email)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	if len(application) > 0 {
		if err := json.Unmarshal(application, &m.ApplicationData); err != nil {
			return nil, fmt.Errorf("failed to unmarshal application data: %w", err)
		}
	}
	return m, nil
}

// GetMembership retrieves the membership row for (group, user), or nil.
// Any status counts; a rejected row still blocks re-joining by default.
func (r *Repository) GetMembership(ctx context.Context, groupID, userID int64) (*Membership, error) {
	query := `
		SELECT id, group_id, user_id, status, application_data, joined_at
		FROM group_members
		WHERE group_id = $1 AND user_id = $2
	`

	m, err := scanMembership(r.db.QueryRowContext(ctx, query, groupID, userID), false)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}
	return m, nil
}

// refreshMemberCount recomputes the denormalized cache from approved rows
func refreshMemberCount(ctx context.Context, tx *sql.Tx, groupID int64) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE groups
		SET member_count = (SELECT COUNT(*) FROM group_members WHERE group_id = $1 AND status = 'approved')
		WHERE id = $1
	`, groupID)
	if err != nil {
		return fmt.Errorf("failed to refresh member count: %w", err)
	}
	return nil
}

// AddMembership inserts the single membership row a join attempt produces.
// A concurrent duplicate insert is rejected by the unique constraint and
// surfaces as ErrDuplicateMembership.
func (r *Repository) AddMembership(ctx context.Context, groupID, userID int64, status MembershipStatus, application map[string]string) (*Membership, error) {
	app, err := marshalApplication(application)
	if err != nil {
		return nil, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO group_members (group_id, user_id, status, application_data)
		VALUES ($1, $2, $3, $4)
		RETURNING id, group_id, user_id, status, application_data, joined_at
	`

	m, err := scanMembership(tx.QueryRowContext(ctx, query, groupID, userID, status, app), false)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateMembership
		}
		return nil, fmt.Errorf("failed to add membership: %w", err)
	}

	if err := refreshMemberCount(ctx, tx, groupID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit membership: %w", err)
	}
	return m, nil
}

// ReapplyMembership rewrites an existing rejected row for a fresh attempt,
// preserving the one-row-per-pair invariant
func (r *Repository) ReapplyMembership(ctx context.Context, groupID, userID int64, status MembershipStatus, application map[string]string) (*Membership, error) {
	app, err := marshalApplication(application)
	if err != nil {
		return nil, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE group_members
		SET status = $3, application_data = $4, joined_at = NOW()
		WHERE group_id = $1 AND user_id = $2 AND status = 'rejected'
		RETURNING id, group_id, user_id, status, application_data, joined_at
	`

	m, err := scanMembership(tx.QueryRowContext(ctx, query, groupID, userID, status, app), false)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to reapply membership: %w", err)
	}

	if err := refreshMemberCount(ctx, tx, groupID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit membership: %w", err)
	}
	return m, nil
}

// UpdateMembershipStatus transitions a membership from one status to another.
// Returns nil when no row was in the expected source status, which callers
// treat as an illegal transition.
func (r *Repository) UpdateMembershipStatus(ctx context.Context, groupID, userID int64, from, to MembershipStatus) (*Membership, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE group_members
		SET status = $4
		WHERE group_id = $1 AND user_id = $2 AND status = $3
		RETURNING id, group_id, user_id, status, application_data, joined_at
	`

	m, err := scanMembership(tx.QueryRowContext(ctx, query, groupID, userID, from, to), false)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update membership: %w", err)
	}

	if err := refreshMemberCount(ctx, tx, groupID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit membership: %w", err)
	}
	return m, nil
}

// DeleteApprovedMembership removes a member's row entirely. Leaving is a real
// deletion, not a status transition. Returns false when the user holds no
// approved membership.
func (r *Repository) DeleteApprovedMembership(ctx context.Context, groupID, userID int64) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		DELETE FROM group_members
		WHERE group_id = $1 AND user_id = $2 AND status = 'approved'
	`, groupID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to delete membership: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return false, nil
	}

	if err := refreshMemberCount(ctx, tx, groupID); err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit membership: %w", err)
	}
	return true, nil
}

// ListMembersByStatus retrieves a group's memberships in one status
func (r *Repository) ListMembersByStatus(ctx context.Context, groupID int64, status MembershipStatus) ([]*Membership, error) {
	query := `
		SELECT gm.id, gm.group_id, gm.user_id, gm.status, gm.application_data, gm.joined_at, u.name, u.email
		FROM group_members gm
		JOIN users u ON gm.user_id = u.id
		WHERE gm.group_id = $1 AND gm.status = $2
		ORDER BY gm.joined_at
	`

	rows, err := r.db.QueryContext(ctx, query, groupID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []*Membership
	for rows.Next() {
		m, err := scanMembership(rows, true)
		if err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, m)
	}

	return members, nil
}

// CountApprovedMembers returns the authoritative member count
func (r *Repository) CountApprovedMembers(ctx context.Context, groupID int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM group_members WHERE group_id = $1 AND status = 'approved'
	`, groupID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count members: %w", err)
	}
	return count, nil
}

// IsAdmin reports whether the user administers the group. Founders hold
// founder-level capabilities everywhere, so they pass this check too.
func (r *Repository) IsAdmin(ctx context.Context, groupID, userID int64) (bool, error) {
	var isAdmin bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM group_admins WHERE group_id = $1 AND user_id = $2)
		    OR EXISTS(SELECT 1 FROM users WHERE id = $2 AND role = 'founder')
	`, groupID, userID).Scan(&isAdmin)
	if err != nil {
		return false, fmt.Errorf("failed to check admin relation: %w", err)
	}
	return isAdmin, nil
}

// GetUserRole returns the user's stored role, or "" when the user is unknown
func (r *Repository) GetUserRole(ctx context.Context, userID int64) (string, error) {
	var role string
	err := r.db.QueryRowContext(ctx, `SELECT role FROM users WHERE id = $1`, userID).Scan(&role)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", fmt.Errorf("failed to get user role: %w", err)
	}
	return role, nil
}

// AssignAdmin records the administrator relation and promotes the user's role
// to group_admin unless they are already a founder. Both writes happen in one
// transaction so role and relation stay in sync.
func (r *Repository) AssignAdmin(ctx context.Context, groupID, userID int64) (*Admin, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	a := &Admin{}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO group_admins (group_id, user_id)
		VALUES ($1, $2)
		RETURNING id, group_id, user_id, assigned_at
	`, groupID, userID).Scan(&a.ID, &a.GroupID, &a.UserID, &a.AssignedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrAlreadyAdmin
		}
		return nil, fmt.Errorf("failed to assign admin: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE users SET role = 'group_admin' WHERE id = $1 AND role <> 'founder'
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to promote user role: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit admin assignment: %w", err)
	}
	return a, nil
}

// ListAdmins retrieves a group's administrators
func (r *Repository) ListAdmins(ctx context.Context, groupID int64) ([]*Admin, error) {
	query := `
		SELECT ga.id, ga.group_id, ga.user_id, ga.assigned_at, u.name, u.email
		FROM group_admins ga
		JOIN users u ON ga.user_id = u.id
		WHERE ga.group_id = $1
		ORDER BY ga.assigned_at
	`

	rows, err := r.db.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list admins: %w", err)
	}
	defer rows.Close()

	var admins []*Admin
	for rows.Next() {
		a := &Admin{}
		if err := rows.Scan(&a.ID, &a.GroupID, &a.UserID, &a.AssignedAt, &a.Name, &a.Email); err != nil {
			return nil, fmt.Errorf("failed to scan admin: %w", err)
		}
		admins = append(admins, a)
	}

	return admins, nil
}
