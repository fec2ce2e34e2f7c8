package activity

import (
	"context"
	"errors"
	"time"

	"github.com/soulstices/activityhub/internal/activity/gate"
	"github.com/soulstices/activityhub/internal/group"
	"github.com/soulstices/activityhub/pkg/invitecode"
)

// Common errors
var (
	ErrActivityNotFound = errors.New("activity not found")
	ErrActivityFull     = errors.New("activity is full")
	ErrAlreadyJoined    = errors.New("you have already joined this activity")
	ErrNotParticipating = errors.New("you are not registered for this activity")
	ErrNotAuthorized    = errors.New("not authorized to perform this action")
	ErrInvalidDate      = errors.New("invalid date, expected YYYY-MM-DD")
)

// Store is the persistence surface the activity service consumes,
// implemented by Repository
type Store interface {
	Create(ctx context.Context, req *CreateActivityRequest, date time.Time, creatorID int64, inviteCode *string) (*Activity, error)
	GetByID(ctx context.Context, id int64) (*Activity, error)
	List(ctx context.Context, start, end *time.Time, limit, offset int) ([]*Activity, int, error)
	ListByGroup(ctx context.Context, groupID int64) ([]*Activity, error)
	Update(ctx context.Context, id int64, req *UpdateActivityRequest, date *time.Time) (*Activity, error)
	Delete(ctx context.Context, id int64) error
	InviteCodeExists(ctx context.Context, code string) (bool, error)

	GetParticipation(ctx context.Context, activityID, userID int64) (*Participation, error)
	CountRegistered(ctx context.Context, activityID int64) (int, error)
	AddParticipant(ctx context.Context, activityID, userID int64, limit *int) (*Participation, error)
	DeleteParticipation(ctx context.Context, activityID, userID int64) (bool, error)
	ListParticipants(ctx context.Context, activityID int64) ([]*Participation, error)
}

// GroupStore is the slice of the group repository the activity feature needs:
// existence, admin relations, and approved-membership lookups
type GroupStore interface {
	GetByID(ctx context.Context, id int64) (*group.Group, error)
	IsAdmin(ctx context.Context, groupID, userID int64) (bool, error)
	GetMembership(ctx context.Context, groupID, userID int64) (*group.Membership, error)
}

// Service handles activity business logic. Every registration attempt runs
// through the same gate evaluation: capacity first, then the type gate.
type Service struct {
	repo   Store
	groups GroupStore
	gates  *gate.Factory
}

// NewService creates a new activity service
func NewService(repo Store, groups GroupStore, gates *gate.Factory) *Service {
	return &Service{repo: repo, groups: groups, gates: gates}
}

func parseDate(s string) (time.Time, error) {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return d, nil
}

// Create creates an activity in a group. Only the group's administrators may
// create activities; invite-only activities get their code minted here.
func (s *Service) Create(ctx context.Context, creatorID int64, req *CreateActivityRequest) (*Activity, error) {
	g, err := s.groups.GetByID(ctx, req.GroupID)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, group.ErrGroupNotFound
	}

	isAdmin, err := s.groups.IsAdmin(ctx, req.GroupID, creatorID)
	if err != nil {
		return nil, err
	}
	if !isAdmin {
		return nil, ErrNotAuthorized
	}

	if _, err := s.gates.Create(req.Type); err != nil {
		return nil, err
	}

	date, err := parseDate(req.Date)
	if err != nil {
		return nil, err
	}

	var code *string
	if req.Type == gate.TypeInviteOnly {
		generated, err := invitecode.GenerateUnique(func(c string) (bool, error) {
			return s.repo.InviteCodeExists(ctx, c)
		})
		if err != nil {
			return nil, err
		}
		code = &generated
	}

	return s.repo.Create(ctx, req, date, creatorID, code)
}

// GetByID retrieves an activity by its ID
func (s *Service) GetByID(ctx context.Context, id int64) (*Activity, error) {
	activity, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if activity == nil {
		return nil, ErrActivityNotFound
	}
	return activity, nil
}

// List retrieves activities, optionally restricted to a date range
func (s *Service) List(ctx context.Context, start, end *time.Time, page, perPage int) ([]*Activity, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	offset := (page - 1) * perPage
	return s.repo.List(ctx, start, end, perPage, offset)
}

// ListByGroup retrieves all of a group's activities
func (s *Service) ListByGroup(ctx context.Context, groupID int64) ([]*Activity, error) {
	g, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, group.ErrGroupNotFound
	}
	return s.repo.ListByGroup(ctx, groupID)
}

// Update modifies an activity. Group admins only.
func (s *Service) Update(ctx context.Context, id, actorID int64, req *UpdateActivityRequest) (*Activity, error) {
	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.requireAdmin(ctx, existing.GroupID, actorID); err != nil {
		return nil, err
	}

	var date *time.Time
	if req.Date != nil {
		d, err := parseDate(*req.Date)
		if err != nil {
			return nil, err
		}
		date = &d
	}

	return s.repo.Update(ctx, id, req, date)
}

// Delete removes an activity. Group admins only.
func (s *Service) Delete(ctx context.Context, id, actorID int64) error {
	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.requireAdmin(ctx, existing.GroupID, actorID); err != nil {
		return err
	}

	return s.repo.Delete(ctx, id)
}

// Join registers a user for an activity. Checks run in order: capacity,
// then the type-specific gate; the first failure wins. The count feeding the
// capacity check is recomputed from registered rows, never read from the
// current_participants cache.
func (s *Service) Join(ctx context.Context, activityID, userID int64, req *JoinActivityRequest) (*Participation, error) {
	activity, err := s.repo.GetByID(ctx, activityID)
	if err != nil {
		return nil, err
	}
	if activity == nil {
		return nil, ErrActivityNotFound
	}

	existing, err := s.repo.GetParticipation(ctx, activityID, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAlreadyJoined
	}

	count, err := s.repo.CountRegistered(ctx, activityID)
	if err != nil {
		return nil, err
	}

	in := gate.JoinInput{
		RegisteredCount:  count,
		ParticipantLimit: activity.ParticipantLimit,
		InviteCode:       req.InviteCode,
	}
	if activity.InviteCode != nil {
		in.StoredCode = *activity.InviteCode
	}
	if activity.Type == gate.TypePrivate {
		membership, err := s.groups.GetMembership(ctx, activity.GroupID, userID)
		if err != nil {
			return nil, err
		}
		in.HasGroupMembership = membership != nil && membership.Status == group.MembershipApproved
	}

	if err := s.gates.Evaluate(activity.Type, in); err != nil {
		if errors.Is(err, gate.ErrActivityFull) {
			return nil, ErrActivityFull
		}
		return nil, err
	}

	return s.repo.AddParticipant(ctx, activityID, userID, activity.ParticipantLimit)
}

// Leave deletes the caller's participation row
func (s *Service) Leave(ctx context.Context, activityID, userID int64) error {
	deleted, err := s.repo.DeleteParticipation(ctx, activityID, userID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNotParticipating
	}
	return nil
}

// Participants retrieves an activity's registered participants
func (s *Service) Participants(ctx context.Context, activityID int64) ([]*Participation, error) {
	if _, err := s.GetByID(ctx, activityID); err != nil {
		return nil, err
	}
	return s.repo.ListParticipants(ctx, activityID)
}

// IsGroupAdmin reports whether a user administers the activity's owning group
func (s *Service) IsGroupAdmin(ctx context.Context, groupID, userID int64) (bool, error) {
	return s.groups.IsAdmin(ctx, groupID, userID)
}

func (s *Service) requireAdmin(ctx context.Context, groupID, userID int64) error {
	isAdmin, err := s.groups.IsAdmin(ctx, groupID, userID)
	if err != nil {
		return err
	}
	if !isAdmin {
		return ErrNotAuthorized
	}
	return nil
}
