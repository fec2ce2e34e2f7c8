package group

import (
	"context"
	"errors"

	"github.com/soulstices/activityhub/internal/group/join"
	"github.com/soulstices/activityhub/pkg/invitecode"
)

// Common errors
var (
	ErrGroupNotFound       = errors.New("group not found")
	ErrMembershipNotFound  = errors.New("membership not found")
	ErrDuplicateMembership = errors.New("a membership already exists for this group")
	ErrNotAMember          = errors.New("you are not a member of this group")
	ErrInvalidTransition   = errors.New("membership request has already been resolved")
	ErrNotAuthorized       = errors.New("not authorized to perform this action")
	ErrAlreadyAdmin        = errors.New("user is already an admin of this group")
)

// Store is the persistence surface the group service consumes,
// implemented by Repository
type Store interface {
	Create(ctx context.Context, req *CreateGroupRequest, creatorID int64, inviteCode *string) (*Group, error)
	GetByID(ctx context.Context, id int64) (*Group, error)
	List(ctx context.Context, limit, offset int) ([]*Group, int, error)
	Update(ctx context.Context, id int64, req *UpdateGroupRequest, inviteCode *string) (*Group, error)
	Delete(ctx context.Context, id int64) error
	InviteCodeExists(ctx context.Context, code string) (bool, error)

	GetMembership(ctx context.Context, groupID, userID int64) (*Membership, error)
	AddMembership(ctx context.Context, groupID, userID int64, status MembershipStatus, application map[string]string) (*Membership, error)
	ReapplyMembership(ctx context.Context, groupID, userID int64, status MembershipStatus, application map[string]string) (*Membership, error)
	UpdateMembershipStatus(ctx context.Context, groupID, userID int64, from, to MembershipStatus) (*Membership, error)
	DeleteApprovedMembership(ctx context.Context, groupID, userID int64) (bool, error)
	ListMembersByStatus(ctx context.Context, groupID int64, status MembershipStatus) ([]*Membership, error)
	CountApprovedMembers(ctx context.Context, groupID int64) (int, error)

	IsAdmin(ctx context.Context, groupID, userID int64) (bool, error)
	GetUserRole(ctx context.Context, userID int64) (string, error)
	AssignAdmin(ctx context.Context, groupID, userID int64) (*Admin, error)
	ListAdmins(ctx context.Context, groupID int64) ([]*Admin, error)
}

// Service handles group business logic. Every join entry point funnels
// through the same policy evaluation so admission rules live in one place.
type Service struct {
	repo     Store
	policies *join.Factory

	// reapplyAfterRejection is the explicit policy choice for whether a
	// rejected applicant may try again. Off by default: any existing
	// membership row blocks a new attempt.
	reapplyAfterRejection bool
}

// NewService creates a new group service
func NewService(repo Store, policies *join.Factory, reapplyAfterRejection bool) *Service {
	return &Service{
		repo:                  repo,
		policies:              policies,
		reapplyAfterRejection: reapplyAfterRejection,
	}
}

// Create creates a new group. Only founders create groups; invite-only
// groups get their code minted here, once.
func (s *Service) Create(ctx context.Context, creatorID int64, req *CreateGroupRequest) (*Group, error) {
	role, err := s.repo.GetUserRole(ctx, creatorID)
	if err != nil {
		return nil, err
	}
	if role != "founder" {
		return nil, ErrNotAuthorized
	}

	// Reject unknown joining types up front
	if _, err := s.policies.Create(req.JoiningType); err != nil {
		return nil, err
	}

	var code *string
	if req.JoiningType == join.TypeInviteOnly {
		generated, err := invitecode.GenerateUnique(func(c string) (bool, error) {
			return s.repo.InviteCodeExists(ctx, c)
		})
		if err != nil {
			return nil, err
		}
		code = &generated
	}

	return s.repo.Create(ctx, req, creatorID, code)
}

// GetByID retrieves a group by its ID
func (s *Service) GetByID(ctx context.Context, id int64) (*Group, error) {
	group, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, ErrGroupNotFound
	}
	return group, nil
}

// GetByIDWithMembers retrieves a group with its approved members
func (s *Service) GetByIDWithMembers(ctx context.Context, id int64) (*Group, []*Membership, error) {
	group, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	members, err := s.repo.ListMembersByStatus(ctx, id, MembershipApproved)
	if err != nil {
		return nil, nil, err
	}

	return group, members, nil
}

// List retrieves all groups with pagination
func (s *Service) List(ctx context.Context, page, perPage int) ([]*Group, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	offset := (page - 1) * perPage
	return s.repo.List(ctx, perPage, offset)
}

// Update modifies a group. Admins only. A group transitioning to invite_only
// for the first time gets a code minted; an existing code is never replaced.
func (s *Service) Update(ctx context.Context, id, actorID int64, req *UpdateGroupRequest) (*Group, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrGroupNotFound
	}

	if err := s.requireAdmin(ctx, id, actorID); err != nil {
		return nil, err
	}

	if req.JoiningType != nil {
		if _, err := s.policies.Create(*req.JoiningType); err != nil {
			return nil, err
		}
	}

	var code *string
	if req.JoiningType != nil && *req.JoiningType == join.TypeInviteOnly && existing.InviteCode == nil {
		generated, err := invitecode.GenerateUnique(func(c string) (bool, error) {
			return s.repo.InviteCodeExists(ctx, c)
		})
		if err != nil {
			return nil, err
		}
		code = &generated
	}

	return s.repo.Update(ctx, id, req, code)
}

// Delete removes a group. Admins only.
func (s *Service) Delete(ctx context.Context, id, actorID int64) error {
	if err := s.requireAdmin(ctx, id, actorID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// Join runs the access-control decision for a join attempt and records its
// outcome as the single membership row for (group, user).
func (s *Service) Join(ctx context.Context, groupID, userID int64, req *JoinGroupRequest) (*Membership, error) {
	group, err := s.repo.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, ErrGroupNotFound
	}

	existing, err := s.repo.GetMembership(ctx, groupID, userID)
	if err != nil {
		return nil, err
	}

	reapply := false
	if existing != nil {
		if !s.reapplyAfterRejection || existing.Status != MembershipRejected {
			return nil, ErrDuplicateMembership
		}
		reapply = true
	}

	rules := join.Rules{Questions: group.ScreeningForm}
	if group.InviteCode != nil {
		rules.InviteCode = *group.InviteCode
	}

	status, err := s.policies.Evaluate(group.JoiningType, rules, join.Request{
		InviteCode:  req.InviteCode,
		Application: req.ApplicationData,
	})
	if err != nil {
		return nil, err
	}

	// Application answers are only stored for screening joins
	var application map[string]string
	if group.JoiningType == join.TypeScreening {
		application = req.ApplicationData
	}

	if reapply {
		m, err := s.repo.ReapplyMembership(ctx, groupID, userID, MembershipStatus(status), application)
		if err != nil {
			return nil, err
		}
		if m == nil {
			// The rejected row changed under us; treat as a normal duplicate
			return nil, ErrDuplicateMembership
		}
		return m, nil
	}

	return s.repo.AddMembership(ctx, groupID, userID, MembershipStatus(status), application)
}

// Leave deletes the caller's approved membership row
func (s *Service) Leave(ctx context.Context, groupID, userID int64) error {
	deleted, err := s.repo.DeleteApprovedMembership(ctx, groupID, userID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNotAMember
	}
	return nil
}

// Approve transitions a pending membership to approved. Admins only.
func (s *Service) Approve(ctx context.Context, groupID, userID, actorID int64) (*Membership, error) {
	return s.resolve(ctx, groupID, userID, actorID, MembershipApproved)
}

// Reject transitions a pending membership to rejected. Admins only.
// Rejected memberships are terminal unless re-application is enabled.
func (s *Service) Reject(ctx context.Context, groupID, userID, actorID int64) (*Membership, error) {
	return s.resolve(ctx, groupID, userID, actorID, MembershipRejected)
}

func (s *Service) resolve(ctx context.Context, groupID, userID, actorID int64, to MembershipStatus) (*Membership, error) {
	if err := s.requireAdmin(ctx, groupID, actorID); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetMembership(ctx, groupID, userID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrMembershipNotFound
	}

	m, err := s.repo.UpdateMembershipStatus(ctx, groupID, userID, MembershipPending, to)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrInvalidTransition
	}
	return m, nil
}

// PendingRequests lists a group's pending join requests. Admins only.
func (s *Service) PendingRequests(ctx context.Context, groupID, actorID int64) ([]*Membership, error) {
	if err := s.requireAdmin(ctx, groupID, actorID); err != nil {
		return nil, err
	}
	return s.repo.ListMembersByStatus(ctx, groupID, MembershipPending)
}

// AssignAdmin records an administrator relation. Founders only.
func (s *Service) AssignAdmin(ctx context.Context, groupID, actorID int64, req *AssignAdminRequest) (*Admin, error) {
	role, err := s.repo.GetUserRole(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if role != "founder" {
		return nil, ErrNotAuthorized
	}

	group, err := s.repo.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, ErrGroupNotFound
	}

	return s.repo.AssignAdmin(ctx, groupID, req.UserID)
}

// ListAdmins retrieves a group's administrators
func (s *Service) ListAdmins(ctx context.Context, groupID int64) ([]*Admin, error) {
	group, err := s.repo.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, ErrGroupNotFound
	}
	return s.repo.ListAdmins(ctx, groupID)
}

// IsAdmin reports whether a user administers the group
func (s *Service) IsAdmin(ctx context.Context, groupID, userID int64) (bool, error) {
	return s.repo.IsAdmin(ctx, groupID, userID)
}

func (s *Service) requireAdmin(ctx context.Context, groupID, userID int64) error {
	isAdmin, err := s.repo.IsAdmin(ctx, groupID, userID)
	if err != nil {
		return err
	}
	if !isAdmin {
		return ErrNotAuthorized
	}
	return nil
}
