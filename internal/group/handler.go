package group

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/soulstices/activityhub/internal/group/join"
	"github.com/soulstices/activityhub/pkg/middleware"
	"github.com/soulstices/activityhub/pkg/response"
)

// Handler handles HTTP requests for group operations
type Handler struct {
	service *Service
}

// NewHandler creates a new group handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for group endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.GetByID)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)

	// Membership
	r.Post("/{id}/join", h.Join)
	r.Post("/{id}/leave", h.Leave)
	r.Get("/{id}/members", h.Members)

	// Admin-side request handling
	r.Get("/{id}/requests", h.PendingRequests)
	r.Post("/{id}/requests/{userId}/approve", h.Approve)
	r.Post("/{id}/requests/{userId}/reject", h.Reject)

	// Administrator relations
	r.Get("/{id}/admins", h.ListAdmins)
	r.Post("/{id}/admins", h.AssignAdmin)

	return r
}

func groupID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

// writeJoinError maps access-control failures to HTTP responses
func writeJoinError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, join.ErrMissingInviteCode):
		response.Error(w, http.StatusBadRequest, "MISSING_INVITE_CODE", err.Error())
	case errors.Is(err, join.ErrInvalidInviteCode):
		response.Error(w, http.StatusBadRequest, "INVALID_INVITE_CODE", err.Error())
	case errors.Is(err, join.ErrMissingApplicationData):
		response.Error(w, http.StatusBadRequest, "MISSING_APPLICATION_DATA", err.Error())
	case errors.Is(err, ErrDuplicateMembership):
		response.Error(w, http.StatusConflict, "DUPLICATE_MEMBERSHIP", err.Error())
	case errors.Is(err, ErrGroupNotFound):
		response.NotFound(w, err.Error())
	default:
		response.InternalError(w, "Failed to join group")
	}
}

// Create handles POST /groups
// @Summary      Create a new group
// @Description  Create a community group (founders only)
// @Tags         groups
// @Accept       json
// @Produce      json
// @Param        request body CreateGroupRequest true "Group creation request"
// @Success      201 {object} response.APIResponse{data=GroupResponse}
// @Failure      400 {object} response.APIResponse
// @Failure      403 {object} response.APIResponse
// @Router       /groups [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	creatorID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	var req CreateGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	group, err := h.service.Create(r.Context(), creatorID, &req)
	if err != nil {
		if errors.Is(err, ErrNotAuthorized) {
			response.Forbidden(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to create group")
		return
	}

	// The creator sees the freshly minted invite code
	response.JSON(w, http.StatusCreated, group.ToResponse(true))
}

// GetByID handles GET /groups/{id}
// @Summary      Get group by ID
// @Description  Get a group with its approved members
// @Tags         groups
// @Produce      json
// @Param        id path int true "Group ID"
// @Success      200 {object} response.APIResponse{data=GroupResponse}
// @Failure      404 {object} response.APIResponse
// @Router       /groups/{id} [get]
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := groupID(r)
	if err != nil {
		response.BadRequest(w, "Invalid group ID")
		return
	}

	group, members, err := h.service.GetByIDWithMembers(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrGroupNotFound) {
			response.NotFound(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to get group")
		return
	}

	// Only the group's administrators see the invite code
	includeCode := false
	if userID, ok := middleware.GetUserID(r.Context()); ok {
		if isAdmin, err := h.service.IsAdmin(r.Context(), id, userID); err == nil {
			includeCode = isAdmin
		}
	}

	groupResp := group.ToResponse(includeCode)
	groupResp.Members = make([]*MembershipResponse, len(members))
	for i, m := range members {
		groupResp.Members[i] = m.ToResponse()
	}

	response.JSON(w, http.StatusOK, groupResp)
}

// List handles GET /groups
// @Summary      List groups
// @Description  Get a paginated list of all community groups
// @Tags         groups
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        per_page query int false "Items per page" default(20)
// @Success      200 {object} response.APIResponse{data=[]GroupResponse}
// @Router       /groups [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))

	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}

	groups, total, err := h.service.List(r.Context(), page, perPage)
	if err != nil {
		response.InternalError(w, "Failed to list groups")
		return
	}

	groupResponses := make([]*GroupResponse, len(groups))
	for i, group := range groups {
		groupResponses[i] = group.ToResponse(false)
	}

	totalPages := (total + perPage - 1) / perPage
	meta := &response.Meta{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
	}

	response.JSONWithMeta(w, http.StatusOK, groupResponses, meta)
}

// Update handles PUT /groups/{id}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := groupID(r)
	if err != nil {
		response.BadRequest(w, "Invalid group ID")
		return
	}

	actorID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	var req UpdateGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	group, err := h.service.Update(r.Context(), id, actorID, &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrGroupNotFound):
			response.NotFound(w, err.Error())
		case errors.Is(err, ErrNotAuthorized):
			response.Forbidden(w, err.Error())
		default:
			response.InternalError(w, "Failed to update group")
		}
		return
	}

	response.JSON(w, http.StatusOK, group.ToResponse(true))
}

// Delete handles DELETE /groups/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := groupID(r)
	if err != nil {
		response.BadRequest(w, "Invalid group ID")
		return
	}

	actorID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	if err := h.service.Delete(r.Context(), id, actorID); err != nil {
		switch {
		case errors.Is(err, ErrGroupNotFound):
			response.NotFound(w, err.Error())
		case errors.Is(err, ErrNotAuthorized):
			response.Forbidden(w, err.Error())
		default:
			response.InternalError(w, "Failed to delete group")
		}
		return
	}

	response.JSON(w, http.StatusOK, map[string]string{"message": "Group deleted successfully"})
}

// Join handles POST /groups/{id}/join
// @Summary      Join a group
// @Description  Request membership; the outcome depends on the group's joining type
// @Tags         groups
// @Accept       json
// @Produce      json
// @Param        id path int true "Group ID"
// @Param        request body JoinGroupRequest false "Invite code or screening application"
// @Success      201 {object} response.APIResponse{data=MembershipResponse}
// @Failure      400 {object} response.APIResponse
// @Failure      409 {object} response.APIResponse
// @Router       /groups/{id}/join [post]
func (h *Handler) Join(w http.ResponseWriter, r *http.Request) {
	id, err := groupID(r)
	if err != nil {
		response.BadRequest(w, "Invalid group ID")
		return
	}

	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	var req JoinGroupRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, "Invalid request body")
			return
		}
	}

	membership, err := h.service.Join(r.Context(), id, userID, &req)
	if err != nil {
		writeJoinError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, membership.ToResponse())
}

// Leave handles POST /groups/{id}/leave
func (h *Handler) Leave(w http.ResponseWriter, r *http.Request) {
	id, err := groupID(r)
	if err != nil {
		response.BadRequest(w, "Invalid group ID")
		return
	}

	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	if err := h.service.Leave(r.Context(), id, userID); err != nil {
		if errors.Is(err, ErrNotAMember) {
			response.NotFound(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to leave group")
		return
	}

	response.JSON(w, http.StatusOK, map[string]string{"message": "Left group successfully"})
}

// Members handles GET /groups/{id}/members
func (h *Handler) Members(w http.ResponseWriter, r *http.Request) {
	id, err := groupID(r)
	if err != nil {
		response.BadRequest(w, "Invalid group ID")
		return
	}

	_, members, err := h.service.GetByIDWithMembers(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrGroupNotFound) {
			response.NotFound(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to get members")
		return
	}

	memberResponses := make([]*MembershipResponse, len(members))
	for i, m := range members {
		memberResponses[i] = m.ToResponse()
	}

	response.JSON(w, http.StatusOK, memberResponses)
}

// PendingRequests handles GET /groups/{id}/requests
// @Summary      List pending join requests
// @Description  Membership requests awaiting review (group admins only)
// @Tags         groups
// @Produce      json
// @Param        id path int true "Group ID"
// @Success      200 {object} response.APIResponse{data=[]MembershipResponse}
// @Failure      403 {object} response.APIResponse
// @Router       /groups/{id}/requests [get]
func (h *Handler) PendingRequests(w http.ResponseWriter, r *http.Request) {
	id, err := groupID(r)
	if err != nil {
		response.BadRequest(w, "Invalid group ID")
		return
	}

	actorID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	requests, err := h.service.PendingRequests(r.Context(), id, actorID)
	if err != nil {
		if errors.Is(err, ErrNotAuthorized) {
			response.Forbidden(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to list requests")
		return
	}

	requestResponses := make([]*MembershipResponse, len(requests))
	for i, m := range requests {
		requestResponses[i] = m.ToResponse()
	}

	response.JSON(w, http.StatusOK, requestResponses)
}

// Approve handles POST /groups/{id}/requests/{userId}/approve
func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	h.resolveRequest(w, r, h.service.Approve)
}

// Reject handles POST /groups/{id}/requests/{userId}/reject
func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	h.resolveRequest(w, r, h.service.Reject)
}

func (h *Handler) resolveRequest(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, groupID, userID, actorID int64) (*Membership, error)) {
	id, err := groupID(r)
	if err != nil {
		response.BadRequest(w, "Invalid group ID")
		return
	}

	userID, err := strconv.ParseInt(chi.URLParam(r, "userId"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid user ID")
		return
	}

	actorID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	membership, err := fn(r.Context(), id, userID, actorID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotAuthorized):
			response.Forbidden(w, err.Error())
		case errors.Is(err, ErrMembershipNotFound):
			response.NotFound(w, err.Error())
		case errors.Is(err, ErrInvalidTransition):
			response.Error(w, http.StatusConflict, "INVALID_TRANSITION", err.Error())
		default:
			response.InternalError(w, "Failed to resolve request")
		}
		return
	}

	response.JSON(w, http.StatusOK, membership.ToResponse())
}

// ListAdmins handles GET /groups/{id}/admins
func (h *Handler) ListAdmins(w http.ResponseWriter, r *http.Request) {
	id, err := groupID(r)
	if err != nil {
		response.BadRequest(w, "Invalid group ID")
		return
	}

	admins, err := h.service.ListAdmins(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrGroupNotFound) {
			response.NotFound(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to list admins")
		return
	}

	adminResponses := make([]*AdminResponse, len(admins))
	for i, a := range admins {
		adminResponses[i] = a.ToResponse()
	}

	response.JSON(w, http.StatusOK, adminResponses)
}

// AssignAdmin handles POST /groups/{id}/admins
// @Summary      Assign a group administrator
// @Description  Record an administrator relation and promote the user's role (founders only)
// @Tags         groups
// @Accept       json
// @Produce      json
// @Param        id path int true "Group ID"
// @Param        request body AssignAdminRequest true "User to promote"
// @Success      201 {object} response.APIResponse{data=AdminResponse}
// @Failure      403 {object} response.APIResponse
// @Failure      409 {object} response.APIResponse
// @Router       /groups/{id}/admins [post]
func (h *Handler) AssignAdmin(w http.ResponseWriter, r *http.Request) {
	id, err := groupID(r)
	if err != nil {
		response.BadRequest(w, "Invalid group ID")
		return
	}

	actorID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	var req AssignAdminRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	admin, err := h.service.AssignAdmin(r.Context(), id, actorID, &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotAuthorized):
			response.Forbidden(w, err.Error())
		case errors.Is(err, ErrGroupNotFound):
			response.NotFound(w, err.Error())
		case errors.Is(err, ErrAlreadyAdmin):
			response.Conflict(w, err.Error())
		default:
			response.InternalError(w, "Failed to assign admin")
		}
		return
	}

	response.JSON(w, http.StatusCreated, admin.ToResponse())
}
