package activity

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/soulstices/activityhub/internal/activity/gate"
	"github.com/soulstices/activityhub/internal/group"
	"github.com/soulstices/activityhub/pkg/middleware"
	"github.com/soulstices/activityhub/pkg/response"
)

// Handler handles HTTP requests for activity operations
type Handler struct {
	service *Service
}

// NewHandler creates a new activity handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for activity endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.GetByID)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)

	// Participation
	r.Post("/{id}/join", h.Join)
	r.Post("/{id}/leave", h.Leave)
	r.Get("/{id}/participants", h.Participants)

	return r
}

func activityID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

// writeJoinError maps admission failures to HTTP responses
func writeJoinError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrActivityNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, ErrActivityFull):
		response.Error(w, http.StatusConflict, "ACTIVITY_FULL", err.Error())
	case errors.Is(err, ErrAlreadyJoined):
		response.Error(w, http.StatusConflict, "ALREADY_JOINED", err.Error())
	case errors.Is(err, gate.ErrNotGroupMember):
		response.Error(w, http.StatusForbidden, "NOT_GROUP_MEMBER", err.Error())
	case errors.Is(err, gate.ErrMissingInviteCode):
		response.Error(w, http.StatusBadRequest, "MISSING_INVITE_CODE", err.Error())
	case errors.Is(err, gate.ErrInvalidInviteCode):
		response.Error(w, http.StatusBadRequest, "INVALID_INVITE_CODE", err.Error())
	default:
		response.InternalError(w, "Failed to join activity")
	}
}

// Create handles POST /activities
// @Summary      Create a new activity
// @Description  Create an activity in a group (group admins only)
// @Tags         activities
// @Accept       json
// @Produce      json
// @Param        request body CreateActivityRequest true "Activity creation request"
// @Success      201 {object} response.APIResponse{data=ActivityResponse}
// @Failure      400 {object} response.APIResponse
// @Failure      403 {object} response.APIResponse
// @Router       /activities [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	creatorID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	var req CreateActivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	activity, err := h.service.Create(r.Context(), creatorID, &req)
	if err != nil {
		switch {
		case errors.Is(err, group.ErrGroupNotFound):
			response.NotFound(w, err.Error())
		case errors.Is(err, ErrNotAuthorized):
			response.Forbidden(w, err.Error())
		case errors.Is(err, ErrInvalidDate):
			response.BadRequest(w, err.Error())
		default:
			response.InternalError(w, "Failed to create activity")
		}
		return
	}

	// The creating admin sees the freshly minted invite code
	response.JSON(w, http.StatusCreated, activity.ToResponse(true))
}

// GetByID handles GET /activities/{id}
// @Summary      Get activity by ID
// @Tags         activities
// @Produce      json
// @Param        id path int true "Activity ID"
// @Success      200 {object} response.APIResponse{data=ActivityResponse}
// @Failure      404 {object} response.APIResponse
// @Router       /activities/{id} [get]
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := activityID(r)
	if err != nil {
		response.BadRequest(w, "Invalid activity ID")
		return
	}

	activity, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrActivityNotFound) {
			response.NotFound(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to get activity")
		return
	}

	// Only the owning group's administrators see the invite code
	includeCode := false
	if userID, ok := middleware.GetUserID(r.Context()); ok {
		if isAdmin, err := h.service.IsGroupAdmin(r.Context(), activity.GroupID, userID); err == nil {
			includeCode = isAdmin
		}
	}

	response.JSON(w, http.StatusOK, activity.ToResponse(includeCode))
}

// List handles GET /activities
// @Summary      List activities
// @Description  Get a paginated list of activities, optionally filtered by date range
// @Tags         activities
// @Produce      json
// @Param        start query string false "Earliest date (YYYY-MM-DD)"
// @Param        end query string false "Latest date (YYYY-MM-DD)"
// @Param        group_id query int false "Restrict to one group's activities"
// @Param        page query int false "Page number" default(1)
// @Param        per_page query int false "Items per page" default(20)
// @Success      200 {object} response.APIResponse{data=[]ActivityResponse}
// @Router       /activities [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if g := r.URL.Query().Get("group_id"); g != "" {
		groupID, err := strconv.ParseInt(g, 10, 64)
		if err != nil {
			response.BadRequest(w, "Invalid group ID")
			return
		}
		h.listByGroup(w, r, groupID)
		return
	}

	var start, end *time.Time
	if s := r.URL.Query().Get("start"); s != "" {
		d, err := time.Parse("2006-01-02", s)
		if err != nil {
			response.BadRequest(w, "Invalid start date, expected YYYY-MM-DD")
			return
		}
		start = &d
	}
	if e := r.URL.Query().Get("end"); e != "" {
		d, err := time.Parse("2006-01-02", e)
		if err != nil {
			response.BadRequest(w, "Invalid end date, expected YYYY-MM-DD")
			return
		}
		end = &d
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))

	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}

	activities, total, err := h.service.List(r.Context(), start, end, page, perPage)
	if err != nil {
		response.InternalError(w, "Failed to list activities")
		return
	}

	activityResponses := make([]*ActivityResponse, len(activities))
	for i, a := range activities {
		activityResponses[i] = a.ToResponse(false)
	}

	totalPages := (total + perPage - 1) / perPage
	meta := &response.Meta{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
	}

	response.JSONWithMeta(w, http.StatusOK, activityResponses, meta)
}

func (h *Handler) listByGroup(w http.ResponseWriter, r *http.Request, groupID int64) {
	activities, err := h.service.ListByGroup(r.Context(), groupID)
	if err != nil {
		if errors.Is(err, group.ErrGroupNotFound) {
			response.NotFound(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to list activities")
		return
	}

	activityResponses := make([]*ActivityResponse, len(activities))
	for i, a := range activities {
		activityResponses[i] = a.ToResponse(false)
	}

	response.JSON(w, http.StatusOK, activityResponses)
}

// Update handles PUT /activities/{id}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := activityID(r)
	if err != nil {
		response.BadRequest(w, "Invalid activity ID")
		return
	}

	actorID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	var req UpdateActivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	activity, err := h.service.Update(r.Context(), id, actorID, &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrActivityNotFound):
			response.NotFound(w, err.Error())
		case errors.Is(err, ErrNotAuthorized):
			response.Forbidden(w, err.Error())
		case errors.Is(err, ErrInvalidDate):
			response.BadRequest(w, err.Error())
		default:
			response.InternalError(w, "Failed to update activity")
		}
		return
	}

	response.JSON(w, http.StatusOK, activity.ToResponse(true))
}

// Delete handles DELETE /activities/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := activityID(r)
	if err != nil {
		response.BadRequest(w, "Invalid activity ID")
		return
	}

	actorID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	if err := h.service.Delete(r.Context(), id, actorID); err != nil {
		switch {
		case errors.Is(err, ErrActivityNotFound):
			response.NotFound(w, err.Error())
		case errors.Is(err, ErrNotAuthorized):
			response.Forbidden(w, err.Error())
		default:
			response.InternalError(w, "Failed to delete activity")
		}
		return
	}

	response.JSON(w, http.StatusOK, map[string]string{"message": "Activity deleted successfully"})
}

// Join handles POST /activities/{id}/join
// @Summary      Join an activity
// @Description  Register for an activity; the outcome depends on its type and capacity
// @Tags         activities
// @Accept       json
// @Produce      json
// @Param        id path int true "Activity ID"
// @Param        request body JoinActivityRequest false "Invite code if required"
// @Success      201 {object} response.APIResponse{data=ParticipationResponse}
// @Failure      400 {object} response.APIResponse
// @Failure      403 {object} response.APIResponse
// @Failure      409 {object} response.APIResponse
// @Router       /activities/{id}/join [post]
func (h *Handler) Join(w http.ResponseWriter, r *http.Request) {
	id, err := activityID(r)
	if err != nil {
		response.BadRequest(w, "Invalid activity ID")
		return
	}

	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	var req JoinActivityRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, "Invalid request body")
			return
		}
	}

	participation, err := h.service.Join(r.Context(), id, userID, &req)
	if err != nil {
		writeJoinError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, participation.ToResponse())
}

// Leave handles POST /activities/{id}/leave
func (h *Handler) Leave(w http.ResponseWriter, r *http.Request) {
	id, err := activityID(r)
	if err != nil {
		response.BadRequest(w, "Invalid activity ID")
		return
	}

	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	if err := h.service.Leave(r.Context(), id, userID); err != nil {
		if errors.Is(err, ErrNotParticipating) {
			response.NotFound(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to leave activity")
		return
	}

	response.JSON(w, http.StatusOK, map[string]string{"message": "Left activity successfully"})
}

// Participants handles GET /activities/{id}/participants
func (h *Handler) Participants(w http.ResponseWriter, r *http.Request) {
	id, err := activityID(r)
	if err != nil {
		response.BadRequest(w, "Invalid activity ID")
		return
	}

	participants, err := h.service.Participants(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrActivityNotFound) {
			response.NotFound(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to list participants")
		return
	}

	participantResponses := make([]*ParticipationResponse, len(participants))
	for i, p := range participants {
		participantResponses[i] = p.ToResponse()
	}

	response.JSON(w, http.StatusOK, participantResponses)
}
