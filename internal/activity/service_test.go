package activity_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/soulstices/activityhub/internal/activity"
	"github.com/soulstices/activityhub/internal/activity/gate"
	"github.com/soulstices/activityhub/internal/group"
)

// fakeStore is an in-memory activity.Store for service tests
type fakeStore struct {
	nextID         int64
	activities     map[int64]*activity.Activity
	participations map[[2]int64]*activity.Participation
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		nextID:         1,
		activities:     make(map[int64]*activity.Activity),
		participations: make(map[[2]int64]*activity.Participation),
	}
}

func (f *fakeStore) addActivity(a *activity.Activity) *activity.Activity {
	a.ID = f.nextID
	f.nextID++
	f.activities[a.ID] = a
	return a
}

func (f *fakeStore) Create(_ context.Context, req *activity.CreateActivityRequest, date time.Time, creatorID int64, inviteCode *string) (*activity.Activity, error) {
	return f.addActivity(&activity.Activity{
		GroupID:          req.GroupID,
		Title:            req.Title,
		Place:            req.Place,
		Date:             date,
		StartTime:        req.StartTime,
		EndTime:          req.EndTime,
		Type:             req.Type,
		ParticipantLimit: req.ParticipantLimit,
		InviteCode:       inviteCode,
		CreatedBy:        creatorID,
	}), nil
}

func (f *fakeStore) GetByID(_ context.Context, id int64) (*activity.Activity, error) {
	return f.activities[id], nil
}

func (f *fakeStore) List(_ context.Context, start, end *time.Time, limit, offset int) ([]*activity.Activity, int, error) {
	var all []*activity.Activity
	for _, a := range f.activities {
		all = append(all, a)
	}
	return all, len(all), nil
}

func (f *fakeStore) ListByGroup(_ context.Context, groupID int64) ([]*activity.Activity, error) {
	var out []*activity.Activity
	for _, a := range f.activities {
		if a.GroupID == groupID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeStore) Update(_ context.Context, id int64, req *activity.UpdateActivityRequest, date *time.Time) (*activity.Activity, error) {
	a := f.activities[id]
	if a == nil {
		return nil, nil
	}
	if req.Title != nil {
		a.Title = *req.Title
	}
	if date != nil {
		a.Date = *date
	}
	return a, nil
}

func (f *fakeStore) Delete(_ context.Context, id int64) error {
	if _, ok := f.activities[id]; !ok {
		return activity.ErrActivityNotFound
	}
	delete(f.activities, id)
	return nil
}

func (f *fakeStore) InviteCodeExists(_ context.Context, code string) (bool, error) {
	for _, a := range f.activities {
		if a.InviteCode != nil && *a.InviteCode == code {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) GetParticipation(_ context.Context, activityID, userID int64) (*activity.Participation, error) {
	return f.participations[[2]int64{activityID, userID}], nil
}

func (f *fakeStore) CountRegistered(_ context.Context, activityID int64) (int, error) {
	n := 0
	for _, p := range f.participations {
		if p.ActivityID == activityID {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) AddParticipant(_ context.Context, activityID, userID int64, limit *int) (*activity.Participation, error) {
	key := [2]int64{activityID, userID}
	if _, ok := f.participations[key]; ok {
		return nil, activity.ErrAlreadyJoined
	}
	count, _ := f.CountRegistered(context.Background(), activityID)
	if limit != nil && count >= *limit {
		return nil, activity.ErrActivityFull
	}
	p := &activity.Participation{ActivityID: activityID, UserID: userID, Status: activity.ParticipationRegistered}
	f.participations[key] = p
	return p, nil
}

func (f *fakeStore) DeleteParticipation(_ context.Context, activityID, userID int64) (bool, error) {
	key := [2]int64{activityID, userID}
	if _, ok := f.participations[key]; !ok {
		return false, nil
	}
	delete(f.participations, key)
	return true, nil
}

func (f *fakeStore) ListParticipants(_ context.Context, activityID int64) ([]*activity.Participation, error) {
	var out []*activity.Participation
	for _, p := range f.participations {
		if p.ActivityID == activityID {
			out = append(out, p)
		}
	}
	return out, nil
}

// fakeGroups is an in-memory activity.GroupStore
type fakeGroups struct {
	groups      map[int64]*group.Group
	admins      map[[2]int64]bool
	memberships map[[2]int64]*group.Membership
}

func newFakeGroups() *fakeGroups {
	return &fakeGroups{
		groups:      make(map[int64]*group.Group),
		admins:      make(map[[2]int64]bool),
		memberships: make(map[[2]int64]*group.Membership),
	}
}

func (f *fakeGroups) GetByID(_ context.Context, id int64) (*group.Group, error) {
	return f.groups[id], nil
}

func (f *fakeGroups) IsAdmin(_ context.Context, groupID, userID int64) (bool, error) {
	return f.admins[[2]int64{groupID, userID}], nil
}

func (f *fakeGroups) GetMembership(_ context.Context, groupID, userID int64) (*group.Membership, error) {
	return f.memberships[[2]int64{groupID, userID}], nil
}

func intPtr(n int) *int       { return &n }
func strPtr(s string) *string { return &s }

const (
	groupID = int64(1)
	adminID = int64(10)
	userID  = int64(11)
	otherID = int64(12)
)

func fixtures() (*fakeStore, *fakeGroups, *activity.Service) {
	store := newFakeStore()
	groups := newFakeGroups()
	groups.groups[groupID] = &group.Group{ID: groupID, Name: "Morning Runners"}
	groups.admins[[2]int64{groupID, adminID}] = true
	svc := activity.NewService(store, groups, gate.NewGateFactory())
	return store, groups, svc
}

func TestCreate_AdminsOnly(t *testing.T) {
	_, _, svc := fixtures()

	req := &activity.CreateActivityRequest{
		GroupID:   groupID,
		Title:     "Saturday 10k",
		Place:     "Riverside park",
		Date:      "2026-09-05",
		StartTime: "08:00",
		EndTime:   "10:00",
		Type:      gate.TypePublic,
	}

	if _, err := svc.Create(context.Background(), userID, req); !errors.Is(err, activity.ErrNotAuthorized) {
		t.Errorf("member create: got %v, want %v", err, activity.ErrNotAuthorized)
	}

	a, err := svc.Create(context.Background(), adminID, req)
	if err != nil {
		t.Fatalf("admin create failed: %v", err)
	}
	if a.InviteCode != nil {
		t.Error("public activity should not carry an invite code")
	}
}

func TestCreate_InvalidDate(t *testing.T) {
	_, _, svc := fixtures()

	req := &activity.CreateActivityRequest{
		GroupID:   groupID,
		Title:     "Saturday 10k",
		Place:     "Riverside park",
		Date:      "05/09/2026",
		StartTime: "08:00",
		EndTime:   "10:00",
		Type:      gate.TypePublic,
	}

	if _, err := svc.Create(context.Background(), adminID, req); !errors.Is(err, activity.ErrInvalidDate) {
		t.Errorf("err: got %v, want %v", err, activity.ErrInvalidDate)
	}
}

func TestCreate_InviteOnlyMintsCode(t *testing.T) {
	_, _, svc := fixtures()

	a, err := svc.Create(context.Background(), adminID, &activity.CreateActivityRequest{
		GroupID:   groupID,
		Title:     "Closed session",
		Place:     "Club house",
		Date:      "2026-09-05",
		StartTime: "18:00",
		EndTime:   "20:00",
		Type:      gate.TypeInviteOnly,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if a.InviteCode == nil || len(*a.InviteCode) != 8 {
		t.Errorf("invite code: got %v, want an 8-character code", a.InviteCode)
	}
}

func TestCreate_UnknownGroup(t *testing.T) {
	_, _, svc := fixtures()

	_, err := svc.Create(context.Background(), adminID, &activity.CreateActivityRequest{
		GroupID: 404, Title: "x", Place: "y", Date: "2026-09-05",
		StartTime: "08:00", EndTime: "10:00", Type: gate.TypePublic,
	})
	if !errors.Is(err, group.ErrGroupNotFound) {
		t.Errorf("err: got %v, want %v", err, group.ErrGroupNotFound)
	}
}

func TestJoin_PublicActivity(t *testing.T) {
	store, _, svc := fixtures()
	a := store.addActivity(&activity.Activity{GroupID: groupID, Title: "Saturday 10k", Type: gate.TypePublic})

	p, err := svc.Join(context.Background(), a.ID, userID, &activity.JoinActivityRequest{})
	if err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	if p.Status != activity.ParticipationRegistered {
		t.Errorf("status: got %s, want %s", p.Status, activity.ParticipationRegistered)
	}
}

func TestJoin_AlreadyJoined(t *testing.T) {
	store, _, svc := fixtures()
	a := store.addActivity(&activity.Activity{GroupID: groupID, Title: "Saturday 10k", Type: gate.TypePublic})

	if _, err := svc.Join(context.Background(), a.ID, userID, &activity.JoinActivityRequest{}); err != nil {
		t.Fatalf("first Join failed: %v", err)
	}
	_, err := svc.Join(context.Background(), a.ID, userID, &activity.JoinActivityRequest{})
	if !errors.Is(err, activity.ErrAlreadyJoined) {
		t.Errorf("err: got %v, want %v", err, activity.ErrAlreadyJoined)
	}
}

func TestJoin_FullActivity(t *testing.T) {
	store, _, svc := fixtures()
	a := store.addActivity(&activity.Activity{
		GroupID: groupID, Title: "Small session", Type: gate.TypePublic,
		ParticipantLimit: intPtr(2),
	})

	for _, id := range []int64{userID, otherID} {
		if _, err := svc.Join(context.Background(), a.ID, id, &activity.JoinActivityRequest{}); err != nil {
			t.Fatalf("Join(%d) failed: %v", id, err)
		}
	}

	_, err := svc.Join(context.Background(), a.ID, adminID, &activity.JoinActivityRequest{})
	if !errors.Is(err, activity.ErrActivityFull) {
		t.Errorf("err: got %v, want %v", err, activity.ErrActivityFull)
	}
}

func TestJoin_FullBeatsInviteCode(t *testing.T) {
	store, _, svc := fixtures()
	a := store.addActivity(&activity.Activity{
		GroupID: groupID, Title: "Closed session", Type: gate.TypeInviteOnly,
		InviteCode: strPtr("GH56IJ78"), ParticipantLimit: intPtr(1),
	})
	if _, err := svc.Join(context.Background(), a.ID, userID, &activity.JoinActivityRequest{InviteCode: "GH56IJ78"}); err != nil {
		t.Fatalf("Join failed: %v", err)
	}

	// Capacity is checked before the code, so a valid code still fails
	_, err := svc.Join(context.Background(), a.ID, otherID, &activity.JoinActivityRequest{InviteCode: "GH56IJ78"})
	if !errors.Is(err, activity.ErrActivityFull) {
		t.Errorf("err: got %v, want %v", err, activity.ErrActivityFull)
	}
}

func TestJoin_PrivateRequiresApprovedMembership(t *testing.T) {
	store, groups, svc := fixtures()
	a := store.addActivity(&activity.Activity{GroupID: groupID, Title: "Members run", Type: gate.TypePrivate})

	_, err := svc.Join(context.Background(), a.ID, userID, &activity.JoinActivityRequest{})
	if !errors.Is(err, gate.ErrNotGroupMember) {
		t.Errorf("non-member: got %v, want %v", err, gate.ErrNotGroupMember)
	}

	// A pending membership is not enough
	groups.memberships[[2]int64{groupID, userID}] = &group.Membership{
		GroupID: groupID, UserID: userID, Status: group.MembershipPending,
	}
	_, err = svc.Join(context.Background(), a.ID, userID, &activity.JoinActivityRequest{})
	if !errors.Is(err, gate.ErrNotGroupMember) {
		t.Errorf("pending member: got %v, want %v", err, gate.ErrNotGroupMember)
	}

	groups.memberships[[2]int64{groupID, userID}].Status = group.MembershipApproved
	if _, err := svc.Join(context.Background(), a.ID, userID, &activity.JoinActivityRequest{}); err != nil {
		t.Fatalf("approved member Join failed: %v", err)
	}
}

func TestJoin_InviteOnlyCaseInsensitive(t *testing.T) {
	store, _, svc := fixtures()
	a := store.addActivity(&activity.Activity{
		GroupID: groupID, Title: "Closed session", Type: gate.TypeInviteOnly,
		InviteCode: strPtr("GH56IJ78"),
	})

	if _, err := svc.Join(context.Background(), a.ID, userID, &activity.JoinActivityRequest{InviteCode: "gh56ij78"}); err != nil {
		t.Fatalf("Join failed: %v", err)
	}

	_, err := svc.Join(context.Background(), a.ID, otherID, &activity.JoinActivityRequest{InviteCode: "WRONG000"})
	if !errors.Is(err, gate.ErrInvalidInviteCode) {
		t.Errorf("wrong code: got %v, want %v", err, gate.ErrInvalidInviteCode)
	}
}

func TestJoin_UnknownActivity(t *testing.T) {
	_, _, svc := fixtures()

	_, err := svc.Join(context.Background(), 404, userID, &activity.JoinActivityRequest{})
	if !errors.Is(err, activity.ErrActivityNotFound) {
		t.Errorf("err: got %v, want %v", err, activity.ErrActivityNotFound)
	}
}

func TestLeave(t *testing.T) {
	store, _, svc := fixtures()
	a := store.addActivity(&activity.Activity{GroupID: groupID, Title: "Saturday 10k", Type: gate.TypePublic})

	if err := svc.Leave(context.Background(), a.ID, userID); !errors.Is(err, activity.ErrNotParticipating) {
		t.Errorf("err: got %v, want %v", err, activity.ErrNotParticipating)
	}

	if _, err := svc.Join(context.Background(), a.ID, userID, &activity.JoinActivityRequest{}); err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	if err := svc.Leave(context.Background(), a.ID, userID); err != nil {
		t.Fatalf("Leave failed: %v", err)
	}
	if p, _ := store.GetParticipation(context.Background(), a.ID, userID); p != nil {
		t.Error("participation row should be deleted on leave")
	}

	// Leaving frees the seat
	if _, err := svc.Join(context.Background(), a.ID, userID, &activity.JoinActivityRequest{}); err != nil {
		t.Fatalf("rejoin after leave failed: %v", err)
	}
}

func TestUpdateAndDelete_AdminsOnly(t *testing.T) {
	store, _, svc := fixtures()
	a := store.addActivity(&activity.Activity{GroupID: groupID, Title: "Saturday 10k", Type: gate.TypePublic})

	title := "Sunday 10k"
	if _, err := svc.Update(context.Background(), a.ID, userID, &activity.UpdateActivityRequest{Title: &title}); !errors.Is(err, activity.ErrNotAuthorized) {
		t.Errorf("member update: got %v, want %v", err, activity.ErrNotAuthorized)
	}

	updated, err := svc.Update(context.Background(), a.ID, adminID, &activity.UpdateActivityRequest{Title: &title})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Title != title {
		t.Errorf("title: got %s, want %s", updated.Title, title)
	}

	if err := svc.Delete(context.Background(), a.ID, userID); !errors.Is(err, activity.ErrNotAuthorized) {
		t.Errorf("member delete: got %v, want %v", err, activity.ErrNotAuthorized)
	}
	if err := svc.Delete(context.Background(), a.ID, adminID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
}
