package gate_test

import (
	"errors"
	"testing"

	"github.com/soulstices/activityhub/internal/activity/gate"
)

func intPtr(n int) *int { return &n }

func TestFactory_Create(t *testing.T) {
	factory := gate.NewGateFactory()

	for _, typ := range []gate.ActivityType{gate.TypePublic, gate.TypePrivate, gate.TypeInviteOnly} {
		g, err := factory.Create(typ)
		if err != nil {
			t.Fatalf("Create(%s) failed: %v", typ, err)
		}
		if g.Type() != typ {
			t.Errorf("gate type: got %s, want %s", g.Type(), typ)
		}
	}

	if _, err := factory.Create("secret"); err == nil {
		t.Error("expected error for unknown activity type")
	}
}

func TestCapacity(t *testing.T) {
	factory := gate.NewGateFactory()

	tests := []struct {
		name    string
		count   int
		limit   *int
		wantErr error
	}{
		{"no limit", 10000, nil, nil},
		{"below limit", 1, intPtr(2), nil},
		{"at limit", 2, intPtr(2), gate.ErrActivityFull},
		{"over limit", 3, intPtr(2), gate.ErrActivityFull},
		{"zero limit", 0, intPtr(0), gate.ErrActivityFull},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := factory.Evaluate(gate.TypePublic, gate.JoinInput{
				RegisteredCount:  tt.count,
				ParticipantLimit: tt.limit,
			})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err: got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCapacityBoundary_NthSucceedsNPlusFirstFails(t *testing.T) {
	factory := gate.NewGateFactory()
	limit := intPtr(2)

	// The 2nd join (one registered so far) must pass
	if err := factory.Evaluate(gate.TypePublic, gate.JoinInput{RegisteredCount: 1, ParticipantLimit: limit}); err != nil {
		t.Errorf("join at count=1 with limit=2: unexpected error %v", err)
	}
	// The 3rd join (two registered) must fail
	err := factory.Evaluate(gate.TypePublic, gate.JoinInput{RegisteredCount: 2, ParticipantLimit: limit})
	if !errors.Is(err, gate.ErrActivityFull) {
		t.Errorf("join at count=2 with limit=2: got %v, want %v", err, gate.ErrActivityFull)
	}
}

func TestCapacityCheckedBeforeTypeGate(t *testing.T) {
	factory := gate.NewGateFactory()

	// A full invite-only activity reports full, not the code problem
	err := factory.Evaluate(gate.TypeInviteOnly, gate.JoinInput{
		RegisteredCount:  5,
		ParticipantLimit: intPtr(5),
		StoredCode:       "AB12CD34",
	})
	if !errors.Is(err, gate.ErrActivityFull) {
		t.Errorf("err: got %v, want %v", err, gate.ErrActivityFull)
	}
}

func TestPrivateGate(t *testing.T) {
	factory := gate.NewGateFactory()

	err := factory.Evaluate(gate.TypePrivate, gate.JoinInput{HasGroupMembership: false})
	if !errors.Is(err, gate.ErrNotGroupMember) {
		t.Errorf("non-member: got %v, want %v", err, gate.ErrNotGroupMember)
	}

	if err := factory.Evaluate(gate.TypePrivate, gate.JoinInput{HasGroupMembership: true}); err != nil {
		t.Errorf("member: unexpected error %v", err)
	}
}

func TestInviteOnlyGate(t *testing.T) {
	factory := gate.NewGateFactory()

	tests := []struct {
		name    string
		code    string
		wantErr error
	}{
		{"exact match", "AB12CD34", nil},
		{"lowercase match", "ab12cd34", nil},
		{"wrong code", "WRONG123", gate.ErrInvalidInviteCode},
		{"missing code", "", gate.ErrMissingInviteCode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := factory.Evaluate(gate.TypeInviteOnly, gate.JoinInput{
				InviteCode: tt.code,
				StoredCode: "AB12CD34",
			})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err: got %v, want %v", err, tt.wantErr)
			}
		})
	}
}
