package join_test

import (
	"errors"
	"testing"

	"github.com/soulstices/activityhub/internal/group/join"
)

func TestFactory_Create(t *testing.T) {
	factory := join.NewPolicyFactory()

	for _, typ := range []join.JoiningType{join.TypePublic, join.TypeInviteOnly, join.TypeScreening} {
		policy, err := factory.Create(typ)
		if err != nil {
			t.Fatalf("Create(%s) failed: %v", typ, err)
		}
		if policy.Type() != typ {
			t.Errorf("policy type: got %s, want %s", policy.Type(), typ)
		}
	}

	if _, err := factory.Create("open_bar"); err == nil {
		t.Error("expected error for unknown joining type")
	}
}

func TestPublicPolicy_AlwaysApproves(t *testing.T) {
	factory := join.NewPolicyFactory()

	// No code, no application, nothing required
	status, err := factory.Evaluate(join.TypePublic, join.Rules{}, join.Request{})
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if status != join.StatusApproved {
		t.Errorf("status: got %s, want %s", status, join.StatusApproved)
	}
}

func TestInviteOnlyPolicy(t *testing.T) {
	factory := join.NewPolicyFactory()
	rules := join.Rules{InviteCode: "AB12CD34"}

	tests := []struct {
		name       string
		code       string
		wantStatus join.Status
		wantErr    error
	}{
		{"exact match", "AB12CD34", join.StatusApproved, nil},
		{"lowercase match", "ab12cd34", join.StatusApproved, nil},
		{"mixed case match", "Ab12cD34", join.StatusApproved, nil},
		{"wrong code", "ZZ99ZZ99", "", join.ErrInvalidInviteCode},
		{"missing code", "", "", join.ErrMissingInviteCode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, err := factory.Evaluate(join.TypeInviteOnly, rules, join.Request{InviteCode: tt.code})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err: got %v, want %v", err, tt.wantErr)
			}
			if status != tt.wantStatus {
				t.Errorf("status: got %q, want %q", status, tt.wantStatus)
			}
		})
	}
}

func TestScreeningPolicy_NeverApprovesDirectly(t *testing.T) {
	factory := join.NewPolicyFactory()

	status, err := factory.Evaluate(join.TypeScreening, join.Rules{}, join.Request{
		Application: map[string]string{
			"reason":     "I love board games",
			"experience": "Weekly player for five years",
		},
	})
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if status != join.StatusPending {
		t.Errorf("status: got %s, want %s", status, join.StatusPending)
	}
}

func TestScreeningPolicy_RequiredFields(t *testing.T) {
	factory := join.NewPolicyFactory()
	rules := join.Rules{
		Questions: []join.Question{{ID: "availability", Prompt: "When can you attend?"}},
	}

	tests := []struct {
		name        string
		application map[string]string
		wantErr     bool
	}{
		{"nil application", nil, true},
		{"missing reason", map[string]string{"experience": "x", "availability": "weekends"}, true},
		{"missing experience", map[string]string{"reason": "x", "availability": "weekends"}, true},
		{"blank reason", map[string]string{"reason": "   ", "experience": "x", "availability": "weekends"}, true},
		{"missing custom question", map[string]string{"reason": "x", "experience": "y"}, true},
		{"complete", map[string]string{"reason": "x", "experience": "y", "availability": "weekends"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := factory.Evaluate(join.TypeScreening, rules, join.Request{Application: tt.application})
			if tt.wantErr {
				if !errors.Is(err, join.ErrMissingApplicationData) {
					t.Errorf("err: got %v, want %v", err, join.ErrMissingApplicationData)
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestScreeningPolicy_IgnoresInviteCode(t *testing.T) {
	factory := join.NewPolicyFactory()

	// A screening group never takes the invite-code path, even if a code is
	// supplied by the client
	status, err := factory.Evaluate(join.TypeScreening, join.Rules{}, join.Request{
		InviteCode: "AB12CD34",
		Application: map[string]string{
			"reason":     "x",
			"experience": "y",
		},
	})
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if status != join.StatusPending {
		t.Errorf("status: got %s, want %s", status, join.StatusPending)
	}
}
