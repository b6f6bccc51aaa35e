package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTableNames(t *testing.T) {
	assert.Equal(t, "users", User{}.TableName())
	assert.Equal(t, "client_profiles", ClientProfile{}.TableName())
	assert.Equal(t, "lawyer_profiles", LawyerProfile{}.TableName())
	assert.Equal(t, "consultation_requests", ConsultationRequest{}.TableName())
	assert.Equal(t, "consultation_points", ConsultationPoint{}.TableName())
	assert.Equal(t, "notifications", Notification{}.TableName())
	assert.Equal(t, "messages", Message{}.TableName())
	assert.Equal(t, "meeting_schedules", MeetingSchedule{}.TableName())
}

func TestRoleValid(t *testing.T) {
	tests := []struct {
		role Role
		want bool
	}{
		{RoleClient, true},
		{RoleLawyer, true},
		{RoleAdmin, true},
		{"customer", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.role.Valid())
		})
	}
}

func TestParseExpertise(t *testing.T) {
	e, ok := ParseExpertise("  Family ")
	assert.True(t, ok)
	assert.Equal(t, ExpertiseFamily, e)

	_, ok = ParseExpertise("maritime")
	assert.False(t, ok)
}

func TestConsultationStatusTransitions(t *testing.T) {
	tests := []struct {
		from ConsultationStatus
		to   ConsultationStatus
		want bool
	}{
		{StatusPending, StatusAccepted, true},
		{StatusPending, StatusRejected, true},
		{StatusAccepted, StatusCompleted, true},
		{StatusPending, StatusCompleted, false},
		{StatusAccepted, StatusRejected, false},
		{StatusAccepted, StatusPending, false},
		{StatusRejected, StatusAccepted, false},
		{StatusRejected, StatusPending, false},
		{StatusCompleted, StatusAccepted, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}

	assert.True(t, StatusCompleted.Valid())
	assert.False(t, ConsultationStatus("cancelled").Valid())
}

func TestConsultationIsParticipant(t *testing.T) {
	c := ConsultationRequest{ClientID: 1, LawyerID: 2}
	assert.True(t, c.IsParticipant(1))
	assert.True(t, c.IsParticipant(2))
	assert.False(t, c.IsParticipant(3))
}

func TestDisplayName(t *testing.T) {
	user := User{Email: "someone@example.com"}

	tests := []struct {
		name    string
		profile Profile
		want    string
	}{
		{"client profile", ClientProfileOf(&ClientProfile{FullName: "Nimal Perera"}), "Nimal Perera"},
		{"lawyer profile", LawyerProfileOf(&LawyerProfile{FullName: "Anura Silva"}), "Anura Silva"},
		{"no profile", Profile{}, "someone@example.com"},
		{"nil client profile", ClientProfileOf(nil), "someone@example.com"},
		{"blank full name", LawyerProfileOf(&LawyerProfile{FullName: "   "}), "someone@example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DisplayName(user, tt.profile))
		})
	}
}
