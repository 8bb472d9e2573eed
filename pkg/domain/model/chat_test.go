package model_test

import (
	"errors"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/teamsbackup/pkg/domain/model"
)

func strPtr(s string) *string { return &s }

func TestChatTitle(t *testing.T) {
	tests := []struct {
		name  string
		topic *string
		want  string
	}{
		{"topic present", strPtr("Project X"), "Project X"},
		{"topic empty", strPtr(""), model.UnknownChatTitle},
		{"topic absent", nil, model.UntitledChatName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chat := &model.Chat{ID: "c1", Topic: tt.topic}
			gt.Value(t, chat.Title()).Equal(tt.want)
		})
	}
}

func TestChatValidate(t *testing.T) {
	gt.NoError(t, (&model.Chat{ID: "c1"}).Validate())

	err := (&model.Chat{}).Validate()
	gt.Value(t, err).NotNil()
	gt.Bool(t, errors.Is(err, model.ErrMissingIdentifier)).True()
}

func TestUser(t *testing.T) {
	t.Run("missing id fails validation", func(t *testing.T) {
		err := (&model.User{DisplayName: "Jane Doe"}).Validate()
		gt.Error(t, err).Is(model.ErrMissingIdentifier)
	})

	t.Run("missing display name falls back", func(t *testing.T) {
		u := &model.User{ID: "u1"}
		gt.Value(t, u.Name()).Equal(model.UnknownName)
	})

	t.Run("matches by id or principal name", func(t *testing.T) {
		u := &model.User{ID: "u1", UserPrincipalName: "Jane.Doe@example.com"}
		gt.Bool(t, u.Matches("u1")).True()
		gt.Bool(t, u.Matches("jane.doe@example.com")).True()
		gt.Bool(t, u.Matches("u2")).False()
		gt.Bool(t, u.Matches("")).False()
	})
}
