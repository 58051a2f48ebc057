package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jwalitptl/dental-api/internal/model"
)

func TestAuthorize(t *testing.T) {
	admin := &model.Session{ID: 1, Role: model.RoleAdmin}
	patient := &model.Session{ID: 2, Role: model.RolePatient}
	adminOnly := []model.Role{model.RoleAdmin}
	patientOnly := []model.Role{model.RolePatient}

	tests := []struct {
		name    string
		session *model.Session
		allowed []model.Role
		want    Decision
	}{
		{"anonymous on admin route", nil, adminOnly, RedirectLogin},
		{"anonymous on open route", nil, nil, RedirectLogin},
		{"patient on admin route", patient, adminOnly, RedirectDefault},
		{"admin on patient route", admin, patientOnly, RedirectDefault},
		{"admin on admin route", admin, adminOnly, Allow},
		{"patient on patient route", patient, patientOnly, Allow},
		{"patient on open route", patient, nil, Allow},
		{"admin on mixed route", admin, []model.Role{model.RolePatient, model.RoleAdmin}, Allow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Authorize(tt.session, tt.allowed))
		})
	}
}

func TestDecisionString(t *testing.T) {
	assert.Equal(t, "allow", Allow.String())
	assert.Equal(t, "redirect_login", RedirectLogin.String())
	assert.Equal(t, "redirect_default", RedirectDefault.String())
}
