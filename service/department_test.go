package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"video-consult/entities"
	"video-consult/repository"
)

func TestDepartmentResolver_Resolve(t *testing.T) {
	db := setupTestDB(t)
	seedDirectory(t, db)
	require.NoError(t, db.Create(&entities.MedicalDepartment{
		Name:           "Gastroentérologie",
		DepartmentName: "Gastroentérologie",
	}).Error)
	resolver := NewDepartmentResolver(repository.NewRepo(db))
	ctx := context.Background()

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{name: "Empty input", input: "   ", want: ""},
		{name: "Exact name", input: "Cardiology", want: "Cardiology"},
		{name: "Surrounding whitespace", input: "Cardiology ", want: "Cardiology"},
		{name: "Unique prefix", input: "Nutri", want: "Nutrition"},
		{name: "Prefix with emoji", input: "Derm", want: "Dermatology 🩺"},
		{name: "Full emoji name", input: "Dermatology 🩺", want: "Dermatology 🩺"},
		{name: "Decomposed accent", input: "Gastroente\u0301", want: "Gastroentérologie"},
		{name: "Ambiguous prefix", input: "Cardio", wantErr: ErrDepartmentAmbiguous},
		{name: "No match", input: "Oncology", wantErr: ErrDepartmentNotFound},
		{name: "Case sensitive", input: "nutri", wantErr: ErrDepartmentNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolver.Resolve(ctx, tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.ErrorIs(t, err, ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDepartmentResolver_AmbiguousListsCandidates(t *testing.T) {
	db := setupTestDB(t)
	seedDirectory(t, db)
	resolver := NewDepartmentResolver(repository.NewRepo(db))

	_, err := resolver.Resolve(context.Background(), "Card")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Cardiology, Cardiothoracic Surgery")
}
