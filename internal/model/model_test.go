package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAspectStatus(t *testing.T) {
	tests := []struct {
		in      string
		want    AspectStatus
		wantErr bool
	}{
		{in: "pass", want: StatusPass},
		{in: "Green", want: StatusPass},
		{in: "caution", want: StatusCaution},
		{in: "YELLOW", want: StatusCaution},
		{in: "fail", want: StatusFail},
		{in: " Red ", want: StatusFail},
		{in: "purple", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAspectStatus(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAnalysisResponseValidate(t *testing.T) {
	valid := func() *AnalysisResponse {
		return &AnalysisResponse{
			Summary: "Looks consistent",
			Aspects: []AspectAnalysis{
				{
					Name:          "Address match",
					Status:        StatusPass,
					Justification: "Address on invoice matches business details.",
					Evidence:      []string{"Document: invoice.pdf"},
				},
			},
		}
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	t.Run("missing summary", func(t *testing.T) {
		r := valid()
		r.Summary = "   "
		assert.ErrorIs(t, r.Validate(), ErrEmptySummary)
	})

	t.Run("no aspects", func(t *testing.T) {
		r := valid()
		r.Aspects = nil
		assert.ErrorIs(t, r.Validate(), ErrNoAspects)
	})

	t.Run("aspect missing status", func(t *testing.T) {
		r := valid()
		r.Aspects[0].Status = ""
		assert.Error(t, r.Validate())
	})

	t.Run("aspect missing justification", func(t *testing.T) {
		r := valid()
		r.Aspects[0].Justification = ""
		assert.Error(t, r.Validate())
	})
}

func TestOverallStatus(t *testing.T) {
	r := &AnalysisResponse{
		Summary: "s",
		Aspects: []AspectAnalysis{
			{Name: "a", Status: StatusPass},
			{Name: "b", Status: StatusCaution},
		},
	}
	assert.Equal(t, StatusCaution, r.OverallStatus())

	r.Aspects = append(r.Aspects, AspectAnalysis{Name: "c", Status: StatusFail})
	assert.Equal(t, StatusFail, r.OverallStatus())

	r.Aspects = r.Aspects[:1]
	assert.Equal(t, StatusPass, r.OverallStatus())
}
