package form

import (
	"testing"

	"github.com/maximilianw-google/av-assistant/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completeDetails() model.BusinessDetails {
	return model.BusinessDetails{
		BusinessName:    "Acme Garage Doors",
		BusinessWebsite: "https://acme-garage.example.com",
		BusinessAddress: "123 Main St, Springfield, OH 45501",
		BusinessType:    "Garage door",
		BusinessSubType: "Service Area Business",
	}
}

func TestStateFromAddress(t *testing.T) {
	tests := []struct {
		name    string
		address string
		want    string
	}{
		{"standard address", "123 Main St, Portland, OR 97201", "OR"},
		{"no zip", "456 Oak Ave, Austin, TX", "TX"},
		{"zip+4", "789 Pine Rd, Seattle, WA 98101-1234", "WA"},
		{"street contains state-like word", "10 LA Cienega Blvd, Denver, CO 80202", "CO"},
		{"no state", "somewhere abroad", ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StateFromAddress(tt.address))
		})
	}
}

func TestValidateDetails(t *testing.T) {
	assert.Empty(t, ValidateDetails(completeDetails()))

	d := completeDetails()
	d.BusinessName = "  "
	d.BusinessWebsite = ""
	missing := ValidateDetails(d)
	assert.Equal(t, []string{"business name", "business website"}, missing)
}

func TestRequiredDocuments(t *testing.T) {
	t.Run("license required in licensing state", func(t *testing.T) {
		items := RequiredDocuments("Garage door", "CA")
		require.NotEmpty(t, items)
		assert.Equal(t, "Business License", items[0].Name)
	})

	t.Run("no license outside licensing states", func(t *testing.T) {
		items := RequiredDocuments("Garage door", "OH")
		for _, item := range items {
			assert.NotEqual(t, "Business License", item.Name)
		}
	})

	t.Run("license list depends on business type", func(t *testing.T) {
		// Texas licenses locksmiths but not garage door services.
		assert.Equal(t, "Business License", RequiredDocuments("Locksmith", "TX")[0].Name)
		assert.NotEqual(t, "Business License", RequiredDocuments("Garage door", "TX")[0].Name)
	})

	t.Run("unknown state skips the license", func(t *testing.T) {
		items := RequiredDocuments("Locksmith", "")
		assert.NotEqual(t, "Business License", items[0].Name)
	})
}

func TestStepTransitions(t *testing.T) {
	s := NewState("sess-1")
	assert.Equal(t, StepDetails, s.Step)

	// Incomplete details block the first transition.
	missing := s.Next()
	assert.NotEmpty(t, missing)
	assert.Equal(t, StepDetails, s.Step)

	s.Details = completeDetails()
	require.Empty(t, s.Next())
	assert.Equal(t, StepUploads, s.Step)

	// Missing uploads block the second transition.
	missing = s.Next()
	assert.Equal(t, s.MissingUploads(), missing)
	assert.Equal(t, StepUploads, s.Step)

	for _, item := range s.RequiredDocuments() {
		s.SetUpload(item.Name, Upload{Filename: "doc.png", ContentType: "image/png", Content: []byte{1}})
	}
	require.Empty(t, s.Next())
	assert.Equal(t, StepReview, s.Step)

	require.Empty(t, s.Next())
	assert.Equal(t, StepFeedback, s.Step)

	// Back is always allowed, and never goes past the first step.
	s.Back()
	assert.Equal(t, StepReview, s.Step)
	s.Back()
	s.Back()
	assert.Equal(t, StepDetails, s.Step)
	s.Back()
	assert.Equal(t, StepDetails, s.Step)
}

func TestMissingUploadsRequireBytes(t *testing.T) {
	s := NewState("sess-1")
	s.Details = completeDetails()
	require.Empty(t, s.Next())

	for _, item := range s.RequiredDocuments() {
		s.SetUpload(item.Name, Upload{Filename: "doc.png", ContentType: "image/png", Content: []byte{1}})
	}
	require.Empty(t, s.MissingUploads())

	// A listing entry without its bytes must not pass for an upload, or a
	// submission could carry an empty document.
	s.SetUpload("Utility Bill", Upload{Filename: "bill.pdf"})
	assert.Equal(t, []string{"Utility Bill"}, s.MissingUploads())

	missing := s.Next()
	assert.Equal(t, []string{"Utility Bill"}, missing)
	assert.Equal(t, StepUploads, s.Step)
}

func TestDocumentsOrdering(t *testing.T) {
	s := NewState("sess-1")
	s.Details = completeDetails()

	items := s.RequiredDocuments()
	// Attach in reverse to prove output follows the checklist order.
	for i := len(items) - 1; i >= 0; i-- {
		s.SetUpload(items[i].Name, Upload{Filename: "f.png", ContentType: "image/png", Content: []byte{byte(i)}})
	}

	docs := s.Documents()
	require.Len(t, docs, len(items))
	for i, item := range items {
		assert.Equal(t, item.Name, docs[i].FileType)
	}
}

func TestReset(t *testing.T) {
	s := NewState("sess-1")
	s.Details = completeDetails()
	require.Empty(t, s.Next())
	s.SetUpload("Utility Bill", Upload{Filename: "bill.pdf"})
	s.Feedback = &model.AnalysisResponse{Summary: "done"}

	s.Reset()

	assert.Equal(t, "sess-1", s.SessionID)
	assert.Equal(t, StepDetails, s.Step)
	assert.Empty(t, s.Uploads)
	assert.Nil(t, s.Feedback)
}
