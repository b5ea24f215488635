// Package form holds the multi-step application form state and the pure
// validation rules gating the transitions between steps.
package form

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/maximilianw-google/av-assistant/internal/model"
)

// Step identifies the active page of the application form.
type Step int

const (
	StepDetails Step = iota + 1
	StepUploads
	StepReview
	StepFeedback
)

func (s Step) String() string {
	switch s {
	case StepDetails:
		return "details"
	case StepUploads:
		return "uploads"
	case StepReview:
		return "review"
	case StepFeedback:
		return "feedback"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}

// BusinessTypes lists the service categories the form accepts.
var BusinessTypes = []string{"Locksmith", "Garage door"}

// SubType describes how the business serves its customers.
type SubType struct {
	Value string
	Label string
}

var SubTypes = []SubType{
	{Value: "Service Area Business", Label: "I only service customers at their locations"},
	{Value: "Storefront Only", Label: "I only have a branded storefront location"},
	{Value: "Hybrid", Label: "I service customers at their locations, and have a branded storefront"},
	{Value: "Aggregator", Label: "I do not provide any services; I operate a website and/or call center that recommends local services"},
}

// Upload is a document the applicant attached to a required item.
type Upload struct {
	Filename    string
	ContentType string
	Content     []byte
}

// State is the per-session form state. It is mutated only through the
// step-transition methods so a session can never reach a later step with
// invalid earlier input.
type State struct {
	SessionID string
	Step      Step

	Details model.BusinessDetails

	// Uploads is keyed by the required-item name from RequiredDocuments.
	Uploads map[string]Upload

	Feedback     *model.AnalysisResponse
	ErrorMessage string
}

// NewState returns a fresh form at the details step.
func NewState(sessionID string) *State {
	return &State{
		SessionID: sessionID,
		Step:      StepDetails,
		Details: model.BusinessDetails{
			BusinessType:     "Garage door",
			BusinessSubType:  "Service Area Business",
			MailingAddresses: []string{},
		},
		Uploads: make(map[string]Upload),
	}
}

// Next advances to the following step if the current step's validation
// passes. It returns the fields or items still missing; the step is
// unchanged unless the slice is empty.
func (s *State) Next() []string {
	switch s.Step {
	case StepDetails:
		if missing := ValidateDetails(s.Details); len(missing) > 0 {
			return missing
		}
		s.Step = StepUploads
	case StepUploads:
		if missing := s.MissingUploads(); len(missing) > 0 {
			return missing
		}
		s.Step = StepReview
	case StepReview:
		s.Step = StepFeedback
	}
	return nil
}

// Back returns to the previous step. Going back is always allowed.
func (s *State) Back() {
	if s.Step > StepDetails {
		s.Step--
	}
}

// Reset clears everything except the session identity and returns the form
// to the first step.
func (s *State) Reset() {
	*s = *NewState(s.SessionID)
}

// SetUpload records a document for a required item, replacing any earlier
// upload for the same item.
func (s *State) SetUpload(item string, u Upload) {
	if s.Uploads == nil {
		s.Uploads = make(map[string]Upload)
	}
	s.Uploads[item] = u
}

func (s *State) RemoveUpload(item string) (Upload, bool) {
	u, ok := s.Uploads[item]
	delete(s.Uploads, item)
	return u, ok
}

// Documents flattens the collected uploads into the wire form, ordered by
// the required-item list so submissions are deterministic.
func (s *State) Documents() []model.Document {
	docs := make([]model.Document, 0, len(s.Uploads))
	for _, item := range s.RequiredDocuments() {
		u, ok := s.Uploads[item.Name]
		if !ok {
			continue
		}
		docs = append(docs, model.Document{
			FileType:    item.Name,
			Filename:    u.Filename,
			ContentType: u.ContentType,
			Content:     u.Content,
		})
	}
	return docs
}

// ValidateDetails returns the names of required business-detail fields that
// are still empty.
func ValidateDetails(d model.BusinessDetails) []string {
	var missing []string
	if strings.TrimSpace(d.BusinessName) == "" {
		missing = append(missing, "business name")
	}
	if strings.TrimSpace(d.BusinessAddress) == "" {
		missing = append(missing, "business address")
	}
	if strings.TrimSpace(d.BusinessWebsite) == "" {
		missing = append(missing, "business website")
	}
	return missing
}

// MissingUploads returns the required items that have no document attached.
// An upload whose bytes are gone counts as missing; the review step must
// never carry an empty document into a submission.
func (s *State) MissingUploads() []string {
	var missing []string
	for _, item := range s.RequiredDocuments() {
		if u, ok := s.Uploads[item.Name]; !ok || len(u.Content) == 0 {
			missing = append(missing, item.Name)
		}
	}
	return missing
}

// RequiredDocuments returns the paperwork checklist for this application,
// including the conditional business license when the business address is
// in a state that licenses the selected trade.
func (s *State) RequiredDocuments() []RequiredDocument {
	return RequiredDocuments(s.Details.BusinessType, StateFromAddress(s.Details.BusinessAddress))
}

// RequiredDocument is one item of the paperwork checklist.
type RequiredDocument struct {
	Name        string
	Description string
}

// licenseRequiredStates maps a business type to the US states that require
// a trade license for it.
var licenseRequiredStates = map[string][]string{
	"Garage door": {
		"AK", "AZ", "CA", "CT", "DC", "IA", "MD", "MN", "MT", "NE", "NV",
		"NJ", "NM", "ND", "OR", "PA", "SC", "UT", "VA", "WA",
	},
	"Locksmith": {
		"AL", "CA", "CT", "IL", "LA", "MD", "NJ", "NC", "OK", "OR", "TX",
		"VA", "WA",
	},
}

// RequiredDocuments builds the checklist for a business type and the US
// state its address resolves to.
func RequiredDocuments(businessType, usState string) []RequiredDocument {
	var items []RequiredDocument
	if licenseRequired(businessType, usState) {
		items = append(items, RequiredDocument{
			Name: "Business License",
			Description: "Based on the provided business address you are required to provide a" +
				" business license. Certain US states require licenses for Locksmiths" +
				" or Garage door services.",
		})
	}
	items = append(items,
		RequiredDocument{
			Name: "Business Invoice",
			Description: "Attach an image of a branded receipt you would provide to a customer." +
				" A business address must be on the invoice, along with your business" +
				" name, and contact information. If you're a Service Area Business, you" +
				" may use a P.O. box as long as the business address is on the invoice.",
		},
		RequiredDocument{
			Name:        "Business Card (Front)",
			Description: "Attach two images of your business cards: 1. Front, and 2. Back",
		},
		RequiredDocument{
			Name:        "Business Card (Back)",
			Description: "Attach two images of your business cards: 1. Front, and 2. Back",
		},
		RequiredDocument{
			Name: "Vehicle Registration",
			Description: "Attach an image of your vehicle registration or registration" +
				" sticker/receipt. Please note: only a registration image will be" +
				" accepted - your vehicle title is not a substitute for registration.",
		},
		RequiredDocument{
			Name:        "Vehicle (1/5)",
			Description: "Submit an image of the left side of your vehicle.",
		},
		RequiredDocument{
			Name:        "Vehicle (2/5)",
			Description: "Submit an image of the right side of your vehicle.",
		},
		RequiredDocument{
			Name:        "Vehicle (3/5)",
			Description: "Submit an image of the rear side of your vehicle.",
		},
		RequiredDocument{
			Name:        "Vehicle (4/5)",
			Description: "Submit an image of the front side of your vehicle.",
		},
		RequiredDocument{
			Name:        "Vehicle (5/5)",
			Description: "Submit an image of just your license plate.",
		},
		RequiredDocument{
			Name: "Image (1/2)",
			Description: "An image of the exterior of your business location clearly displaying" +
				" your physical address number, including suite, office, or apartment" +
				" number if applicable. If your registered business address is your" +
				" home, please attach an image of the exterior of your home clearly" +
				" displaying the street number.",
		},
		RequiredDocument{
			Name: "Image (2/2)",
			Description: "A wider image displaying the entire building. If you operate a" +
				" Storefront: Attach an image of the exterior of your storefront," +
				" including any signs that feature your business name.",
		},
		RequiredDocument{
			Name: "Utility Bill",
			Description: "Attach a copy of the most recent copy of your utility bill from the last" +
				" 3 months for the address registered to your business. Bank statements" +
				" will not be accepted. The following are acceptable utility bills:" +
				" garbage collection, water, sewage, electricity, internet, gas.",
		},
		RequiredDocument{
			Name: "Tools & Equipment (1/2)",
			Description: "Common tools such as power drills, hammers, and similar hand tools" +
				" DO NOT meet our requirements. If you are a full-service locksmith," +
				" you are required to provide a lock pick set and one other tool.",
		},
		RequiredDocument{
			Name: "Tools & Equipment (2/2)",
			Description: "Common tools such as power drills, hammers, and similar hand tools" +
				" DO NOT meet our requirements. If you are a full-service locksmith," +
				" you are required to provide a lock pick set and one other tool.",
		},
	)
	return items
}

func licenseRequired(businessType, usState string) bool {
	if usState == "" {
		return false
	}
	for _, s := range licenseRequiredStates[businessType] {
		if s == usState {
			return true
		}
	}
	return false
}

// usStateRe matches a two-letter state code followed by an optional ZIP,
// the shape US postal addresses end with.
var usStateRe = regexp.MustCompile(`\b([A-Z]{2})\b(?:[ ,]+\d{5}(?:-\d{4})?)?`)

var usStates = map[string]bool{
	"AL": true, "AK": true, "AZ": true, "AR": true, "CA": true, "CO": true,
	"CT": true, "DE": true, "DC": true, "FL": true, "GA": true, "HI": true,
	"ID": true, "IL": true, "IN": true, "IA": true, "KS": true, "KY": true,
	"LA": true, "ME": true, "MD": true, "MA": true, "MI": true, "MN": true,
	"MS": true, "MO": true, "MT": true, "NE": true, "NV": true, "NH": true,
	"NJ": true, "NM": true, "NY": true, "NC": true, "ND": true, "OH": true,
	"OK": true, "OR": true, "PA": true, "RI": true, "SC": true, "SD": true,
	"TN": true, "TX": true, "UT": true, "VT": true, "VA": true, "WA": true,
	"WV": true, "WI": true, "WY": true,
}

// StateFromAddress extracts the US state code from a free-form postal
// address. The last recognized code wins, since street names can contain
// two-letter words. Returns "" when no state is found.
func StateFromAddress(address string) string {
	var state string
	for _, m := range usStateRe.FindAllStringSubmatch(address, -1) {
		if usStates[m[1]] {
			state = m[1]
		}
	}
	return state
}
