package model

import (
	"errors"
	"fmt"
	"strings"
)

// Package model contains the domain models shared by the frontend and
// backend services. Pure data structures with no transport or storage
// dependencies.

// BusinessDetails holds the business information collected in the form's
// first step. It is submitted as a JSON form field alongside the documents.
type BusinessDetails struct {
	BusinessName          string   `json:"business_name"`
	BusinessWebsite       string   `json:"business_website"`
	BusinessAddress       string   `json:"business_address"`
	DoingBusinessAs       bool     `json:"doing_business_as"`
	BusinessTradeName     string   `json:"business_trade_name"`
	BusinessType          string   `json:"business_type"`
	BusinessSubType       string   `json:"business_sub_type"`
	MailingAddresses      []string `json:"mailing_addresses"`
	MailingAddressesCount int      `json:"mailing_addresses_count"`
}

// Document is one uploaded file together with the required-item label it was
// uploaded for (e.g. "Business Invoice", "Vehicle (5/5)").
type Document struct {
	FileType    string `json:"file_type"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Content     []byte `json:"-"`
}

// AspectStatus is the tri-state outcome for a single verification aspect.
type AspectStatus string

const (
	StatusPass    AspectStatus = "pass"
	StatusCaution AspectStatus = "caution"
	StatusFail    AspectStatus = "fail"
)

// ParseAspectStatus normalizes a status string from the agent. The agent is
// instructed to answer with the RYG color scheme, so both the color names and
// the canonical values are accepted.
func ParseAspectStatus(s string) (AspectStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pass", "green":
		return StatusPass, nil
	case "caution", "yellow":
		return StatusCaution, nil
	case "fail", "red":
		return StatusFail, nil
	default:
		return "", fmt.Errorf("unknown aspect status %q", s)
	}
}

// AspectAnalysis is the agent's finding for one predefined analysis aspect.
type AspectAnalysis struct {
	Name          string       `json:"name"`
	Status        AspectStatus `json:"status"`
	Justification string       `json:"justification"`
	Evidence      []string     `json:"evidence"`
}

// AnalysisResponse is the structured result of one analysis run. It is
// returned to the caller verbatim; a response that fails Validate is treated
// as an agent failure, never as a partial result.
type AnalysisResponse struct {
	Summary string           `json:"summary"`
	Aspects []AspectAnalysis `json:"aspects"`
}

var (
	ErrEmptySummary = errors.New("analysis response has no summary")
	ErrNoAspects    = errors.New("analysis response has no aspects")
)

// Validate checks that the response conforms to the result schema.
func (r *AnalysisResponse) Validate() error {
	if strings.TrimSpace(r.Summary) == "" {
		return ErrEmptySummary
	}
	if len(r.Aspects) == 0 {
		return ErrNoAspects
	}
	for i, a := range r.Aspects {
		if a.Name == "" {
			return fmt.Errorf("aspect %d: missing name", i)
		}
		if _, err := ParseAspectStatus(string(a.Status)); err != nil {
			return fmt.Errorf("aspect %q: %w", a.Name, err)
		}
		if a.Justification == "" {
			return fmt.Errorf("aspect %q: missing justification", a.Name)
		}
	}
	return nil
}

// OverallStatus reduces the aspect list to a single status: the worst aspect
// wins. Used for the usage-analytics payload.
func (r *AnalysisResponse) OverallStatus() AspectStatus {
	overall := StatusPass
	for _, a := range r.Aspects {
		switch a.Status {
		case StatusFail:
			return StatusFail
		case StatusCaution:
			overall = StatusCaution
		}
	}
	return overall
}
