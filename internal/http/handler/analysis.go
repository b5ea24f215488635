package handler

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"sort"

	"github.com/gofiber/fiber/v2"

	"github.com/maximilianw-google/av-assistant/internal/agent"
	"github.com/maximilianw-google/av-assistant/internal/model"
	"github.com/maximilianw-google/av-assistant/internal/service"
)

// businessDetailsField is the multipart value field carrying the business
// details JSON. Every file field in the same form is treated as one
// document, with the field name as its required-item label.
const businessDetailsField = "business_details_json"

// RunAnalysis handles POST /run_analysis. It accepts a multipart form,
// invokes the analysis service synchronously and returns the structured
// result. Agent failures come back as a generic 502; the detail only ever
// reaches the server logs.
func RunAnalysis(svc service.AnalysisService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		form, err := c.MultipartForm()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "MULTIPART_REQUIRED", "multipart form data is required")
		}

		detailsValues := form.Value[businessDetailsField]
		if len(detailsValues) == 0 {
			return writeError(c, fiber.StatusBadRequest, "BUSINESS_DETAILS_REQUIRED", "business_details_json is required")
		}
		var details model.BusinessDetails
		if err := json.Unmarshal([]byte(detailsValues[0]), &details); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BUSINESS_DETAILS", "business_details_json is not valid JSON")
		}

		docs, err := documentsFromForm(form.File)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_READ_ERROR", "cannot read uploaded file")
		}

		resp, err := svc.Analyze(c.UserContext(), sessionIDFromCtx(c), details, docs)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrBusinessNameRequired):
				return writeError(c, fiber.StatusBadRequest, "BUSINESS_NAME_REQUIRED", "business name is required")
			case errors.Is(err, service.ErrBusinessAddressRequired):
				return writeError(c, fiber.StatusBadRequest, "BUSINESS_ADDRESS_REQUIRED", "business address is required")
			case errors.Is(err, service.ErrNoDocuments):
				return writeError(c, fiber.StatusBadRequest, "DOCUMENTS_REQUIRED", "at least one document is required")
			case errors.Is(err, agent.ErrMalformedResponse), errors.Is(err, agent.ErrUnavailable):
				return writeError(c, fiber.StatusBadGateway, "ANALYSIS_FAILED", "analysis failed, please try again")
			default:
				return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
			}
		}

		return c.JSON(resp)
	}
}

// documentsFromForm reads every uploaded file into a model.Document, using
// the multipart field name as the required-item label. Field names are
// sorted so document order is deterministic.
func documentsFromForm(files map[string][]*multipart.FileHeader) ([]model.Document, error) {
	fileTypes := make([]string, 0, len(files))
	for fileType := range files {
		fileTypes = append(fileTypes, fileType)
	}
	sort.Strings(fileTypes)

	var docs []model.Document
	for _, fileType := range fileTypes {
		for _, fh := range files[fileType] {
			f, err := fh.Open()
			if err != nil {
				return nil, err
			}
			content, err := io.ReadAll(f)
			if err != nil {
				f.Close()
				return nil, err
			}
			f.Close()

			ct := fh.Header.Get("Content-Type")
			if ct == "" {
				ct = "application/octet-stream"
			}
			docs = append(docs, model.Document{
				FileType:    fileType,
				Filename:    fh.Filename,
				ContentType: ct,
				Content:     content,
			})
		}
	}
	return docs, nil
}
