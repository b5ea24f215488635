package handler

import (
	"errors"
	"io"

	"github.com/gofiber/fiber/v2"

	"github.com/maximilianw-google/av-assistant/internal/model"
	"github.com/maximilianw-google/av-assistant/internal/service"
	"github.com/maximilianw-google/av-assistant/internal/storage"
)

// UploadDocument handles POST /documents: stage one document for the
// caller's session ahead of an analysis run. Multipart form with a "file"
// part and a "file_type" value naming the required item it satisfies.
func UploadDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sessionID := sessionIDFromCtx(c)
		if sessionID == "" {
			return writeError(c, fiber.StatusBadRequest, "SESSION_REQUIRED", "Client-Session-ID header is required")
		}

		fileType := c.FormValue("file_type")
		if fileType == "" {
			return writeError(c, fiber.StatusBadRequest, "FILE_TYPE_REQUIRED", "file_type is required")
		}

		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}
		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()
		content, err := io.ReadAll(f)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_READ_ERROR", "cannot read uploaded file")
		}

		ct := fh.Header.Get("Content-Type")
		if ct == "" {
			ct = "application/octet-stream"
		}

		key, err := docSvc.Upload(c.UserContext(), sessionID, model.Document{
			FileType:    fileType,
			Filename:    fh.Filename,
			ContentType: ct,
			Content:     content,
		})
		if err != nil {
			if errors.Is(err, service.ErrFilenameRequired) || errors.Is(err, service.ErrEmptyDocument) {
				return writeError(c, fiber.StatusBadRequest, "INVALID_DOCUMENT", "uploaded document is invalid")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"key": key})
	}
}

// RemoveDocument handles DELETE /documents?file_type=...&filename=...
func RemoveDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sessionID := sessionIDFromCtx(c)
		if sessionID == "" {
			return writeError(c, fiber.StatusBadRequest, "SESSION_REQUIRED", "Client-Session-ID header is required")
		}
		fileType := c.Query("file_type")
		filename := c.Query("filename")
		if filename == "" {
			return writeError(c, fiber.StatusBadRequest, "FILENAME_REQUIRED", "filename is required")
		}

		if err := docSvc.Remove(c.UserContext(), sessionID, fileType, filename); err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// GetSessionDocument handles GET /sessions/:id/document?file_type=...&filename=...
// It streams the staged document bytes back with their stored content type.
func GetSessionDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sessionID := c.Params("id")
		fileType := c.Query("file_type")
		filename := c.Query("filename")
		if filename == "" {
			return writeError(c, fiber.StatusBadRequest, "FILENAME_REQUIRED", "filename is required")
		}

		doc, err := docSvc.Fetch(c.UserContext(), sessionID, fileType, filename)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrSessionIDRequired):
				return writeError(c, fiber.StatusBadRequest, "SESSION_REQUIRED", "session id is required")
			case errors.Is(err, storage.ErrNotFound):
				return writeError(c, fiber.StatusNotFound, "DOCUMENT_NOT_FOUND", "document not found")
			default:
				return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
			}
		}

		if doc.ContentType != "" {
			c.Set(fiber.HeaderContentType, doc.ContentType)
		}
		return c.Send(doc.Content)
	}
}

// ListSessionDocuments handles GET /sessions/:id/documents.
func ListSessionDocuments(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sessionID := c.Params("id")

		docs, err := docSvc.List(c.UserContext(), sessionID)
		if err != nil {
			if errors.Is(err, service.ErrSessionIDRequired) {
				return writeError(c, fiber.StatusBadRequest, "SESSION_REQUIRED", "session id is required")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(fiber.Map{"documents": docs})
	}
}
