// Package frontend serves the multi-step application form. Pages are
// rendered server-side; all form state lives with the session so a reload
// never loses progress.
package frontend

import (
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/gofiber/template/html/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/maximilianw-google/av-assistant/internal/frontend/client"
	"github.com/maximilianw-google/av-assistant/internal/frontend/form"
	"github.com/maximilianw-google/av-assistant/internal/http/middleware"
	"github.com/maximilianw-google/av-assistant/internal/model"
)

// stateTTL matches the session cookie lifetime; idle states past it are
// evicted so upload bytes do not pile up for the process lifetime.
const stateTTL = 24 * time.Hour

// sessionState is one visitor's form state. mu serializes the handlers of a
// single session; parallel tabs or a double-clicked upload must never write
// the state concurrently.
type sessionState struct {
	mu       sync.Mutex
	form     *form.State
	hydrated bool
	lastSeen time.Time
}

// Server renders the application form and proxies submissions to the
// analysis backend.
type Server struct {
	backend  *client.Client
	log      *zap.Logger
	sessions *session.Store

	mu        sync.Mutex
	states    map[string]*sessionState
	lastSweep time.Time
}

// New builds the frontend fiber app. viewsDir points at the HTML template
// directory.
func New(backend *client.Client, log *zap.Logger, viewsDir string) *fiber.App {
	return newServer(backend, log).router(viewsDir)
}

func newServer(backend *client.Client, log *zap.Logger) *Server {
	return &Server{
		backend: backend,
		log:     log,
		sessions: session.New(session.Config{
			Expiration:     stateTTL,
			CookieHTTPOnly: true,
		}),
		states: make(map[string]*sessionState),
	}
}

func (s *Server) router(viewsDir string) *fiber.App {
	engine := html.New(viewsDir, ".html")

	app := fiber.New(fiber.Config{
		Views:       engine,
		ViewsLayout: "layout",
		BodyLimit:   64 * 1024 * 1024,
	})

	app.Use(middleware.RequestID())
	app.Use(middleware.Logger(s.log))
	app.Use(otelfiber.Middleware())

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/", s.renderStep)
	app.Post("/details", s.saveDetails)
	app.Post("/back", s.goBack)
	app.Post("/next", s.goNext)
	app.Post("/upload", s.uploadDocument)
	app.Post("/remove", s.removeDocument)
	app.Post("/submit", s.submit)
	app.Post("/start-over", s.startOver)

	return app
}

// state returns the form state bound to the caller's session, creating both
// on first contact, locked for the caller. release must be called once the
// handler is done with the state.
func (s *Server) state(c *fiber.Ctx) (st *form.State, release func(), err error) {
	sess, err := s.sessions.Get(c)
	if err != nil {
		return nil, nil, err
	}
	id, _ := sess.Get("session_id").(string)
	if id == "" {
		id = uuid.NewString()
		sess.Set("session_id", id)
		if err := sess.Save(); err != nil {
			return nil, nil, err
		}
	}

	now := time.Now()
	s.mu.Lock()
	s.sweepLocked(now)
	entry, ok := s.states[id]
	if !ok {
		entry = &sessionState{form: form.NewState(id)}
		s.states[id] = entry
	}
	entry.lastSeen = now
	s.mu.Unlock()

	entry.mu.Lock()
	if !entry.hydrated {
		entry.hydrated = true
		s.rehydrate(c, entry.form)
	}
	return entry.form, entry.mu.Unlock, nil
}

// sweepLocked drops states idle past stateTTL, at most once per minute.
// Callers hold s.mu.
func (s *Server) sweepLocked(now time.Time) {
	if now.Sub(s.lastSweep) < time.Minute {
		return
	}
	s.lastSweep = now
	for id, entry := range s.states {
		if now.Sub(entry.lastSeen) > stateTTL {
			delete(s.states, id)
		}
	}
}

// rehydrate restores a returning visitor's uploads from the backend's
// session storage. Entries whose bytes cannot be fetched back are skipped
// and stay on the missing list; a submission must never carry an empty
// document.
func (s *Server) rehydrate(c *fiber.Ctx, st *form.State) {
	for _, doc := range s.backend.ListDocuments(c.Context(), st.SessionID) {
		full, err := s.backend.DownloadDocument(c.Context(), st.SessionID, doc.FileType, doc.Filename)
		if err != nil {
			s.log.Warn("could not restore staged document",
				zap.String("session_id", st.SessionID),
				zap.String("file_type", doc.FileType))
			continue
		}
		st.SetUpload(doc.FileType, form.Upload{
			Filename:    full.Filename,
			ContentType: full.ContentType,
			Content:     full.Content,
		})
	}
}

func (s *Server) renderStep(c *fiber.Ctx) error {
	st, release, err := s.state(c)
	if err != nil {
		return err
	}
	defer release()
	return s.render(c, st)
}

func (s *Server) render(c *fiber.Ctx, st *form.State) error {
	errMsg := st.ErrorMessage
	st.ErrorMessage = ""

	data := fiber.Map{
		"State":         st,
		"ErrorMessage":  errMsg,
		"BusinessTypes": form.BusinessTypes,
		"SubTypes":      form.SubTypes,
	}

	switch st.Step {
	case form.StepUploads:
		type uploadRow struct {
			Item     form.RequiredDocument
			Filename string
			Uploaded bool
		}
		var rows []uploadRow
		for _, item := range st.RequiredDocuments() {
			row := uploadRow{Item: item}
			if u, ok := st.Uploads[item.Name]; ok {
				row.Uploaded = true
				row.Filename = u.Filename
			}
			rows = append(rows, row)
		}
		data["Rows"] = rows
		return c.Render("uploads", data)
	case form.StepReview:
		data["Documents"] = st.Documents()
		return c.Render("review", data)
	case form.StepFeedback:
		data["Feedback"] = st.Feedback
		if st.Feedback != nil {
			data["Overall"] = overallBanner(st.Feedback.OverallStatus())
		}
		return c.Render("feedback", data)
	default:
		return c.Render("details", data)
	}
}

func (s *Server) saveDetails(c *fiber.Ctx) error {
	st, release, err := s.state(c)
	if err != nil {
		return err
	}
	defer release()

	count, _ := strconv.Atoi(c.FormValue("mailing_addresses_count"))
	switch c.FormValue("mailing_action") {
	case "add":
		count++
	case "remove":
		count--
	}
	if count < 0 {
		count = 0
	}
	addrs := make([]string, 0, count)
	for i := 0; i < count; i++ {
		addrs = append(addrs, c.FormValue("mailing_address_"+strconv.Itoa(i)))
	}

	st.Details = model.BusinessDetails{
		BusinessName:          strings.TrimSpace(c.FormValue("business_name")),
		BusinessWebsite:       strings.TrimSpace(c.FormValue("business_website")),
		BusinessAddress:       strings.TrimSpace(c.FormValue("business_address")),
		DoingBusinessAs:       c.FormValue("doing_business_as") == "on",
		BusinessTradeName:     strings.TrimSpace(c.FormValue("business_trade_name")),
		BusinessType:          c.FormValue("business_type", "Garage door"),
		BusinessSubType:       c.FormValue("business_sub_type", "Service Area Business"),
		MailingAddresses:      addrs,
		MailingAddressesCount: count,
	}

	// Mailing address add/remove re-renders the form without advancing.
	if c.FormValue("mailing_action") == "" {
		if missing := st.Next(); len(missing) > 0 {
			st.ErrorMessage = "Please fill in: " + strings.Join(missing, ", ")
		}
	}
	return c.Redirect("/", fiber.StatusSeeOther)
}

func (s *Server) goBack(c *fiber.Ctx) error {
	st, release, err := s.state(c)
	if err != nil {
		return err
	}
	defer release()
	st.Back()
	return c.Redirect("/", fiber.StatusSeeOther)
}

func (s *Server) goNext(c *fiber.Ctx) error {
	st, release, err := s.state(c)
	if err != nil {
		return err
	}
	defer release()
	if missing := st.Next(); len(missing) > 0 {
		st.ErrorMessage = "Still missing: " + strings.Join(missing, ", ")
	}
	return c.Redirect("/", fiber.StatusSeeOther)
}

func (s *Server) uploadDocument(c *fiber.Ctx) error {
	st, release, err := s.state(c)
	if err != nil {
		return err
	}
	defer release()

	item := c.FormValue("item")
	fh, err := c.FormFile("file")
	if item == "" || err != nil {
		st.ErrorMessage = "Please choose a file to upload."
		return c.Redirect("/", fiber.StatusSeeOther)
	}

	f, err := fh.Open()
	if err != nil {
		return err
	}
	defer f.Close()
	content, err := io.ReadAll(f)
	if err != nil {
		return err
	}

	doc := model.Document{
		FileType:    item,
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Content:     content,
	}
	st.SetUpload(item, form.Upload{
		Filename:    doc.Filename,
		ContentType: doc.ContentType,
		Content:     doc.Content,
	})

	// Session storage on the backend is best effort. The bytes stay in
	// the form state either way.
	if err := s.backend.UploadDocument(c.Context(), st.SessionID, doc); err != nil {
		s.log.Warn("backend document upload failed",
			zap.String("session_id", st.SessionID),
			zap.String("file_type", item))
	}
	return c.Redirect("/", fiber.StatusSeeOther)
}

func (s *Server) removeDocument(c *fiber.Ctx) error {
	st, release, err := s.state(c)
	if err != nil {
		return err
	}
	defer release()

	item := c.FormValue("item")
	if u, ok := st.RemoveUpload(item); ok {
		if err := s.backend.RemoveDocument(c.Context(), st.SessionID, item, u.Filename); err != nil {
			s.log.Warn("backend document removal failed",
				zap.String("session_id", st.SessionID),
				zap.String("file_type", item))
		}
	}
	return c.Redirect("/", fiber.StatusSeeOther)
}

func (s *Server) submit(c *fiber.Ctx) error {
	st, release, err := s.state(c)
	if err != nil {
		return err
	}
	defer release()
	if st.Step != form.StepReview {
		return c.Redirect("/", fiber.StatusSeeOther)
	}

	result, err := s.backend.RunAnalysis(c.Context(), st.SessionID, st.Details, st.Documents())
	if err != nil {
		st.ErrorMessage = err.Error()
		return c.Redirect("/", fiber.StatusSeeOther)
	}

	st.Feedback = result
	st.Next()
	return c.Redirect("/", fiber.StatusSeeOther)
}

func (s *Server) startOver(c *fiber.Ctx) error {
	st, release, err := s.state(c)
	if err != nil {
		return err
	}
	defer release()
	st.Reset()
	return c.Redirect("/", fiber.StatusSeeOther)
}

// banner is the headline shown above the analysis feedback.
type banner struct {
	Title string
	Class string
}

func overallBanner(status model.AspectStatus) banner {
	switch status {
	case model.StatusFail:
		return banner{Title: "Action Required: Critical Issues Found", Class: "fail"}
	case model.StatusCaution:
		return banner{Title: "Review Recommended: Attention Needed", Class: "caution"}
	default:
		return banner{Title: "Looks Good: All Aspects Clear", Class: "pass"}
	}
}
