package web

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/template/html"
	"github.com/google/uuid"
	embedded "github.com/goserg/blockcleaner"
	"github.com/goserg/blockcleaner/internal/config"
	"github.com/goserg/blockcleaner/internal/report"
	"github.com/goserg/blockcleaner/internal/service"
	"github.com/goserg/blockcleaner/internal/web/webpath"
	"github.com/goserg/blockcleaner/internal/worker"
	"github.com/sirupsen/logrus"
)

// Runs is the worker as seen by the front end.
type Runs interface {
	Submit(opts service.Options) (uuid.UUID, error)
	Status() (worker.Status, bool)
	Cancel() error
}

// Session is the client connection as seen by the front end.
type Session interface {
	Connected() bool
	Reconnect(ctx context.Context) error
}

// Resetter drops state tied to the previous connection.
type Resetter interface {
	Reset()
}

type Server struct {
	runs     Runs
	session  Session
	cache    Resetter
	defaults service.Options
	mode     string
	canClean bool
	app      *fiber.App
	cfg      config.Server
	log      *logrus.Entry
}

type Params struct {
	Runs    Runs
	Session Session
	// Cache, when set, is cleared after every successful reconnect.
	Cache    Resetter
	Defaults service.Options
	Mode     string
	CanClean bool
}

func New(p Params, cfg config.Server, log *logrus.Logger) (*Server, error) {
	server := Server{
		runs:     p.Runs,
		session:  p.Session,
		cache:    p.Cache,
		defaults: p.Defaults,
		mode:     p.Mode,
		canClean: p.CanClean,
		cfg:      cfg,
		log:      log.WithField("name", "web"),
	}

	fsFS, err := fs.Sub(embedded.Views, "views")
	if err != nil {
		return nil, err
	}
	engine := html.NewFileSystem(http.FS(fsFS), ".html")
	engine.Reload(cfg.Debug)
	engine.Debug(cfg.Debug)
	engine.AddFunc("FormatTime", formatTime)

	app := fiber.New(fiber.Config{
		Views:                 engine,
		DisableStartupMessage: true,
	})
	app.Get(webpath.Home, server.handleMain)
	app.Get(webpath.ApiStatus, server.handleStatus)
	app.Post(webpath.ApiConnect, server.handleConnect)
	app.Post(webpath.ApiRuns, server.handleSubmit)
	app.Get(webpath.ApiRunsCurrent, server.handleCurrent)
	app.Delete(webpath.ApiRunsCurrent, server.handleCancel)
	app.Get(webpath.ApiRunsCurrentXLS, server.handleReport)
	server.app = app
	return &server, nil
}

func (s *Server) Addr() string {
	return s.cfg.Host + ":" + strconv.Itoa(s.cfg.Port)
}

// Serve listens until ctx is done.
func (s *Server) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", s.Addr()).Info("listening")
		errCh <- s.app.Listen(s.Addr())
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		if err := s.app.ShutdownWithTimeout(5 * time.Second); err != nil {
			return err
		}
		return <-errCh
	}
}

func (s *Server) handleMain(ctx *fiber.Ctx) error {
	d := newData("Blocked list cleanup").
		With("Connected", s.session.Connected()).
		With("Mode", s.mode).
		With("CanClean", s.canClean).
		With("Threshold", s.defaults.Threshold).
		With("Limit", s.defaults.Limit)
	if st, ok := s.runs.Status(); ok {
		d = d.With("Run", newRunResponse(st))
		if st.Err != "" {
			d = d.WithErrors(errors.New(st.Err))
		}
	}
	return ctx.Render("index", d, "layouts/main")
}

func (s *Server) handleStatus(ctx *fiber.Ctx) error {
	resp := statusResponse{
		Connected: s.session.Connected(),
		Mode:      s.mode,
		CanClean:  s.canClean,
		Threshold: s.defaults.Threshold,
	}
	if st, ok := s.runs.Status(); ok {
		run := newRunResponse(st)
		resp.Run = &run
	}
	return ctx.JSON(resp)
}

func (s *Server) handleConnect(ctx *fiber.Ctx) error {
	if err := s.session.Reconnect(ctx.UserContext()); err != nil {
		s.log.WithError(err).Warn("reconnect failed")
		return ctx.Status(fiber.StatusBadGateway).JSON(errorResponse{Errors: errorMessages(err)})
	}
	if s.cache != nil {
		s.cache.Reset()
	}
	return ctx.JSON(fiber.Map{"connected": true})
}

func (s *Server) handleSubmit(ctx *fiber.Ctx) error {
	var req runRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(errorResponse{Errors: []string{err.Error()}})
	}
	if err := req.Validate(s.canClean); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(errorResponse{Errors: errorMessages(err)})
	}
	id, err := s.runs.Submit(req.options(s.defaults))
	if errors.Is(err, worker.ErrBusy) {
		return ctx.Status(fiber.StatusConflict).JSON(errorResponse{Errors: []string{err.Error()}})
	}
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusAccepted).JSON(fiber.Map{"runId": id.String()})
}

func (s *Server) handleCurrent(ctx *fiber.Ctx) error {
	st, ok := s.runs.Status()
	if !ok {
		return ctx.Status(fiber.StatusNotFound).JSON(errorResponse{Errors: []string{worker.ErrNoRun.Error()}})
	}
	return ctx.JSON(newRunResponse(st))
}

func (s *Server) handleCancel(ctx *fiber.Ctx) error {
	if err := s.runs.Cancel(); err != nil {
		if errors.Is(err, worker.ErrNoRun) {
			return ctx.Status(fiber.StatusNotFound).JSON(errorResponse{Errors: []string{err.Error()}})
		}
		return err
	}
	return ctx.SendStatus(fiber.StatusAccepted)
}

func (s *Server) handleReport(ctx *fiber.Ctx) error {
	st, ok := s.runs.Status()
	if !ok || st.Running || st.Summary == nil {
		return ctx.Status(fiber.StatusNotFound).JSON(errorResponse{Errors: []string{"no finished run"}})
	}
	var buf bytes.Buffer
	if err := report.WriteXLSX(&buf, st.Summary.Verdicts); err != nil {
		return err
	}
	ctx.Attachment("blocked-" + st.RunID.String() + ".xlsx")
	ctx.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	return ctx.Send(buf.Bytes())
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(time.DateTime)
}
