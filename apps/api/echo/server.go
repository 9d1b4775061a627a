package echoapi

import (
	"context"
	"net/http"
	"os"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/gyermekkert/admin/core"
	"github.com/gyermekkert/admin/core/attendance"
	"github.com/gyermekkert/admin/core/backup"
	"github.com/gyermekkert/admin/core/chat"
	"github.com/gyermekkert/admin/core/invoice"
	"github.com/gyermekkert/admin/core/newsletter"
	"github.com/gyermekkert/admin/core/payroll"
	"github.com/gyermekkert/admin/core/team"
	"github.com/gyermekkert/admin/core/user"
)

type (
	Options struct {
		Address        string
		DisableReqLogs bool

		Conf       *core.Config
		Logger     core.Logger
		Validate   *validator.Validate
		Translator ut.Translator
		Files      core.FileStore

		UserSvc       *user.Service
		InvoiceSvc    *invoice.Service
		PayrollSvc    *payroll.Service
		AttendanceSvc *attendance.Service
		NewsletterSvc *newsletter.Service
		BackupSvc     *backup.Service
		TeamSvc       *team.Service
		ChatSvc       *chat.Service
	}

	Server interface {
		http.Handler
		Start() error
		Stop(context.Context) error
	}

	server struct {
		opts *Options
		app  *echo.Echo
	}
)

var _ Server = (*server)(nil)

// NewServer builds the API server. shutdown, when non-nil, receives a
// SIGTERM whenever a handler reports an unrecoverable error.
func NewServer(opts *Options, shutdown chan<- os.Signal) Server {
	s := &server{
		opts: opts,
		app:  echo.New(),
	}
	s.setup(shutdown)
	return s
}

func (s *server) setup(shutdown chan<- os.Signal) {
	conf := s.opts.Conf

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	signalShutdown := func() {
		if shutdown != nil {
			shutdown <- syscall.SIGTERM
		}
	}
	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger, s.opts.Translator, signalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", home)

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(newJWTConfig(conf))

	registerUserAPI(v1, jwt, conf, s.opts.UserSvc, s.opts.Validate)
	registerInvoiceAPI(v1, jwt, conf, s.opts.InvoiceSvc)
	registerPayrollAPI(v1, jwt, s.opts.PayrollSvc)
	registerAttendanceAPI(v1, jwt, s.opts.AttendanceSvc, s.opts.UserSvc)
	registerNewsletterAPI(v1, jwt, s.opts.NewsletterSvc)
	registerBackupAPI(v1, jwt, conf, s.opts.BackupSvc)
	registerTeamAPI(v1, jwt, s.opts.TeamSvc)
	registerChatAPI(v1, jwt, s.opts.ChatSvc)
	registerFilesAPI(v1, s.opts.Files)
}

func (s *server) Start() error {
	return s.app.Start(s.opts.Address)
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Gyermekkert Admin API")
}
