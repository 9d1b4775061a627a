package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	echoapi "github.com/gyermekkert/admin/apps/api/echo"
	"github.com/gyermekkert/admin/core"
	"github.com/gyermekkert/admin/core/attendance"
	"github.com/gyermekkert/admin/core/backup"
	"github.com/gyermekkert/admin/core/chat"
	"github.com/gyermekkert/admin/core/invoice"
	"github.com/gyermekkert/admin/core/newsletter"
	"github.com/gyermekkert/admin/core/payroll"
	"github.com/gyermekkert/admin/core/team"
	"github.com/gyermekkert/admin/core/user"
	docaisvc "github.com/gyermekkert/admin/services/docai"
	emailsvc "github.com/gyermekkert/admin/services/email"
	logsvc "github.com/gyermekkert/admin/services/logger"
	"github.com/gyermekkert/admin/storage/database"
	"github.com/gyermekkert/admin/storage/filestore"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	// set up DB
	db, err := setUpDB(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			logger.Error("closing database", err)
		}
	}()

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	var docAI core.DocAI
	if conf.GeminiAPIKey == "" {
		logger.Warn("no Gemini API key configured; document recognition is stubbed")
		docAI = &docaisvc.DummyService{}
	} else {
		gemini, err := docaisvc.NewGeminiService(context.Background(), conf, logger)
		if err != nil {
			logger.Fatal(fmt.Sprintf("setting up Gemini client: %v", err), err)
		}
		defer func() { _ = gemini.Close() }()
		docAI = gemini
	}

	files, err := filestore.NewLocalStore(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up file store: %v", err), err)
	}

	usrRepo := database.NewUserRepository(db)
	payrollRepo := database.NewPayrollRepository(db)

	usrSvc := user.NewService(conf, usrRepo, mailSvc, validate)
	invoiceSvc := invoice.NewService(database.NewInvoiceRepository(db), payrollRepo, docAI, files, validate)
	payrollSvc := payroll.NewService(payrollRepo, docAI, files, logger, validate)
	attendanceSvc := attendance.NewService(database.NewAttendanceRepository(db), validate)
	newsletterSvc := newsletter.NewService(conf, database.NewNewsletterRepository(db), mailSvc, validate)
	backupSvc := backup.NewService(database.NewBackupRepository(db), database.NewTableDumper(db), files, logger, validate)
	teamSvc := team.NewService(database.NewTeamRepository(db), usrSvc, validate)
	chatSvc := chat.NewService(docAI, validate)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	schedCtx, cancelSched := context.WithCancel(context.Background())
	defer cancelSched()
	scheduler := backup.NewScheduler(backupSvc, logger)
	scheduler.Start(schedCtx)
	defer scheduler.Stop()

	// =========================================================================
	// Start API Service

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	server := echoapi.NewServer(
		&echoapi.Options{
			Address:       conf.Server.Address(),
			Conf:          conf,
			Logger:        logger,
			Validate:      validate,
			Translator:    translator,
			Files:         files,
			UserSvc:       usrSvc,
			InvoiceSvc:    invoiceSvc,
			PayrollSvc:    payrollSvc,
			AttendanceSvc: attendanceSvc,
			NewsletterSvc: newsletterSvc,
			BackupSvc:     backupSvc,
			TeamSvc:       teamSvc,
			ChatSvc:       chatSvc,
		},
		shutdown,
	)

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info(fmt.Sprintf("API server listening on %s", conf.Server.Address()))
		serverErrors <- server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-serverErrors:
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-shutdown:
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		if err = server.Stop(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)
		}
	}
}

func setUpDB(conf *core.Config) (*sqlx.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db.DB); err != nil {
		return nil, err
	}
	return db, nil
}

func newTranslator() ut.Translator {
	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	translator, _ := uni.GetTranslator("en")
	return translator
}
