package main

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/imunetrack/imunetrack-api/internal/config"
	"github.com/imunetrack/imunetrack-api/internal/events"
	"github.com/imunetrack/imunetrack-api/internal/notify"
	"github.com/imunetrack/imunetrack-api/internal/platform/postgres"
	"github.com/imunetrack/imunetrack-api/internal/service"
	"github.com/imunetrack/imunetrack-api/internal/service/auth"
	"github.com/imunetrack/imunetrack-api/internal/store"
	"github.com/imunetrack/imunetrack-api/internal/task"
	"golang.org/x/crypto/bcrypt"
)

// application holds the wired dependencies of the server.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	userService    service.UserService
	vaccineService service.VaccineService
	doseService    service.DoseService

	emailQueue *task.TaskQueue
	emailPool  *task.WorkerPool
}

// newApplication builds stores, services and the email delivery pipeline:
// dose.applied events are turned into send tasks that a worker pool delivers
// in the background. The pool is started by serve.
func newApplication(cfg *config.Config, log *slog.Logger, db *sql.DB) (*application, error) {
	userStore := postgres.NewPostgresUserStore(db, log)
	vaccineStore := postgres.NewPostgresVaccineStore(db, log)
	doseStore := postgres.NewPostgresDoseRecordStore(db, log)
	txRunner := store.NewSQLTxRunner(db)

	sender, err := notify.NewSender(cfg.Email, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create email sender: %w", err)
	}

	queue := task.NewTaskQueue(cfg.Email.QueueSize, log)
	pool := task.NewWorkerPool(queue, task.WorkerPoolConfig{
		WorkerCount: cfg.Email.Workers,
		TaskTimeout: cfg.Email.SendTimeout,
	}, log)

	emitter := events.NewInMemoryEventEmitter(log)
	factory := notify.NewDoseConfirmationFactory(sender, cfg.Email.SendRetries, emailRetryBackoff, log)
	emitter.Subscribe(events.TypeDoseApplied, notify.NewDoseConfirmationHandler(factory, queue, log))

	return &application{
		config: cfg,
		logger: log,
		db:     db,

		userService: service.NewUserService(userStore, txRunner,
			auth.NewBcryptHasher(bcrypt.DefaultCost), log),
		vaccineService: service.NewVaccineService(vaccineStore, txRunner, log),
		doseService: service.NewDoseService(userStore, vaccineStore, doseStore, txRunner,
			emitter, log),

		emailQueue: queue,
		emailPool:  pool,
	}, nil
}
