// Package app wires repositories, services and handlers into the HTTP
// server.
package app

import (
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/hms-api/internal/config"
	appointmenth "github.com/jwalitptl/hms-api/internal/handler/appointment"
	billh "github.com/jwalitptl/hms-api/internal/handler/bill"
	catalogh "github.com/jwalitptl/hms-api/internal/handler/catalog"
	employeeh "github.com/jwalitptl/hms-api/internal/handler/employee"
	"github.com/jwalitptl/hms-api/internal/handler/health"
	ipdh "github.com/jwalitptl/hms-api/internal/handler/ipd"
	organizationh "github.com/jwalitptl/hms-api/internal/handler/organization"
	patienth "github.com/jwalitptl/hms-api/internal/handler/patient"
	preferenceh "github.com/jwalitptl/hms-api/internal/handler/preference"
	uploadh "github.com/jwalitptl/hms-api/internal/handler/upload"
	"github.com/jwalitptl/hms-api/internal/middleware"
	"github.com/jwalitptl/hms-api/internal/model"
	"github.com/jwalitptl/hms-api/internal/repository"
	"github.com/jwalitptl/hms-api/internal/repository/postgres"
	"github.com/jwalitptl/hms-api/internal/router"
	"github.com/jwalitptl/hms-api/internal/service/appointment"
	"github.com/jwalitptl/hms-api/internal/service/audit"
	"github.com/jwalitptl/hms-api/internal/service/bill"
	"github.com/jwalitptl/hms-api/internal/service/catalog"
	"github.com/jwalitptl/hms-api/internal/service/employee"
	"github.com/jwalitptl/hms-api/internal/service/ipd"
	"github.com/jwalitptl/hms-api/internal/service/lifecycle"
	"github.com/jwalitptl/hms-api/internal/service/organization"
	"github.com/jwalitptl/hms-api/internal/service/patient"
	"github.com/jwalitptl/hms-api/internal/service/preference"
	"github.com/jwalitptl/hms-api/internal/service/upload"
	"github.com/jwalitptl/hms-api/pkg/auth"
	"github.com/jwalitptl/hms-api/pkg/metrics"
	"github.com/jwalitptl/hms-api/pkg/security"
	"github.com/jwalitptl/hms-api/pkg/validator"
)

type Repositories struct {
	Organizations repository.OrganizationRepository
	Staff         repository.StaffRepository
	Patients      repository.PatientRepository
	Appointments  repository.AppointmentRepository
	Catalog       repository.CatalogRepository
	Bills         repository.BillRepository
	Admissions    repository.AdmissionRepository
	Outbox        repository.OutboxRepository
}

func PostgresRepositories(db *sqlx.DB) Repositories {
	base := postgres.NewBaseRepository(db)
	return Repositories{
		Organizations: postgres.NewOrganizationRepository(base),
		Staff:         postgres.NewStaffRepository(base),
		Patients:      postgres.NewPatientRepository(base),
		Appointments:  postgres.NewAppointmentRepository(base),
		Catalog:       postgres.NewCatalogRepository(base),
		Bills:         postgres.NewBillRepository(base),
		Admissions:    postgres.NewAdmissionRepository(base),
		Outbox:        postgres.NewOutboxRepository(base),
	}
}

type Deps struct {
	Config   *config.Config
	Repos    Repositories
	DB       health.Pinger
	Auditor  audit.Logger
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	// BcryptCost of zero uses the library default.
	BcryptCost int
}

// NewRouter builds the API server.
func NewRouter(d Deps) (*router.Router, error) {
	cfg := d.Config
	r := d.Repos
	recorder := lifecycle.NewRecorder(d.Metrics, d.Auditor)

	if err := validator.RegisterGin(); err != nil {
		return nil, err
	}

	uploads, err := upload.NewService(cfg.Uploads)
	if err != nil {
		return nil, err
	}

	catalogs := catalog.NewService(r.Catalog)
	patients := patient.NewService(r.Patients, recorder)
	employees := employee.NewService(r.Staff, security.NewBcryptHasher(d.BcryptCost), recorder)
	bills := bill.NewService(r.Bills, r.Organizations, catalogs, patients, employees, d.Auditor, d.Metrics)

	handlers := router.Handlers{
		Health:       health.NewHandler(d.DB, d.Gatherer),
		Organization: organizationh.NewHandler(organization.NewService(r.Organizations, d.Auditor)),
		Employee:     employeeh.NewHandler(employees),
		Patient:      patienth.NewHandler(patients),
		Appointment:  appointmenth.NewHandler(appointment.NewService(r.Appointments, patients, employees)),
		Catalog:      catalogh.NewHandler(catalogs),
		Ambulance:    billh.NewHandler(bills, model.BillKindAmbulance),
		Pathology:    billh.NewHandler(bills, model.BillKindPathology),
		Radiology:    billh.NewHandler(bills, model.BillKindRadiology),
		IPD:          ipdh.NewHandler(ipd.NewService(r.Admissions, bills, employees, d.Auditor, d.Metrics)),
		Preference:   preferenceh.NewHandler(preference.NewService(cfg.Preferences.SessionTTL)),
		Upload:       uploadh.NewHandler(uploads),
	}

	tokens := auth.NewTokenService(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.TTL)

	return router.NewRouter(router.RouterConfig{
		RateLimitEnabled: cfg.RateLimit.Enabled,
		RateLimit:        rate.Limit(cfg.RateLimit.RequestsPerSecond),
		RateBurst:        cfg.RateLimit.Burst,
		CORSOrigins:      cfg.Server.AllowedOrigins,
		RequestTimeout:   cfg.Server.RequestTimeout,
		MaxBodyBytes:     cfg.Server.MaxBodyBytes,
		HSTS:             cfg.Server.HSTS,
	}, middleware.NewAuthMiddleware(tokens), d.Metrics, handlers), nil
}
