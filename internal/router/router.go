package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/hms-api/internal/handler/appointment"
	"github.com/jwalitptl/hms-api/internal/handler/bill"
	"github.com/jwalitptl/hms-api/internal/handler/catalog"
	"github.com/jwalitptl/hms-api/internal/handler/employee"
	"github.com/jwalitptl/hms-api/internal/handler/health"
	"github.com/jwalitptl/hms-api/internal/handler/ipd"
	"github.com/jwalitptl/hms-api/internal/handler/organization"
	"github.com/jwalitptl/hms-api/internal/handler/patient"
	"github.com/jwalitptl/hms-api/internal/handler/preference"
	"github.com/jwalitptl/hms-api/internal/handler/upload"
	"github.com/jwalitptl/hms-api/internal/middleware"
	"github.com/jwalitptl/hms-api/internal/model"
	"github.com/jwalitptl/hms-api/pkg/metrics"
)

type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

// Handlers groups everything mounted under /api/v1.
type Handlers struct {
	Health       *health.Handler
	Organization *organization.Handler
	Employee     *employee.Handler
	Patient      *patient.Handler
	Appointment  *appointment.Handler
	Catalog      *catalog.Handler
	Ambulance    *bill.Handler
	Pathology    *bill.Handler
	Radiology    *bill.Handler
	IPD          *ipd.Handler
	Preference   *preference.Handler
	Upload       *upload.Handler
}

// BillPaths maps each bill kind onto the path its handler is mounted at.
var BillPaths = map[model.BillKind]string{
	model.BillKindAmbulance: "/ambulance/bookings",
	model.BillKindPathology: "/pathology/bills",
	model.BillKindRadiology: "/radiology/bills",
}

type RouterConfig struct {
	RateLimitEnabled bool
	RateLimit        rate.Limit
	RateBurst        int
	CORSOrigins      []string
	RequestTimeout   time.Duration
	MaxBodyBytes     int64
	HSTS             bool
}

type Router struct {
	engine *gin.Engine
}

func NewRouter(config RouterConfig, auth *middleware.AuthMiddleware, m *metrics.Metrics, h Handlers) *Router {
	engine := gin.New()

	engine.Use(
		middleware.RequestID(),
		middleware.Recovery(),
		middleware.Logger(),
		middleware.Metrics(m),
		middleware.SecurityHeaders(config.HSTS),
		middleware.CORS(middleware.DefaultCORSConfig(config.CORSOrigins)),
	)
	if config.RateLimitEnabled {
		engine.Use(middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Rate:  config.RateLimit,
			Burst: config.RateBurst,
		}).RateLimit())
	}
	if config.MaxBodyBytes > 0 {
		engine.Use(middleware.SizeLimit(config.MaxBodyBytes))
	}
	engine.Use(middleware.Timeout(config.RequestTimeout))

	api := engine.Group("/api/v1")
	h.Health.RegisterRoutes(api)

	protected := api.Group("")
	protected.Use(auth.Authenticate())

	for _, rh := range []Handler{
		h.Organization,
		h.Employee,
		h.Patient,
		h.Appointment,
		h.Catalog,
		h.IPD,
		h.Preference,
		h.Upload,
	} {
		rh.RegisterRoutes(protected)
	}
	h.Ambulance.RegisterRoutes(protected, BillPaths[model.BillKindAmbulance])
	h.Pathology.RegisterRoutes(protected, BillPaths[model.BillKindPathology])
	h.Radiology.RegisterRoutes(protected, BillPaths[model.BillKindRadiology])

	return &Router{engine: engine}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
