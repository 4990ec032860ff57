package bill_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	billhandler "github.com/jwalitptl/hms-api/internal/handler/bill"
	"github.com/jwalitptl/hms-api/internal/handler/handlertest"
	"github.com/jwalitptl/hms-api/internal/model"
	"github.com/jwalitptl/hms-api/internal/repository/memory"
	"github.com/jwalitptl/hms-api/internal/service/audit"
	"github.com/jwalitptl/hms-api/internal/service/bill"
	"github.com/jwalitptl/hms-api/internal/service/catalog"
	"github.com/jwalitptl/hms-api/internal/service/employee"
	"github.com/jwalitptl/hms-api/internal/service/lifecycle"
	"github.com/jwalitptl/hms-api/internal/service/patient"
	"github.com/jwalitptl/hms-api/pkg/httputil"
	"github.com/jwalitptl/hms-api/pkg/metrics"
	"github.com/jwalitptl/hms-api/pkg/security"
)

func newServer(t *testing.T) (http.Handler, uuid.UUID) {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	m := metrics.NewMetrics("test", prometheus.NewRegistry())
	recorder := lifecycle.NewRecorder(m, audit.Nop())

	org := &model.Organization{Name: "City Hospital", OrgMode: model.OrgModeHospitalFirst}
	require.NoError(t, store.Organizations().Create(ctx, org))
	p := &model.Patient{OrganizationID: org.ID, FirstName: "Asha", LastName: "Rao", Phone: "9000000001"}
	require.NoError(t, store.Patients().Create(ctx, p))
	clerk := &model.Staff{OrganizationID: org.ID, FirstName: "Meena", Email: "meena@example.com"}
	require.NoError(t, store.Staff().Create(ctx, clerk))

	svc := bill.NewService(store.Bills(), store.Organizations(), catalog.NewService(store.Catalog()),
		patient.NewService(store.Patients(), recorder),
		employee.NewService(store.Staff(), security.NewBcryptHasher(4), recorder),
		audit.Nop(), m)

	r, v1 := handlertest.NewEngine(org.ID, clerk.ID)
	billhandler.NewHandler(svc, model.BillKindPathology).RegisterRoutes(v1, "/pathology/bills")
	billhandler.NewHandler(svc, model.BillKindRadiology).RegisterRoutes(v1, "/radiology/bills")
	return r, p.ID
}

func TestBillEndpoints(t *testing.T) {
	h, patientID := newServer(t)

	resp := handlertest.Do(t, h, http.MethodPost, "/api/v1/pathology/bills", map[string]interface{}{
		"patient_id":  patientID,
		"base_amount": "1500",
		"discount":    map[string]string{"kind": "percent", "value": "10"},
		"tax_percent": "12",
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Message)
	id := resp.GetString(t, "id")
	base := "/api/v1/pathology/bills/" + id

	resp = handlertest.Do(t, h, http.MethodPost, base+"/payments", map[string]interface{}{"amount": "500", "mode": "UPI", "reference_number": "UPI-1"})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Message)
	var res struct {
		Payment   struct{ ID string } `json:"payment"`
		DueAmount decimal.Decimal     `json:"due_amount"`
	}
	resp.Decode(t, &res)
	assert.True(t, res.DueAmount.Equal(decimal.NewFromInt(1012)), res.DueAmount.String())

	resp = handlertest.Do(t, h, http.MethodGet, "/api/v1/pathology/bills?status=partially_paid", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var page httputil.PaginatedResponse
	resp.Decode(t, &page)
	assert.Equal(t, 1, page.Pagination.Total)

	resp = handlertest.Do(t, h, http.MethodGet, "/api/v1/radiology/bills/"+id, nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp = handlertest.Do(t, h, http.MethodPut, base+"/payments/"+res.Payment.ID, map[string]string{"amount": "10"})
	assert.Equal(t, http.StatusNotImplemented, resp.Code)

	resp = handlertest.Do(t, h, http.MethodDelete, base+"/payments/"+res.Payment.ID, nil)
	require.Equal(t, http.StatusOK, resp.Code, resp.Message)
	resp.Decode(t, &res)
	assert.True(t, res.DueAmount.Equal(decimal.NewFromInt(1512)))

	resp = handlertest.Do(t, h, http.MethodGet, base+"/receipt", nil)
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestBillEndpoints_BadInput(t *testing.T) {
	h, _ := newServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		want   int
	}{
		{"unknown status filter", http.MethodGet, "/api/v1/pathology/bills?status=overdue", nil, http.StatusBadRequest},
		{"malformed id", http.MethodGet, "/api/v1/pathology/bills/123", nil, http.StatusBadRequest},
		{"missing patient", http.MethodPost, "/api/v1/pathology/bills", map[string]string{"base_amount": "10"}, http.StatusBadRequest},
		{"unknown bill", http.MethodDelete, "/api/v1/radiology/bills/" + uuid.NewString(), nil, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := handlertest.Do(t, h, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, resp.Code, resp.Message)
		})
	}
}
