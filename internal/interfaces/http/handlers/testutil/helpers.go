package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/spendwise/spendwise/internal/application/tenancy"
	"github.com/spendwise/spendwise/internal/domain/tenant"
	"github.com/spendwise/spendwise/internal/shared/constants"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// NewTestContext creates a test gin.Context with the given method, path, and optional body.
func NewTestContext(method, path string, body any) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()

	var req *http.Request
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBytes))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	c, _ := gin.CreateTestContext(w)
	c.Request = req

	return c, w
}

// SetPrincipal binds p to the request (simulating the tenancy middleware).
func SetPrincipal(c *gin.Context, p *tenancy.Principal) {
	c.Set(constants.ContextKeyPrincipal, p)
	c.Request = c.Request.WithContext(tenancy.WithPrincipal(c.Request.Context(), p))
}

// SetTenant binds t to the request (simulating the tenancy middleware).
func SetTenant(c *gin.Context, t *tenant.Tenant) {
	c.Set(constants.ContextKeyTenant, t)
	c.Request = c.Request.WithContext(tenancy.WithTenant(c.Request.Context(), t))
}

// SetURLParam sets a URL parameter on the gin context.
func SetURLParam(c *gin.Context, key, value string) {
	c.Params = append(c.Params, gin.Param{Key: key, Value: value})
}

// SetQueryParams sets query parameters on the gin context.
func SetQueryParams(c *gin.Context, params map[string]string) {
	q := url.Values{}
	for k, v := range params {
		q.Set(k, v)
	}
	c.Request.URL.RawQuery = q.Encode()
}

// ParseResponse parses the JSON response body into the target struct.
func ParseResponse(w *httptest.ResponseRecorder, target any) error {
	return json.Unmarshal(w.Body.Bytes(), target)
}

// APIResponse mirrors utils.APIResponse for test assertions.
type APIResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   *ErrorInfo      `json:"error,omitempty"`
	Message string          `json:"message,omitempty"`
}

// ErrorInfo mirrors utils.ErrorInfo for test assertions.
type ErrorInfo struct {
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// MustParse decodes the standard envelope or fails the test.
func MustParse(t *testing.T, w *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	require.NoError(t, ParseResponse(w, &resp), "body: %s", w.Body.String())
	return resp
}

var fixtureTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// NewTenant returns an active tenant with generous limits and the given features.
func NewTenant(t *testing.T, id uint, slug string, features ...string) *tenant.Tenant {
	return NewTenantWithStatus(t, id, slug, tenant.StatusActive, features...)
}

func NewTenantWithStatus(t *testing.T, id uint, slug string, status tenant.Status, features ...string) *tenant.Tenant {
	t.Helper()
	tn, err := tenant.ReconstructTenant(
		id, fmt.Sprintf("tnt_%s", slug), "Org "+slug, slug, nil, false, "",
		status, "business", tenant.NewSettings(10, 1000, 1<<30, features), tenant.Usage{},
		nil, true, 1, fixtureTime, fixtureTime,
	)
	require.NoError(t, err)
	return tn
}

// Member returns a tenant member principal.
func Member(tenantID, roleID uint) *tenancy.Principal {
	return &tenancy.Principal{
		UserID:   100 + roleID,
		UserSID:  fmt.Sprintf("usr_member%d", roleID),
		Name:     "Member",
		TenantID: tenantID,
		RoleID:   roleID,
	}
}

// Operator returns a platform operator principal holding role.
func Operator(role string) *tenancy.Principal {
	return &tenancy.Principal{
		UserID:       1,
		UserSID:      "usr_operator",
		Name:         "Operator",
		Operator:     true,
		OperatorRole: role,
	}
}
