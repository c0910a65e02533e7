package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shandysiswandi/otpauth/internal/pkg/config"
	"github.com/shandysiswandi/otpauth/internal/pkg/goerror"
	"github.com/shandysiswandi/otpauth/internal/pkg/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedID string

func (f fixedID) Generate() string { return string(f) }

type fakeAuthn struct {
	claims jwt.Claims
	err    error
	header string
}

func (f *fakeAuthn) Authenticate(_ context.Context, header string) (jwt.Claims, error) {
	f.header = header
	return f.claims, f.err
}

type created struct {
	ID string `json:"id"`
}

func (created) StatusCode() int { return http.StatusCreated }
func (created) Message() string { return "created" }

func newTestRouter(t *testing.T, yaml string) *Router {
	t.Helper()
	cfg, err := config.NewViperFromBytes("yaml", []byte(yaml))
	require.NoError(t, err)
	return NewRouter(Config{Config: cfg, UUID: fixedID("cid-gen")})
}

func serve(r http.Handler, req *http.Request) (*httptest.ResponseRecorder, map[string]any) {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var body map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	return rec, body
}

func TestRouter_Envelope(t *testing.T) {
	r := newTestRouter(t, "")
	r.GET("/ok", func(*Request) (any, error) { return map[string]string{"status": "up"}, nil })
	r.POST("/created", func(*Request) (any, error) { return created{ID: "1"}, nil })
	r.GET("/none", func(*Request) (any, error) { return nil, nil })
	r.GET("/gone", func(*Request) (any, error) {
		return nil, goerror.NewBusiness("OTP expired or invalid", goerror.CodeExpired)
	})
	r.GET("/plain", func(*Request) (any, error) { return nil, errors.New("boom") })
	r.POST("/fields", func(*Request) (any, error) {
		return nil, goerror.NewInvalidInput(nil, "otp_code", "must be exactly 6 digits")
	})

	t.Run("OK", func(t *testing.T) {
		rec, body := serve(r, httptest.NewRequest(http.MethodGet, "/ok", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "request has been successfully", body["message"])
		assert.Equal(t, map[string]any{"status": "up"}, body["data"])
		assert.Equal(t, "cid-gen", rec.Header().Get(HeaderCorrelationID))
	})

	t.Run("CustomStatusAndMessage", func(t *testing.T) {
		rec, body := serve(r, httptest.NewRequest(http.MethodPost, "/created", nil))

		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, "created", body["message"])
	})

	t.Run("NoContent", func(t *testing.T) {
		rec, _ := serve(r, httptest.NewRequest(http.MethodGet, "/none", nil))

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Zero(t, rec.Body.Len())
	})

	t.Run("BusinessError", func(t *testing.T) {
		rec, body := serve(r, httptest.NewRequest(http.MethodGet, "/gone", nil))

		assert.Equal(t, http.StatusGone, rec.Code)
		assert.Equal(t, "OTP expired or invalid", body["message"])
	})

	t.Run("UnmappedError", func(t *testing.T) {
		rec, body := serve(r, httptest.NewRequest(http.MethodGet, "/plain", nil))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "Internal server error", body["message"])
	})

	t.Run("FieldErrors", func(t *testing.T) {
		rec, body := serve(r, httptest.NewRequest(http.MethodPost, "/fields", nil))

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, map[string]any{"otp_code": "must be exactly 6 digits"}, body["error"])
	})

	t.Run("NotFound", func(t *testing.T) {
		rec, body := serve(r, httptest.NewRequest(http.MethodGet, "/missing", nil))

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "endpoint not found", body["message"])
	})

	t.Run("MethodNotAllowed", func(t *testing.T) {
		rec, _ := serve(r, httptest.NewRequest(http.MethodPost, "/ok", nil))

		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

func TestRouter_CorrelationIDPassthrough(t *testing.T) {
	r := newTestRouter(t, "")
	r.GET("/ok", func(*Request) (any, error) { return map[string]string{}, nil })

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set(HeaderRequestID, "  upstream-id ")
	rec, _ := serve(r, req)

	assert.Equal(t, "upstream-id", rec.Header().Get(HeaderCorrelationID))
}

func TestRouter_Recoverer(t *testing.T) {
	r := newTestRouter(t, "")
	r.GET("/panic", func(*Request) (any, error) { panic("kaboom") })

	rec, body := serve(r, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal server error", body["message"])
}

func TestRouter_Maintenance(t *testing.T) {
	r := newTestRouter(t, "app:\n  maintenance:\n    endpoints:\n      - /down\n")
	r.GET("/down", func(*Request) (any, error) { return map[string]string{}, nil })
	r.GET("/up", func(*Request) (any, error) { return map[string]string{}, nil })

	down, _ := serve(r, httptest.NewRequest(http.MethodGet, "/down", nil))
	up, _ := serve(r, httptest.NewRequest(http.MethodGet, "/up", nil))

	assert.Equal(t, http.StatusServiceUnavailable, down.Code)
	assert.Equal(t, http.StatusOK, up.Code)
}

func TestRouter_Authentication(t *testing.T) {
	t.Run("ClaimsReachHandler", func(t *testing.T) {
		// Arrange
		authn := &fakeAuthn{claims: jwt.Claims{UserID: 42}}
		r := newTestRouter(t, "")
		r.GET("/me", func(req *Request) (any, error) {
			return map[string]int64{"user_id": jwt.GetAuth(req.Context()).UserID}, nil
		}, Authentication(authn))

		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer abc")

		// Act
		rec, body := serve(r, req)

		// Assert
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Bearer abc", authn.header)
		assert.EqualValues(t, 42, body["data"].(map[string]any)["user_id"])
	})

	t.Run("Rejected", func(t *testing.T) {
		authn := &fakeAuthn{err: goerror.NewBusiness("token expired", goerror.CodeUnauthorized)}
		r := newTestRouter(t, "")
		called := false
		r.GET("/me", func(*Request) (any, error) { called = true; return nil, nil }, Authentication(authn))

		rec, body := serve(r, httptest.NewRequest(http.MethodGet, "/me", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "token expired", body["message"])
		assert.False(t, called)
	})
}

func TestRouter_APIKey(t *testing.T) {
	tests := []struct {
		name string
		key  string
		sent string
		want int
	}{
		{name: "Match", key: "bot-secret", sent: "bot-secret", want: http.StatusOK},
		{name: "Mismatch", key: "bot-secret", sent: "nope", want: http.StatusUnauthorized},
		{name: "Missing", key: "bot-secret", sent: "", want: http.StatusUnauthorized},
		{name: "UnconfiguredKey", key: "", sent: "", want: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRouter(t, "")
			r.POST("/bot", func(*Request) (any, error) { return map[string]string{}, nil }, APIKey(HeaderBotKey, tt.key))

			req := httptest.NewRequest(http.MethodPost, "/bot", nil)
			if tt.sent != "" {
				req.Header.Set(HeaderBotKey, tt.sent)
			}
			rec, _ := serve(r, req)

			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestRequest_DecodeBody(t *testing.T) {
	type payload struct {
		OTPCode string `json:"otp_code"`
	}

	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{name: "Valid", body: `{"otp_code":"123456"}`},
		{name: "UnknownField", body: `{"otp":"123456"}`, wantErr: true},
		{name: "Trailing", body: `{"otp_code":"1"}{}`, wantErr: true},
		{name: "NotJSON", body: `otp_code=1`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := &Request{Request: httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))}

			var p payload
			err := req.DecodeBody(&p)

			if tt.wantErr {
				assert.Equal(t, goerror.CodeInvalidFormat, goerror.CodeOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "123456", p.OTPCode)
		})
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:5555"

	assert.Equal(t, "10.0.0.1", clientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	assert.Equal(t, "203.0.113.7", clientIP(req))

	req.Header.Set("X-Real-IP", "not-an-ip")
	assert.Equal(t, "203.0.113.7", clientIP(req))
}
