package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func TestIsAllowedOrigin(t *testing.T) {
	tests := []struct {
		name           string
		origin         string
		allowedOrigins []string
		want           bool
	}{
		{
			name:           "exact match",
			origin:         "https://allerscan.example.com",
			allowedOrigins: []string{"https://allerscan.example.com"},
			want:           true,
		},
		{
			name:           "wildcard port match",
			origin:         "http://localhost:5173",
			allowedOrigins: []string{"http://localhost:*"},
			want:           true,
		},
		{
			name:           "multiple allowed origins - matches second",
			origin:         "http://localhost:3000",
			allowedOrigins: []string{"https://allerscan.example.com", "http://localhost:3000"},
			want:           true,
		},
		{
			name:           "no match",
			origin:         "http://evil.com",
			allowedOrigins: []string{"http://localhost:*"},
			want:           false,
		},
		{
			name:           "empty origin",
			origin:         "",
			allowedOrigins: []string{"*"},
			want:           false,
		},
		{
			name:           "empty allowed list",
			origin:         "http://localhost:3000",
			allowedOrigins: []string{},
			want:           false,
		},
		{
			name:           "exact entry does not match prefix",
			origin:         "https://allerscan.example.com.evil.com",
			allowedOrigins: []string{"https://allerscan.example.com"},
			want:           false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := isAllowedOrigin(tt.origin, tt.allowedOrigins)
			if got != tt.want {
				t.Errorf("isAllowedOrigin() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCORSMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		origin     string
		method     string
		wantStatus int
		wantCORS   bool
	}{
		{
			name:       "allowed origin - GET request",
			origin:     "http://localhost:3000",
			method:     "GET",
			wantStatus: http.StatusOK,
			wantCORS:   true,
		},
		{
			name:       "allowed origin - OPTIONS request",
			origin:     "http://localhost:3000",
			method:     "OPTIONS",
			wantStatus: http.StatusNoContent,
			wantCORS:   true,
		},
		{
			name:       "disallowed origin",
			origin:     "http://evil.com",
			method:     "GET",
			wantStatus: http.StatusForbidden,
			wantCORS:   false,
		},
		{
			name:       "no origin header",
			origin:     "",
			method:     "GET",
			wantStatus: http.StatusOK,
			wantCORS:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(CORSMiddleware([]string{"http://localhost:*"}))
			router.GET("/test", func(c *gin.Context) {
				c.String(http.StatusOK, "OK")
			})

			req := httptest.NewRequest(tt.method, "/test", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if tt.method == "OPTIONS" {
				req.Header.Set("Access-Control-Request-Method", "GET")
			}

			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Status = %d, want %d", w.Code, tt.wantStatus)
			}

			corsHeader := w.Header().Get("Access-Control-Allow-Origin")
			if tt.wantCORS {
				if corsHeader != tt.origin {
					t.Errorf("Access-Control-Allow-Origin = %s, want %s", corsHeader, tt.origin)
				}
				if w.Header().Get("Access-Control-Allow-Credentials") != "true" {
					t.Errorf("Access-Control-Allow-Credentials not set to true")
				}
			} else if corsHeader != "" {
				t.Errorf("Access-Control-Allow-Origin should not be set, got %s", corsHeader)
			}
		})
	}
}

func TestCORSMiddleware_PreflightRequest(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(CORSMiddleware([]string{"http://localhost:*"}))
	router.POST("/test", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	req := httptest.NewRequest("OPTIONS", "/test", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")
	req.Header.Set("Access-Control-Request-Headers", "Content-Type")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("Preflight status = %d, want %d", w.Code, http.StatusNoContent)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "http://localhost:5173" {
		t.Errorf("Access-Control-Allow-Origin not set correctly")
	}
	if w.Header().Get("Access-Control-Allow-Methods") == "" {
		t.Errorf("Access-Control-Allow-Methods not set")
	}
	if w.Header().Get("Access-Control-Allow-Headers") == "" {
		t.Errorf("Access-Control-Allow-Headers not set")
	}
	if w.Header().Get("Access-Control-Max-Age") == "" {
		t.Errorf("Access-Control-Max-Age not set")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(RateLimitMiddleware(1))
	router.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	send := func(ip string) int {
		req := httptest.NewRequest("GET", "/test", nil)
		req.RemoteAddr = ip + ":1234"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	if code := send("10.0.0.1"); code != http.StatusOK {
		t.Errorf("first request Status = %d, want %d", code, http.StatusOK)
	}
	if code := send("10.0.0.1"); code != http.StatusTooManyRequests {
		t.Errorf("second request Status = %d, want %d", code, http.StatusTooManyRequests)
	}
	if code := send("10.0.0.2"); code != http.StatusOK {
		t.Errorf("other client Status = %d, want %d", code, http.StatusOK)
	}
}

func TestRateLimitMiddleware_Disabled(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(RateLimitMiddleware(0))
	router.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/test", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("request %d Status = %d, want %d", i, w.Code, http.StatusOK)
		}
	}
}

func TestLoggerMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(RequestIDMiddleware())
	router.Use(LoggerMiddleware(zap.NewNop()))
	router.GET("/fail", func(c *gin.Context) {
		c.String(http.StatusInternalServerError, "fail")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/fail", nil))
	if w.Code != http.StatusInternalServerError {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Errorf("X-Request-ID header not set")
	}
}
