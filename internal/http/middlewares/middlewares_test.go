package middlewares_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/geocoder89/clubhub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r *gin.Engine, method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name        string
		allowed     []string
		origin      string
		wantOrigin  string
		wantCredits bool
	}{
		{"listed", []string{"https://club.example"}, "https://club.example", "https://club.example", true},
		{"unlisted", []string{"https://club.example"}, "https://evil.example", "", false},
		{"wildcard", []string{"*"}, "https://anyone.example", "*", false},
		{"listed wins over wildcard", []string{"*", "https://club.example"}, "https://club.example", "https://club.example", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.Use(middlewares.CORSMiddleware(tt.allowed))
			r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

			w := serve(r, http.MethodGet, "/x", "", map[string]string{"Origin": tt.origin})
			if got := w.Header().Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
				t.Fatalf("Allow-Origin = %q, want %q", got, tt.wantOrigin)
			}
			if got := w.Header().Get("Access-Control-Allow-Credentials") == "true"; got != tt.wantCredits {
				t.Fatalf("credentials = %v, want %v", got, tt.wantCredits)
			}
			if w.Header().Get("Vary") != "Origin" {
				t.Fatal("expected Vary: Origin")
			}
		})
	}
}

func TestCORS_Preflight(t *testing.T) {
	r := gin.New()
	r.Use(middlewares.CORSMiddleware([]string{"https://club.example"}))
	r.POST("/forms/:formId/register", func(c *gin.Context) { c.Status(http.StatusCreated) })

	w := serve(r, http.MethodOptions, "/forms/vlogit/register", "", map[string]string{
		"Origin":                        "https://club.example",
		"Access-Control-Request-Method": "POST",
	})
	if w.Code != http.StatusNoContent {
		t.Fatalf("preflight status = %d", w.Code)
	}
}

func TestRequireJSON(t *testing.T) {
	tests := []struct {
		name        string
		method      string
		contentType string
		want        int
	}{
		{"json", http.MethodPost, "application/json", http.StatusOK},
		{"json charset", http.MethodPost, "application/json; charset=utf-8", http.StatusOK},
		{"upper case", http.MethodPatch, "Application/JSON", http.StatusOK},
		{"text", http.MethodPost, "text/plain", http.StatusUnsupportedMediaType},
		{"json suffix lookalike", http.MethodPost, "application/jsonp", http.StatusUnsupportedMediaType},
		{"missing", http.MethodPost, "", http.StatusUnsupportedMediaType},
		{"get ignored", http.MethodGet, "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.Use(middlewares.RequireJSON())
			r.Handle(tt.method, "/x", func(c *gin.Context) { c.Status(http.StatusOK) })

			hdr := map[string]string{}
			if tt.contentType != "" {
				hdr["Content-Type"] = tt.contentType
			}
			w := serve(r, tt.method, "/x", "{}", hdr)
			if w.Code != tt.want {
				t.Fatalf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestSecurityHeaders_HSTSOnlyInProd(t *testing.T) {
	for env, want := range map[string]bool{"dev": false, "prod": true} {
		r := gin.New()
		r.Use(middlewares.SecurityHeaders(env))
		r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

		w := serve(r, http.MethodGet, "/x", "", nil)
		if got := w.Header().Get("Strict-Transport-Security") != ""; got != want {
			t.Fatalf("%s: HSTS present = %v, want %v", env, got, want)
		}
		if w.Header().Get("X-Frame-Options") != "DENY" {
			t.Fatalf("%s: missing X-Frame-Options", env)
		}
	}
}
