package integration_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/geocoder89/clubhub/internal/auth"
	"github.com/geocoder89/clubhub/internal/cms"
	"github.com/geocoder89/clubhub/internal/db"
	"github.com/geocoder89/clubhub/internal/domain/form"
	"github.com/geocoder89/clubhub/internal/domain/registration"
	apphttp "github.com/geocoder89/clubhub/internal/http"
	"github.com/geocoder89/clubhub/internal/registrar"
	"github.com/geocoder89/clubhub/internal/repo/postgres"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	adminEmail    = "admin@srmist.edu.in"
	adminPassword = "integration-secret"
)

func setupTestRouter(t *testing.T) (*gin.Engine, *pgxpool.Pool) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}

	ctx := context.Background()

	pool, err := db.NewPool(ctx, dsn)
	if err != nil {
		t.Fatalf("Failed to create pgx pool: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := db.Migrate(ctx, pool); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	resetDB(t, pool)

	if err := db.EnsureAdminUser(ctx, pool, db.AdminSeed{
		Email:    adminEmail,
		Password: adminPassword,
		Name:     "Test Admin",
		Role:     "admin",
	}); err != nil {
		t.Fatalf("seed admin: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))

	forms, err := form.Builtin()
	if err != nil {
		t.Fatalf("forms: %v", err)
	}
	store := postgres.NewRegistrationsRepo(pool, nil)

	router := apphttp.NewRouter(apphttp.Deps{
		Env:       "test",
		Log:       logger,
		Ping:      store.Ping,
		Registrar: registrar.New(store, forms, registrar.WithLogger(logger)),
		Forms:     forms,
		Reviews:   store,
		Users:     postgres.NewUsersRepo(pool, nil),
		JWT:       auth.NewManager("test-secret-key", time.Hour),
		Catalog:   cms.NewCatalog(nil, logger),
		// enough headroom for the concurrency test
		RegisterRateLimit: 1000,
	})

	return router, pool
}

func resetDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	_, err := pool.Exec(context.Background(), `TRUNCATE registrations, teams, users RESTART IDENTITY CASCADE`)
	if err != nil {
		t.Fatalf("reset db: %v", err)
	}
}

func doJSON(r http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeResult(t *testing.T, w *httptest.ResponseRecorder) registration.SubmissionResult {
	t.Helper()

	var res registration.SubmissionResult
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("unmarshal result: %v body=%s", err, w.Body.String())
	}
	return res
}

func member(name, regNo, mail, phone string) map[string]string {
	return map[string]string{
		"name":               name,
		"registrationNumber": regNo,
		"srmMailId":          mail,
		"phoneNumber":        phone,
	}
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(b)
}

func TestIndividualDuplicates(t *testing.T) {
	router, _ := setupTestRouter(t)

	asha := member("Asha Rao", "RA2311003010001", "ar0001@srmist.edu.in", "9876543210")
	w := doJSON(router, http.MethodPost, "/forms/vlogit/register", mustJSON(t, asha), "")
	if w.Code != http.StatusCreated {
		t.Fatalf("first insert: status %d body=%s", w.Code, w.Body.String())
	}

	sameRegNo := member("Asha Rao", "ra2311003010001", "other@srmist.edu.in", "9876543211")
	w = doJSON(router, http.MethodPost, "/forms/vlogit/register", mustJSON(t, sameRegNo), "")
	if w.Code != http.StatusConflict {
		t.Fatalf("duplicate regno: status %d body=%s", w.Code, w.Body.String())
	}
	if res := decodeResult(t, w); res.Message != registration.MsgDuplicateRegNo {
		t.Fatalf("duplicate regno message %q", res.Message)
	}

	sameMail := member("Ravi Kumar", "RA2311003010002", "AR0001@srmist.edu.in", "9876543212")
	w = doJSON(router, http.MethodPost, "/forms/vlogit/register", mustJSON(t, sameMail), "")
	if w.Code != http.StatusConflict {
		t.Fatalf("duplicate mail: status %d body=%s", w.Code, w.Body.String())
	}
	if res := decodeResult(t, w); res.Message != registration.MsgDuplicateEmail {
		t.Fatalf("duplicate mail message %q", res.Message)
	}

	// another form is a separate namespace
	w = doJSON(router, http.MethodPost, "/forms/recruitment-25/register",
		`{"name":"Asha Rao","registrationNumber":"RA2311003010001","srmMailId":"ar0001@srmist.edu.in","phoneNumber":"9876543210","firstDomain":"technical"}`, "")
	if w.Code != http.StatusCreated {
		t.Fatalf("other form: status %d body=%s", w.Code, w.Body.String())
	}
}

func TestTeamIsAllOrNothing(t *testing.T) {
	router, pool := setupTestRouter(t)

	solo := member("Meera K", "RA2311003010009", "mk0009@srmist.edu.in", "9876500009")
	w := doJSON(router, http.MethodPost, "/forms/hangman/register", mustJSON(t, map[string]any{
		"teamName": "Solo Team",
		"teamMembers": []map[string]string{
			solo,
			member("Ravi Kumar", "RA2311003010002", "rk0002@srmist.edu.in", "9876500002"),
			member("Neha S", "RA2311003010003", "ns0003@srmist.edu.in", "9876500003"),
		},
	}), "")
	if w.Code != http.StatusCreated {
		t.Fatalf("first team: status %d body=%s", w.Code, w.Body.String())
	}

	clash := map[string]any{
		"teamName": "Byte Busters",
		"teamMembers": []map[string]string{
			member("Asha Rao", "RA2311003010001", "ar0001@srmist.edu.in", "9876500001"),
			member("Kiran P", "RA2311003010004", "kp0004@srmist.edu.in", "9876500004"),
			solo,
		},
	}
	w = doJSON(router, http.MethodPost, "/forms/hangman/register", mustJSON(t, clash), "")
	if w.Code != http.StatusConflict {
		t.Fatalf("clashing team: status %d body=%s", w.Code, w.Body.String())
	}

	var teams, rows int
	ctx := context.Background()
	if err := pool.QueryRow(ctx, `SELECT count(*) FROM teams WHERE form_id = 'hangman'`).Scan(&teams); err != nil {
		t.Fatalf("count teams: %v", err)
	}
	if err := pool.QueryRow(ctx, `SELECT count(*) FROM registrations WHERE form_id = 'hangman'`).Scan(&rows); err != nil {
		t.Fatalf("count rows: %v", err)
	}
	if teams != 1 || rows != 3 {
		t.Fatalf("partial team written: teams=%d rows=%d", teams, rows)
	}

	sameName := map[string]any{
		"teamName": "SOLO TEAM",
		"teamMembers": []map[string]string{
			member("Asha Rao", "RA2311003010001", "ar0001@srmist.edu.in", "9876500001"),
			member("Kiran P", "RA2311003010004", "kp0004@srmist.edu.in", "9876500004"),
			member("Tara V", "RA2311003010005", "tv0005@srmist.edu.in", "9876500005"),
		},
	}
	w = doJSON(router, http.MethodPost, "/forms/hangman/register", mustJSON(t, sameName), "")
	if w.Code != http.StatusConflict {
		t.Fatalf("team name clash: status %d body=%s", w.Code, w.Body.String())
	}
	if res := decodeResult(t, w); res.Message != registration.MsgDuplicateTeam {
		t.Fatalf("team name clash message %q", res.Message)
	}
}

func TestConcurrentIdenticalSubmissions(t *testing.T) {
	router, _ := setupTestRouter(t)

	body := mustJSON(t, member("Asha Rao", "RA2311003010001", "ar0001@srmist.edu.in", "9876543210"))

	const n = 8
	codes := make([]int, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			codes[i] = doJSON(router, http.MethodPost, "/forms/vlogit/register", body, "").Code
		}(i)
	}
	wg.Wait()

	created := 0
	for _, c := range codes {
		switch c {
		case http.StatusCreated:
			created++
		case http.StatusConflict:
		default:
			t.Fatalf("unexpected status %d in %v", c, codes)
		}
	}
	if created != 1 {
		t.Fatalf("expected exactly one created, got %d (%v)", created, codes)
	}
}

func TestReviewFlow(t *testing.T) {
	router, _ := setupTestRouter(t)

	for i, regNo := range []string{"RA2311003010001", "RA2311003010002", "RA2311003010003"} {
		mail := strings.ToLower(regNo[len(regNo)-4:]) + "x@srmist.edu.in"
		body := mustJSON(t, map[string]string{
			"name":               "Member",
			"registrationNumber": regNo,
			"srmMailId":          mail,
			"phoneNumber":        "987654321" + string(rune('0'+i)),
			"firstDomain":        "Technical",
		})
		if w := doJSON(router, http.MethodPost, "/forms/recruitment-25/register", body, ""); w.Code != http.StatusCreated {
			t.Fatalf("seed %s: status %d body=%s", regNo, w.Code, w.Body.String())
		}
	}

	w := doJSON(router, http.MethodPost, "/admin/login", mustJSON(t, map[string]string{"email": adminEmail, "password": adminPassword}), "")
	if w.Code != http.StatusOK {
		t.Fatalf("login: status %d body=%s", w.Code, w.Body.String())
	}
	var login struct {
		AccessToken string `json:"accessToken"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &login); err != nil || login.AccessToken == "" {
		t.Fatalf("login body %s", w.Body.String())
	}

	type page struct {
		Items      []registration.Registration `json:"items"`
		NextCursor *string                     `json:"nextCursor"`
	}

	var seen []registration.Registration
	path := "/admin/forms/recruitment-25/registrations?limit=2"
	for {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Authorization", "Bearer "+login.AccessToken)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("list: status %d body=%s", rec.Code, rec.Body.String())
		}

		var p page
		if err := json.Unmarshal(rec.Body.Bytes(), &p); err != nil {
			t.Fatalf("unmarshal page: %v", err)
		}
		seen = append(seen, p.Items...)
		if p.NextCursor == nil {
			break
		}
		path = "/admin/forms/recruitment-25/registrations?limit=2&cursor=" + *p.NextCursor
	}
	if len(seen) != 3 {
		t.Fatalf("paged %d registrations, want 3", len(seen))
	}

	target := seen[0]
	w = doJSON(router, http.MethodPatch, "/admin/forms/recruitment-25/registrations/"+target.ID+"/round", `{"round":2}`, login.AccessToken)
	if w.Code != http.StatusOK {
		t.Fatalf("advance: status %d body=%s", w.Code, w.Body.String())
	}
	var updated registration.Registration
	if err := json.Unmarshal(w.Body.Bytes(), &updated); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if updated.Round != 2 || updated.Domain1 == nil || *updated.Domain1 != "Technical" {
		t.Fatalf("unexpected updated registration %+v", updated)
	}
}
