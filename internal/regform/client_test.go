package regform_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/geocoder89/clubhub/internal/domain/form"
	"github.com/geocoder89/clubhub/internal/domain/registration"
	httpx "github.com/geocoder89/clubhub/internal/http"
	"github.com/geocoder89/clubhub/internal/regform"
	"github.com/geocoder89/clubhub/internal/registrar"
	"github.com/geocoder89/clubhub/internal/repo/memory"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAPI(t *testing.T) *httptest.Server {
	t.Helper()

	forms, err := form.Builtin()
	require.NoError(t, err)
	store := memory.NewRegistrationsRepo()

	srv := httptest.NewServer(httpx.NewRouter(httpx.Deps{
		Env:       "test",
		Metrics:   promhttp.Handler(),
		Registrar: registrar.New(store, forms),
		Forms:     forms,
	}))
	t.Cleanup(func() {
		srv.Client().CloseIdleConnections()
		srv.Close()
	})
	return srv
}

func TestClient_EndToEnd(t *testing.T) {
	srv := newAPI(t)
	client := regform.NewClient(srv.URL, srv.Client())
	ctx := context.Background()

	defs, err := client.Forms(ctx)
	require.NoError(t, err)
	assert.Len(t, defs, 3)

	def, err := client.Form(ctx, "vlogit")
	require.NoError(t, err)

	_, err = client.Form(ctx, "nope")
	assert.ErrorIs(t, err, form.ErrFormNotFound)

	c := regform.New(def, client)
	fill(t, c, asha)

	fb, err := c.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, regform.Feedback{Tone: regform.Positive, Message: registration.MsgSuccess}, fb)

	// same person again, different mail
	fill(t, c, asha)
	require.NoError(t, c.UpdateField("srmMailId", "asha.rao@srmist.edu.in"))

	fb, err = c.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, regform.Negative, fb.Tone)
	assert.Equal(t, registration.MsgDuplicateRegNo, fb.Message)
	assert.Equal(t, registration.MsgDuplicateRegNo, c.FieldError("registrationNumber"))
}

func TestClient_UnknownFormIsAVerdict(t *testing.T) {
	srv := newAPI(t)
	client := regform.NewClient(srv.URL, srv.Client())

	res, err := client.Submit(context.Background(), "nope", registration.Payload{})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, registration.MsgFormNotFound, res.Message)
}

func TestClient_NonResultResponseIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>bad gateway</html>"))
	}))
	t.Cleanup(func() {
		srv.Client().CloseIdleConnections()
		srv.Close()
	})

	c := regform.New(mustForm(t, "vlogit"), regform.NewClient(srv.URL, srv.Client()))
	fill(t, c, asha)

	fb, err := c.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, regform.Feedback{Tone: regform.Negative, Message: registration.MsgUnexpected}, fb)
	assert.Empty(t, c.Errors())

	v, _ := c.Value("name")
	assert.Equal(t, "Asha Rao", v, "values survive a transport failure")
}
