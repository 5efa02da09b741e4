package api

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/insightdelivered/statement-engine/internal/config"
	"github.com/insightdelivered/statement-engine/internal/engine"
)

func newMultipart(t *testing.T, buf *bytes.Buffer, filename string, data []byte) string {
	t.Helper()
	w := multipart.NewWriter(buf)
	fw, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return w.FormDataContentType()
}

func testApp(t *testing.T) *fiber.App {
	t.Helper()
	e, err := engine.New(config.Defaults(), zap.NewNop())
	require.NoError(t, err)

	app := fiber.New()
	New(e, zap.NewNop()).Register(app)
	return app
}

func metroPageJSON() string {
	lines := []string{
		"Metro Bank",
		"Account number 12345678   Sort code 11-22-33",
		"Statement period 01/01/2024 to 31/01/2024",
		"",
		"Date" + strings.Repeat(" ", 46) + "Money out      Money in       Balance",
		"01/01/2024  Balance brought forward" + strings.Repeat(" ", 45) + "2,000.00",
		"02/01/2024  CARD PAYMENT TESCO STORES" + strings.Repeat(" ", 13) + "25.99" + strings.Repeat(" ", 25) + "1,974.01",
	}
	page, _ := json.Marshal(strings.Join(lines, "\n"))
	return string(page)
}

func TestHealth(t *testing.T) {
	app := testApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/health", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestDialects(t *testing.T) {
	app := testApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/dialects", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Dialects []string `json:"dialects"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.ElementsMatch(t, []string{"metro", "hsbc", "barclays", "generic"}, body.Dialects)
}

func TestParse_Text(t *testing.T) {
	app := testApp(t)

	body := `{"pages": [` + metroPageJSON() + `], "dialect": "auto"}`
	req := httptest.NewRequest(http.MethodPost, "/api/parse", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var decoded struct {
		Transactions []json.RawMessage `json:"transactions"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	assert.Len(t, decoded.Transactions, 2)
}

func TestParse_EmptyBody(t *testing.T) {
	app := testApp(t)

	req := httptest.NewRequest(http.MethodPost, "/api/parse", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestParse_NoTransactions(t *testing.T) {
	app := testApp(t)

	req := httptest.NewRequest(http.MethodPost, "/api/parse",
		bytes.NewBufferString(`{"pages": ["Metro Bank\nnothing here"], "dialect": "metro"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	raw, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(raw), "no transactions")
}

func TestConvert_RejectsNonPDF(t *testing.T) {
	app := testApp(t)

	var buf bytes.Buffer
	mw := newMultipart(t, &buf, "statement.txt", []byte("not a pdf"))

	req := httptest.NewRequest(http.MethodPost, "/api/convert", &buf)
	req.Header.Set("Content-Type", mw)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestConvert_NoFile(t *testing.T) {
	app := testApp(t)

	req := httptest.NewRequest(http.MethodPost, "/api/convert", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
