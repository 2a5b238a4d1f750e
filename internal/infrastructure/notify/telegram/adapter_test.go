package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portal-exporter/internal/domain/entity"
	"portal-exporter/internal/infrastructure/logger"
)

type recorded struct {
	path     string
	chatID   string
	text     string
	filename string
	content  string
}

func fakeBotAPI(t *testing.T, fail string) (*httptest.Server, func() []recorded) {
	t.Helper()
	var (
		mu    sync.Mutex
		calls []recorded
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recorded{path: r.URL.Path}
		switch filepath.Base(r.URL.Path) {
		case "sendMessage":
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			rec.chatID, rec.text = body["chat_id"], body["text"]
		case "sendDocument":
			require.NoError(t, r.ParseMultipartForm(1<<20))
			rec.chatID = r.FormValue("chat_id")
			f, hdr, err := r.FormFile("document")
			require.NoError(t, err)
			raw, _ := io.ReadAll(f)
			rec.filename, rec.content = hdr.Filename, string(raw)
		}
		mu.Lock()
		calls = append(calls, rec)
		mu.Unlock()

		if filepath.Base(r.URL.Path) == fail {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"ok":false,"description":"Bad Request: chat not found"}`))
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	t.Cleanup(srv.Close)
	return srv, func() []recorded {
		mu.Lock()
		defer mu.Unlock()
		return append([]recorded(nil), calls...)
	}
}

func newAdapter(t *testing.T, baseURL string) *TelegramAdapter {
	t.Helper()
	cfg := DefaultConfig("123:abc", "-100")
	cfg.BaseURL = baseURL
	cfg.Logger = logger.Nop()
	a, err := NewTelegramAdapter(cfg)
	require.NoError(t, err)
	return a
}

func TestNewTelegramAdapter_RequiresCredentials(t *testing.T) {
	_, err := NewTelegramAdapter(DefaultConfig("", "-100"))
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestNotify_SuccessSendsMessageAndDocument(t *testing.T) {
	srv, calls := fakeBotAPI(t, "")
	a := newAdapter(t, srv.URL)

	dest := filepath.Join(t.TempDir(), "ordens_de_compra.csv")
	require.NoError(t, os.WriteFile(dest, []byte("a;b\n1;2\n"), 0o644))

	res := entity.NewRunResult("run-1", "purchase-orders", &entity.DownloadArtifact{
		DestinationPath: dest,
		SizeBytes:       8,
		ResultsReady:    true,
	}, nil)

	require.NoError(t, a.Notify(context.Background(), res))

	got := calls()
	require.Len(t, got, 2)
	assert.Equal(t, "/bot123:abc/sendMessage", got[0].path)
	assert.Equal(t, "-100", got[0].chatID)
	assert.Contains(t, got[0].text, "purchase-orders exported")
	assert.Contains(t, got[0].text, "ordens_de_compra.csv (8 bytes)")
	assert.Equal(t, "/bot123:abc/sendDocument", got[1].path)
	assert.Equal(t, "ordens_de_compra.csv", got[1].filename)
	assert.Equal(t, "a;b\n1;2\n", got[1].content)
}

func TestNotify_FailureSendsOnlyMessage(t *testing.T) {
	srv, calls := fakeBotAPI(t, "")
	a := newAdapter(t, srv.URL)

	failure := &entity.FieldFillError{Selector: "#cphPesquisa_txtDocumentosDataInicial", Expected: "01/10/2026"}
	res := entity.NewRunResult("run-2", "finance-documents", nil, &entity.StageError{Stage: entity.StageFilter, Err: failure})

	require.NoError(t, a.Notify(context.Background(), res))

	got := calls()
	require.Len(t, got, 1)
	assert.Contains(t, got[0].text, "finance-documents failed")
	assert.Contains(t, got[0].text, "Stage: FilterConfigurator")
	assert.Contains(t, got[0].text, "Kind: FieldFillError")
}

func TestNotify_APIErrorSurfaces(t *testing.T) {
	srv, calls := fakeBotAPI(t, "sendMessage")
	a := newAdapter(t, srv.URL)

	err := a.Notify(context.Background(), entity.NewRunResult("run-3", "purchase-orders", nil, errors.New("boom")))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat not found")
	assert.Len(t, calls(), 1)
}

func TestFormatResult_ResultsNotSeen(t *testing.T) {
	res := entity.NewRunResult("run-4", "purchase-orders", &entity.DownloadArtifact{
		DestinationPath: "/out/ordens_de_compra.csv",
		SizeBytes:       10,
	}, nil)

	assert.Contains(t, FormatResult(res), "Results indicator not seen")
	assert.Contains(t, FormatResult(res), "Run: run-4")
}
