package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/provide-io/emotepack/pkg/emote/archive"
	"github.com/provide-io/emotepack/pkg/emote/session"
	"github.com/provide-io/emotepack/pkg/emote/slots"
	"github.com/provide-io/emotepack/pkg/logging"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	logger := logging.NewTestLogger("server_test")
	srv, err := New(session.Options{Logger: logger}, Options{Logger: logger})
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		srv.Close()
	})
	return srv, ts
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 6, 4))))
	return buf.Bytes()
}

func do(t *testing.T, method, url, contentType string, body []byte) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	require.NoError(t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestGetSlots(t *testing.T) {
	_, ts := newTestServer(t)

	resp := do(t, http.MethodGet, ts.URL+"/api/slots", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	st := decode[State](t, resp)
	require.Len(t, st.Cells, 11)
	require.Equal(t, "smile", st.Cells[0].Slot)
	require.Equal(t, "user-_____smile.png", st.Cells[0].FileName)
	require.Equal(t, "emotions.zip", st.Archive)
	require.Contains(t, st.Formats, "tar.zst")
	require.Equal(t, slots.PreserveBindings, st.ReplacePolicy)
}

func TestAppendAndReplace(t *testing.T) {
	_, ts := newTestServer(t)

	resp := do(t, http.MethodPost, ts.URL+"/api/slots", "application/json", []byte(`{"name":"wink"}`))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	st := decode[State](t, resp)
	require.Equal(t, "wink", st.Cells[11].Slot)

	resp = do(t, http.MethodPost, ts.URL+"/api/slots", "application/json", []byte(`{"name":"wink"}`))
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = do(t, http.MethodPost, ts.URL+"/api/slots", "application/json", []byte(`{"name":"   "}`))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, http.MethodPut, ts.URL+"/api/slots", "text/plain", []byte("a\n\nb\n \nc\n"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	st = decode[State](t, resp)
	require.Len(t, st.Cells, 3)
	require.Nil(t, st.Notice)

	resp = do(t, http.MethodPut, ts.URL+"/api/slots", "text/plain", []byte("\n  \n"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	st = decode[State](t, resp)
	require.Len(t, st.Cells, 11)
	require.NotNil(t, st.Notice)
	require.Equal(t, session.LevelWarning, st.Notice.Level)
}

func TestBindImage(t *testing.T) {
	srv, ts := newTestServer(t)
	img := pngBytes(t)

	resp := do(t, http.MethodPut, ts.URL+"/api/slots/sad/image?filename=sad.png", "image/png", img)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	br := decode[bindResponse](t, resp)
	require.False(t, br.Ignored)
	require.NotNil(t, br.Cell)
	require.True(t, br.Cell.Bound)
	require.Equal(t, 6, br.Cell.Preview.Width)

	// no declared type: sniffed from content
	resp = do(t, http.MethodPut, ts.URL+"/api/slots/angry/image", "", img)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	b, ok := srv.Session().Registry().Binding("angry")
	require.True(t, ok)
	require.Equal(t, "image/png", b.Blob.MediaType)

	resp = do(t, http.MethodPut, ts.URL+"/api/slots/smile/image", "text/plain", []byte("hello"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, decode[bindResponse](t, resp).Ignored)
	_, ok = srv.Session().Registry().Binding("smile")
	require.False(t, ok)

	resp = do(t, http.MethodPut, ts.URL+"/api/slots/smlie/image", "image/png", img)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Contains(t, decode[errorResponse](t, resp).Error, "smile")
}

func TestCloseWaitsForDecodes(t *testing.T) {
	srv, _ := newTestServer(t)
	img := pngBytes(t)

	for _, slot := range []string{"smile", "sad", "angry"} {
		_, err := srv.Session().Bind(context.Background(), slot, slots.Blob{Name: slot + ".png", MediaType: "image/png", Data: img})
		require.NoError(t, err)
	}
	srv.Close()

	for _, slot := range []string{"smile", "sad", "angry"} {
		b, ok := srv.Session().Registry().Binding(slot)
		require.True(t, ok)
		require.NotNil(t, b.Preview, slot)
	}
}

func TestSetConfig(t *testing.T) {
	_, ts := newTestServer(t)

	resp := do(t, http.MethodPut, ts.URL+"/api/config", "application/json",
		[]byte(`{"mode":"plain","label":"Rin","extension":"webp","archive_format":"tar.gz"}`))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	st := decode[State](t, resp)
	require.Equal(t, "Rin-smile.webp", st.Cells[0].FileName)
	require.Equal(t, "emotions.tar.gz", st.Archive)

	resp = do(t, http.MethodPut, ts.URL+"/api/config", "application/json", []byte(`{"mode":"kebab"}`))
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, http.MethodPut, ts.URL+"/api/config", "application/json", []byte(`{"archive_format":"rar"}`))
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestExportArchive(t *testing.T) {
	_, ts := newTestServer(t)

	resp := do(t, http.MethodPost, ts.URL+"/api/export/archive", "", nil)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	require.Equal(t, "warning", decode[errorResponse](t, resp).Level)

	do(t, http.MethodPut, ts.URL+"/api/config", "application/json", []byte(`{"label":"Rin"}`))
	do(t, http.MethodPut, ts.URL+"/api/slots/blush/image", "image/png", pngBytes(t))

	resp = do(t, http.MethodPost, ts.URL+"/api/export/archive", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "application/zip", resp.Header.Get("Content-Type"))
	require.Equal(t, `attachment; filename="emotions.zip"`, resp.Header.Get("Content-Disposition"))

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	zip, err := archive.ForFormat("zip")
	require.NoError(t, err)
	entries, err := zip.List(data)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "user-Rin_blush.png", entries[0].Name)
}

func TestExportIndividualOneShotDownloads(t *testing.T) {
	srv, ts := newTestServer(t)
	img := pngBytes(t)
	do(t, http.MethodPut, ts.URL+"/api/slots/smile/image", "image/png", img)
	do(t, http.MethodPut, ts.URL+"/api/slots/bored/image", "image/png", img)

	resp := do(t, http.MethodPost, ts.URL+"/api/export/individual", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	ir := decode[individualResponse](t, resp)
	require.Len(t, ir.Links, 2)
	require.Equal(t, "user-_____smile.png", ir.Links[0].Name)
	require.Equal(t, 2, srv.downloads.Len())

	resp = do(t, http.MethodGet, ts.URL+ir.Links[0].URL, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	got, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, img, got)
	require.Equal(t, 1, srv.downloads.Len())

	resp = do(t, http.MethodGet, ts.URL+ir.Links[0].URL, "", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestWebSocketEvents(t *testing.T) {
	_, ts := newTestServer(t)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var msg map[string]interface{}
	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, "ack", msg["type"])

	do(t, http.MethodPost, ts.URL+"/api/slots", "application/json", []byte(`{"name":"wink"}`))
	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, "event", msg["type"])
	data := msg["data"].(map[string]interface{})
	require.Equal(t, "appended", data["kind"])
	require.Equal(t, "wink", data["slot"])

	do(t, http.MethodPost, ts.URL+"/api/slots", "application/json", []byte(`{"name":"wink"}`))
	msg = nil
	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, "notice", msg["type"])
	notice := msg["data"].(map[string]interface{})
	require.Equal(t, "error", notice["level"])
}
