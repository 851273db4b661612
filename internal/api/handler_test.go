package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"ruangan-admin-backend/config"
	"ruangan-admin-backend/internal/blob"
	"ruangan-admin-backend/internal/db"
	"ruangan-admin-backend/internal/model"
	"ruangan-admin-backend/internal/service"
	"ruangan-admin-backend/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type nopNotifier struct {
	mu  sync.Mutex
	ids []string
}

func (n *nopNotifier) Dispatch(id string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.ids = append(n.ids, id)
}

type testServer struct {
	router   *gin.Engine
	blobDir  string
	notifier *nopNotifier
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	gormDB, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.Migrate(gormDB))

	cfg := &config.Config{
		Server: config.ServerConfig{RateLimitPerSec: 1000, RateLimitBurst: 1000, CacheTTLSeconds: 60},
		Blob:   config.BlobConfig{Backend: "local", Dir: t.TempDir(), PublicPath: "/uploads", BaseURL: "http://test/uploads"},
	}
	local, err := blob.NewLocalStorage(cfg.Blob.Dir, cfg.Blob.BaseURL)
	require.NoError(t, err)

	n := &nopNotifier{}
	svc := service.New(store.NewGormStore(gormDB), local, n, zap.NewNop())
	h := NewHandler(svc, &webpush.Options{VAPIDPublicKey: "test-public-key"}, 1<<20, zap.NewNop())
	return &testServer{router: NewRouter(h, cfg, zap.NewNop()), blobDir: cfg.Blob.Dir, notifier: n}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestPutSubscription_InvalidBody(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPut, "/api/subscriptions", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"invalid request"}`, w.Body.String())
}

func TestSubscriptions(t *testing.T) {
	s := newTestServer(t)
	room := decode[model.Ruangan](t, s.do(t, http.MethodPost, "/api/ruangan", gin.H{"name": "R1"}))

	w := s.do(t, http.MethodPut, "/api/subscriptions", gin.H{
		"endpoint": "https://push.example.com/1", "p256dh": "k", "auth": "a", "ruanganIds": []string{room.ID},
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = s.do(t, http.MethodGet, "/api/subscriptions?endpoint="+"https%3A%2F%2Fpush.example.com%2F1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, fmt.Sprintf(`{"ruanganIds":[%q]}`, room.ID), w.Body.String())

	w = s.do(t, http.MethodDelete, "/api/subscriptions", gin.H{"endpoint": "https://push.example.com/1"})
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(t, http.MethodGet, "/api/subscriptions?endpoint=https%3A%2F%2Fpush.example.com%2F1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodGet, "/api/subscriptions", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPut, "/api/subscriptions", gin.H{
		"endpoint": "https://push.example.com/2", "p256dh": "k", "auth": "a", "ruanganIds": []string{"no-such-room"},
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetRuangan_NoImagesIsEmptyList(t *testing.T) {
	s := newTestServer(t)
	room := decode[model.Ruangan](t, s.do(t, http.MethodPost, "/api/ruangan", gin.H{"name": "R1"}))

	w := s.do(t, http.MethodGet, "/api/ruangan/"+room.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[map[string]any](t, w)
	assert.Equal(t, []any{}, got["images"])
}

func TestVAPIDPublicKey(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodGet, "/api/vapid_public_key", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"publicKey":"test-public-key"}`, w.Body.String())
}

func TestKategoriCRUD(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/kategori", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[[]model.Kategori](t, w))

	w = s.do(t, http.MethodPost, "/api/kategori", gin.H{"name": "Kelas", "description": "Ruang kelas"})
	require.Equal(t, http.StatusCreated, w.Code)
	created := decode[model.Kategori](t, w)
	assert.NotEmpty(t, created.ID)

	// The cached empty list was invalidated by the write.
	list := decode[[]model.Kategori](t, s.do(t, http.MethodGet, "/api/kategori", nil))
	assert.Equal(t, []model.Kategori{created}, list)

	w = s.do(t, http.MethodPut, "/api/kategori/"+created.ID, gin.H{"name": "Kelas", "description": "Diperbarui"})
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[model.Kategori](t, s.do(t, http.MethodGet, "/api/kategori/"+created.ID, nil))
	assert.Equal(t, "Diperbarui", got.Description)

	w = s.do(t, http.MethodDelete, "/api/kategori/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(t, http.MethodGet, "/api/kategori/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, decode[map[string]string](t, w)["error"], "document not found")

	w = s.do(t, http.MethodPut, "/api/kategori/missing", gin.H{"name": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/kategori", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSaranaCRUD(t *testing.T) {
	s := newTestServer(t)

	created := decode[model.Sarana](t, s.do(t, http.MethodPost, "/api/sarana", gin.H{"name": "Proyektor", "code": "PRJ"}))
	w := s.do(t, http.MethodPut, "/api/sarana/"+created.ID, gin.H{"name": "Proyektor", "code": "PRJ-2"})
	require.Equal(t, http.StatusOK, w.Code)

	list := decode[[]model.Sarana](t, s.do(t, http.MethodGet, "/api/sarana", nil))
	require.Len(t, list, 1)
	assert.Equal(t, "PRJ-2", list[0].Code)

	assert.Equal(t, http.StatusNoContent, s.do(t, http.MethodDelete, "/api/sarana/"+created.ID, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/sarana/"+created.ID, nil).Code)
}

func TestUpdateRuangan(t *testing.T) {
	s := newTestServer(t)
	room := decode[model.Ruangan](t, s.do(t, http.MethodPost, "/api/ruangan", gin.H{"name": "R1", "capacity": 20}))
	assert.Equal(t, int64(1), room.Version)

	body := gin.H{
		"name": "R1", "capacity": 25, "version": room.Version,
		"sarana": []gin.H{{"saranaId": "kursi", "quantity": 25, "condition": "good"}},
	}
	w := s.do(t, http.MethodPut, "/api/ruangan/"+room.ID, body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[model.Ruangan](t, w)
	assert.Equal(t, int64(2), updated.Version)
	assert.Equal(t, 25, updated.Capacity)
	assert.Equal(t, []string{room.ID}, s.notifier.ids)

	assignments := decode[[]model.SaranaRuangan](t, s.do(t, http.MethodGet, "/api/ruangan/"+room.ID+"/sarana", nil))
	require.Len(t, assignments, 1)
	assert.Equal(t, room.ID, assignments[0].RuanganID)

	// Same body again carries the old version.
	w = s.do(t, http.MethodPut, "/api/ruangan/"+room.ID, body)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, http.MethodPut, "/api/ruangan/"+room.ID, gin.H{"name": "R1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPut, "/api/ruangan/missing", gin.H{"name": "x", "version": 1})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUploadImages(t *testing.T) {
	s := newTestServer(t)
	room := decode[model.Ruangan](t, s.do(t, http.MethodPost, "/api/ruangan", gin.H{"name": "R1"}))

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, f := range []struct{ name, content string }{{"a.jpg", "AAA"}, {"b.jpg", "BBB"}} {
		part, err := mw.CreateFormFile("images", f.name)
		require.NoError(t, err)
		_, err = part.Write([]byte(f.content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/ruangan/"+room.ID+"/images", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode[struct {
		Images []model.Image `json:"images"`
	}](t, w)
	assert.Equal(t, []model.Image{
		{Name: "a.jpg", URL: "http://test/uploads/images/a.jpg"},
		{Name: "b.jpg", URL: "http://test/uploads/images/b.jpg"},
	}, resp.Images)

	data, err := os.ReadFile(filepath.Join(s.blobDir, "images", "b.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "BBB", string(data))

	w = s.do(t, http.MethodGet, "/uploads/images/a.jpg", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "AAA", w.Body.String())

	got := decode[model.Ruangan](t, s.do(t, http.MethodGet, "/api/ruangan/"+room.ID, nil))
	assert.Equal(t, resp.Images, got.Images)

	w = s.do(t, http.MethodPost, "/api/ruangan/"+room.ID+"/images", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadImages_ReservedCharactersInNames(t *testing.T) {
	s := newTestServer(t)
	room := decode[model.Ruangan](t, s.do(t, http.MethodPost, "/api/ruangan", gin.H{"name": "R1"}))

	names := []string{"foto#1.jpg", "a?b.jpg", "50%.jpg"}
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, name := range names {
		part, err := mw.CreateFormFile("images", name)
		require.NoError(t, err)
		_, err = part.Write([]byte("content of " + name))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/ruangan/"+room.ID+"/images", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode[struct {
		Images []model.Image `json:"images"`
	}](t, w)
	require.Len(t, resp.Images, len(names))

	for i, img := range resp.Images {
		assert.Equal(t, names[i], img.Name)
		path := strings.TrimPrefix(img.URL, "http://test")
		w := s.do(t, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusOK, w.Code, img.URL)
		assert.Equal(t, "content of "+names[i], w.Body.String(), img.URL)
	}
}

func TestPengajuanLifecycle(t *testing.T) {
	s := newTestServer(t)
	room := decode[model.Ruangan](t, s.do(t, http.MethodPost, "/api/ruangan", gin.H{"name": "R1"}))

	w := s.do(t, http.MethodPost, "/api/pengajuan", gin.H{"ruanganId": room.ID, "saranaId": "kursi", "quantity": 3})
	require.Equal(t, http.StatusCreated, w.Code)
	p := decode[model.Pengajuan](t, w)
	assert.Equal(t, model.StatusPending, p.Status)

	other := decode[model.Pengajuan](t, s.do(t, http.MethodPost, "/api/pengajuan", gin.H{"ruanganId": room.ID, "saranaId": "meja", "quantity": 1}))

	w = s.do(t, http.MethodPost, "/api/pengajuan/"+p.ID+"/approve", nil)
	require.Equal(t, http.StatusOK, w.Code)
	created := decode[model.SaranaRuangan](t, w)
	assert.Equal(t, room.ID, created.RuanganID)
	assert.Equal(t, model.ConditionGood, created.Condition)

	assert.Equal(t, http.StatusNoContent, s.do(t, http.MethodPost, "/api/pengajuan/"+other.ID+"/reject", nil).Code)

	approved := decode[[]model.Pengajuan](t, s.do(t, http.MethodGet, "/api/pengajuan?status=approved", nil))
	require.Len(t, approved, 1)
	assert.Equal(t, p.ID, approved[0].ID)

	rejected := decode[[]model.Pengajuan](t, s.do(t, http.MethodGet, "/api/pengajuan?status=rejected", nil))
	require.Len(t, rejected, 1)
	assert.Equal(t, other.ID, rejected[0].ID)

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/api/pengajuan?status=done", nil).Code)
	assert.Equal(t, http.StatusBadRequest,
		s.do(t, http.MethodPost, "/api/pengajuan", gin.H{"ruanganId": room.ID, "status": "done"}).Code)

	assert.Equal(t, http.StatusNoContent, s.do(t, http.MethodPost, "/api/pengajuan/"+other.ID+"/cancel", nil).Code)
	assert.Equal(t, http.StatusNoContent, s.do(t, http.MethodDelete, "/api/pengajuan/"+other.ID, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/pengajuan/"+other.ID, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodPost, "/api/pengajuan/missing/approve", nil).Code)
}

func TestStats(t *testing.T) {
	s := newTestServer(t)

	assert.JSONEq(t, `{"totalSarana":0,"totalRuangan":0,"totalKategori":0}`,
		s.do(t, http.MethodGet, "/api/stats", nil).Body.String())

	s.do(t, http.MethodPost, "/api/kategori", gin.H{"name": "Lab"})
	room := decode[model.Ruangan](t, s.do(t, http.MethodPost, "/api/ruangan", gin.H{"name": "R1"}))
	s.do(t, http.MethodPut, "/api/ruangan/"+room.ID, gin.H{
		"name": "R1", "version": 1,
		"sarana": []gin.H{{"saranaId": "kursi", "quantity": 7}, {"saranaId": "meja", "quantity": 3}},
	})

	assert.JSONEq(t, `{"totalSarana":10,"totalRuangan":1,"totalKategori":1}`,
		s.do(t, http.MethodGet, "/api/stats", nil).Body.String())
}

func TestFail_StatusMapping(t *testing.T) {
	h := NewHandler(nil, nil, 0, zap.NewNop())

	testCases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("get ruangan r1: %w", store.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("update ruangan r1: %w", store.ErrVersionConflict), http.StatusConflict},
		{errors.New("rpc error: code = Unavailable"), http.StatusInternalServerError},
	}
	for _, tc := range testCases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

		h.fail(c, tc.err)

		assert.Equal(t, tc.want, w.Code)
		assert.JSONEq(t, fmt.Sprintf(`{"error":%q}`, tc.err.Error()), w.Body.String())
	}
}
