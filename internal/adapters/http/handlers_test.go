package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	handler "github.com/mgoiri/geolens/internal/adapters/http"
	"github.com/mgoiri/geolens/internal/core/domain"
	"github.com/mgoiri/geolens/internal/core/usecases"
	"github.com/mgoiri/geolens/internal/pkg/auth"
)

// ---- Mock repositories ----

type mockUserRepo struct {
	createFn     func(ctx context.Context, u *domain.User) error
	getByIDFn    func(ctx context.Context, id string) (*domain.User, error)
	getByEmailFn func(ctx context.Context, email string) (*domain.User, error)
}

func (m *mockUserRepo) Create(ctx context.Context, u *domain.User) error {
	if m.createFn != nil {
		return m.createFn(ctx, u)
	}
	return nil
}
func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, nil
}
func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if m.getByEmailFn != nil {
		return m.getByEmailFn(ctx, email)
	}
	return nil, nil
}

type mockDatasetRepo struct {
	createFn  func(ctx context.Context, ds *domain.Dataset) error
	getByIDFn func(ctx context.Context, id string) (*domain.Dataset, error)
	listFn    func(ctx context.Context, userID string, limit, offset int) ([]domain.Dataset, error)
	countFn   func(ctx context.Context, userID string) (int, error)
	deleteFn  func(ctx context.Context, id string) error
}

func (m *mockDatasetRepo) Create(ctx context.Context, ds *domain.Dataset) error {
	if m.createFn != nil {
		return m.createFn(ctx, ds)
	}
	return nil
}
func (m *mockDatasetRepo) GetByID(ctx context.Context, id string) (*domain.Dataset, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, nil
}
func (m *mockDatasetRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.Dataset, error) {
	if m.listFn != nil {
		return m.listFn(ctx, userID, limit, offset)
	}
	return nil, nil
}
func (m *mockDatasetRepo) CountByUser(ctx context.Context, userID string) (int, error) {
	if m.countFn != nil {
		return m.countFn(ctx, userID)
	}
	return 0, nil
}
func (m *mockDatasetRepo) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

type mockRunRepo struct {
	createFn  func(ctx context.Context, run *domain.AnalysisRun) error
	getByIDFn func(ctx context.Context, id string) (*domain.AnalysisRun, error)
	listFn    func(ctx context.Context, datasetID string, limit, offset int) ([]domain.AnalysisRun, error)
}

func (m *mockRunRepo) Create(ctx context.Context, run *domain.AnalysisRun) error {
	if m.createFn != nil {
		return m.createFn(ctx, run)
	}
	return nil
}
func (m *mockRunRepo) GetByID(ctx context.Context, id string) (*domain.AnalysisRun, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, nil
}
func (m *mockRunRepo) ListByDataset(ctx context.Context, datasetID string, limit, offset int) ([]domain.AnalysisRun, error) {
	if m.listFn != nil {
		return m.listFn(ctx, datasetID, limit, offset)
	}
	return nil, nil
}

type mockPlaceRepo struct {
	createFn func(ctx context.Context, p *domain.Place) error
	getFn    func(ctx context.Context, id string) (*domain.Place, error)
	nearbyFn func(ctx context.Context, userID string, lat, lon, radius float64, limit int) ([]domain.Place, error)
}

func (m *mockPlaceRepo) Create(ctx context.Context, p *domain.Place) error {
	if m.createFn != nil {
		return m.createFn(ctx, p)
	}
	return nil
}
func (m *mockPlaceRepo) GetByID(ctx context.Context, id string) (*domain.Place, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, nil
}
func (m *mockPlaceRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.Place, error) {
	return nil, nil
}
func (m *mockPlaceRepo) FindNearby(ctx context.Context, userID string, lat, lon, radius float64, limit int) ([]domain.Place, error) {
	if m.nearbyFn != nil {
		return m.nearbyFn(ctx, userID, lat, lon, radius, limit)
	}
	return nil, nil
}
func (m *mockPlaceRepo) Update(ctx context.Context, p *domain.Place) error { return nil }
func (m *mockPlaceRepo) Delete(ctx context.Context, id string) error       { return nil }

type mockUsageRepo struct {
	countFn  func(ctx context.Context, userID, action string, since time.Time) (int, error)
	oldestFn func(ctx context.Context, userID, action string, since time.Time) (*domain.InsightUsage, error)
}

func (m *mockUsageRepo) Insert(ctx context.Context, u *domain.InsightUsage) error { return nil }
func (m *mockUsageRepo) CountSince(ctx context.Context, userID, action string, since time.Time) (int, error) {
	if m.countFn != nil {
		return m.countFn(ctx, userID, action, since)
	}
	return 0, nil
}
func (m *mockUsageRepo) OldestSince(ctx context.Context, userID, action string, since time.Time) (*domain.InsightUsage, error) {
	if m.oldestFn != nil {
		return m.oldestFn(ctx, userID, action, since)
	}
	return nil, nil
}

type mockFileStore struct {
	files map[string][]byte
}

func newMockFileStore() *mockFileStore {
	return &mockFileStore{files: make(map[string][]byte)}
}
func (m *mockFileStore) Save(ctx context.Context, key string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.files[key] = data
	return key, nil
}
func (m *mockFileStore) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	data, ok := m.files[path]
	if !ok {
		return nil, fmt.Errorf("no such file: %s", path)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}
func (m *mockFileStore) Remove(ctx context.Context, path string) error {
	delete(m.files, path)
	return nil
}

type mockGenerator struct {
	generateFn func(ctx context.Context, result *domain.AnalysisResult, ictx domain.InsightContext) (*domain.Insight, error)
}

func (m *mockGenerator) Generate(ctx context.Context, result *domain.AnalysisResult, ictx domain.InsightContext) (*domain.Insight, error) {
	if m.generateFn != nil {
		return m.generateFn(ctx, result, ictx)
	}
	return &domain.Insight{Text: "quiet week in the dataset"}, nil
}

// ---- Test helpers ----

var testTokens = auth.NewJWTManager("test-secret", "geolens")

var testUser = &domain.User{ID: "u1", Email: "ane@example.com"}

func userRepoWith(u *domain.User) *mockUserRepo {
	return &mockUserRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.User, error) {
			if u != nil && id == u.ID {
				return u, nil
			}
			return nil, nil
		},
	}
}

func makeDeps(opts ...func(*handler.Dependencies)) *handler.Dependencies {
	datasetSvc := usecases.NewDatasetService(&mockDatasetRepo{}, newMockFileStore(), nil)
	analysisSvc := usecases.NewAnalysisService(datasetSvc, &mockRunRepo{}, nil, nil)
	d := &handler.Dependencies{
		Auth:           usecases.NewAuthService(userRepoWith(testUser), testTokens),
		Datasets:       datasetSvc,
		Analyses:       analysisSvc,
		Places:         usecases.NewPlaceService(&mockPlaceRepo{}, nil),
		Insights:       usecases.NewInsightService(analysisSvc, &mockUsageRepo{}, &mockGenerator{}),
		MaxUploadBytes: 1 << 20,
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

func setupApp(deps *handler.Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	handler.SetupRoutes(app, deps)
	return app
}

func bearerToken(t *testing.T) string {
	t.Helper()
	token, err := testTokens.Issue(testUser.ID, testUser.Email)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return "Bearer " + token
}

// ---- Auth handler tests ----

func TestRegister_Success(t *testing.T) {
	app := setupApp(makeDeps())

	body := strings.NewReader(`{"email":"new@example.com","password":"correcthorse"}`)
	req := httptest.NewRequest("POST", "/v1/auth/register", body)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 201 {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	var result struct {
		Token string       `json:"token"`
		User  *domain.User `json:"user"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if result.Token == "" {
		t.Error("expected a token")
	}
	if result.User == nil || result.User.Email != "new@example.com" {
		t.Errorf("unexpected user: %+v", result.User)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Auth = usecases.NewAuthService(&mockUserRepo{
			getByEmailFn: func(ctx context.Context, email string) (*domain.User, error) {
				return &domain.User{ID: "existing", Email: email}, nil
			},
		}, testTokens)
	})
	app := setupApp(deps)

	body := strings.NewReader(`{"email":"taken@example.com","password":"correcthorse"}`)
	req := httptest.NewRequest("POST", "/v1/auth/register", body)
	req.Header.Set("Content-Type", "application/json")

	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 409 {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	hash, _ := auth.HashPassword("rightpassword")
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Auth = usecases.NewAuthService(&mockUserRepo{
			getByEmailFn: func(ctx context.Context, email string) (*domain.User, error) {
				return &domain.User{ID: "u1", Email: email, PasswordHash: hash}, nil
			},
		}, testTokens)
	})
	app := setupApp(deps)

	body := strings.NewReader(`{"email":"ane@example.com","password":"wrongpassword"}`)
	req := httptest.NewRequest("POST", "/v1/auth/login", body)
	req.Header.Set("Content-Type", "application/json")

	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 401 {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestMe_RequiresToken(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/me", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 401 {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}

	var apiErr struct {
		Code string `json:"code"`
	}
	json.NewDecoder(resp.Body).Decode(&apiErr)
	if apiErr.Code != "unauthorized" {
		t.Errorf("expected unauthorized code, got %s", apiErr.Code)
	}
}

func TestMe_Success(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/me", nil)
	req.Header.Set("Authorization", bearerToken(t))

	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var user domain.User
	json.NewDecoder(resp.Body).Decode(&user)
	if user.Email != testUser.Email {
		t.Errorf("expected %s, got %s", testUser.Email, user.Email)
	}
}

// ---- Dataset handler tests ----

func multipartUpload(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	part.Write(content)
	w.Close()
	return &buf, w.FormDataContentType()
}

func TestUploadDataset_Success(t *testing.T) {
	store := newMockFileStore()
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Datasets = usecases.NewDatasetService(&mockDatasetRepo{}, store, nil)
	})
	app := setupApp(deps)

	csv := []byte("lat,lon,category\n43.263,-2.935,pintxos\n43.264,-2.936,museum\n")
	body, contentType := multipartUpload(t, "bilbao.csv", csv)

	req := httptest.NewRequest("POST", "/v1/datasets", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", bearerToken(t))

	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 201 {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	var ds domain.Dataset
	json.NewDecoder(resp.Body).Decode(&ds)
	if ds.NumPoints != 2 {
		t.Errorf("expected 2 points, got %d", ds.NumPoints)
	}
	if ds.FileType != "csv" {
		t.Errorf("expected csv, got %s", ds.FileType)
	}
	if len(store.files) != 1 {
		t.Errorf("expected stored file, got %d", len(store.files))
	}
}

func TestUploadDataset_UnsupportedExtension(t *testing.T) {
	app := setupApp(makeDeps())

	body, contentType := multipartUpload(t, "points.xlsx", []byte("not a spreadsheet"))
	req := httptest.NewRequest("POST", "/v1/datasets", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", bearerToken(t))

	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestUploadDataset_NoValidPoints(t *testing.T) {
	app := setupApp(makeDeps())

	csv := []byte("lat,lon\nnot-a-number,nope\n")
	body, contentType := multipartUpload(t, "bad.csv", csv)
	req := httptest.NewRequest("POST", "/v1/datasets", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", bearerToken(t))

	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 422 {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
}

func TestListDatasets_Pagination(t *testing.T) {
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Datasets = usecases.NewDatasetService(&mockDatasetRepo{
			listFn: func(ctx context.Context, userID string, limit, offset int) ([]domain.Dataset, error) {
				return []domain.Dataset{{ID: "d1", UserID: userID}, {ID: "d2", UserID: userID}}, nil
			},
			countFn: func(ctx context.Context, userID string) (int, error) { return 7, nil },
		}, newMockFileStore(), nil)
	})
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/datasets?offset=0&limit=2", nil)
	req.Header.Set("Authorization", bearerToken(t))

	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Data       []domain.Dataset `json:"data"`
		Pagination struct {
			Total int `json:"total"`
		} `json:"pagination"`
	}
	json.NewDecoder(resp.Body).Decode(&result)
	if result.Pagination.Total != 7 {
		t.Errorf("expected total 7, got %d", result.Pagination.Total)
	}
	if len(result.Data) != 2 {
		t.Errorf("expected 2 datasets, got %d", len(result.Data))
	}

	link := resp.Header.Get("Link")
	if !strings.Contains(link, `rel="next"`) {
		t.Errorf("expected next link, got %s", link)
	}
}

func TestGetDataset_NotFound(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/datasets/nonexistent", nil)
	req.Header.Set("Authorization", bearerToken(t))

	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestGetDataset_OtherUsers(t *testing.T) {
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Datasets = usecases.NewDatasetService(&mockDatasetRepo{
			getByIDFn: func(ctx context.Context, id string) (*domain.Dataset, error) {
				return &domain.Dataset{ID: id, UserID: "someone-else"}, nil
			},
		}, newMockFileStore(), nil)
	})
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/datasets/d1", nil)
	req.Header.Set("Authorization", bearerToken(t))

	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 403 {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}

// ---- Analysis handler tests ----

func analyzableDeps(t *testing.T) *handler.Dependencies {
	t.Helper()
	store := newMockFileStore()
	csv := []byte("lat,lon,category\n43.2630,-2.9350,bar\n43.2631,-2.9351,bar\n43.2632,-2.9352,bar\n43.2633,-2.9353,bar\n43.2634,-2.9354,bar\n")
	if _, err := store.Save(context.Background(), "d1.csv", bytes.NewReader(csv)); err != nil {
		t.Fatal(err)
	}
	datasetRepo := &mockDatasetRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.Dataset, error) {
			return &domain.Dataset{ID: id, UserID: testUser.ID, FileType: "csv", StoragePath: "d1.csv", NumPoints: 5}, nil
		},
	}
	return makeDeps(func(d *handler.Dependencies) {
		d.Datasets = usecases.NewDatasetService(datasetRepo, store, nil)
		d.Analyses = usecases.NewAnalysisService(d.Datasets, &mockRunRepo{}, nil, nil)
	})
}

func TestAnalyzeDataset_Success(t *testing.T) {
	app := setupApp(analyzableDeps(t))

	req := httptest.NewRequest("POST", "/v1/datasets/d1/analyses", strings.NewReader(`{"dbscan_eps_km":0.2,"dbscan_min_samples":3}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", bearerToken(t))

	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 201 {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	var run struct {
		ID     string          `json:"id"`
		Result json.RawMessage `json:"result"`
	}
	json.NewDecoder(resp.Body).Decode(&run)
	if run.ID == "" {
		t.Error("expected a run id")
	}

	var result map[string]json.RawMessage
	if err := json.Unmarshal(run.Result, &result); err != nil {
		t.Fatalf("result not valid JSON: %v", err)
	}
	for _, key := range []string{"summary", "grid_density", "clustering"} {
		if _, ok := result[key]; !ok {
			t.Errorf("result missing %q", key)
		}
	}
}

func TestAnalyzeDataset_BadParams(t *testing.T) {
	app := setupApp(analyzableDeps(t))

	req := httptest.NewRequest("POST", "/v1/datasets/d1/analyses", strings.NewReader(`{"dbscan_min_samples":0}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", bearerToken(t))

	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestGetAnalysisRun_Forbidden(t *testing.T) {
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Analyses = usecases.NewAnalysisService(d.Datasets, &mockRunRepo{
			getByIDFn: func(ctx context.Context, id string) (*domain.AnalysisRun, error) {
				return &domain.AnalysisRun{ID: id, UserID: "someone-else"}, nil
			},
		}, nil, nil)
	})
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/analyses/r1", nil)
	req.Header.Set("Authorization", bearerToken(t))

	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 403 {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}

// ---- Insight handler tests ----

func TestGenerateInsight_QuotaExhausted(t *testing.T) {
	resultJSON, _ := json.Marshal(domain.AnalysisResult{})
	runRepo := &mockRunRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.AnalysisRun, error) {
			return &domain.AnalysisRun{ID: id, UserID: testUser.ID, ResultJSON: resultJSON}, nil
		},
	}
	usage := &mockUsageRepo{
		countFn: func(ctx context.Context, userID, action string, since time.Time) (int, error) {
			return 1, nil
		},
		oldestFn: func(ctx context.Context, userID, action string, since time.Time) (*domain.InsightUsage, error) {
			return &domain.InsightUsage{CreatedAt: time.Now().UTC().Add(-24 * time.Hour)}, nil
		},
	}
	deps := makeDeps(func(d *handler.Dependencies) {
		analyses := usecases.NewAnalysisService(d.Datasets, runRepo, nil, nil)
		d.Analyses = analyses
		d.Insights = usecases.NewInsightService(analyses, usage, &mockGenerator{})
	})
	app := setupApp(deps)

	req := httptest.NewRequest("POST", "/v1/analyses/r1/insights", nil)
	req.Header.Set("Authorization", bearerToken(t))

	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 429 {
		t.Fatalf("expected 429, got %d", resp.StatusCode)
	}
	if resp.Header.Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}
}

func TestGenerateInsight_Success(t *testing.T) {
	resultJSON, _ := json.Marshal(domain.AnalysisResult{})
	runRepo := &mockRunRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.AnalysisRun, error) {
			return &domain.AnalysisRun{ID: id, UserID: testUser.ID, ResultJSON: resultJSON}, nil
		},
	}
	deps := makeDeps(func(d *handler.Dependencies) {
		analyses := usecases.NewAnalysisService(d.Datasets, runRepo, nil, nil)
		d.Analyses = analyses
		d.Insights = usecases.NewInsightService(analyses, &mockUsageRepo{}, &mockGenerator{
			generateFn: func(ctx context.Context, result *domain.AnalysisResult, ictx domain.InsightContext) (*domain.Insight, error) {
				return &domain.Insight{Text: "dense cluster around the old town"}, nil
			},
		})
	})
	app := setupApp(deps)

	req := httptest.NewRequest("POST", "/v1/analyses/r1/insights", strings.NewReader(`{"city_name":"Bilbao"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", bearerToken(t))

	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var insight domain.Insight
	json.NewDecoder(resp.Body).Decode(&insight)
	if !strings.Contains(insight.Text, "old town") {
		t.Errorf("unexpected insight text: %q", insight.Text)
	}
}

// ---- Place handler tests ----

func TestCreatePlace_MissingName(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("POST", "/v1/places", strings.NewReader(`{"lat":43.26,"lon":-2.93}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", bearerToken(t))

	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestNearbyPlaces_MissingParams(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/places/nearby", nil)
	req.Header.Set("Authorization", bearerToken(t))

	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestNearbyPlaces_Success(t *testing.T) {
	dist := 42.0
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Places = usecases.NewPlaceService(&mockPlaceRepo{
			nearbyFn: func(ctx context.Context, userID string, lat, lon, radius float64, limit int) ([]domain.Place, error) {
				return []domain.Place{
					{ID: "p1", Name: "Café Iruña", Distance: &dist},
				}, nil
			},
		}, nil)
	})
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/places/nearby?lat=43.26&lon=-2.93&radius=500", nil)
	req.Header.Set("Authorization", bearerToken(t))

	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var places []domain.Place
	json.NewDecoder(resp.Body).Decode(&places)
	if len(places) != 1 {
		t.Fatalf("expected 1 place, got %d", len(places))
	}
	if places[0].Distance == nil || *places[0].Distance != 42 {
		t.Errorf("expected distance 42, got %v", places[0].Distance)
	}
}

// ---- Health handler tests ----

func TestHealth_Returns200(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/health", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	if result["status"] != "healthy" {
		t.Errorf("expected healthy status, got %v", result["status"])
	}
}

func TestReady_NoDB(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/ready", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 503 {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}
}

// ---- Middleware headers ----

func TestAPIVersionHeader(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/health", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	v := resp.Header.Get("X-API-Version")
	if v != "1.0.0" {
		t.Errorf("expected X-API-Version 1.0.0, got %q", v)
	}
}

func TestAnalysisRunCacheControl(t *testing.T) {
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Analyses = usecases.NewAnalysisService(d.Datasets, &mockRunRepo{
			getByIDFn: func(ctx context.Context, id string) (*domain.AnalysisRun, error) {
				return &domain.AnalysisRun{ID: id, UserID: testUser.ID, ParamsJSON: []byte(`{}`), ResultJSON: []byte(`{}`)}, nil
			},
		}, nil, nil)
	})
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/analyses/r1", nil)
	req.Header.Set("Authorization", bearerToken(t))

	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	cc := resp.Header.Get("Cache-Control")
	if cc != "private, max-age=3600" {
		t.Errorf("unexpected Cache-Control: %q", cc)
	}
}

// TestAccessLogMiddleware verifies structured access logging passes requests through.
func TestAccessLogMiddleware(t *testing.T) {
	app := fiber.New()
	app.Use(handler.AccessLogMiddleware())
	app.Get("/test", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true})
	})

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("X-Request-ID", "test-req-123")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "ok") {
		t.Errorf("expected response body to contain 'ok', got %s", string(body))
	}
}
