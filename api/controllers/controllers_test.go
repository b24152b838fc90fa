/*
 * @module api/controllers/controllers_test
 * @description 控制器单元测试，覆盖数据集、分析、历史与健康检查API
 * @architecture 测试层
 * @documentReference dev_docs/requirements.md
 * @stateFlow 测试准备 -> 请求构建 -> 响应验证
 * @rules 控制器直接注入测试依赖，不经过全局服务装配
 * @dependencies testing, net/http/httptest, stretchr/testify
 * @refs dataset_controller.go, analysis_controller.go, history_controller.go
 */

package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"milkmonitor-service/service/analysis"
	"milkmonitor-service/service/models"
	"milkmonitor-service/service/processor"
	"milkmonitor-service/testutil"
)

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var response APIResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	return response
}

func sampleDataFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "melkdata.txt")
	content := testutil.SampleFile(
		testutil.SampleRow(1, "08-01-2024", "06:00:00", "OK", 500),
		testutil.SampleRow(1, "08-01-2024", "18:00:00", "OK", 700),
		testutil.SampleRow(2, "09-01-2024", "07:30:00", "!", 600),
	)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// ===================== 健康检查测试 =====================

func TestHealth(t *testing.T) {
	controller := NewHealthController()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	controller.Health(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response HealthResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, "ok", response.Status)
	assert.Equal(t, "milkmonitor-service", response.Service)
}

// ===================== 数据集控制器测试 =====================

func TestDatasetLoad(t *testing.T) {
	controller := &DatasetController{processor: processor.NewDataProcessor(nil)}
	body := `{"file_path": "` + strings.ReplaceAll(sampleDataFile(t), `\`, `\\`) + `"}`

	req := httptest.NewRequest(http.MethodPost, "/datasets/load", strings.NewReader(body))
	w := httptest.NewRecorder()
	controller.Load(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	response := decodeResponse(t, w)
	assert.Equal(t, 0, response.Status)
	data, ok := response.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(3), data["row_count"])
	assert.Equal(t, float64(2), data["subject_count"])
	assert.Equal(t, "2024-01-08", data["start_date"])
	assert.Equal(t, "2024-01-09", data["end_date"])
}

func TestDatasetLoadMissingPath(t *testing.T) {
	controller := &DatasetController{processor: processor.NewDataProcessor(nil)}

	req := httptest.NewRequest(http.MethodPost, "/datasets/load", strings.NewReader(`{}`))
	w := httptest.NewRecorder()
	controller.Load(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDatasetLoadBadFile(t *testing.T) {
	controller := &DatasetController{processor: processor.NewDataProcessor(nil)}
	path := filepath.Join(t.TempDir(), "bad.txt")
	require.NoError(t, os.WriteFile(path,
		[]byte("header\n1,NL1,not-a-date,06:00:00,OK,500,1,2,100\n"), 0o644))

	body := `{"file_path": "` + strings.ReplaceAll(path, `\`, `\\`) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/datasets/load", strings.NewReader(body))
	w := httptest.NewRecorder()
	controller.Load(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	response := decodeResponse(t, w)
	// 错误信息带行号上下文
	assert.Contains(t, response.Msg, "第2行")
}

func TestDatasetCurrentWithoutData(t *testing.T) {
	controller := &DatasetController{processor: processor.NewDataProcessor(nil)}

	req := httptest.NewRequest(http.MethodGet, "/datasets/current", nil)
	w := httptest.NewRecorder()
	controller.Current(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDatasetSubjectsAndWeeks(t *testing.T) {
	proc := processor.NewDataProcessor(nil)
	_, err := proc.Load(sampleDataFile(t))
	require.NoError(t, err)
	controller := &DatasetController{processor: proc}

	w := httptest.NewRecorder()
	controller.Subjects(w, httptest.NewRequest(http.MethodGet, "/datasets/subjects", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	response := decodeResponse(t, w)
	assert.Equal(t, []interface{}{float64(1), float64(2)}, response.Data)

	w = httptest.NewRecorder()
	controller.Weeks(w, httptest.NewRequest(http.MethodGet, "/datasets/weeks", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	response = decodeResponse(t, w)
	assert.Equal(t, []interface{}{"2024-02"}, response.Data)
}

// ===================== 分析控制器测试 =====================

func TestAnalysisUpdateWithoutDataset(t *testing.T) {
	svc := analysis.NewAnalysisService(nil, processor.NewDataProcessor(nil), nil)
	defer svc.Stop()
	controller := &AnalysisController{analysisService: svc}

	req := httptest.NewRequest(http.MethodPost, "/analysis/update", strings.NewReader(`{}`))
	w := httptest.NewRecorder()
	controller.Update(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAnalysisUpdateInvalidSubject(t *testing.T) {
	proc := processor.NewDataProcessor(nil)
	_, err := proc.Load(sampleDataFile(t))
	require.NoError(t, err)
	svc := analysis.NewAnalysisService(nil, proc, nil)
	defer svc.Stop()
	controller := &AnalysisController{analysisService: svc}

	req := httptest.NewRequest(http.MethodPost, "/analysis/update",
		strings.NewReader(`{"subject_selector": "abc"}`))
	w := httptest.NewRecorder()
	controller.Update(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAnalysisStatusAndViews(t *testing.T) {
	svc := analysis.NewAnalysisService(nil, processor.NewDataProcessor(nil), nil)
	defer svc.Stop()
	controller := &AnalysisController{analysisService: svc}

	w := httptest.NewRecorder()
	controller.Status(w, httptest.NewRequest(http.MethodGet, "/analysis/status", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	response := decodeResponse(t, w)
	data, ok := response.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "idle", data["state"])

	w = httptest.NewRecorder()
	controller.Views(w, httptest.NewRequest(http.MethodGet, "/analysis/views", nil))
	response = decodeResponse(t, w)
	views, ok := response.Data.([]interface{})
	require.True(t, ok)
	assert.Len(t, views, len(models.ViewOrder))
}

func TestAnalysisResultNotFound(t *testing.T) {
	svc := analysis.NewAnalysisService(nil, processor.NewDataProcessor(nil), nil)
	defer svc.Stop()
	controller := &AnalysisController{analysisService: svc}

	router := chi.NewRouter()
	router.Get("/analysis/results/{view}", controller.Result)

	req := httptest.NewRequest(http.MethodGet, "/analysis/results/daily_trend", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

// ===================== 历史控制器测试 =====================

func TestHistoryLoadsPagination(t *testing.T) {
	tdb := testutil.NewTestDB()
	defer tdb.Close()
	for i := 0; i < 15; i++ {
		require.NoError(t, tdb.DB.Create(&models.LoadRecord{
			FileName: "melkdata.txt", Status: "success",
		}).Error)
	}
	controller := &HistoryController{db: tdb.DB}

	req := httptest.NewRequest(http.MethodGet, "/history/loads?page=2&size=10", nil)
	w := httptest.NewRecorder()
	controller.Loads(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var response PaginatedResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, int64(15), response.Total)
	assert.Equal(t, 2, response.Page)
	records, ok := response.Data.([]interface{})
	require.True(t, ok)
	assert.Len(t, records, 5)
}

func TestHistoryGenerationsEmpty(t *testing.T) {
	tdb := testutil.NewTestDB()
	defer tdb.Close()
	controller := &HistoryController{db: tdb.DB}

	req := httptest.NewRequest(http.MethodGet, "/history/generations", nil)
	w := httptest.NewRecorder()
	controller.Generations(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var response PaginatedResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, int64(0), response.Total)
}
