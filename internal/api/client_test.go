package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jt0826/inspectionapp-sub000/internal/config"
	"github.com/jt0826/inspectionapp-sub000/internal/models"
)

// newTestClient 把所有端点指向同一个假 Lambda 服务
func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		API: config.APIConfig{
			VenuesURL:           srv.URL,
			InspectionsURL:      srv.URL,
			CreateInspectionURL: srv.URL,
			DeleteInspectionURL: srv.URL,
			SignUploadURL:       srv.URL,
			RegisterImageURL:    srv.URL,
			ListImagesURL:       srv.URL,
			DeleteImageDBURL:    srv.URL,
			DeleteS3URL:         srv.URL,
			DashboardURL:        srv.URL,
		},
		HTTP: config.HTTPConfig{Timeout: 5 * time.Second},
	}
	return NewClient(cfg, zap.NewNop()), srv
}

func TestUnwrapEnvelope(t *testing.T) {
	t.Run("plain JSON passes through", func(t *testing.T) {
		payload, status, err := unwrapEnvelope([]byte(`{"items":[]}`))
		require.NoError(t, err)
		assert.Equal(t, 0, status)
		assert.JSONEq(t, `{"items":[]}`, string(payload))
	})

	t.Run("envelope with object body", func(t *testing.T) {
		payload, status, err := unwrapEnvelope([]byte(`{"statusCode":200,"body":{"written":3}}`))
		require.NoError(t, err)
		assert.Equal(t, 200, status)
		assert.JSONEq(t, `{"written":3}`, string(payload))
	})

	t.Run("envelope with string-encoded body", func(t *testing.T) {
		payload, status, err := unwrapEnvelope([]byte(`{"statusCode":200,"body":"{\"written\":3}"}`))
		require.NoError(t, err)
		assert.Equal(t, 200, status)
		assert.JSONEq(t, `{"written":3}`, string(payload))
	})

	t.Run("envelope with empty body", func(t *testing.T) {
		payload, status, err := unwrapEnvelope([]byte(`{"statusCode":204}`))
		require.NoError(t, err)
		assert.Equal(t, 204, status)
		assert.JSONEq(t, `{}`, string(payload))
	})
}

func TestPostJSONEnvelopeStatusOverridesTransport(t *testing.T) {
	// 代理层总是回 200，真实状态在信封里
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"statusCode":404,"body":"{\"message\":\"inspection not found\"}"}`))
	})

	_, err := client.GetInspection(context.Background(), "inspection_x1y2z3", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostJSONServerError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"message":"boom"}`))
	})

	err := client.DeleteInspection(context.Background(), "inspection_x1y2z3", false)
	require.Error(t, err)
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusInternalServerError, statusErr.Code)
	assert.Equal(t, "boom", statusErr.Message)
}

func TestListInspectionsPartitionedShape(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"completed": [{"inspection_id":"inspection_done01","status":"completed"}],
			"ongoing":   [{"inspectionId":"inspection_live01","status":"in-progress"}]
		}`))
	})

	completed, ongoing, err := client.ListInspections(context.Background(), 6)
	require.NoError(t, err)
	require.Len(t, completed, 1)
	require.Len(t, ongoing, 1)
	assert.Equal(t, "inspection_done01", completed[0].ID)
	assert.Equal(t, "inspection_live01", ongoing[0].ID)
}

func TestListInspectionsFlatShapePartitionsByStatus(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "list_inspections", body["action"])
		_, _ = w.Write([]byte(`{"inspections": [
			{"id":"inspection_aaa111","status":"completed"},
			{"id":"inspection_bbb222","status":"in-progress"},
			{"id":"inspection_ccc333"}
		]}`))
	})

	completed, ongoing, err := client.ListInspections(context.Background(), -1)
	require.NoError(t, err)
	require.Len(t, completed, 1)
	// 缺失 status 视为 in-progress
	require.Len(t, ongoing, 2)
	assert.Equal(t, "inspection_aaa111", completed[0].ID)
}

func TestGetInspectionFiltersMetaRows(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"items": [
			{"sk":"__meta__","status":"completed","totals":{"pass":1}},
			{"itemId":"item_fire_01","itemName":"Fire extinguisher","status":"pass"},
			{"ItemId":"item_exit_02","comments":"blocked","status":"fail"}
		]}`))
	})

	items, err := client.GetInspection(context.Background(), "inspection_x1y2z3", "")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "item_fire_01", items[0].ID)
	assert.Equal(t, "item_exit_02", items[1].ID)
	assert.Equal(t, "blocked", items[1].Notes)
}

func TestGetInspectionSummaryNoSummary(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"inspection_id":"inspection_x1y2z3"}`))
	})

	_, err := client.GetInspectionSummary(context.Background(), "inspection_x1y2z3")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoSummary)
}

func TestSaveInspectionDecodesResult(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"written": 4,
			"complete": {"complete": true, "total_expected": 4, "completed_count": 4},
			"inspectionData": {"inspection_id":"inspection_x1y2z3","status":"completed","completedAt":"2026-08-29T10:00:00Z"}
		}`))
	})

	result, err := client.SaveInspection(context.Background(), models.Inspection{ID: "inspection_x1y2z3"})
	require.NoError(t, err)
	assert.Equal(t, 4, result.Written)
	require.NotNil(t, result.Complete)
	assert.True(t, result.Complete.Complete)
	require.NotNil(t, result.Inspection)
	assert.Equal(t, models.InspectionCompleted, result.Inspection.Status)
}

func TestCreateInspectionRejectsBadID(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for an invalid id")
	})

	_, err := client.CreateInspection(context.Background(), models.Inspection{ID: "venue_123456"})
	require.Error(t, err)
}

func TestValidateID(t *testing.T) {
	assert.NoError(t, ValidateID("inspection_abc123", "inspection"))
	assert.NoError(t, ValidateID("inspection-abc123", "inspection"))
	assert.NoError(t, ValidateID("photo_0c9e1d", "photo"))

	assert.Error(t, ValidateID("", "inspection"))
	assert.Error(t, ValidateID("inspection_a b c", "inspection"))
	assert.Error(t, ValidateID("ins_1", "inspection"))
	assert.Error(t, ValidateID("photo_123456", "inspection"))
}

func TestSignUploadRejectsOversizedFile(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("oversized file must be rejected before the network call")
	})

	_, err := client.SignUpload(context.Background(), SignUploadRequest{
		InspectionID: "inspection_x1y2z3",
		Filename:     "huge.jpg",
		FileSize:     MaxUploadBytes + 1,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFileTooLarge)
}

func TestUploadObjectPresignedPut(t *testing.T) {
	var gotMethod, gotContentType string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	err := client.UploadObject(context.Background(),
		SignUploadResult{UploadURL: srv.URL},
		"image/jpeg", "door.jpg", []byte("jpegbytes"))
	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "image/jpeg", gotContentType)
	assert.Equal(t, []byte("jpegbytes"), gotBody)
}

func TestListImages(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, true, body["signed"])
		_, _ = w.Write([]byte(`{"images": [
			{"imageId":"photo_aaa111","filename":"door.jpg","preview":"https://signed.example/door.jpg"}
		]}`))
	})

	photos, err := client.ListImages(context.Background(), "inspection_x1y2z3", "", true)
	require.NoError(t, err)
	require.Len(t, photos, 1)
	assert.Equal(t, "photo_aaa111", photos[0].ImageID)
	assert.Equal(t, "https://signed.example/door.jpg", photos[0].Preview)
}

func TestGetDashboard(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "get_dashboard", body["action"])
		assert.Equal(t, float64(30), body["days"])
		_, _ = w.Write([]byte(`{"statusCode":200,"body":{
			"metrics": {"totalInspections": 12, "ongoing": 3, "completed": 9, "failRate": 4.2},
			"recentCompleted": [0,1,0,2,0,0,1],
			"completionTrend30d": [0,0,2,1]
		}}`))
	})

	dash, err := client.GetDashboard(context.Background(), 30)
	require.NoError(t, err)
	assert.Equal(t, 12, dash.Metrics.TotalInspections)
	require.NotNil(t, dash.Metrics.FailRate)
	assert.InDelta(t, 4.2, *dash.Metrics.FailRate, 0.001)
	assert.Equal(t, []int{0, 1, 0, 2, 0, 0, 1}, dash.RecentCompleted)
	require.Len(t, dash.CompletionTrend30d, 4)
}
