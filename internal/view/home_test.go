package view

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jt0826/inspectionapp-sub000/internal/models"
	"github.com/jt0826/inspectionapp-sub000/internal/refresh"
)

type fakeHomeBackend struct {
	completed []models.Inspection
	ongoing   []models.Inspection
	listErr   error
	createErr error

	created []models.Inspection

	// 每次 ListInspections 前调用，用于在途中插入并发操作
	beforeList func()
}

func (f *fakeHomeBackend) ListInspections(_ context.Context, _ int) ([]models.Inspection, []models.Inspection, error) {
	if f.beforeList != nil {
		f.beforeList()
	}
	if f.listErr != nil {
		return nil, nil, f.listErr
	}
	return f.completed, f.ongoing, nil
}

func (f *fakeHomeBackend) CreateInspection(_ context.Context, ins models.Inspection) (models.Inspection, error) {
	if f.createErr != nil {
		return models.Inspection{}, f.createErr
	}
	f.created = append(f.created, ins)
	return ins, nil
}

func testVenue() models.Venue {
	return models.Venue{
		ID:   "venue_01",
		Name: "Main Hall",
		Rooms: []models.Room{
			{ID: "room_kitchen", Name: "Kitchen", Items: []models.ItemDefinition{
				{ID: "item_fire_01", Name: "Fire extinguisher"},
				{ID: "item_sink_02", Name: "Sink drainage"},
			}},
			{ID: "room_lobby", Name: "Lobby", Items: []models.ItemDefinition{
				{ID: "item_exit_03", Name: "Exit signage"},
			}},
		},
	}
}

func TestHomeRefresh(t *testing.T) {
	backend := &fakeHomeBackend{
		completed: []models.Inspection{{ID: "inspection_done01", Status: models.InspectionCompleted}},
		ongoing:   []models.Inspection{{ID: "inspection_live01", Status: models.InspectionInProgress}},
	}
	v := NewHomeView(backend, refresh.NewBus(), &fakeNotifier{}, zap.NewNop(), 6)

	require.NoError(t, v.Refresh(context.Background()))
	completed, ongoing := v.Snapshot()
	require.Len(t, completed, 1)
	require.Len(t, ongoing, 1)
}

func TestHomeStartInspectionBuildsItemSnapshot(t *testing.T) {
	backend := &fakeHomeBackend{}
	bus := refresh.NewBus()
	v := NewHomeView(backend, bus, &fakeNotifier{}, zap.NewNop(), 6)

	before := bus.Seq()
	ins, err := v.StartInspection(context.Background(), testVenue(), "alice@example.com")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(ins.ID, "inspection_"))
	assert.Equal(t, models.InspectionInProgress, ins.Status)
	require.Len(t, ins.Items, 3)
	for _, item := range ins.Items {
		assert.Equal(t, models.StatusPending, item.Status)
		assert.NotEmpty(t, item.RoomID)
	}
	assert.Greater(t, bus.Seq(), before, "a successful create must fire the refresh signal")

	// 列表拉取尚未包含新巡检前，乐观条目保留在进行中列表里
	_, ongoing := v.Snapshot()
	require.Len(t, ongoing, 1)
	assert.Equal(t, ins.ID, ongoing[0].ID)
}

func TestHomeStartInspectionRollsBackOnFailure(t *testing.T) {
	backend := &fakeHomeBackend{createErr: errors.New("server rejected")}
	notifier := &fakeNotifier{}
	v := NewHomeView(backend, refresh.NewBus(), notifier, zap.NewNop(), 6)

	_, err := v.StartInspection(context.Background(), testVenue(), "alice@example.com")
	require.Error(t, err)

	_, ongoing := v.Snapshot()
	assert.Empty(t, ongoing)
	assert.Equal(t, 1, notifier.errorCount())
}

func TestHomeRefreshConfirmsOptimisticEntry(t *testing.T) {
	backend := &fakeHomeBackend{}
	v := NewHomeView(backend, refresh.NewBus(), &fakeNotifier{}, zap.NewNop(), 6)

	ins, err := v.StartInspection(context.Background(), testVenue(), "alice@example.com")
	require.NoError(t, err)

	// 列表拉取包含该巡检后，乐观条目被确认而不是重复出现
	backend.ongoing = []models.Inspection{{ID: ins.ID, Status: models.InspectionInProgress}}
	require.NoError(t, v.Refresh(context.Background()))

	_, ongoing := v.Snapshot()
	require.Len(t, ongoing, 1)
}

func TestHomeRefreshKeepsStateOnFetchFailure(t *testing.T) {
	backend := &fakeHomeBackend{
		ongoing: []models.Inspection{{ID: "inspection_live01"}},
	}
	notifier := &fakeNotifier{}
	v := NewHomeView(backend, refresh.NewBus(), notifier, zap.NewNop(), 6)
	require.NoError(t, v.Refresh(context.Background()))

	backend.listErr = errors.New("network down")
	require.Error(t, v.Refresh(context.Background()))

	_, ongoing := v.Snapshot()
	require.Len(t, ongoing, 1, "failed fetch must not blank the view")
	assert.Equal(t, 1, notifier.errorCount())
}

func TestHomeStaleResponseDiscarded(t *testing.T) {
	// 老请求在途时又发了一次新请求：老应答到达后必须被丢弃
	backend := &fakeHomeBackend{
		ongoing: []models.Inspection{{ID: "inspection_old001"}},
	}
	v := NewHomeView(backend, refresh.NewBus(), &fakeNotifier{}, zap.NewNop(), 6)

	first := true
	backend.beforeList = func() {
		if first {
			first = false
			// 模拟后发先至：在老请求返回前完成一次新的刷新
			backend.beforeList = nil
			backend.ongoing = []models.Inspection{{ID: "inspection_new002"}}
			require.NoError(t, v.Refresh(context.Background()))
			backend.ongoing = []models.Inspection{{ID: "inspection_old001"}}
		}
	}

	require.NoError(t, v.Refresh(context.Background()))
	_, ongoing := v.Snapshot()
	require.Len(t, ongoing, 1)
	assert.Equal(t, "inspection_new002", ongoing[0].ID, "the later-issued refresh must win")
}
