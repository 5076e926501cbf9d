package view

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jt0826/inspectionapp-sub000/internal/api"
	"github.com/jt0826/inspectionapp-sub000/internal/models"
	"github.com/jt0826/inspectionapp-sub000/internal/refresh"
)

type fakeRoomListBackend struct {
	items      []models.InspectionItem
	itemsErr   error
	summary    models.Summary
	summaryErr error
}

func (f *fakeRoomListBackend) GetInspection(_ context.Context, _, _ string) ([]models.InspectionItem, error) {
	return f.items, f.itemsErr
}

func (f *fakeRoomListBackend) GetInspectionSummary(_ context.Context, _ string) (models.Summary, error) {
	return f.summary, f.summaryErr
}

func newRoomListView(backend *fakeRoomListBackend, notifier Notifier) *RoomListView {
	return NewRoomListView(backend, refresh.NewBus(), notifier, zap.NewNop(), "inspection_x1y2z3", testVenue())
}

func TestRoomListSeededWithExpectedTotals(t *testing.T) {
	v := newRoomListView(&fakeRoomListBackend{}, &fakeNotifier{})

	// 首屏（未拉取）就有完整的期望计数，不闪空
	totals := v.Totals()
	assert.Equal(t, 3, totals.Total)
	assert.Equal(t, 3, totals.Pending)

	rooms := v.Rooms()
	require.Len(t, rooms, 2)
	assert.Equal(t, "room_kitchen", rooms[0].Room.ID)
	assert.Equal(t, 2, rooms[0].Counts.Pending)
	assert.False(t, rooms[0].Inspected)
}

func TestRoomListRecomputesFromItems(t *testing.T) {
	backend := &fakeRoomListBackend{
		items: []models.InspectionItem{
			{ID: "item_fire_01", RoomID: "room_kitchen", Status: models.StatusPass},
			{ID: "item_sink_02", RoomID: "room_kitchen", Status: models.StatusPass},
			{ID: "item_exit_03", RoomID: "room_lobby", Status: models.StatusFail},
		},
		summaryErr: fmt.Errorf("summary: %w", api.ErrNoSummary),
	}
	v := newRoomListView(backend, &fakeNotifier{})
	require.NoError(t, v.Refresh(context.Background()))

	rooms := v.Rooms()
	require.Len(t, rooms, 2)
	assert.True(t, rooms[0].Inspected, "all-pass kitchen counts as inspected")
	assert.False(t, rooms[1].Inspected, "a fail keeps the lobby not inspected")
	assert.InDelta(t, 100.0, rooms[0].Percent, 0.001)

	totals := v.Totals()
	assert.Equal(t, 2, totals.Pass)
	assert.Equal(t, 1, totals.Fail)
	assert.Equal(t, 0, totals.Pending)
	assert.False(t, v.Placeholder())
}

func TestRoomListFallsBackToSummary(t *testing.T) {
	backend := &fakeRoomListBackend{
		itemsErr: errors.New("network down"),
		summary: models.Summary{
			Totals: &models.StatusCounts{Pass: 2, Pending: 1, Total: 3},
			ByRoom: map[string]models.StatusCounts{
				"room_kitchen": {Pass: 2, Total: 2},
			},
		},
	}
	v := newRoomListView(backend, &fakeNotifier{})
	require.NoError(t, v.Refresh(context.Background()))

	totals := v.Totals()
	assert.Equal(t, 2, totals.Pass)

	rooms := v.Rooms()
	assert.True(t, rooms[0].Inspected)
	// 汇总里没有的房间仍有条目，保持期望计数
	assert.Equal(t, 1, rooms[1].Counts.Pending)
}

func TestRoomListPlaceholderOnExplicitNoSummary(t *testing.T) {
	backend := &fakeRoomListBackend{
		itemsErr:   errors.New("network down"),
		summaryErr: fmt.Errorf("get_inspection_summary: %w", api.ErrNoSummary),
	}
	v := newRoomListView(backend, &fakeNotifier{})
	require.NoError(t, v.Refresh(context.Background()))

	// 明确"无汇总"：占位而不是陈旧计数
	assert.True(t, v.Placeholder())
	assert.Equal(t, models.StatusCounts{}, v.Totals())
}

func TestRoomListKeepsLastKnownOnTotalFailure(t *testing.T) {
	backend := &fakeRoomListBackend{
		items: []models.InspectionItem{
			{ID: "item_fire_01", RoomID: "room_kitchen", Status: models.StatusPass},
		},
		summaryErr: fmt.Errorf("summary: %w", api.ErrNoSummary),
	}
	notifier := &fakeNotifier{}
	v := newRoomListView(backend, notifier)
	require.NoError(t, v.Refresh(context.Background()))
	before := v.Totals()

	backend.itemsErr = errors.New("network down")
	backend.summaryErr = errors.New("network down")
	require.Error(t, v.Refresh(context.Background()))

	assert.Equal(t, before, v.Totals(), "network failure keeps last known state")
	assert.False(t, v.Placeholder())
	assert.Equal(t, 1, notifier.errorCount())
}
