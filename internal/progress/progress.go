// Package progress 从稀疏的条目记录和场馆定义推导展示用的完成度状态。
// 所有函数都是纯函数，房间/条目定义以场馆为权威：服务端没有返回的条目
// 一律按隐式 pending 计入，而不是从计数里消失。
package progress

import (
	"strings"

	"github.com/jt0826/inspectionapp-sub000/internal/models"
)

// ExpectedTotals 计算尚未评估任何条目时的乐观种子计数
// pending == total == 场馆全部检查项数量
func ExpectedTotals(venue models.Venue) models.StatusCounts {
	total := venue.ItemCount()
	return models.StatusCounts{Pending: total, Total: total}
}

// CountByRoom 为场馆定义的每个房间计算状态计数
// 服务端未报告任何条目的房间也会得到 pending == total 的条目
// 无法匹配到任何定义房间的服务端条目被忽略（不乱归属）
func CountByRoom(items []models.InspectionItem, venue models.Venue) map[string]models.StatusCounts {
	out := make(map[string]models.StatusCounts, len(venue.Rooms))
	assessed := make(map[string]*models.StatusCounts, len(venue.Rooms))
	for _, room := range venue.Rooms {
		out[room.ID] = models.StatusCounts{}
		assessed[room.ID] = &models.StatusCounts{}
	}

	for _, it := range items {
		roomID, ok := MatchRoom(it.RoomID, venue.Rooms)
		if !ok {
			continue
		}
		c := assessed[roomID]
		switch it.Status {
		case models.StatusPass:
			c.Pass++
		case models.StatusFail:
			c.Fail++
		case models.StatusNA:
			c.NA++
		}
	}

	for _, room := range venue.Rooms {
		c := assessed[room.ID]
		done := c.Pass + c.Fail + c.NA
		pending := len(room.Items) - done
		if pending < 0 {
			// 报告条目多于定义（不应发生），以报告为准避免负数
			pending = 0
		}
		out[room.ID] = models.StatusCounts{
			Pass:    c.Pass,
			Fail:    c.Fail,
			NA:      c.NA,
			Pending: pending,
			Total:   done + pending,
		}
	}
	return out
}

// Totals 把按房间的计数聚合为整单计数
func Totals(byRoom map[string]models.StatusCounts) models.StatusCounts {
	var t models.StatusCounts
	for _, c := range byRoom {
		t.Pass += c.Pass
		t.Fail += c.Fail
		t.NA += c.NA
		t.Pending += c.Pending
		t.Total += c.Total
	}
	return t
}

// RoomInspected 房间是否算"已巡检"
// 规则：total > 0 且 pass == total。一个 fail 或 na 都会让房间保持未完成
// （这是产品层面的既定策略，不是 bug）
func RoomInspected(counts models.StatusCounts) bool {
	return counts.Total > 0 && counts.Pass == counts.Total
}

// InspectionComplete 巡检整体是否完成（只用于已渲染数据的只读判定，
// 绝不用于把状态置为 completed —— 那是服务端的权威）
func InspectionComplete(ins models.Inspection) bool {
	if ins.Status == models.InspectionCompleted {
		return true
	}
	if len(ins.Items) == 0 {
		return false
	}
	for _, it := range ins.Items {
		if it.Status != models.StatusPass {
			return false
		}
	}
	return true
}

// Percent 进度百分比：(已评估数)/total*100，total 为 0 时返回 0
func Percent(counts models.StatusCounts) float64 {
	if counts.Total == 0 {
		return 0
	}
	return float64(counts.Total-counts.Pending) / float64(counts.Total) * 100
}

// 房间 id 匹配时剥离的常见前缀
var roomIDPrefixes = []string{"room_", "room-", "r_", "r-"}

func stripRoomPrefix(id string) string {
	for _, p := range roomIDPrefixes {
		if strings.HasPrefix(id, p) {
			return strings.TrimPrefix(id, p)
		}
	}
	return id
}

// MatchRoom 把服务端上报的房间 id 匹配到场馆定义的房间 id
// 匹配顺序（第一个命中即返回，按场馆房间定义顺序尝试）：
//  1. 完全相等
//  2. 后缀匹配（任一方向）
//  3. 剥离 room_/room-/r_/r- 前缀后的包含匹配（任一方向）
//
// 匹配不到返回 ok=false，调用方应忽略该条记录
func MatchRoom(serverID string, rooms []models.Room) (string, bool) {
	if serverID == "" {
		return "", false
	}
	for _, r := range rooms {
		if r.ID == serverID {
			return r.ID, true
		}
	}
	for _, r := range rooms {
		if r.ID == "" {
			continue
		}
		if strings.HasSuffix(serverID, r.ID) || strings.HasSuffix(r.ID, serverID) {
			return r.ID, true
		}
	}
	stripped := stripRoomPrefix(serverID)
	if stripped == "" {
		return "", false
	}
	for _, r := range rooms {
		candidate := stripRoomPrefix(r.ID)
		if candidate == "" {
			continue
		}
		if strings.Contains(candidate, stripped) || strings.Contains(stripped, candidate) {
			return r.ID, true
		}
	}
	return "", false
}

// MergeSummaryByRoom 把服务端汇总里按（可能是另一套 id 体系的）房间 id
// 的计数并入场馆定义的房间 id。匹配不到的服务端房间被丢弃；
// 汇总里没出现的定义房间得到 pending == total 的种子计数
func MergeSummaryByRoom(serverByRoom map[string]models.StatusCounts, venue models.Venue) map[string]models.StatusCounts {
	out := make(map[string]models.StatusCounts, len(venue.Rooms))
	for _, room := range venue.Rooms {
		out[room.ID] = models.StatusCounts{
			Pending: len(room.Items),
			Total:   len(room.Items),
		}
	}
	for serverID, counts := range serverByRoom {
		roomID, ok := MatchRoom(serverID, venue.Rooms)
		if !ok {
			continue
		}
		out[roomID] = counts
	}
	return out
}
