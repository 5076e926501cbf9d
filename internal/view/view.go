// Package view 实现各界面的状态调和逻辑（Home、RoomList、History、
// Dashboard 以及房间巡检表单）。每个视图独立拉取自己的数据切片，
// 经 normalize/progress 推导展示状态，并在固定触发点重新拉取：
// 构造后的首次 Refresh、调用方显式 Refresh（窗口重获焦点）、刷新总线
// 信号。筛选条件变化只在已拉取数据上重新推导，绝不触发网络请求。
//
// 每个视图用代数递增的世代号守护所有网络返回后的状态写入：请求发出时
// 记下世代，应答到达时世代已变则丢弃（后发请求可能先回）。
package view

import (
	"context"
	"errors"

	"github.com/jt0826/inspectionapp-sub000/internal/refresh"
)

// ErrReadOnly 巡检已完成，禁止保存
var ErrReadOnly = errors.New("inspection is completed and read-only")

// ErrSaveInFlight 已有一次保存在进行中（提交保护）
var ErrSaveInFlight = errors.New("a save is already in flight")

// Notifier 把结果以瞬态通知的形式交给界面层
type Notifier interface {
	Info(msg string)
	Error(msg string)
}

// Confirmer 破坏性操作前的显式确认
type Confirmer interface {
	Confirm(prompt string) bool
}

// NopNotifier 丢弃所有通知
type NopNotifier struct{}

func (NopNotifier) Info(string)  {}
func (NopNotifier) Error(string) {}

// watchBus 订阅刷新总线并在每次信号时执行 do，直到 ctx 结束
func watchBus(ctx context.Context, bus *refresh.Bus, do func(context.Context)) {
	ch, cancel := bus.Subscribe()
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ch:
			do(ctx)
		}
	}
}
