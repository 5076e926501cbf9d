// Package refresh 提供跨视图的刷新信号总线。
// 任何成功的增删改之后调用 Notify，所有订阅中的视图被唤醒重新拉取。
// 显式注入总线（而不是全局广播事件），让"谁在何时刷新"静态可见、可测试。
package refresh

import "sync"

// Bus 刷新信号总线
// 信号只表示"有东西变了"，不携带载荷；每个订阅者的通道容量为 1，
// 连续的 Notify 会被合并，订阅者最多落后一次刷新
type Bus struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan struct{}
	seq    uint64
}

// NewBus 创建刷新总线
func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan struct{})}
}

// Notify 广播一次刷新信号（非阻塞，慢订阅者不会拖住调用方）
func (b *Bus) Notify() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.seq++
	for _, ch := range b.subs {
		select {
		case ch <- struct{}{}:
		default:
			// 该订阅者已有未消费的信号，合并
		}
	}
}

// Subscribe 订阅刷新信号，返回信号通道和取消函数
// 取消后通道不再收到信号；取消必须被调用以释放订阅
func (b *Bus) Subscribe() (<-chan struct{}, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	ch := make(chan struct{}, 1)
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs, id)
	}
	return ch, cancel
}

// Seq 已广播的信号总数（诊断用）
func (b *Bus) Seq() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.seq
}
