package bridge

import (
	"context"
	"sync"
)

// Queue 无界、有序的单生产者/单消费者队列。
// Push 从不阻塞（只受内存限制）；Pop 阻塞直到有元素、队列永久关闭或 ctx 结束。
type Queue[T any] struct {
	mu     sync.Mutex
	items  []T
	closed bool
	ready  chan struct{} // 容量 1，有新元素或关闭时通知消费者
}

// NewQueue 创建空队列
func NewQueue[T any]() *Queue[T] {
	return &Queue[T]{ready: make(chan struct{}, 1)}
}

// Push 追加元素；关闭后的 Push 被忽略并返回 false
func (q *Queue[T]) Push(v T) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	q.items = append(q.items, v)
	q.mu.Unlock()
	q.notify()
	return true
}

// Close 永久关闭队列；已入队的元素仍会被取出
func (q *Queue[T]) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.notify()
}

// Pop 取出队首元素。ok 为 false 表示队列已关闭且为空；err 非空表示 ctx 结束
func (q *Queue[T]) Pop(ctx context.Context) (v T, ok bool, err error) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			v = q.items[0]
			var zero T
			q.items[0] = zero
			q.items = q.items[1:]
			q.mu.Unlock()
			return v, true, nil
		}
		closed := q.closed
		q.mu.Unlock()
		if closed {
			return v, false, nil
		}

		select {
		case <-q.ready:
		case <-ctx.Done():
			return v, false, ctx.Err()
		}
	}
}

// Len 当前积压的元素个数
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *Queue[T]) notify() {
	select {
	case q.ready <- struct{}{}:
	default:
	}
}
