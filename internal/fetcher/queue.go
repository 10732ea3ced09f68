package fetcher

import (
	"context"
	"errors"
	"sync"
	"time"
)

const (
	DefaultMinInterval = 100 * time.Millisecond
	queueCapacity      = 256
)

var ErrQueueClosed = errors.New("request queue closed")

type queued struct {
	ctx    context.Context
	task   func(ctx context.Context)
	result chan error
}

// Queue выполняет задачи строго по одной в порядке поступления и выдерживает
// минимальный интервал между запусками.
type Queue struct {
	minInterval time.Duration
	tasks       chan queued
	done        chan struct{}
	wg          sync.WaitGroup
	once        sync.Once

	// last читается и пишется только рабочей горутиной.
	last time.Time

	mu         sync.Mutex
	dispatches []time.Time
}

// NewQueue запускает рабочую горутину очереди.
func NewQueue(minInterval time.Duration) *Queue {
	if minInterval <= 0 {
		minInterval = DefaultMinInterval
	}

	q := &Queue{
		minInterval: minInterval,
		tasks:       make(chan queued, queueCapacity),
		done:        make(chan struct{}),
	}

	q.wg.Add(1)
	go q.run()

	return q
}

func (q *Queue) run() {
	defer q.wg.Done()

	for {
		select {
		case <-q.done:
			return
		case item := <-q.tasks:
			q.dispatch(item)
		}
	}
}

func (q *Queue) dispatch(item queued) {
	if err := item.ctx.Err(); err != nil {
		item.result <- err
		return
	}
	if err := q.waitTurn(item.ctx); err != nil {
		item.result <- err
		return
	}

	now := time.Now()
	q.last = now

	q.mu.Lock()
	q.dispatches = append(q.dispatches, now)
	q.mu.Unlock()

	item.task(item.ctx)
	item.result <- nil
}

// waitTurn ждет, пока с фактического предыдущего запуска пройдет minInterval.
func (q *Queue) waitTurn(ctx context.Context) error {
	if q.last.IsZero() {
		return nil
	}

	for {
		wait := q.minInterval - time.Since(q.last)
		if wait <= 0 {
			return nil
		}

		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-q.done:
			timer.Stop()
			return ErrQueueClosed
		}
	}
}

// Submit ставит задачу в конец очереди и сразу возвращает канал результата.
func (q *Queue) Submit(ctx context.Context, task func(ctx context.Context)) <-chan error {
	result := make(chan error, 1)

	select {
	case <-q.done:
		result <- ErrQueueClosed
		return result
	default:
	}

	select {
	case q.tasks <- queued{ctx: ctx, task: task, result: result}:
	case <-ctx.Done():
		result <- ctx.Err()
	case <-q.done:
		result <- ErrQueueClosed
	}

	return result
}

// Enqueue ставит задачу в очередь и ждет ее выполнения.
func (q *Queue) Enqueue(ctx context.Context, task func(ctx context.Context)) error {
	result := q.Submit(ctx, task)

	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-q.done:
		return ErrQueueClosed
	}
}

// Dispatches возвращает моменты запуска задач.
func (q *Queue) Dispatches() []time.Time {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]time.Time, len(q.dispatches))
	copy(out, q.dispatches)
	return out
}

// Close останавливает рабочую горутину. Повторный вызов безопасен.
func (q *Queue) Close() {
	q.once.Do(func() {
		close(q.done)
	})
	q.wg.Wait()
}
