package retry

import (
	"context"
	"time"

	backoff "github.com/cenkalti/backoff/v4"

	"github.com/vm2656/travel-itinerary-generator/internal/upstream"
)

const maxInterval = 24 * time.Hour

// Policy задает бюджет повторов: до MaxRetries попыток после первой,
// ожидание начинается с InitialDelay и удваивается.
type Policy struct {
	MaxRetries   int
	InitialDelay time.Duration
	Retryable    func(error) bool
	Notify       func(err error, wait time.Duration)
	Timer        backoff.Timer
}

// Overload повторяет только при перегрузке внешнего сервиса (аналог HTTP 503).
func Overload(maxRetries int, initialDelay time.Duration) Policy {
	return Policy{
		MaxRetries:   maxRetries,
		InitialDelay: initialDelay,
		Retryable: func(err error) bool {
			return upstream.Is(err, upstream.KindTransientOverload)
		},
	}
}

// RateLimited повторяет только при ответе 429.
func RateLimited(maxRetries int, initialDelay time.Duration) Policy {
	return Policy{
		MaxRetries:   maxRetries,
		InitialDelay: initialDelay,
		Retryable: func(err error) bool {
			return upstream.Is(err, upstream.KindRateLimited)
		},
	}
}

// MaxWait возвращает худшую суммарную задержку D·(2^R − 1).
func (p Policy) MaxWait() time.Duration {
	var total time.Duration
	delay := p.InitialDelay
	for i := 0; i < p.MaxRetries; i++ {
		total += delay
		delay *= 2
	}
	return total
}

// Do выполняет op и повторяет ее, пока ошибка подходит под Retryable и бюджет не исчерпан.
// Неподходящая ошибка возвращается сразу, без задержки. После исчерпания
// возвращается последняя ошибка без изменений.
func Do[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error)) (T, error) {
	var result T

	operation := func() error {
		value, err := op(ctx)
		if err != nil {
			if p.Retryable == nil || !p.Retryable(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		result = value
		return nil
	}

	if err := backoff.RetryNotifyWithTimer(operation, p.backOff(ctx), p.Notify, p.Timer); err != nil {
		var zero T
		return zero, err
	}

	return result, nil
}

func (p Policy) backOff(ctx context.Context) backoff.BackOffContext {
	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = p.InitialDelay
	expo.Multiplier = 2
	expo.RandomizationFactor = 0
	expo.MaxInterval = maxInterval
	expo.MaxElapsedTime = 0
	expo.Reset()

	retries := p.MaxRetries
	if retries < 0 {
		retries = 0
	}

	return backoff.WithContext(backoff.WithMaxRetries(expo, uint64(retries)), ctx)
}
