package jobs

import (
	"context"
	"sync/atomic"
)

// RunGuard не даёт двум запускам одной задачи идти одновременно.
// Пересекающийся запуск получает false и должен сразу выйти.
type RunGuard interface {
	TryAcquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// MemoryGuard: блокировка внутри одного процесса.
// От второго экземпляра сервиса не защищает, для этого есть RedisGuard.
type MemoryGuard struct {
	running atomic.Bool
}

func NewMemoryGuard() *MemoryGuard {
	return &MemoryGuard{}
}

func (g *MemoryGuard) TryAcquire(context.Context) (bool, error) {
	return g.running.CompareAndSwap(false, true), nil
}

func (g *MemoryGuard) Release(context.Context) error {
	g.running.Store(false)
	return nil
}
