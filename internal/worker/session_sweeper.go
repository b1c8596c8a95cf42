package worker

import (
	"context"
	"time"

	"tour-booking/pkg/logger"

	"go.uber.org/zap"
)

type idleEvictor interface {
	EvictIdle(idle time.Duration) int
}

// SessionSweeper 定期回收閒置的 wizard session
type SessionSweeper struct {
	wizards  idleEvictor
	idle     time.Duration
	interval time.Duration
	log      *zap.Logger
}

func NewSessionSweeper(wizards idleEvictor, idle time.Duration) *SessionSweeper {
	interval := idle / 2
	if interval < time.Second {
		interval = time.Second
	}
	return &SessionSweeper{
		wizards:  wizards,
		idle:     idle,
		interval: interval,
		log:      logger.WithComponent("worker"),
	}
}

func (s *SessionSweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info("session sweeper started", zap.Duration("interval", s.interval), zap.Duration("idle", s.idle))

	for {
		select {
		case <-ctx.Done():
			s.log.Info("session sweeper stopped")
			return
		case <-ticker.C:
			s.tick()
		}
	}
}

func (s *SessionSweeper) tick() {
	if n := s.wizards.EvictIdle(s.idle); n > 0 {
		s.log.Info("evicted idle wizard sessions", zap.Int("count", n))
	}
}
