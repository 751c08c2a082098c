package services

import (
	"context"
	"time"

	"github.com/in-vento/ubox-pos/utils"
)

// SyncScheduler owns the reconciliation triggers: a fixed-interval timer, the
// explicit "sync now" request, and the network-online event. All triggers
// funnel into one goroutine; a trigger arriving while a pass runs is simply
// the next pass, which the engine tolerates.
type SyncScheduler struct {
	svc      *SyncService
	interval time.Duration
	kick     chan string
	stop     chan struct{}
}

func NewSyncScheduler(svc *SyncService, interval time.Duration) *SyncScheduler {
	return &SyncScheduler{
		svc:      svc,
		interval: interval,
		kick:     make(chan string, 1),
		stop:     make(chan struct{}),
	}
}

func (s *SyncScheduler) Start() {
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.run("timer")
			case reason := <-s.kick:
				s.run(reason)
			case <-s.stop:
				return
			}
		}
	}()
	utils.InfoLogger.Printf("sync scheduler started (interval %s)", s.interval)
}

func (s *SyncScheduler) Stop() {
	close(s.stop)
}

// SyncNow requests an immediate pass. Non-blocking; if a kick is already
// queued the request coalesces into it.
func (s *SyncScheduler) SyncNow() {
	select {
	case s.kick <- "manual":
	default:
	}
}

// NotifyOnline signals that network connectivity was restored.
func (s *SyncScheduler) NotifyOnline() {
	select {
	case s.kick <- "online":
	default:
	}
}

func (s *SyncScheduler) run(reason string) {
	utils.InfoLogger.Printf("sync pass triggered by %s", reason)
	if err := s.svc.RunPass(context.Background()); err != nil {
		utils.ErrorLogger.Printf("sync pass (%s) aborted: %v", reason, err)
	}
}
