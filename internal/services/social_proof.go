package services

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"
)

const (
	DefaultSocialProofInterval = 5 * time.Second

	socialProofStartUsers      = 1000
	socialProofMaxUsers        = 1_000_000
	socialProofMaxUserStep     = 4
	socialProofStartHoursTenth = 200
	socialProofMaxHoursTenth   = 1680
)

type SocialProofSnapshot struct {
	Users      int     `json:"users"`
	HoursSaved float64 `json:"hoursSaved"`
}

// SocialProofCounter drives the landing page counters. Hours are kept in
// tenths so repeated ticks do not accumulate float error.
type SocialProofCounter struct {
	mu          sync.Mutex
	users       int
	hoursTenths int
	interval    time.Duration
	userStep    func() int

	cancel context.CancelFunc
	done   chan struct{}
}

func NewSocialProofCounter(interval time.Duration) *SocialProofCounter {
	if interval <= 0 {
		interval = DefaultSocialProofInterval
	}
	return &SocialProofCounter{
		users:       socialProofStartUsers,
		hoursTenths: socialProofStartHoursTenth,
		interval:    interval,
		userStep: func() int {
			return rand.IntN(socialProofMaxUserStep + 1)
		},
	}
}

func (counter *SocialProofCounter) Snapshot() SocialProofSnapshot {
	counter.mu.Lock()
	defer counter.mu.Unlock()
	return SocialProofSnapshot{
		Users:      counter.users,
		HoursSaved: float64(counter.hoursTenths) / 10,
	}
}

// Start launches the ticker goroutine. Calling Start on a running counter is a no-op.
func (counter *SocialProofCounter) Start(ctx context.Context) {
	counter.mu.Lock()
	defer counter.mu.Unlock()
	if counter.done != nil {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	counter.cancel = cancel
	counter.done = make(chan struct{})
	go counter.run(runCtx, counter.done)
}

// Stop halts the ticker and waits for its goroutine to exit.
func (counter *SocialProofCounter) Stop() {
	counter.mu.Lock()
	cancel, done := counter.cancel, counter.done
	counter.cancel, counter.done = nil, nil
	counter.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (counter *SocialProofCounter) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(counter.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			counter.tick()
		}
	}
}

func (counter *SocialProofCounter) tick() {
	counter.mu.Lock()
	defer counter.mu.Unlock()

	counter.users = min(counter.users+counter.userStep(), socialProofMaxUsers)
	counter.hoursTenths = min(counter.hoursTenths+1, socialProofMaxHoursTenth)
}
