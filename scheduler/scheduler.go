// Package scheduler handles recurring background tasks like the presence rotation
package scheduler

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"PiBot/logger"

	"github.com/sirupsen/logrus"
)

// StatusUpdater sets the "Watching ..." activity of the bot
type StatusUpdater interface {
	SetWatching(activity string) error
}

// Rotator periodically swaps the bot activity for a random entry of a list
type Rotator struct {
	updater    StatusUpdater
	activities []string
	interval   time.Duration
	pick       func(n int) int

	mutex    sync.Mutex
	running  bool
	stopChan chan struct{}
	done     chan struct{}
}

// New creates a Rotator. activities are copied.
func New(updater StatusUpdater, activities []string, interval time.Duration) *Rotator {
	return &Rotator{
		updater:    updater,
		activities: append([]string(nil), activities...),
		interval:   interval,
		pick:       rand.IntN,
	}
}

// Start launches the rotation routine. It returns immediately; the routine
// ends when ctx is cancelled or Stop is called.
func (r *Rotator) Start(ctx context.Context) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.running {
		return errors.New("rotator is already running")
	}
	if len(r.activities) == 0 || r.interval <= 0 {
		logger.Infof("No activities configured, presence rotation will not start")
		return nil
	}

	r.running = true
	r.stopChan = make(chan struct{})
	r.done = make(chan struct{})

	go r.rotationRoutine(ctx, r.stopChan, r.done)

	logger.WithFields(logrus.Fields{
		"activities": len(r.activities),
		"interval":   r.interval.String(),
	}).Info("presence-rotation-started")
	return nil
}

// Stop ends the rotation routine and waits for it to exit
func (r *Rotator) Stop() error {
	r.mutex.Lock()
	if !r.running {
		r.mutex.Unlock()
		return errors.New("rotator is not running")
	}
	close(r.stopChan)
	done := r.done
	r.running = false
	r.mutex.Unlock()

	<-done
	logger.Infof("Presence rotation stopped")
	return nil
}

// IsRunning returns whether the rotation routine is active
func (r *Rotator) IsRunning() bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.running
}

func (r *Rotator) rotationRoutine(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.rotate()
	for {
		select {
		case <-ctx.Done():
			r.mutex.Lock()
			if r.stopChan == stop {
				r.running = false
			}
			r.mutex.Unlock()
			return
		case <-stop:
			return
		case <-ticker.C:
			r.rotate()
		}
	}
}

func (r *Rotator) rotate() {
	activity := r.activities[r.pick(len(r.activities))]
	if err := r.updater.SetWatching(activity); err != nil {
		logger.WithFields(logrus.Fields{
			"activity": activity,
			"error":    err,
		}).Warn("failed-to-update-presence")
	}
}
