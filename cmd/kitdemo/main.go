// Command kitdemo wires together an EventLoop, a repeating timer and a
// PeriodicScheduler to exercise the core end to end: a timer re-arms
// itself every 10ms, drives a one-second heartbeat interval and signals a
// status event flag, until interrupted or 30 seconds elapse.
package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kitcore/kit"
)

const eventBitStatus = 0

type statusConsumer struct{ logger kit.Logger }

func (statusConsumer) EventFlagsMask() uint32 { return 1 << eventBitStatus }

func (s statusConsumer) Notified(uint32) {
	s.logger.Debug("status event observed")
}

func main() {
	logger := kit.NewConsoleLogger(os.Stderr, kit.LevelDebug)
	kit.SetLogger(logger)
	kit.Initialize()

	scheduler := kit.NewPeriodicScheduler(kit.WithSlippageReporter(func(idx int, now, oldMarker, newMarker uint64) {
		logger.Warn("periodic interval slipped",
			kit.F("interval", idx), kit.F("now", now), kit.F("old_marker", oldMarker), kit.F("new_marker", newMarker))
	}))
	scheduler.AddInterval(1000, func(now, marker uint64, ctx any) {
		logger.Info("heartbeat", kit.F("now", now), kit.F("marker", marker))
	}, nil)

	flags := kit.NewEventFlagSet(statusConsumer{logger: logger})

	loop := kit.NewEventLoop(
		kit.WithTimeout(10),
		kit.WithEventFlags(flags),
		kit.WithWatchdog(kit.NopWatchdog{}),
		kit.WithEventLoopLogger(logger),
	)

	var armTick func()
	armTick = func() {
		loop.Timers().Attach(kit.NewCounter(10, func() {
			scheduler.Run(kit.NowMSEx())
			loop.SignalEvent(eventBitStatus)
			armTick()
		}))
	}
	armTick()

	if err := loop.Run("kitdemo-loop"); err != nil {
		logger.Error("event loop failed to start", kit.F("err", err))
		os.Exit(1)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case <-time.After(30 * time.Second):
	}

	loop.PleaseStop()
	snap := loop.Metrics()
	logger.Info("shutting down",
		kit.F("wakes", snap.Wakes),
		kit.F("timers_fired", snap.TimersFired),
		kit.F("events_delivered", snap.EventsDelivered))
}
