package tracking

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/smartystreets/goconvey/convey"
	"github.com/vedantwpatil/mouse-listener/internal/eventlog"
	"github.com/vedantwpatil/mouse-listener/pkg/logger"
	"github.com/vedantwpatil/mouse-listener/pkg/metrics"
)

type recordedClick struct {
	X, Y, Timestamp float64
}

type fakeClickLogger struct {
	mu     sync.Mutex
	clicks []recordedClick
	err    error
}

func (f *fakeClickLogger) LogClick(x, y, ts float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.clicks = append(f.clicks, recordedClick{X: x, Y: y, Timestamp: ts})
	return nil
}

func (f *fakeClickLogger) recorded() []recordedClick {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedClick(nil), f.clicks...)
}

// scripted replays events and then returns err.
func scripted(err error, events ...Event) EventSource {
	return EventSourceFunc(func(_ context.Context, emit func(Event)) error {
		for _, ev := range events {
			emit(ev)
		}
		return err
	})
}

func newTestListener(clicks ClickLogger, source EventSource, opts ...Option) (*Listener, *bytes.Buffer) {
	var buf bytes.Buffer
	opts = append([]Option{WithLogger(logger.New(&buf))}, opts...)
	return NewListener(&MouseState{}, clicks, source, opts...), &buf
}

func TestListener_Moves(t *testing.T) {
	convey.Convey("Given a listener fed only move events", t, func() {
		clicks := &fakeClickLogger{}
		l, _ := newTestListener(clicks, nil)

		for i := 0; i < 50; i++ {
			l.Handle(Move(float64(i), float64(i*2)))
		}
		l.Handle(Move(640.5, 480.25))

		convey.Convey("Then the last move wins and nothing is logged", func() {
			convey.So(l.State().LastMove(), convey.ShouldResemble, PointerSample{X: 640.5, Y: 480.25})
			convey.So(l.State().LastClick(), convey.ShouldResemble, PointerSample{})
			convey.So(clicks.recorded(), convey.ShouldBeEmpty)
		})
	})
}

func TestListener_ClickUsesLastMove(t *testing.T) {
	convey.Convey("Given moves followed by a left press", t, func() {
		clicks := &fakeClickLogger{}
		now := time.Unix(1700000000, 250_000_000)
		l, _ := newTestListener(clicks, nil, WithClock(func() time.Time { return now }))

		l.Handle(Move(10, 20))
		l.Handle(Move(15, 25))
		l.Handle(Event{Kind: KindButtonPress, Button: ButtonLeft, X: 999, Y: 999})

		convey.Convey("Then the click is recorded at the last move, not the button coordinates", func() {
			convey.So(l.State().LastMove(), convey.ShouldResemble, PointerSample{X: 15, Y: 25})
			convey.So(l.State().LastClick(), convey.ShouldResemble, PointerSample{X: 15, Y: 25})

			got := clicks.recorded()
			convey.So(len(got), convey.ShouldEqual, 1)
			convey.So(got[0].X, convey.ShouldEqual, 15)
			convey.So(got[0].Y, convey.ShouldEqual, 25)
			convey.So(got[0].Timestamp, convey.ShouldAlmostEqual, 1700000000.25, 1e-6)
		})
	})
}

// A press and its release are logged as two separate clicks. This duplication
// is kept on purpose until someone decides otherwise.
func TestListener_PressAndReleaseLogTwice(t *testing.T) {
	convey.Convey("Given a left press and release with no prior move", t, func() {
		clicks := &fakeClickLogger{}
		l, _ := newTestListener(clicks, nil)

		l.Handle(Press(ButtonLeft))
		l.Handle(Release(ButtonLeft))

		convey.Convey("Then two records at the origin with non-decreasing timestamps", func() {
			got := clicks.recorded()
			convey.So(len(got), convey.ShouldEqual, 2)
			for _, c := range got {
				convey.So(c.X, convey.ShouldEqual, 0)
				convey.So(c.Y, convey.ShouldEqual, 0)
			}
			convey.So(got[1].Timestamp, convey.ShouldBeGreaterThanOrEqualTo, got[0].Timestamp)
			convey.So(l.State().LastClick(), convey.ShouldResemble, PointerSample{})
		})
	})
}

func TestListener_IgnoresOtherEvents(t *testing.T) {
	convey.Convey("Given non-left buttons and other event kinds", t, func() {
		clicks := &fakeClickLogger{}
		m := metrics.NewManager()
		l, _ := newTestListener(clicks, nil, WithMetrics(m))

		l.Handle(Move(7, 8))
		l.Handle(Press(ButtonRight))
		l.Handle(Release(ButtonRight))
		l.Handle(Press(ButtonMiddle))
		l.Handle(Event{Kind: KindOther, X: 1, Y: 1})

		convey.Convey("Then only the move has an effect", func() {
			convey.So(clicks.recorded(), convey.ShouldBeEmpty)
			convey.So(l.State().LastMove(), convey.ShouldResemble, PointerSample{X: 7, Y: 8})
			convey.So(l.State().LastClick(), convey.ShouldResemble, PointerSample{})
			convey.So(testutil.ToFloat64(m.EventsObserved(metrics.KindMove)), convey.ShouldEqual, 1)
			convey.So(testutil.ToFloat64(m.EventsObserved(metrics.KindPress)), convey.ShouldEqual, 2)
			convey.So(testutil.ToFloat64(m.EventsObserved(metrics.KindRelease)), convey.ShouldEqual, 1)
			convey.So(testutil.ToFloat64(m.EventsObserved(metrics.KindOther)), convey.ShouldEqual, 1)
			convey.So(testutil.ToFloat64(m.ClicksLogged()), convey.ShouldEqual, 0)
		})
	})
}

func TestListener_LogFailureIsSwallowed(t *testing.T) {
	convey.Convey("Given a click logger that always fails", t, func() {
		clicks := &fakeClickLogger{err: errors.New("read-only file system")}
		m := metrics.NewManager()
		l, diag := newTestListener(clicks, nil, WithMetrics(m))

		l.Handle(Move(5, 6))
		l.Handle(Press(ButtonLeft))
		l.Handle(Move(9, 9))

		convey.Convey("Then the event is dropped, reported, and processing continues", func() {
			convey.So(l.State().LastClick(), convey.ShouldResemble, PointerSample{X: 5, Y: 6})
			convey.So(l.State().LastMove(), convey.ShouldResemble, PointerSample{X: 9, Y: 9})
			convey.So(diag.String(), convey.ShouldContainSubstring, "failed to log click event")
			convey.So(diag.String(), convey.ShouldContainSubstring, "read-only file system")
			convey.So(testutil.ToFloat64(m.LogWriteFailures()), convey.ShouldEqual, 1)
			convey.So(testutil.ToFloat64(m.ClicksLogged()), convey.ShouldEqual, 0)
		})
	})
}

func TestListener_Run(t *testing.T) {
	convey.Convey("Given a listener writing to a real event log", t, func() {
		path := filepath.Join(t.TempDir(), "data", "movements.json")
		writer := eventlog.NewWriter(path)
		m := metrics.NewManager()

		convey.Convey("When the source replays move, move, press", func() {
			before := eventlog.UnixSeconds(time.Now())
			l, _ := newTestListener(writer, scripted(nil, Move(10, 20), Move(15, 25), Press(ButtonLeft)), WithMetrics(m))
			err := l.Run(context.Background())
			after := eventlog.UnixSeconds(time.Now())

			convey.Convey("Then state and log match the last move", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(l.State().LastMove(), convey.ShouldResemble, PointerSample{X: 15, Y: 25})
				convey.So(l.State().LastClick(), convey.ShouldResemble, PointerSample{X: 15, Y: 25})

				f, openErr := os.Open(path)
				convey.So(openErr, convey.ShouldBeNil)
				defer f.Close()

				var lines []eventlog.LoggedEvent
				scanner := bufio.NewScanner(f)
				for scanner.Scan() {
					var ev eventlog.LoggedEvent
					convey.So(json.Unmarshal(scanner.Bytes(), &ev), convey.ShouldBeNil)
					lines = append(lines, ev)
				}
				convey.So(len(lines), convey.ShouldEqual, 1)
				convey.So(lines[0].EventType, convey.ShouldEqual, "MouseClick")
				convey.So(lines[0].X, convey.ShouldEqual, 15)
				convey.So(lines[0].Y, convey.ShouldEqual, 25)
				convey.So(lines[0].Timestamp, convey.ShouldBeBetweenOrEqual, before, after)
				convey.So(testutil.ToFloat64(m.ClicksLogged()), convey.ShouldEqual, 1)
				convey.So(testutil.ToFloat64(m.ListenerStarts()), convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When the source replays a left press and its release with no move", func() {
			l, _ := newTestListener(writer, scripted(nil, Press(ButtonLeft), Release(ButtonLeft)), WithMetrics(m))
			err := l.Run(context.Background())

			convey.Convey("Then the file holds exactly two click records at the origin", func() {
				convey.So(err, convey.ShouldBeNil)
				raw, readErr := os.ReadFile(path)
				convey.So(readErr, convey.ShouldBeNil)

				var lines []eventlog.LoggedEvent
				scanner := bufio.NewScanner(bytes.NewReader(raw))
				for scanner.Scan() {
					var ev eventlog.LoggedEvent
					convey.So(json.Unmarshal(scanner.Bytes(), &ev), convey.ShouldBeNil)
					lines = append(lines, ev)
				}
				convey.So(len(lines), convey.ShouldEqual, 2)
				for _, ev := range lines {
					convey.So(ev.EventType, convey.ShouldEqual, eventlog.EventTypeMouseClick)
					convey.So(ev.X, convey.ShouldEqual, 0)
					convey.So(ev.Y, convey.ShouldEqual, 0)
				}
				convey.So(lines[1].Timestamp, convey.ShouldBeGreaterThanOrEqualTo, lines[0].Timestamp)
				convey.So(testutil.ToFloat64(m.ClicksLogged()), convey.ShouldEqual, 2)
			})
		})

		convey.Convey("When the subscription fails", func() {
			l, diag := newTestListener(writer, scripted(errors.New("no display")), WithMetrics(m))
			err := <-l.Start(context.Background())

			convey.Convey("Then the error is reported once and returned", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(diag.String(), convey.ShouldContainSubstring, "error listening for mouse events")
				convey.So(testutil.ToFloat64(m.SubscriptionFailures()), convey.ShouldEqual, 1)
				convey.So(l.State().LastMove(), convey.ShouldResemble, PointerSample{})
			})
		})

		convey.Convey("When the context is cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			blocking := EventSourceFunc(func(ctx context.Context, emit func(Event)) error {
				emit(Move(1, 2))
				<-ctx.Done()
				return ctx.Err()
			})
			l, _ := newTestListener(writer, blocking, WithMetrics(m))
			done := l.Start(ctx)
			cancel()

			convey.Convey("Then Run returns nil and keeps the state", func() {
				convey.So(<-done, convey.ShouldBeNil)
				convey.So(l.State().LastMove(), convey.ShouldResemble, PointerSample{X: 1, Y: 2})
				convey.So(testutil.ToFloat64(m.SubscriptionFailures()), convey.ShouldEqual, 0)
			})
		})
	})
}

func TestKindString(t *testing.T) {
	convey.Convey("Given every kind", t, func() {
		convey.So(KindMove.String(), convey.ShouldEqual, metrics.KindMove)
		convey.So(KindButtonPress.String(), convey.ShouldEqual, metrics.KindPress)
		convey.So(KindButtonRelease.String(), convey.ShouldEqual, metrics.KindRelease)
		convey.So(KindOther.String(), convey.ShouldEqual, metrics.KindOther)
		convey.So(Kind(42).String(), convey.ShouldEqual, metrics.KindOther)
	})
}
