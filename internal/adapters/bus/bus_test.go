package bus_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/okian/cabina/internal/adapters/bus"
	"github.com/okian/cabina/internal/domain/emotion"
	"github.com/okian/cabina/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

type doneToken struct {
	err error
}

func (t doneToken) Wait() bool                     { return true }
func (t doneToken) WaitTimeout(time.Duration) bool { return true }
func (t doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t doneToken) Error() error { return t.err }

type fakeClient struct {
	mu       sync.Mutex
	err      error
	topics   []string
	retained []bool
	payloads [][]byte
}

func (f *fakeClient) Publish(topic string, _ byte, retained bool, payload interface{}) mqtt.Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.topics = append(f.topics, topic)
	f.retained = append(f.retained, retained)
	f.payloads = append(f.payloads, payload.([]byte))
	return doneToken{err: f.err}
}

func (f *fakeClient) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.payloads)
}

func crisisSnapshot() model.Snapshot {
	return model.Snapshot{
		Version:   9,
		Timestamp: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Result: emotion.Result{
			State:      emotion.StateCrisis,
			Risk:       emotion.RiskCritical,
			Confidence: emotion.Confidence,
		},
	}
}

func TestPayload(t *testing.T) {
	Convey("Given a crisis snapshot", t, func() {
		raw, err := bus.Payload(crisisSnapshot())

		Convey("Then the payload carries the state and its protocol", func() {
			So(err, ShouldBeNil)
			var doc map[string]any
			So(json.Unmarshal(raw, &doc), ShouldBeNil)
			So(doc["version"], ShouldEqual, 9.0)
			So(doc["state"], ShouldEqual, "crisis")
			So(doc["risk_tier"], ShouldEqual, "critical")
			proto, ok := doc["protocol"].(map[string]any)
			So(ok, ShouldBeTrue)
			So(proto["lighting"], ShouldEqual, "soft red (alert)")
		})
	})
}

func TestBusPublish(t *testing.T) {
	Convey("Given a bus over a fake client", t, func() {
		client := &fakeClient{}
		b := bus.New(client, "cabina/state")
		ctx := context.Background()

		Convey("When a snapshot is published", func() {
			err := b.Publish(ctx, crisisSnapshot())

			Convey("Then it goes to the retained topic", func() {
				So(err, ShouldBeNil)
				So(client.topics, ShouldResemble, []string{"cabina/state"})
				So(client.retained[0], ShouldBeTrue)
			})
		})

		Convey("When the broker rejects the message", func() {
			client.err = errors.New("not authorized")
			err := b.Publish(ctx, crisisSnapshot())

			Convey("Then the error is returned", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "not authorized")
			})
		})

		Convey("When snapshots arrive on a channel", func() {
			ch := make(chan model.Snapshot, 2)
			ch <- crisisSnapshot()
			ch <- crisisSnapshot()
			close(ch)
			b.Run(ctx, ch)

			Convey("Then each is published until the channel closes", func() {
				So(client.count(), ShouldEqual, 2)
			})
		})
	})
}
