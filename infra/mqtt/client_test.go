package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/robofleet/core/events"
	"github.com/kilianp07/robofleet/core/model"
	coremon "github.com/kilianp07/robofleet/core/monitoring"
	coremqtt "github.com/kilianp07/robofleet/core/mqtt"
	"github.com/kilianp07/robofleet/internal/eventbus"
)

func TestConnectPublishesOnlineAndLWT(t *testing.T) {
	mc := &mockClient{}
	withMock(t, mc)
	cli, err := NewPahoClient(Config{Broker: "tcp://localhost:1883", QoS: map[string]byte{"status": 1}})
	require.NoError(t, err)
	defer cli.Disconnect()

	assert.True(t, mc.opts.WillEnabled)
	assert.Equal(t, "robofleet/status", mc.opts.WillTopic)
	assert.Equal(t, "offline", string(mc.opts.WillPayload))
	assert.True(t, mc.opts.WillRetained)
	assert.Contains(t, mc.opts.ClientID, "robofleet-")

	require.Len(t, mc.published, 1)
	assert.Equal(t, published{"robofleet/status", 1, true, []byte("online")}, mc.published[0])
}

func TestPublishMutation(t *testing.T) {
	mc := &mockClient{}
	withMock(t, mc)
	cli, err := NewPahoClient(Config{Broker: "tcp://localhost:1883", ClientID: "id", TopicPrefix: "fleet", QoS: map[string]byte{"event": 1, "state": 2}})
	require.NoError(t, err)
	mc.published = nil

	after := model.Robot{ID: "R2D2", Status: model.StatusReturning, BatteryLevel: 87}
	require.NoError(t, cli.PublishMutation(events.MutationEvent{
		ID: "e1", Op: events.OpReturnToBase, RobotID: "R2D2", After: &after, Outcome: events.OutcomeApplied,
	}))
	require.Len(t, mc.published, 2)
	assert.Equal(t, "fleet/events/return_to_base", mc.published[0].topic)
	assert.Equal(t, byte(1), mc.published[0].qos)
	assert.False(t, mc.published[0].retained)
	var ev events.MutationEvent
	require.NoError(t, json.Unmarshal(mc.published[0].payload, &ev))
	assert.Equal(t, "e1", ev.ID)

	assert.Equal(t, "fleet/robots/R2D2/state", mc.published[1].topic)
	assert.True(t, mc.published[1].retained)
	assert.Equal(t, byte(2), mc.published[1].qos)
	var r model.Robot
	require.NoError(t, json.Unmarshal(mc.published[1].payload, &r))
	assert.Equal(t, model.StatusReturning, r.Status)
}

func TestPublishMutationRemovalAndNoop(t *testing.T) {
	mc := &mockClient{}
	withMock(t, mc)
	cli, err := NewPahoClient(Config{Broker: "tcp://localhost:1883", ClientID: "id"})
	require.NoError(t, err)
	mc.published = nil

	before := model.Robot{ID: "R3D7"}
	require.NoError(t, cli.PublishMutation(events.MutationEvent{Op: events.OpRemoveLast, RobotID: "R3D7", Before: &before, Outcome: events.OutcomeApplied}))
	require.Len(t, mc.published, 2)
	assert.Equal(t, "robofleet/robots/R3D7/state", mc.published[1].topic)
	assert.Empty(t, mc.published[1].payload, "removal clears the retained state")

	mc.published = nil
	require.NoError(t, cli.PublishMutation(events.MutationEvent{Op: events.OpReturnToBase, RobotID: "R1D3", Outcome: events.OutcomeRejected}))
	assert.Len(t, mc.published, 1, "no state publish without a change")
}

func TestRetryLogic(t *testing.T) {
	mc := &mockClient{}
	withMock(t, mc)
	cli, err := NewPahoClient(Config{Broker: "tcp://localhost:1883", ClientID: "id", MaxRetries: 1, BackoffMS: 1})
	require.NoError(t, err)
	mc.published = nil
	mc.publishErrs = []error{fmt.Errorf("net fail"), nil}

	require.NoError(t, cli.PublishMutation(events.MutationEvent{Op: events.OpAdd, Outcome: events.OutcomeFailed}))
	assert.Len(t, mc.published, 2)
}

type recordMonitor struct {
	err  error
	tags map[string]string
}

func (r *recordMonitor) CaptureException(err error, tags map[string]string) {
	r.err = err
	r.tags = tags
}
func (r *recordMonitor) CapturePanic(any)    {}
func (r *recordMonitor) Flush(time.Duration) {}

func TestPublishErrorCaptured(t *testing.T) {
	mc := &mockClient{}
	withMock(t, mc)
	mon := &recordMonitor{}
	coremon.Init(mon)
	t.Cleanup(func() { coremon.Init(coremon.NopMonitor{}) })

	cli, err := NewPahoClient(Config{Broker: "tcp://localhost:1883", ClientID: "id", MaxRetries: 1, BackoffMS: 1})
	require.NoError(t, err)
	mc.publishErrs = []error{fmt.Errorf("net fail"), fmt.Errorf("net fail")}

	err = cli.PublishMutation(events.MutationEvent{Op: events.OpBattery, RobotID: "R2D1", Outcome: events.OutcomeApplied})
	require.Error(t, err)
	assert.True(t, errors.Is(err, coremqtt.ErrPublish))
	require.Error(t, mon.err)
	assert.Equal(t, "mqtt", mon.tags["module"])
	assert.Equal(t, "R2D1", mon.tags["robot_id"])
}

func TestStartForwarder(t *testing.T) {
	pub := NewMockPublisher()
	bus := eventbus.NewTyped[events.MutationEvent]()
	ctx, cancel := context.WithCancel(context.Background())
	done := StartForwarder(ctx, bus, pub, nil)

	bus.Publish(events.MutationEvent{ID: "a", Op: events.OpAdd})
	bus.Publish(events.MutationEvent{ID: "b", Op: events.OpCycleStatus})
	require.Eventually(t, func() bool { return len(pub.Published()) == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "b", pub.Published()[1].ID)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("forwarder did not stop")
	}
	assert.Zero(t, bus.Subscribers())
}
