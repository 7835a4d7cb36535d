package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/robofleet/core/events"
	coremetrics "github.com/kilianp07/robofleet/core/metrics"
	"github.com/kilianp07/robofleet/core/model"
)

type capture struct {
	mu     sync.Mutex
	bodies []string
}

func (c *capture) server(t *testing.T) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		c.mu.Lock()
		c.bodies = append(c.bodies, strings.TrimSpace(string(b)))
		c.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func line(p *write.Point) string {
	return strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
}

func TestInfluxSink_RecordMutation(t *testing.T) {
	var c capture
	srv := c.server(t)
	sink := NewInfluxSink(InfluxConfig{URL: srv.URL + "/api/v2/write", Token: "token", Org: "org", Bucket: "bucket"})
	defer func() { _ = sink.Close() }()

	now := time.Now()
	ev := events.MutationEvent{
		Op: events.OpReturnToBase, RobotID: "R1D3", Outcome: events.OutcomeRejected,
		Reason: "cannot return to base while Charging", Duration: 1500 * time.Microsecond, Time: now,
	}
	require.NoError(t, sink.RecordMutation(ev))

	p := write.NewPointWithMeasurement("fleet_mutation").
		AddTag("op", "return_to_base").
		AddTag("outcome", "rejected").
		AddTag("component", "fleet_store").
		AddTag("robot_id", "R1D3").
		AddField("duration_us", int64(1500)).
		AddField("reason", "cannot return to base while Charging").
		SetTime(now)
	require.Len(t, c.bodies, 1)
	assert.Equal(t, line(p), c.bodies[0])
}

func TestInfluxSink_RecordFleetState(t *testing.T) {
	var c capture
	srv := c.server(t)
	sink := NewInfluxSink(InfluxConfig{URL: srv.URL, Token: "token", Org: "org", Bucket: "bucket"})

	now := time.Now()
	robots := []model.Robot{
		{ID: "R2D1", Model: "V2", Status: model.StatusOnDelivery, BatteryLevel: 34, Location: model.Location{Latitude: 1.5, Longitude: -2}},
		{ID: "R2D2", Model: "V2", Status: model.StatusIdle, BatteryLevel: 87},
	}
	require.NoError(t, sink.RecordFleetState(coremetrics.FleetState{Robots: robots, Time: now}))
	require.NoError(t, sink.RecordFleetState(coremetrics.FleetState{Time: now}))

	p1 := write.NewPointWithMeasurement("robot_state").
		AddTag("robot_id", "R2D1").AddTag("model", "V2").AddTag("status", "On Delivery").
		AddField("battery", 34).AddField("latitude", 1.5).AddField("longitude", -2.0).
		SetTime(now)
	p2 := write.NewPointWithMeasurement("robot_state").
		AddTag("robot_id", "R2D2").AddTag("model", "V2").AddTag("status", "Idle").
		AddField("battery", 87).AddField("latitude", 0.0).AddField("longitude", 0.0).
		SetTime(now)
	require.Len(t, c.bodies, 1, "empty fleet writes nothing")
	assert.Equal(t, []string{line(p1), line(p2)}, strings.Split(c.bodies[0], "\n"))
}

func TestNewInfluxSinkWithFallback(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			called = true
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	}))
	defer srv.Close()

	sink := NewInfluxSinkWithFallback(InfluxConfig{URL: srv.URL + "/api/v2/write", Token: "tok", Org: "org", Bucket: "bucket"})
	_, isInflux := sink.(*InfluxSink)
	assert.False(t, isInflux, "expected NopSink on failing health check")
	assert.True(t, called, "health endpoint not called")
}
