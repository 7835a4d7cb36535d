package metrics

import (
	"context"
	"net/http"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/kilianp07/robofleet/core/events"
	coremetrics "github.com/kilianp07/robofleet/core/metrics"
	"github.com/kilianp07/robofleet/infra/logger"
)

// InfluxConfig locates an InfluxDB v2 bucket.
type InfluxConfig struct {
	URL    string `json:"url"`
	Token  string `json:"token"`
	Org    string `json:"org"`
	Bucket string `json:"bucket"`
}

// InfluxSink writes fleet mutations and robot state to InfluxDB.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(cfg InfluxConfig) *InfluxSink {
	base := strings.TrimSuffix(cfg.URL, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, cfg.Token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback pings the InfluxDB instance and returns a NopSink
// if the health check fails.
func NewInfluxSinkWithFallback(cfg InfluxConfig) coremetrics.MetricsSink {
	sink := NewInfluxSink(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordMutation writes one fleet_mutation point.
func (s *InfluxSink) RecordMutation(ev events.MutationEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.writeAPI.WritePoint(ctx, mutationPoint(ev))
}

// RecordFleetState writes one robot_state point per robot.
func (s *InfluxSink) RecordFleetState(st coremetrics.FleetState) error {
	if len(st.Robots) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.writeAPI.WritePoint(ctx, statePoints(st)...)
}

// Close releases the underlying HTTP client.
func (s *InfluxSink) Close() error {
	s.client.Close()
	return nil
}

func mutationPoint(ev events.MutationEvent) *write.Point {
	p := write.NewPointWithMeasurement("fleet_mutation").
		AddTag("op", string(ev.Op)).
		AddTag("outcome", string(ev.Outcome)).
		AddTag("component", "fleet_store")
	if ev.RobotID != "" {
		p = p.AddTag("robot_id", ev.RobotID)
	}
	p = p.AddField("duration_us", ev.Duration.Microseconds())
	if ev.Reason != "" {
		p = p.AddField("reason", ev.Reason)
	}
	if ev.Err != "" {
		p = p.AddField("error", ev.Err)
	}
	return p.SetTime(ev.Time)
}

func statePoints(st coremetrics.FleetState) []*write.Point {
	pts := make([]*write.Point, 0, len(st.Robots))
	for _, r := range st.Robots {
		p := write.NewPointWithMeasurement("robot_state").
			AddTag("robot_id", r.ID).
			AddTag("model", r.Model).
			AddTag("status", r.Status.String()).
			AddField("battery", r.BatteryLevel).
			AddField("latitude", r.Location.Latitude).
			AddField("longitude", r.Location.Longitude).
			SetTime(st.Time)
		pts = append(pts, p)
	}
	return pts
}
