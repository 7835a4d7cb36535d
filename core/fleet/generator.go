package fleet

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/kilianp07/robofleet/core/model"
)

// SampleFleet returns the three robots the dashboard starts with.
func SampleFleet() []model.Robot {
	return []model.Robot{
		{
			ID: "R2D1", Name: "Robo-1", Model: "V2", Status: model.StatusOnDelivery, BatteryLevel: 34,
			Location: model.Location{Latitude: 12.3344, Longitude: -122.5162},
			CurrentOrder: model.Order{
				OrderID: "ORD-12345", DeliveryAddress: "Vienna, Holloid",
				EstimatedDelivery: "2025-04-03T14:10:00Z",
			},
		},
		{
			ID: "R2D2", Name: "Robo-2", Model: "V2", Status: model.StatusIdle, BatteryLevel: 87,
			Location: model.Location{Latitude: 34.0522, Longitude: -54.2437},
			CurrentOrder: model.Order{
				OrderID: "ORD-12346", CustomerName: "Customer member", DeliveryAddress: "Vienna, Holloid",
				EstimatedDelivery: "2025-04-03T18:25:00Z",
			},
		},
		{
			ID: "R1D3", Name: "Robo-3", Model: "V1", Status: model.StatusOnDelivery, BatteryLevel: 19,
			Location: model.Location{Latitude: -43.058, Longitude: -118.2437},
			CurrentOrder: model.Order{
				OrderID: "ORD-12347", CustomerName: "Customer Customer", DeliveryAddress: "Vienna, Holloid",
				EstimatedDelivery: "2025-04-03T10:11:00Z",
			},
		},
	}
}

// newRobotStatuses are the statuses a freshly added robot may start in.
var newRobotStatuses = []model.Status{model.StatusIdle, model.StatusOnDelivery, model.StatusCharging, model.StatusError}

// Generator produces random robot inputs for the "add robot" action.
type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

// NewGenerator returns a Generator seeded with seed. A zero seed uses the
// current time.
func NewGenerator(seed int64) *Generator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Generator{rng: rand.New(rand.NewSource(seed)), now: time.Now}
}

// NewInput returns a random robot input. n is the fleet size after adding
// and is used for the display name.
func (g *Generator) NewInput(n int) model.RobotInput {
	g.mu.Lock()
	defer g.mu.Unlock()
	mdl := "V1"
	if g.rng.Float64() > 0.5 {
		mdl = "V2"
	}
	return model.RobotInput{
		Name:         fmt.Sprintf("Robo-%d", n),
		Model:        mdl,
		Status:       newRobotStatuses[g.rng.Intn(len(newRobotStatuses))],
		BatteryLevel: g.rng.Intn(100) + 1,
		Location: model.Location{
			Latitude:  g.rng.Float64()*180 - 90,
			Longitude: g.rng.Float64()*360 - 180,
		},
		CurrentOrder: model.Order{
			OrderID:           fmt.Sprintf("ORD-%d", g.rng.Intn(10000)),
			CustomerName:      fmt.Sprintf("Customer %d", n),
			DeliveryAddress:   "Vienna, Holloid",
			EstimatedDelivery: g.now().UTC().Format(time.RFC3339),
		},
	}
}
