package model

// Location is the last reported position of a robot.
type Location struct {
	Latitude  float64 `json:"latitude" yaml:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" yaml:"longitude" validate:"gte=-180,lte=180"`
}

// Order describes the delivery a robot is assigned to. It is always present,
// but only meaningful while the robot is on delivery.
type Order struct {
	OrderID           string `json:"orderId" yaml:"orderId"`
	CustomerName      string `json:"customerName" yaml:"customerName"`
	DeliveryAddress   string `json:"deliveryAddress" yaml:"deliveryAddress"`
	EstimatedDelivery string `json:"estimatedDelivery" yaml:"estimatedDelivery"`
}

// Robot is one tracked delivery unit.
type Robot struct {
	ID           string   `json:"robotId" yaml:"robotId"`
	Name         string   `json:"name" yaml:"name"`
	Model        string   `json:"model" yaml:"model"`
	Status       Status   `json:"status" yaml:"status"`
	BatteryLevel int      `json:"batteryLevel" yaml:"batteryLevel"`
	Location     Location `json:"location" yaml:"location"`
	CurrentOrder Order    `json:"currentOrder" yaml:"currentOrder"`
}

// RobotInput carries the caller supplied fields of a new robot. The id is
// always assigned by the store.
type RobotInput struct {
	Name         string   `json:"name" validate:"required,max=64"`
	Model        string   `json:"model" validate:"max=16"`
	Status       Status   `json:"status"`
	BatteryLevel int      `json:"batteryLevel" validate:"gte=0,lte=100"`
	Location     Location `json:"location"`
	CurrentOrder Order    `json:"currentOrder"`
}

// Build returns the Robot described by the input under the given id.
func (in RobotInput) Build(id string) Robot {
	return Robot{
		ID:           id,
		Name:         in.Name,
		Model:        in.Model,
		Status:       in.Status,
		BatteryLevel: in.BatteryLevel,
		Location:     in.Location,
		CurrentOrder: in.CurrentOrder,
	}
}

// IsDelivering reports whether CurrentOrder is relevant for the robot.
func (r Robot) IsDelivering() bool {
	return r.Status == StatusOnDelivery
}
