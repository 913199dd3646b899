package model

import "time"

// StartMessage is the document handed to the platform manager describing the
// simulation and every participating component.
type StartMessage struct {
	Simulation SimulationBlock `yaml:"Simulation"`
	Components ComponentsBlock `yaml:"Components"`
}

// SimulationBlock holds the top-level simulation settings.
type SimulationBlock struct {
	Name             string `yaml:"Name"`
	Description      string `yaml:"Description"`
	InitialStartTime string `yaml:"InitialStartTime"`
	EpochLength      int    `yaml:"EpochLength"`
	MaxEpochCount    int    `yaml:"MaxEpochCount"`
}

// ComponentsBlock lists the simulation components by type and name.
type ComponentsBlock struct {
	ICComponent      map[string]ControllerComponent `yaml:"ICComponent"`
	UserComponent    map[string]UserComponent       `yaml:"UserComponent"`
	StationComponent map[string]StationComponent    `yaml:"StationComponent"`
}

// ControllerComponent holds the intelligent controller parameters.
type ControllerComponent struct {
	TotalMaxPower float64 `yaml:"TotalMaxPower"`
}

// UserComponent holds the start parameters of one user component.
type UserComponent struct {
	UserID              int     `yaml:"UserId"`
	UserName            string  `yaml:"UserName"`
	StationID           string  `yaml:"StationId"`
	ArrivalTime         string  `yaml:"ArrivalTime"`
	StateOfCharge       float64 `yaml:"StateOfCharge"`
	CarBatteryCapacity  float64 `yaml:"CarBatteryCapacity"`
	CarModel            string  `yaml:"CarModel"`
	CarMaxPower         float64 `yaml:"CarMaxPower"`
	TargetStateOfCharge float64 `yaml:"TargetStateOfCharge"`
	TargetTime          string  `yaml:"TargetTime"`
}

// StationComponent holds the start parameters of one station component.
type StationComponent struct {
	StationID string  `yaml:"StationId"`
	MaxPower  float64 `yaml:"MaxPower"`
}

// SimulationRun records the launch metadata for one started simulation.
type SimulationRun struct {
	SimulationID     string    `json:"simulation_id"`
	ContainerID      string    `json:"container_id"`
	ContainerName    string    `json:"container_name"`
	Image            string    `json:"image"`
	StartMessageFile string    `json:"start_message_file"`
	CreatedAt        time.Time `json:"created_at"`
}
