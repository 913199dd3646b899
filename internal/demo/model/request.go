package model

// Attribute names used in validation error messages. They match the JSON
// field names of the request payload.
const (
	AttrName          = "Name"
	AttrEpochLength   = "EpochLength"
	AttrTotalMaxPower = "TotalMaxPower"
	AttrUsers         = "Users"
	AttrStations      = "Stations"

	AttrUserID              = "UserId"
	AttrUserName            = "UserName"
	AttrCarBatteryCapacity  = "CarBatteryCapacity"
	AttrCarMaxPower         = "CarMaxPower"
	AttrStateOfCharge       = "StateOfCharge"
	AttrTargetStateOfCharge = "TargetStateOfCharge"
	AttrArrivalTime         = "ArrivalTime"
	AttrTargetTime          = "TargetTime"
	AttrStationID           = "StationId"
	AttrMaxPower            = "MaxPower"
)

// DemoRequest is the wire form of a simulation request. Optional and
// required fields are pointers so that missing attributes can be told apart
// from zero values during validation.
type DemoRequest struct {
	Name          *string          `json:"Name"`
	TotalMaxPower *float64         `json:"TotalMaxPower"`
	EpochLength   *int             `json:"EpochLength"`
	Users         []UserRequest    `json:"Users"`
	Stations      []StationRequest `json:"Stations"`
}

// UserRequest is the wire form of one simulation user.
type UserRequest struct {
	UserID              *int     `json:"UserId"`
	UserName            *string  `json:"UserName"`
	CarBatteryCapacity  *float64 `json:"CarBatteryCapacity"`
	CarMaxPower         *float64 `json:"CarMaxPower"`
	StateOfCharge       *float64 `json:"StateOfCharge"`
	TargetStateOfCharge *float64 `json:"TargetStateOfCharge"`
	ArrivalTime         *string  `json:"ArrivalTime"`
	TargetTime          *string  `json:"TargetTime"`
	StationID           *string  `json:"StationId"`
}

// StationRequest is the wire form of one charging station.
type StationRequest struct {
	StationID *string  `json:"StationId"`
	MaxPower  *float64 `json:"MaxPower"`
}
