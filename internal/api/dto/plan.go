package dto

type PlanStopResponse struct {
	Address    string `json:"address"`
	ArriveAt   string `json:"arrive_at"`
	PackageIDs []int  `json:"package_ids"`
}

type SegmentResponse struct {
	TruckID         int                `json:"truck_id"`
	DepartAt        string             `json:"depart_at"`
	ReturnAt        string             `json:"return_at"`
	LengthMiles     float64            `json:"length_miles"`
	MissedDeadlines int                `json:"missed_deadlines"`
	PackageIDs      []int              `json:"package_ids"`
	Stops           []PlanStopResponse `json:"stops"`
}

type PlanResponse struct {
	TotalMiles      float64           `json:"total_miles"`
	MissedDeadlines int               `json:"missed_deadlines"`
	TruckMiles      map[int]float64   `json:"truck_miles"`
	Segments        []SegmentResponse `json:"segments"`
}
