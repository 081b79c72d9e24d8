package dto

// Times are "HH:MM" strings; an unscheduled delivery renders as "--:--".
type PackageResponse struct {
	PackageID   int    `json:"package_id"`
	Address     string `json:"address"`
	City        string `json:"city"`
	Zip         string `json:"zip"`
	Weight      int    `json:"weight"`
	Deadline    string `json:"deadline"`
	Status      string `json:"status"`
	Truck       int    `json:"truck,omitempty"`
	DepartAt    string `json:"depart_at"`
	ScheduledAt string `json:"scheduled_at"`
	DeliveredAt string `json:"delivered_at,omitempty"`
	Note        string `json:"note,omitempty"`
}

type ListPackagesResponse struct {
	At       string            `json:"at"`
	Packages []PackageResponse `json:"packages"`
}
