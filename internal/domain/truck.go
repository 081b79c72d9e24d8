package domain

import "fmt"

const (
	DefaultTruckCapacity = 16
	DefaultTruckSpeed    = 18.0
)

// Delivery truck. Capacity is the maximum number of packages per trip and
// Speed is distance units per hour. Miles accumulates committed segment lengths.
type Truck struct {
	TruckID  int
	Capacity int
	Speed    float64
	Miles    float64
}

func NewTruck(id int, capacity int, speed float64) *Truck {
	if capacity <= 0 {
		capacity = DefaultTruckCapacity
	}
	if speed <= 0 {
		speed = DefaultTruckSpeed
	}
	return &Truck{
		TruckID:  id,
		Capacity: capacity,
		Speed:    speed,
	}
}

// NewFleet creates count trucks numbered from 1.
func NewFleet(count, capacity int, speed float64) []*Truck {
	fleet := make([]*Truck, 0, count)
	for i := 0; i < count; i++ {
		fleet = append(fleet, NewTruck(i+1, capacity, speed))
	}
	return fleet
}

// Travel returns the hours needed to cover distance.
func (t *Truck) Travel(distance float64) float64 {
	return distance / t.Speed
}

// Fits reports whether n more packages can join a load of loaded packages.
func (t *Truck) Fits(loaded, n int) bool {
	return loaded+n <= t.Capacity
}

// Record a committed trip.
func (t *Truck) Drive(distance float64) error {
	if distance < 0 {
		return fmt.Errorf("drive truck %d: negative distance %.2f", t.TruckID, distance)
	}
	t.Miles += distance
	return nil
}

// Reset clears the derived mileage.
func (t *Truck) Reset() {
	t.Miles = 0
}

// MaxCapacity returns the largest capacity in the fleet.
func MaxCapacity(fleet []*Truck) int {
	max := 0
	for _, t := range fleet {
		if t.Capacity > max {
			max = t.Capacity
		}
	}
	return max
}
