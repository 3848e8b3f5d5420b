package courier

import (
	"fmt"
	"strings"

	"dispatch/internal/pkg/errs"
)

// VehicleType is the means of transport a courier uses.
type VehicleType int

const (
	UnknownVehicle VehicleType = iota
	Motorcycle
	Car
	Bicycle
	OnFoot
	Truck
)

// DefaultSpeedKmh applies to vehicles without a dedicated average speed.
const DefaultSpeedKmh = 20.0

func getVehicleStrings() map[VehicleType]string {
	return map[VehicleType]string{
		Motorcycle: "motorcycle",
		Car:        "car",
		Bicycle:    "bicycle",
		OnFoot:     "on_foot",
		Truck:      "truck",
	}
}

func ParseVehicleType(s string) (VehicleType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for vehicle, name := range getVehicleStrings() {
		if name == s {
			return vehicle, nil
		}
	}
	return UnknownVehicle, errs.NewValueIsInvalidErrorWithCause("vehicle type", fmt.Errorf("%q is not supported", s))
}

func (v VehicleType) Validate() error {
	if _, ok := getVehicleStrings()[v]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("vehicle type", fmt.Errorf("%d is not a valid vehicle type", v))
	}
	return nil
}

func (v VehicleType) String() string {
	if s, ok := getVehicleStrings()[v]; ok {
		return s
	}
	return "unknown"
}

// SpeedKmh is the average urban speed used for delivery estimates.
func (v VehicleType) SpeedKmh() float64 {
	switch v {
	case Motorcycle:
		return 30
	case Car:
		return 25
	case Bicycle:
		return 15
	case OnFoot:
		return 5
	default:
		return DefaultSpeedKmh
	}
}
