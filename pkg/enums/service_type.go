package enums

import "fmt"

// ServiceType classifies the scope of work requested on a booking.
type ServiceType string

const (
	ServiceTypeDiagnosisOnly ServiceType = "diagnosis_only"
	ServiceTypeMinor         ServiceType = "minor"
	ServiceTypeRegular       ServiceType = "regular"
	ServiceTypeMajor         ServiceType = "major"
	ServiceTypeACService     ServiceType = "ac_service"
	ServiceTypeElectrical    ServiceType = "electrical"
	ServiceTypeBattery       ServiceType = "battery"
	ServiceTypeTyre          ServiceType = "tyre"
)

var validServiceTypes = []ServiceType{
	ServiceTypeDiagnosisOnly,
	ServiceTypeMinor,
	ServiceTypeRegular,
	ServiceTypeMajor,
	ServiceTypeACService,
	ServiceTypeElectrical,
	ServiceTypeBattery,
	ServiceTypeTyre,
}

// String implements fmt.Stringer.
func (s ServiceType) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ServiceType.
func (s ServiceType) IsValid() bool {
	for _, candidate := range validServiceTypes {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseServiceType converts raw input into a ServiceType.
func ParseServiceType(value string) (ServiceType, error) {
	for _, candidate := range validServiceTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid service type %q", value)
}

// ServiceCategory routes a job to the workshop bay that handles it.
type ServiceCategory string

const (
	ServiceCategoryMechanical ServiceCategory = "mechanical"
	ServiceCategoryElectrical ServiceCategory = "electrical"
	ServiceCategoryBodyShop   ServiceCategory = "body_shop"
	ServiceCategoryDetailing  ServiceCategory = "detailing"
)

var validServiceCategories = []ServiceCategory{
	ServiceCategoryMechanical,
	ServiceCategoryElectrical,
	ServiceCategoryBodyShop,
	ServiceCategoryDetailing,
}

// IsValid reports whether the value is a known ServiceCategory.
func (s ServiceCategory) IsValid() bool {
	for _, candidate := range validServiceCategories {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseServiceCategory converts raw input into a ServiceCategory.
func ParseServiceCategory(value string) (ServiceCategory, error) {
	for _, candidate := range validServiceCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid service category %q", value)
}

// DeliveryType records how the vehicle reaches the workshop.
type DeliveryType string

const (
	DeliveryTypeDropOff DeliveryType = "drop_off"
	DeliveryTypePickup  DeliveryType = "pickup"
)

var validDeliveryTypes = []DeliveryType{
	DeliveryTypeDropOff,
	DeliveryTypePickup,
}

// IsValid reports whether the value is a known DeliveryType.
func (d DeliveryType) IsValid() bool {
	for _, candidate := range validDeliveryTypes {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDeliveryType converts raw input into a DeliveryType.
func ParseDeliveryType(value string) (DeliveryType, error) {
	for _, candidate := range validDeliveryTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid delivery type %q", value)
}
