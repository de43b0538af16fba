package enums

import "fmt"

// EstimateItemType buckets an estimate line into labour, parts or fees.
type EstimateItemType string

const (
	EstimateItemTypeLabour EstimateItemType = "labour"
	EstimateItemTypePart   EstimateItemType = "part"
	EstimateItemTypeFee    EstimateItemType = "fee"
)

var validEstimateItemTypes = []EstimateItemType{
	EstimateItemTypeLabour,
	EstimateItemTypePart,
	EstimateItemTypeFee,
}

// String implements fmt.Stringer.
func (e EstimateItemType) String() string {
	return string(e)
}

// IsValid reports whether the value is a known EstimateItemType.
func (e EstimateItemType) IsValid() bool {
	for _, candidate := range validEstimateItemTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseEstimateItemType converts raw input into an EstimateItemType.
func ParseEstimateItemType(value string) (EstimateItemType, error) {
	for _, candidate := range validEstimateItemTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid estimate item type %q", value)
}
