package enums

import "fmt"

// ActorType identifies who performed a logged action.
type ActorType string

const (
	ActorTypeUser     ActorType = "user"
	ActorTypeMerchant ActorType = "merchant"
	ActorTypeAdmin    ActorType = "admin"
	ActorTypeSystem   ActorType = "system"
)

var validActorTypes = []ActorType{
	ActorTypeUser,
	ActorTypeMerchant,
	ActorTypeAdmin,
	ActorTypeSystem,
}

// IsValid checks whether the given type matches the canonical enum.
func (a ActorType) IsValid() bool {
	for _, candidate := range validActorTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseActorType converts raw strings into ActorType.
func ParseActorType(value string) (ActorType, error) {
	for _, candidate := range validActorTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid actor type %q", value)
}
