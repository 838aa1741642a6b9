package rides

import (
	"time"

	"github.com/richxcame/ride-sharing/pkg/common"
	"github.com/richxcame/ride-sharing/pkg/models"
)

// transitionRule describes how a ride may reach a target status
type transitionRule struct {
	from       models.RideStatus
	wrongState string

	allowed     func(ride *models.Ride, now time.Time, currentLocation string) bool
	guardFailed string
}

// rideTransitions is keyed by target status. Targets missing from the table
// cannot be reached by an explicit transition.
var rideTransitions = map[models.RideStatus]transitionRule{
	models.RideStatusInProgress: {
		from:       models.RideStatusScheduled,
		wrongState: "ride status must be SCHEDULED to start the ride",
		allowed: func(ride *models.Ride, now time.Time, _ string) bool {
			return !now.Before(ride.DepartureTime)
		},
		guardFailed: "ride cannot be started before the departure time",
	},
	models.RideStatusCompleted: {
		from:       models.RideStatusInProgress,
		wrongState: "ride must be IN_PROGRESS to be completed",
		allowed: func(ride *models.Ride, _ time.Time, currentLocation string) bool {
			return currentLocation == ride.EndLocation
		},
		guardFailed: "ride cannot be completed unless the location matches the destination",
	},
	models.RideStatusCancelled: {
		from:       models.RideStatusScheduled,
		wrongState: "only SCHEDULED rides can be canceled",
		allowed: func(ride *models.Ride, now time.Time, _ string) bool {
			return now.Before(ride.DepartureTime)
		},
		guardFailed: "ride cannot be canceled after departure time",
	},
}

// CanTransition reports whether from -> to is an edge of the state machine,
// ignoring guards
func CanTransition(from, to models.RideStatus) bool {
	rule, ok := rideTransitions[to]
	return ok && rule.from == from
}

// checkTransition returns nil when ride may move to target at now
func checkTransition(ride *models.Ride, target models.RideStatus, now time.Time, currentLocation string) error {
	rule, ok := rideTransitions[target]
	if !ok {
		return common.NewBadRequestError("unsupported ride status transition", nil)
	}
	if ride.Status != rule.from {
		return common.NewBadRequestError(rule.wrongState, nil)
	}
	if !rule.allowed(ride, now, currentLocation) {
		return common.NewBadRequestError(rule.guardFailed, nil)
	}
	return nil
}
