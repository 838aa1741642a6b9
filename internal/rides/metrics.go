package rides

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/richxcame/ride-sharing/pkg/common"
)

var rideOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "rideshare_ride_operations_total",
	Help: "Ride lifecycle operations by outcome",
}, []string{"operation", "outcome"})

func recordOperation(operation string, err error) {
	rideOperationsTotal.WithLabelValues(operation, common.ErrorKind(err)).Inc()
}
