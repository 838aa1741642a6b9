package bookings

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/richxcame/ride-sharing/pkg/common"
)

var (
	bookingOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rideshare_booking_operations_total",
		Help: "Booking operations by outcome",
	}, []string{"operation", "outcome"})

	cascadeCancelledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rideshare_bookings_cascade_cancelled_total",
		Help: "Bookings cancelled because their ride was cancelled",
	})
)

func recordOperation(operation string, err error) {
	bookingOperationsTotal.WithLabelValues(operation, common.ErrorKind(err)).Inc()
}
