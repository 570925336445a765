package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"retreat/internal/registration"
)

// Recorder exposes registration pipeline metrics. It satisfies
// registration.Observer.
type Recorder struct {
	Registrations *prometheus.CounterVec
	PhotoUploads  *prometheus.CounterVec
	Dispatch      prometheus.Histogram
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		Registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "retreat",
			Name:      "registrations_total",
			Help:      "Registrations by terminal outcome.",
		}, []string{"outcome"}),
		PhotoUploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "retreat",
			Name:      "photo_uploads_total",
			Help:      "Photo upload attempts by result.",
		}, []string{"result"}),
		Dispatch: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "retreat",
			Name:      "notification_dispatch_seconds",
			Help:      "Time spent rendering and sending the organiser email.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(r.Registrations, r.PhotoUploads, r.Dispatch)
	return r
}

func (r *Recorder) ObserveOutcome(o registration.Outcome) {
	r.Registrations.WithLabelValues(string(o)).Inc()
}

func (r *Recorder) ObservePhotoUpload(ok bool) {
	result := "ok"
	if !ok {
		result = "failed"
	}
	r.PhotoUploads.WithLabelValues(result).Inc()
}

func (r *Recorder) ObserveDispatch(d time.Duration) {
	r.Dispatch.Observe(d.Seconds())
}
