package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	MessagesSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cloudclip_messages_sent_total",
			Help: "Total number of text messages stored",
		},
	)

	FilesUploaded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cloudclip_files_uploaded_total",
			Help: "Total number of files stored",
		},
	)

	FilesDownloaded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cloudclip_files_downloaded_total",
			Help: "Total number of file downloads served",
		},
	)

	BlobDeleteFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cloudclip_blob_delete_failures_total",
			Help: "Blob deletes that failed during compensation or cascade cleanup",
		},
	)
)

// Init registers metrics with Prometheus
func Init() {
	prometheus.MustRegister(MessagesSent)
	prometheus.MustRegister(FilesUploaded)
	prometheus.MustRegister(FilesDownloaded)
	prometheus.MustRegister(BlobDeleteFailures)
}

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
