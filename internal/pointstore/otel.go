package pointstore

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/OCAP2/pointmap/internal/pointstore"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}
