package reader

import (
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
)

const scopeName = "github.com/koscakluka/ema-reader/core"

var (
	tracer = otel.Tracer(scopeName)
	meter  = otel.Meter(scopeName)
	logger = otelslog.NewLogger(scopeName)
)

var (
	utterancesStarted, _ = meter.Int64Counter("reader.utterances.started")
	utterancesFailed, _  = meter.Int64Counter("reader.utterances.failed")
)
