package table

import "expvar"

var (
	metricRoundsStarted   = expvar.NewInt("table_rounds_started_total")
	metricRoundsEnded     = expvar.NewInt("table_rounds_ended_total")
	metricRoundsCrashed   = expvar.NewInt("table_rounds_crashed_total")
	metricRejected        = expvar.NewInt("table_requests_rejected_total")
	metricDepositFailures = expvar.NewInt("table_deposit_failures_total")
	metricDepositRetries  = expvar.NewInt("table_deposit_retries_total")
	metricDepositDropped  = expvar.NewInt("table_deposit_dropped_total")
)
