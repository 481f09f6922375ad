package httptransport

import "expvar"

var (
	metricTableRequestsTotal = expvar.NewInt("http_table_requests_total")
	metricTableRequestErrors = expvar.NewInt("http_table_request_errors_total")
	metricDealTotal          = expvar.NewInt("http_deal_total")
)
