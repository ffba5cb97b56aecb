package httpapi

import "time"

// healthCheckTimeout bounds how long GET /health waits on each backing
// service before reporting it unavailable.
const healthCheckTimeout = 3 * time.Second
