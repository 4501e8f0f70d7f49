package httpserver

import "time"

// ShutdownTimeout controls how long to wait for in-flight requests during graceful shutdowns.
var ShutdownTimeout = 10 * time.Second
