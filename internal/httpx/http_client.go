package httpx

import (
	"net/http"
	"time"
)

const defaultExternalHTTPTimeout = 30 * time.Second

var externalHTTPClient = &http.Client{
	Timeout: defaultExternalHTTPTimeout,
}

// ExternalHTTPClient is shared by every outbound generative backend call.
func ExternalHTTPClient() *http.Client {
	return externalHTTPClient
}

// ConfigureExternalHTTPClient sets the client timeout and returns the value
// applied. Non-positive input keeps the default.
func ConfigureExternalHTTPClient(timeoutSeconds int) time.Duration {
	timeout := defaultExternalHTTPTimeout
	if timeoutSeconds > 0 {
		timeout = time.Duration(timeoutSeconds) * time.Second
	}
	externalHTTPClient.Timeout = timeout
	return timeout
}
