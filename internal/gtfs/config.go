package gtfs

import (
	"telemetrix.dev/internal/appconf"
)

// DefaultUserAgent identifies telemetrix to upstream feed operators.
const DefaultUserAgent = "telemetrix/1.0"

// Config holds the vehicle position feed settings.
type Config struct {
	VehiclePositionsURL string
	AuthHeaderKey       string
	AuthHeaderValue     string
	UserAgent           string
	Env                 appconf.Environment
	Verbose             bool
}

// headers returns the request headers sent with every feed fetch. The auth
// header is only sent when both its key and value are configured.
func (config Config) headers() map[string]string {
	headers := map[string]string{}
	if config.AuthHeaderKey != "" && config.AuthHeaderValue != "" {
		headers[config.AuthHeaderKey] = config.AuthHeaderValue
	}
	return headers
}

func (config Config) userAgent() string {
	if config.UserAgent == "" {
		return DefaultUserAgent
	}
	return config.UserAgent
}
