package config

import (
	"net/http"

	"github.com/james-see/rollgen/pkg/client"
	"github.com/james-see/rollgen/pkg/job"
)

// Backend builds a generation service client from the configuration
func (c *Config) Backend() (*client.Client, error) {
	framing, err := client.FramingByName(c.Framing)
	if err != nil {
		return nil, err
	}
	return client.New(c.BackendURL,
		client.WithFraming(framing),
		client.WithHTTPClient(&http.Client{Timeout: c.HTTPTimeout}),
	), nil
}

// PollPolicy is the job polling schedule
func (c *Config) PollPolicy() job.Policy {
	return job.Policy{Interval: c.PollInterval, MaxAttempts: c.PollMaxAttempts}
}
