package domain

import "fmt"

// DevNodeInstance describes a local development node managed by mangonel
type DevNodeInstance struct {
	Name    string
	Host    string
	Port    string
	ChainID string
	PidFile string
	LogFile string
}

// RPCURL returns the HTTP endpoint of the instance
func (d *DevNodeInstance) RPCURL() string {
	host := d.Host
	if host == "" {
		host = "127.0.0.1"
	}
	return fmt.Sprintf("http://%s:%s", host, d.Port)
}

// DevNodeStatus is the observed state of a dev node
type DevNodeStatus struct {
	Running     bool
	PID         int
	RPCURL      string
	LogFile     string
	Healthy     bool
	BlockNumber uint64
	HealthError string
}
