package utilities

import (
	"fmt"
	"net"
	"strconv"

	consulapi "github.com/hashicorp/consul/api"
)

// ServiceRegistration describes how the server announces itself to consul.
type ServiceRegistration struct {
	Name       string
	Address    string
	HTTPPort   int
	HealthPort int
	Tags       []string
}

// ID is the consul service id, unique per address and port.
func (r ServiceRegistration) ID() string {
	return fmt.Sprintf("%s-%s-%d", r.Name, r.Address, r.HTTPPort)
}

func (r ServiceRegistration) agentRegistration() *consulapi.AgentServiceRegistration {
	return &consulapi.AgentServiceRegistration{
		ID:      r.ID(),
		Name:    r.Name,
		Address: r.Address,
		Port:    r.HTTPPort,
		Tags:    r.Tags,
		Check: &consulapi.AgentServiceCheck{
			GRPC:                           net.JoinHostPort(r.Address, strconv.Itoa(r.HealthPort)),
			Interval:                       "10s",
			Timeout:                        "3s",
			DeregisterCriticalServiceAfter: "1m",
		},
	}
}

// RegisterService registers the service with the consul agent at consulAddr and
// returns a function that deregisters it.
func RegisterService(consulAddr string, reg ServiceRegistration) (func() error, error) {
	cfg := consulapi.DefaultConfig()
	cfg.Address = consulAddr

	client, err := consulapi.NewClient(cfg)
	if err != nil {
		return nil, err
	}

	if err := client.Agent().ServiceRegister(reg.agentRegistration()); err != nil {
		return nil, err
	}

	return func() error {
		return client.Agent().ServiceDeregister(reg.ID())
	}, nil
}
