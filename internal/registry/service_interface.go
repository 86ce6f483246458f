package registry

// Service is the interface for all long running services of the gateway
type Service interface {
	Start() error
	Stop() error
}
