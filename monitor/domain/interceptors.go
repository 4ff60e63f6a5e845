package domain

// Interceptor defines a check applied to every parsed message of type K
// before it is accepted. Returning an error rejects the message.
type Interceptor[K any] interface {
	Apply(msg *K) error
}

// Interceptors runs a chain of interceptors in order.
type Interceptors[K any] struct {
	Interceptors []Interceptor[K]
}

// Apply executes all interceptors in order on the given message.
// The first error stops the chain and is returned unchanged.
func (i *Interceptors[K]) Apply(msg *K) error {
	if i == nil {
		return nil
	}
	for _, interceptor := range i.Interceptors {
		if err := interceptor.Apply(msg); err != nil {
			return err
		}
	}

	return nil
}

// WithInterceptors creates a new Interceptors instance with the provided interceptors.
// Example usage:
//
//	chain := WithInterceptors[Reading](
//	    infrastructure.NewReadingValidator(),
//	)
//	err := chain.Apply(&reading)
func WithInterceptors[K any](interceptors ...Interceptor[K]) *Interceptors[K] {
	return &Interceptors[K]{Interceptors: interceptors}
}
