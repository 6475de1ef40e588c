package paymentgateway

import (
	paymentgatewaytypes "github.com/frahmantamala/feegateway/internal/core/datamodel/paymentgateway"
)

// Factory picks the adapter for a tenant configuration. A configuration that
// has not explicitly left test mode always gets the simulation adapter.
type Factory struct {
	endpoints        map[paymentgatewaytypes.Provider]string
	simulatedBankURL string
}

type FactoryOption func(*Factory)

// WithProviderEndpoint overrides the endpoint of one live provider.
func WithProviderEndpoint(provider paymentgatewaytypes.Provider, url string) FactoryOption {
	return func(f *Factory) {
		if url != "" {
			f.endpoints[provider] = url
		}
	}
}

func WithSimulatedBankURL(url string) FactoryOption {
	return func(f *Factory) {
		if url != "" {
			f.simulatedBankURL = url
		}
	}
}

func NewFactory(opts ...FactoryOption) *Factory {
	f := &Factory{
		endpoints:        make(map[paymentgatewaytypes.Provider]string),
		simulatedBankURL: SimulatedBankPath,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Adapter returns the adapter for cfg.Provider.
func (f *Factory) Adapter(cfg paymentgatewaytypes.GatewayConfig) (Adapter, error) {
	return f.For(cfg.Provider, cfg)
}

// For returns the adapter for provider. Unknown providers are only an error
// once the configuration is live.
func (f *Factory) For(provider paymentgatewaytypes.Provider, cfg paymentgatewaytypes.GatewayConfig) (Adapter, error) {
	if !cfg.IsLive() {
		return NewSimulationAdapter(WithEndpoint(f.simulatedBankURL)), nil
	}

	provider = paymentgatewaytypes.ParseProvider(string(provider))
	opts := f.optionsFor(provider)

	switch provider {
	case paymentgatewaytypes.ProviderICICI:
		return asAdapter(NewICICIAdapter(cfg, opts...))
	case paymentgatewaytypes.ProviderHDFC:
		return asAdapter(NewHDFCAdapter(cfg, opts...))
	case paymentgatewaytypes.ProviderSBI:
		return asAdapter(NewSBIAdapter(cfg, opts...))
	case paymentgatewaytypes.ProviderAxis:
		return asAdapter(NewAxisAdapter(cfg, opts...))
	}
	return nil, &ConfigurationError{Provider: provider, Field: "provider", Err: ErrUnknownProvider}
}

// asAdapter keeps a failed constructor from producing a non-nil interface
// around a nil pointer.
func asAdapter[T Adapter](a T, err error) (Adapter, error) {
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (f *Factory) optionsFor(provider paymentgatewaytypes.Provider) []Option {
	if endpoint, ok := f.endpoints[provider]; ok {
		return []Option{WithEndpoint(endpoint)}
	}
	return nil
}
