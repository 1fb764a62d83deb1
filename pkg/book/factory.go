package book

import "fmt"

// OrderRequest carries the fields an order producer supplies. Which fields
// apply depends on the kind: Price for limit orders, PartialFill and
// FallbackPrice for market orders.
type OrderRequest struct {
	ID            int64
	Asset         string
	Side          Side
	Price         int64
	Qty           int64
	PartialFill   PartialFill
	FallbackPrice int64
}

type builder func(OrderRequest) (*Order, error)

// Factory turns a kind tag plus request fields into a validated order.
// The builder table is fixed at construction; there is no runtime
// registration.
type Factory struct {
	builders map[Kind]builder
}

// NewFactory builds the factory with the two supported kinds.
func NewFactory() *Factory {
	return &Factory{
		builders: map[Kind]builder{
			KindLimit: func(r OrderRequest) (*Order, error) {
				return NewLimitOrder(r.ID, r.Price, r.Qty, r.Side, r.Asset)
			},
			KindMarket: func(r OrderRequest) (*Order, error) {
				return NewMarketOrder(r.ID, r.Qty, r.Side, r.Asset, r.PartialFill, r.FallbackPrice)
			},
		},
	}
}

// Create builds a validated order of the given kind, or fails with an
// invalid-order-type or validation error.
func (f *Factory) Create(kind Kind, req OrderRequest) (*Order, error) {
	build, ok := f.builders[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownOrderKind, kind)
	}
	return build(req)
}

// ParseKind maps a kind tag to its Kind, for order producers speaking text.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "limit":
		return KindLimit, nil
	case "market":
		return KindMarket, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownOrderKind, s)
	}
}

// ParseSide maps "buy"/"sell" to a Side.
func ParseSide(s string) (Side, error) {
	switch s {
	case "buy":
		return Buy, nil
	case "sell":
		return Sell, nil
	default:
		return 0, fmt.Errorf("invalid side %q", s)
	}
}

// ParsePartialFill maps a partial-fill tag to its PartialFill. The empty
// string defaults to cancel, matching the producer's default behavior.
func ParsePartialFill(s string) (PartialFill, error) {
	switch s {
	case "", "cancel":
		return CancelRemainder, nil
	case "convert_to_limit":
		return ConvertToLimit, nil
	default:
		return 0, fmt.Errorf("invalid partial fill behavior %q", s)
	}
}
