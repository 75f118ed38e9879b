package txbuilder

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/params"
)

// Submission gas price is the network price plus a fixed 10% premium.
const (
	gasPricePremiumNum   = 110
	gasPricePremiumDenom = 100
)

type GasPricer struct {
	client ChainClient
}

func NewGasPricer(client ChainClient) *GasPricer {
	return &GasPricer{client: client}
}

// Price returns the network gas price scaled by 110/100, truncated.
func (p *GasPricer) Price(ctx context.Context) (*big.Int, error) {
	base, err := p.basePrice(ctx)
	if err != nil {
		return nil, err
	}
	return applyPremium(base), nil
}

// FeeQuote describes what a plain transfer would cost right now.
type FeeQuote struct {
	BasePrice    *big.Int
	Price        *big.Int
	BaseGasLimit uint64
	EstimatedFee *big.Int
}

// Quote prices a plain transfer at the intrinsic gas cost, without premium
// applied to the estimated fee.
func (p *GasPricer) Quote(ctx context.Context) (*FeeQuote, error) {
	base, err := p.basePrice(ctx)
	if err != nil {
		return nil, err
	}
	fee := new(big.Int).Mul(base, new(big.Int).SetUint64(params.TxGas))
	return &FeeQuote{
		BasePrice:    base,
		Price:        applyPremium(base),
		BaseGasLimit: params.TxGas,
		EstimatedFee: fee,
	}, nil
}

func (p *GasPricer) basePrice(ctx context.Context) (*big.Int, error) {
	if p.client == nil {
		return nil, errors.New("gas pricer client is nil")
	}
	price, err := p.client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, &NetworkError{Op: "get gas price", Err: err}
	}
	if price == nil || price.Sign() < 0 {
		return nil, &NetworkError{Op: "get gas price", Err: errors.New("malformed gas price")}
	}
	return new(big.Int).Set(price), nil
}

func applyPremium(base *big.Int) *big.Int {
	out := new(big.Int).Mul(base, big.NewInt(gasPricePremiumNum))
	return out.Div(out, big.NewInt(gasPricePremiumDenom))
}
