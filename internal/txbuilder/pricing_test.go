package txbuilder

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func TestGasPricer_Price(t *testing.T) {
	t.Parallel()

	t.Run("applies ten percent premium", func(t *testing.T) {
		t.Parallel()

		pricer := NewGasPricer(&fakeClient{gasPrice: big.NewInt(1_000_000_000)})
		price, err := pricer.Price(context.Background())
		require.NoError(t, err)
		require.Equal(t, "1100000000", price.String())
	})

	t.Run("truncates", func(t *testing.T) {
		t.Parallel()

		pricer := NewGasPricer(&fakeClient{gasPrice: big.NewInt(19)})
		price, err := pricer.Price(context.Background())
		require.NoError(t, err)
		require.Equal(t, int64(20), price.Int64())
	})

	t.Run("endpoint failure is a network error", func(t *testing.T) {
		t.Parallel()

		pricer := NewGasPricer(&fakeClient{gasPriceErr: errUnreachable})
		_, err := pricer.Price(context.Background())
		var nerr *NetworkError
		require.ErrorAs(t, err, &nerr)
		require.Equal(t, "get gas price", nerr.Op)
		require.ErrorIs(t, err, errUnreachable)
	})

	t.Run("nil price is malformed", func(t *testing.T) {
		t.Parallel()

		pricer := NewGasPricer(&fakeClient{})
		_, err := pricer.Price(context.Background())
		var nerr *NetworkError
		require.ErrorAs(t, err, &nerr)
	})
}

func TestGasPricer_Quote(t *testing.T) {
	t.Parallel()

	pricer := NewGasPricer(&fakeClient{gasPrice: big.NewInt(100_000_000)})
	quote, err := pricer.Quote(context.Background())
	require.NoError(t, err)
	require.Equal(t, uint64(21000), quote.BaseGasLimit)
	require.Equal(t, "100000000", quote.BasePrice.String())
	require.Equal(t, "110000000", quote.Price.String())
	require.Equal(t, "2100000000000", quote.EstimatedFee.String())
}

func TestGasEstimator_Estimate(t *testing.T) {
	t.Parallel()

	from := common.HexToAddress("0xF14Beb2A3A05eFBb1e6cfF1F1Ac073468412bA37")
	to := common.HexToAddress("0x6FC35791B6D73Fc90951aF166134fFDBa4E933E9")

	t.Run("buffers the simulated estimate", func(t *testing.T) {
		t.Parallel()

		client := &fakeClient{estimate: 30000}
		gas, err := NewGasEstimator(client, nil).Estimate(context.Background(), from, to, big.NewInt(5))
		require.NoError(t, err)
		require.Equal(t, uint64(36000), gas)

		require.Len(t, client.estimateCalls, 1)
		msg := client.estimateCalls[0]
		require.Equal(t, from, msg.From)
		require.Equal(t, to, *msg.To)
		require.Empty(t, msg.Data)
	})

	t.Run("falls back to intrinsic transfer cost", func(t *testing.T) {
		t.Parallel()

		client := &fakeClient{estimateErr: errors.New("method not supported")}
		gas, err := NewGasEstimator(client, nil).Estimate(context.Background(), from, to, big.NewInt(5))
		require.NoError(t, err)
		require.Equal(t, uint64(25200), gas)
	})

	t.Run("zero estimate falls back too", func(t *testing.T) {
		t.Parallel()

		gas, err := NewGasEstimator(&fakeClient{}, nil).Estimate(context.Background(), from, to, big.NewInt(5))
		require.NoError(t, err)
		require.Equal(t, uint64(25200), gas)
	})
}

func Test_applyGasBuffer(t *testing.T) {
	t.Parallel()

	require.Equal(t, uint64(25200), applyGasBuffer(21000))
	require.Equal(t, uint64(1), applyGasBuffer(1))
	require.Equal(t, uint64(121), applyGasBuffer(101))
}

func TestBalanceChecker_Check(t *testing.T) {
	t.Parallel()

	from := common.HexToAddress("0xF14Beb2A3A05eFBb1e6cfF1F1Ac073468412bA37")

	t.Run("reports shortfall", func(t *testing.T) {
		t.Parallel()

		checker := NewBalanceChecker(&fakeClient{balance: big.NewInt(100)})
		_, err := checker.Check(context.Background(), from, big.NewInt(50), big.NewInt(5), 20)

		var ferr *InsufficientFundsError
		require.ErrorAs(t, err, &ferr)
		require.Equal(t, int64(100), ferr.Balance.Int64())
		require.Equal(t, int64(150), ferr.TotalCost.Int64())
		require.Equal(t, int64(50), ferr.Shortfall.Int64())
	})

	t.Run("exact balance is sufficient", func(t *testing.T) {
		t.Parallel()

		checker := NewBalanceChecker(&fakeClient{balance: big.NewInt(150)})
		cost, err := checker.Check(context.Background(), from, big.NewInt(50), big.NewInt(5), 20)
		require.NoError(t, err)
		require.Equal(t, int64(100), cost.MaxFee.Int64())
		require.Equal(t, int64(150), cost.Total.Int64())
	})

	t.Run("balance failure is a network error", func(t *testing.T) {
		t.Parallel()

		checker := NewBalanceChecker(&fakeClient{balanceErr: errUnreachable})
		_, err := checker.Check(context.Background(), from, big.NewInt(1), big.NewInt(1), 21000)
		var nerr *NetworkError
		require.ErrorAs(t, err, &nerr)
		require.Equal(t, "get balance", nerr.Op)
	})
}

func TestInsufficientFundsError_Error(t *testing.T) {
	t.Parallel()

	err := newInsufficientFunds(big.NewInt(500_000_000_000_000_000), big.NewInt(1_250_000_000_000_000_000))
	require.Equal(t, "insufficient funds: balance 0.5 ETH, required 1.25 ETH, short 0.75 ETH", err.Error())
}

func TestChainNonceSource(t *testing.T) {
	t.Parallel()

	addr := common.HexToAddress("0x1111111111111111111111111111111111111111")
	client := &fakeClient{nonce: 4}
	src := NewChainNonceSource(client)

	n, err := src.Next(context.Background(), addr)
	require.NoError(t, err)
	require.Equal(t, uint64(4), n)
	n, err = src.Next(context.Background(), addr)
	require.NoError(t, err)
	require.Equal(t, uint64(4), n)
	require.Equal(t, 2, client.nonceCalls)

	_, err = NewChainNonceSource(&fakeClient{nonceErr: errUnreachable}).Next(context.Background(), addr)
	var nerr *NetworkError
	require.ErrorAs(t, err, &nerr)
	require.Equal(t, "get nonce", nerr.Op)
}

func TestNonceManager(t *testing.T) {
	t.Parallel()

	addr := common.HexToAddress("0x1111111111111111111111111111111111111111")
	client := &fakeClient{nonce: 9}
	m := NewNonceManager(client)

	for want := uint64(9); want < 12; want++ {
		n, err := m.Next(context.Background(), addr)
		require.NoError(t, err)
		require.Equal(t, want, n)
	}
	require.Equal(t, 1, client.nonceCalls)

	m.Reset(addr)
	n, err := m.Next(context.Background(), addr)
	require.NoError(t, err)
	require.Equal(t, uint64(9), n)
	require.Equal(t, 2, client.nonceCalls)
}

func TestFormatUnits(t *testing.T) {
	t.Parallel()

	require.Equal(t, "0", FormatEther(nil))
	require.Equal(t, "0.00001", FormatEther(big.NewInt(10_000_000_000_000)))
	require.Equal(t, "1.1", FormatGwei(big.NewInt(1_100_000_000)))
	require.Equal(t, "123", FormatUnits(big.NewInt(123), 0))
}

func TestParseWei(t *testing.T) {
	t.Parallel()

	v, err := ParseWei("12345")
	require.NoError(t, err)
	require.Equal(t, int64(12345), v.Int64())

	v, err = ParseWei("0x10")
	require.NoError(t, err)
	require.Equal(t, int64(16), v.Int64())

	for _, in := range []string{"-5", "0x", "0xzz", "0x-1", "1.5", "1e3", ""} {
		_, err = ParseWei(in)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr, in)
	}
}
