package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

// contractABI covers the read and write surface of the blackjack
// contract. Cards come over the wire as canonical 52-card indexes.
const contractABI = `[
  {"type":"function","name":"getGameState","stateMutability":"view",
   "inputs":[{"name":"player","type":"address"}],
   "outputs":[
     {"name":"gameId","type":"uint256"},
     {"name":"phase","type":"uint8"},
     {"name":"resolution","type":"uint8"},
     {"name":"playerCards","type":"uint8[]"},
     {"name":"dealerCards","type":"uint8[]"},
     {"name":"canHit","type":"bool"},
     {"name":"canStand","type":"bool"},
     {"name":"canStartNew","type":"bool"},
     {"name":"tradingPeriodEndsAt","type":"uint256"},
     {"name":"lastActionAt","type":"uint256"},
     {"name":"startedAt","type":"uint256"}]},
  {"type":"function","name":"claimableAmount","stateMutability":"view",
   "inputs":[{"name":"gameId","type":"uint256"},{"name":"player","type":"address"}],
   "outputs":[{"name":"amount","type":"uint256"}]},
  {"type":"function","name":"startGame","stateMutability":"payable","inputs":[],"outputs":[]},
  {"type":"function","name":"hit","stateMutability":"nonpayable","inputs":[],"outputs":[]},
  {"type":"function","name":"stand","stateMutability":"nonpayable","inputs":[],"outputs":[]},
  {"type":"function","name":"claimWinnings","stateMutability":"nonpayable",
   "inputs":[{"name":"gameId","type":"uint256"}],"outputs":[]}
]`

// receiptPollInterval is how often AwaitConfirmation re-checks for a
// mined receipt.
const receiptPollInterval = 2 * time.Second

// EthGateway talks to the blackjack contract over an Ethereum JSON-RPC
// endpoint, signing transactions with a single identity's key.
type EthGateway struct {
	client         *ethclient.Client
	contract       common.Address
	abi            abi.ABI
	key            *ecdsa.PrivateKey
	from           common.Address
	chainID        *big.Int
	clock          quartz.Clock
	logger         *log.Logger
	receiptTimeout time.Duration
}

var _ Gateway = (*EthGateway)(nil)

// EthGatewayOption customises an EthGateway.
type EthGatewayOption func(*EthGateway)

// WithReceiptTimeout bounds how long AwaitConfirmation waits for a
// transaction to be mined.
func WithReceiptTimeout(d time.Duration) EthGatewayOption {
	return func(g *EthGateway) { g.receiptTimeout = d }
}

// WithClock injects the clock used for receipt polling.
func WithClock(clock quartz.Clock) EthGatewayOption {
	return func(g *EthGateway) { g.clock = clock }
}

// NewEthGateway dials the RPC endpoint and binds the contract for the
// identity derived from privateKeyHex.
func NewEthGateway(ctx context.Context, rpcURL string, contractAddr string, privateKeyHex string, logger *log.Logger, opts ...EthGatewayOption) (*EthGateway, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial rpc: %w", err)
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}

	parsed, err := abi.JSON(strings.NewReader(contractABI))
	if err != nil {
		return nil, fmt.Errorf("parse contract abi: %w", err)
	}

	chainID, err := client.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch chain id: %w", err)
	}

	if !common.IsHexAddress(contractAddr) {
		return nil, fmt.Errorf("invalid contract address: %s", contractAddr)
	}

	g := &EthGateway{
		client:         client,
		contract:       common.HexToAddress(contractAddr),
		abi:            parsed,
		key:            key,
		from:           crypto.PubkeyToAddress(key.PublicKey),
		chainID:        chainID,
		clock:          quartz.NewReal(),
		logger:         logger.WithPrefix("eth"),
		receiptTimeout: 2 * time.Minute,
	}
	for _, opt := range opts {
		opt(g)
	}
	g.logger = g.logger.With("identity", g.from.Hex(), "contract", g.contract.Hex())
	return g, nil
}

// Identity returns the address this gateway signs for.
func (g *EthGateway) Identity() common.Address {
	return g.from
}

// Close releases the underlying RPC connection.
func (g *EthGateway) Close() {
	g.client.Close()
}

// FetchSnapshot calls getGameState and decodes the result.
func (g *EthGateway) FetchSnapshot(ctx context.Context) (*Snapshot, error) {
	data, err := g.abi.Pack("getGameState", g.from)
	if err != nil {
		return nil, fmt.Errorf("pack getGameState: %w", err)
	}

	out, err := g.client.CallContract(ctx, ethereum.CallMsg{To: &g.contract, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("call getGameState: %w", err)
	}

	vals, err := g.abi.Unpack("getGameState", out)
	if err != nil {
		return nil, fmt.Errorf("unpack getGameState: %w", err)
	}
	if len(vals) != 11 {
		return nil, fmt.Errorf("getGameState returned %d values, want 11", len(vals))
	}

	snap := &Snapshot{
		GameID:              vals[0].(*big.Int).Uint64(),
		Phase:               Phase(vals[1].(uint8)),
		Resolution:          Resolution(vals[2].(uint8)),
		CanHit:              vals[5].(bool),
		CanStand:            vals[6].(bool),
		CanStartNew:         vals[7].(bool),
		TradingPeriodEndsAt: time.Unix(vals[8].(*big.Int).Int64(), 0),
		LastActionAt:        time.Unix(vals[9].(*big.Int).Int64(), 0),
		StartedAt:           time.Unix(vals[10].(*big.Int).Int64(), 0),
	}
	if snap.Phase > PhaseFinished {
		return nil, fmt.Errorf("contract reported unknown phase %d", vals[1].(uint8))
	}

	if snap.PlayerCards, err = decodeCards(vals[3].([]uint8)); err != nil {
		return nil, fmt.Errorf("decode player cards: %w", err)
	}
	if snap.DealerCards, err = decodeCards(vals[4].([]uint8)); err != nil {
		return nil, fmt.Errorf("decode dealer cards: %w", err)
	}

	snap.Derive(g.clock.Now())
	return snap, nil
}

// Submit signs and broadcasts the contract write for the given action.
func (g *EthGateway) Submit(ctx context.Context, action Action) (TxRef, error) {
	var (
		data  []byte
		value *big.Int
		err   error
	)
	switch action.Kind {
	case ActionStart:
		if action.Wager == nil || action.Wager.Sign() <= 0 {
			return "", fmt.Errorf("start requires a positive wager")
		}
		value = action.Wager
		data, err = g.abi.Pack("startGame")
	case ActionHit:
		data, err = g.abi.Pack("hit")
	case ActionStand:
		data, err = g.abi.Pack("stand")
	case ActionClaim:
		data, err = g.abi.Pack("claimWinnings", new(big.Int).SetUint64(action.GameID))
	default:
		return "", fmt.Errorf("unknown action kind %d", action.Kind)
	}
	if err != nil {
		return "", fmt.Errorf("pack %s: %w", action.Kind, err)
	}

	nonce, err := g.client.PendingNonceAt(ctx, g.from)
	if err != nil {
		return "", fmt.Errorf("fetch nonce: %w", err)
	}
	gasPrice, err := g.client.SuggestGasPrice(ctx)
	if err != nil {
		return "", fmt.Errorf("suggest gas price: %w", err)
	}
	gas, err := g.client.EstimateGas(ctx, ethereum.CallMsg{
		From:  g.from,
		To:    &g.contract,
		Value: value,
		Data:  data,
	})
	if err != nil {
		return "", fmt.Errorf("estimate gas for %s: %w", action.Kind, err)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: gasPrice,
		Gas:      gas + gas/5, // headroom over the estimate
		To:       &g.contract,
		Value:    value,
		Data:     data,
	})
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(g.chainID), g.key)
	if err != nil {
		return "", fmt.Errorf("sign %s: %w", action.Kind, err)
	}

	if err := g.client.SendTransaction(ctx, signed); err != nil {
		return "", fmt.Errorf("send %s: %w", action.Kind, err)
	}

	ref := TxRef(signed.Hash().Hex())
	g.logger.Info("submitted transaction", "action", action.Kind.String(), "tx", string(ref), "nonce", nonce)
	return ref, nil
}

// AwaitConfirmation polls for the transaction receipt until it lands or
// the receipt timeout elapses.
func (g *EthGateway) AwaitConfirmation(ctx context.Context, ref TxRef) (*Receipt, error) {
	hash := common.HexToHash(string(ref))
	start := g.clock.Now()

	for {
		receipt, err := g.client.TransactionReceipt(ctx, hash)
		switch {
		case err == nil:
			return &Receipt{
				TxRef:       ref,
				Succeeded:   receipt.Status == types.ReceiptStatusSuccessful,
				BlockNumber: receipt.BlockNumber.Uint64(),
			}, nil
		case errors.Is(err, ethereum.NotFound):
			// not mined yet
		default:
			return nil, fmt.Errorf("fetch receipt: %w", err)
		}

		if g.clock.Since(start) >= g.receiptTimeout {
			return nil, fmt.Errorf("transaction %s not mined after %s", ref, g.receiptTimeout)
		}

		timer := g.clock.NewTimer(receiptPollInterval, "receipt")
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

// ClaimableAmount calls claimableAmount for the gateway's identity.
func (g *EthGateway) ClaimableAmount(ctx context.Context, gameID uint64) (*big.Int, error) {
	data, err := g.abi.Pack("claimableAmount", new(big.Int).SetUint64(gameID), g.from)
	if err != nil {
		return nil, fmt.Errorf("pack claimableAmount: %w", err)
	}
	out, err := g.client.CallContract(ctx, ethereum.CallMsg{To: &g.contract, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("call claimableAmount: %w", err)
	}
	vals, err := g.abi.Unpack("claimableAmount", out)
	if err != nil {
		return nil, fmt.Errorf("unpack claimableAmount: %w", err)
	}
	if len(vals) != 1 {
		return nil, fmt.Errorf("claimableAmount returned %d values, want 1", len(vals))
	}
	return vals[0].(*big.Int), nil
}
