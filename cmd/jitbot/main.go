// Command jitbot is the pipeline's entry point: a single binary with
// start/status subcommands, wiring components D through H behind the
// config and safety gates described in spec §6 — generalized from
// blackholedex's cmd/main.go (which wired one ethclient, one strategy,
// and one reporting channel by hand) into urfave/cli/v2 subcommands.
package main

import (
	"context"
	"fmt"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"

	"github.com/jitbot/jitliquidity/config"
	"github.com/jitbot/jitliquidity/internal/abis"
	"github.com/jitbot/jitliquidity/internal/bundle"
	"github.com/jitbot/jitliquidity/internal/contractclient"
	"github.com/jitbot/jitliquidity/internal/coordinator"
	"github.com/jitbot/jitliquidity/internal/db"
	"github.com/jitbot/jitliquidity/internal/errs"
	"github.com/jitbot/jitliquidity/internal/events"
	"github.com/jitbot/jitliquidity/internal/evaluator"
	"github.com/jitbot/jitliquidity/internal/logging"
	"github.com/jitbot/jitliquidity/internal/mempool"
	"github.com/jitbot/jitliquidity/internal/metrics"
	"github.com/jitbot/jitliquidity/internal/oracle"
	"github.com/jitbot/jitliquidity/internal/poolcache"
	"github.com/jitbot/jitliquidity/internal/profitmath"
	"github.com/jitbot/jitliquidity/internal/relay"
	"github.com/jitbot/jitliquidity/internal/util"
	"github.com/jitbot/jitliquidity/jit"
)

var log = logging.New("main")

func main() {
	app := &cli.App{
		Name:  "jitbot",
		Usage: "JIT liquidity opportunity pipeline",
		Commands: []*cli.Command{
			startCommand(),
			statusCommand(),
		},
	}
	if err := app.Run(os.Args); err != nil {
		log.Errorf("%v", err)
		os.Exit(exitCodeFor(err))
	}
}

// exitCodeFor maps the error taxonomy (spec §6: "non-zero on
// configuration or connectivity failure") to a process exit code.
func exitCodeFor(err error) int {
	tagged, ok := err.(*errs.Error)
	if !ok {
		return 1
	}
	switch tagged.Category {
	case errs.CategoryConfig:
		return 2
	case errs.CategoryRPC:
		return 3
	case errs.CategorySafety, errs.CategoryInvariant:
		return 4
	default:
		return 1
	}
}

func startCommand() *cli.Command {
	return &cli.Command{
		Name:  "start",
		Usage: "run the pipeline until interrupted",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Value: "config.yml", EnvVars: []string{"JITBOT_CONFIG"}},
			&cli.StringFlag{Name: "pools", Value: "pools.json", EnvVars: []string{"JITBOT_POOLS"}},
			&cli.StringFlag{Name: "env-file", Value: ".env"},
		},
		Action: runStart,
	}
}

func statusCommand() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "query a running pipeline's metrics endpoint",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "metrics-addr", Value: "http://localhost:9090/metrics"},
		},
		Action: func(c *cli.Context) error {
			resp, err := http.Get(c.String("metrics-addr"))
			if err != nil {
				return errs.RPC("status_check_failed", err)
			}
			defer resp.Body.Close()
			fmt.Printf("metrics endpoint responded with status %s\n", resp.Status)
			return nil
		},
	}
}

// pipeline bundles every wired component runStart assembles, so the
// event loop can be handed a single value instead of a dozen arguments.
type pipeline struct {
	cfg       *config.Config
	pools     *config.PoolIndex
	ethClient *ethclient.Client
	wsClient  *ethclient.Client
	signer    *bundle.Signer

	watcher     *mempool.Watcher
	evaluator   *evaluator.Evaluator
	coord       *coordinator.Coordinator
	builder     *bundle.Builder
	submitter   *relay.Submitter
	fees        bundle.FeeEstimator
	priceOracle *oracle.PriceOracle
	recorder    *db.Recorder
	reg         *metrics.Registry
	eventCh     chan string
	ledger      *events.Ledger

	// capitalSource names the head of cfg.FlashloanProviderPriority, the
	// liquidity source the mint call's capital is attributed to in
	// telemetry. The pipeline itself always funds mints from the
	// signer's own wallet balance; no flashloan draw-down is performed.
	capitalSource string
}

func runStart(c *cli.Context) error {
	if err := godotenv.Load(c.String("env-file")); err != nil {
		log.Warnf("no .env file loaded from %s: %v", c.String("env-file"), err)
	}

	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return errs.Config("config_load_failed", err)
	}

	poolDescriptors, err := config.LoadPoolDescriptors(c.String("pools"))
	if err != nil {
		return errs.Config("pool_descriptor_load_failed", err)
	}
	poolIndex := config.NewPoolIndex(poolDescriptors)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	p, err := wire(ctx, cfg, poolDescriptors, poolIndex)
	if err != nil {
		return err
	}
	defer p.close()

	log.Infof("starting pipeline (dry_run=%v, pools=%d, relays=%d)", cfg.DryRun, len(poolDescriptors), 1+len(cfg.AdditionalRelayURLs))

	go func() {
		if err := p.watcher.Run(ctx); err != nil && ctx.Err() == nil {
			log.Errorf("mempool watcher exited: %v", err)
		}
	}()

	p.run(ctx)

	log.Infof("pipeline shut down cleanly")
	return nil
}

// wire constructs every component (D through H plus the ambient stack)
// against live RPC connections, following blackholedex's cmd/main.go
// sequence: decrypt the signing key, dial the node, build the strategy's
// dependencies, then hand them to the run loop.
func wire(ctx context.Context, cfg *config.Config, poolDescriptors map[string]*jit.PoolDescriptor, poolIndex *config.PoolIndex) (*pipeline, error) {
	httpClient, err := ethclient.DialContext(ctx, cfg.RPCURLHTTP)
	if err != nil {
		return nil, errs.RPC("rpc_http_dial_failed", err)
	}
	wsClient, err := ethclient.DialContext(ctx, cfg.RPCURLWS)
	if err != nil {
		return nil, errs.RPC("rpc_ws_dial_failed", err)
	}

	signer, err := loadSigner(ctx, httpClient, cfg)
	if err != nil {
		return nil, err
	}

	reg := metrics.New()
	go serveMetrics(cfg.MetricsAddr, reg)

	recorder, err := db.NewRecorder(cfg.MySQLDSN)
	if err != nil {
		log.Warnf("observability recorder unavailable, continuing without persistence: %v", err)
		recorder = nil
	}

	priceOracle := oracle.NewPriceOracle(noopPriceSource{}, stablecoinFallbackTable())
	gasOracle := oracle.NewGasOracle(httpClient, cfg.MaxGasGwei)

	poolABI := abis.MustParse(abis.PoolJSON)
	erc20ABI := abis.MustParse(abis.ERC20JSON)
	poolClients := make(map[common.Address]*contractclient.ContractClient, len(poolDescriptors))
	tokenClients := make(map[common.Address]*contractclient.ContractClient)
	for _, pd := range poolDescriptors {
		poolClients[pd.Address] = contractclient.NewContractClient(httpClient, pd.Address, poolABI)
		tokenClients[pd.Token0] = contractclient.NewContractClient(httpClient, pd.Token0, erc20ABI)
		tokenClients[pd.Token1] = contractclient.NewContractClient(httpClient, pd.Token1, erc20ABI)
	}
	stateCache := poolcache.New(poolcache.NewContractClientFetcher(poolClients, tokenClients))

	eval := evaluator.New(stateCache, priceOracle, gasOracle, nil, evaluator.Config{
		GlobalMinProfitUSD: cfg.GlobalMinProfitUSD,
		RiskBufferUSD:      1.0,
		DefaultRangeWidth:  cfg.DefaultRangeWidth,
		GasConstants:       profitmath.DefaultGasConstants,
	})

	coord := coordinator.New(coordinator.Config{
		MaxBundlesPerBlock: cfg.MaxBundlesPerBlock,
		PoolMaxFailures:    cfg.PoolMaxFailures,
		PoolCooldown:       cfg.PoolCooldown(),
	})

	eventCh := make(chan string, 256)

	routerABI := abis.MustParse(abis.RouterJSON)
	decoder := mempool.NewDecoder(routerABI, poolABI)
	watcher := mempool.NewWatcher(
		pendingTxSource{client: wsClient},
		rawTxFetcher{client: httpClient},
		decoder,
		poolIndex,
		cfg.MaxInFlightDecodes,
		cfg.AllowReconstructRawTx,
		eventCh,
	)

	rpcClient, err := rpc.DialContext(ctx, cfg.RPCURLHTTP)
	if err != nil {
		return nil, errs.RPC("rpc_client_dial_failed", err)
	}
	relayClients := buildRelayClients(cfg)
	submitter := relay.New(relay.NewRPCSimulator(rpcClient), relayClients, cfg.DryRun)

	nfpmAddr := common.HexToAddress(cfg.NFPMAddress)
	nfpmABI := abis.MustParse(abis.NFPMJSON)
	nfpmClient := contractclient.NewContractClient(httpClient, nfpmAddr, nfpmABI)
	builder := bundle.NewBuilder(signer, bundle.NFPMClient{Address: nfpmAddr, ABI: nfpmABI}, nfpmTokenIDSource{client: nfpmClient})
	fees := bundle.NewGasOracleFeeEstimator(gasOracle)

	capitalSource := capitalSourceLabel(cfg.FlashloanProviderPriority)
	log.Infof("mint capital source priority: %v (using %q; no flashloan draw-down is performed)", cfg.FlashloanProviderPriority, capitalSource)

	return &pipeline{
		cfg:           cfg,
		pools:         poolIndex,
		ethClient:     httpClient,
		wsClient:      wsClient,
		signer:        signer,
		watcher:       watcher,
		evaluator:     eval,
		coord:         coord,
		builder:       builder,
		submitter:     submitter,
		fees:          fees,
		priceOracle:   priceOracle,
		recorder:      recorder,
		reg:           reg,
		eventCh:       eventCh,
		ledger:        events.NewLedger(),
		capitalSource: capitalSource,
	}, nil
}

func (p *pipeline) close() {
	if p.recorder != nil {
		p.recorder.Close()
	}
	close(p.eventCh)
}

// run drives the D -> E -> F -> G -> H dataflow: decoded candidates from
// the mempool watcher are scored by the evaluator, ranked per-block by
// the coordinator, and the block's winners are assembled into bundles
// and submitted to every configured relay.
func (p *pipeline) run(ctx context.Context) {
	go func() {
		for line := range p.eventCh {
			fmt.Println(line)
		}
	}()

	go p.runBlockDrain(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case swap, ok := <-p.watcher.Candidates():
			if !ok {
				return
			}
			p.reg.MempoolTxsMatched.Inc()
			p.handleSwap(ctx, swap)
		}
	}
}

// runBlockDrain subscribes to new block headers and, on each one, asks the
// coordinator to rank and release the winners buffered for that block.
// This is the coordinator's actual trigger: opportunities accumulate in
// Submit as they're evaluated through a block, and only drain together
// once the block they were sized for arrives, so cross-pool ranking has
// more than one candidate to rank in practice.
func (p *pipeline) runBlockDrain(ctx context.Context) {
	headCh := make(chan *types.Header)
	sub, err := p.wsClient.SubscribeNewHead(ctx, headCh)
	if err != nil {
		log.Errorf("subscribe new block headers: %v", err)
		return
	}
	defer sub.Unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case err := <-sub.Err():
			if ctx.Err() == nil {
				log.Errorf("new head subscription error: %v", err)
			}
			return
		case header := <-headCh:
			block := header.Number.Uint64()
			for _, winner := range p.coord.DrainBlock(block) {
				pool, found := p.pools.Lookup(winner.Pool)
				if !found {
					continue
				}
				p.assembleAndSubmit(ctx, winner, pool)
			}
		}
	}
}

func (p *pipeline) handleSwap(ctx context.Context, swap *jit.PendingSwap) {
	pool, found := p.pools.Lookup(swap.Pool)
	if !found {
		return
	}

	amountInHuman := tokenAmountHuman(swap.AmountIn, decimalsFor(swap, pool))
	events.Emit(p.eventCh, events.Event{
		Timestamp:     time.Now(),
		EventType:     events.TypePendingSwapDetected,
		CandidateID:   swap.CandidateID,
		Pool:          swap.Pool,
		Direction:     swap.Direction.String(),
		FeeTier:       uint32(swap.Fee),
		DecodedMethod: swap.Decoded.Method,
		AmountInHuman: amountInHuman.String(),
	})

	if !p.passesSwapThreshold(ctx, swap, amountInHuman) {
		p.reg.MempoolTxsRejected.WithLabelValues("amount_below_threshold").Inc()
		log.Infof("dropping %s: amount %s below both min_swap_eth and min_swap_usd thresholds", swap.CandidateID, amountInHuman)
		return
	}

	floor := p.cfg.PoolFloor(pool.PoolID)
	opp, err := p.evaluator.Evaluate(ctx, swap, pool, floor)
	if err != nil {
		p.coord.RecordFailure(swap.Pool)
		p.reg.JitFailures.WithLabelValues(swap.Pool.Hex(), "evaluation_error").Inc()
		return
	}
	p.reg.JitAttempts.WithLabelValues(swap.Pool.Hex()).Inc()
	events.Emit(p.eventCh, events.Event{Timestamp: time.Now(), EventType: events.TypeOpportunityStage, CandidateID: opp.CandidateID, Pool: opp.Pool, Stage: opp.Stage, Reason: opp.Reason})

	if !opp.Profitable {
		p.coord.RecordFailure(swap.Pool)
		p.reg.JitFailures.WithLabelValues(swap.Pool.Hex(), opp.Reason).Inc()
		return
	}
	p.coord.RecordSuccess(swap.Pool)
	p.reg.CurrentSimulatedProfitUSD.Set(opp.EstimatedProfitUSD)

	currentBlock, err := p.ethClient.BlockNumber(ctx)
	if err != nil {
		log.Errorf("fetch current block: %v", err)
		p.reg.JitFailures.WithLabelValues(swap.Pool.Hex(), "block_number_fetch_failed").Inc()
		return
	}
	opp.TargetBlock = currentBlock + 1
	p.coord.Submit(opp)
}

func (p *pipeline) assembleAndSubmit(ctx context.Context, opp *jit.JitOpportunity, pool *jit.PoolDescriptor) {
	nonce, err := p.ethClient.PendingNonceAt(ctx, p.signer.Address())
	if err != nil {
		log.Errorf("fetch signer nonce: %v", err)
		p.reg.JitFailures.WithLabelValues(opp.Pool.Hex(), "nonce_fetch_failed").Inc()
		return
	}

	params := p.mintParams(opp, pool)
	targetBlock := opp.TargetBlock

	var b *jit.Bundle
	if len(opp.Swap.RawBytes) > 0 {
		b, err = p.builder.BuildEnhanced(ctx, opp, params, opp.Swap.RawBytes, opp.Swap.TxHash, nonce, p.fees, p.cfg.MintGasLimit, p.cfg.BurnCollectGasLimit)
	} else {
		err = errs.New(errs.CategoryEvaluation, "victim_raw_unavailable", nil)
	}
	if err != nil {
		log.Warnf("falling back to failsafe bundle for %s: %v", opp.CandidateID, err)
		b, err = p.builder.BuildFailsafe(ctx, opp.CandidateID, params, nonce, p.fees, p.cfg.FailsafeGasLimit)
		if err != nil {
			log.Errorf("failsafe bundle assembly failed for %s: %v", opp.CandidateID, err)
			p.reg.JitFailures.WithLabelValues(opp.Pool.Hex(), "bundle_assembly_failed").Inc()
			return
		}
	}
	b.TargetBlock = targetBlock
	b.MaxBlock = targetBlock + 2

	events.Emit(p.eventCh, events.Event{Timestamp: time.Now(), EventType: events.TypeBundleAssembled, CandidateID: opp.CandidateID, Pool: opp.Pool, Message: "capital source: " + p.capitalSource})
	p.reg.LastBundleBlock.Set(float64(b.TargetBlock))
	if p.recorder != nil {
		if err := p.recorder.RecordBundle(b); err != nil {
			log.Warnf("record bundle failed: %v", err)
		}
	}

	result := p.submitter.Submit(ctx, b, b.TargetBlock)
	events.Emit(p.eventCh, events.Event{Timestamp: time.Now(), EventType: events.TypeRelayResult, CandidateID: opp.CandidateID, Pool: opp.Pool, Reason: result.SimReason})
	if result.Succeeded {
		p.reg.JitSuccesses.WithLabelValues(opp.Pool.Hex()).Inc()
	} else {
		p.reg.JitFailures.WithLabelValues(opp.Pool.Hex(), "relay_submission_failed").Inc()
	}
	for _, outcome := range result.RelayOutcomes {
		if outcome.Success {
			p.reg.RelaySuccess.WithLabelValues(outcome.RelayURL).Inc()
		} else {
			p.reg.RelayFailure.WithLabelValues(outcome.RelayURL).Inc()
		}
	}
	if p.recorder != nil {
		if err := p.recorder.RecordSubmission(result); err != nil {
			log.Warnf("record submission failed: %v", err)
		}
	}

	if result.Succeeded {
		if maxFee, _, feeErr := p.fees.SuggestFees(ctx); feeErr == nil {
			entry := p.ledger.Record(opp.TxHash, result.SimGasUsed, maxFee)
			log.Infof("bundle %s cost %s wei, cumulative %s wei", b.BundleID, entry.CostWei, p.ledger.CumulativeWei())
		}
	}
}

// passesSwapThreshold applies the OR-semantics amount gate: a swap is
// admitted if its own amount already clears MinSwapETH, or if its
// USD-priced value clears MinSwapUSD; a swap failing both is rejected
// before it ever reaches the evaluator.
func (p *pipeline) passesSwapThreshold(ctx context.Context, swap *jit.PendingSwap, amountInHuman decimal.Decimal) bool {
	if amountInHuman.GreaterThanOrEqual(decimal.NewFromFloat(p.cfg.MinSwapETH)) {
		return true
	}
	price, err := p.priceOracle.PriceUSD(ctx, swap.TokenIn)
	if err != nil {
		return false
	}
	return amountInHuman.Mul(price).GreaterThanOrEqual(decimal.NewFromFloat(p.cfg.MinSwapUSD))
}

// decimalsFor returns the native decimals of swap's input token, looked
// up off whichever side of pool it matches.
func decimalsFor(swap *jit.PendingSwap, pool *jit.PoolDescriptor) uint8 {
	if swap.TokenIn == pool.Token1 {
		return pool.Decimals1
	}
	return pool.Decimals0
}

// tokenAmountHuman converts a raw token amount to its human-readable
// decimal form given the token's native decimals.
func tokenAmountHuman(amount *big.Int, decimals uint8) decimal.Decimal {
	if amount == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(amount, -int32(decimals))
}

// mintParams derives the position-manager call arguments from an
// evaluated opportunity: the proposed tick range becomes the mint's
// bounds, and amounts are sized at 100% of the opportunity's estimated
// liquidity with a configured slippage tolerance on the minimums.
func (p *pipeline) mintParams(opp *jit.JitOpportunity, pool *jit.PoolDescriptor) bundle.MintParams {
	deadline := big.NewInt(time.Now().Unix() + p.cfg.MintDeadlineSeconds)
	amount := opp.Liquidity
	if amount == nil {
		amount = big.NewInt(0)
	}
	minAmount := applySlippage(amount, p.cfg.SlippageBps)
	return bundle.MintParams{
		Token0:         pool.Token0,
		Token1:         pool.Token1,
		Fee:            pool.Fee,
		TickLower:      opp.Range.TickLower,
		TickUpper:      opp.Range.TickUpper,
		Amount0Desired: amount,
		Amount1Desired: amount,
		Amount0Min:     minAmount,
		Amount1Min:     minAmount,
		Recipient:      p.signer.Address(),
		Deadline:       deadline,
		Liquidity:      opp.Liquidity,
	}
}

// capitalSourceLabel picks the telemetry label the mint call's capital
// is attributed to: the head of the configured priority order, or
// "wallet" when none is configured.
func capitalSourceLabel(priority []string) string {
	if len(priority) > 0 {
		return priority[0]
	}
	return "wallet"
}

func applySlippage(amount *big.Int, bps int64) *big.Int {
	min := new(big.Int).Mul(amount, big.NewInt(10_000-bps))
	return min.Div(min, big.NewInt(10_000))
}

func loadSigner(ctx context.Context, client *ethclient.Client, cfg *config.Config) (*bundle.Signer, error) {
	encKey := os.Getenv("ENCRYPTED_SIGNING_KEY")
	passphrase := os.Getenv("SIGNING_KEY_PASSPHRASE")
	if encKey == "" || passphrase == "" {
		if cfg.DryRun {
			log.Warnf("no signing key configured; using an ephemeral key for dry-run only")
			ephemeral, err := crypto.GenerateKey()
			if err != nil {
				return nil, errs.Config("ephemeral_key_generation_failed", err)
			}
			chainID, err := client.ChainID(ctx)
			if err != nil {
				return nil, errs.RPC("chain_id_fetch_failed", err)
			}
			return bundle.NewSigner(ephemeral, chainID), nil
		}
		return nil, errs.Safety("signing_key_not_configured", nil)
	}

	hexKey, err := util.Decrypt([]byte(passphrase), encKey)
	if err != nil {
		return nil, errs.Config("signing_key_decrypt_failed", err)
	}
	privateKey, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, errs.Config("signing_key_parse_failed", err)
	}
	chainID, err := client.ChainID(ctx)
	if err != nil {
		return nil, errs.RPC("chain_id_fetch_failed", err)
	}
	return bundle.NewSigner(privateKey, chainID), nil
}

func buildRelayClients(cfg *config.Config) []relay.RelayClient {
	clients := []relay.RelayClient{relay.NewHTTPRelayClient(cfg.RelayURL)}
	for _, url := range cfg.AdditionalRelayURLs {
		clients = append(clients, relay.NewHTTPRelayClient(url))
	}
	return clients
}

func serveMetrics(addr string, reg *metrics.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", reg.Handler())
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Errorf("metrics server stopped: %v", err)
	}
}

// pendingTxSource adapts *ethclient.Client to mempool.PendingTxSource by
// subscribing to newPendingTransactions over the client's underlying RPC
// connection and forwarding hashes directly, since common.Hash already
// unmarshals from the hex string each notification carries.
type pendingTxSource struct{ client *ethclient.Client }

func (s pendingTxSource) SubscribePendingTransactions(ctx context.Context, ch chan<- common.Hash) (mempool.Subscription, error) {
	return s.client.Client().EthSubscribe(ctx, ch, "newPendingTransactions")
}

// rawTxFetcher adapts *ethclient.Client to mempool.RawTxFetcher.
type rawTxFetcher struct{ client *ethclient.Client }

// FetchTxMeta surfaces the call target, sender and nonce ahead of any
// calldata decode: To is what lets a direct pool swap resolve its pool
// identity, and From+Nonce is what lets the watcher notice the same
// sender resubmitting at the same nonce.
func (f rawTxFetcher) FetchTxMeta(ctx context.Context, hash common.Hash) (*mempool.TxMeta, error) {
	tx, isPending, err := f.client.TransactionByHash(ctx, hash)
	if err != nil {
		return nil, err
	}
	from, err := types.Sender(types.LatestSignerForChainID(tx.ChainId()), tx)
	if err != nil {
		return nil, err
	}
	return &mempool.TxMeta{
		To:    tx.To(),
		From:  from,
		Nonce: tx.Nonce(),
		Mined: !isPending,
	}, nil
}

func (f rawTxFetcher) FetchCalldata(ctx context.Context, hash common.Hash) ([]byte, error) {
	tx, _, err := f.client.TransactionByHash(ctx, hash)
	if err != nil {
		return nil, err
	}
	return tx.Data(), nil
}

func (f rawTxFetcher) FetchRawTransaction(ctx context.Context, hash common.Hash) ([]byte, error) {
	tx, _, err := f.client.TransactionByHash(ctx, hash)
	if err != nil {
		return nil, err
	}
	return tx.MarshalBinary()
}

// nfpmTokenIDSource implements bundle.TokenIDSource against a live NFPM
// contract: Uniswap-V3-style position managers assign tokenIds
// sequentially off an ERC721Enumerable counter, so the next id is one
// past the current totalSupply.
type nfpmTokenIDSource struct{ client *contractclient.ContractClient }

func (s nfpmTokenIDSource) PredictNextTokenID(ctx context.Context) (*big.Int, error) {
	out, err := s.client.Call(nil, "totalSupply")
	if err != nil {
		return nil, err
	}
	supply, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("totalSupply returned unexpected type %T", out[0])
	}
	return new(big.Int).Add(supply, big.NewInt(1)), nil
}

// noopPriceSource is the price-feed collaborator spec.md §6 scopes out of
// this pipeline's responsibility ("price-oracle ... RPC clients assumed
// to expose the trivial calls listed in §6"); it always falls through to
// PriceOracle's static fallback table until a real feed is wired in.
type noopPriceSource struct{}

func (noopPriceSource) PriceUSD(ctx context.Context, token common.Address) (decimal.Decimal, error) {
	return decimal.Zero, errs.RPC("price_source_not_configured", nil)
}

// stablecoinFallbackTable seeds the price oracle's fallback with the
// known-pegged stablecoins spec §4.B calls out ("a tiny static table for
// known stablecoins/wrapped assets").
func stablecoinFallbackTable() map[common.Address]decimal.Decimal {
	return map[common.Address]decimal.Decimal{
		common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"): decimal.NewFromInt(1), // USDC
		common.HexToAddress("0xdAC17F958D2ee523a2206206994597C13D831ec7"): decimal.NewFromInt(1), // USDT
		common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F"): decimal.NewFromInt(1), // DAI
	}
}
