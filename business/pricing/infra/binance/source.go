package binance

import (
	"context"
	"net/url"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/arbitrage-scanner/business/pricing/app"
	"github.com/fd1az/arbitrage-scanner/business/pricing/domain"
	"github.com/fd1az/arbitrage-scanner/business/pricing/infra/exchange"
	"github.com/fd1az/arbitrage-scanner/internal/asset"
	"github.com/fd1az/arbitrage-scanner/internal/logger"
)

const (
	// Name identifies the exchange in results and logs.
	Name = "Binance"
	// BaseAPIURL is the public spot API.
	BaseAPIURL = "https://api.binance.com"

	tracerName = "binance"

	// Endpoints
	tickerPriceEndpoint  = "/api/v3/ticker/price"
	exchangeInfoEndpoint = "/api/v3/exchangeInfo"
)

// Source implements app.QuoteSource for Binance.
type Source struct {
	client  *exchange.Client
	markets exchange.Markets
	logger  logger.LoggerInterface
	tracer  trace.Tracer
	now     func() time.Time
}

var (
	_ app.QuoteSource    = (*Source)(nil)
	_ app.StatusReporter = (*Source)(nil)
)

// New creates a Binance source. An empty BaseURL uses the public API.
func New(cfg exchange.Config, log logger.LoggerInterface) (*Source, error) {
	cfg.Name = Name
	if cfg.BaseURL == "" {
		cfg.BaseURL = BaseAPIURL
	}

	client, err := exchange.NewClient(cfg, log)
	if err != nil {
		return nil, err
	}

	return &Source{
		client: client,
		logger: log,
		tracer: otel.Tracer(tracerName),
		now:    time.Now,
	}, nil
}

func (s *Source) Name() string { return Name }

// Status reports the circuit breaker state.
func (s *Source) Status() (bool, string) { return s.client.Status() }

// FetchOne queries the ticker of a single symbol, e.g. BTCUSDT for BTC/USDT.
func (s *Source) FetchOne(ctx context.Context, pair string) (domain.Quote, error) {
	p, err := exchange.ParsePair(pair)
	if err != nil {
		return domain.Quote{}, err
	}
	symbol := p.Join("")

	ctx, span := s.tracer.Start(ctx, "binance.fetch_one",
		trace.WithAttributes(attribute.String("symbol", symbol)))
	defer span.End()

	var ticker TickerPrice
	if err := s.client.Get(ctx, tickerPriceEndpoint, url.Values{"symbol": {symbol}}, &ticker); err != nil {
		span.RecordError(err)
		return domain.Quote{}, err
	}

	price, err := exchange.ParsePrice(Name, symbol, ticker.Price)
	if err != nil {
		return domain.Quote{}, err
	}
	return domain.NewQuote(p.String(), price, Name, s.now()), nil
}

// FetchAll reads every ticker in one request. Symbols missing from the market
// index are split by their quote suffix; unparseable prices are skipped.
func (s *Source) FetchAll(ctx context.Context) ([]domain.Quote, error) {
	ctx, span := s.tracer.Start(ctx, "binance.fetch_all")
	defer span.End()

	var tickers []TickerPrice
	if err := s.client.Get(ctx, tickerPriceEndpoint, nil, &tickers); err != nil {
		span.RecordError(err)
		return nil, err
	}

	index, err := s.markets.Get(ctx, s.loadMarkets)
	if err != nil {
		s.logger.Warn(ctx, "binance market index unavailable, splitting symbols", "error", err)
	}

	now := s.now()
	quotes := make([]domain.Quote, 0, len(tickers))
	for _, t := range tickers {
		pair, ok := index[t.Symbol]
		if !ok {
			if index != nil {
				// Listed markets only; a missing symbol is halted or delisted.
				continue
			}
			split, ok := asset.SplitConcatenated(t.Symbol)
			if !ok {
				continue
			}
			pair = split.String()
		}

		price, err := exchange.ParsePrice(Name, t.Symbol, t.Price)
		if err != nil {
			continue
		}
		quotes = append(quotes, domain.NewQuote(pair, price, Name, now))
	}

	span.SetAttributes(attribute.Int("quotes", len(quotes)))
	return quotes, nil
}

// ListAvailablePairs returns the spot markets currently trading.
func (s *Source) ListAvailablePairs(ctx context.Context) ([]string, error) {
	return s.markets.Pairs(ctx, s.loadMarkets)
}

func (s *Source) loadMarkets(ctx context.Context) (map[string]string, error) {
	ctx, span := s.tracer.Start(ctx, "binance.load_markets")
	defer span.End()

	var info ExchangeInfo
	if err := s.client.Get(ctx, exchangeInfoEndpoint, nil, &info); err != nil {
		span.RecordError(err)
		return nil, err
	}

	index := make(map[string]string, len(info.Symbols))
	for _, sym := range info.Symbols {
		if sym.Status != StatusTrading || !sym.IsSpotTradingAllowed {
			continue
		}
		var p asset.Pair
		if sym.BaseAsset != "" && sym.QuoteAsset != "" {
			p = asset.NewPair(sym.BaseAsset, sym.QuoteAsset)
		} else if split, ok := asset.SplitConcatenated(sym.Symbol); ok {
			p = split
		} else {
			continue
		}
		index[sym.Symbol] = p.String()
	}

	s.logger.Info(ctx, "binance markets loaded", "markets", len(index))
	span.SetAttributes(attribute.Int("markets", len(index)))
	return index, nil
}
