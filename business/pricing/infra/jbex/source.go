package jbex

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
	Name = "JBEX"
	// BaseAPIURL is the open API host.
	BaseAPIURL = "https://api.jbex.com"

	tracerName = "jbex"

	tickerPriceEndpoint = "/openapi/quote/v1/ticker/price"
	brokerInfoEndpoint  = "/openapi/v1/brokerInfo"
)

// Source implements app.QuoteSource for JBEX. Symbols carry no separator
// (BTCUSDT) and are split by known quote suffix.
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

// New creates a JBEX source. The API key, when set, is sent in X-BH-APIKEY.
func New(cfg exchange.Config, log logger.LoggerInterface) (*Source, error) {
	cfg.Name = Name
	if cfg.BaseURL == "" {
		cfg.BaseURL = BaseAPIURL
	}
	if cfg.APIKey != "" {
		headers := make(map[string]string, len(cfg.Headers)+1)
		for k, v := range cfg.Headers {
			headers[k] = v
		}
		headers[apiKeyHeader] = cfg.APIKey
		cfg.Headers = headers
		cfg.SensitiveHeaders = append(cfg.SensitiveHeaders, apiKeyHeader)
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

func (s *Source) Status() (bool, string) { return s.client.Status() }

func (s *Source) FetchOne(ctx context.Context, pair string) (domain.Quote, error) {
	p, err := exchange.ParsePair(pair)
	if err != nil {
		return domain.Quote{}, err
	}
	symbol := p.Join("")

	ctx, span := s.tracer.Start(ctx, "jbex.fetch_one",
		trace.WithAttributes(attribute.String("symbol", symbol)))
	defer span.End()

	var ticker tickerPrice
	if err := s.client.Get(ctx, tickerPriceEndpoint, url.Values{"symbol": {symbol}}, &ticker); err != nil {
		span.RecordError(err)
		return domain.Quote{}, err
	}
	if ticker.Price == "" {
		return domain.Quote{}, exchange.UnknownSymbol(Name, pair)
	}

	price, err := exchange.ParsePrice(Name, symbol, ticker.Price)
	if err != nil {
		return domain.Quote{}, err
	}
	return domain.NewQuote(p.String(), price, Name, s.now()), nil
}

func (s *Source) FetchAll(ctx context.Context) ([]domain.Quote, error) {
	ctx, span := s.tracer.Start(ctx, "jbex.fetch_all")
	defer span.End()

	var tickers []tickerPrice
	if err := s.client.Get(ctx, tickerPriceEndpoint, nil, &tickers); err != nil {
		span.RecordError(err)
		return nil, err
	}

	now := s.now()
	quotes := make([]domain.Quote, 0, len(tickers))
	for _, t := range tickers {
		if t.Symbol == "" || t.Price == "" {
			continue
		}
		p, ok := asset.SplitConcatenated(t.Symbol)
		if !ok {
			continue
		}
		price, err := exchange.ParsePrice(Name, t.Symbol, t.Price)
		if err != nil {
			continue
		}
		quotes = append(quotes, domain.NewQuote(p.String(), price, Name, now))
	}

	span.SetAttributes(attribute.Int("quotes", len(quotes)))
	return quotes, nil
}

func (s *Source) ListAvailablePairs(ctx context.Context) ([]string, error) {
	return s.markets.Pairs(ctx, s.loadMarkets)
}

func (s *Source) loadMarkets(ctx context.Context) (map[string]string, error) {
	ctx, span := s.tracer.Start(ctx, "jbex.load_markets")
	defer span.End()

	var info brokerInfo
	if err := s.client.Get(ctx, brokerInfoEndpoint, nil, &info); err != nil {
		span.RecordError(err)
		return nil, err
	}
	if info.Symbols == nil {
		return nil, exchange.InvalidPayload(Name, "brokerInfo without symbols")
	}

	index := make(map[string]string, len(info.Symbols))
	for _, sym := range info.Symbols {
		// A missing status means the market is trading.
		if sym.Symbol == "" || (sym.Status != "" && sym.Status != statusTrading) {
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

	s.logger.Info(ctx, "jbex markets loaded", "markets", len(index))
	span.SetAttributes(attribute.Int("markets", len(index)))
	return index, nil
}
