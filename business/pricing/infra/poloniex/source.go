package poloniex

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
	Name = "Poloniex"
	// BaseAPIURL is the public v3 API.
	BaseAPIURL = "https://api.poloniex.com"

	tracerName = "poloniex"

	pricesEndpoint  = "/markets/price"
	marketsEndpoint = "/markets"
)

// Source implements app.QuoteSource for Poloniex.
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

// New creates a Poloniex source.
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

func (s *Source) Status() (bool, string) { return s.client.Status() }

func (s *Source) FetchOne(ctx context.Context, pair string) (domain.Quote, error) {
	p, err := exchange.ParsePair(pair)
	if err != nil {
		return domain.Quote{}, err
	}
	symbol := p.Join(symbolSep)

	ctx, span := s.tracer.Start(ctx, "poloniex.fetch_one",
		trace.WithAttributes(attribute.String("symbol", symbol)))
	defer span.End()

	var res price
	if err := s.client.Get(ctx, "/markets/"+url.PathEscape(symbol)+"/price", nil, &res); err != nil {
		span.RecordError(err)
		return domain.Quote{}, err
	}
	if res.Symbol != "" && res.Symbol != symbol {
		return domain.Quote{}, exchange.InvalidPayload(Name, "price for "+res.Symbol+" returned for "+symbol)
	}

	value, err := exchange.ParsePrice(Name, symbol, res.Price)
	if err != nil {
		return domain.Quote{}, err
	}
	return exchange.NewQuote(p.String(), value, Name, res.millis(), s.now), nil
}

func (s *Source) FetchAll(ctx context.Context) ([]domain.Quote, error) {
	ctx, span := s.tracer.Start(ctx, "poloniex.fetch_all")
	defer span.End()

	var prices []price
	if err := s.client.Get(ctx, pricesEndpoint, nil, &prices); err != nil {
		span.RecordError(err)
		return nil, err
	}

	quotes := make([]domain.Quote, 0, len(prices))
	for _, pr := range prices {
		p, ok := asset.FromSeparated(pr.Symbol, symbolSep)
		if !ok {
			continue
		}
		value, err := exchange.ParsePrice(Name, pr.Symbol, pr.Price)
		if err != nil {
			continue
		}
		quotes = append(quotes, exchange.NewQuote(p.String(), value, Name, pr.millis(), s.now))
	}

	span.SetAttributes(attribute.Int("quotes", len(quotes)))
	return quotes, nil
}

func (s *Source) ListAvailablePairs(ctx context.Context) ([]string, error) {
	return s.markets.Pairs(ctx, s.loadMarkets)
}

func (s *Source) loadMarkets(ctx context.Context) (map[string]string, error) {
	ctx, span := s.tracer.Start(ctx, "poloniex.load_markets")
	defer span.End()

	var markets []market
	if err := s.client.Get(ctx, marketsEndpoint, nil, &markets); err != nil {
		span.RecordError(err)
		return nil, err
	}

	index := make(map[string]string, len(markets))
	for _, m := range markets {
		if m.State != stateNormal {
			continue
		}
		var p asset.Pair
		if m.BaseCurrencyName != "" && m.QuoteCurrencyName != "" {
			p = asset.NewPair(m.BaseCurrencyName, m.QuoteCurrencyName)
		} else if split, ok := asset.FromSeparated(m.Symbol, symbolSep); ok {
			p = split
		} else {
			continue
		}
		index[m.Symbol] = p.String()
	}

	s.logger.Info(ctx, "poloniex markets loaded", "markets", len(index))
	span.SetAttributes(attribute.Int("markets", len(index)))
	return index, nil
}
