package whitebit

import (
	"context"
	"sort"
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
	Name = "WhiteBIT"
	// BaseAPIURL is the public API host.
	BaseAPIURL = "https://whitebit.com"

	tracerName = "whitebit"

	tickerEndpoint  = "/api/v4/public/ticker"
	marketsEndpoint = "/api/v4/public/markets"
)

// Source implements app.QuoteSource for WhiteBIT. The public API has no
// single-market ticker, so FetchOne reads the full map.
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

// New creates a WhiteBIT source.
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

	ctx, span := s.tracer.Start(ctx, "whitebit.fetch_one",
		trace.WithAttributes(attribute.String("symbol", symbol)))
	defer span.End()

	tickers, err := s.tickers(ctx)
	if err != nil {
		span.RecordError(err)
		return domain.Quote{}, err
	}

	t, ok := tickers[symbol]
	if !ok || t.IsFrozen {
		return domain.Quote{}, exchange.UnknownSymbol(Name, pair)
	}
	price, err := exchange.ParsePrice(Name, symbol, t.LastPrice)
	if err != nil {
		return domain.Quote{}, err
	}
	return domain.NewQuote(p.String(), price, Name, s.now()), nil
}

func (s *Source) FetchAll(ctx context.Context) ([]domain.Quote, error) {
	ctx, span := s.tracer.Start(ctx, "whitebit.fetch_all")
	defer span.End()

	tickers, err := s.tickers(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	// Map iteration order is random; keep output stable.
	symbols := make([]string, 0, len(tickers))
	for symbol := range tickers {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	now := s.now()
	quotes := make([]domain.Quote, 0, len(tickers))
	for _, symbol := range symbols {
		t := tickers[symbol]
		if t.IsFrozen {
			continue
		}
		p, ok := asset.FromSeparated(symbol, symbolSep)
		if !ok {
			continue
		}
		price, err := exchange.ParsePrice(Name, symbol, t.LastPrice)
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

func (s *Source) tickers(ctx context.Context) (map[string]tickerEntry, error) {
	var tickers map[string]tickerEntry
	if err := s.client.Get(ctx, tickerEndpoint, nil, &tickers); err != nil {
		return nil, err
	}
	if tickers == nil {
		return nil, exchange.InvalidPayload(Name, "empty ticker map")
	}
	return tickers, nil
}

func (s *Source) loadMarkets(ctx context.Context) (map[string]string, error) {
	ctx, span := s.tracer.Start(ctx, "whitebit.load_markets")
	defer span.End()

	var markets []market
	if err := s.client.Get(ctx, marketsEndpoint, nil, &markets); err != nil {
		span.RecordError(err)
		return nil, err
	}

	index := make(map[string]string, len(markets))
	for _, m := range markets {
		if !m.TradesEnabled || (m.Type != "" && m.Type != marketTypeSpot) {
			continue
		}
		var p asset.Pair
		if m.Stock != "" && m.Money != "" {
			p = asset.NewPair(m.Stock, m.Money)
		} else if split, ok := asset.FromSeparated(m.Name, symbolSep); ok {
			p = split
		} else {
			continue
		}
		index[m.Name] = p.String()
	}

	s.logger.Info(ctx, "whitebit markets loaded", "markets", len(index))
	span.SetAttributes(attribute.Int("markets", len(index)))
	return index, nil
}
