package bybit

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/arbitrage-scanner/business/pricing/app"
	"github.com/fd1az/arbitrage-scanner/business/pricing/domain"
	"github.com/fd1az/arbitrage-scanner/business/pricing/infra/exchange"
	"github.com/fd1az/arbitrage-scanner/internal/apperror"
	"github.com/fd1az/arbitrage-scanner/internal/asset"
	"github.com/fd1az/arbitrage-scanner/internal/logger"
)

const (
	// Name identifies the exchange in results and logs.
	Name = "Bybit"
	// BaseAPIURL is the public v5 API.
	BaseAPIURL = "https://api.bybit.com"

	tracerName = "bybit"

	tickersEndpoint     = "/v5/market/tickers"
	instrumentsEndpoint = "/v5/market/instruments-info"
	categorySpot        = "spot"

	// Documented v5 return codes that are worth retrying.
	retCodeRateLimited = 10006
	retCodeServerError = 10016

	// Guards against a cursor that never ends.
	maxInstrumentPages = 20
)

// Source implements app.QuoteSource for Bybit.
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

// New creates a Bybit source.
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
	symbol := p.Join("")

	ctx, span := s.tracer.Start(ctx, "bybit.fetch_one",
		trace.WithAttributes(attribute.String("symbol", symbol)))
	defer span.End()

	res, err := s.tickers(ctx, symbol)
	if err != nil {
		span.RecordError(err)
		return domain.Quote{}, err
	}

	for _, t := range res.Result.List {
		if t.Symbol != symbol {
			continue
		}
		price, err := exchange.ParsePrice(Name, symbol, t.LastPrice)
		if err != nil {
			return domain.Quote{}, err
		}
		return exchange.NewQuote(p.String(), price, Name, res.Time, s.now), nil
	}
	return domain.Quote{}, exchange.UnknownSymbol(Name, pair)
}

func (s *Source) FetchAll(ctx context.Context) ([]domain.Quote, error) {
	ctx, span := s.tracer.Start(ctx, "bybit.fetch_all")
	defer span.End()

	res, err := s.tickers(ctx, "")
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	index, err := s.markets.Get(ctx, s.loadMarkets)
	if err != nil {
		s.logger.Warn(ctx, "bybit market index unavailable, splitting symbols", "error", err)
	}

	quotes := make([]domain.Quote, 0, len(res.Result.List))
	for _, t := range res.Result.List {
		pair, ok := index[t.Symbol]
		if !ok {
			if index != nil {
				continue
			}
			split, ok := asset.SplitConcatenated(t.Symbol)
			if !ok {
				continue
			}
			pair = split.String()
		}

		price, err := exchange.ParsePrice(Name, t.Symbol, t.LastPrice)
		if err != nil {
			continue
		}
		quotes = append(quotes, exchange.NewQuote(pair, price, Name, res.Time, s.now))
	}

	span.SetAttributes(attribute.Int("quotes", len(quotes)))
	return quotes, nil
}

func (s *Source) ListAvailablePairs(ctx context.Context) ([]string, error) {
	return s.markets.Pairs(ctx, s.loadMarkets)
}

func (s *Source) tickers(ctx context.Context, symbol string) (*envelope[tickersResult], error) {
	query := url.Values{"category": {categorySpot}}
	if symbol != "" {
		query.Set("symbol", symbol)
	}

	var res envelope[tickersResult]
	if err := s.client.Get(ctx, tickersEndpoint, query, &res); err != nil {
		return nil, err
	}
	if err := retCodeError(res.RetCode, res.RetMsg); err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *Source) loadMarkets(ctx context.Context) (map[string]string, error) {
	ctx, span := s.tracer.Start(ctx, "bybit.load_markets")
	defer span.End()

	index := make(map[string]string)
	cursor := ""
	for page := 0; page < maxInstrumentPages; page++ {
		query := url.Values{"category": {categorySpot}}
		if cursor != "" {
			query.Set("cursor", cursor)
		}

		var res envelope[instrumentsResult]
		if err := s.client.Get(ctx, instrumentsEndpoint, query, &res); err != nil {
			span.RecordError(err)
			return nil, err
		}
		if err := retCodeError(res.RetCode, res.RetMsg); err != nil {
			span.RecordError(err)
			return nil, err
		}

		for _, inst := range res.Result.List {
			if inst.Status != statusTrading || inst.BaseCoin == "" || inst.QuoteCoin == "" {
				continue
			}
			index[inst.Symbol] = asset.NewPair(inst.BaseCoin, inst.QuoteCoin).String()
		}

		cursor = res.Result.NextPageCursor
		if cursor == "" {
			break
		}
	}

	s.logger.Info(ctx, "bybit markets loaded", "markets", len(index))
	span.SetAttributes(attribute.Int("markets", len(index)))
	return index, nil
}

// retCodeError maps a non-zero v5 retCode to an apperror. Bybit reports most
// failures with HTTP 200 and a code in the body.
func retCodeError(code int, msg string) error {
	if code == 0 {
		return nil
	}

	detail := fmt.Sprintf("%s: retCode %d: %s", Name, code, msg)
	switch code {
	case retCodeRateLimited:
		return apperror.New(apperror.CodeExchangeRateLimited, apperror.WithContext(detail))
	case retCodeServerError:
		return apperror.External(apperror.CodeServiceUnavailable, detail, nil)
	default:
		return apperror.New(apperror.CodeExchangeRejected, apperror.WithContext(detail))
	}
}
