package cars

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/BurakkYuce/rental-backend/internal/calendar"
	"github.com/BurakkYuce/rental-backend/internal/domain"
	"github.com/BurakkYuce/rental-backend/internal/metrics"
	"github.com/BurakkYuce/rental-backend/internal/pricing"
	"github.com/BurakkYuce/rental-backend/internal/repository"
)

type CarUseCase interface {
	List(ctx context.Context) ([]domain.Car, error)
	GetByID(ctx context.Context, id string) (*domain.Car, error)
	Quote(ctx context.Context, carID, date string, period pricing.Period) (pricing.EffectivePrice, error)
	QuoteRental(ctx context.Context, carID string, pickup, dropoff time.Time) (pricing.RentalQuote, error)
	SeasonalReport(ctx context.Context, carID string) (SeasonalReport, error)
}

type CarCache interface {
	GetCars(ctx context.Context) ([]domain.Car, error)
	SetCars(ctx context.Context, cars []domain.Car) error
	GetCar(ctx context.Context, id string) (*domain.Car, error)
	SetCar(ctx context.Context, car *domain.Car) error
}

// SeasonalReport lists what an admin should fix in a car's seasonal rules.
type SeasonalReport struct {
	CarID    string            `json:"carId"`
	Overlaps []pricing.Overlap `json:"overlaps"`
	Problems []pricing.Problem `json:"problems"`
}

type CarService struct {
	repo     repository.CarRepository
	cache    CarCache
	resolver *pricing.Resolver
	log      *slog.Logger
}

func NewCarService(repo repository.CarRepository, cache CarCache, resolver *pricing.Resolver, log *slog.Logger) *CarService {
	if resolver == nil {
		resolver = pricing.NewResolver()
	}
	if log == nil {
		log = slog.Default()
	}
	return &CarService{repo: repo, cache: cache, resolver: resolver, log: log}
}

func (s *CarService) List(ctx context.Context) ([]domain.Car, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetCars(ctx); err == nil && cached != nil {
			return cached, nil
		} else if err != nil {
			s.log.WarnContext(ctx, "cars cache read failed", "error", err)
		}
	}

	cars, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SetCars(ctx, cars); err != nil {
			s.log.WarnContext(ctx, "cars cache write failed", "error", err)
		}
	}
	return cars, nil
}

// GetByID reads through the cache; pricing is a snapshot at read time.
func (s *CarService) GetByID(ctx context.Context, id string) (*domain.Car, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetCar(ctx, id); err == nil && cached != nil {
			return cached, nil
		} else if err != nil {
			s.log.WarnContext(ctx, "car cache read failed", "car_id", id, "error", err)
		}
	}

	car, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SetCar(ctx, car); err != nil {
			s.log.WarnContext(ctx, "car cache write failed", "car_id", id, "error", err)
		}
	}
	return car, nil
}

func (s *CarService) Quote(ctx context.Context, carID, date string, period pricing.Period) (pricing.EffectivePrice, error) {
	day, err := calendar.Parse(date)
	if err != nil {
		return pricing.EffectivePrice{}, err
	}
	car, err := s.GetByID(ctx, carID)
	if err != nil {
		return pricing.EffectivePrice{}, err
	}

	price, err := s.resolver.Resolve(car.Pricing, pricing.NewRuleSet(car.SeasonalRules), day, period)
	if err != nil {
		return pricing.EffectivePrice{}, fmt.Errorf("quote car %s: %w", carID, err)
	}
	metrics.PriceQuotes.WithLabelValues(metrics.QuoteSource(price.SeasonalName)).Inc()
	return price, nil
}

func (s *CarService) QuoteRental(ctx context.Context, carID string, pickup, dropoff time.Time) (pricing.RentalQuote, error) {
	car, err := s.GetByID(ctx, carID)
	if err != nil {
		return pricing.RentalQuote{}, err
	}

	quote, err := s.resolver.QuoteRental(car.Pricing, pricing.NewRuleSet(car.SeasonalRules), pickup, dropoff)
	if err != nil {
		return pricing.RentalQuote{}, fmt.Errorf("quote rental of car %s: %w", carID, err)
	}
	for _, line := range quote.Lines {
		metrics.PriceQuotes.WithLabelValues(metrics.QuoteSource(line.Price.SeasonalName)).Inc()
	}
	return quote, nil
}

func (s *CarService) SeasonalReport(ctx context.Context, carID string) (SeasonalReport, error) {
	car, err := s.GetByID(ctx, carID)
	if err != nil {
		return SeasonalReport{}, err
	}
	rules := pricing.NewRuleSet(car.SeasonalRules)
	report := SeasonalReport{
		CarID:    car.ID,
		Overlaps: rules.Overlaps(),
		Problems: rules.Problems(),
	}
	if len(report.Overlaps) > 0 {
		s.log.WarnContext(ctx, "overlapping seasonal rules", "car_id", car.ID, "overlaps", len(report.Overlaps))
	}
	return report, nil
}

var _ CarUseCase = (*CarService)(nil)
