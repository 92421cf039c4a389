package service

import (
	"context"
	"fmt"
	"strconv"

	"aviaskill/internal/model"
	"aviaskill/internal/utils"

	"github.com/sirupsen/logrus"
)

// Canned reply texts.
const (
	greetingText = "Привет, я могу помочь с подбором рейса."
	unknownText  = "Я не знаю такой команды."
	notFoundText = "Авиарейс не найден."
	fallbackText = "Я не знаю, что случилось. Возможно таких рейсов просто не существует."
)

// FareGateway is the outbound contract the composer dispatches
// against. *FaresClient implements it; tests substitute a stub.
type FareGateway interface {
	CheapestToday(ctx context.Context, origin, destination string) (*model.Fare, error)
	MonthPrices(ctx context.Context, origin, destination string) ([]model.MonthPrice, error)
	CheapestByTransfers(ctx context.Context, origin, destination string) (map[int]model.Fare, error)
	PopularFrom(ctx context.Context, origin string) ([]model.Direction, error)
}

// Turn is one inbound dialog request. Turns are independent: nothing
// is carried from one to the next.
type Turn struct {
	NewSession bool
	Command    string
	Tokens     []string
}

// TurnResult is the composed reply plus the intent it was composed
// for, which the handler records in the turn log.
type TurnResult struct {
	Intent  model.Intent
	Payload model.Payload
}

// DialogService resolves a turn to an intent, dispatches the matching
// fare lookup and renders the reply.
type DialogService struct {
	catalog *Catalog
	fares   FareGateway
}

// NewDialogService creates a new dialog service
func NewDialogService(catalog *Catalog, fares FareGateway) *DialogService {
	return &DialogService{
		catalog: catalog,
		fares:   fares,
	}
}

// HandleTurn processes one dialog turn to completion. Any failure
// while composing the reply is absorbed here and replaced by the fixed
// fallback text; a turn never propagates an error to the caller.
func (s *DialogService) HandleTurn(ctx context.Context, turn Turn) TurnResult {
	if turn.NewSession || turn.Command == "" {
		return TurnResult{
			Intent:  model.IntentGreeting,
			Payload: model.Payload{Text: greetingText},
		}
	}

	tokens := utils.LowerAll(turn.Tokens)
	cities := s.catalog.FindCities(tokens)
	cls := Classify(tokens, len(cities))

	if cls.Intent == model.IntentUnknown {
		return TurnResult{
			Intent:  model.IntentUnknown,
			Payload: model.Payload{Text: unknownText},
		}
	}

	payload, err := s.compose(ctx, cls, cities)
	if err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"intent":  string(cls.Intent),
			"command": turn.Command,
		}).Error("Reply composition failed")
		payload = model.Payload{Text: fallbackText}
	}

	return TurnResult{Intent: cls.Intent, Payload: payload}
}

func (s *DialogService) compose(ctx context.Context, cls model.Classification, cities []CityMatch) (model.Payload, error) {
	switch cls.Intent {
	case model.IntentTodayCheapest:
		return s.composeToday(ctx, cities[0], cities[1])
	case model.IntentMonthCheapest:
		return s.composeMonth(ctx, cities[0], cities[1])
	case model.IntentByTransfers:
		return s.composeTransfers(ctx, cls.Transfers, cities[0], cities[1])
	case model.IntentPopular:
		return s.composePopular(ctx, cities[0])
	default:
		return model.Payload{}, fmt.Errorf("no composer for intent %q", cls.Intent)
	}
}

// composeToday renders the cheapest fare departing today.
func (s *DialogService) composeToday(ctx context.Context, origin, destination CityMatch) (model.Payload, error) {
	fare, err := s.fares.CheapestToday(ctx, origin.Code, destination.Code)
	if err != nil {
		return model.Payload{}, err
	}
	if fare == nil {
		return model.Payload{Text: notFoundText}, nil
	}

	flightNumber := flightNumber(fare)
	date, departure, err := departureParts(fare.DepartureAt)
	if err != nil {
		return model.Payload{}, err
	}
	airline, ok := s.catalog.AirlineName(fare.Airline)
	if !ok {
		return model.Payload{}, fmt.Errorf("unknown airline code %q", fare.Airline)
	}

	text := fmt.Sprintf(
		"Билет от %s до %s на сегодня:\nНомер - %s\nДата вылета - %s\nВремя вылета - %s\nАвиакомпания - %s\nЦена - %d рублей",
		s.catalog.LocativeForm(origin.Code),
		s.catalog.LocativeForm(destination.Code),
		flightNumber,
		date,
		departure,
		airline,
		fare.Price,
	)

	return model.Payload{
		Text:    text,
		Buttons: []model.Button{searchButton(flightNumber)},
	}, nil
}

// composeMonth renders the minimum price over the month's offers.
func (s *DialogService) composeMonth(ctx context.Context, origin, destination CityMatch) (model.Payload, error) {
	offers, err := s.fares.MonthPrices(ctx, origin.Code, destination.Code)
	if err != nil {
		return model.Payload{}, err
	}
	if len(offers) == 0 {
		return model.Payload{Text: notFoundText}, nil
	}

	price := offers[0].Value
	for _, offer := range offers {
		if offer.Value < price {
			price = offer.Value
		}
	}

	text := fmt.Sprintf(
		"Самый дешевый билет от %s до %s на этот месяц:\n%d рублей",
		s.catalog.LocativeForm(origin.Code),
		s.catalog.LocativeForm(destination.Code),
		price,
	)

	return model.Payload{Text: text}, nil
}

// composeTransfers renders the cheapest fare at the requested transfer
// tier. Missing gateway data or a missing tier is a composition fault
// here, not a "not found" reply.
func (s *DialogService) composeTransfers(ctx context.Context, transfers int, origin, destination CityMatch) (model.Payload, error) {
	tiers, err := s.fares.CheapestByTransfers(ctx, origin.Code, destination.Code)
	if err != nil {
		return model.Payload{}, err
	}
	if tiers == nil {
		return model.Payload{}, fmt.Errorf("no transfer-tier data for %s-%s", origin.Code, destination.Code)
	}

	fare, ok := tiers[transfers]
	if !ok {
		return model.Payload{}, fmt.Errorf("no fare with %d transfers for %s-%s", transfers, origin.Code, destination.Code)
	}

	fn := flightNumber(&fare)
	date, departure, err := departureParts(fare.DepartureAt)
	if err != nil {
		return model.Payload{}, err
	}
	airline, ok := s.catalog.AirlineName(fare.Airline)
	if !ok {
		return model.Payload{}, fmt.Errorf("unknown airline code %q", fare.Airline)
	}

	text := fmt.Sprintf(
		"Билет от %s до %s:\nНомер - %s\nДата вылета - %s\nВремя вылета - %s\nАвиакомпания - %s\nЦена - %d рублей\nКоличество пересадок - %d",
		utils.Capitalize(origin.Surface),
		utils.Capitalize(destination.Surface),
		fn,
		date,
		departure,
		airline,
		fare.Price,
		transfers,
	)

	return model.Payload{
		Text:    text,
		Buttons: []model.Button{searchButton(fn)},
	}, nil
}

// composePopular renders popular directions out of the origin city,
// one line and one button per direction, in gateway order. Directions
// whose airline or destination city cannot be resolved are skipped
// silently.
func (s *DialogService) composePopular(ctx context.Context, origin CityMatch) (model.Payload, error) {
	directions, err := s.fares.PopularFrom(ctx, origin.Code)
	if err != nil {
		return model.Payload{}, err
	}
	if directions == nil {
		return model.Payload{}, fmt.Errorf("no popular directions data for %s", origin.Code)
	}

	text := fmt.Sprintf("Самые популярные авиарейсы из %s:\n", s.catalog.LocativeForm(origin.Code))
	var buttons []model.Button

	for _, dir := range directions {
		airline, ok := s.catalog.AirlineName(dir.Fare.Airline)
		if !ok {
			continue
		}
		cityName, ok := s.catalog.CityName(dir.Destination)
		if !ok {
			continue
		}

		fn := flightNumber(&dir.Fare)
		text += fmt.Sprintf("%s - %s - %s\n", fn, utils.Capitalize(cityName), airline)
		buttons = append(buttons, searchButton(fn))
	}

	return model.Payload{Text: text, Buttons: buttons}, nil
}

// flightNumber concatenates the airline code with the flight number,
// e.g. "SU100".
func flightNumber(fare *model.Fare) string {
	return fare.Airline + strconv.Itoa(fare.FlightNumber)
}

// departureParts slices a departure timestamp like
// "2024-05-01T08:30:00Z" into its date (first 10 bytes) and time
// (byte 11 up to, and excluding, the final byte). Dropping the final
// byte is the documented rendering contract, not a parsing accident.
func departureParts(departureAt string) (string, string, error) {
	if len(departureAt) < 12 {
		return "", "", fmt.Errorf("departure timestamp too short: %q", departureAt)
	}
	return departureAt[:10], departureAt[11 : len(departureAt)-1], nil
}

func searchButton(flightNumber string) model.Button {
	return model.Button{
		Title: flightNumber,
		URL:   "https://yandex.ru/search/?text=" + flightNumber,
		Hide:  true,
	}
}
