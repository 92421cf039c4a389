package service

import (
	"context"
	"reflect"
	"strings"
	"testing"

	"aviaskill/internal/model"
)

// stubGateway is a canned FareGateway for composer tests. It counts
// calls so tests can assert that no lookup happened at all.
type stubGateway struct {
	today   *model.Fare
	month   []model.MonthPrice
	tiers   map[int]model.Fare
	popular []model.Direction
	calls   int
}

func (g *stubGateway) CheapestToday(ctx context.Context, origin, destination string) (*model.Fare, error) {
	g.calls++
	return g.today, nil
}

func (g *stubGateway) MonthPrices(ctx context.Context, origin, destination string) ([]model.MonthPrice, error) {
	g.calls++
	return g.month, nil
}

func (g *stubGateway) CheapestByTransfers(ctx context.Context, origin, destination string) (map[int]model.Fare, error) {
	g.calls++
	return g.tiers, nil
}

func (g *stubGateway) PopularFrom(ctx context.Context, origin string) ([]model.Direction, error) {
	g.calls++
	return g.popular, nil
}

func turn(tokens ...string) Turn {
	return Turn{Command: strings.Join(tokens, " "), Tokens: tokens}
}

func TestHandleTurn_Greeting(t *testing.T) {
	svc := NewDialogService(newTestCatalog(), &stubGateway{})

	tests := []struct {
		name string
		turn Turn
	}{
		{name: "new session", turn: Turn{NewSession: true, Command: "привет"}},
		{name: "empty command", turn: Turn{Command: ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := svc.HandleTurn(context.Background(), tt.turn)
			if result.Intent != model.IntentGreeting {
				t.Errorf("intent = %q, want greeting", result.Intent)
			}
			if result.Payload.Text != "Привет, я могу помочь с подбором рейса." {
				t.Errorf("unexpected greeting text: %q", result.Payload.Text)
			}
		})
	}
}

func TestHandleTurn_TodayCheapest(t *testing.T) {
	gateway := &stubGateway{
		today: &model.Fare{
			Origin:       "MOW",
			Destination:  "PAR",
			Price:        12000,
			Airline:      "SU",
			FlightNumber: 100,
			DepartureAt:  "2024-05-01T08:30:00Z",
		},
	}
	svc := NewDialogService(newTestCatalog(), gateway)

	result := svc.HandleTurn(context.Background(), turn("Москва", "Париж", "дешевый"))

	if result.Intent != model.IntentTodayCheapest {
		t.Fatalf("intent = %q, want today_cheapest", result.Intent)
	}
	for _, want := range []string{"Москвы", "Парижа", "SU100", "2024-05-01", "08:30", "Аэрофлот", "12000 рублей"} {
		if !strings.Contains(result.Payload.Text, want) {
			t.Errorf("reply does not contain %q:\n%s", want, result.Payload.Text)
		}
	}
	if len(result.Payload.Buttons) != 1 {
		t.Fatalf("expected 1 button, got %d", len(result.Payload.Buttons))
	}
	button := result.Payload.Buttons[0]
	if button.Title != "SU100" {
		t.Errorf("button title = %q, want SU100", button.Title)
	}
	if button.URL != "https://yandex.ru/search/?text=SU100" {
		t.Errorf("button url = %q", button.URL)
	}
	if !button.Hide {
		t.Error("button must be hidden after use")
	}
}

func TestHandleTurn_TodayNotFound(t *testing.T) {
	svc := NewDialogService(newTestCatalog(), &stubGateway{today: nil})

	result := svc.HandleTurn(context.Background(), turn("москва", "париж"))

	if result.Payload.Text != "Авиарейс не найден." {
		t.Errorf("reply = %q, want exact not-found text", result.Payload.Text)
	}
	if len(result.Payload.Buttons) != 0 {
		t.Errorf("expected no buttons, got %d", len(result.Payload.Buttons))
	}
}

func TestHandleTurn_MonthCheapest(t *testing.T) {
	gateway := &stubGateway{
		month: []model.MonthPrice{
			{DepartDate: "2024-05-01", Value: 9000},
			{DepartDate: "2024-05-02", Value: 7000},
			{DepartDate: "2024-05-03", Value: 11000},
		},
	}
	svc := NewDialogService(newTestCatalog(), gateway)

	result := svc.HandleTurn(context.Background(), turn("москва", "париж", "дешевый", "месяц"))

	if result.Intent != model.IntentMonthCheapest {
		t.Fatalf("intent = %q, want month_cheapest", result.Intent)
	}
	if !strings.Contains(result.Payload.Text, "7000 рублей") {
		t.Errorf("reply does not contain the minimum price:\n%s", result.Payload.Text)
	}
	for _, want := range []string{"Москвы", "Парижа"} {
		if !strings.Contains(result.Payload.Text, want) {
			t.Errorf("reply does not contain %q:\n%s", want, result.Payload.Text)
		}
	}
	if len(result.Payload.Buttons) != 0 {
		t.Errorf("month reply must carry no buttons, got %d", len(result.Payload.Buttons))
	}
}

func TestHandleTurn_MonthNotFound(t *testing.T) {
	svc := NewDialogService(newTestCatalog(), &stubGateway{month: nil})

	result := svc.HandleTurn(context.Background(), turn("москва", "париж", "дешевый", "месяц"))

	if result.Payload.Text != "Авиарейс не найден." {
		t.Errorf("reply = %q, want exact not-found text", result.Payload.Text)
	}
}

func TestHandleTurn_ByTransfers(t *testing.T) {
	gateway := &stubGateway{
		tiers: map[int]model.Fare{
			0: {Price: 15000, Airline: "SU", FlightNumber: 10, DepartureAt: "2024-05-01T08:30:00Z"},
			1: {Price: 11000, Airline: "AF", FlightNumber: 20, DepartureAt: "2024-05-01T10:00:00Z"},
			2: {Price: 9000, Airline: "SU", FlightNumber: 30, DepartureAt: "2024-05-01T12:45:00Z"},
		},
	}
	svc := NewDialogService(newTestCatalog(), gateway)

	t.Run("zero transfers", func(t *testing.T) {
		result := svc.HandleTurn(context.Background(), turn("москва", "париж", "дешевый", "без", "пересадок"))
		if result.Intent != model.IntentByTransfers {
			t.Fatalf("intent = %q, want by_transfers", result.Intent)
		}
		for _, want := range []string{"SU10", "15000 рублей", "Количество пересадок - 0"} {
			if !strings.Contains(result.Payload.Text, want) {
				t.Errorf("reply does not contain %q:\n%s", want, result.Payload.Text)
			}
		}
	})

	t.Run("default tier is two transfers", func(t *testing.T) {
		result := svc.HandleTurn(context.Background(), turn("москва", "париж", "дешевый", "с", "пересадками"))
		for _, want := range []string{"SU30", "9000 рублей", "Количество пересадок - 2"} {
			if !strings.Contains(result.Payload.Text, want) {
				t.Errorf("reply does not contain %q:\n%s", want, result.Payload.Text)
			}
		}
	})

	t.Run("cities rendered in plain capitalized form", func(t *testing.T) {
		result := svc.HandleTurn(context.Background(), turn("из", "москвы", "до", "парижа", "дешевый", "без", "пересадок"))
		// The matched surface forms are capitalized, not replaced by
		// locative display forms.
		if !strings.Contains(result.Payload.Text, "Билет от Москвы до Парижа:") {
			t.Errorf("unexpected city rendering:\n%s", result.Payload.Text)
		}
	})

	t.Run("button present", func(t *testing.T) {
		result := svc.HandleTurn(context.Background(), turn("москва", "париж", "дешевый", "без", "пересадок"))
		if len(result.Payload.Buttons) != 1 || result.Payload.Buttons[0].Title != "SU10" {
			t.Errorf("unexpected buttons: %+v", result.Payload.Buttons)
		}
	})
}

// A transfer query with no gateway data is a composition fault and
// renders the fixed fallback text, not "not found".
func TestHandleTurn_ByTransfersMissingDataFallsBack(t *testing.T) {
	svc := NewDialogService(newTestCatalog(), &stubGateway{tiers: nil})

	result := svc.HandleTurn(context.Background(), turn("москва", "париж", "дешевый", "без", "пересадок"))

	if result.Payload.Text != "Я не знаю, что случилось. Возможно таких рейсов просто не существует." {
		t.Errorf("reply = %q, want exact fallback text", result.Payload.Text)
	}
	if len(result.Payload.Buttons) != 0 {
		t.Errorf("expected no buttons, got %d", len(result.Payload.Buttons))
	}
}

func TestHandleTurn_Popular(t *testing.T) {
	gateway := &stubGateway{
		popular: []model.Direction{
			{Destination: "PAR", Fare: model.Fare{Airline: "SU", FlightNumber: 100}},
			{Destination: "LED", Fare: model.Fare{Airline: "AF", FlightNumber: 250}},
		},
	}
	svc := NewDialogService(newTestCatalog(), gateway)

	result := svc.HandleTurn(context.Background(), turn("популярные", "рейсы", "из", "москвы"))

	if result.Intent != model.IntentPopular {
		t.Fatalf("intent = %q, want popular_from_city", result.Intent)
	}
	if !strings.HasPrefix(result.Payload.Text, "Самые популярные авиарейсы из Москвы:\n") {
		t.Errorf("unexpected header:\n%s", result.Payload.Text)
	}
	for _, want := range []string{"SU100 - Париж - Аэрофлот", "AF250 - Санкт-Петербург - Air France"} {
		if !strings.Contains(result.Payload.Text, want) {
			t.Errorf("reply does not contain %q:\n%s", want, result.Payload.Text)
		}
	}
	if len(result.Payload.Buttons) != 2 {
		t.Fatalf("expected 2 buttons, got %d", len(result.Payload.Buttons))
	}
	if result.Payload.Buttons[0].Title != "SU100" || result.Payload.Buttons[1].Title != "AF250" {
		t.Errorf("buttons out of gateway order: %+v", result.Payload.Buttons)
	}
}

// Directions whose airline or destination city cannot be resolved are
// skipped without failing the turn.
func TestHandleTurn_PopularSkipsUnresolvableDirections(t *testing.T) {
	gateway := &stubGateway{
		popular: []model.Direction{
			{Destination: "PAR", Fare: model.Fare{Airline: "ZZ", FlightNumber: 1}}, // unknown airline
			{Destination: "QQQ", Fare: model.Fare{Airline: "SU", FlightNumber: 2}}, // unknown city
			{Destination: "PAR", Fare: model.Fare{Airline: "SU", FlightNumber: 100}},
		},
	}
	svc := NewDialogService(newTestCatalog(), gateway)

	result := svc.HandleTurn(context.Background(), turn("популярные", "рейсы", "из", "москвы"))

	if strings.Contains(result.Payload.Text, "ZZ1") || strings.Contains(result.Payload.Text, "SU2") {
		t.Errorf("unresolvable directions were not skipped:\n%s", result.Payload.Text)
	}
	if !strings.Contains(result.Payload.Text, "SU100 - Париж - Аэрофлот") {
		t.Errorf("resolvable direction missing:\n%s", result.Payload.Text)
	}
	if len(result.Payload.Buttons) != 1 {
		t.Errorf("expected 1 button, got %d", len(result.Payload.Buttons))
	}
}

func TestHandleTurn_UnknownCommand(t *testing.T) {
	tests := []struct {
		name   string
		tokens []string
	}{
		{name: "unrecognized origin city", tokens: []string{"багдад", "париж", "дешевый"}},
		{name: "no cities at all", tokens: []string{"дешевый", "билет", "месяц"}},
		{name: "three cities", tokens: []string{"москва", "париж", "санкт-петербург"}},
		{name: "one city without popular keyword", tokens: []string{"билет", "из", "москвы"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gateway := &stubGateway{}
			svc := NewDialogService(newTestCatalog(), gateway)

			result := svc.HandleTurn(context.Background(), turn(tt.tokens...))

			if result.Intent != model.IntentUnknown {
				t.Errorf("intent = %q, want unknown", result.Intent)
			}
			if result.Payload.Text != "Я не знаю такой команды." {
				t.Errorf("reply = %q, want exact unknown-command text", result.Payload.Text)
			}
			if gateway.calls != 0 {
				t.Errorf("gateway was called %d times for an unknown command", gateway.calls)
			}
		})
	}
}

// The rendered departure time is departure_at[11:len-1]: without a
// trailing zone designator the final digit of the seconds is dropped.
// That slicing is the rendering contract and must not be "fixed".
func TestHandleTurn_DepartureTimeDropsFinalCharacter(t *testing.T) {
	gateway := &stubGateway{
		today: &model.Fare{
			Price:        5000,
			Airline:      "SU",
			FlightNumber: 7,
			DepartureAt:  "2024-05-01T08:30:00",
		},
	}
	svc := NewDialogService(newTestCatalog(), gateway)

	result := svc.HandleTurn(context.Background(), turn("москва", "париж"))

	if !strings.Contains(result.Payload.Text, "Время вылета - 08:30:0\n") {
		t.Errorf("expected truncated time 08:30:0, got:\n%s", result.Payload.Text)
	}
}

func TestHandleTurn_MalformedTimestampFallsBack(t *testing.T) {
	gateway := &stubGateway{
		today: &model.Fare{Price: 5000, Airline: "SU", FlightNumber: 7, DepartureAt: "bad"},
	}
	svc := NewDialogService(newTestCatalog(), gateway)

	result := svc.HandleTurn(context.Background(), turn("москва", "париж"))

	if result.Payload.Text != "Я не знаю, что случилось. Возможно таких рейсов просто не существует." {
		t.Errorf("reply = %q, want exact fallback text", result.Payload.Text)
	}
}

func TestHandleTurn_UnknownAirlineFallsBack(t *testing.T) {
	gateway := &stubGateway{
		today: &model.Fare{Price: 5000, Airline: "ZZ", FlightNumber: 7, DepartureAt: "2024-05-01T08:30:00Z"},
	}
	svc := NewDialogService(newTestCatalog(), gateway)

	result := svc.HandleTurn(context.Background(), turn("москва", "париж"))

	if result.Payload.Text != "Я не знаю, что случилось. Возможно таких рейсов просто не существует." {
		t.Errorf("reply = %q, want exact fallback text", result.Payload.Text)
	}
}

// Composing the same turn against the same gateway data twice yields
// identical text and buttons.
func TestHandleTurn_Deterministic(t *testing.T) {
	gateway := &stubGateway{
		popular: []model.Direction{
			{Destination: "PAR", Fare: model.Fare{Airline: "SU", FlightNumber: 100}},
			{Destination: "LED", Fare: model.Fare{Airline: "AF", FlightNumber: 250}},
		},
	}
	svc := NewDialogService(newTestCatalog(), gateway)
	in := turn("популярные", "рейсы", "из", "москвы")

	first := svc.HandleTurn(context.Background(), in)
	second := svc.HandleTurn(context.Background(), in)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("two compositions of the same turn differ:\n%+v\n%+v", first, second)
	}
}
