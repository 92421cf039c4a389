package model

// Fare is a single priced flight as returned by the calendar,
// cheap-prices and city-directions endpoints. Produced fresh per
// query; never persisted.
type Fare struct {
	Origin       string `json:"origin"`
	Destination  string `json:"destination"`
	Price        int    `json:"price"`
	Airline      string `json:"airline"`
	FlightNumber int    `json:"flight_number"`
	DepartureAt  string `json:"departure_at"`
	ReturnAt     string `json:"return_at"`
	ExpiresAt    string `json:"expires_at"`
	Transfers    int    `json:"transfers"`
}

// MonthPrice is one daily offer from the month-matrix endpoint,
// which uses a different shape than the other three operations.
type MonthPrice struct {
	DepartDate      string `json:"depart_date"`
	Origin          string `json:"origin"`
	Destination     string `json:"destination"`
	Value           int    `json:"value"`
	NumberOfChanges int    `json:"number_of_changes"`
	Distance        int    `json:"distance"`
	Actual          bool   `json:"actual"`
	TripClass       int    `json:"trip_class"`
	FoundAt         string `json:"found_at"`
}

// Direction pairs a destination city code with its fare. Directions
// are kept in the order the gateway returned them.
type Direction struct {
	Destination string
	Fare        Fare
}
