package shared

import (
	"fmt"
	"strconv"
)

// Team represents one of the two partnerships.
type Team int

const (
	TeamA Team = 10 // Positions A1 and A2
	TeamB Team = 20 // Positions B1 and B2
)

// Teams lists both teams.
var Teams = []Team{TeamA, TeamB}

// Opponent returns the other team.
func (t Team) Opponent() Team {
	if t == TeamA {
		return TeamB
	}
	return TeamA
}

func (t Team) String() string {
	switch t {
	case TeamA:
		return "A"
	case TeamB:
		return "B"
	default:
		return "?"
	}
}

// Position is one of the four fixed seats. The numeric value is the seat code
// used on the wire and in storage: tens digit is the team, units the seat.
type Position int

const (
	A1 Position = 11
	A2 Position = 12
	B1 Position = 21
	B2 Position = 22
)

// SeatOrder is the fixed order in which cards are dealt.
var SeatOrder = [4]Position{A1, A2, B1, B2}

// Valid reports whether p is one of the four seats.
func (p Position) Valid() bool {
	switch p {
	case A1, A2, B1, B2:
		return true
	}
	return false
}

// Next returns the seat that plays after p: A1 -> B1 -> A2 -> B2 -> A1.
// Each step alternates opponent and partner.
func (p Position) Next() Position {
	switch p {
	case A1:
		return B1
	case B1:
		return A2
	case A2:
		return B2
	case B2:
		return A1
	}
	panic(fmt.Sprintf("invalid position %d", int(p)))
}

// Team returns the partnership seated at p.
func (p Position) Team() Team {
	return Team(int(p) / 10 * 10)
}

// Partner returns the other seat of p's team.
func (p Position) Partner() Position {
	switch p {
	case A1:
		return A2
	case A2:
		return A1
	case B1:
		return B2
	case B2:
		return B1
	}
	panic(fmt.Sprintf("invalid position %d", int(p)))
}

// Index returns p's slot in SeatOrder.
func (p Position) Index() int {
	for i, seat := range SeatOrder {
		if seat == p {
			return i
		}
	}
	return -1
}

func (p Position) String() string {
	if !p.Valid() {
		return strconv.Itoa(int(p))
	}
	return p.Team().String() + strconv.Itoa(int(p)%10)
}
