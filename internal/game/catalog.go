package game

import (
	"math/rand"
	"strings"
)

// Location pairs a place with the roles an insider can be dealt there.
type Location struct {
	Name  string   `json:"name"`
	Roles []string `json:"roles"`
}

const SpyRole = "Spy"

// Catalog is the standard deck: every participant (spies included) knows
// this full list; only the insiders learn which entry was drawn.
var Catalog = []Location{
	{"Airplane", []string{"Flight Attendant", "Co-Pilot", "Passenger", "Stowaway", "Captain", "Aircraft Engineer"}},
	{"Amusement Park", []string{"Clown", "Kid", "Mechanic", "Ride Operator", "Tourist", "Security Guard"}},
	{"Bank", []string{"Branch Manager", "Teller", "Robber", "Customer", "Security Guard", "Consultant"}},
	{"Beach", []string{"Lifeguard", "Paraglider", "Food Vendor", "Photographer", "Vacationer", "Entertainment Director"}},
	{"Casino", []string{"Dealer", "Gambler", "Bartender", "Security Guard", "Pit Boss", "Card Counter"}},
	{"Circus", []string{"Clown", "Acrobat", "Animal Trainer", "Magician", "Juggler", "Spectator"}},
	{"Embassy", []string{"Ambassador", "Diplomat", "Secretary", "Refugee", "Security Officer", "Lawyer"}},
	{"Hospital", []string{"Chief Physician", "Intern", "Nurse", "Patient", "Surgeon", "Pathologist"}},
	{"Hotel", []string{"Manager", "Housekeeper", "Receptionist", "Guest", "Bartender", "Doorman"}},
	{"Movie Studio", []string{"Director", "Actor", "Camera Operator", "Costume Designer", "Extra", "Stuntman"}},
	{"Cruise Ship", []string{"Captain", "Deckhand", "Bartender", "Musician", "Cook", "Wealthy Passenger"}},
	{"Police Station", []string{"Police Officer", "Detective", "Journalist", "Criminal", "Suspect", "Lawyer"}},
	{"Restaurant", []string{"Chef", "Waiter", "Maitre d'", "Customer", "Musician", "Food Critic"}},
	{"School", []string{"Principal", "Teacher", "Student", "Gym Teacher", "Janitor", "Security Guard"}},
	{"Supermarket", []string{"Cashier", "Customer", "Butcher", "Delivery Driver", "Security Guard", "Promoter"}},
}

// LocationNames returns the catalog's location names in deck order.
func LocationNames() []string {
	names := make([]string, len(Catalog))
	for i, loc := range Catalog {
		names[i] = loc.Name
	}
	return names
}

// CatalogueText renders the full deck as a reference sheet. Spies get it
// verbatim in their role context as a red-herring catalog.
func CatalogueText() string {
	var sb strings.Builder
	for _, loc := range Catalog {
		sb.WriteString("- ")
		sb.WriteString(loc.Name)
		sb.WriteString(": ")
		sb.WriteString(strings.Join(loc.Roles, ", "))
		sb.WriteString("\n")
	}
	return sb.String()
}

func findLocation(name string) *Location {
	for i := range Catalog {
		if Catalog[i].Name == name {
			return &Catalog[i]
		}
	}
	return nil
}

// drawAssignment picks the secret location and deals roles: SpyCount
// spies, everyone else an insider with a role from the drawn location.
// The returned participants are in seat order.
func drawAssignment(cfg SessionConfig, rng *rand.Rand) (string, []*Participant) {
	loc := Catalog[rng.Intn(len(Catalog))]

	insiders := len(cfg.PlayerNames) - cfg.SpyCount
	roles := make([]string, 0, len(cfg.PlayerNames))
	for i := 0; i < cfg.SpyCount; i++ {
		roles = append(roles, SpyRole)
	}
	if insiders <= len(loc.Roles) {
		perm := rng.Perm(len(loc.Roles))
		for i := 0; i < insiders; i++ {
			roles = append(roles, loc.Roles[perm[i]])
		}
	} else {
		// more insiders than distinct roles: allow repeats
		for i := 0; i < insiders; i++ {
			roles = append(roles, loc.Roles[rng.Intn(len(loc.Roles))])
		}
	}
	rng.Shuffle(len(roles), func(i, j int) { roles[i], roles[j] = roles[j], roles[i] })

	participants := make([]*Participant, len(cfg.PlayerNames))
	for i, name := range cfg.PlayerNames {
		faction := FactionInsider
		if roles[i] == SpyRole {
			faction = FactionSpy
		}
		participants[i] = &Participant{
			Index:   i,
			Name:    name,
			Role:    roles[i],
			Faction: faction,
			IsHuman: i == cfg.HumanIndex,
			Alive:   true,
		}
	}
	return loc.Name, participants
}
