package seed

// TopPlayers is the curated list collected by CollectTop. Names go through
// the resolver, so a player changing teams or ids needs no edit here.
var TopPlayers = []string{
	// QB
	"Patrick Mahomes",
	"Josh Allen",
	"Jalen Hurts",
	"Lamar Jackson",
	"Joe Burrow",
	"Dak Prescott",
	"Tua Tagovailoa",
	"Aaron Rodgers",

	// RB
	"Christian McCaffrey",
	"Breece Hall",
	"Saquon Barkley",
	"Josh Jacobs",
	"Nick Chubb",
	"Alvin Kamara",
	"Joe Mixon",
	"Jonathan Taylor",

	// WR
	"Justin Jefferson",
	"Ja'Marr Chase",
	"Cooper Kupp",
	"Tyreek Hill",
	"Davante Adams",
	"Stefon Diggs",
	"Mike Evans",
	"A.J. Brown",
	"CeeDee Lamb",
	"DK Metcalf",

	// TE
	"Travis Kelce",
	"Mark Andrews",
	"George Kittle",
	"Kyle Pitts",
}
