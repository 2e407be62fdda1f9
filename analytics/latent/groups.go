package latent

// DefaultSimilarityGroups are the hand-labeled flavor families used to
// validate that latent components place known-similar flavors close
// together. Flavors absent from a matrix are silently skipped.
var DefaultSimilarityGroups = map[string][]string{
	"mint": {"Andes Mint Avalanche", "Mint Cookie", "Mint Explosion"},
	"chocolate": {"Chocolate Caramel Twist", "Chocolate Heath Crunch", "Chocolate Volcano",
		"Dark Chocolate Decadence", "Dark Chocolate PB Crunch", "Chocolate Oreo Volcano"},
	"caramel": {"Caramel Cashew", "Caramel Fudge Cookie Dough", "Caramel Pecan",
		"Caramel Turtle", "Salted Caramel Pecan Pie", "Chocolate Caramel Twist"},
	"cheesecake": {"OREO Cheesecake", "OREO Cookie Cheesecake", "Raspberry Cheesecake",
		"Strawberry Cheesecake", "Turtle Cheesecake"},
	"turtle": {"Turtle", "Turtle Dove", "Turtle Cheesecake", "Caramel Turtle"},
}
