package ai

// EntityTypes defines the valid categories for extracted entities.
// These types are used by graph extractors to classify entities.
var EntityTypes = []string{
	"person",
	"organization",
	"place",
	"event",
	"date",
	"work",
	"object",
	"technology",
	"concept",
	"occupation",
	"species",
	"substance",
	"measurement",
}
