package keywords

// Built-in retail vocabulary. Weights reflect how unambiguous a cue is:
// "aisle" is almost always a location query, "by" only weakly so.
// These are content defaults, tunable via a vocabulary file without code
// changes; the scoring mechanism does not depend on the exact lists.

var defaultLocationTerms = map[string]float64{
	// Direct location queries
	"where":    1.0,
	"find":     1.0,
	"located":  1.0,
	"locate":   1.0,
	"location": 1.0,
	"position": 0.9,
	"place":    0.9,
	"spot":     0.8,

	// Aisle and section terms
	"aisle":    1.0,
	"section":  1.0,
	"shelf":    1.0,
	"bay":      0.9,
	"row":      0.8,
	"corridor": 0.7,
	"hallway":  0.7,

	// Proximity
	"near":     0.9,
	"next to":  0.9,
	"beside":   0.8,
	"close to": 0.8,
	"around":   0.7,
	"by":       0.6,

	// Directional
	"left":   0.6,
	"right":  0.6,
	"front":  0.6,
	"back":   0.6,
	"top":    0.5,
	"bottom": 0.5,
	"middle": 0.5,

	// Store layout
	"entrance": 0.7,
	"exit":     0.7,
	"checkout": 0.6,
	"register": 0.6,
	"counter":  0.5,

	// Question phrases
	"which aisle":   1.0,
	"what aisle":    1.0,
	"which section": 1.0,
	"what section":  1.0,
	"which shelf":   1.0,
	"what shelf":    1.0,
}

var defaultInformationTerms = map[string]float64{
	// Nutrition
	"ingredient":   1.0,
	"nutrition":    1.0,
	"calorie":      1.0,
	"protein":      0.9,
	"carbs":        0.9,
	"carbohydrate": 0.9,
	"fat":          0.9,
	"sugar":        0.9,
	"sodium":       0.9,
	"fiber":        0.8,
	"vitamin":      0.8,
	"mineral":      0.8,

	// Dietary restrictions
	"vegan":        1.0,
	"vegetarian":   1.0,
	"gluten-free":  1.0,
	"gluten free":  1.0,
	"dairy-free":   1.0,
	"dairy free":   1.0,
	"lactose-free": 1.0,
	"lactose free": 1.0,
	"halal":        1.0,
	"kosher":       1.0,
	"keto":         0.9,
	"paleo":        0.9,
	"organic":      0.8,
	"natural":      0.8,
	"non-gmo":      0.8,
	"non gmo":      0.8,

	// Allergens
	"allergen":    1.0,
	"allergy":     1.0,
	"allergic":    0.9,
	"contains":    0.8,
	"may contain": 0.8,
	"nut":         0.7,
	"peanut":      0.7,
	"tree nuts":   0.7,
	"soy":         0.7,
	"egg":         0.7,
	"shellfish":   0.7,

	// Product details
	"price":     1.0,
	"cost":      1.0,
	"expensive": 0.8,
	"cheap":     0.8,
	"size":      1.0,
	"weight":    0.9,
	"volume":    0.9,
	"dimension": 0.8,
	"package":   0.8,
	"container": 0.8,

	// Policies and freshness
	"return policy": 1.0,
	"warranty":      1.0,
	"guarantee":     1.0,
	"expiration":    1.0,
	"expiry":        1.0,
	"expire":        1.0,
	"best before":   1.0,
	"sell by":       1.0,
	"use by":        1.0,
	"fresh":         0.8,
	"frozen":        0.8,
	"refrigerated":  0.8,

	// Usage and preparation
	"how to":      0.9,
	"how do":      0.9,
	"cook":        0.8,
	"prepare":     0.8,
	"serve":       0.8,
	"recipe":      0.8,
	"instruction": 0.8,
	"direction":   0.8,
	"usage":       0.7,
	"storage":     0.7,

	// Quality
	"quality":   0.8,
	"rating":    0.8,
	"review":    0.8,
	"recommend": 0.8,
	"popular":   0.7,

	// Question phrases
	"what is":       0.9,
	"what are":      0.9,
	"tell me about": 0.9,
	"explain":       0.8,
	"describe":      0.8,
}

var defaultNegationTerms = []string{
	"not", "no", "don't", "dont", "doesn't", "doesnt",
	"isn't", "isnt", "aren't", "arent", "wasn't", "wasnt",
	"weren't", "werent", "won't", "wont", "can't", "cant",
	"couldn't", "couldnt", "shouldn't", "shouldnt",
	"wouldn't", "wouldnt", "never", "nothing", "nobody", "nowhere",
}
