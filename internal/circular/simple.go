package circular

import (
	"fmt"
	"strings"

	"github.com/threadher/threadher/internal/lookup"
)

// UnknownLocation is the location marker that suppresses the location note
// in the simple view.
const UnknownLocation = "unknown"

// DefaultSimpleAction is reported when no option applies.
const DefaultSimpleAction = "Keep wearing"

// SimpleOption is one entry of the simple option list.
type SimpleOption struct {
	Option               string   `json:"option"`
	Description          string   `json:"description"`
	EstimatedCost        string   `json:"estimated_cost,omitempty"`
	EstimatedValue       string   `json:"estimated_value,omitempty"`
	EnvironmentalBenefit string   `json:"environmental_benefit"`
	Resources            []string `json:"resources,omitempty"`
	Platforms            []string `json:"platforms,omitempty"`
	Tip                  string   `json:"tip,omitempty"`
}

// SimpleResult is the simple view. LocationNote is null when the location
// is unknown.
type SimpleResult struct {
	CircularOptions   []SimpleOption `json:"circular_options"`
	RecommendedAction string         `json:"recommended_action"`
	LocationNote      *string        `json:"location_note"`
}

// Simple builds the short option list for req. Worn-out conditions (damaged,
// worn, fair) get repair, upcycle and recycle; good or new items get
// resell, donate and keep wearing; anything else gets no options. The
// garment type is used verbatim in descriptions.
func Simple(req Request) SimpleResult {
	garment := req.GarmentType

	var options []SimpleOption
	switch lookup.RuleFor(req.Condition).Bucket {
	case lookup.BucketMend:
		options = mendOptions(garment)
	case lookup.BucketReuse:
		options = reuseOptions(garment)
	}
	if options == nil {
		options = []SimpleOption{}
	}

	res := SimpleResult{
		CircularOptions:   options,
		RecommendedAction: DefaultSimpleAction,
	}
	if len(options) > 0 {
		res.RecommendedAction = options[0].Option
	}

	loc := strings.TrimSpace(req.UserLocation)
	if loc != "" && loc != UnknownLocation {
		note := "Options available in your area: " + loc
		res.LocationNote = &note
	}
	return res
}

func mendOptions(garment string) []SimpleOption {
	return []SimpleOption{
		{
			Option:               "Repair",
			Description:          fmt.Sprintf("Find a local tailor to repair your %s", garment),
			EstimatedCost:        "$15-40",
			EnvironmentalBenefit: "Extends garment life, saves carbon from producing new item",
			Resources: []string{
				"Search 'clothing repair near me'",
				"Check if brand offers repair services",
			},
		},
		{
			Option:               "Upcycle",
			Description:          fmt.Sprintf("Transform your %s into something new", garment),
			EstimatedCost:        "$0-20",
			EnvironmentalBenefit: "Creative reuse, prevents textile waste",
			Resources: []string{
				fmt.Sprintf("YouTube: 'upcycle %s'", garment),
				"Local craft workshops",
			},
		},
		{
			Option:               "Recycle",
			Description:          "Textile recycling to create new materials",
			EstimatedCost:        "$0",
			EnvironmentalBenefit: "Prevents landfill waste, materials recovery",
			Resources: []string{
				"H&M Garment Collecting program",
				"The North Face Clothes The Loop",
				"Local textile recycling centers",
			},
		},
	}
}

func reuseOptions(garment string) []SimpleOption {
	return []SimpleOption{
		{
			Option:               "Resell",
			Description:          fmt.Sprintf("Sell your %s on secondhand marketplace", garment),
			EstimatedValue:       "$20-100",
			EnvironmentalBenefit: "Extends product life, reduces new production demand",
			Platforms: []string{
				"Poshmark",
				"ThredUp",
				"Depop",
				"Vestiaire Collective",
				"Facebook Marketplace",
			},
		},
		{
			Option:               "Donate",
			Description:          "Give to someone who needs it",
			EstimatedCost:        "$0",
			EnvironmentalBenefit: "Helps others, keeps clothing in use",
			Resources: []string{
				"Goodwill",
				"The Salvation Army",
				"Local homeless shelters",
				"Dress for Success",
			},
		},
		{
			Option:               "Keep Wearing",
			Description:          fmt.Sprintf("Your %s is in good condition - keep using it!", garment),
			EnvironmentalBenefit: "Most sustainable choice is to use what you have",
			Tip:                  "Each additional year of use significantly reduces environmental impact",
		},
	}
}
