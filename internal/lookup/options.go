package lookup

import (
	"slices"

	"github.com/threadher/threadher/pkg/types"
)

// RepairService is a place or method for repairing a garment.
type RepairService struct {
	Name    string  `json:"name"`
	Type    string  `json:"type"`
	AvgCost float64 `json:"avg_cost"`
}

// ResalePlatform is a secondhand marketplace.
type ResalePlatform struct {
	Name       string  `json:"name"`
	Type       string  `json:"type"`
	Commission float64 `json:"commission"`
}

// RecyclingOption is a take-back or recycling channel.
type RecyclingOption struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	Incentive string `json:"incentive"`
}

// Impact is the estimated environmental benefit of a primary action.
type Impact struct {
	CarbonSavedKg    float64 `json:"carbon_saved_kg"`
	WaterSavedLiters float64 `json:"water_saved_liters"`
	Message          string  `json:"message"`
}

var repairServices = map[string][]RepairService{
	"default": {
		{Name: "Local tailor", Type: "repair", AvgCost: 15},
		{Name: "Dry cleaner with alterations", Type: "repair", AvgCost: 20},
		{Name: "DIY repair kits", Type: "diy", AvgCost: 10},
	},
	"jeans": {
		{Name: "Denim repair specialist", Type: "repair", AvgCost: 25},
		{Name: "Visible mending workshop", Type: "workshop", AvgCost: 30},
	},
	"shoes": {
		{Name: "Cobbler/shoe repair", Type: "repair", AvgCost: 35},
		{Name: "Sole replacement service", Type: "repair", AvgCost: 50},
	},
}

var resalePlatforms = []ResalePlatform{
	{Name: "ThredUp", Type: "online", Commission: 0.2},
	{Name: "Poshmark", Type: "online", Commission: 0.2},
	{Name: "Depop", Type: "online", Commission: 0.1},
	{Name: "The RealReal", Type: "luxury", Commission: 0.3},
	{Name: "Local consignment shop", Type: "local", Commission: 0.5},
}

var recyclingOptions = []RecyclingOption{
	{Name: "H&M garment collection", Type: "brand", Incentive: "discount coupon"},
	{Name: "Textile recycling center", Type: "municipal", Incentive: "environmental impact"},
	{Name: "For Days take-back program", Type: "brand", Incentive: "store credit"},
	{Name: "Donation to thrift store", Type: "charity", Incentive: "tax deduction"},
}

var upcyclingIdeas = map[string][]string{
	"tshirt":  {"tote bag", "cleaning rags", "pet toy", "headband"},
	"jeans":   {"denim bag", "pillow cover", "plant holder", "organizer"},
	"dress":   {"apron", "fabric panels", "scarf", "quilt squares"},
	"default": {"fabric scrap art", "patchwork project", "stuffing material"},
}

// ImpactFallbackAction is the action whose impact record is used for any
// action without its own entry.
const ImpactFallbackAction = "recycle"

var impacts = map[string]Impact{
	"repair": {
		CarbonSavedKg:    10.0,
		WaterSavedLiters: 2000,
		Message:          "Repairing extends garment life and saves resources",
	},
	"resale": {
		CarbonSavedKg:    8.0,
		WaterSavedLiters: 1500,
		Message:          "Reselling prevents one new item from being produced",
	},
	"recycle": {
		CarbonSavedKg:    3.0,
		WaterSavedLiters: 500,
		Message:          "Recycling keeps textiles out of landfills",
	},
	"upcycle": {
		CarbonSavedKg:    5.0,
		WaterSavedLiters: 1000,
		Message:          "Upcycling creates new value without new production",
	},
}

// RepairServices returns repair suggestions for a garment type.
func RepairServices(garmentType string) []RepairService {
	if v, ok := repairServices[types.NormalizeKey(garmentType)]; ok {
		return slices.Clone(v)
	}
	return slices.Clone(repairServices[types.DefaultKey])
}

// UpcyclingIdeas returns upcycling suggestions for a garment type.
func UpcyclingIdeas(garmentType string) []string {
	if v, ok := upcyclingIdeas[types.NormalizeKey(garmentType)]; ok {
		return slices.Clone(v)
	}
	return slices.Clone(upcyclingIdeas[types.DefaultKey])
}

// ResalePlatforms returns every resale platform.
func ResalePlatforms() []ResalePlatform { return slices.Clone(resalePlatforms) }

// RecyclingOptions returns every recycling channel.
func RecyclingOptions() []RecyclingOption { return slices.Clone(recyclingOptions) }

// ImpactFor returns the impact record for a primary action, falling back to
// the recycle record.
func ImpactFor(action string) Impact {
	if v, ok := impacts[action]; ok {
		return v
	}
	return impacts[ImpactFallbackAction]
}
