package lookup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFootprint_KnownPairsMatchTable(t *testing.T) {
	pairs := FootprintPairs()
	require.NotEmpty(t, pairs)

	for _, p := range pairs {
		assert.Equal(t, p.Kg, Footprint(p.GarmentType, p.Material), "%s/%s", p.GarmentType, p.Material)
	}
}

func TestFootprint_Fallbacks(t *testing.T) {
	tests := []struct {
		name        string
		garmentType string
		material    string
		want        float64
	}{
		{"unknown garment", "kimono", "silk", 10.0},
		{"unknown garment empty material", "kimono", "", 10.0},
		{"unknown material uses row default", "jacket", "vinyl", 30.0},
		{"empty both", "", "", 10.0},
		{"case insensitive", "TShirt", "Organic_Cotton", 3.5},
		{"padded", "  jeans ", " denim", 33.4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Footprint(tt.garmentType, tt.material))
		})
	}
}

func TestEveryFootprintRowHasDefault(t *testing.T) {
	for g, row := range footprints {
		_, ok := row["default"]
		assert.True(t, ok, "row %q must carry a default material", g)
	}
}

func TestRecommendedLifespan(t *testing.T) {
	assert.Equal(t, 2.0, RecommendedLifespan("tshirt"))
	assert.Equal(t, 7.0, RecommendedLifespan("JACKET"))
	assert.Equal(t, 3.0, RecommendedLifespan("poncho"))
	assert.Equal(t, 3.0, RecommendedLifespan(""))
}

func TestOptionTables_FallBackToDefault(t *testing.T) {
	assert.Len(t, RepairServices("jeans"), 2)
	assert.Equal(t, "Local tailor", RepairServices("hat")[0].Name)
	assert.Equal(t, []string{"tote bag", "cleaning rags", "pet toy", "headband"}, UpcyclingIdeas("tshirt"))
	assert.Equal(t, []string{"fabric scrap art", "patchwork project", "stuffing material"}, UpcyclingIdeas("shoes"))
}

func TestAccessorsReturnCopies(t *testing.T) {
	ideas := UpcyclingIdeas("tshirt")
	ideas[0] = "mutated"
	assert.Equal(t, "tote bag", UpcyclingIdeas("tshirt")[0])

	platforms := ResalePlatforms()
	platforms[0].Name = "mutated"
	assert.Equal(t, "ThredUp", ResalePlatforms()[0].Name)
}

func TestImpactFor(t *testing.T) {
	assert.Equal(t, 10.0, ImpactFor("repair").CarbonSavedKg)
	assert.Equal(t, 1500.0, ImpactFor("resale").WaterSavedLiters)
	assert.Equal(t, ImpactFor("recycle"), ImpactFor("donation"))
	assert.Equal(t, ImpactFor("recycle"), ImpactFor(""))
}
