// Package taxonomy holds the fixed experience taxonomy (categories -> types
// -> subtypes) and exposes it as a graph tool. The tagging sub-flow must
// retrieve this tree before emitting any category/type/subtype value.
package taxonomy

import (
	"context"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"

	logx "github.com/experience-engine/server/pkg/logger"
)

const ToolGetFullTaxonomy = "get_full_experience_taxonomy"

// Tree maps category -> type -> subtypes.
type Tree map[string]map[string][]string

// Full is the authoritative taxonomy. Tagging output is validated against
// this tree verbatim; values not present here must not be emitted.
var Full = Tree{
	"Activity": {
		"Adventure Sports": {"Base Jumping", "Bungee Jumping", "Paragliding", "Rock Climbing", "Zip Lining", "White Water Rafting"},
		"Water Activities": {"Scuba Diving", "Snorkeling", "Kayaking", "Surfing", "Boat Tour", "Island Hopping"},
		"Creative Workshops": {"Pottery", "Painting", "Cooking Class", "Photography Workshop", "Craft Making"},
		"Wellness": {"Yoga Retreat", "Spa Day", "Meditation Session", "Hot Springs"},
		"Outdoor": {"Hiking", "Trekking", "Camping", "Cycling Tour", "Wildlife Safari", "Bird Watching"},
	},
	"Food": {
		"Restaurants":      {"Fine Dining", "Street Food", "Local Cuisine", "Rooftop Dining", "Seafood"},
		"Food Experiences": {"Food Tour", "Wine Tasting", "Brewery Visit", "Farm to Table", "Night Market"},
	},
	"Culture": {
		"Heritage": {"Heritage Walk", "Monument Visit", "Museum Tour", "Archaeological Site", "Palace Tour", "Temple Visit"},
		"Arts":     {"Gallery Visit", "Theatre Show", "Live Music", "Folk Performance", "Artisan Village"},
		"Local Life": {"Village Tour", "Market Visit", "Festival Experience", "Homestay"},
	},
	"Nature": {
		"Landscapes": {"Mountain Viewpoint", "Waterfall Visit", "Beach Day", "Desert Excursion", "Lake Visit", "Garden Tour"},
		"Wildlife":   {"National Park", "Elephant Sanctuary", "Marine Reserve", "Bird Sanctuary"},
	},
	"Stay": {
		"Accommodation": {"Resort Stay", "Boutique Hotel", "Eco Lodge", "Glamping", "Houseboat"},
	},
}

// GetTaxonomyInput is the (empty) argument schema of the taxonomy tool.
type GetTaxonomyInput struct{}

// NewTool wraps the taxonomy lookup as a graph tool. Pure, side-effect-free.
func NewTool() tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: ToolGetFullTaxonomy,
			Desc: "Returns the complete, authoritative experience taxonomy as a nested mapping of categories to types to subtypes. Every category, type and subtype used in tagging output must exist verbatim in this tree.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{}),
		},
		func(ctx context.Context, in *GetTaxonomyInput) (Tree, error) {
			logx.Debug().Int("categories", len(Full)).Msg("Taxonomy tool called")
			return Full, nil
		},
	)
}

// HasCategory reports whether v is a top-level category.
func HasCategory(v string) bool {
	_, ok := Full[v]
	return ok
}

// HasType reports whether v is a type under any category.
func HasType(v string) bool {
	for _, types := range Full {
		if _, ok := types[v]; ok {
			return true
		}
	}
	return false
}

// HasSubtype reports whether v is a subtype under any type.
func HasSubtype(v string) bool {
	for _, types := range Full {
		for _, subs := range types {
			for _, s := range subs {
				if s == v {
					return true
				}
			}
		}
	}
	return false
}
