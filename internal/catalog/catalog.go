// Package catalog holds the fixed set of design styles a room can be
// reimagined in. The order is the order the styles are offered to the user;
// the first entry is the default selection of a new session.
package catalog

import "github.com/iamvkosarev/ai-interior-designer/internal/model"

var styles = []model.DesignStyle{
	{
		ID:          "scandinavian",
		Name:        "Scandinavian",
		Description: "Minimalist, functional, and cozy with light woods.",
		Prompt:      "Scandinavian interior design style, light wood furniture, white walls, cozy hygge atmosphere, minimalist decor.",
		Icon:        "fa-tree",
	},
	{
		ID:          "mid-century",
		Name:        "Mid-Century Modern",
		Description: "Clean lines, organic shapes, and functional wood furniture.",
		Prompt:      "Mid-century modern interior design, iconic 1950s furniture, teak wood, geometric patterns, tapered legs.",
		Icon:        "fa-couch",
	},
	{
		ID:          "industrial",
		Name:        "Industrial",
		Description: "Raw materials, exposed brick, and metallic accents.",
		Prompt:      "Industrial loft interior design, exposed brick walls, metal pipes, reclaimed wood, Edison bulbs, dark tones.",
		Icon:        "fa-building",
	},
	{
		ID:          "bohemian",
		Name:        "Bohemian",
		Description: "Eclectic, colorful, and rich with patterns and textures.",
		Prompt:      "Bohemian chic interior design, vibrant textiles, many indoor plants, rattan furniture, layered rugs, warm colors.",
		Icon:        "fa-leaf",
	},
	{
		ID:          "minimalist",
		Name:        "Minimalist",
		Description: "Sleek, uncluttered, and focuses on essential forms.",
		Prompt:      "Modern minimalist interior design, high-end luxury, monochrome palette, vast open space, hidden storage.",
		Icon:        "fa-circle-dot",
	},
	{
		ID:          "japandi",
		Name:        "Japandi",
		Description: "A blend of Japanese and Scandinavian styles.",
		Prompt:      "Japandi interior design, fusion of Japanese and Scandi, zen atmosphere, bamboo, muted earth tones, low furniture.",
		Icon:        "fa-mountain-sun",
	},
}

// Styles returns the catalog in display order. The slice is a copy.
func Styles() []model.DesignStyle {
	out := make([]model.DesignStyle, len(styles))
	copy(out, styles)
	return out
}

// Default is the style a session starts with.
func Default() model.DesignStyle {
	return styles[0]
}

// Lookup finds a style by id.
func Lookup(id string) (model.DesignStyle, bool) {
	for _, style := range styles {
		if style.ID == id {
			return style, true
		}
	}
	return model.DesignStyle{}, false
}
