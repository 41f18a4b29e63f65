package rendering

// Layout holds the spacing knobs of the standard template.
// Tighter layouts are chosen as pressure rises.
type Layout struct {
	FontSize         int
	MarginAdjust     string
	TextWidthAdjust  string
	TopMarginAdjust  string
	TextHeightAdjust string
	SectionVSpace    string
	EntryVSpace      string
	ItemSep          string
	ListEndVSpace    string
}

var layouts = []struct {
	below  float64
	layout Layout
}{
	{0.45, Layout{11, "-0.55in", "1.1in", "-0.5in", "1.0in", "-5pt", "-2pt", "-1pt", "-5pt"}},
	{0.6, Layout{10, "-0.6in", "1.2in", "-0.55in", "1.1in", "-6pt", "-3pt", "-2pt", "-6pt"}},
	{0.8, Layout{10, "-0.65in", "1.3in", "-0.6in", "1.2in", "-6pt", "-3pt", "-3pt", "-6pt"}},
}

var tightestLayout = Layout{10, "-0.7in", "1.4in", "-0.65in", "1.3in", "-7pt", "-4pt", "-3pt", "-7pt"}

// LayoutFor returns the spacing for a pressure value. NaN gets the loosest layout.
func LayoutFor(pressure float64) Layout {
	if pressure != pressure {
		return layouts[0].layout
	}
	for _, l := range layouts {
		if pressure < l.below {
			return l.layout
		}
	}
	return tightestLayout
}
