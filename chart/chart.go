package chart

// Palette is one colour family of a Theme.
type Palette struct {
	Light        string `json:"light" yaml:"Light"`
	Main         string `json:"main" yaml:"Main"`
	Dark         string `json:"dark" yaml:"Dark"`
	ContrastText string `json:"contrastText" yaml:"ContrastText"`
}

// Theme is passed to every chart explicitly.
type Theme struct {
	Primary   Palette `json:"primary" yaml:"Primary"`
	Secondary Palette `json:"secondary" yaml:"Secondary"`
}

// DefaultTheme is the indigo/pink palette of the dashboard.
func DefaultTheme() Theme {
	return Theme{
		Primary: Palette{
			Light:        "#757ce8",
			Main:         "#303f9b",
			Dark:         "#283749",
			ContrastText: "#fff",
		},
		Secondary: Palette{
			Light:        "rgba(217,115,157,0.56)",
			Main:         "rgba(224,101,148,0.88)",
			Dark:         "#af0c65",
			ContrastText: "#000",
		},
	}
}

// Merge fills the empty colours of t from def.
func (t Theme) Merge(def Theme) Theme {
	t.Primary = t.Primary.merge(def.Primary)
	t.Secondary = t.Secondary.merge(def.Secondary)
	return t
}

func (p Palette) merge(def Palette) Palette {
	if p.Light == "" {
		p.Light = def.Light
	}
	if p.Main == "" {
		p.Main = def.Main
	}
	if p.Dark == "" {
		p.Dark = def.Dark
	}
	if p.ContrastText == "" {
		p.ContrastText = def.ContrastText
	}
	return p
}

// Series is one named data row of a bar chart.
type Series struct {
	Name string `json:"name"`
	Data []int  `json:"data"`
}

// Axis describes one chart axis.
type Axis struct {
	Title      string   `json:"title"`
	Categories []string `json:"categories,omitempty"`
}

// Bar is the rendering configuration handed to the browser chart widget.
type Bar struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	XAxis        Axis     `json:"xaxis"`
	YAxis        Axis     `json:"yaxis"`
	Series       []Series `json:"series"`
	Colors       []string `json:"colors"`
	LabelColor   string   `json:"labelColor"`
	LabelSize    string   `json:"labelSize"`
	BorderRadius int      `json:"borderRadius"`
	ColumnWidth  string   `json:"columnWidth"`
	DataLabels   bool     `json:"dataLabels"`
}

// NewBar builds a bar chart configuration. The inputs are copied, so later
// changes by the caller do not leak into the returned value.
func NewBar(id, title string, categories []string, data []int, theme Theme) Bar {
	cats := append([]string(nil), categories...)
	vals := append([]int(nil), data...)
	if cats == nil {
		cats = []string{}
	}
	if vals == nil {
		vals = []int{}
	}
	return Bar{
		ID:    id,
		Title: title,
		XAxis: Axis{Title: "Time", Categories: cats},
		YAxis: Axis{Title: "Count"},
		Series: []Series{
			{Name: "Count", Data: vals},
		},
		Colors:       []string{theme.Secondary.Main, theme.Primary.Main},
		LabelColor:   theme.Secondary.Dark,
		LabelSize:    "20px",
		BorderRadius: 70,
		ColumnWidth:  "70%",
		DataLabels:   false,
	}
}
