package params

// Preset is a named output size.
type Preset struct {
	ID     string
	Width  int
	Height int
}

var presets = map[string]Preset{
	"sq125": {ID: "sq125", Width: 125, Height: 125},
	"sq200": {ID: "sq200", Width: 200, Height: 200},
	"sq250": {ID: "sq250", Width: 250, Height: 250},
	"sq300": {ID: "sq300", Width: 300, Height: 300},
}

// LookupPreset returns the preset with the given id.
func LookupPreset(id string) (Preset, bool) {
	p, ok := presets[id]
	return p, ok
}
