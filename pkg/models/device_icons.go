package models

// FormFactorIcon maps a FormFactor to its icon identifier.
// Identifiers use Lucide icon names (https://lucide.dev) for
// compatibility with the dashboard.
var FormFactorIcon = map[FormFactor]string{
	FormFactorPhone:      "smartphone",
	FormFactorTV:         "tv",
	FormFactorTablet:     "tablet",
	FormFactorAutomotive: "car",
	FormFactorChromebook: "laptop",
	FormFactorWearable:   "watch",
	FormFactorPlayGames:  "gamepad-2",
	FormFactorUnknown:    "help-circle",
}

// Icon returns the icon identifier for a FormFactor.
// Returns "help-circle" for unrecognised form factors.
func (f FormFactor) Icon() string {
	if icon, ok := FormFactorIcon[f]; ok {
		return icon
	}
	return FormFactorIcon[FormFactorUnknown]
}
