// Package camera - This file contains the capture profile catalog: the
// common webcam resolutions used to request capture properties and to label
// probed devices.
package camera

import "fmt"

// ProfileName identifies a standard capture resolution (e.g. "VGA").
type ProfileName string

const (
	ProfileQVGA  ProfileName = "QVGA"
	ProfileVGA   ProfileName = "VGA"
	ProfileSVGA  ProfileName = "SVGA"
	ProfileNHD   ProfileName = "nHD"
	ProfileHD720 ProfileName = "HD 720p"
	ProfileFHD   ProfileName = "Full HD 1080p"
	ProfileQHD   ProfileName = "QHD 1440p"
	Profile4KUHD ProfileName = "4K UHD"
)

// Profile describes one capture resolution standard.
type Profile struct {
	Name   ProfileName
	Width  int
	Height int
}

// String returns a human-readable summary, e.g. "VGA (640x480)".
func (p Profile) String() string {
	return fmt.Sprintf("%s (%dx%d)", p.Name, p.Width, p.Height)
}

// profiles holds the supported capture standards keyed by name.
var profiles = map[ProfileName]Profile{
	ProfileQVGA:  {Name: ProfileQVGA, Width: 320, Height: 240},
	ProfileVGA:   {Name: ProfileVGA, Width: 640, Height: 480},
	ProfileSVGA:  {Name: ProfileSVGA, Width: 800, Height: 600},
	ProfileNHD:   {Name: ProfileNHD, Width: 640, Height: 360},
	ProfileHD720: {Name: ProfileHD720, Width: 1280, Height: 720},
	ProfileFHD:   {Name: ProfileFHD, Width: 1920, Height: 1080},
	ProfileQHD:   {Name: ProfileQHD, Width: 2560, Height: 1440},
	Profile4KUHD: {Name: Profile4KUHD, Width: 3840, Height: 2160},
}

// ProfileByName retrieves a capture profile by its standard name.
func ProfileByName(name ProfileName) (Profile, bool) {
	p, ok := profiles[name]
	return p, ok
}

// MatchProfile finds the profile with exactly the given dimensions. Reports
// false when the dimensions match no known standard.
func MatchProfile(width, height int) (Profile, bool) {
	for _, p := range profiles {
		if p.Width == width && p.Height == height {
			return p, true
		}
	}
	return Profile{}, false
}

// Label renders the device's resolution, naming the capture standard when
// the dimensions match one ("640x480 (VGA)", otherwise "628x472").
func (d Device) Label() string {
	if p, ok := MatchProfile(d.Width, d.Height); ok {
		return fmt.Sprintf("%dx%d (%s)", d.Width, d.Height, p.Name)
	}
	return fmt.Sprintf("%dx%d", d.Width, d.Height)
}
