package models

import "encoding/json"

// Track is the language a text is analysed as. It picks the model,
// lexicon and stop-word list.
type Track int

const (
	TrackEnglish Track = iota
	TrackTelugu
)

var trackNames = []string{"en", "te"}

// Tracks lists every language track.
var Tracks = []Track{TrackEnglish, TrackTelugu}

func (t Track) String() string { return enumName(trackNames, t) }

// ParseTrack parses "en" or "te".
func ParseTrack(s string) (Track, error) { return parseEnum[Track]("track", trackNames, s) }

func (t Track) MarshalJSON() ([]byte, error) { return json.Marshal(t.String()) }

func (t *Track) UnmarshalJSON(data []byte) error {
	return unmarshalEnum("track", trackNames, data, t)
}

// UnmarshalYAML lets tracks appear as strings in config files.
func (t *Track) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	v, err := ParseTrack(s)
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Mode is the session-wide language toggle.
type Mode int

const (
	ModeOriginal Mode = iota
	ModeTranslated
)

var modeNames = []string{"original", "translated"}

func (m Mode) String() string { return enumName(modeNames, m) }

// ParseMode parses "original" or "translated".
func ParseMode(s string) (Mode, error) { return parseEnum[Mode]("language mode", modeNames, s) }

func (m Mode) MarshalJSON() ([]byte, error) { return json.Marshal(m.String()) }

func (m *Mode) UnmarshalJSON(data []byte) error {
	return unmarshalEnum("language mode", modeNames, data, m)
}
