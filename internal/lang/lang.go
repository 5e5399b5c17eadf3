package lang

import (
	"fmt"
	"strings"

	"github.com/GriffinCanCode/dicthub/internal/shared/failure"
)

// Lang is a supported language, identified by its ISO 639-1 style code.
type Lang string

const (
	EN   Lang = "en"
	ZhCN Lang = "zh-CN"
	ZhTW Lang = "zh-TW"
	JA   Lang = "ja"
	AF   Lang = "af"
	SQ   Lang = "sq"
	AR   Lang = "ar"
	AZ   Lang = "az"
	EU   Lang = "eu"
	BN   Lang = "bn"
	BE   Lang = "be"
	BG   Lang = "bg"
	CA   Lang = "ca"
	HR   Lang = "hr"
	CS   Lang = "cs"
	DA   Lang = "da"
	NL   Lang = "nl"
	EO   Lang = "eo"
	ET   Lang = "et"
	TL   Lang = "tl"
	FI   Lang = "fi"
	FR   Lang = "fr"
	GL   Lang = "gl"
	KA   Lang = "ka"
	DE   Lang = "de"
	EL   Lang = "el"
	GU   Lang = "gu"
	HT   Lang = "ht"
	IW   Lang = "iw"
	HI   Lang = "hi"
	HU   Lang = "hu"
	IS   Lang = "is"
	ID   Lang = "id"
	GA   Lang = "ga"
	IT   Lang = "it"
	KN   Lang = "kn"
	KO   Lang = "ko"
	LA   Lang = "la"
	LV   Lang = "lv"
	LT   Lang = "lt"
	MK   Lang = "mk"
	MS   Lang = "ms"
	MT   Lang = "mt"
	NO   Lang = "no"
	FA   Lang = "fa"
	PL   Lang = "pl"
	PT   Lang = "pt"
	RO   Lang = "ro"
	RU   Lang = "ru"
	SR   Lang = "sr"
	SK   Lang = "sk"
	SL   Lang = "sl"
	ES   Lang = "es"
	SW   Lang = "sw"
	SV   Lang = "sv"
	TA   Lang = "ta"
	TE   Lang = "te"
	TH   Lang = "th"
	TR   Lang = "tr"
	UK   Lang = "uk"
	UR   Lang = "ur"
	VI   Lang = "vi"
	CY   Lang = "cy"
	YI   Lang = "yi"
)

var all = []Lang{
	EN, ZhCN, ZhTW, JA,
	AF, SQ, AR, AZ, EU, BN, BE, BG, CA, HR, CS, DA, NL, EO, ET, TL, FI, FR,
	GL, KA, DE, EL, GU, HT, IW, HI, HU, IS, ID, GA, IT, KN, KO, LA, LV, LT,
	MK, MS, MT, NO, FA, PL, PT, RO, RU, SR, SK, SL, ES, SW, SV, TA, TE, TH,
	TR, UK, UR, VI, CY, YI,
}

var byCode = func() map[string]Lang {
	m := make(map[string]Lang, len(all))
	for _, l := range all {
		m[string(l)] = l
	}
	return m
}()

// All returns every supported language in display order.
func All() []Lang {
	out := make([]Lang, len(all))
	copy(out, all)
	return out
}

// Code returns the language code.
func (l Lang) Code() string {
	return string(l)
}

func (l Lang) String() string {
	return string(l)
}

// Valid reports whether l is in the supported set.
func (l Lang) Valid() bool {
	_, ok := byCode[string(l)]
	return ok
}

// FromCode looks code up exactly, then retries with the region suffix
// stripped and lower-cased ("pt-BR" → "pt").
func FromCode(code string) (Lang, error) {
	if l, ok := byCode[code]; ok {
		return l, nil
	}
	base, _, _ := strings.Cut(strings.ToLower(code), "-")
	if l, ok := byCode[base]; ok {
		return l, nil
	}
	return "", fmt.Errorf("%w: %q", failure.ErrUnknownLang, code)
}

// MustFromCode is FromCode for package-level constants; it panics on unknown codes.
func MustFromCode(code string) Lang {
	l, err := FromCode(code)
	if err != nil {
		panic(err)
	}
	return l
}

// UnmarshalText implements encoding.TextUnmarshaler so Lang fields reject
// unknown codes at the decode boundary.
func (l *Lang) UnmarshalText(text []byte) error {
	parsed, err := FromCode(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (l Lang) MarshalText() ([]byte, error) {
	return []byte(l), nil
}
