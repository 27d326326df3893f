package gsearch

import (
	"fmt"
	"strconv"
	"strings"

	"gsearch/internal/paging"
)

// Filter enums hold the literal the service expects. The zero value of every
// enum is unrestricted and emits no query parameter.

type SafeLevel string

const (
	SafeUnrestricted SafeLevel = ""
	SafeActive       SafeLevel = "active"
	SafeModerate     SafeLevel = "moderate"
	SafeOff          SafeLevel = "off"
)

func (s SafeLevel) String() string { return string(s) }

func ParseSafeLevel(text string) (SafeLevel, error) {
	return parseLiteral("safe", text, SafeActive, SafeModerate, SafeOff)
}

type ImageSize string

const (
	ImageSizeAny     ImageSize = ""
	ImageSizeIcon    ImageSize = "icon"
	ImageSizeSmall   ImageSize = "small"
	ImageSizeMedium  ImageSize = "medium"
	ImageSizeLarge   ImageSize = "large"
	ImageSizeXLarge  ImageSize = "xlarge"
	ImageSizeXXLarge ImageSize = "xxlarge"
	ImageSizeHuge    ImageSize = "huge"
)

func (s ImageSize) String() string { return string(s) }

func ParseImageSize(text string) (ImageSize, error) {
	return parseLiteral("size", text,
		ImageSizeIcon, ImageSizeSmall, ImageSizeMedium, ImageSizeLarge,
		ImageSizeXLarge, ImageSizeXXLarge, ImageSizeHuge)
}

type Colorization string

const (
	ColorizationAny   Colorization = ""
	ColorizationGray  Colorization = "gray"
	ColorizationColor Colorization = "color"
)

func (c Colorization) String() string { return string(c) }

func ParseColorization(text string) (Colorization, error) {
	return parseLiteral("colorization", text, ColorizationGray, ColorizationColor)
}

// ImageColor restricts images to a dominant color.
type ImageColor string

const (
	ImageColorAny    ImageColor = ""
	ImageColorBlack  ImageColor = "black"
	ImageColorBlue   ImageColor = "blue"
	ImageColorBrown  ImageColor = "brown"
	ImageColorGray   ImageColor = "gray"
	ImageColorGreen  ImageColor = "green"
	ImageColorOrange ImageColor = "orange"
	ImageColorPink   ImageColor = "pink"
	ImageColorPurple ImageColor = "purple"
	ImageColorRed    ImageColor = "red"
	ImageColorTeal   ImageColor = "teal"
	ImageColorWhite  ImageColor = "white"
	ImageColorYellow ImageColor = "yellow"
)

func (c ImageColor) String() string { return string(c) }

func ParseImageColor(text string) (ImageColor, error) {
	return parseLiteral("color", text,
		ImageColorBlack, ImageColorBlue, ImageColorBrown, ImageColorGray,
		ImageColorGreen, ImageColorOrange, ImageColorPink, ImageColorPurple,
		ImageColorRed, ImageColorTeal, ImageColorWhite, ImageColorYellow)
}

type ImageType string

const (
	ImageTypeAny     ImageType = ""
	ImageTypeFace    ImageType = "face"
	ImageTypePhoto   ImageType = "photo"
	ImageTypeClipart ImageType = "clipart"
	ImageTypeLineart ImageType = "lineart"
)

func (t ImageType) String() string { return string(t) }

func ParseImageType(text string) (ImageType, error) {
	return parseLiteral("image_type", text, ImageTypeFace, ImageTypePhoto, ImageTypeClipart, ImageTypeLineart)
}

type FileType string

const (
	FileTypeAny FileType = ""
	FileTypeJPG FileType = "jpg"
	FileTypePNG FileType = "png"
	FileTypeGIF FileType = "gif"
	FileTypeBMP FileType = "bmp"
)

func (t FileType) String() string { return string(t) }

func ParseFileType(text string) (FileType, error) {
	if strings.EqualFold(strings.TrimSpace(text), "jpeg") {
		return FileTypeJPG, nil
	}
	return parseLiteral("file_type", text, FileTypeJPG, FileTypePNG, FileTypeGIF, FileTypeBMP)
}

// Language restricts web results to documents written in one language.
type Language string

const LanguageAny Language = ""

var languageCodes = []string{
	"ar", "bg", "ca", "zh-CN", "zh-TW", "hr", "cs", "da", "nl", "en", "et",
	"fi", "fr", "de", "el", "iw", "hu", "is", "id", "it", "ja", "ko", "lv",
	"lt", "no", "pl", "pt", "ro", "ru", "sr", "sk", "sl", "es", "sv", "tr",
}

func (l Language) String() string { return string(l) }

// ParseLanguage accepts a bare code ("en", "zh-tw") or the restrict literal ("lang_en").
func ParseLanguage(text string) (Language, error) {
	code := strings.TrimSpace(text)
	if code == "" {
		return LanguageAny, nil
	}
	if len(code) > 5 && strings.EqualFold(code[:5], "lang_") {
		code = code[5:]
	}
	for _, known := range languageCodes {
		if strings.EqualFold(known, code) {
			return Language("lang_" + known), nil
		}
	}
	return LanguageAny, unsupported("lang", text)
}

// DuplicateFilter toggles the service's near-duplicate collapsing.
type DuplicateFilter string

const (
	DuplicatesDefault  DuplicateFilter = ""
	DuplicatesFiltered DuplicateFilter = "1"
	DuplicatesShown    DuplicateFilter = "0"
)

func (d DuplicateFilter) String() string { return string(d) }

func ParseDuplicateFilter(text string) (DuplicateFilter, error) {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "":
		return DuplicatesDefault, nil
	case "1", "on", "true", "yes":
		return DuplicatesFiltered, nil
	case "0", "off", "false", "no":
		return DuplicatesShown, nil
	default:
		return DuplicatesDefault, unsupported("dedupe", text)
	}
}

// SortOrder orders video, news, and patent results.
type SortOrder string

const (
	SortByRelevance SortOrder = ""
	SortByDate      SortOrder = "d"
)

func (s SortOrder) String() string { return string(s) }

func ParseSortOrder(text string) (SortOrder, error) {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "", "relevance":
		return SortByRelevance, nil
	case "date", "d":
		return SortByDate, nil
	default:
		return SortByRelevance, unsupported("sort", text)
	}
}

// LocalResultType selects which listing kinds a local search returns.
type LocalResultType string

const (
	LocalResultsBlended   LocalResultType = ""
	LocalResultsKMLOnly   LocalResultType = "kmlonly"
	LocalResultsLocalOnly LocalResultType = "localonly"
)

func (t LocalResultType) String() string { return string(t) }

func ParseLocalResultType(text string) (LocalResultType, error) {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "", "blended":
		return LocalResultsBlended, nil
	case "kml", "kmlonly":
		return LocalResultsKMLOnly, nil
	case "local", "localonly":
		return LocalResultsLocalOnly, nil
	default:
		return LocalResultsBlended, unsupported("result_type", text)
	}
}

// NewsTopic restricts news results to one section.
type NewsTopic string

const (
	NewsTopicAny           NewsTopic = ""
	NewsTopicHeadlines     NewsTopic = "h"
	NewsTopicWorld         NewsTopic = "w"
	NewsTopicBusiness      NewsTopic = "b"
	NewsTopicNation        NewsTopic = "n"
	NewsTopicScienceTech   NewsTopic = "t"
	NewsTopicElections     NewsTopic = "el"
	NewsTopicPolitics      NewsTopic = "p"
	NewsTopicEntertainment NewsTopic = "e"
	NewsTopicSports        NewsTopic = "s"
	NewsTopicHealth        NewsTopic = "m"
)

var newsTopicNames = map[string]NewsTopic{
	"headlines":     NewsTopicHeadlines,
	"world":         NewsTopicWorld,
	"business":      NewsTopicBusiness,
	"nation":        NewsTopicNation,
	"scitech":       NewsTopicScienceTech,
	"science":       NewsTopicScienceTech,
	"technology":    NewsTopicScienceTech,
	"elections":     NewsTopicElections,
	"politics":      NewsTopicPolitics,
	"entertainment": NewsTopicEntertainment,
	"sports":        NewsTopicSports,
	"health":        NewsTopicHealth,
}

func (t NewsTopic) String() string { return string(t) }

// ParseNewsTopic accepts a section name ("world") or its literal ("w").
func ParseNewsTopic(text string) (NewsTopic, error) {
	key := strings.ToLower(strings.TrimSpace(text))
	if key == "" {
		return NewsTopicAny, nil
	}
	if topic, ok := newsTopicNames[key]; ok {
		return topic, nil
	}
	for _, topic := range newsTopicNames {
		if string(topic) == key {
			return topic, nil
		}
	}
	return NewsTopicAny, unsupported("topic", text)
}

// PatentFilter restricts patents by lifecycle status.
type PatentFilter string

const (
	PatentsAny        PatentFilter = ""
	PatentsIssuedOnly PatentFilter = "issued"
	PatentsFiledOnly  PatentFilter = "filed"
)

func (p PatentFilter) String() string { return string(p) }

func ParsePatentFilter(text string) (PatentFilter, error) {
	return parseLiteral("status", text, PatentsIssuedOnly, PatentsFiledOnly)
}

// LatLng is a search center for local results.
type LatLng struct {
	Lat float64
	Lng float64
}

func (p LatLng) String() string {
	return strconv.FormatFloat(p.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(p.Lng, 'f', -1, 64)
}

// ParseLatLng parses "lat,lng". Empty text returns nil.
func ParseLatLng(text string) (*LatLng, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	parts := strings.Split(text, ",")
	if len(parts) != 2 {
		return nil, unsupported("center", text)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil || lat < -90 || lat > 90 {
		return nil, unsupported("center", text)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil || lng < -180 || lng > 180 {
		return nil, unsupported("center", text)
	}
	return &LatLng{Lat: lat, Lng: lng}, nil
}

func parseLiteral[E ~string](name, text string, values ...E) (E, error) {
	var zero E
	key := strings.ToLower(strings.TrimSpace(text))
	if key == "" {
		return zero, nil
	}
	for _, v := range values {
		if string(v) == key {
			return v, nil
		}
	}
	return zero, unsupported(name, text)
}

func unsupported(name, text string) error {
	return paging.InvalidArgument(name, fmt.Sprintf("unsupported value %q", text))
}
