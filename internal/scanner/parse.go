// Package scanner walks library directories, parses media filenames and
// keeps the catalog tables in sync with what is on disk.
package scanner

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// videoExtensions lists the container extensions treated as media files.
var videoExtensions = map[string]bool{
	".mp4": true,
	".mkv": true,
	".avi": true,
	".mov": true,
	".wmv": true,
	".m4v": true,
}

// extrasDirs are directory names whose contents are bonus material rather
// than main features or broadcast episodes.
var extrasDirs = map[string]bool{
	"featurettes":      true,
	"extras":           true,
	"bonus":            true,
	"deleted scenes":   true,
	"behind the scenes": true,
	"special features": true,
	"interviews":       true,
	"shorts":           true,
}

// genericDirs are folder names that carry no title information.
var genericDirs = map[string]bool{
	"tmp": true, "temp": true, "download": true, "downloads": true,
	"media": true, "videos": true, "tv": true, "tv shows": true, "movies": true,
}

// junkWords are release-name tokens stripped before title extraction.
var junkWords = []string{
	"1080p", "720p", "2160p", "4k", "bluray", "webrip", "hdrip", "web-dl",
	"web", "x264", "x265", "h264", "hevc", "yify", "yts", "extended",
	"proper", "repack", "remastered", "hdr", "dvdrip", "10bit", "dts",
	"ddp5", "ddp", "aac", "amzn", "nf", "atvp", "hulu", "6ch", "mkv",
	"complete", "collection",
}

var (
	junkRegexps  []*regexp.Regexp
	delimiterRE  = regexp.MustCompile(`[._-]`)
	bracketRE    = regexp.MustCompile(`\[[^\]]*\]|\([^)]*\)`)
	yearRE       = regexp.MustCompile(`\b(19\d{2}|20\d{2})\b`)
	spaceRE      = regexp.MustCompile(`\s+`)
	trailingNumRE = regexp.MustCompile(`\b\d{1,2}$`)

	// episode naming patterns, most specific first
	sxxExxRE   = regexp.MustCompile(`(?i)(?:^|[^a-z0-9])s(\d{1,2})[ex](\d{1,3})(?:[^0-9]|$)`)
	nxNNRE     = regexp.MustCompile(`(?i)(?:^|[^a-z0-9])(\d{1,2})x(\d{2,3})(?:[^0-9]|$)`)
	seasonDirRE = regexp.MustCompile(`(?i)^season[ _-]?(\d{1,2})`)
	seasonOnlyRE = regexp.MustCompile(`(?i)^s\d{1,2}$`)

	episodeTagRE = regexp.MustCompile(`(?i)s\d{1,2}[ex]\d{1,3}|\b\d{1,2}x\d{2,3}\b`)
	seasonTagRE  = regexp.MustCompile(`(?i)\bseason\s*\d+(\s*-\s*\d+)?\b|\bs\d{1,2}(-s\d{1,2})?\b`)
)

func init() {
	for _, w := range junkWords {
		junkRegexps = append(junkRegexps, regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(w)+`\b`))
	}
}

// IsVideoFile reports whether path names a media file worth cataloguing.
// Samples and standalone trailer files are skipped.
func IsVideoFile(path string) bool {
	base := strings.ToLower(filepath.Base(path))
	if !videoExtensions[strings.ToLower(filepath.Ext(path))] {
		return false
	}
	return !strings.Contains(base, "sample") && !strings.Contains(base, "trailer")
}

// CleanName extracts a display title and release year from a file or
// directory name. Year is 0 when none is present; titles that are
// themselves a year (e.g. "1883") are preserved.
func CleanName(raw string) (string, int) {
	name := raw
	if ext := filepath.Ext(name); videoExtensions[strings.ToLower(ext)] {
		name = strings.TrimSuffix(name, ext)
	}
	name = delimiterRE.ReplaceAllString(name, " ")

	// Pull the year out before bracket stripping so "Title (2009)" keeps
	// its year. The last year-like token wins ("Blade Runner 2049 (2017)").
	year := 0
	if ms := yearRE.FindAllStringIndex(name, -1); ms != nil {
		last := ms[len(ms)-1]
		before := strings.TrimRight(name[:last[0]], " ([")
		// "1883" alone is a title, not a year
		if strings.TrimSpace(before) != "" {
			year, _ = strconv.Atoi(name[last[0]:last[1]])
			name = before
		}
	}

	name = bracketRE.ReplaceAllString(name, "")
	for _, re := range junkRegexps {
		name = re.ReplaceAllString(name, "")
	}
	name = episodeTagRE.ReplaceAllString(name, "")
	name = seasonTagRE.ReplaceAllString(name, "")
	name = spaceRE.ReplaceAllString(name, " ")
	name = strings.TrimSpace(name)

	name = trailingNumRE.ReplaceAllString(name, "")
	name = strings.TrimSpace(spaceRE.ReplaceAllString(name, " "))
	return capitalizeWords(name), year
}

// titleCaser upper-cases the first letter of each word so titles from
// all-lowercase release names display sensibly. NoLower preserves
// existing casing within words (McTeague, RoboCop).
var titleCaser = cases.Title(language.English, cases.NoLower)

func capitalizeWords(s string) string {
	return titleCaser.String(s)
}

// EpisodeInfo is the result of parsing a TV file path.
type EpisodeInfo struct {
	Show      string
	Season    int
	Episode   int
	Extra     bool
	ExtraType string
	YearHint  int
}

// ParseEpisode extracts show, season and episode numbering from a file
// path. It returns false when the path does not look like a TV episode.
func ParseEpisode(path string) (*EpisodeInfo, bool) {
	base := filepath.Base(path)

	season, episode, found := matchEpisodeNumber(base)
	if !found {
		// No marker in the filename; fall back to a "Season N" parent
		// directory with episodes numbered by sort order.
		season, episode, found = episodeFromSeasonDir(path)
		if !found {
			return nil, false
		}
	}

	info := &EpisodeInfo{Season: season, Episode: episode}

	// Extras live under a bonus-material directory anywhere up the tree.
	for dir := filepath.Dir(path); ; dir = filepath.Dir(dir) {
		name := strings.ToLower(filepath.Base(dir))
		if extrasDirs[name] || strings.Contains(name, "extra") {
			info.Extra = true
			info.ExtraType = name
			break
		}
		if parent := filepath.Dir(dir); parent == dir {
			break
		}
	}

	info.Show, info.YearHint = showName(path)
	if info.Show == "" {
		return nil, false
	}
	return info, true
}

func matchEpisodeNumber(name string) (season, episode int, ok bool) {
	if m := sxxExxRE.FindStringSubmatch(name); m != nil {
		season, _ = strconv.Atoi(m[1])
		episode, _ = strconv.Atoi(m[2])
		return season, episode, true
	}
	if m := nxNNRE.FindStringSubmatch(name); m != nil {
		season, _ = strconv.Atoi(m[1])
		episode, _ = strconv.Atoi(m[2])
		return season, episode, true
	}
	return 0, 0, false
}

// episodeFromSeasonDir numbers unmarked files in a "Season N" directory
// by their lexical position among sibling video files.
func episodeFromSeasonDir(path string) (season, episode int, ok bool) {
	dir := filepath.Dir(path)
	m := seasonDirRE.FindStringSubmatch(filepath.Base(dir))
	if m == nil {
		return 0, 0, false
	}
	season, _ = strconv.Atoi(m[1])

	entries, err := os.ReadDir(dir)
	if err != nil {
		return season, 0, true
	}
	var siblings []string
	for _, e := range entries {
		if !e.IsDir() && IsVideoFile(e.Name()) {
			siblings = append(siblings, e.Name())
		}
	}
	sort.Strings(siblings)
	base := filepath.Base(path)
	for i, name := range siblings {
		if name == base {
			return season, i + 1, true
		}
	}
	return season, 0, true
}

// showName walks up the directory tree past season folders, extras
// folders and generic names until it finds something that looks like a
// series title, falling back to the filename itself.
func showName(path string) (string, int) {
	for dir := filepath.Dir(path); ; dir = filepath.Dir(dir) {
		base := filepath.Base(dir)
		if !isNoiseDir(base) {
			if title, year := CleanName(base); usableTitle(title) {
				return title, year
			}
		}
		if parent := filepath.Dir(dir); parent == dir {
			break
		}
	}

	// Strip everything from the episode marker onward and clean what is left.
	stem := filepath.Base(path)
	stem = strings.TrimSuffix(stem, filepath.Ext(stem))
	if loc := episodeTagRE.FindStringIndex(stem); loc != nil {
		stem = stem[:loc[0]]
	}
	title, year := CleanName(stem)
	if usableTitle(title) {
		return title, year
	}
	return "", 0
}

func isNoiseDir(name string) bool {
	lower := strings.ToLower(strings.TrimSpace(name))
	if lower == "" || lower == "/" || lower == "." {
		return true
	}
	if seasonDirRE.MatchString(lower) || seasonOnlyRE.MatchString(lower) {
		return true
	}
	if extrasDirs[lower] || genericDirs[lower] {
		return true
	}
	return episodeTagRE.MatchString(lower)
}

func usableTitle(title string) bool {
	if len(title) < 3 {
		return false
	}
	if _, err := strconv.Atoi(title); err == nil {
		return false
	}
	return strings.ContainsFunc(title, func(r rune) bool {
		return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
	})
}
