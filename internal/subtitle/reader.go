package subtitle

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/abadojack/whatlanggo"
	"golang.org/x/text/language"

	"github.com/MimeLyc/videochop/pkg/file"
)

// 00:02:16,612 --> 00:02:19,376
var timingPattern = regexp.MustCompile(`^(\d+):(\d{2}):(\d{2})[,.](\d{3})\s*-->\s*(\d+):(\d{2}):(\d{2})[,.](\d{3})`)

const utf8BOM = "\ufeff"

// SRTReader reads SubRip files.
type SRTReader struct{}

func NewReader() Reader {
	return SRTReader{}
}

func (SRTReader) Read(path string) (*Track, error) {
	if file.Ext(path) != ".srt" {
		return nil, fmt.Errorf("only SRT subtitle files are supported: %s", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open subtitle file: %w", err)
	}
	defer f.Close()

	return Parse(f, path)
}

// ReadSRTBytes parses SRT content that is already in memory.
func ReadSRTBytes(data []byte, path string) (*Track, error) {
	return Parse(bytes.NewReader(data), path)
}

// Parse reads SRT cues from r. path is recorded on the track and used in
// error messages only.
func Parse(r io.Reader, path string) (*Track, error) {
	var cues []Cue
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	current := Cue{}
	state := "index" // index, time, text
	var textLines []string
	lineNo := 0

	flush := func() {
		current.Text = strings.Join(textLines, "\n")
		cues = append(cues, current)
		current = Cue{}
		textLines = nil
	}

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if lineNo == 1 {
			line = strings.TrimPrefix(line, utf8BOM)
		}

		switch state {
		case "index":
			if line == "" {
				continue
			}
			index, err := strconv.Atoi(line)
			if err != nil {
				continue
			}
			current.Index = index
			state = "time"

		case "time":
			if line == "" {
				continue
			}
			start, end, err := parseTiming(line)
			if err != nil {
				return nil, fmt.Errorf("%s:%d: %w", path, lineNo, err)
			}
			current.Start = start
			current.End = end
			state = "text"

		case "text":
			if line == "" {
				flush()
				state = "index"
				continue
			}
			textLines = append(textLines, line)
		}
	}

	if state == "text" {
		flush()
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read subtitle file: %w", err)
	}

	return &Track{
		Path:     path,
		Cues:     cues,
		Language: detectLanguage(cues),
		Format:   "SRT",
	}, nil
}

func parseTiming(line string) (time.Duration, time.Duration, error) {
	m := timingPattern.FindStringSubmatch(line)
	if len(m) != 9 {
		return 0, 0, fmt.Errorf("invalid time format: %s", line)
	}
	start, err := timestamp(m[1], m[2], m[3], m[4])
	if err != nil {
		return 0, 0, err
	}
	end, err := timestamp(m[5], m[6], m[7], m[8])
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

func timestamp(hours, minutes, seconds, millis string) (time.Duration, error) {
	var parts [4]int
	for i, s := range []string{hours, minutes, seconds, millis} {
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, fmt.Errorf("invalid timestamp component %q: %w", s, err)
		}
		parts[i] = n
	}
	if parts[1] > 59 || parts[2] > 59 {
		return 0, fmt.Errorf("timestamp out of range: %s:%s:%s,%s", hours, minutes, seconds, millis)
	}
	return time.Duration(parts[0])*time.Hour +
		time.Duration(parts[1])*time.Minute +
		time.Duration(parts[2])*time.Second +
		time.Duration(parts[3])*time.Millisecond, nil
}

// detectLanguage picks the language most cues are written in.
func detectLanguage(cues []Cue) language.Tag {
	if len(cues) == 0 {
		return language.Und
	}

	counts := make(map[string]int)
	for _, cue := range cues {
		if strings.TrimSpace(cue.Text) == "" {
			continue
		}
		if code := whatlanggo.DetectLang(cue.Text).Iso6391(); code != "" {
			counts[code]++
		}
	}

	var topLang string
	var topCount int
	for code, count := range counts {
		if count > topCount || (count == topCount && code < topLang) {
			topLang = code
			topCount = count
		}
	}
	if topLang == "" {
		return language.Und
	}

	return language.All.Make(topLang)
}
