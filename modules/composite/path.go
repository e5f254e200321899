package composite

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"sort"
	"strconv"
	"strings"
)

var colorOpaque = color.Alpha{A: 255}

// outline path는 SVG 축약 문법의 부분집합으로, 좌표는 전부 0~1 정규화 값이다.
// 지원 커맨드: M(이동), L(직선), C/Q(끝점만 취해 직선 근사), Z(닫기).
// 대소문자 무관, 전부 절대 좌표로 취급한다.

type subpath []point

type point struct {
	x, y float64
}

// parseOutlinePath - 정규화 path 문자열을 subpath 목록으로 파싱
func parseOutlinePath(path string) ([]subpath, error) {
	tokens := tokenizePath(path)
	if len(tokens) == 0 {
		return nil, fmt.Errorf("empty outline path")
	}

	var paths []subpath
	var current subpath

	i := 0
	readPoint := func() (point, error) {
		if i+1 >= len(tokens) {
			return point{}, fmt.Errorf("truncated coordinate pair at token %d", i)
		}
		x, errX := strconv.ParseFloat(tokens[i], 64)
		y, errY := strconv.ParseFloat(tokens[i+1], 64)
		if errX != nil || errY != nil {
			return point{}, fmt.Errorf("invalid coordinate pair %q %q", tokens[i], tokens[i+1])
		}
		i += 2
		return point{x: clamp01(x), y: clamp01(y)}, nil
	}

	for i < len(tokens) {
		cmd := strings.ToUpper(tokens[i])
		i++

		switch cmd {
		case "M":
			if len(current) >= 3 {
				paths = append(paths, current)
			}
			p, err := readPoint()
			if err != nil {
				return nil, err
			}
			current = subpath{p}

		case "L":
			p, err := readPoint()
			if err != nil {
				return nil, err
			}
			current = append(current, p)

		case "C", "Q":
			// 제어점은 버리고 끝점만 취한다
			nControl := 2
			if cmd == "Q" {
				nControl = 1
			}
			var last point
			var err error
			for k := 0; k <= nControl; k++ {
				last, err = readPoint()
				if err != nil {
					return nil, err
				}
			}
			current = append(current, last)

		case "Z":
			if len(current) >= 3 {
				paths = append(paths, current)
			}
			current = nil

		default:
			// 커맨드 생략 시 직전 커맨드 반복 (L로 취급)
			if _, err := strconv.ParseFloat(cmd, 64); err == nil {
				i--
				p, err := readPoint()
				if err != nil {
					return nil, err
				}
				current = append(current, p)
				continue
			}
			return nil, fmt.Errorf("unsupported path command %q", cmd)
		}
	}

	if len(current) >= 3 {
		paths = append(paths, current)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("outline path has no closed region")
	}
	return paths, nil
}

func tokenizePath(path string) []string {
	var tokens []string
	var buf strings.Builder

	flush := func() {
		if buf.Len() > 0 {
			tokens = append(tokens, buf.String())
			buf.Reset()
		}
	}

	for _, r := range path {
		switch {
		case r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r':
			flush()
		case (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z'):
			flush()
			tokens = append(tokens, string(r))
		case r == '-':
			// 음수는 구분자 없이 붙어 올 수 있다 ("0.5-0.2")
			if buf.Len() > 0 {
				flush()
			}
			buf.WriteRune(r)
		default:
			buf.WriteRune(r)
		}
	}
	flush()
	return tokens
}

// rasterizeOutline - 정규화 subpath들을 width×height 알파 마스크로 래스터화
// even-odd 규칙의 scanline fill.
func rasterizeOutline(paths []subpath, width, height int) *image.Alpha {
	mask := image.NewAlpha(image.Rect(0, 0, width, height))

	for y := 0; y < height; y++ {
		// 픽셀 중심 기준 교차점 수집
		cy := (float64(y) + 0.5) / float64(height)

		var crossings []float64
		for _, sp := range paths {
			n := len(sp)
			for i := 0; i < n; i++ {
				a := sp[i]
				b := sp[(i+1)%n]
				if (a.y <= cy && b.y > cy) || (b.y <= cy && a.y > cy) {
					t := (cy - a.y) / (b.y - a.y)
					crossings = append(crossings, a.x+t*(b.x-a.x))
				}
			}
		}
		if len(crossings) < 2 {
			continue
		}
		sort.Float64s(crossings)

		for k := 0; k+1 < len(crossings); k += 2 {
			x0 := int(math.Ceil(crossings[k]*float64(width) - 0.5))
			x1 := int(math.Floor(crossings[k+1]*float64(width) - 0.5))
			if x0 < 0 {
				x0 = 0
			}
			if x1 >= width {
				x1 = width - 1
			}
			for x := x0; x <= x1; x++ {
				mask.SetAlpha(x, y, colorOpaque)
			}
		}
	}
	return mask
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
