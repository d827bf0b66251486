package docker

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/google/shlex"

	"github.com/schmitthub/testdock/internal/options"
)

// CIDFileOption is the run option that carries the container id file path.
const CIDFileOption = "cidfile"

// BuildRunArgs renders the argument vector for `<runtime> run`:
//
//	run <option flags> --cidfile <path> <args...> <image> <command...>
//
// Option flags appear in sorted key order. A one-character key becomes -k and
// anything longer becomes --kebab-case. true renders a bare flag, false and nil
// are omitted, sequences repeat the flag once per element, and mappings repeat
// it once per key=value pair. args and command are split with shell quoting
// rules.
func BuildRunArgs(image, args, command string, opts options.Options) ([]string, error) {
	if strings.TrimSpace(image) == "" {
		return nil, &ConfigurationError{Field: "image", Reason: "image is required"}
	}

	cidfile, _ := opts[CIDFileOption].(string)
	if cidfile == "" {
		return nil, &ConfigurationError{Field: CIDFileOption, Reason: "cid file path is required"}
	}

	argv := []string{"run"}
	for _, key := range opts.Keys() {
		if key == CIDFileOption {
			continue
		}
		rendered, err := renderOption(key, opts[key])
		if err != nil {
			return nil, err
		}
		argv = append(argv, rendered...)
	}
	argv = append(argv, "--"+CIDFileOption, cidfile)

	extra, err := splitWords("args", args)
	if err != nil {
		return nil, err
	}
	argv = append(argv, extra...)
	argv = append(argv, image)

	cmd, err := splitWords("command", command)
	if err != nil {
		return nil, err
	}
	return append(argv, cmd...), nil
}

// FlagName converts an option key to its command-line flag.
func FlagName(key string) string {
	if strings.HasPrefix(key, "-") {
		return key
	}
	if len([]rune(key)) == 1 {
		return "-" + key
	}

	var b strings.Builder
	b.WriteString("--")
	for i, r := range key {
		switch {
		case r == '_':
			b.WriteRune('-')
		case unicode.IsUpper(r):
			if i > 0 {
				b.WriteRune('-')
			}
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func renderOption(key string, value any) ([]string, error) {
	flag := FlagName(key)

	switch v := value.(type) {
	case nil:
		return nil, nil
	case bool:
		if v {
			return []string{flag}, nil
		}
		return nil, nil
	case []string:
		out := make([]string, 0, len(v)*2)
		for _, s := range v {
			out = append(out, flag, s)
		}
		return out, nil
	case []any:
		out := make([]string, 0, len(v)*2)
		for _, elem := range v {
			s, err := scalar(key, elem)
			if err != nil {
				return nil, err
			}
			out = append(out, flag, s)
		}
		return out, nil
	case options.Options:
		return renderPairs(key, flag, v)
	case map[string]any:
		return renderPairs(key, flag, v)
	case map[string]string:
		m := make(map[string]any, len(v))
		for k, s := range v {
			m[k] = s
		}
		return renderPairs(key, flag, m)
	default:
		s, err := scalar(key, v)
		if err != nil {
			return nil, err
		}
		return []string{flag, s}, nil
	}
}

func renderPairs(key, flag string, m map[string]any) ([]string, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]string, 0, len(keys)*2)
	for _, k := range keys {
		s, err := scalar(key, m[k])
		if err != nil {
			return nil, err
		}
		out = append(out, flag, k+"="+s)
	}
	return out, nil
}

func scalar(key string, value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case bool:
		return strconv.FormatBool(v), nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(v), nil
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case fmt.Stringer:
		return v.String(), nil
	default:
		return "", &ConfigurationError{
			Field:  "options." + key,
			Reason: fmt.Sprintf("unsupported value of type %T", value),
		}
	}
}

func splitWords(field, s string) ([]string, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	words, err := shlex.Split(s)
	if err != nil {
		return nil, &ConfigurationError{Field: field, Reason: err.Error()}
	}
	return words, nil
}
